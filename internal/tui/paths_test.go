package tui

import (
	"reflect"
	"testing"
)

func TestSplitPaths(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   \n", nil},
		{"/tmp/a.png", []string{"/tmp/a.png"}},
		{"/tmp/a.png /tmp/scans", []string{"/tmp/a.png", "/tmp/scans"}},
		{`/tmp/my\ scans/b.jpg`, []string{"/tmp/my scans/b.jpg"}},
		{`'/tmp/my scans' "/tmp/other dir/c.png"`, []string{"/tmp/my scans", "/tmp/other dir/c.png"}},
		{`"/tmp/say \"hi\".png"`, []string{`/tmp/say "hi".png`}},
		{"/tmp/a.png\n/tmp/b.png\n", []string{"/tmp/a.png", "/tmp/b.png"}},
		{"file:///tmp/with%20space.png", []string{"/tmp/with space.png"}},
		{`''`, []string{""}},
	}
	for _, tc := range cases {
		if got := splitPaths(tc.in, true); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("splitPaths(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitPathsWindows(t *testing.T) {
	got := splitPaths(`C:\scans\a.png "C:\My Scans"`, false)
	want := []string{`C:\scans\a.png`, `C:\My Scans`}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}
