package engine

import "testing"

type handle struct {
	id     int
	closed bool
}

func TestFreeListReusesAndBounds(t *testing.T) {
	created := 0
	var closed []*handle
	newHandle := func() *handle {
		created++
		return &handle{id: created}
	}
	release := func(h *handle) {
		h.closed = true
		closed = append(closed, h)
	}
	l := newFreeList(2, newHandle, release)

	a, b, c := l.get(), l.get(), l.get()
	if created != 3 {
		t.Fatalf("created %d handles, want 3", created)
	}
	l.put(a)
	l.put(b)
	l.put(c)
	if len(closed) != 1 || closed[0] != c {
		t.Fatalf("expected only the overflow handle closed, got %v", closed)
	}

	if got := l.get(); got != a {
		t.Fatalf("idle handle not reused")
	}
	if created != 3 {
		t.Fatalf("get created a handle while one was idle")
	}

	l.close()
	if !b.closed || a.closed {
		t.Fatalf("close must release idle handles only: a=%v b=%v", a.closed, b.closed)
	}
	l.put(a)
	if !a.closed {
		t.Fatalf("handle returned after close was not released")
	}
	l.close()
	if len(closed) != 3 {
		t.Fatalf("closed %d handles, want 3", len(closed))
	}
}
