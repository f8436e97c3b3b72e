package config

import (
	"os"
	"path/filepath"
	"testing"

	"ocrdrop/internal/engine"
	"ocrdrop/internal/ocr"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ocrdrop.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadDefaultsWhenAbsent(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, err := cfg.ProfileFor("")
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if p.Name != "robust" || p.Settings.String() != ocr.Robust().Settings.String() {
		t.Fatalf("default profile = %s %s", p.Name, p.Settings)
	}
	if cfg.EngineOptions().Kind != engine.KindCLI {
		t.Fatalf("default engine kind = %q", cfg.EngineOptions().Kind)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for a missing explicit config")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Profile != "robust" {
		t.Fatalf("profile = %q", cfg.Profile)
	}
}

func TestConfigOverridesProfile(t *testing.T) {
	path := writeConfig(t, `
profile: simple
workers: 3
extensions: [png, ".JPG"]
engine:
  kind: cli
  tessdata_dir: /opt/tessdata
ocr:
  language: deu
  psm: 11
  whitelist: ""
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p, err := cfg.ProfileFor("")
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if p.Variant != ocr.VariantSimple {
		t.Fatalf("variant = %s", p.Variant)
	}
	if p.Settings.Language != "deu" || p.Settings.PSM != 11 || p.Settings.OEM != 3 {
		t.Fatalf("settings = %s", p.Settings)
	}

	// The flag wins over the file, overrides still apply.
	p, err = cfg.ProfileFor("robust")
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if p.Variant != ocr.VariantRobust || p.Settings.Language != "deu" || p.Settings.Whitelist != "" || p.Settings.DPI != 300 {
		t.Fatalf("robust with overrides = %s", p.Settings)
	}

	if got := cfg.ProcessorOptions(p).Workers; got != 3 {
		t.Fatalf("workers = %d", got)
	}
	exts := cfg.ExtensionSet()
	if !exts.Match("a.jpg") || !exts.Match("b.PNG") || exts.Match("c.bmp") {
		t.Fatalf("extension set = %s", exts)
	}
	if opts := cfg.EngineOptions(); opts.TessdataDir != "/opt/tessdata" {
		t.Fatalf("engine options = %+v", opts)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"profile": "profile: fancy\n",
		"workers": "workers: -1\n",
		"engine":  "engine:\n  kind: cloud\n",
		"psm":     "ocr:\n  psm: 14\n",
		"oem":     "ocr:\n  oem: 9\n",
		"ext":     "extensions: [\".\"]\n",
		"syntax":  "profile: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("expected an error for %q", body)
			}
		})
	}
}
