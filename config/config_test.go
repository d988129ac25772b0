package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"murmur/log"
)

func configEnv(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("config dir override uses XDG_CONFIG_HOME")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return filepath.Join(dir, "murmur", "config.toml")
}

func TestLoadMissingFileIsDefaults(t *testing.T) {
	configEnv(t)
	got := Load(log.Nop())
	if got != Default() {
		t.Errorf("got %+v, want defaults", got)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := configEnv(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("model = \"small\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := Load(log.Nop())
	if got.Model != "small" {
		t.Errorf("Model = %q, want %q", got.Model, "small")
	}
	if !got.Sound || !got.Notifications || !got.AutoPaste {
		t.Errorf("absent keys should keep defaults: %+v", got)
	}
	if got.Language != "en" {
		t.Errorf("Language = %q, want default", got.Language)
	}
}

func TestLoadMalformedFileIsDefaults(t *testing.T) {
	path := configEnv(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("model = [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := Load(log.Nop())
	if got != Default() {
		t.Errorf("malformed config should load as defaults, got %+v", got)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	configEnv(t)

	cfg := Default()
	cfg.Microphone = "USB Headset Mic"
	cfg.Model = "large-v3"
	cfg.Sound = false
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := Load(log.Nop())
	if got != cfg {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, cfg)
	}
}
