package transcriber

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"murmur/log"
)

func modelDirEnv(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("model dir override uses XDG_DATA_HOME")
	}
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	return filepath.Join(dir, "murmur", "models")
}

func writeModel(t *testing.T, dir, name string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestResolveModelPathKnown(t *testing.T) {
	dir := modelDirEnv(t)
	want := writeModel(t, dir, "ggml-tiny.bin")

	got, err := ResolveModelPath("tiny")
	if err != nil {
		t.Fatalf("ResolveModelPath: %v", err)
	}
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveModelPathMissing(t *testing.T) {
	dir := modelDirEnv(t)

	_, err := ResolveModelPath("small.en")
	if err == nil {
		t.Fatal("expected error for missing model")
	}
	if !strings.Contains(err.Error(), filepath.Join(dir, "ggml-small.en.bin")) {
		t.Errorf("error should name the expected path: %v", err)
	}
	if !strings.Contains(err.Error(), "murmur download small.en") {
		t.Errorf("error should say how to get the model: %v", err)
	}
}

func TestResolveModelPathDefault(t *testing.T) {
	modelDirEnv(t)

	_, err := ResolveModelPath("")
	if err == nil {
		t.Fatal("expected error, no models on disk")
	}
	if !strings.Contains(err.Error(), "ggml-base.en.bin") {
		t.Errorf("empty model should default to base.en: %v", err)
	}
}

func TestResolveModelPathAbsolute(t *testing.T) {
	path := writeModel(t, t.TempDir(), "custom.bin")

	got, err := ResolveModelPath(path)
	if err != nil {
		t.Fatalf("ResolveModelPath: %v", err)
	}
	if got != path {
		t.Errorf("got %q, want %q", got, path)
	}

	if _, err := ResolveModelPath(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("expected error for missing model file")
	}
}

func TestResolveModelPathUnknown(t *testing.T) {
	_, err := ResolveModelPath("gigantic")
	if err == nil {
		t.Fatal("expected error for unknown model name")
	}
	if !strings.Contains(err.Error(), "unknown model") {
		t.Errorf("got %v", err)
	}
}

func TestIsKnownModel(t *testing.T) {
	for _, name := range []string{"tiny", "base.en", "large-v3-turbo"} {
		if !IsKnownModel(name) {
			t.Errorf("IsKnownModel(%q) = false", name)
		}
	}
	if IsKnownModel("whisper-9000") {
		t.Error("IsKnownModel(whisper-9000) = true")
	}
}

func TestResolveCompute(t *testing.T) {
	logger := log.Nop()
	for _, tt := range []struct {
		pref  string
		cuda  bool
		want  Compute
	}{
		{"cpu", true, ComputeCPU},
		{"cpu", false, ComputeCPU},
		{"cuda", true, ComputeCUDA},
		{"cuda", false, ComputeCPU},
		{"auto", true, ComputeCUDA},
		{"auto", false, ComputeCPU},
		{"", true, ComputeCUDA},
		{"banana", false, ComputeCPU},
	} {
		t.Run(tt.pref, func(t *testing.T) {
			probe := func() bool { return tt.cuda }
			if got := resolveCompute(tt.pref, probe, logger); got != tt.want {
				t.Errorf("resolveCompute(%q, cuda=%v) = %v, want %v", tt.pref, tt.cuda, got, tt.want)
			}
		})
	}
}

func TestFakeEngineRecordsCalls(t *testing.T) {
	f := NewFake("hello", nil)
	got, err := f.Transcribe(context.Background(), []float32{0.1, 0.2}, "en")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q", got)
	}
	if f.CallCount() != 1 || len(f.Calls()[0]) != 2 {
		t.Errorf("calls not recorded: %d", f.CallCount())
	}
	if langs := f.Languages(); len(langs) != 1 || langs[0] != "en" {
		t.Errorf("languages not recorded: %v", langs)
	}
}

func TestFakeEngineGate(t *testing.T) {
	f := NewFake("first", nil)
	f.Gate()

	done := make(chan string, 1)
	go func() {
		text, _ := f.Transcribe(context.Background(), []float32{0.5}, "")
		done <- text
	}()

	select {
	case <-f.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("Transcribe never started")
	}
	select {
	case <-done:
		t.Fatal("Transcribe returned before Release")
	case <-time.After(50 * time.Millisecond):
	}

	f.SetResult("second", nil)
	f.Release()

	select {
	case text := <-done:
		if text != "second" {
			t.Errorf("gated call should see the updated result, got %q", text)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Transcribe never returned after Release")
	}
}
