package download

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestModelURL(t *testing.T) {
	got := ModelURL("base.en")
	want := "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin"
	if got != want {
		t.Errorf("ModelURL = %q, want %q", got, want)
	}
}

func TestModelUnknownName(t *testing.T) {
	_, _, err := Model("gigantic")
	if err == nil {
		t.Fatal("expected error for unknown model")
	}
	if !strings.Contains(err.Error(), "unknown model") {
		t.Errorf("got %v", err)
	}
}

func TestModelAlreadyOnDisk(t *testing.T) {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		t.Skip("model dir override uses XDG_DATA_HOME")
	}
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	dir := filepath.Join(os.Getenv("XDG_DATA_HOME"), "murmur", "models")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(dir, "ggml-tiny.bin")
	if err := os.WriteFile(want, []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, fetched, err := Model("tiny")
	if err != nil {
		t.Fatalf("Model: %v", err)
	}
	if fetched {
		t.Error("existing model should not be fetched again")
	}
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
}

func TestFetchWritesAtomically(t *testing.T) {
	body := strings.Repeat("w", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "ggml-tiny.bin")
	if err := fetch(srv.URL, dest); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != body {
		t.Errorf("downloaded %d bytes, want %d", len(data), len(body))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp file left behind: %d entries in %s", len(entries), dir)
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	dest := filepath.Join(dir, "ggml-tiny.bin")
	if err := fetch(srv.URL, dest); err == nil {
		t.Fatal("expected error on 404")
	}

	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("failed download must not leave a file under the real name")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("temp file left behind: %d entries in %s", len(entries), dir)
	}
}

func TestFetchTruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.Write([]byte("short"))
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "ggml-tiny.bin")
	if err := fetch(srv.URL, dest); err == nil {
		t.Fatal("expected error on truncated body")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Error("truncated download must not leave a file under the real name")
	}
}
