// Package download fetches whisper checkpoints from the upstream
// model repository into the local model directory.
package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"murmur/transcriber"
)

const modelBase = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main"

// ModelURL returns the upstream location of a ggml checkpoint.
func ModelURL(name string) string {
	return modelBase + "/" + transcriber.ModelFile(name)
}

// Model fetches a checkpoint by short name into the model directory
// and returns its path. A file already on disk is left alone, reported
// by fetched=false. Progress goes to stderr; the upstream publishes no
// checksums, so a completed download is only length-checked.
func Model(name string) (path string, fetched bool, err error) {
	if !transcriber.IsKnownModel(name) {
		known := append([]string(nil), transcriber.KnownModels...)
		sort.Strings(known)
		return "", false, fmt.Errorf("unknown model %q (known: %s)", name, strings.Join(known, ", "))
	}

	dir, err := transcriber.ModelDir()
	if err != nil {
		return "", false, fmt.Errorf("resolve model dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", false, fmt.Errorf("create model dir: %w", err)
	}

	path = filepath.Join(dir, transcriber.ModelFile(name))
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	if err := fetch(ModelURL(name), path); err != nil {
		return "", false, err
	}
	return path, true, nil
}

// fetch downloads url into dest. The body lands in a temp file next to
// dest so the final rename is atomic; an interrupted download never
// leaves a partial file under the real name.
func fetch(url, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".murmur-fetch-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // cleanup on any error path

	resp, err := http.Get(url)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("download model: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		tmp.Close()
		return fmt.Errorf("download model: %s", resp.Status)
	}

	src := io.Reader(resp.Body)
	if resp.ContentLength > 0 {
		src = &progressReader{r: resp.Body, total: resp.ContentLength, lastPct: -1}
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if resp.ContentLength > 0 {
		fmt.Fprintln(os.Stderr) // newline after progress
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write model: %w", err)
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("install model: %w", err)
	}
	return nil
}

type progressReader struct {
	r       io.Reader
	total   int64
	read    int64
	lastPct int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	pct := int(float64(p.read) / float64(p.total) * 100)
	if pct != p.lastPct {
		p.lastPct = pct
		fmt.Fprintf(os.Stderr, "\r  %d%% (%d / %d MB)", pct, p.read/(1<<20), p.total/(1<<20))
	}
	return n, err
}
