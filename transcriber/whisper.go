//go:build whisper

package transcriber

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"murmur/log"
)

type whisperEngine struct {
	cfg   Config
	log   *log.Logger
	path  string
	model whisper.Model
}

// New builds the whisper.cpp engine. The model file must already be
// on disk; Load defers the expensive weight load so the daemon can
// bring up its UI first.
func New(cfg Config, logger *log.Logger) (Engine, error) {
	path, err := ResolveModelPath(cfg.Model)
	if err != nil {
		return nil, err
	}
	return &whisperEngine{cfg: cfg, log: logger, path: path}, nil
}

func (e *whisperEngine) Name() string {
	base := strings.TrimSuffix(filepath.Base(e.path), ".bin")
	return "whisper.cpp/" + strings.TrimPrefix(base, "ggml-")
}

func (e *whisperEngine) Load() error {
	if e.model != nil {
		return nil
	}
	start := time.Now()
	model, err := whisper.New(e.path)
	if err != nil {
		return fmt.Errorf("load model %s: %w", e.path, err)
	}
	e.model = model
	e.log.Infof("model %s loaded in %s (%s)", filepath.Base(e.path), time.Since(start).Round(time.Millisecond), e.cfg.Compute)
	return nil
}

func (e *whisperEngine) Transcribe(ctx context.Context, samples []float32, language string) (string, error) {
	if err := e.Load(); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	wctx, err := e.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper context: %w", err)
	}
	wctx.SetThreads(uint(e.threads()))
	if language != "" && language != "auto" && e.model.IsMultilingual() {
		if err := wctx.SetLanguage(language); err != nil {
			e.log.Warnf("language %q rejected, auto-detecting: %v", language, err)
		}
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper process: %w", err)
	}

	var sb strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		sb.WriteString(segment.Text)
	}
	return strings.TrimSpace(sb.String()), nil
}

func (e *whisperEngine) threads() int {
	if e.cfg.Threads > 0 {
		return e.cfg.Threads
	}
	n := runtime.NumCPU()
	if n > 8 {
		n = 8
	}
	return n
}

func (e *whisperEngine) Close() error {
	if e.model != nil {
		e.model.Close()
		e.model = nil
	}
	return nil
}
