//go:build !whisper

package transcriber

import (
	"context"

	"murmur/log"
)

type stubEngine struct{}

// New without the whisper build tag returns an engine that refuses to
// run. Subcommands that never transcribe still work; the daemon fails
// at Load with a clear message instead of silently doing nothing.
func New(cfg Config, logger *log.Logger) (Engine, error) {
	return stubEngine{}, nil
}

func (stubEngine) Name() string { return "none" }

func (stubEngine) Load() error { return ErrDisabled }

func (stubEngine) Transcribe(ctx context.Context, samples []float32, language string) (string, error) {
	return "", ErrDisabled
}

func (stubEngine) Close() error { return nil }
