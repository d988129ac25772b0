// Package transcriber turns finalized sample buffers into text with a
// locally loaded speech model.
package transcriber

import (
	"context"
	"errors"
)

// ErrDisabled marks a build without the whisper tag.
var ErrDisabled = errors.New("transcription disabled (build with -tags whisper to enable)")

// Engine is the narrow contract the pipeline consumes: load a model
// once, map a 16kHz mono sample buffer plus a language tag to plain
// text, tear down at shutdown. Implementations are blocking and are
// only ever called from one worker at a time.
type Engine interface {
	Name() string
	Load() error
	Transcribe(ctx context.Context, samples []float32, language string) (string, error)
	Close() error
}

// Config selects the model and how to run it.
type Config struct {
	Model   string  // model name ("base.en") or a path to a ggml file
	Compute Compute // resolved acceleration backend
	Threads int     // 0 picks a default
}
