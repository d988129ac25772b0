package transcriber

import (
	"context"
	"fmt"
	"sync"
)

// FakeEngine is a scripted Engine for tests. It records every buffer
// it is handed and can hold a call open on a gate so tests control
// exactly when a transcription finishes.
type FakeEngine struct {
	mu      sync.Mutex
	text    string
	err     error
	gate    chan struct{}
	started chan struct{}
	calls   [][]float32
	langs   []string
	loads   int
	closes  int
}

func NewFake(text string, err error) *FakeEngine {
	return &FakeEngine{text: text, err: err, started: make(chan struct{}, 16)}
}

func (f *FakeEngine) Name() string { return "fake" }

func (f *FakeEngine) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return nil
}

// SetResult changes what subsequent Transcribe calls return.
func (f *FakeEngine) SetResult(text string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
	f.err = err
}

// Gate makes Transcribe block until Release. Installing a gate while
// a call is in flight does not affect that call.
func (f *FakeEngine) Gate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = make(chan struct{})
}

// Release opens the current gate; pending and future calls pass.
func (f *FakeEngine) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
}

// Started yields one token per Transcribe entry, before any gate wait.
func (f *FakeEngine) Started() <-chan struct{} { return f.started }

func (f *FakeEngine) Transcribe(ctx context.Context, samples []float32, language string) (string, error) {
	f.mu.Lock()
	cp := make([]float32, len(samples))
	copy(cp, samples)
	f.calls = append(f.calls, cp)
	f.langs = append(f.langs, language)
	gate := f.gate
	text, err := f.text, f.err
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
		f.mu.Lock()
		text, err = f.text, f.err
		f.mu.Unlock()
	}
	if err != nil {
		return "", fmt.Errorf("fake engine: %w", err)
	}
	return text, nil
}

func (f *FakeEngine) Calls() [][]float32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]float32, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *FakeEngine) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *FakeEngine) Languages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.langs...)
}

func (f *FakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}

func (f *FakeEngine) CloseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}
