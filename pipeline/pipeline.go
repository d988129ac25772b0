// Package pipeline owns the path from a finalized recording to
// delivered text. Recordings supersede each other: when buffers pile
// up behind the worker only the newest is transcribed, and a result
// that finishes after a newer recording arrived is thrown away.
package pipeline

import (
	"runtime"
	"time"

	"murmur/audio"
	"murmur/log"
	"murmur/transcriber"
)

// Coordinator accepts finalized buffers from the hotkey path. Submit
// never blocks; the transcription happens on the coordinator's own
// worker.
type Coordinator interface {
	Submit(buf audio.Buffer)
	Depth() int
	Close()
}

// Deliverer copies text and injects it into the focused window.
type Deliverer interface {
	Deliver(text string) error
}

// Notifier is the slice of the desktop notification surface the
// pipeline reports through.
type Notifier interface {
	Done(text string, elapsed time.Duration)
	NoAudio()
	NoSpeech()
	Error(msg string)
}

// StatusSink reflects pipeline state in the tray.
type StatusSink interface {
	SetTranscribing(bool)
	SetQueueDepth(n int)
}

// Config wires the coordinator's collaborators. Engine and Log are
// required; the rest may be nil.
type Config struct {
	Engine   transcriber.Engine
	Language string
	Compute  string
	Deliver  Deliverer
	Notify   Notifier
	Status   StatusSink
	Log      *log.Logger
}

type request struct {
	buf       audio.Buffer
	lang      string
	submitted time.Time
}

func (cfg Config) notify(f func(Notifier)) {
	if cfg.Notify != nil {
		f(cfg.Notify)
	}
}

func (cfg Config) setTranscribing(on bool) {
	if cfg.Status != nil {
		cfg.Status.SetTranscribing(on)
	}
}

func (cfg Config) setQueueDepth(n int) {
	if cfg.Status != nil {
		cfg.Status.SetQueueDepth(n)
	}
}

// finish runs the tail of a job once the engine call came back and
// the staleness check passed: log, notify, deliver.
func (cfg Config) finish(req request, text string, err error, elapsed, queueWait time.Duration) {
	if err != nil {
		cfg.Log.Errorf("transcription failed: %v", err)
		cfg.notify(func(n Notifier) { n.Error(err.Error()) })
		return
	}
	if text == "" {
		cfg.Log.Infof("no speech detected in %.1fs of audio", req.buf.Duration())
		cfg.notify(func(n Notifier) { n.NoSpeech() })
		return
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	audioSec := req.buf.Duration()
	m := log.Metrics{
		AudioSeconds:  audioSec,
		TranscribeMs:  float64(elapsed.Milliseconds()),
		QueueWaitMs:   float64(queueWait.Milliseconds()),
		Model:         cfg.Engine.Name(),
		Compute:       cfg.Compute,
		Language:      req.lang,
		MemoryAllocMB: float64(ms.Alloc) / 1024 / 1024,
	}
	if audioSec > 0 {
		m.RTF = elapsed.Seconds() / audioSec
	}
	cfg.Log.Transcription(m)
	cfg.Log.TranscriptionText(text)

	if cfg.Deliver != nil {
		if err := cfg.Deliver.Deliver(text); err != nil {
			cfg.Log.Errorf("delivery failed: %v", err)
			cfg.notify(func(n Notifier) { n.Error("could not paste: " + err.Error()) })
			return
		}
	}
	cfg.notify(func(n Notifier) { n.Done(text, elapsed) })
}

// rejectEmpty handles the zero-length buffer sentinel from a stop
// with no captured audio. Returns true if the buffer was rejected.
func (cfg Config) rejectEmpty(buf audio.Buffer) bool {
	if !buf.Empty() {
		return false
	}
	cfg.Log.Infof("empty recording, nothing to transcribe")
	cfg.notify(func(n Notifier) { n.NoAudio() })
	return true
}
