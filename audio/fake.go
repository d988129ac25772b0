package audio

import (
	"sync"
	"time"
)

const fakeChunkSize = 1024

// FakeContext is a deterministic Context for tests: a settable device
// list plus captures that replay a prepared sample buffer through the
// callback, either all at once or paced like a real driver.
type FakeContext struct {
	mu         sync.Mutex
	devices    []Device
	devErr     error
	captureErr error
	samples    []float32
	realtime   bool
}

func NewFakeContext(devices ...Device) *FakeContext {
	return &FakeContext{devices: devices}
}

func (f *FakeContext) SetDevices(devices ...Device) {
	f.mu.Lock()
	f.devices = devices
	f.mu.Unlock()
}

func (f *FakeContext) SetSamples(samples []float32) {
	f.mu.Lock()
	f.samples = samples
	f.mu.Unlock()
}

func (f *FakeContext) SetRealtime(on bool) {
	f.mu.Lock()
	f.realtime = on
	f.mu.Unlock()
}

func (f *FakeContext) FailDevices(err error) {
	f.mu.Lock()
	f.devErr = err
	f.mu.Unlock()
}

func (f *FakeContext) FailCapture(err error) {
	f.mu.Lock()
	f.captureErr = err
	f.mu.Unlock()
}

func (f *FakeContext) Devices() ([]Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.devErr != nil {
		return nil, f.devErr
	}
	out := make([]Device, len(f.devices))
	copy(out, f.devices)
	return out, nil
}

func (f *FakeContext) NewCapture(_ *Device, config CaptureConfig) (CaptureDevice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return &FakeCapture{
		samples:   f.samples,
		rate:      config.SampleRate,
		realtime:  f.realtime,
		audioDone: make(chan struct{}),
	}, nil
}

func (f *FakeContext) Close() {}

type FakeCapture struct {
	samples   []float32
	rate      int
	realtime  bool
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone closes once all prepared samples have been delivered.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) loadCallback() DataCallback {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cb
}

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+fakeChunkSize, len(f.samples))
	chunk := make([]float32, end-pos)
	copy(chunk, f.samples[pos:end])
	cb(chunk)
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	// audioDone is NOT recreated here -- callers may already be waiting
	// on it. It's reset in Stop() for replay.

	if !f.realtime {
		// Deliver everything synchronously so the session length is
		// exact, then stay quiet.
		if cb := f.loadCallback(); cb != nil {
			for pos := 0; pos < len(f.samples); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(f.audioDone)
		close(f.feedDone)
		return nil
	}

	rate := f.rate
	if rate <= 0 {
		rate = TargetRate
	}
	interval := time.Duration(fakeChunkSize) * time.Second / time.Duration(rate)
	go func() {
		defer close(f.feedDone)
		pos := 0
		silence := make([]float32, fakeChunkSize)
		audioFinished := false

		for {
			select {
			case <-f.stopCh:
				return
			default:
			}

			cb := f.loadCallback()
			if cb == nil {
				time.Sleep(time.Millisecond)
				continue
			}

			if pos < len(f.samples) {
				pos = f.feedChunk(cb, pos)
			} else {
				if !audioFinished {
					audioFinished = true
					close(f.audioDone)
				}
				cb(silence)
			}

			select {
			case <-f.stopCh:
				return
			case <-time.After(interval):
			}
		}
	}()

	return nil
}

func (f *FakeCapture) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.feedDone != nil {
		<-f.feedDone
	}
	f.audioDone = make(chan struct{}) // reset for replay
}

func (f *FakeCapture) Close() {}
