//go:build !singleshot

package pipeline

import (
	"sync"
	"testing"
	"time"

	"murmur/log"
	"murmur/transcriber"
)

type fakeStatus struct {
	mu           sync.Mutex
	transcribing []bool
	depths       []int
}

func (s *fakeStatus) SetTranscribing(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcribing = append(s.transcribing, on)
}

func (s *fakeStatus) SetQueueDepth(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depths = append(s.depths, n)
}

func (s *fakeStatus) snapshot() (transcribing []bool, depths []int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bool(nil), s.transcribing...), append([]int(nil), s.depths...)
}

func TestSubmitNeverBlocks(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	c, delivery, _ := newTestCoordinator(t, engine)

	engine.Gate()
	c.Submit(buf(10, 0.9))
	select {
	case <-engine.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("job never reached the engine")
	}

	// Push well past the queue capacity. Every call must return
	// promptly even with the worker wedged in the engine.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			c.Submit(buf(10, float32(i)/100))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked with a full queue")
	}

	engine.Release()
	waitUntil(t, "final delivery", func() bool { return len(delivery.delivered()) == 1 })

	if got := engine.CallCount(); got != 2 {
		t.Errorf("engine saw %d buffers, want 2 (held + newest)", got)
	}
	calls := engine.Calls()
	if last := calls[len(calls)-1][0]; last != 0.19 {
		t.Errorf("final transcription got %v, want the newest buffer", last)
	}
}

func TestStatusReporting(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	status := &fakeStatus{}
	c := New(Config{
		Engine: engine,
		Status: status,
		Log:    log.Nop(),
	})
	t.Cleanup(c.Close)

	engine.Gate()
	c.Submit(buf(10, 0.1))
	select {
	case <-engine.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("job never reached the engine")
	}
	c.Submit(buf(10, 0.2))

	if got := c.Depth(); got != 1 {
		t.Errorf("Depth() = %d with one queued job, want 1", got)
	}

	engine.Release()
	// Both jobs flip the busy flag on and off; the queue depth hits
	// zero before the second one starts.
	waitUntil(t, "worker to go idle", func() bool {
		transcribing, _ := status.snapshot()
		return len(transcribing) >= 4 && !transcribing[len(transcribing)-1]
	})

	transcribing, depths := status.snapshot()
	sawBusy := false
	for _, on := range transcribing {
		if on {
			sawBusy = true
		}
	}
	if !sawBusy {
		t.Error("never reported transcribing")
	}
	sawQueued := false
	for _, d := range depths {
		if d >= 1 {
			sawQueued = true
		}
	}
	if !sawQueued {
		t.Errorf("never reported a queued job: %v", depths)
	}
	if last := depths[len(depths)-1]; last != 0 {
		t.Errorf("final queue depth %d, want 0", last)
	}
}
