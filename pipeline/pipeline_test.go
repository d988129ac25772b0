package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"murmur/audio"
	"murmur/log"
	"murmur/transcriber"
)

type fakeDelivery struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (d *fakeDelivery) Deliver(text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.texts = append(d.texts, text)
	return nil
}

func (d *fakeDelivery) delivered() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.texts...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	done     []string
	noAudio  int
	noSpeech int
	errs     []string
}

func (n *fakeNotifier) Done(text string, _ time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.done = append(n.done, text)
}

func (n *fakeNotifier) NoAudio() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.noAudio++
}

func (n *fakeNotifier) NoSpeech() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.noSpeech++
}

func (n *fakeNotifier) Error(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.errs = append(n.errs, msg)
}

func (n *fakeNotifier) counts() (done, noAudio, noSpeech, errs int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.done), n.noAudio, n.noSpeech, len(n.errs)
}

func buf(n int, v float32) audio.Buffer {
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = v
	}
	return audio.Buffer{Samples: samples, Rate: audio.TargetRate}
}

func waitUntil(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestCoordinator(t *testing.T, engine *transcriber.FakeEngine) (Coordinator, *fakeDelivery, *fakeNotifier) {
	t.Helper()
	delivery := &fakeDelivery{}
	notifier := &fakeNotifier{}
	c := New(Config{
		Engine:   engine,
		Language: "en",
		Deliver:  delivery,
		Notify:   notifier,
		Log:      log.Nop(),
	})
	t.Cleanup(c.Close)
	return c, delivery, notifier
}

func TestDrainToLatest(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	c, delivery, _ := newTestCoordinator(t, engine)

	// Hold a first job inside the engine so the next three pile up
	// behind it.
	engine.Gate()
	c.Submit(buf(100, 0.9))
	select {
	case <-engine.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("first job never reached the engine")
	}

	c.Submit(buf(100, 0.1))
	c.Submit(buf(100, 0.2))
	c.Submit(buf(100, 0.3))
	engine.Release()

	waitUntil(t, "delivery", func() bool { return len(delivery.delivered()) == 1 })

	calls := engine.Calls()
	if len(calls) != 2 {
		t.Fatalf("engine saw %d buffers, want 2 (held job + newest)", len(calls))
	}
	if calls[0][0] != 0.9 {
		t.Errorf("first engine call got %v, want the held job", calls[0][0])
	}
	if calls[1][0] != 0.3 {
		t.Errorf("second engine call got %v, want the newest buffer", calls[1][0])
	}
}

func TestStaleResultSuppression(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	c, delivery, notifier := newTestCoordinator(t, engine)

	engine.Gate()
	c.Submit(buf(100, 0.1))
	select {
	case <-engine.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("first job never reached the engine")
	}

	// Arrives mid-transcription: the first result must be dropped.
	c.Submit(buf(100, 0.2))
	engine.Release()

	waitUntil(t, "second transcription", func() bool { return engine.CallCount() == 2 })
	waitUntil(t, "delivery", func() bool { return len(delivery.delivered()) == 1 })

	done, _, _, _ := notifier.counts()
	if done != 1 {
		t.Errorf("got %d done notifications, want 1", done)
	}
	calls := engine.Calls()
	if calls[0][0] != 0.1 || calls[1][0] != 0.2 {
		t.Errorf("engine call order wrong: %v, %v", calls[0][0], calls[1][0])
	}
}

func TestEmptyBufferShortCircuit(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	c, delivery, notifier := newTestCoordinator(t, engine)

	c.Submit(audio.Buffer{Rate: audio.TargetRate})

	_, noAudio, _, _ := notifier.counts()
	if noAudio != 1 {
		t.Errorf("got %d no-audio notifications, want 1", noAudio)
	}
	if engine.CallCount() != 0 {
		t.Errorf("engine called %d times for empty buffer, want 0", engine.CallCount())
	}
	if len(delivery.delivered()) != 0 {
		t.Error("nothing should be delivered for an empty buffer")
	}
}

func TestEngineErrorKeepsPipelineAlive(t *testing.T) {
	engine := transcriber.NewFake("", errors.New("model exploded"))
	c, delivery, notifier := newTestCoordinator(t, engine)

	c.Submit(buf(100, 0.1))
	waitUntil(t, "error notification", func() bool {
		_, _, _, errs := notifier.counts()
		return errs == 1
	})

	engine.SetResult("recovered", nil)
	c.Submit(buf(100, 0.2))
	waitUntil(t, "delivery after failure", func() bool {
		return len(delivery.delivered()) == 1
	})
	if got := delivery.delivered()[0]; got != "recovered" {
		t.Errorf("delivered %q, want %q", got, "recovered")
	}
}

func TestEmptyTextIsNoSpeech(t *testing.T) {
	engine := transcriber.NewFake("", nil)
	c, delivery, notifier := newTestCoordinator(t, engine)

	c.Submit(buf(100, 0.1))
	waitUntil(t, "no-speech notification", func() bool {
		_, _, noSpeech, _ := notifier.counts()
		return noSpeech == 1
	})
	_, _, _, errs := notifier.counts()
	if errs != 0 {
		t.Error("silence is not an error")
	}
	if len(delivery.delivered()) != 0 {
		t.Error("nothing should be delivered for silence")
	}
}

func TestDeliveryFailureNotifies(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	delivery := &fakeDelivery{err: errors.New("wl-copy missing")}
	notifier := &fakeNotifier{}
	c := New(Config{
		Engine:  engine,
		Deliver: delivery,
		Notify:  notifier,
		Log:     log.Nop(),
	})
	t.Cleanup(c.Close)

	c.Submit(buf(100, 0.1))
	waitUntil(t, "error notification", func() bool {
		_, _, _, errs := notifier.counts()
		return errs == 1
	})
	done, _, _, _ := notifier.counts()
	if done != 0 {
		t.Error("failed delivery must not report done")
	}
}

func TestCloseUnblocksInFlightJob(t *testing.T) {
	engine := transcriber.NewFake("hello", nil)
	delivery := &fakeDelivery{}
	c := New(Config{Engine: engine, Deliver: delivery, Log: log.Nop()})

	engine.Gate()
	c.Submit(buf(100, 0.1))
	select {
	case <-engine.Started():
	case <-time.After(2 * time.Second):
		t.Fatal("job never reached the engine")
	}

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(3 * time.Second):
		t.Fatal("Close did not return")
	}

	if len(delivery.delivered()) != 0 {
		t.Error("canceled job must not deliver")
	}
	c.Close()
}
