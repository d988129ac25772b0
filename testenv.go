package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
	"murmur/notify"
	"murmur/pipeline"
	"murmur/transcriber"
)

type nopView struct{}

func (nopView) SetRecording(bool)           {}
func (nopView) SetWarning(bool)             {}
func (nopView) SetDevices([]string, string) {}
func (nopView) SetError(string)             {}

type testDeliverer struct{}

func (testDeliverer) Deliver(text string) error {
	fmt.Printf("DELIVERED: %s\n", text)
	return nil
}

// testNotifier prints pipeline outcomes and pulses a channel so the
// driver's WAIT can block on the next result.
type testNotifier struct {
	cycle chan struct{}
}

func (n *testNotifier) signal() {
	select {
	case n.cycle <- struct{}{}:
	default:
	}
}

func (n *testNotifier) Done(text string, elapsed time.Duration) {
	fmt.Println("DONE")
	n.signal()
}

func (n *testNotifier) NoAudio() {
	fmt.Println("NO_AUDIO")
	n.signal()
}

func (n *testNotifier) NoSpeech() {
	fmt.Println("NO_SPEECH")
	n.signal()
}

func (n *testNotifier) Error(msg string) {
	fmt.Printf("ERROR: %s\n", msg)
	n.signal()
}

func testTone(seconds float64) []float32 {
	n := int(seconds * audio.TargetRate)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = 0.3 * float32(math.Sin(2*math.Pi*440*float64(i)/audio.TargetRate))
	}
	return samples
}

// runTestMode is the daemon loop wired to fakes, driven by commands on
// stdin. Integration scripts use it; no audio hardware, desktop bus or
// model file is touched.
//
//	TOGGLE      flip recording
//	WAIT        block until the pipeline reports a result
//	SLEEP <ms>  pause the driver
//	QUIT        exit
func runTestMode(cfg config.Config, logger *log.Logger) int {
	fakeCtx := audio.NewFakeContext(audio.Device{Name: "Test Microphone", SampleRate: audio.TargetRate, Channels: 1})
	fakeCtx.SetSamples(testTone(1.0))

	catalog, err := audio.NewCatalogWith(
		func() (audio.Context, error) { return fakeCtx, nil },
		audio.DefaultFilter(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer catalog.Close()

	d := newDaemon(cfg, logger)
	d.catalog = catalog
	d.recorder = audio.NewRecorder(catalog, logger)
	d.notifier = notify.New(logger, false)
	d.beeper = beep.New(logger, false)
	d.view = nopView{}

	src := hotkey.NewFake()
	if err := src.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	d.source = src

	results := &testNotifier{cycle: make(chan struct{}, 1)}
	d.coord = pipeline.New(pipeline.Config{
		Engine:   transcriber.NewFake("the quick brown fox", nil),
		Language: cfg.Language,
		Compute:  "cpu",
		Deliver:  testDeliverer{},
		Notify:   results,
		Log:      logger,
	})
	defer d.coord.Close()

	go d.loop()
	defer func() {
		d.Quit()
		<-d.done
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch {
		case cmd == "TOGGLE":
			src.SimToggle()
		case cmd == "WAIT":
			<-results.cycle
		case cmd == "QUIT":
			return 0
		case strings.HasPrefix(cmd, "SLEEP "):
			if ms, err := strconv.Atoi(strings.TrimPrefix(cmd, "SLEEP ")); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		}
	}
	return 0
}
