package audio

import (
	"fmt"
	"math"
	"sync"

	"murmur/log"
)

// levelScale amplifies RMS for metering so typical speech reads
// mid-scale instead of hugging zero.
const levelScale = 5.0

// Recorder owns at most one capture stream. The capture callback runs
// on the driver's realtime thread and only copies chunks and updates
// the level under a short-held lock; concatenation and resampling
// happen in Stop.
type Recorder struct {
	ctx Context
	log *log.Logger

	mu        sync.Mutex
	device    *Device
	rate      int
	chunks    [][]float32
	level     float64
	recording bool
	stream    CaptureDevice
}

func NewRecorder(ctx Context, logger *log.Logger) *Recorder {
	return &Recorder{ctx: ctx, log: logger, rate: TargetRate}
}

// SetDevice selects the device the next session captures from and looks
// up its native sample rate. A failed lookup falls back to the target
// rate with a warning; selection itself never fails.
func (r *Recorder) SetDevice(dev *Device) {
	rate := TargetRate
	switch {
	case dev == nil:
		r.log.Info("audio device: system default")
	case dev.SampleRate > 0:
		rate = dev.SampleRate
		r.log.Infof("audio device: %s (%dHz)", dev.Name, rate)
	default:
		if nr := nativeRate(r.ctx, dev.Name); nr > 0 {
			rate = nr
			r.log.Infof("audio device: %s (%dHz)", dev.Name, rate)
		} else {
			r.log.Warnf("could not query device %q, assuming %dHz", dev.Name, TargetRate)
		}
	}

	r.mu.Lock()
	r.device = dev
	r.rate = rate
	r.mu.Unlock()
}

// Device returns the currently selected device, nil for system default.
func (r *Recorder) Device() *Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device
}

// Start clears the session buffer and opens a mono capture stream at
// the device's native rate.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return nil
	}
	r.chunks = nil
	r.level = 0
	r.recording = true
	dev := r.device
	rate := r.rate
	r.mu.Unlock()

	capture, err := r.ctx.NewCapture(dev, CaptureConfig{SampleRate: rate, Channels: 1})
	if err != nil {
		r.abort()
		return fmt.Errorf("open capture: %w", err)
	}
	capture.SetCallback(r.consume)
	if err := capture.Start(); err != nil {
		capture.Close()
		r.abort()
		return fmt.Errorf("start capture: %w", err)
	}

	r.mu.Lock()
	r.stream = capture
	r.mu.Unlock()
	r.log.Debugf("recording started at %dHz", rate)
	return nil
}

func (r *Recorder) abort() {
	r.mu.Lock()
	r.recording = false
	r.mu.Unlock()
}

// consume is the capture callback. Realtime context: copy the chunk,
// update the level, get out.
func (r *Recorder) consume(samples []float32) {
	if len(samples) == 0 {
		return
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	chunk := make([]float32, len(samples))
	copy(chunk, samples)

	r.mu.Lock()
	if r.recording {
		r.chunks = append(r.chunks, chunk)
		r.level = math.Min(1.0, rms*levelScale)
	}
	r.mu.Unlock()
}

// Stop closes the stream and finalizes the session into one buffer at
// the target rate. Safe to call when nothing was ever started; the
// result is then the empty buffer.
func (r *Recorder) Stop() Buffer {
	r.mu.Lock()
	r.recording = false
	stream := r.stream
	r.stream = nil
	r.mu.Unlock()

	if stream != nil {
		stream.ClearCallback()
		stream.Stop()
		stream.Close()
	}

	r.mu.Lock()
	chunks := r.chunks
	r.chunks = nil
	rate := r.rate
	r.level = 0
	r.mu.Unlock()

	if len(chunks) == 0 {
		return Buffer{Rate: TargetRate}
	}

	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	samples := make([]float32, 0, total)
	for _, c := range chunks {
		samples = append(samples, c...)
	}

	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	r.log.Debugf("captured %d samples, peak amplitude %.4f", len(samples), peak)
	if peak < 0.01 {
		r.log.Warnf("audio level very low, check microphone")
	}

	if rate != TargetRate {
		r.log.Debugf("resampling %dHz -> %dHz", rate, TargetRate)
		samples = Resample(samples, rate, TargetRate)
	}
	return Buffer{Samples: samples, Rate: TargetRate}
}

// Level reports the scaled RMS meter value in [0, 1] for the most
// recent chunk. Safe to poll from any goroutine.
func (r *Recorder) Level() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.level
}

func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

func nativeRate(ctx Context, name string) int {
	devices, err := ctx.Devices()
	if err != nil {
		return 0
	}
	for _, d := range devices {
		if d.Name == name {
			return d.SampleRate
		}
	}
	return 0
}
