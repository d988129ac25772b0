//go:build !linux

package beep

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"murmur/log"
)

type tone []byte

type playback struct {
	log     *log.Logger
	ctx     *malgo.AllocatedContext
	mu      sync.Mutex
	device  *malgo.Device
	playing atomic.Pointer[tone]
	pos     atomic.Uint32

	start    tone
	stop     tone
	complete tone
	errTone  tone
}

func openPlayback(logger *log.Logger) *playback {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		logger.Warnf("sound cues disabled: %v", err)
		return nil
	}
	pb := &playback{
		log:      logger,
		ctx:      ctx,
		start:    generateTick(sampleRate, startFreq, 0.03, startVolume, startDecay),
		stop:     generateTick(sampleRate, stopFreq, 0.05, stopVolume, stopDecay),
		complete: generatePair(sampleRate, stopFreq, completeFreq, 0.05, 0.03, completeVolume, completeDecay),
		errTone:  generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay),
	}
	if err := pb.initDevice(); err != nil {
		ctx.Uninit()
		logger.Warnf("sound cues disabled: %v", err)
		return nil
	}
	return pb
}

func (pb *playback) initDevice() error {
	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatS16
	config.Playback.Channels = 1
	config.SampleRate = sampleRate

	device, err := malgo.InitDevice(pb.ctx.Context, config, malgo.DeviceCallbacks{
		Data: pb.dataCallback,
	})
	if err != nil {
		return err
	}
	pb.device = device
	return nil
}

func (pb *playback) dataCallback(pOutput, _ []byte, frameCount uint32) {
	samples := pb.playing.Load()
	if samples == nil || len(*samples) == 0 {
		for i := range pOutput {
			pOutput[i] = 0
		}
		return
	}

	pos := pb.pos.Load()
	total := uint32(len(*samples))
	bytesToWrite := frameCount * 2
	remaining := total - pos

	if remaining == 0 {
		pb.playing.Store(nil)
		for i := range pOutput {
			pOutput[i] = 0
		}
		return
	}

	if bytesToWrite > remaining {
		bytesToWrite = remaining
	}

	copy(pOutput[:bytesToWrite], (*samples)[pos:pos+bytesToWrite])
	pb.pos.Store(pos + bytesToWrite)

	for i := bytesToWrite; i < frameCount*2; i++ {
		pOutput[i] = 0
	}
}

func generateTick(sampleRate int, freq float64, duration float64, volume float64, decay float64) tone {
	n := int(float64(sampleRate) * duration)
	buf := make(tone, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		sample := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		buf[i*2] = byte(sample)
		buf[i*2+1] = byte(sample >> 8)
	}
	return buf
}

func generateDoubleBeep(sampleRate int, freq float64, beepDur float64, gapDur float64, volume float64, decay float64) tone {
	beep := generateTick(sampleRate, freq, beepDur, volume, decay)
	gap := make(tone, int(float64(sampleRate)*gapDur)*2)
	result := make(tone, 0, len(beep)*2+len(gap))
	result = append(result, beep...)
	result = append(result, gap...)
	result = append(result, beep...)
	return result
}

func generatePair(sampleRate int, lowFreq, highFreq float64, beepDur float64, gapDur float64, volume float64, decay float64) tone {
	low := generateTick(sampleRate, lowFreq, beepDur, volume, decay)
	high := generateTick(sampleRate, highFreq, beepDur, volume, decay)
	gap := make(tone, int(float64(sampleRate)*gapDur)*2)
	result := make(tone, 0, len(low)+len(gap)+len(high))
	result = append(result, low...)
	result = append(result, gap...)
	result = append(result, high...)
	return result
}

func (pb *playback) play(samples tone) {
	if len(samples) == 0 {
		return
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	if pb.device == nil {
		return
	}

	// Stop first so a cue interrupting another starts clean
	pb.device.Stop()
	pb.pos.Store(0)
	pb.playing.Store(&samples)

	if err := pb.device.Start(); err != nil {
		// Recreate the device, it dies across sleep/wake
		pb.device.Uninit()
		if err := pb.initDevice(); err != nil {
			pb.playing.Store(nil)
			pb.log.Debugf("playback device lost: %v", err)
			return
		}
		if err := pb.device.Start(); err != nil {
			pb.playing.Store(nil)
			pb.log.Debugf("playback start failed: %v", err)
		}
	}
}
