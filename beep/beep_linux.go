//go:build linux

package beep

import (
	"math"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"

	"murmur/log"
)

type tone []int16

type playback struct {
	log      *log.Logger
	start    tone
	stop     tone
	complete tone
	errTone  tone
}

func openPlayback(logger *log.Logger) *playback {
	c, err := pulse.NewClient()
	if err != nil {
		logger.Warnf("sound cues disabled: %v", err)
		return nil
	}
	c.Close()
	return &playback{
		log:      logger,
		start:    generateTick(sampleRate, startFreq, 0.2, startVolume, startDecay),
		stop:     generateTick(sampleRate, stopFreq, 0.2, stopVolume, stopDecay),
		complete: generatePair(sampleRate, stopFreq, completeFreq, 0.08, 0.04, completeVolume, completeDecay),
		errTone:  generateDoubleBeep(sampleRate, errorFreq, 0.08, 0.05, errorVolume, errorDecay),
	}
}

func generateTick(sampleRate int, freq float64, duration float64, volume float64, decay float64) tone {
	n := int(float64(sampleRate) * duration)
	// Stereo interleaved to match the output sink format
	samples := make(tone, n*2)
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		s := int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
		samples[i*2] = s
		samples[i*2+1] = s
	}
	return samples
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
	c, err := pulse.NewClient()
	if err != nil {
		pb.log.Debugf("pulse playback error: %v", err)
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		pb.log.Debugf("pulse playback error: %v", err)
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}
