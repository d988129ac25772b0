// Package beep plays short synthesized cues for recording state
// changes. The playback backend is probed on first use; a machine
// without one stays silent.
package beep

import (
	"sync"

	"murmur/log"
)

const (
	sampleRate = 44100

	// Start beep: high pitch, snappy
	startFreq   = 1200
	startVolume = 0.5
	startDecay  = 60

	// Stop beep: medium pitch, slightly longer
	stopFreq   = 900
	stopVolume = 0.5
	stopDecay  = 40

	// Complete beep: rising pair
	completeFreq   = 1500
	completeVolume = 0.4
	completeDecay  = 50

	// Error beep: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

type Player struct {
	log     *log.Logger
	enabled bool
	once    sync.Once
	backend *playback
}

func New(logger *log.Logger, enabled bool) *Player {
	return &Player{log: logger, enabled: enabled}
}

func (p *Player) play(pick func(*playback) tone) {
	if !p.enabled {
		return
	}
	p.once.Do(func() { p.backend = openPlayback(p.log) })
	if p.backend == nil {
		return
	}
	go p.backend.play(pick(p.backend))
}

func (p *Player) PlayStart()    { p.play(func(b *playback) tone { return b.start }) }
func (p *Player) PlayStop()     { p.play(func(b *playback) tone { return b.stop }) }
func (p *Player) PlayComplete() { p.play(func(b *playback) tone { return b.complete }) }
func (p *Player) PlayError()    { p.play(func(b *playback) tone { return b.errTone }) }
