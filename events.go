package main

import (
	"slices"
	"time"

	"murmur/audio"
	"murmur/beep"
	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
	"murmur/notify"
	"murmur/pipeline"
)

// trayView is the slice of the tray surface the event loop drives.
type trayView interface {
	SetRecording(on bool)
	SetWarning(on bool)
	SetDevices(names []string, selected string)
	SetError(msg string)
}

// feedback fans pipeline outcomes out to notifications and sound cues.
type feedback struct {
	notifier *notify.Manager
	beeper   *beep.Player
}

func (f *feedback) Done(text string, elapsed time.Duration) {
	f.beeper.PlayComplete()
	f.notifier.Done(text, elapsed)
}

func (f *feedback) NoAudio()  { f.notifier.NoAudio() }
func (f *feedback) NoSpeech() { f.notifier.NoSpeech() }

func (f *feedback) Error(msg string) {
	f.beeper.PlayError()
	f.notifier.Error(msg)
}

// hotplugInterval is how often the device list is re-enumerated to
// catch microphones appearing or vanishing.
const hotplugInterval = 3 * time.Second

// daemon owns the recording state machine. All state below the
// collaborators is touched only by the loop goroutine; everything else
// funnels in through channels.
type daemon struct {
	cfg      config.Config
	log      *log.Logger
	catalog  *audio.Catalog
	recorder *audio.Recorder
	coord    pipeline.Coordinator
	notifier *notify.Manager
	beeper   *beep.Player
	view     trayView
	source   hotkey.Source

	trayToggle chan struct{}
	deviceReq  chan string
	autoStop   chan int
	quit       chan struct{}
	done       chan struct{}

	// loop-owned
	session     int
	monitorStop chan struct{}
	preferred   string
	selected    string
	lastNames   []string
}

func newDaemon(cfg config.Config, logger *log.Logger) *daemon {
	return &daemon{
		cfg:        cfg,
		log:        logger,
		trayToggle: make(chan struct{}, 1),
		deviceReq:  make(chan string, 1),
		autoStop:   make(chan int, 1),
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// requestToggle is safe from any goroutine; the tray click handler
// uses it.
func (d *daemon) requestToggle() {
	select {
	case d.trayToggle <- struct{}{}:
	default:
	}
}

// requestDevice queues a microphone switch; a click that lands while
// one is pending is dropped.
func (d *daemon) requestDevice(name string) {
	select {
	case d.deviceReq <- name:
	default:
	}
}

func (d *daemon) Quit() {
	select {
	case <-d.quit:
	default:
		close(d.quit)
	}
}

// loop is the single owner of recording state. It runs until Quit and
// finalizes an in-flight recording on the way out.
func (d *daemon) loop() {
	defer close(d.done)
	hotplug := time.NewTicker(hotplugInterval)
	defer hotplug.Stop()

	for {
		select {
		case <-d.source.Toggles():
			d.onToggle()
		case <-d.trayToggle:
			d.onToggle()
		case session := <-d.autoStop:
			// A stale auto-stop from a session already ended by the
			// user must not kill the one that followed it.
			if session == d.session && d.recorder.IsRecording() {
				d.finishRecording(true)
			}
		case name := <-d.deviceReq:
			d.switchDevice(name)
		case <-hotplug.C:
			d.pollDevices()
		case <-d.quit:
			if d.recorder.IsRecording() {
				d.finishRecording(false)
			}
			return
		}
	}
}

func (d *daemon) onToggle() {
	if d.recorder.IsRecording() {
		d.finishRecording(false)
		return
	}
	d.startRecording()
}

func (d *daemon) startRecording() {
	if err := d.recorder.Start(); err != nil {
		d.log.Errorf("recording failed: %v", err)
		d.view.SetError(err.Error())
		d.notifier.Error("Could not start recording: " + err.Error())
		d.beeper.PlayError()
		return
	}
	d.session++
	d.view.SetRecording(true)
	d.notifier.Started()
	d.beeper.PlayStart()
	d.monitorStop = make(chan struct{})
	go d.watchSilence(d.session, d.monitorStop)
	d.log.Info("recording started")
}

// finishRecording ends the active session. An auto-stop discards the
// buffer: thirty seconds of silence has nothing worth transcribing.
func (d *daemon) finishRecording(auto bool) {
	if d.monitorStop != nil {
		close(d.monitorStop)
		d.monitorStop = nil
	}
	buf := d.recorder.Stop()
	d.view.SetRecording(false)
	d.beeper.PlayStop()

	if auto {
		d.log.Infof("recording auto-stopped after %s of silence", silenceAutoStopDur)
		d.notifier.AutoStopped(silenceAutoStopDur)
		return
	}
	d.log.Infof("recording stopped, %.1fs captured", buf.Duration())
	d.notifier.Stopped()
	d.coord.Submit(buf)
}

// watchSilence drives the silence monitor off the recorder's level
// meter while one session is live.
func (d *daemon) watchSilence(session int, stop <-chan struct{}) {
	mon := newSilenceMonitor()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			switch mon.Tick(d.recorder.Level() >= speechLevel) {
			case SilenceWarn:
				d.log.Info("no speech detected, still recording")
				d.view.SetWarning(true)
				d.notifier.SilenceWarning(silenceWarnEvery)
				d.beeper.PlayError()
			case SilenceWarnClear:
				d.view.SetWarning(false)
			case SilenceRepeat:
				d.beeper.PlayError()
			case SilenceAutoStop:
				select {
				case d.autoStop <- session:
				default:
				}
				return
			}
		}
	}
}

// switchDevice points the recorder at the named microphone and
// persists the choice so the next start restores it.
func (d *daemon) switchDevice(name string) {
	devices, err := d.catalog.Devices()
	if err != nil {
		d.log.Warnf("device enumeration failed: %v", err)
		return
	}
	dev := audio.Find(devices, name)
	if dev == nil {
		d.log.Warnf("microphone not found: %s", name)
		return
	}
	d.recorder.SetDevice(dev)
	d.selected = name
	d.preferred = name
	d.cfg.Microphone = name
	if err := d.cfg.Save(); err != nil {
		d.log.Warnf("could not save config: %v", err)
	}
}

// pollDevices handles hot-plug: a vanished selection falls back to the
// system default, and the user's preferred microphone is re-selected
// the moment it comes back.
func (d *daemon) pollDevices() {
	devices, err := d.catalog.Devices()
	if err != nil {
		return
	}
	names := make([]string, len(devices))
	for i := range devices {
		names[i] = devices[i].Name
	}
	if slices.Equal(d.lastNames, names) {
		return
	}
	d.lastNames = names

	if d.selected != "" && !slices.Contains(names, d.selected) {
		d.log.Infof("microphone disconnected: %s", d.selected)
		d.recorder.SetDevice(nil)
		d.selected = ""
	} else if d.selected == "" && d.preferred != "" && slices.Contains(names, d.preferred) {
		d.log.Infof("microphone reconnected: %s", d.preferred)
		d.recorder.SetDevice(audio.Find(devices, d.preferred))
		d.selected = d.preferred
	}
	d.view.SetDevices(names, d.selected)
}
