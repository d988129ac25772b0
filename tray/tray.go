// Package tray owns the status icon: recording state at a glance, a
// microphone picker, and quit.
package tray

import (
	"fmt"
	"sync"
	"time"

	"fyne.io/systray"

	"murmur/log"
)

const tooltip = "murmur – push to talk dictation"

// Config wires the menu to the daemon. Callbacks run on tray
// goroutines and must not block.
type Config struct {
	Log      *log.Logger
	Devices  []string
	Selected string
	OnToggle func()
	OnDevice func(name string)
}

type Tray struct {
	cfg Config

	mu           sync.Mutex
	ready        bool
	recording    bool
	transcribing bool
	warning      bool
	depth        int
	devices      []string
	selected     string

	mStatus     *systray.MenuItem
	mToggle     *systray.MenuItem
	mDevices    *systray.MenuItem
	deviceItems []*systray.MenuItem

	quit     chan struct{}
	quitOnce sync.Once
}

func New(cfg Config) *Tray {
	return &Tray{
		cfg:      cfg,
		devices:  append([]string(nil), cfg.Devices...),
		selected: cfg.Selected,
		quit:     make(chan struct{}),
	}
}

// Run blocks until Quit. Platforms that require the tray on the main
// thread arrange that in main; the daemon runs elsewhere.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) Quit() { systray.Quit() }

// Done closes when the user picks Quit from the menu or the tray
// shuts down.
func (t *Tray) Done() <-chan struct{} { return t.quit }

// SetRecording flips the icon to the live-microphone state. Recording
// outranks transcribing in the display: the mic being open is what
// the user must see.
func (t *Tray) SetRecording(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.recording = on
	t.warning = false
	t.applyLocked()
}

func (t *Tray) SetTranscribing(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transcribing = on
	t.applyLocked()
}

func (t *Tray) SetQueueDepth(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.depth = n
	t.applyLocked()
}

// SetWarning marks a recording that has heard nothing for a while.
// Ignored outside recording.
func (t *Tray) SetWarning(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.recording {
		return
	}
	t.warning = on
	t.applyLocked()
}

// SetError flashes the message in the tooltip for a while.
func (t *Tray) SetError(msg string) {
	t.mu.Lock()
	ready := t.ready
	t.mu.Unlock()
	if !ready {
		return
	}
	systray.SetTooltip("murmur – " + msg)
	go func() {
		time.Sleep(10 * time.Second)
		systray.SetTooltip(tooltip)
	}()
}

// SetDevices replaces the microphone submenu contents. Existing item
// slots are retitled and reused; the submenu grows when devices
// appear.
func (t *Tray) SetDevices(names []string, selected string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.devices = append([]string(nil), names...)
	t.selected = selected
	if !t.ready {
		return
	}
	for i, item := range t.deviceItems {
		if i < len(names) {
			item.SetTitle(names[i])
			item.SetTooltip(names[i])
			item.Show()
			if names[i] == selected {
				item.Check()
			} else {
				item.Uncheck()
			}
		} else {
			item.Hide()
			item.Uncheck()
		}
	}
	for i := len(t.deviceItems); i < len(names); i++ {
		item := t.addDeviceItem(i, names[i], names[i] == selected)
		t.deviceItems = append(t.deviceItems, item)
	}
}

func (t *Tray) onReady() {
	systray.SetTemplateIcon(iconIdleHi, iconIdle)
	systray.SetTooltip(tooltip)

	t.mStatus = systray.AddMenuItem("Idle", "Current state")
	t.mStatus.Disable()

	systray.AddSeparator()

	t.mToggle = systray.AddMenuItem("Start Recording", "Start or stop recording")
	go func() {
		for range t.mToggle.ClickedCh {
			if t.cfg.OnToggle != nil {
				t.cfg.OnToggle()
			}
		}
	}()

	t.mDevices = systray.AddMenuItem("Microphone", "Select input device")

	t.mu.Lock()
	t.deviceItems = make([]*systray.MenuItem, 0, len(t.devices))
	for i, name := range t.devices {
		item := t.addDeviceItem(i, name, name == t.selected)
		t.deviceItems = append(t.deviceItems, item)
	}
	t.mu.Unlock()

	systray.AddSeparator()
	mQuit := systray.AddMenuItem("Quit", "Quit murmur")
	go func() {
		<-mQuit.ClickedCh
		systray.Quit()
	}()

	t.mu.Lock()
	t.ready = true
	t.applyLocked()
	t.mu.Unlock()
}

// addDeviceItem resolves the clicked name through the index so a
// later SetDevices retitle cannot hand the callback a stale name.
// Caller holds t.mu.
func (t *Tray) addDeviceItem(idx int, name string, checked bool) *systray.MenuItem {
	item := t.mDevices.AddSubMenuItemCheckbox(name, name, checked)
	go func() {
		for range item.ClickedCh {
			t.mu.Lock()
			current := ""
			if idx < len(t.devices) {
				current = t.devices[idx]
			}
			t.mu.Unlock()
			if current == "" {
				continue
			}
			if t.cfg.Log != nil {
				t.cfg.Log.Infof("microphone switched from tray: %s", current)
			}
			if t.cfg.OnDevice != nil {
				t.cfg.OnDevice(current)
			}
			t.mu.Lock()
			t.selected = current
			for i, it := range t.deviceItems {
				if i == idx {
					it.Check()
				} else {
					it.Uncheck()
				}
			}
			t.mu.Unlock()
		}
	}()
	return item
}

// applyLocked pushes the stored state onto the menu. Caller holds
// t.mu; no-op until onReady has built the items.
func (t *Tray) applyLocked() {
	if !t.ready {
		return
	}
	switch {
	case t.recording && t.warning:
		systray.SetIcon(iconWarn)
		t.mStatus.SetTitle("Recording (no speech heard)")
	case t.recording:
		systray.SetIcon(iconRecording)
		t.mStatus.SetTitle("Recording")
	case t.transcribing:
		systray.SetIcon(iconBusy)
		if t.depth > 0 {
			t.mStatus.SetTitle(fmt.Sprintf("Transcribing (%d queued)", t.depth))
		} else {
			t.mStatus.SetTitle("Transcribing")
		}
	default:
		systray.SetTemplateIcon(iconIdleHi, iconIdle)
		t.mStatus.SetTitle("Idle")
	}
	if t.recording {
		t.mToggle.SetTitle("Stop Recording")
		t.mDevices.Disable()
	} else {
		t.mToggle.SetTitle("Start Recording")
		t.mDevices.Enable()
	}
}

func (t *Tray) onExit() {
	t.quitOnce.Do(func() { close(t.quit) })
}
