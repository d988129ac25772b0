// Package notify sends desktop notifications over the session bus.
package notify

import (
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"murmur/log"
)

type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

const (
	appName       = "murmur"
	expireTimeout = 5000
	previewRunes  = 100
)

// Manager presents the recording lifecycle on the desktop. The
// notification service is probed once at construction; a session
// without one degrades to silence rather than erroring on every
// event.
type Manager struct {
	log     *log.Logger
	enabled bool

	mu     sync.Mutex
	conn   *dbus.Conn
	lastID uint32
}

func New(logger *log.Logger, enabled bool) *Manager {
	m := &Manager{log: logger, enabled: enabled}
	if !enabled {
		return m
	}
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		logger.Warnf("notifications unavailable: %v", err)
		m.enabled = false
		return m
	}
	m.conn = conn
	return m
}

func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
	m.enabled = false
}

// send fires one notification, replacing the previous one so quick
// toggles do not stack up in the notification center.
func (m *Manager) send(title, body, icon string, urgency Urgency) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.enabled || m.conn == nil {
		return
	}
	obj := m.conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(urgency))}
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		appName, m.lastID, icon, title, body, []string{}, hints, int32(expireTimeout))
	if call.Err != nil {
		m.log.Warnf("notification failed: %v", call.Err)
		return
	}
	var id uint32
	if err := call.Store(&id); err == nil {
		m.lastID = id
	}
}

func (m *Manager) Started() {
	m.send("Recording", "Speak now...", "audio-input-microphone", UrgencyNormal)
}

func (m *Manager) Stopped() {
	m.send("Processing", "Transcribing audio...", "audio-x-generic", UrgencyNormal)
}

func (m *Manager) Done(text string, elapsed time.Duration) {
	body := fmt.Sprintf("Copied (%.1fs)\n%s", elapsed.Seconds(), preview(text, previewRunes))
	m.send("Done", body, "dialog-information", UrgencyNormal)
}

func (m *Manager) NoAudio() {
	m.send("No Audio", "Nothing was recorded", "dialog-warning", UrgencyLow)
}

func (m *Manager) NoSpeech() {
	m.send("No Speech", "No speech detected in recording", "dialog-warning", UrgencyLow)
}

func (m *Manager) Error(msg string) {
	m.send("Error", msg, "dialog-error", UrgencyCritical)
}

// SilenceWarning fires when a recording has run on without speech.
func (m *Manager) SilenceWarning(d time.Duration) {
	body := fmt.Sprintf("No speech for %d seconds, still recording", int(d.Seconds()))
	m.send("Still Recording", body, "audio-input-microphone", UrgencyNormal)
}

// AutoStopped fires when the silence monitor ends a forgotten
// recording.
func (m *Manager) AutoStopped(d time.Duration) {
	body := fmt.Sprintf("Recording stopped after %d seconds of silence", int(d.Seconds()))
	m.send("Recording Stopped", body, "dialog-warning", UrgencyNormal)
}

// preview truncates text for a notification body without splitting a
// multi-byte character.
func preview(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
