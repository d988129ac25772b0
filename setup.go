package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"murmur/audio"
	"murmur/config"
	"murmur/log"
)

const meterWidth = 24

var (
	setupTitleStyle  = lipgloss.NewStyle().Bold(true)
	setupCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	setupDimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	setupWarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	setupMeterStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type meterMsg time.Time

func meterTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return meterMsg(t)
	})
}

// setupModel is the microphone picker. The highlighted device is live:
// a capture stream feeds the level meter so the user can see which
// entry actually hears them.
type setupModel struct {
	devices    []audio.Device
	cursor     int
	chosen     int
	recorder   *audio.Recorder
	level      float64
	previewErr error
}

func newSetupModel(devices []audio.Device, recorder *audio.Recorder, current string) setupModel {
	m := setupModel{devices: devices, chosen: -1, recorder: recorder}
	for i := range devices {
		if devices[i].Name == current {
			m.cursor = i
			break
		}
	}
	return m
}

func (m *setupModel) preview() {
	m.recorder.Stop()
	m.recorder.SetDevice(&m.devices[m.cursor])
	m.previewErr = m.recorder.Start()
	m.level = 0
}

func (m setupModel) Init() tea.Cmd {
	return meterTick()
}

func (m setupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.preview()
			}
		case "down", "j":
			if m.cursor < len(m.devices)-1 {
				m.cursor++
				m.preview()
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}

	case meterMsg:
		m.level = m.level*0.6 + m.recorder.Level()*0.4
		return m, meterTick()
	}
	return m, nil
}

func (m setupModel) View() string {
	var b strings.Builder
	b.WriteString(setupTitleStyle.Render("Select microphone") + "\n\n")

	for i, dev := range m.devices {
		line := "  " + dev.Name
		if i == m.cursor {
			line = setupCursorStyle.Render("> " + dev.Name)
		}
		b.WriteString(line)
		if audio.IsBluetooth(dev.Name) {
			b.WriteString(setupWarnStyle.Render("  [bluetooth]"))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	if m.previewErr != nil {
		b.WriteString(setupWarnStyle.Render("no signal: " + m.previewErr.Error()))
	} else {
		filled := int(m.level * meterWidth)
		if filled > meterWidth {
			filled = meterWidth
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
		b.WriteString(setupMeterStyle.Render(bar) + setupDimStyle.Render("  speak to test"))
	}
	b.WriteString("\n\n")
	b.WriteString(setupDimStyle.Render("  ↑/↓ move · enter select · q cancel") + "\n")
	return b.String()
}

// runSetup picks a microphone interactively and saves it to the
// config. The running daemon switches from its tray menu; this covers
// first-run and headless-ish sessions.
func runSetup() int {
	logger := log.Nop()
	cfg := config.Load(logger)

	catalog, err := audio.NewCatalog(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer catalog.Close()

	devices, err := catalog.Devices()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(devices) == 0 {
		fmt.Println("No microphones found.")
		return 1
	}

	recorder := audio.NewRecorder(catalog, logger)
	m := newSetupModel(devices, recorder, cfg.Microphone)
	m.preview()

	out, err := tea.NewProgram(m).Run()
	recorder.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	final := out.(setupModel)
	if final.chosen < 0 {
		fmt.Println("No change.")
		return 0
	}
	name := devices[final.chosen].Name
	cfg.Microphone = name
	if err := cfg.Save(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Microphone saved: %s\n", name)
	return 0
}
