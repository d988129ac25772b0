// Package clipboard delivers transcribed text to the focused window:
// copy to the system clipboard, then inject a paste chord chosen by
// the focused window's class.
package clipboard

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	cb "github.com/atotto/clipboard"

	"murmur/log"
)

// Terminal emulators that paste with Ctrl+Shift+V.
var terminalClasses = map[string]bool{
	"kitty":                 true,
	"alacritty":             true,
	"foot":                  true,
	"wezterm":               true,
	"ghostty":               true,
	"konsole":               true,
	"gnome-terminal":        true,
	"gnome-terminal-server": true,
	"xfce4-terminal":        true,
	"terminator":            true,
	"tilix":                 true,
	"st":                    true,
	"st-256color":           true,
	"urxvt":                 true,
	"xterm":                 true,
	"contour":               true,
	"warp":                  true,
	"rio":                   true,
	"blackbox":              true,
	"ptyxis":                true,
}

// Pause between copy and paste so the clipboard owner is settled
// before the chord lands.
const settleDelay = 50 * time.Millisecond

// Delivery injects text into the focused window. The keystroke
// backend is probed once at construction.
type Delivery struct {
	log       *log.Logger
	autoPaste bool
	backend   backend
}

func New(logger *log.Logger, autoPaste bool) *Delivery {
	return &Delivery{log: logger, autoPaste: autoPaste, backend: resolveBackend(logger)}
}

// Deliver copies text to the clipboard and, when auto-paste is on,
// sends the paste chord to the focused window.
func (d *Delivery) Deliver(text string) error {
	if err := Copy(text); err != nil {
		return fmt.Errorf("clipboard copy: %w", err)
	}
	if !d.autoPaste {
		return nil
	}
	time.Sleep(settleDelay)

	class := activeWindowClass(d.log)
	terminal := isTerminal(class)
	if terminal {
		d.log.Debugf("terminal window %q, pasting with shift chord", class)
	}
	if err := d.paste(terminal); err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	return nil
}

func isTerminal(class string) bool {
	return terminalClasses[strings.ToLower(class)]
}

// Copy places text on the system clipboard. Under Wayland wl-copy
// owns the selection; it forks and outlives us, so it is started and
// not waited on.
func Copy(text string) error {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if path, err := exec.LookPath("wl-copy"); err == nil {
			cmd := exec.Command(path)
			cmd.Stdin = strings.NewReader(text)
			if err := cmd.Start(); err != nil {
				return err
			}
			go cmd.Wait()
			return nil
		}
	}
	return cb.WriteAll(text)
}

// Read returns the current clipboard contents.
func Read() (string, error) {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if path, err := exec.LookPath("wl-paste"); err == nil {
			out, err := exec.Command(path, "--no-newline").Output()
			if err == nil {
				return string(out), nil
			}
		}
	}
	return cb.ReadAll()
}
