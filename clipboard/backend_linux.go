//go:build linux

package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"murmur/log"
)

type backend int

const (
	backendWtype backend = iota
	backendUinput
	backendNone
)

func (b backend) String() string {
	switch b {
	case backendWtype:
		return "wtype"
	case backendUinput:
		return "uinput"
	}
	return "none"
}

// resolveBackend picks the keystroke injector once at startup. wtype
// is preferred under Wayland; a uinput virtual keyboard covers
// compositors without it.
func resolveBackend(logger *log.Logger) backend {
	if _, err := exec.LookPath("wtype"); err == nil {
		return backendWtype
	}
	if uinputAvailable() {
		logger.Infof("wtype not found, injecting keystrokes via uinput")
		return backendUinput
	}
	logger.Warnf("no keystroke injector found, auto-paste will fail")
	return backendNone
}

func uinputAvailable() bool {
	for _, p := range []string{"/dev/uinput", "/dev/input/uinput"} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func (d *Delivery) paste(terminal bool) error {
	switch d.backend {
	case backendWtype:
		return wtypePaste(terminal)
	case backendUinput:
		return uinputPaste(terminal)
	}
	return errors.New("no keystroke injector available")
}

func wtypePaste(terminal bool) error {
	args := []string{"-M", "ctrl", "v", "-m", "ctrl"}
	if terminal {
		args = []string{"-M", "ctrl", "-M", "shift", "v", "-m", "shift", "-m", "ctrl"}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(ctx, "wtype", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("wtype: %v (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CheckDependencies reports delivery tools missing from the system.
// The daemon refuses to start the pipeline without them.
func CheckDependencies() []string {
	var missing []string
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		if _, err := exec.LookPath("wl-copy"); err != nil {
			missing = append(missing, "wl-copy")
		}
		if _, err := exec.LookPath("wtype"); err != nil && !uinputAvailable() {
			missing = append(missing, "wtype")
		}
		return missing
	}
	if _, err := exec.LookPath("xclip"); err != nil {
		if _, err := exec.LookPath("xsel"); err != nil {
			missing = append(missing, "xclip or xsel")
		}
	}
	return missing
}
