//go:build linux

package clipboard

import (
	"context"
	"encoding/json"
	"os/exec"
	"strings"
	"time"

	"murmur/log"
)

// activeWindowClass asks the compositor for the focused window's
// class. Only Hyprland is queried; anywhere else the class is unknown
// and the non-terminal chord is used.
func activeWindowClass(logger *log.Logger) string {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, "hyprctl", "activewindow", "-j").Output()
	if err != nil {
		logger.Debugf("hyprctl not available: %v", err)
		return ""
	}
	class, err := parseWindowClass(out)
	if err != nil {
		logger.Warnf("cannot parse hyprctl output: %v", err)
		return ""
	}
	return class
}

func parseWindowClass(data []byte) (string, error) {
	var win struct {
		Class string `json:"class"`
	}
	if err := json.Unmarshal(data, &win); err != nil {
		return "", err
	}
	return strings.ToLower(win.Class), nil
}
