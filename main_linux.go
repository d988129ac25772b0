//go:build linux

package main

import (
	"fmt"

	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
)

func main() { run() }

// newToggleSource returns the deployment's toggle path: a SIGUSR1
// listener plus pid file, so any compositor keybinding can drive
// recording through `murmur toggle`.
func newToggleSource(_ config.Config, logger *log.Logger) (hotkey.Source, error) {
	return hotkey.NewSignal(logger), nil
}

func sendToggle() error { return hotkey.SendToggle() }

func daemonStatus() {
	if pid, ok := hotkey.Running(); ok {
		fmt.Printf("%-18s ✓ running (pid %d)\n", "Daemon:", pid)
		return
	}
	fmt.Printf("%-18s ✗ not running\n", "Daemon:")
}
