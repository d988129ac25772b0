//go:build !linux

package main

import (
	"fmt"
	"runtime"

	"golang.design/x/hotkey/mainthread"

	"murmur/config"
	"murmur/hotkey"
	"murmur/log"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	// The global hotkey grab needs the main thread serviced.
	mainthread.Init(run)
}

func newToggleSource(cfg config.Config, logger *log.Logger) (hotkey.Source, error) {
	return hotkey.NewGlobal(cfg.Hotkey, logger)
}

func sendToggle() error {
	return fmt.Errorf("not supported on %s; recording is driven by the global hotkey", runtime.GOOS)
}

func daemonStatus() {}
