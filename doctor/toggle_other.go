//go:build !linux

package doctor

import (
	"fmt"
	"time"

	"murmur/hotkey"
	"murmur/log"
)

func checkToggle(combo string, logger *log.Logger) bool {
	fmt.Println()
	fmt.Println("[1/3] Toggle path")
	fmt.Printf("Press %s...\n", combo)

	src, err := hotkey.NewGlobal(combo, logger)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if err := src.Start(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer src.Stop()

	select {
	case <-src.Toggles():
		fmt.Println("  PASS: hotkey detected")
		// Reset the terminal; the grab can leave it in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}
