package doctor

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murmur/hotkey"
	"murmur/log"
)

// checkToggle proves SIGUSR1 reaches this process and the pid file
// location is usable, which is all a compositor keybind running
// `murmur toggle` needs.
func checkToggle(_ string, _ *log.Logger) bool {
	fmt.Println()
	fmt.Println("[1/3] Toggle path")

	msg, err := hotkey.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  %s\n", msg)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1)
	defer signal.Stop(sigs)

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		fmt.Printf("  FAIL: cannot signal self: %v\n", err)
		return false
	}
	select {
	case <-sigs:
		fmt.Println("  PASS: SIGUSR1 delivery verified")
	case <-time.After(2 * time.Second):
		fmt.Println("  FAIL: SIGUSR1 not delivered")
		return false
	}

	if pid, ok := hotkey.Running(); ok {
		fmt.Printf("  daemon is running as pid %d; bind your compositor key to `murmur toggle`\n", pid)
	}
	return true
}
