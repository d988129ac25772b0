package doctor

import (
	"fmt"

	"murmur/clipboard"
)

// verifyInjection reads the injected chord back from evdev to tell a
// delivery problem from a focus problem.
func verifyInjection() {
	msg, err := clipboard.VerifyInjection()
	if err != nil {
		fmt.Printf("  keystroke diagnostic: %v\n", err)
		fmt.Println("  Fix with: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return
	}
	fmt.Printf("  keystroke diagnostic: %s (the chord fires; check window focus)\n", msg)
}
