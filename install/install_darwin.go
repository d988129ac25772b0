// Package install writes the files that make the daemon start with
// the user session.
package install

import (
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const plistName = "com.murmur.app.plist"

func plistPath() string {
	return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", plistName)
}

func writePlist() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	plist := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>LimitLoadToSessionType</key>
	<string>Aqua</string>
</dict>
</plist>
`, plistName, html.EscapeString(exe))

	path := plistPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create LaunchAgents dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(plist), 0o600); err != nil {
		return fmt.Errorf("write plist: %w", err)
	}
	return nil
}

// Install registers a launch agent that starts the daemon at login.
func Install(_ bool) error {
	if err := writePlist(); err != nil {
		return err
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	// Bootout first in case the agent is already loaded
	exec.Command("launchctl", "bootout", domain, plistPath()).Run()
	if out, err := exec.Command("launchctl", "bootstrap", domain, plistPath()).CombinedOutput(); err != nil {
		return fmt.Errorf("launchctl bootstrap: %w (%s)", err, out)
	}
	fmt.Printf("Installed launch agent: %s\n", plistPath())
	return nil
}

func Uninstall() error {
	path := plistPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("Nothing installed")
		return nil
	}
	domain := fmt.Sprintf("gui/%d", os.Getuid())
	exec.Command("launchctl", "bootout", domain, path).Run()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove plist: %w", err)
	}
	fmt.Println("Uninstall complete")
	return nil
}

func Status() {
	fmt.Println("Murmur Installation Status")
	fmt.Println(strings.Repeat("=", 40))
	mark := "✗"
	if _, err := os.Stat(plistPath()); err == nil {
		mark = "✓"
	}
	fmt.Printf("%-18s %s %s\n", "Launch agent:", mark, plistPath())
}
