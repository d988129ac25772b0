// Package install writes the launcher, autostart, and service files
// that make the daemon start with the desktop session.
package install

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

const desktopEntry = `[Desktop Entry]
Name=Murmur
Comment=Push to talk dictation with local speech models
Exec=%s
Icon=%s
Terminal=false
Type=Application
Categories=AudioVideo;Audio;Utility;
Keywords=speech;voice;whisper;transcribe;dictation;
StartupNotify=false
`

const systemdService = `[Unit]
Description=Murmur - push to talk dictation
After=graphical-session.target

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=5

# Environment for Wayland
Environment=DISPLAY=:0

[Install]
WantedBy=default.target
`

// iconSVG is the scalable launcher icon: a dark disc with a
// microphone capsule, matching the tray rendering.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64">
  <circle cx="32" cy="32" r="30" fill="#1c1c1e"/>
  <rect x="26" y="14" width="12" height="24" rx="6" fill="#ff3b30"/>
  <path d="M18 32a14 14 0 0 0 28 0" fill="none" stroke="#f2f2f7" stroke-width="4" stroke-linecap="round"/>
  <line x1="32" y1="46" x2="32" y2="52" stroke="#f2f2f7" stroke-width="4" stroke-linecap="round"/>
</svg>
`

func home() string {
	h, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return h
}

func desktopDir() string { return filepath.Join(home(), ".local", "share", "applications") }

func autostartDir() string { return filepath.Join(home(), ".config", "autostart") }

func systemdUserDir() string {
	return filepath.Join(home(), ".config", "systemd", "user")
}

func iconInstallDir() string {
	return filepath.Join(home(), ".local", "share", "icons", "hicolor", "scalable", "apps")
}

func execPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func installIcon() (string, error) {
	dir := iconInstallDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(dir, "murmur.svg")
	if err := os.WriteFile(dest, []byte(iconSVG), 0o644); err != nil {
		return "", err
	}
	fmt.Printf("Installed icon: %s\n", dest)
	return dest, nil
}

func installDesktopEntry(autostart bool) error {
	exe, err := execPath()
	if err != nil {
		return err
	}
	icon, err := installIcon()
	if err != nil {
		return fmt.Errorf("install icon: %w", err)
	}

	content := fmt.Sprintf(desktopEntry, exe, icon)

	dir := desktopDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	desktopFile := filepath.Join(dir, "murmur.desktop")
	if err := os.WriteFile(desktopFile, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("Installed desktop entry: %s\n", desktopFile)

	if autostart {
		adir := autostartDir()
		if err := os.MkdirAll(adir, 0o755); err != nil {
			return err
		}
		autostartFile := filepath.Join(adir, "murmur.desktop")
		if err := os.WriteFile(autostartFile, []byte(content), 0o644); err != nil {
			return err
		}
		fmt.Printf("Installed autostart entry: %s\n", autostartFile)
	}

	// Best effort; not every distro ships it
	exec.Command("update-desktop-database", dir).Run()
	return nil
}

func installSystemdService() error {
	exe, err := execPath()
	if err != nil {
		return err
	}
	dir := systemdUserDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	serviceFile := filepath.Join(dir, "murmur.service")
	if err := os.WriteFile(serviceFile, []byte(fmt.Sprintf(systemdService, exe)), 0o644); err != nil {
		return err
	}
	fmt.Printf("Installed systemd service: %s\n", serviceFile)

	exec.Command("systemctl", "--user", "daemon-reload").Run()
	fmt.Println("Reloaded systemd user daemon")
	return nil
}

// Install writes everything. With useSystemd the daemon becomes a
// user service; otherwise the autostart entry launches it at login.
func Install(useSystemd bool) error {
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Murmur - Installation")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	if err := installDesktopEntry(!useSystemd); err != nil {
		return err
	}
	fmt.Println()

	if useSystemd {
		if err := installSystemdService(); err != nil {
			return err
		}
		exec.Command("systemctl", "--user", "enable", "murmur.service").Run()
		fmt.Println("Enabled murmur.service to start on login")
		fmt.Println()
		fmt.Println("To start now: systemctl --user start murmur")
	} else {
		fmt.Println("Murmur will start automatically on login.")
		fmt.Println("To start now, run: murmur")
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Installation complete!")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()
	fmt.Println("Run 'murmur keybind' to set up your hotkey.")
	return nil
}

// Uninstall removes every installed file, stopping the service first.
func Uninstall() error {
	exec.Command("systemctl", "--user", "stop", "murmur.service").Run()
	exec.Command("systemctl", "--user", "disable", "murmur.service").Run()

	for _, f := range []string{
		filepath.Join(desktopDir(), "murmur.desktop"),
		filepath.Join(autostartDir(), "murmur.desktop"),
		filepath.Join(systemdUserDir(), "murmur.service"),
		filepath.Join(iconInstallDir(), "murmur.svg"),
	} {
		if err := os.Remove(f); err == nil {
			fmt.Printf("Removed: %s\n", f)
		}
	}

	exec.Command("systemctl", "--user", "daemon-reload").Run()
	fmt.Println("Uninstall complete")
	return nil
}

// Status prints what is installed and whether the service runs.
func Status() {
	fmt.Println("Murmur Installation Status")
	fmt.Println(strings.Repeat("=", 40))

	checkFile := func(label, path string) {
		mark := "✗"
		if _, err := os.Stat(path); err == nil {
			mark = "✓"
		}
		fmt.Printf("%-18s %s %s\n", label+":", mark, path)
	}
	checkFile("Desktop entry", filepath.Join(desktopDir(), "murmur.desktop"))
	checkFile("Autostart entry", filepath.Join(autostartDir(), "murmur.desktop"))
	checkFile("Systemd service", filepath.Join(systemdUserDir(), "murmur.service"))
	checkFile("Icon installed", filepath.Join(iconInstallDir(), "murmur.svg"))

	checkUnit := func(label, verb, want string) {
		out, _ := exec.Command("systemctl", "--user", verb, "murmur.service").Output()
		mark := "✗"
		if strings.TrimSpace(string(out)) == want {
			mark = "✓"
		}
		fmt.Printf("%-18s %s\n", label+":", mark)
	}
	checkUnit("Service enabled", "is-enabled", "enabled")
	checkUnit("Service running", "is-active", "active")
}
