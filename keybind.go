package main

import (
	"fmt"
	"runtime"
	"strings"

	"murmur/config"
	"murmur/log"
)

// printKeybind shows how to wire the hotkey to the toggle. On linux
// the daemon does not grab keys; the compositor owns the binding and
// execs `murmur toggle`.
func printKeybind() {
	cfg := config.Load(log.Nop())
	if runtime.GOOS != "linux" {
		fmt.Printf("murmur grabs %s system-wide while the daemon runs.\n", cfg.Hotkey)
		fmt.Println("Change the hotkey in the config file and restart the daemon.")
		return
	}

	parts := strings.Split(cfg.Hotkey, "+")
	key := strings.ToUpper(parts[len(parts)-1])
	mods := make([]string, 0, len(parts)-1)
	for _, p := range parts[:len(parts)-1] {
		mods = append(mods, strings.ToUpper(p))
	}

	fmt.Printf("Bind %s to `murmur toggle` in your compositor.\n", cfg.Hotkey)
	fmt.Println()
	fmt.Println("Hyprland (~/.config/hypr/hyprland.conf):")
	fmt.Printf("  bind = %s, %s, exec, murmur toggle\n", strings.Join(mods, " "), key)
	fmt.Println("  then reload with: hyprctl reload")
	fmt.Println()
	fmt.Println("Sway (~/.config/sway/config):")
	fmt.Printf("  bindsym %s exec murmur toggle\n", swayCombo(parts))
	fmt.Println()
	fmt.Println("Other compositors: bind any key to the `murmur toggle` command.")
}

func swayCombo(parts []string) string {
	out := make([]string, len(parts))
	for i, p := range parts {
		switch strings.ToLower(p) {
		case "ctrl", "control":
			out[i] = "Ctrl"
		case "shift":
			out[i] = "Shift"
		case "alt":
			out[i] = "Mod1"
		case "super", "meta", "win":
			out[i] = "Mod4"
		default:
			if len(p) > 1 {
				out[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
			} else {
				out[i] = strings.ToLower(p)
			}
		}
	}
	return strings.Join(out, "+")
}
