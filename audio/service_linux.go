//go:build linux

package audio

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// serviceActive asks the user's systemd instance over the session bus
// whether the named unit is active. A fresh connection per probe keeps
// this usable while the bus itself is still coming up at login.
func serviceActive(name string) (bool, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return false, fmt.Errorf("session bus: %w", err)
	}
	defer conn.Close()

	manager := conn.Object("org.freedesktop.systemd1", "/org/freedesktop/systemd1")
	var unitPath dbus.ObjectPath
	if err := manager.Call("org.freedesktop.systemd1.Manager.LoadUnit", 0, name).Store(&unitPath); err != nil {
		return false, fmt.Errorf("load unit %s: %w", name, err)
	}

	unit := conn.Object("org.freedesktop.systemd1", unitPath)
	state, err := unit.GetProperty("org.freedesktop.systemd1.Unit.ActiveState")
	if err != nil {
		return false, fmt.Errorf("unit %s state: %w", name, err)
	}
	var s string
	if err := state.Store(&s); err != nil {
		return false, err
	}
	return s == "active", nil
}
