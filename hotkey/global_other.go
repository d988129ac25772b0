//go:build !linux

package hotkey

import (
	"fmt"
	"strings"
	"sync"

	xhotkey "golang.design/x/hotkey"

	"murmur/log"
)

// GlobalSource grabs a system-wide key combination. Used where
// compositor keybinds and unix signals are not the deployment story.
type GlobalSource struct {
	log     *log.Logger
	combo   string
	hk      *xhotkey.Hotkey
	toggles chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func NewGlobal(combo string, logger *log.Logger) (*GlobalSource, error) {
	mods, key, err := parseCombo(combo)
	if err != nil {
		return nil, err
	}
	return &GlobalSource{
		log:     logger,
		combo:   combo,
		hk:      xhotkey.New(mods, key),
		toggles: make(chan struct{}, 1),
		stop:    make(chan struct{}),
	}, nil
}

func (g *GlobalSource) Start() error {
	if err := g.hk.Register(); err != nil {
		return fmt.Errorf("register hotkey %q: %w", g.combo, err)
	}
	g.log.Infof("global hotkey registered: %s", g.combo)
	go func() {
		for {
			select {
			case <-g.stop:
				return
			case <-g.hk.Keydown():
				select {
				case g.toggles <- struct{}{}:
				default:
				}
			}
		}
	}()
	return nil
}

func (g *GlobalSource) Stop() {
	g.once.Do(func() {
		close(g.stop)
		g.hk.Unregister()
	})
}

func (g *GlobalSource) Toggles() <-chan struct{} { return g.toggles }

// Diagnose reports whether the toggle path is usable.
func Diagnose() (string, error) {
	return "global hotkey support available", nil
}

// parseCombo turns "ctrl+shift+space" into modifiers and a key. Only
// the modifier names shared across platforms are accepted.
func parseCombo(combo string) ([]xhotkey.Modifier, xhotkey.Key, error) {
	var mods []xhotkey.Modifier
	var key xhotkey.Key
	haveKey := false
	for _, part := range strings.Split(strings.ToLower(combo), "+") {
		part = strings.TrimSpace(part)
		switch {
		case part == "ctrl" || part == "control":
			mods = append(mods, xhotkey.ModCtrl)
		case part == "shift":
			mods = append(mods, xhotkey.ModShift)
		case part == "space":
			key, haveKey = xhotkey.KeySpace, true
		case part == "tab":
			key, haveKey = xhotkey.KeyTab, true
		case len(part) == 1 && part[0] >= 'a' && part[0] <= 'z':
			key, haveKey = letterKey(part[0]), true
		case len(part) == 1 && part[0] >= '0' && part[0] <= '9':
			key, haveKey = digitKey(part[0]), true
		default:
			return nil, 0, fmt.Errorf("unsupported hotkey element %q (use ctrl, shift, space, tab, a-z, 0-9)", part)
		}
	}
	if !haveKey {
		return nil, 0, fmt.Errorf("hotkey %q has no non-modifier key", combo)
	}
	if len(mods) == 0 {
		return nil, 0, fmt.Errorf("hotkey %q needs at least one modifier", combo)
	}
	return mods, key, nil
}

func letterKey(c byte) xhotkey.Key {
	keys := [26]xhotkey.Key{
		xhotkey.KeyA, xhotkey.KeyB, xhotkey.KeyC, xhotkey.KeyD,
		xhotkey.KeyE, xhotkey.KeyF, xhotkey.KeyG, xhotkey.KeyH,
		xhotkey.KeyI, xhotkey.KeyJ, xhotkey.KeyK, xhotkey.KeyL,
		xhotkey.KeyM, xhotkey.KeyN, xhotkey.KeyO, xhotkey.KeyP,
		xhotkey.KeyQ, xhotkey.KeyR, xhotkey.KeyS, xhotkey.KeyT,
		xhotkey.KeyU, xhotkey.KeyV, xhotkey.KeyW, xhotkey.KeyX,
		xhotkey.KeyY, xhotkey.KeyZ,
	}
	return keys[c-'a']
}

func digitKey(c byte) xhotkey.Key {
	keys := [10]xhotkey.Key{
		xhotkey.Key0, xhotkey.Key1, xhotkey.Key2, xhotkey.Key3,
		xhotkey.Key4, xhotkey.Key5, xhotkey.Key6, xhotkey.Key7,
		xhotkey.Key8, xhotkey.Key9,
	}
	return keys[c-'0']
}
