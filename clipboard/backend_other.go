//go:build !linux && !darwin

package clipboard

import (
	"sync"

	"github.com/micmonay/keybd_event"

	"murmur/log"
)

type backend int

const backendKeybd backend = iota

func (backend) String() string { return "keybd" }

func resolveBackend(logger *log.Logger) backend { return backendKeybd }

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func kbInit() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

func (d *Delivery) paste(terminal bool) error {
	if err := kbInit(); err != nil {
		return err
	}
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	kb.HasSHIFT(terminal)
	return kb.Launching()
}

func CheckDependencies() []string { return nil }
