//go:build !linux && !darwin

package install

import (
	"errors"
	"fmt"
)

var errUnsupported = errors.New("install is not supported on this platform")

func Install(bool) error { return errUnsupported }

func Uninstall() error { return errUnsupported }

func Status() {
	fmt.Println("install is not supported on this platform")
}
