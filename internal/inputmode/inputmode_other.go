//go:build !windows && !linux && !darwin && !freebsd && !netbsd && !openbsd && !dragonfly

package inputmode

import (
	"errors"
	"os"
)

func newPlatformController(*os.File) (Controller, error) {
	return nil, errors.New("input mode control is not supported on this platform")
}
