//go:build windows

package inputmode

import (
	"os"
	"sync"

	"golang.org/x/sys/windows"
)

// quickEditController clears ENABLE_QUICK_EDIT_MODE so a mouse click in the
// console cannot pause the process by starting a selection.
type quickEditController struct {
	mu       sync.Mutex
	handle   windows.Handle
	original uint32
}

func newPlatformController(f *os.File) (Controller, error) {
	handle := windows.Handle(f.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return nil, err
	}
	return &quickEditController{handle: handle, original: mode}, nil
}

func (c *quickEditController) Suppress() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	mode := (c.original &^ windows.ENABLE_QUICK_EDIT_MODE) | windows.ENABLE_EXTENDED_FLAGS
	return windows.SetConsoleMode(c.handle, mode)
}

func (c *quickEditController) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return windows.SetConsoleMode(c.handle, c.original)
}
