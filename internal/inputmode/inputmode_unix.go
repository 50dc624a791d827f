//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package inputmode

import (
	"errors"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// echoController turns terminal echo off while suppressed
type echoController struct {
	mu       sync.Mutex
	fd       int
	original *term.State
}

func newPlatformController(f *os.File) (Controller, error) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("input is not a terminal")
	}
	state, err := term.GetState(fd)
	if err != nil {
		return nil, err
	}
	return &echoController{fd: fd, original: state}, nil
}

func (c *echoController) Suppress() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	termios, err := unix.IoctlGetTermios(c.fd, ioctlReadTermios)
	if err != nil {
		return err
	}
	termios.Lflag &^= unix.ECHO
	return unix.IoctlSetTermios(c.fd, ioctlWriteTermios, termios)
}

func (c *echoController) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return term.Restore(c.fd, c.original)
}
