//go:build linux

package sigterm

import (
	"os"

	"golang.org/x/sys/unix"
)

const (
	ioctlReadTermios  = unix.TCGETS
	ioctlWriteTermios = unix.TCSETS
)

// ensureTOSTOP sets the TOSTOP terminal attribute on standard error if it
// isn't already set, so a write from a backgrounded process raises SIGTTOU
// instead of silently succeeding. It reports whether this call is the one
// that set it (and so should be the one to clear it on teardown).
func ensureTOSTOP() bool {
	fd := int(os.Stderr.Fd())

	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return false
	}

	if termios.Lflag&unix.TOSTOP != 0 {
		return false
	}

	termios.Lflag |= unix.TOSTOP

	return unix.IoctlSetTermios(fd, ioctlWriteTermios, termios) == nil
}

// clearTOSTOP clears the TOSTOP attribute this process set.
func clearTOSTOP() {
	fd := int(os.Stderr.Fd())

	termios, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return
	}

	if termios.Lflag&unix.TOSTOP == 0 {
		return
	}

	termios.Lflag &^= unix.TOSTOP

	_ = unix.IoctlSetTermios(fd, ioctlWriteTermios, termios)
}
