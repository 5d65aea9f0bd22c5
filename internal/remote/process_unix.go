//go:build unix

package remote

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// checkProcessExists reports whether pid names a live process, using the
// kill(pid, 0) idiom: no signal is sent, only existence/permission is
// checked.
func checkProcessExists(pid int) error {
	err := unix.Kill(pid, 0)
	if err == nil || errors.Is(err, unix.EPERM) {
		return nil
	}

	return fmt.Errorf("remote process %d not found: %w", pid, err)
}
