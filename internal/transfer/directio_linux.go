//go:build linux

package transfer

import "golang.org/x/sys/unix"

// setDirectIO toggles O_DIRECT on fd via fcntl(F_SETFL), matching the
// upstream's direct-io support (pv_set_buffer_size's O_DIRECT fallback).
// Best-effort: many filesystems and most pipes reject O_DIRECT outright,
// so a failure here is left for the caller to decide whether it matters.
func setDirectIO(fd uintptr, enable bool) error {
	flags, err := unix.FcntlInt(fd, unix.F_GETFL, 0)
	if err != nil {
		return err
	}

	if enable {
		flags |= unix.O_DIRECT
	} else {
		flags &^= unix.O_DIRECT
	}

	_, err = unix.FcntlInt(fd, unix.F_SETFL, flags)

	return err
}
