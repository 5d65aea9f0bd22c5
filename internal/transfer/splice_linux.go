//go:build linux

package transfer

import (
	"errors"

	"golang.org/x/sys/unix"
)

// spliceSupported reports whether this build can attempt the zero-copy path.
const spliceSupported = true

// trySplice moves up to n bytes directly between the two descriptors without
// staging them in the Go-level buffer. ok is false (with a nil error) when
// the kernel rejected splice for a reason that should permanently disable
// the zero-copy path for this fd pair, mirroring the upstream's
// remember-and-fall-back-forever behaviour on EINVAL/ENOSYS/EBADF.
func trySplice(rfd, wfd uintptr, n int) (written int64, ok bool, err error) {
	written, spliceErr := unix.Splice(int(rfd), nil, int(wfd), nil, n, unix.SPLICE_F_NONBLOCK|unix.SPLICE_F_MOVE)
	if spliceErr == nil {
		return written, true, nil
	}

	if errors.Is(spliceErr, unix.EAGAIN) {
		return 0, true, nil
	}

	if errors.Is(spliceErr, unix.EINVAL) || errors.Is(spliceErr, unix.ENOSYS) || errors.Is(spliceErr, unix.EBADF) {
		return 0, false, nil
	}

	return 0, true, spliceErr
}
