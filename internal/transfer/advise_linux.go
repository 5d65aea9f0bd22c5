//go:build linux

package transfer

import "golang.org/x/sys/unix"

// adviseSequential hints to the kernel that reads from fd will be
// sequential, matching the upstream posix_fadvise(..., POSIX_FADV_SEQUENTIAL)
// call made once per input file. Best-effort: a non-regular-file fd (a pipe,
// a socket) returns ENOTSUP-ish errors that are safe to ignore.
func adviseSequential(fd uintptr) {
	_ = unix.Fadvise(int(fd), 0, 0, unix.FADV_SEQUENTIAL)
}
