//go:build linux

package engine

import "golang.org/x/sys/unix"

// pipeUnreadBytes queries FIONREAD on fd to discover how many bytes the
// consumer has not yet read out of the output pipe. ok is false when fd
// isn't a pipe or the ioctl isn't supported, meaning back-pressure can't be
// measured (e.g. a regular file output).
func pipeUnreadBytes(fd uintptr) (n int64, ok bool) {
	count, err := unix.IoctlGetInt(int(fd), unix.FIONREAD)
	if err != nil {
		return 0, false
	}

	return int64(count), true
}
