//go:build linux

package engine

import "golang.org/x/sys/unix"

// isForeground reports whether this process belongs to the terminal's
// foreground process group on fd. A stderr that isn't a terminal at all
// (redirected to a file or pipe) is treated as foreground, matching the
// upstream's behaviour of only gating on an actual controlling tty.
func isForeground(fd uintptr) bool {
	tpgrp, err := unix.IoctlGetInt(int(fd), unix.TIOCGPGRP)
	if err != nil {
		return true
	}

	pgrp, err := unix.Getpgid(0)
	if err != nil {
		return true
	}

	return tpgrp == pgrp
}
