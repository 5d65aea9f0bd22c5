//go:build linux

package display

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// setProcessTitle renames the kernel-visible thread comm via PR_SET_NAME,
// truncated to 15 bytes plus a NUL terminator. This is a narrower effect
// than the upstream's argv/environ rewrite (which changes what "ps -ef"
// prints for the full command line), but it's the closest portable
// equivalent available without unsafe argv surgery.
func setProcessTitle(title string) {
	if len(title) > 15 {
		title = title[:15]
	}

	name := make([]byte, len(title)+1)
	copy(name, title)

	_ = unix.Prctl(unix.PR_SET_NAME, uintptr(unsafe.Pointer(&name[0])), 0, 0, 0)
}
