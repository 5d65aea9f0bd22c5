//go:build unix

package sigterm

import (
	"os"

	"golang.org/x/sys/unix"
)

// redirectStderrToNull duplicates /dev/null over standard error's
// descriptor, remembering the original so restoreStderr can put it back.
// It is best-effort: a failure here just means SIGTTOU storms continue,
// which is no worse than not handling the signal at all.
func (s *Supervisor) redirectStderrToNull() {
	if s.savedStderrFd != -1 {
		return
	}

	saved, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		return
	}

	devNull, err := unix.Open(os.DevNull, unix.O_WRONLY, 0)
	if err != nil {
		_ = unix.Close(saved)

		return
	}

	if err := unix.Dup2(devNull, int(os.Stderr.Fd())); err != nil {
		_ = unix.Close(devNull)
		_ = unix.Close(saved)

		return
	}

	_ = unix.Close(devNull)
	s.savedStderrFd = saved
}

// restoreStderr puts the original standard error descriptor back, if it was
// swapped out. Returns true if a restoration happened.
func (s *Supervisor) restoreStderr() bool {
	if s.savedStderrFd == -1 {
		return false
	}

	err := unix.Dup2(s.savedStderrFd, int(os.Stderr.Fd()))
	_ = unix.Close(s.savedStderrFd)
	s.savedStderrFd = -1

	return err == nil
}
