//go:build !linux

package sigterm

// ensureTOSTOP and clearTOSTOP are no-ops on platforms without a termios
// TOSTOP bit exposed the way Linux exposes it; SIGTTOU still arrives from
// the kernel's own job-control defaults.
func ensureTOSTOP() bool { return false }

func clearTOSTOP() {}
