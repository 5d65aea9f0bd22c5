//go:build !linux

package engine

// pipeUnreadBytes cannot be measured without FIONREAD on this platform.
func pipeUnreadBytes(fd uintptr) (n int64, ok bool) { return 0, false }
