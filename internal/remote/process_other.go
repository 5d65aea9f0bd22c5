//go:build !unix

package remote

// checkProcessExists cannot be verified without a POSIX signal(0) probe on
// this platform; optimistically proceed and let Send's drain timeout
// surface an unreachable target.
func checkProcessExists(pid int) error { return nil }
