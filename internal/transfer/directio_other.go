//go:build !linux

package transfer

import "errors"

// setDirectIO is unsupported outside Linux; O_DIRECT has no portable
// fcntl-level equivalent.
func setDirectIO(fd uintptr, enable bool) error {
	return errors.ErrUnsupported
}
