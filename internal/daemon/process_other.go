//go:build !unix

package daemon

import "errors"

func processAlive(int) bool { return false }

// Terminate is not supported on this platform.
func Terminate(int) error {
	return errors.New("terminating a process is not supported on this platform")
}
