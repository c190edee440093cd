//go:build unix

package daemon

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive probes pid with signal 0. EPERM still means it exists.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Terminate asks pid to exit with SIGTERM.
func Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}
