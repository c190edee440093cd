//go:build linux

package stderr

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Start points file descriptor 2 at a pipe. Call Forward to drain it.
func Start() (*Capture, error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}

	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, fmt.Errorf("dup stderr: %w", err)
	}
	if err := unix.Dup3(int(w.Fd()), int(os.Stderr.Fd()), 0); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return nil, fmt.Errorf("redirect stderr: %w", err)
	}

	return &Capture{
		Console: os.NewFile(uintptr(orig), "/dev/stderr"),
		orig:    orig,
		r:       r,
		w:       w,
		done:    make(chan struct{}),
	}, nil
}

// Stop restores file descriptor 2, then logs and syncs whatever was still
// in the pipe when Forward was called. Console stays open.
func (c *Capture) Stop() {
	if c.r == nil {
		return
	}
	_ = unix.Dup3(c.orig, int(os.Stderr.Fd()), 0)
	c.drain()
}
