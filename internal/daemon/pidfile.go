package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrAlreadyRunning is returned by Acquire when a live daemon owns the file.
var ErrAlreadyRunning = errors.New("daemon already running")

// PIDFile guards against starting two daemons.
type PIDFile struct {
	Path string
}

// Acquire records the current process. A file naming a live process fails
// with ErrAlreadyRunning; a stale or unreadable one is replaced.
func (f PIDFile) Acquire() error {
	if pid, alive := f.Running(); alive {
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale PID file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("create PID directory: %w", err)
	}
	return os.WriteFile(f.Path, []byte(strconv.Itoa(os.Getpid())), 0o644) //nolint:gosec // PID is public
}

// Release removes the file unless it names another process, which happens
// when a restart already started the next daemon. A missing file is not an
// error.
func (f PIDFile) Release() error {
	if pid, err := f.Read(); err == nil && pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Read returns the recorded PID.
func (f PIDFile) Read() (int, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid PID file %s: %q", f.Path, strings.TrimSpace(string(data)))
	}
	return pid, nil
}

// Running returns the recorded PID and whether that process is alive.
func (f PIDFile) Running() (int, bool) {
	pid, err := f.Read()
	if err != nil {
		return 0, false
	}
	return pid, processAlive(pid)
}
