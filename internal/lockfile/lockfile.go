// Package lockfile guards a project directory against concurrent pipeline
// runs. The three stage caches assume a single writer; two runs over the
// same directory would silently clobber each other's saves.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrLocked is returned by Acquire when another run holds the lock.
var ErrLocked = errors.New("project directory is locked by another run")

// Lock is a held exclusive lock on a project directory.
type Lock struct {
	path string
}

// Acquire creates the lock file with O_EXCL, recording the holder's pid.
// When the file already exists the error wraps ErrLocked and names the
// recorded holder; if that run is known to be dead the operator removes
// the file by hand.
func Acquire(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w (pid %s, remove %s if that run is gone)",
				ErrLocked, holderPID(path), path)
		}
		return nil, fmt.Errorf("failed to create lock file: %w", err)
	}

	_, werr := fmt.Fprintf(f, "%d\n", os.Getpid())
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write lock file: %w", errors.Join(werr, cerr))
	}

	return &Lock{path: path}, nil
}

// Release removes the lock file. Releasing twice is harmless.
func (l *Lock) Release() error {
	if l == nil || l.path == "" {
		return nil
	}
	err := os.Remove(l.path)
	l.path = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// holderPID best-effort reads the pid recorded in an existing lock file.
func holderPID(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return "unknown"
	}
	pid := strings.TrimSpace(string(data))
	if _, err := strconv.Atoi(pid); err != nil {
		return "unknown"
	}
	return pid
}
