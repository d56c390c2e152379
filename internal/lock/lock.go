// Package lock guards the copy-project action against concurrent runs
// with a marker file. Events may arrive while a copy is mid-flight;
// handlers check the lock and skip work instead of racing the copy.
package lock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// ErrHeld is returned by Acquire when another copy is in progress.
var ErrHeld = errors.New("a project copy is already in progress")

// FileLock is a single-holder lock backed by a marker file.
type FileLock struct {
	path string
}

// New creates a lock at the given path. The file is not touched until
// Acquire.
func New(path string) *FileLock {
	return &FileLock{path: path}
}

// Path returns the marker file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire creates the marker file, failing with ErrHeld when it
// already exists. The holder's pid and start time are written into the
// file for operators chasing a stale lock.
func (l *FileLock) Acquire() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrHeld
		}
		return fmt.Errorf("failed to create lock file: %w", err)
	}
	fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
	return f.Close()
}

// Release removes the marker file. Releasing a lock that is not held
// is not an error.
func (l *FileLock) Release() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	return nil
}

// Held reports whether the marker file currently exists.
func (l *FileLock) Held() bool {
	_, err := os.Stat(l.path)
	return err == nil
}
