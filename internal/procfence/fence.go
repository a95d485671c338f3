// Package procfence provides the cross-process single-writer guard over
// the disk backend's root directory. It serializes disk-backend opens so
// the reinitialize-once corruption recovery path never races two
// processes against the same SQLite file.
package procfence

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Fence is a cross-process advisory lock anchored next to the backend's
// data file.
type Fence struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a fence for the given data directory. The lock file lives at
// <dir>/.dictcore.lock.
func New(dir string) *Fence {
	lockPath := filepath.Join(dir, ".dictcore.lock")
	return &Fence{path: lockPath, flock: flock.New(lockPath)}
}

// Acquire takes the exclusive lock, blocking until available. Called once
// when the disk backend opens.
func (f *Fence) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create fence directory: %w", err)
	}
	if err := f.flock.Lock(); err != nil {
		return fmt.Errorf("acquire process fence: %w", err)
	}
	f.locked = true
	return nil
}

// Reacquire releases and re-takes the lock, used by the backend's
// recoverable-corruption path when it reinitializes its handle.
func (f *Fence) Reacquire() error {
	if err := f.Release(); err != nil {
		return err
	}
	return f.Acquire()
}

// Release drops the lock. Safe to call when not held.
func (f *Fence) Release() error {
	if !f.locked {
		return nil
	}
	if err := f.flock.Unlock(); err != nil {
		return fmt.Errorf("release process fence: %w", err)
	}
	f.locked = false
	return nil
}

// Locked reports whether this process currently holds the fence.
func (f *Fence) Locked() bool { return f.locked }
