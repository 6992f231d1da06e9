// Package lock provides the exclusive cross-process write lock that
// serializes every mutating planz command touching the same store.
//
// The lock is an advisory flock(2) on a file next to the database. The OS
// drops it when the holding process exits, so a crashed holder never leaves
// the store wedged. flock does not serialize goroutines of one process that
// share a lock path reliably, so a per-path mutex is taken first.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
)

// ErrNotHeld is returned by Release when the lock is not held.
var ErrNotHeld = errors.New("lock not held")

// pathMu provides per-path mutexes for goroutines of the same process.
var pathMu sync.Map // map[string]*sync.Mutex

func mutexFor(path string) *sync.Mutex {
	mu, _ := pathMu.LoadOrStore(path, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// FileLock is an exclusive advisory lock on a single lock file.
// A FileLock must not be shared between goroutines; create one per writer.
type FileLock struct {
	path string
	mu   *sync.Mutex
	fl   *flock.Flock
	held bool
}

// New returns an unacquired lock on path. The file is created on Acquire.
func New(path string) *FileLock {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return &FileLock{
		path: abs,
		mu:   mutexFor(abs),
		fl:   flock.New(abs),
	}
}

// Path returns the absolute lock file path.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire blocks until the exclusive lock is held. There is no timeout.
func (l *FileLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("lock: ensure directory for %s: %w", l.path, err)
	}
	l.mu.Lock()
	if err := l.fl.Lock(); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("lock: acquire %s: %w", l.path, err)
	}
	l.held = true
	return nil
}

// Release drops the lock. It returns ErrNotHeld if Acquire did not succeed.
func (l *FileLock) Release() error {
	if !l.held {
		return ErrNotHeld
	}
	l.held = false
	defer l.mu.Unlock()
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("lock: release %s: %w", l.path, err)
	}
	return nil
}

// Held reports whether this FileLock currently holds the lock.
func (l *FileLock) Held() bool {
	return l.held
}
