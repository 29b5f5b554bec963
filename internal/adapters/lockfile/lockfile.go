// Package lockfile provides a cross-process ports.Locker backed by flock(2).
package lockfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// DefaultRetryDelay is how often a blocked Lock polls the lock file.
const DefaultRetryDelay = 200 * time.Millisecond

var ErrLocked = errors.New("another owl process holds the lock")

type Locker struct {
	path  string
	retry time.Duration
}

func New(path string) *Locker {
	return &Locker{path: path, retry: DefaultRetryDelay}
}

func (l *Locker) Path() string { return l.path }

// Lock waits for the file lock until ctx is done. Without a deadline on ctx
// it fails right away when the lock is held.
func (l *Locker) Lock(ctx context.Context) (func() error, error) {
	if dir := filepath.Dir(l.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock dir: %w", err)
		}
	}
	fl := flock.New(l.path)

	var (
		ok  bool
		err error
	)
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		ok, err = fl.TryLockContext(ctx, l.retry)
	} else {
		ok, err = fl.TryLock()
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrLocked, err)
		}
		return nil, fmt.Errorf("acquire lock %s: %w", l.path, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return fl.Unlock, nil
}
