package legacy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
)

// LockFileName is created inside a legacy store directory while it is open.
const LockFileName = ".legacy.lock"

// DirLock keeps a second process from opening the same legacy store.
type DirLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewDirLock creates a lock for dir. Nothing is acquired yet.
func NewDirLock(dir string) *DirLock {
	path := filepath.Join(dir, LockFileName)
	return &DirLock{path: path, flock: flock.New(path)}
}

// TryLock acquires the lock without blocking. A lock held elsewhere yields a
// retryable ERR_202_STORE_LOCKED.
func (l *DirLock) TryLock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return werrors.New(werrors.ErrCodeStoreLocked, "legacy store is in use by another process", nil).
			WithDetail("lock", l.path)
	}
	l.locked = true
	return nil
}

// Acquire retries TryLock with backoff until cfg is exhausted.
func (l *DirLock) Acquire(ctx context.Context, cfg werrors.RetryConfig) error {
	return werrors.Retry(ctx, cfg, l.TryLock)
}

// Unlock releases the lock. Unlocking an unheld lock is a no-op.
func (l *DirLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *DirLock) Path() string { return l.path }

// IsLocked reports whether this DirLock holds the lock.
func (l *DirLock) IsLocked() bool { return l.locked }
