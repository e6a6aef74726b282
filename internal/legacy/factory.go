package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
)

// Backend names a legacy Store implementation.
type Backend string

const (
	// BackendSQLite stores every index in <dir>/legacy.db (default).
	BackendSQLite Backend = "sqlite"

	// BackendBleve stores each index in <dir>/<name>.bleve.
	BackendBleve Backend = "bleve"

	// BackendMemory keeps indexes in process memory.
	BackendMemory Backend = "memory"
)

// ParseBackend validates a backend name. Empty selects sqlite.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendSQLite, nil
	case BackendSQLite, BackendBleve, BackendMemory:
		return b, nil
	default:
		return "", werrors.New(werrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown legacy backend: %s (valid options: sqlite, bleve, memory)", s), nil)
	}
}

// NewStoreWithBackend creates a Store of the given backend rooted at dir.
// An empty dir creates a non-persistent store for every backend.
func NewStoreWithBackend(dir string, backend Backend) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		var path string
		if dir != "" {
			path = filepath.Join(dir, SQLiteFileName)
		}
		return NewSQLiteStore(path)
	case BackendBleve:
		return NewBleveStore(dir)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, werrors.New(werrors.ErrCodeConfigInvalid,
			fmt.Sprintf("unknown legacy backend: %s", backend), nil)
	}
}

// DetectBackend reports which backend already owns dir, or "" when dir holds
// no legacy data.
func DetectBackend(dir string) Backend {
	if info, err := os.Stat(filepath.Join(dir, SQLiteFileName)); err == nil && !info.IsDir() {
		return BackendSQLite
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() && strings.HasSuffix(e.Name(), BleveSuffix) {
			return BackendBleve
		}
	}
	return ""
}

// lockedStore releases the directory lock when the store closes.
type lockedStore struct {
	Store
	lock *DirLock
}

func (s *lockedStore) Close() error {
	return errors.Join(s.Store.Close(), s.lock.Unlock())
}

// Open opens a persistent store at dir under an exclusive directory lock.
// When dir already holds data for another backend, that backend wins so
// existing indexes stay reachable.
func Open(ctx context.Context, dir string, backend Backend) (Store, error) {
	if dir == "" || backend == BackendMemory {
		return NewStoreWithBackend("", backend)
	}

	if detected := DetectBackend(dir); detected != "" && detected != backend {
		slog.Warn("legacy_backend_overridden",
			slog.String("dir", dir),
			slog.String("configured", string(backend)),
			slog.String("detected", string(detected)))
		backend = detected
	}

	lock := NewDirLock(dir)
	if err := lock.Acquire(ctx, werrors.DefaultRetryConfig()); err != nil {
		return nil, err
	}

	store, err := NewStoreWithBackend(dir, backend)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &lockedStore{Store: store, lock: lock}, nil
}
