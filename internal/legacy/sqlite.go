package legacy

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// SQLiteFileName is the database file inside a legacy store directory.
const SQLiteFileName = "legacy.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS legacy_index (
	name   TEXT PRIMARY KEY,
	params TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS legacy_entry (
	index_name TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	value      TEXT    NOT NULL,
	entity_id  INTEGER NOT NULL,
	PRIMARY KEY (index_name, key, value, entity_id)
) WITHOUT ROWID;

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// SQLiteStore keeps every legacy index in one SQLite database.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

var _ Store = (*SQLiteStore)(nil)

// validateSQLiteIntegrity checks an existing database before it is opened
// for writing. A missing file is valid.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}
	return nil
}

// NewSQLiteStore opens or creates a store at path. An empty path creates an
// in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		// Unlike a search index, legacy entries cannot be rebuilt from the
		// host, so corruption is reported instead of cleared.
		if err := validateSQLiteIntegrity(path); err != nil {
			slog.Error("legacy_store_corrupted",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil, werrors.New(werrors.ErrCodeCorruptIndex, "legacy store is corrupted", err).
				WithDetail("path", path).
				WithSuggestion("Restore legacy.db from a backup or delete it and repopulate")
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: writers never contend and :memory: stays one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// ForEntities implements Store.
func (s *SQLiteStore) ForEntities(ctx context.Context, name string, params map[string]string) (Index, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("legacy store is closed")
	}

	enc, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	// Concurrent first access races on the primary key; the loser keeps the winner's row.
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO legacy_index (name, params) VALUES (?, ?)`, name, enc)
	if err != nil {
		return nil, storeFailed("create legacy index", err)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		slog.Debug("legacy_index_created", slog.String("name", name))
	}

	var raw string
	if err := s.db.QueryRowContext(ctx,
		`SELECT params FROM legacy_index WHERE name = ?`, name).Scan(&raw); err != nil {
		return nil, storeFailed("load legacy index", err)
	}
	stored, err := decodeParams([]byte(raw))
	if err != nil {
		return nil, storeFailed("load legacy index", err)
	}
	if err := checkParams(name, stored, params); err != nil {
		return nil, err
	}
	return &sqliteIndex{store: s, name: name, params: stored}, nil
}

// Names implements Store.
func (s *SQLiteStore) Names(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("legacy store is closed")
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name FROM legacy_index ORDER BY name`)
	if err != nil {
		return nil, storeFailed("list legacy indexes", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storeFailed("list legacy indexes", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

type sqliteIndex struct {
	store  *SQLiteStore
	name   string
	params map[string]string
}

func (i *sqliteIndex) Name() string { return i.name }

func (i *sqliteIndex) Params() map[string]string { return cloneParams(i.params) }

func (i *sqliteIndex) Add(ctx context.Context, entity index.Entity, key string, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return unsupportedValue(err)
	}
	return i.exec(ctx, "add legacy entry",
		`INSERT OR IGNORE INTO legacy_entry (index_name, key, value, entity_id) VALUES (?, ?, ?, ?)`,
		i.name, key, enc, entity.ID)
}

func (i *sqliteIndex) Remove(ctx context.Context, entity index.Entity, key string, value any) error {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return unsupportedValue(err)
	}
	return i.exec(ctx, "remove legacy entry",
		`DELETE FROM legacy_entry WHERE index_name = ? AND key = ? AND value = ? AND entity_id = ?`,
		i.name, key, enc, entity.ID)
}

// Query buffers matching ids: with a single connection an open cursor would
// block writers for as long as the caller holds the Hits.
func (i *sqliteIndex) Query(ctx context.Context, key string, value any) (index.Hits, error) {
	enc, err := index.EncodeValue(value)
	if err != nil {
		return nil, unsupportedValue(err)
	}

	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	if i.store.closed {
		return nil, fmt.Errorf("legacy store is closed")
	}

	rows, err := i.store.db.QueryContext(ctx,
		`SELECT entity_id FROM legacy_entry WHERE index_name = ? AND key = ? AND value = ? ORDER BY entity_id`,
		i.name, key, enc)
	if err != nil {
		return nil, storeFailed("query legacy index", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storeFailed("query legacy index", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storeFailed("query legacy index", err)
	}
	return index.NewSliceHits(ids), nil
}

func (i *sqliteIndex) Clear(ctx context.Context) error {
	return i.exec(ctx, "clear legacy index", `DELETE FROM legacy_entry WHERE index_name = ?`, i.name)
}

func (i *sqliteIndex) Delete(ctx context.Context) error {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	if i.store.closed {
		return fmt.Errorf("legacy store is closed")
	}

	tx, err := i.store.db.BeginTx(ctx, nil)
	if err != nil {
		return storeFailed("delete legacy index", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM legacy_entry WHERE index_name = ?`, i.name); err != nil {
		return storeFailed("delete legacy index", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM legacy_index WHERE name = ?`, i.name); err != nil {
		return storeFailed("delete legacy index", err)
	}
	if err := tx.Commit(); err != nil {
		return storeFailed("delete legacy index", err)
	}
	return nil
}

func (i *sqliteIndex) exec(ctx context.Context, op, query string, args ...any) error {
	i.store.mu.RLock()
	defer i.store.mu.RUnlock()
	if i.store.closed {
		return fmt.Errorf("legacy store is closed")
	}
	if _, err := i.store.db.ExecContext(ctx, query, args...); err != nil {
		return storeFailed(op, err)
	}
	return nil
}
