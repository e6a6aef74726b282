package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registered as "sqlite3"

	werrors "github.com/Aman-CERP/indexwrap/internal/errors"
	"github.com/Aman-CERP/indexwrap/pkg/index"
)

// FileName is the catalog database inside the data directory.
const FileName = "catalog.db"

const schema = `
CREATE TABLE IF NOT EXISTS label (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS property_key (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS index_rule (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	kind            INTEGER NOT NULL,
	label_id        INTEGER NOT NULL REFERENCES label(id),
	property_key_id INTEGER NOT NULL REFERENCES property_key(id),
	UNIQUE (kind, label_id, property_key_id)
);

CREATE TABLE IF NOT EXISTS index_population (
	index_id     INTEGER PRIMARY KEY REFERENCES index_rule(id) ON DELETE CASCADE,
	completed_at INTEGER NOT NULL
);
`

// SQLiteCatalog is a Catalog persisted in SQLite.
type SQLiteCatalog struct {
	db *sql.DB
}

var _ index.Catalog = (*SQLiteCatalog)(nil)

// NewSQLiteCatalog opens or creates the catalog at path. An empty path
// creates an in-memory catalog.
func NewSQLiteCatalog(path string) (*SQLiteCatalog, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = "file:" + path + "?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}
	return &SQLiteCatalog{db: db}, nil
}

// Close closes the database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// CreateIndex registers an index rule on label.property, creating the label
// and property-key tokens when needed. An existing identical rule is returned.
func (c *SQLiteCatalog) CreateIndex(ctx context.Context, label, property string) (index.IndexDefinition, error) {
	return c.CreateRule(ctx, index.KindIndex, label, property)
}

// CreateRule registers a schema rule of the given kind.
func (c *SQLiteCatalog) CreateRule(ctx context.Context, kind index.RuleKind, label, property string) (index.IndexDefinition, error) {
	label = strings.TrimSpace(label)
	property = strings.TrimSpace(property)
	if label == "" || property == "" {
		return index.IndexDefinition{}, werrors.ValidationError("label and property must not be empty", nil)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return index.IndexDefinition{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	labelID, err := tokenID(ctx, tx, "label", label)
	if err != nil {
		return index.IndexDefinition{}, err
	}
	propID, err := tokenID(ctx, tx, "property_key", property)
	if err != nil {
		return index.IndexDefinition{}, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO index_rule (kind, label_id, property_key_id) VALUES (?, ?, ?)`,
		int(kind), labelID, propID); err != nil {
		return index.IndexDefinition{}, fmt.Errorf("insert rule: %w", err)
	}

	def := index.IndexDefinition{Kind: kind, LabelID: labelID, PropertyKeyID: propID}
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM index_rule WHERE kind = ? AND label_id = ? AND property_key_id = ?`,
		int(kind), labelID, propID).Scan(&def.ID); err != nil {
		return index.IndexDefinition{}, fmt.Errorf("load rule: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return index.IndexDefinition{}, fmt.Errorf("commit: %w", err)
	}
	return def, nil
}

// tokenID returns the id of name in table, inserting it when absent.
func tokenID(ctx context.Context, tx *sql.Tx, table, name string) (int64, error) {
	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO `+table+` (name) VALUES (?)`, name); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	var id int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM `+table+` WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("load %s: %w", table, err)
	}
	return id, nil
}

// DropIndex removes a rule. Dropping an unknown id wraps index.ErrNotFound.
func (c *SQLiteCatalog) DropIndex(ctx context.Context, id int64) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM index_population WHERE index_id = ?`, id); err != nil {
		return fmt.Errorf("drop population of rule %d: %w", id, err)
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM index_rule WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("drop rule %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("index rule", id)
	}
	return nil
}

// MarkPopulated records that the population of rule id completed
// successfully, so a later process can bring the index online directly.
func (c *SQLiteCatalog) MarkPopulated(ctx context.Context, id int64) error {
	if _, err := c.IndexDefinition(ctx, id); err != nil {
		return err
	}
	if _, err := c.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO index_population (index_id, completed_at) VALUES (?, ?)`,
		id, time.Now().Unix()); err != nil {
		return fmt.Errorf("mark rule %d populated: %w", id, err)
	}
	return nil
}

// ClearPopulated forgets a completed population of rule id. Clearing a rule
// that was never populated is a no-op.
func (c *SQLiteCatalog) ClearPopulated(ctx context.Context, id int64) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM index_population WHERE index_id = ?`, id); err != nil {
		return fmt.Errorf("clear population of rule %d: %w", id, err)
	}
	return nil
}

// Populated reports whether MarkPopulated was called for rule id.
func (c *SQLiteCatalog) Populated(ctx context.Context, id int64) (bool, error) {
	var n int
	if err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM index_population WHERE index_id = ?`, id).Scan(&n); err != nil {
		return false, fmt.Errorf("load population of rule %d: %w", id, err)
	}
	return n > 0, nil
}

// IndexDefinitions implements index.Catalog.
func (c *SQLiteCatalog) IndexDefinitions(ctx context.Context) ([]index.IndexDefinition, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, kind, label_id, property_key_id FROM index_rule ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var defs []index.IndexDefinition
	for rows.Next() {
		var def index.IndexDefinition
		var kind int
		if err := rows.Scan(&def.ID, &kind, &def.LabelID, &def.PropertyKeyID); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		def.Kind = index.RuleKind(kind)
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// IndexDefinition implements index.Catalog.
func (c *SQLiteCatalog) IndexDefinition(ctx context.Context, id int64) (index.IndexDefinition, error) {
	def := index.IndexDefinition{ID: id}
	var kind int
	err := c.db.QueryRowContext(ctx,
		`SELECT kind, label_id, property_key_id FROM index_rule WHERE id = ?`, id).
		Scan(&kind, &def.LabelID, &def.PropertyKeyID)
	if errors.Is(err, sql.ErrNoRows) {
		return index.IndexDefinition{}, notFound("index rule", id)
	}
	if err != nil {
		return index.IndexDefinition{}, fmt.Errorf("load rule %d: %w", id, err)
	}
	def.Kind = index.RuleKind(kind)
	return def, nil
}

// LabelName implements index.Catalog.
func (c *SQLiteCatalog) LabelName(ctx context.Context, labelID int64) (string, error) {
	return c.name(ctx, "label", labelID)
}

// PropertyKeyName implements index.Catalog.
func (c *SQLiteCatalog) PropertyKeyName(ctx context.Context, propertyKeyID int64) (string, error) {
	return c.name(ctx, "property_key", propertyKeyID)
}

func (c *SQLiteCatalog) name(ctx context.Context, table string, id int64) (string, error) {
	var name string
	err := c.db.QueryRowContext(ctx, `SELECT name FROM `+table+` WHERE id = ?`, id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", notFound(strings.ReplaceAll(table, "_", " "), id)
	}
	if err != nil {
		return "", fmt.Errorf("load %s %d: %w", table, id, err)
	}
	return name, nil
}

func notFound(what string, id int64) error {
	return werrors.New(werrors.ErrCodeIndexNotFound,
		fmt.Sprintf("%s %d not found", what, id), index.ErrNotFound)
}
