// Package legacy adapts an older key/value index store to the index
// provider's populator and accessor surface.
//
// A legacy Index stores (entity, key, value) triples with set semantics and
// answers exact-match queries. Three Store backends exist:
//
//   - sqlite (default): one legacy.db file, pure-Go SQLite with WAL
//   - bleve: one keyword-mapped Bleve index per legacy index
//   - memory: roaring bitmaps per key/value, nothing persisted
//
// Adapter wraps one Index for one property key and tracks the
// Populating/Online state the host sees.
package legacy
