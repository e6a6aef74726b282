// Package catalog stores schema index rules and the label and property-key
// names they refer to.
//
// SQLiteCatalog is the persistent catalog the CLI uses. Memory is a
// map-backed catalog for tests and embedding. Cached wraps either with an
// LRU of resolved names; rule lookups are never cached so dropped ids report
// not-found immediately.
package catalog
