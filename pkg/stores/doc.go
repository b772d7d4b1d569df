// Package stores provides the persistence layer for load history and
// viewer preferences. It is SQLite-based with WAL mode and embedded
// migrations; mesh content itself is never persisted.
package stores
