// Package database provides the SQLite key-value store that persists the
// analysis cache.
//
// The store holds a single metadata table of text keys and values. The
// database uses WAL mode and is created on first open.
package database
