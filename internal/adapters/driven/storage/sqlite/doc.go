// Package sqlite provides a file-backed implementation of driven.IndexSink.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation. Collections map to rows of the
// collections table and documents are stored as JSON bodies keyed by
// (collection, id). It serves dry runs and local development where no
// search cluster is available.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.ddb2es/data/index.db
//
// # Thread Safety
//
// All operations are thread-safe. Each bulk request runs in one transaction
// and SQLite runs in WAL mode.
package sqlite
