package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/domain"
	"github.com/meloxl/aws-dynamodb-to-elasticsearch/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.IndexSink = (*Store)(nil)

// Store is a SQLite-backed index sink.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the database at path.
// If path is empty, defaults to ~/.ddb2es/data/index.db.
func NewStore(path string) (*Store, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".ddb2es", "data", "index.db")
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Backfill workers share the store; one writer at a time.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: path,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Collections ====================

// CollectionExists reports whether the collection has been created.
func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections WHERE name = ?", name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying collection: %w", err)
	}
	return n > 0, nil
}

// CreateCollection creates a collection.
// Returns domain.ErrAlreadyExists if it is already present.
func (s *Store) CreateCollection(ctx context.Context, name string, settings driven.CollectionSettings) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, mapping_coerce) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, settings.MappingCoerce)
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("creating collection: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("collection %s: %w", name, domain.ErrAlreadyExists)
	}
	return nil
}

// ==================== Bulk ====================

// Bulk applies every operation inside one transaction and reports an
// outcome per operation. Writing to a collection that does not exist
// creates it with default settings.
func (s *Store) Bulk(ctx context.Context, ops []domain.BulkOperation) (*driven.BulkResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	resp := &driven.BulkResponse{Items: make([]domain.BulkItemResult, 0, len(ops))}
	for _, op := range ops {
		item, err := s.apply(ctx, tx, op)
		if err != nil {
			return nil, err
		}
		resp.Items = append(resp.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return resp, nil
}

func (s *Store) apply(ctx context.Context, tx *sql.Tx, op domain.BulkOperation) (domain.BulkItemResult, error) {
	item := domain.BulkItemResult{ID: op.ID, Action: op.Action}

	switch op.Action {
	case domain.BulkIndex:
		body, err := json.Marshal(op.Body)
		if err != nil {
			item.Status = http.StatusBadRequest
			item.Error = fmt.Sprintf("marshalling document: %v", err)
			return item, nil
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO collections (name) VALUES (?) ON CONFLICT(name) DO NOTHING", op.Collection)
		if err != nil {
			return item, fmt.Errorf("ensuring collection: %w", err)
		}

		existed, err := documentExists(ctx, tx, op.Collection, op.ID)
		if err != nil {
			return item, err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO documents (collection, id, doc_type, body, updated_at)
			VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(collection, id) DO UPDATE SET
				doc_type = excluded.doc_type,
				body = excluded.body,
				updated_at = CURRENT_TIMESTAMP
		`, op.Collection, op.ID, op.DocType, string(body))
		if err != nil {
			return item, fmt.Errorf("indexing document %s: %w", op.ID, err)
		}

		item.Status = http.StatusCreated
		if existed {
			item.Status = http.StatusOK
		}

	case domain.BulkDelete:
		res, err := tx.ExecContext(ctx,
			"DELETE FROM documents WHERE collection = ? AND id = ?", op.Collection, op.ID)
		if err != nil {
			return item, fmt.Errorf("deleting document %s: %w", op.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return item, fmt.Errorf("deleting document %s: %w", op.ID, err)
		}
		item.Status = http.StatusOK
		if n == 0 {
			item.Status = http.StatusNotFound
		}

	default:
		item.Status = http.StatusBadRequest
		item.Error = fmt.Sprintf("unknown action %q", op.Action)
	}

	return item, nil
}

func documentExists(ctx context.Context, tx *sql.Tx, collection, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		"SELECT 1 FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying document %s: %w", id, err)
	}
	return true, nil
}

// ==================== Reads ====================

// Get returns a stored document. Numbers come back as json.Number.
// Returns domain.ErrNotFound if the document does not exist.
func (s *Store) Get(ctx context.Context, collection, id string) (domain.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		"SELECT body FROM documents WHERE collection = ? AND id = ?", collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc domain.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("unmarshalling document: %w", err)
	}
	return doc, nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM documents WHERE collection = ?", collection).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}
