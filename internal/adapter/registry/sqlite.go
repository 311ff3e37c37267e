// Package registry tracks ingested documents in SQLite so admin operations
// can list and remove them without querying the search index.
package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/promptforge/promptforge/internal/domain"
)

// Store is the SQLite-backed document registry.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the registry at the given path. Use
// ":memory:" for an in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return s, nil
}

func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		doc_type TEXT NOT NULL,
		version TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		chunk_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_documents_type ON documents(doc_type);
	CREATE INDEX IF NOT EXISTS idx_documents_created ON documents(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Register records an ingested document, replacing any previous entry with
// the same ID.
func (s *Store) Register(ctx context.Context, info domain.DocumentInfo) error {
	query := `
		INSERT OR REPLACE INTO documents (doc_id, title, doc_type, version, created_at, chunk_count)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := time.Now().UTC()
	if info.CreatedAt != "" {
		if parsed, err := time.Parse(time.RFC3339, info.CreatedAt); err == nil {
			createdAt = parsed
		}
	}

	_, err := s.db.ExecContext(ctx, query,
		info.DocID,
		info.Title,
		info.DocType,
		info.Version,
		createdAt.Unix(),
		info.ChunkCount,
	)
	if err != nil {
		return fmt.Errorf("failed to register document: %w", err)
	}
	return nil
}

// List returns registered documents, newest first, optionally filtered by
// type.
func (s *Store) List(ctx context.Context, docType string, limit int) ([]domain.DocumentInfo, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT doc_id, title, doc_type, version, created_at, chunk_count
		FROM documents
	`
	args := []interface{}{}
	if docType != "" {
		query += " WHERE doc_type = ?"
		args = append(args, docType)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentInfo
	for rows.Next() {
		var doc domain.DocumentInfo
		var createdAt int64
		if err := rows.Scan(&doc.DocID, &doc.Title, &doc.DocType, &doc.Version, &createdAt, &doc.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		doc.CreatedAt = time.Unix(createdAt, 0).UTC().Format(time.RFC3339)
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Get returns a single registered document.
func (s *Store) Get(ctx context.Context, docID string) (domain.DocumentInfo, error) {
	query := `
		SELECT doc_id, title, doc_type, version, created_at, chunk_count
		FROM documents WHERE doc_id = ?
	`

	var doc domain.DocumentInfo
	var createdAt int64
	err := s.db.QueryRowContext(ctx, query, docID).Scan(
		&doc.DocID, &doc.Title, &doc.DocType, &doc.Version, &createdAt, &doc.ChunkCount,
	)
	if err == sql.ErrNoRows {
		return domain.DocumentInfo{}, fmt.Errorf("document %s not found", docID)
	}
	if err != nil {
		return domain.DocumentInfo{}, fmt.Errorf("failed to get document: %w", err)
	}
	doc.CreatedAt = time.Unix(createdAt, 0).UTC().Format(time.RFC3339)
	return doc, nil
}

// Delete removes a document from the registry. Deleting an unknown ID is
// not an error; it reports false.
func (s *Store) Delete(ctx context.Context, docID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE doc_id = ?", docID)
	if err != nil {
		return false, fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
