// Package vectorstore provides the knowledge-base storage backends: an
// HTTP client for a remote similarity-search service and an in-memory
// implementation for development and tests.
package vectorstore

import (
	"context"

	"github.com/promptforge/promptforge/internal/domain"
)

// Store is the full knowledge-base contract used by ingestion and admin
// operations. Retrieval only needs the narrower Search.
type Store interface {
	// AddDocuments indexes chunks and returns their IDs.
	AddDocuments(ctx context.Context, chunks []domain.DocumentChunk) ([]string, error)

	// Search returns the top-k chunks ranked by similarity to the query,
	// restricted to chunks whose metadata matches every filter entry.
	Search(ctx context.Context, query string, topK int, filter map[string]string) ([]domain.SearchResult, error)

	// Delete removes chunks by ID.
	Delete(ctx context.Context, ids []string) error

	// DeleteByMetadata removes every chunk matching the filter and reports
	// how many were removed.
	DeleteByMetadata(ctx context.Context, filter map[string]string) (int, error)

	// Count returns the number of indexed chunks.
	Count(ctx context.Context) (int, error)
}

// Searcher adapts a Store to the retrieval use case's port, mapping document
// categories onto metadata filters.
type Searcher struct {
	store Store
}

// NewSearcher wraps a Store for retrieval.
func NewSearcher(store Store) *Searcher {
	return &Searcher{store: store}
}

// Search implements the retrieval port.
func (s *Searcher) Search(ctx context.Context, query, docType string, k int) ([]domain.SearchResult, error) {
	return s.store.Search(ctx, query, k, map[string]string{"doc_type": docType})
}
