package vectorstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/promptforge/promptforge/internal/domain"
)

// MemoryStore is an in-memory Store with lexical similarity scoring. It
// backs tests and local development where no search service is running.
type MemoryStore struct {
	mu     sync.RWMutex
	chunks map[string]domain.DocumentChunk
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{chunks: make(map[string]domain.DocumentChunk)}
}

// AddDocuments indexes chunks, replacing any existing chunk with the same ID.
func (m *MemoryStore) AddDocuments(_ context.Context, chunks []domain.DocumentChunk) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		m.chunks[chunk.ID] = chunk
		ids = append(ids, chunk.ID)
	}
	return ids, nil
}

// Search ranks matching chunks by term overlap with the query.
func (m *MemoryStore) Search(_ context.Context, query string, topK int, filter map[string]string) ([]domain.SearchResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	queryTerms := termSet(query)
	var results []domain.SearchResult
	for _, chunk := range m.chunks {
		if !matchesFilter(chunk, filter) {
			continue
		}
		score := overlapScore(queryTerms, termSet(chunk.Content))
		if score <= 0 {
			continue
		}
		results = append(results, domain.SearchResult{Chunk: chunk, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Delete removes chunks by ID. Unknown IDs are ignored.
func (m *MemoryStore) Delete(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range ids {
		delete(m.chunks, id)
	}
	return nil
}

// DeleteByMetadata removes every chunk matching the filter.
func (m *MemoryStore) DeleteByMetadata(_ context.Context, filter map[string]string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	deleted := 0
	for id, chunk := range m.chunks {
		if matchesFilter(chunk, filter) {
			delete(m.chunks, id)
			deleted++
		}
	}
	return deleted, nil
}

// Count returns the number of indexed chunks.
func (m *MemoryStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks), nil
}

func matchesFilter(chunk domain.DocumentChunk, filter map[string]string) bool {
	for key, want := range filter {
		if chunk.Metadata[key] != want {
			return false
		}
	}
	return true
}

func termSet(text string) map[string]bool {
	terms := make(map[string]bool)
	for _, field := range strings.Fields(strings.ToLower(text)) {
		term := strings.Trim(field, ".,;:!?()[]{}\"'`")
		if len(term) > 2 {
			terms[term] = true
		}
	}
	return terms
}

// overlapScore is the normalized term overlap between query and document,
// in [0,1]. A stand-in for embedding cosine similarity.
func overlapScore(query, doc map[string]bool) float64 {
	if len(query) == 0 || len(doc) == 0 {
		return 0
	}

	shared := 0
	for term := range query {
		if doc[term] {
			shared++
		}
	}
	return float64(shared) / math.Sqrt(float64(len(query))*float64(len(doc)))
}
