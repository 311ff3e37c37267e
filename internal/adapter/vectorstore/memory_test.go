package vectorstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/adapter/vectorstore"
	"github.com/promptforge/promptforge/internal/domain"
)

func seed(t *testing.T, store *vectorstore.MemoryStore) {
	t.Helper()
	_, err := store.AddDocuments(context.Background(), []domain.DocumentChunk{
		{ID: "a", Content: "structured prompt patterns for coding agents", Metadata: map[string]string{"doc_type": domain.DocTypePromptPattern}},
		{ID: "b", Content: "security guideline about input validation", Metadata: map[string]string{"doc_type": domain.DocTypeSecurityGuideline}},
		{ID: "c", Content: "skill card for writing coding tests", Metadata: map[string]string{"doc_type": domain.DocTypeSkillCard}},
	})
	require.NoError(t, err)
}

func TestMemoryStore_Search(t *testing.T) {
	t.Run("filters by metadata", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		results, err := store.Search(context.Background(), "coding patterns", 10,
			map[string]string{"doc_type": domain.DocTypePromptPattern})

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "a", results[0].Chunk.ID)
		assert.Greater(t, results[0].Score, 0.0)
	})

	t.Run("ranks by overlap", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		results, err := store.Search(context.Background(), "coding", 10, nil)

		require.NoError(t, err)
		require.Len(t, results, 2)
	})

	t.Run("respects topK", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		results, err := store.Search(context.Background(), "coding", 1, nil)

		require.NoError(t, err)
		assert.Len(t, results, 1)
	})

	t.Run("no match returns empty", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		results, err := store.Search(context.Background(), "quantum chromodynamics", 10, nil)

		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestMemoryStore_Delete(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		require.NoError(t, store.Delete(context.Background(), []string{"a", "missing"}))

		count, err := store.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("by metadata", func(t *testing.T) {
		store := vectorstore.NewMemoryStore()
		seed(t, store)

		deleted, err := store.DeleteByMetadata(context.Background(),
			map[string]string{"doc_type": domain.DocTypeSkillCard})

		require.NoError(t, err)
		assert.Equal(t, 1, deleted)
	})
}

func TestSearcher(t *testing.T) {
	store := vectorstore.NewMemoryStore()
	seed(t, store)
	searcher := vectorstore.NewSearcher(store)

	results, err := searcher.Search(context.Background(), "input validation", domain.DocTypeSecurityGuideline, 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Chunk.ID)
}
