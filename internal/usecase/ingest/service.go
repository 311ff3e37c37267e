package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/security/injection"
	"github.com/promptforge/promptforge/internal/security/validate"
)

// MaxDocumentBytes bounds ingested document size. Knowledge-base documents
// run larger than user requests, so this is independent of request limits.
const MaxDocumentBytes = 204800

// ErrNotFound is returned when a document ID matches nothing.
var ErrNotFound = errors.New("document not found")

// ValidationError reports a document rejected before ingestion.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid document: " + strings.Join(e.Problems, ", ")
}

// Store is the vector index the service writes chunks to.
type Store interface {
	AddDocuments(ctx context.Context, chunks []domain.DocumentChunk) ([]string, error)
	DeleteByMetadata(ctx context.Context, filter map[string]string) (int, error)
	Count(ctx context.Context) (int, error)
}

// Registry records ingested documents for listing and bookkeeping.
type Registry interface {
	Register(ctx context.Context, info domain.DocumentInfo) error
	List(ctx context.Context, docType string, limit int) ([]domain.DocumentInfo, error)
	Delete(ctx context.Context, docID string) (bool, error)
}

// Logger is the service's structured logging port.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Request describes one document to ingest.
type Request struct {
	Title   string
	DocType string
	Content string
	Version string
}

// Result reports a completed ingestion.
type Result struct {
	DocID      string
	ChunkCount int
	Message    string
}

// Stats summarizes the knowledge base contents.
type Stats struct {
	TotalDocuments int
	TotalChunks    int
	ByType         map[string]int
}

// Deps wires the service's collaborators. Registry is optional: without it
// ingestion still works, but listings come back empty.
type Deps struct {
	Store    Store
	Registry Registry
	Chunker  *Chunker
	Logger   Logger
}

// Service validates, chunks, and indexes knowledge-base documents.
type Service struct {
	store    Store
	registry Registry
	chunker  *Chunker
	logger   Logger
}

// NewService creates an ingestion service. A nil Chunker gets defaults.
func NewService(deps Deps) *Service {
	chunker := deps.Chunker
	if chunker == nil {
		chunker = NewChunker(0, 0)
	}
	return &Service{
		store:    deps.Store,
		registry: deps.Registry,
		chunker:  chunker,
		logger:   deps.Logger,
	}
}

var validDocTypes = map[string]bool{
	domain.DocTypePromptPattern:     true,
	domain.DocTypeSkillCard:         true,
	domain.DocTypeSecurityGuideline: true,
}

// Ingest validates the document, scans it for injection attempts (logged,
// never blocking), chunks it, and writes the chunks to the vector store.
func (s *Service) Ingest(ctx context.Context, req Request) (Result, error) {
	var problems []string
	if strings.TrimSpace(req.Title) == "" {
		problems = append(problems, "title cannot be empty")
	}
	if !validDocTypes[req.DocType] {
		problems = append(problems, fmt.Sprintf("doc_type must be one of: %s, %s, %s",
			domain.DocTypePromptPattern, domain.DocTypeSkillCard, domain.DocTypeSecurityGuideline))
	}
	if strings.TrimSpace(req.Content) == "" {
		problems = append(problems, "content cannot be empty")
	}
	if len(req.Content) > MaxDocumentBytes {
		problems = append(problems, fmt.Sprintf("content exceeds maximum size of %d bytes", MaxDocumentBytes))
	}
	if len(problems) > 0 {
		return Result{}, &ValidationError{Problems: problems}
	}

	content := validate.Sanitize(req.Content)

	if det := injection.Detect(content); det.IsInjection {
		s.logger.LogWarning(ctx, "potential injection in ingested document", map[string]interface{}{
			"title":    req.Title,
			"reason":   det.Reason,
			"severity": det.Severity.String(),
		})
	}

	version := req.Version
	if version == "" {
		version = "1.0"
	}

	docID := GenerateDocID(req.DocType, req.Title)
	chunks := s.chunker.ChunkDocument(content, req.Title, req.DocType, version, docID)
	if len(chunks) == 0 {
		return Result{}, &ValidationError{Problems: []string{"document produced no valid chunks"}}
	}

	ids, err := s.store.AddDocuments(ctx, chunks)
	if err != nil {
		return Result{}, fmt.Errorf("indexing document %q: %w", req.Title, err)
	}

	if s.registry != nil {
		info := domain.DocumentInfo{
			DocID:      docID,
			Title:      req.Title,
			DocType:    req.DocType,
			Version:    version,
			CreatedAt:  chunks[0].Metadata["created_at"],
			ChunkCount: len(ids),
		}
		if err := s.registry.Register(ctx, info); err != nil {
			s.logger.LogWarning(ctx, "failed to register document", map[string]interface{}{
				"doc_id": docID,
				"error":  err.Error(),
			})
		}
	}

	s.logger.LogInfo(ctx, "document ingested", map[string]interface{}{
		"doc_id":   docID,
		"title":    req.Title,
		"doc_type": req.DocType,
		"chunks":   len(ids),
	})

	return Result{
		DocID:      docID,
		ChunkCount: len(ids),
		Message:    fmt.Sprintf("successfully ingested %q with %d chunks", req.Title, len(ids)),
	}, nil
}

// List returns registered documents, optionally filtered by type.
func (s *Service) List(ctx context.Context, docType string, limit int) ([]domain.DocumentInfo, error) {
	if s.registry == nil {
		return nil, nil
	}
	return s.registry.List(ctx, docType, limit)
}

// Delete removes a document's chunks from the index and its registry entry.
// It reports how many chunks were removed.
func (s *Service) Delete(ctx context.Context, docID string) (int, error) {
	deleted, err := s.store.DeleteByMetadata(ctx, map[string]string{"doc_id": docID})
	if err != nil {
		return 0, fmt.Errorf("deleting document %s: %w", docID, err)
	}
	if deleted == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, docID)
	}

	if s.registry != nil {
		if _, err := s.registry.Delete(ctx, docID); err != nil {
			s.logger.LogWarning(ctx, "failed to remove registry entry", map[string]interface{}{
				"doc_id": docID,
				"error":  err.Error(),
			})
		}
	}

	s.logger.LogInfo(ctx, "document deleted", map[string]interface{}{
		"doc_id": docID,
		"chunks": deleted,
	})
	return deleted, nil
}

// Stats reports document and chunk counts by type.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("counting chunks: %w", err)
	}

	stats := Stats{TotalChunks: total, ByType: map[string]int{}}
	if s.registry != nil {
		docs, err := s.registry.List(ctx, "", 1000)
		if err != nil {
			return Stats{}, fmt.Errorf("listing documents: %w", err)
		}
		stats.TotalDocuments = len(docs)
		for _, d := range docs {
			stats.ByType[d.DocType]++
		}
	}
	return stats, nil
}
