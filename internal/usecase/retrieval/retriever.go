// Package retrieval searches the knowledge base and filters the results
// through injection screening before they reach prompt assembly.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/security/injection"
)

// Searcher defines the outbound port for vector similarity search.
type Searcher interface {
	// Search returns the top-k chunks of the given document type ranked by
	// similarity to the query.
	Search(ctx context.Context, query, docType string, k int) ([]domain.SearchResult, error)
}

// Logger provides structured logging for the retrieval use case.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Result bundles the filtered documents from one retrieval pass. Warnings
// describe documents that were dropped or flagged; DroppedCount counts
// drops only.
type Result struct {
	Patterns   []domain.RetrievedDocument
	Skills     []domain.RetrievedDocument
	Guidelines []domain.RetrievedDocument
	Warnings   []string
	Dropped    int
}

// All returns every retrieved document across categories.
func (r Result) All() []domain.RetrievedDocument {
	out := make([]domain.RetrievedDocument, 0, len(r.Patterns)+len(r.Skills)+len(r.Guidelines))
	out = append(out, r.Patterns...)
	out = append(out, r.Skills...)
	out = append(out, r.Guidelines...)
	return out
}

// Per-category retrieval depths, tuned before each pass: coding requests
// pull more guidelines, security intents more still, template and pattern
// intents more patterns.
const (
	defaultPatternsK   = 5
	defaultSkillsK     = 5
	defaultGuidelinesK = 3
)

// Retriever performs filtered knowledge-base retrieval. A search failure in
// one category degrades that category to empty rather than failing the pass.
type Retriever struct {
	searcher Searcher
	logger   Logger
	minScore float64
}

// New creates a Retriever. minScore below or equal to zero disables the
// relevance floor.
func New(searcher Searcher, logger Logger, minScore float64) *Retriever {
	return &Retriever{searcher: searcher, logger: logger, minScore: minScore}
}

// RetrieveForIntent retrieves with category depths tuned to the classified
// intent and the coding flag. Unrecognized intents use the defaults.
func (r *Retriever) RetrieveForIntent(ctx context.Context, query, intent string, isCoding bool) Result {
	patternsK := defaultPatternsK
	skillsK := defaultSkillsK
	guidelinesK := defaultGuidelinesK

	if isCoding {
		guidelinesK = 6
		skillsK = 4
	}

	lower := strings.ToLower(intent)
	if strings.Contains(lower, "security") || strings.Contains(lower, "secure") {
		guidelinesK = 8
		skillsK = 3
	}
	if strings.Contains(lower, "template") || strings.Contains(lower, "pattern") {
		patternsK = 8
		skillsK = 3
	}

	return r.Retrieve(ctx, query, patternsK, skillsK, guidelinesK)
}

// Retrieve searches each document category and screens every result for
// injection before returning it.
func (r *Retriever) Retrieve(ctx context.Context, query string, patternsK, skillsK, guidelinesK int) Result {
	var result Result

	result.Patterns = r.searchCategory(ctx, query, domain.DocTypePromptPattern, patternsK, &result)
	result.Skills = r.searchCategory(ctx, query, domain.DocTypeSkillCard, skillsK, &result)
	result.Guidelines = r.searchCategory(ctx, query, domain.DocTypeSecurityGuideline, guidelinesK, &result)

	return result
}

func (r *Retriever) searchCategory(ctx context.Context, query, docType string, k int, result *Result) []domain.RetrievedDocument {
	if k <= 0 {
		return nil
	}

	matches, err := r.searcher.Search(ctx, query, docType, k)
	if err != nil {
		r.logger.LogWarning(ctx, "knowledge base search failed, continuing without category", map[string]interface{}{
			"docType": docType,
			"error":   err.Error(),
		})
		result.Warnings = append(result.Warnings, fmt.Sprintf("retrieval unavailable for %s", docType))
		return nil
	}

	docs := make([]domain.RetrievedDocument, 0, len(matches))
	for _, match := range matches {
		if r.minScore > 0 && match.Score < r.minScore {
			continue
		}
		doc, kept := r.screen(ctx, match, docType, result)
		if kept {
			docs = append(docs, doc)
		}
	}
	return docs
}

// screen decides the fate of one search match: drop on critical or high
// injection severity, annotate and sanitize on low or medium, pass through
// untouched when clean.
func (r *Retriever) screen(ctx context.Context, match domain.SearchResult, docType string, result *Result) (domain.RetrievedDocument, bool) {
	doc := domain.RetrievedDocument{
		DocID:          metadataOr(match.Chunk, "doc_id", match.Chunk.ID),
		Title:          metadataOr(match.Chunk, "title", match.Chunk.ID),
		Content:        match.Chunk.Content,
		DocType:        docType,
		Section:        match.Chunk.Metadata["section"],
		RelevanceScore: match.Score,
		IsSafe:         true,
	}

	detection := injection.Detect(match.Chunk.Content)
	if !detection.IsInjection {
		return doc, true
	}

	if detection.Severity >= domain.SeverityHigh {
		r.logger.LogWarning(ctx, "dropped retrieved document", map[string]interface{}{
			"docId":    doc.DocID,
			"docType":  docType,
			"severity": detection.Severity.String(),
			"reason":   detection.Reason,
		})
		result.Warnings = append(result.Warnings, fmt.Sprintf("excluded document %q: %s", doc.Title, detection.Reason))
		result.Dropped++
		return domain.RetrievedDocument{}, false
	}

	doc.Content = injection.SanitizeForContext(match.Chunk.Content)
	doc.IsSafe = false
	doc.InjectionWarning = detection.Reason
	result.Warnings = append(result.Warnings, fmt.Sprintf("flagged document %q: %s", doc.Title, detection.Reason))
	return doc, true
}

func metadataOr(chunk domain.DocumentChunk, key, fallback string) string {
	if v := chunk.Metadata[key]; v != "" {
		return v
	}
	return fallback
}
