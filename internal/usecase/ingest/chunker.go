// Package ingest turns raw documents into indexed knowledge-base chunks.
package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/promptforge/promptforge/internal/domain"
)

// Default chunking parameters. Overlap keeps neighboring chunks sharing
// enough text that a hit near a boundary still carries its context.
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// markdownSeparators split on headers first, then progressively smaller
// units. Order matters: the first separator present in the text wins.
var markdownSeparators = []string{
	"\n## ",
	"\n### ",
	"\n#### ",
	"\n\n",
	"\n",
	". ",
	" ",
	"",
}

// yamlSeparators keep YAML documents and list items intact where possible.
var yamlSeparators = []string{
	"\n---\n",
	"\n- id:",
	"\n\n",
	"\n",
	" ",
	"",
}

var (
	yamlListItemRE = regexp.MustCompile(`(?m)^\s*-\s+\w+:`)
	headerRE       = regexp.MustCompile(`(?m)^#{1,4}\s+(.+)$`)
	yamlIDRE       = regexp.MustCompile(`(?m)^-?\s*id:\s*(\S+)`)
	yamlNameRE     = regexp.MustCompile(`(?m)^\s*name:\s*(.+)$`)
	slugRE         = regexp.MustCompile(`[^a-z0-9]+`)
)

// Chunker splits documents into overlapping chunks sized for embedding,
// choosing separators based on whether the content looks like YAML or
// markdown.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// NewChunker creates a chunker. Zero values fall back to the defaults.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// ChunkDocument splits content into chunks carrying document metadata.
// An empty docID gets a generated one.
func (c *Chunker) ChunkDocument(content, title, docType, version, docID string) []domain.DocumentChunk {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	if docID == "" {
		docID = fmt.Sprintf("%s_%s", docType, shortUUID(8))
	}

	separators := markdownSeparators
	if isYAMLContent(content) {
		separators = yamlSeparators
	}
	texts := c.split(content, separators)

	createdAt := time.Now().UTC().Format(time.RFC3339)
	chunks := make([]domain.DocumentChunk, 0, len(texts))
	for i, text := range texts {
		metadata := map[string]string{
			"doc_id":       docID,
			"title":        title,
			"doc_type":     docType,
			"version":      version,
			"created_at":   createdAt,
			"chunk_index":  strconv.Itoa(i),
			"total_chunks": strconv.Itoa(len(texts)),
		}
		if section := extractSectionName(text); section != "" {
			metadata["section"] = section
		}
		chunks = append(chunks, domain.DocumentChunk{
			ID:       fmt.Sprintf("%s_chunk_%d", docID, i),
			Content:  text,
			Metadata: metadata,
		})
	}
	return chunks
}

// ChunkSkillCard keeps small skill cards as a single chunk so the whole
// card surfaces together at retrieval time. Oversized cards chunk normally.
func (c *Chunker) ChunkSkillCard(content, title, version string) []domain.DocumentChunk {
	if len(content) <= c.chunkSize*3/2 {
		docID := fmt.Sprintf("%s_%s", domain.DocTypeSkillCard, shortUUID(8))
		return []domain.DocumentChunk{{
			ID:      docID + "_chunk_0",
			Content: content,
			Metadata: map[string]string{
				"doc_id":       docID,
				"title":        title,
				"doc_type":     domain.DocTypeSkillCard,
				"version":      version,
				"created_at":   time.Now().UTC().Format(time.RFC3339),
				"chunk_index":  "0",
				"total_chunks": "1",
				"section":      "full",
			},
		}}
	}
	return c.ChunkDocument(content, title, domain.DocTypeSkillCard, version, "")
}

// split recursively divides text using the first separator present, merging
// small pieces back together up to the chunk size with overlap.
func (c *Chunker) split(text string, separators []string) []string {
	sep := ""
	var remaining []string
	for i, s := range separators {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep = s
			remaining = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return c.hardSplit(text)
	}

	parts := splitKeepSeparator(text, sep)
	var final []string
	var small []string
	for _, part := range parts {
		if len(part) < c.chunkSize {
			small = append(small, part)
			continue
		}
		if len(small) > 0 {
			final = append(final, c.merge(small)...)
			small = nil
		}
		if len(remaining) == 0 {
			final = append(final, c.hardSplit(part)...)
		} else {
			final = append(final, c.split(part, remaining)...)
		}
	}
	if len(small) > 0 {
		final = append(final, c.merge(small)...)
	}
	return final
}

// merge packs adjacent small splits into chunks no larger than chunkSize,
// carrying a tail of up to chunkOverlap characters into the next chunk.
func (c *Chunker) merge(splits []string) []string {
	var chunks []string
	var current []string
	total := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.TrimSpace(strings.Join(current, ""))
		if joined != "" {
			chunks = append(chunks, joined)
		}
		// keep the tail as overlap for the next chunk
		for total > c.chunkOverlap && len(current) > 0 {
			total -= len(current[0])
			current = current[1:]
		}
	}

	for _, s := range splits {
		if total+len(s) > c.chunkSize && total > 0 {
			flush()
		}
		current = append(current, s)
		total += len(s)
	}
	flush()
	return chunks
}

// hardSplit cuts text at fixed offsets when no separator applies.
func (c *Chunker) hardSplit(text string) []string {
	var chunks []string
	step := c.chunkSize - c.chunkOverlap
	if step <= 0 {
		step = c.chunkSize
	}
	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(text) {
			break
		}
	}
	return chunks
}

// splitKeepSeparator splits on sep, re-attaching the separator to the front
// of each following part so header markers survive chunking.
func splitKeepSeparator(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isYAMLContent(content string) bool {
	trimmed := strings.TrimSpace(content)
	switch {
	case strings.HasPrefix(trimmed, "---"),
		strings.HasPrefix(trimmed, "- id:"),
		strings.Contains(content, ": |"),
		yamlListItemRE.MatchString(content):
		return true
	}
	return false
}

// extractSectionName pulls a markdown header, YAML id, or name field from
// the chunk so search results can point at a section.
func extractSectionName(text string) string {
	if m := headerRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := yamlIDRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := yamlNameRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// GenerateDocID builds a stable-looking document ID from the type and a
// slug of the title, plus a short random suffix to avoid collisions.
func GenerateDocID(docType, title string) string {
	slug := strings.Trim(slugRE.ReplaceAllString(strings.ToLower(title), "_"), "_")
	if len(slug) > 30 {
		slug = slug[:30]
	}
	return fmt.Sprintf("%s_%s_%s", docType, slug, shortUUID(6))
}

func shortUUID(n int) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:n]
}
