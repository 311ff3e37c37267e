package domain

// Document categories stored in the knowledge base.
const (
	DocTypePromptPattern     = "prompt_pattern"
	DocTypeSkillCard         = "skill_card"
	DocTypeSecurityGuideline = "security_guideline"
)

// InjectionDetection is the result of scanning one text span for prompt
// injection. It is produced fresh per scan and never mutated.
type InjectionDetection struct {
	IsInjection    bool
	Severity       Severity
	PatternMatched string // the triggering substring, empty when IsInjection is false
	Reason         string // human-readable cause, empty when IsInjection is false
	OriginalText   string // the scanned input, unmodified
}

// RedactionResult reports the outcome of a detailed redaction pass.
type RedactionResult struct {
	Text           string
	RedactedCount  int
	RedactionTypes []string // distinct secret-category labels, in match order
}

// ValidationResult is the outcome of validating one piece of user input.
// When IsValid is false, SanitizedText must not be used as trusted input.
type ValidationResult struct {
	IsValid       bool
	SanitizedText string
	Errors        []string
	Warnings      []string
}

// DocumentChunk is the unit stored in and retrieved from the vector index.
type DocumentChunk struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// SearchResult is one ranked match from a vector similarity search.
type SearchResult struct {
	Chunk DocumentChunk
	Score float64
}

// RetrievedDocument is a knowledge-base snippet surfaced to the prompt
// assembler. Created by the retrieval filter from a raw search match and
// never mutated afterwards.
type RetrievedDocument struct {
	DocID            string
	Title            string
	Content          string // possibly sanitized
	DocType          string
	Section          string // optional
	RelevanceScore   float64
	IsSafe           bool
	InjectionWarning string // set when the document was kept but flagged
}

// DocumentInfo describes an ingested document as tracked by the registry.
type DocumentInfo struct {
	DocID      string
	Title      string
	DocType    string
	Version    string
	CreatedAt  string
	ChunkCount int
}

// Citation records why a retrieved document was included in the output.
type Citation struct {
	DocID      string `json:"docId"`
	Title      string `json:"title"`
	Section    string `json:"section,omitempty"`
	ReasonUsed string `json:"reasonUsed"`
}

// SelectedSkill is a skill card chosen for inclusion in the prompt.
type SelectedSkill struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	WhenToUse      string  `json:"whenToUse"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// SafetyCheck records one safety or quality check performed on a request.
type SafetyCheck struct {
	CheckName string `json:"checkName"`
	Passed    bool   `json:"passed"`
	Details   string `json:"details,omitempty"`
}
