package domain

// TargetModel identifies the LLM family a generated prompt is written for.
type TargetModel string

const (
	TargetGemini  TargetModel = "gemini"
	TargetClaude  TargetModel = "claude"
	TargetGPT     TargetModel = "gpt"
	TargetGeneric TargetModel = "generic"
)

// PromptStyle selects the response style the generated prompt asks for.
type PromptStyle string

const (
	StyleConcise    PromptStyle = "concise"
	StyleDetailed   PromptStyle = "detailed"
	StyleStepByStep PromptStyle = "step_by_step"
)

// OutputFormat selects how the final prompt is assembled.
type OutputFormat string

const (
	FormatPlain OutputFormat = "plain"
	FormatJSON  OutputFormat = "json"
)

// PromptSections holds the structured sections of a generated prompt.
// The agent-only sections (Identity through DefaultRoles) stay empty for
// ordinary requests.
type PromptSections struct {
	System             string
	Context            string
	Skills             string
	SecurityGuardrails string
	UserInstructions   string
	Constraints        string
	OutputFormat       string

	Identity     string
	CoreFeatures string
	DataSchema   string
	DefaultRoles string
}

// CoreSections returns the seven sections every prompt may carry, in
// assembly order. Agent-only sections are not included.
func (p PromptSections) CoreSections() []string {
	return []string{
		p.System,
		p.Context,
		p.Skills,
		p.SecurityGuardrails,
		p.UserInstructions,
		p.Constraints,
		p.OutputFormat,
	}
}

// TotalLength returns the combined character length of all sections,
// agent-only sections included.
func (p PromptSections) TotalLength() int {
	total := 0
	for _, s := range p.CoreSections() {
		total += len(s)
	}
	for _, s := range []string{p.Identity, p.CoreFeatures, p.DataSchema, p.DefaultRoles} {
		total += len(s)
	}
	return total
}

// QualityCheck is the result of a single quality-gate check.
type QualityCheck struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // "error", "warning", or "info"
}

// QualityGateResult aggregates all quality-gate checks for one prompt.
// Passed requires every error-severity check to pass and OverallScore to
// reach the configured threshold.
type QualityGateResult struct {
	Passed          bool
	Checks          []QualityCheck
	OverallScore    float64 // fraction of checks passed, in [0,1]
	Recommendations []string
}
