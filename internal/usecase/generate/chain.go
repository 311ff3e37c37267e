// Package generate orchestrates the full prompt generation pipeline:
// validation, intent classification, retrieval, section building, quality
// gating, assembly, and final redaction.
package generate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
	"github.com/promptforge/promptforge/internal/security/injection"
	"github.com/promptforge/promptforge/internal/security/validate"
	"github.com/promptforge/promptforge/internal/usecase/quality"
	"github.com/promptforge/promptforge/internal/usecase/retrieval"
)

// LLM defines the outbound port for model completions.
type LLM interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Logger provides structured logging for the generation use case.
type Logger interface {
	LogWarning(ctx context.Context, message string, fields map[string]interface{})
	LogInfo(ctx context.Context, message string, fields map[string]interface{})
}

// Retriever defines the inbound knowledge-base port.
type Retriever interface {
	RetrieveForIntent(ctx context.Context, query, intent string, isCoding bool) retrieval.Result
}

// Redactor defines the outbound port for secret redaction.
type Redactor interface {
	Redact(text string) string
}

// TokenEstimator counts approximate tokens for response metadata.
type TokenEstimator interface {
	EstimateTokens(text string) int
}

// Request is one prompt generation request after transport decoding.
type Request struct {
	UserRequest  string
	Context      string
	Constraints  []string
	TargetModel  domain.TargetModel
	PromptStyle  domain.PromptStyle
	OutputFormat domain.OutputFormat
}

// Metadata describes how a prompt was produced.
type Metadata struct {
	TargetModel     string          `json:"targetModel"`
	PromptStyle     string          `json:"promptStyle"`
	IsCoding        bool            `json:"isCodingRequest"`
	Intent          Intent          `json:"intent"`
	QualityScore    float64         `json:"qualityScore"`
	RetrievedDocs   RetrievedCounts `json:"retrievedDocs"`
	EstimatedTokens int             `json:"estimatedTokens,omitempty"`
}

// RetrievedCounts reports how many documents each category contributed.
type RetrievedCounts struct {
	Patterns   int `json:"patterns"`
	Skills     int `json:"skills"`
	Guidelines int `json:"guidelines"`
}

// Response is the full result of one generation request.
type Response struct {
	FinalPrompt    string                 `json:"finalPrompt"`
	Assumptions    []string               `json:"assumptions"`
	Warnings       []string               `json:"warnings,omitempty"`
	SafetyChecks   []domain.SafetyCheck   `json:"safetyChecks"`
	Citations      []domain.Citation      `json:"citations"`
	SelectedSkills []domain.SelectedSkill `json:"selectedSkills"`
	Metadata       Metadata               `json:"metadata"`
}

// ValidationError reports a request rejected during input validation.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, ", ")
}

// Deps wires the chain's collaborators. LLM and Tokens are optional: a nil
// LLM disables classification and synthesis, a nil Tokens disables token
// estimates.
type Deps struct {
	Validator *validate.Validator
	Retriever Retriever
	Builder   *Builder
	Gates     *quality.Gates
	Redactor  Redactor
	LLM       LLM
	Tokens    TokenEstimator
	Logger    Logger
}

// Chain runs the generation pipeline end to end.
type Chain struct {
	deps       Deps
	classifier *Classifier
}

// NewChain creates a Chain from its dependencies.
func NewChain(deps Deps) *Chain {
	return &Chain{
		deps:       deps,
		classifier: NewClassifier(deps.LLM, deps.Logger),
	}
}

// Generate produces a prompt for the request. It returns *ValidationError
// when the input is rejected; all downstream failures degrade with warnings
// instead of failing the request.
func (c *Chain) Generate(ctx context.Context, req Request) (*Response, error) {
	var (
		safetyChecks []domain.SafetyCheck
		assumptions  []string
		warnings     []string
	)

	validation := c.deps.Validator.ValidateRequest(req.UserRequest)
	if !validation.IsValid {
		return nil, &ValidationError{Problems: validation.Errors}
	}
	userRequest := validation.SanitizedText
	warnings = append(warnings, validation.Warnings...)

	// Injection in the user request flags the response but never blocks it.
	if detection := injection.Detect(userRequest); detection.IsInjection {
		safetyChecks = append(safetyChecks, domain.SafetyCheck{
			CheckName: "User Input Injection Check",
			Passed:    false,
			Details:   "Potential injection detected: " + detection.Reason,
		})
		c.deps.Logger.LogWarning(ctx, "injection attempt in user request", map[string]interface{}{
			"reason":   detection.Reason,
			"severity": detection.Severity.String(),
		})
	} else {
		safetyChecks = append(safetyChecks, domain.SafetyCheck{
			CheckName: "User Input Injection Check",
			Passed:    true,
			Details:   "No injection patterns detected",
		})
	}

	var constraints []string
	if len(req.Constraints) > 0 {
		constraintValidation := c.deps.Validator.ValidateConstraints(req.Constraints)
		warnings = append(warnings, constraintValidation.Warnings...)
		if constraintValidation.SanitizedText != "" {
			constraints = strings.Split(constraintValidation.SanitizedText, "\n")
		}
	}

	var reqContext string
	if req.Context != "" {
		contextValidation := c.deps.Validator.ValidateContext(req.Context)
		reqContext = contextValidation.SanitizedText
		warnings = append(warnings, contextValidation.Warnings...)
	}

	intent := c.classifier.Classify(ctx, userRequest)
	isCoding := IsCodingRequest(userRequest, intent)

	retrieved := c.deps.Retriever.RetrieveForIntent(ctx, userRequest, intent.Intent, isCoding)
	warnings = append(warnings, retrieved.Warnings...)
	if retrieved.Dropped > 0 {
		safetyChecks = append(safetyChecks, domain.SafetyCheck{
			CheckName: "Retrieved Content Filter",
			Passed:    true,
			Details:   fmt.Sprintf("Filtered %d potentially unsafe documents", retrieved.Dropped),
		})
	}

	sections := c.deps.Builder.Build(BuildInput{
		UserRequest: userRequest,
		TargetModel: req.TargetModel,
		PromptStyle: req.PromptStyle,
		Patterns:    retrieved.Patterns,
		Skills:      retrieved.Skills,
		Guidelines:  retrieved.Guidelines,
		Constraints: constraints,
		Context:     reqContext,
		IsCoding:    isCoding,
	})

	qualityResult := c.deps.Gates.Evaluate(sections, isCoding, intent.IsAgent)
	for _, check := range qualityResult.Checks {
		safetyChecks = append(safetyChecks, domain.SafetyCheck{
			CheckName: "Quality: " + check.Name,
			Passed:    check.Passed,
			Details:   check.Message,
		})
	}
	for i, rec := range qualityResult.Recommendations {
		if i >= 3 {
			break
		}
		assumptions = append(assumptions, "Quality recommendation: "+rec)
	}

	finalPrompt, synthAssumptions := c.assemble(ctx, req, userRequest, sections, retrieved, intent)
	assumptions = append(assumptions, synthAssumptions...)

	finalPrompt = c.deps.Redactor.Redact(finalPrompt)
	safetyChecks = append(safetyChecks, domain.SafetyCheck{
		CheckName: "Secret Redaction",
		Passed:    true,
		Details:   "Applied secret redaction to final output",
	})

	if len(retrieved.Patterns) == 0 {
		assumptions = append(assumptions, "No specific prompt patterns found; using general templates")
	}
	if len(retrieved.Skills) == 0 {
		assumptions = append(assumptions, "No matching skill cards found; using base capabilities")
	}
	if len(retrieved.Guidelines) == 0 && isCoding {
		assumptions = append(assumptions, "Applied default security guidelines for coding tasks")
	}

	metadata := Metadata{
		TargetModel:  string(req.TargetModel),
		PromptStyle:  string(req.PromptStyle),
		IsCoding:     isCoding,
		Intent:       intent,
		QualityScore: qualityResult.OverallScore,
		RetrievedDocs: RetrievedCounts{
			Patterns:   len(retrieved.Patterns),
			Skills:     len(retrieved.Skills),
			Guidelines: len(retrieved.Guidelines),
		},
	}
	if c.deps.Tokens != nil {
		metadata.EstimatedTokens = c.deps.Tokens.EstimateTokens(finalPrompt)
	}

	return &Response{
		FinalPrompt:    finalPrompt,
		Assumptions:    assumptions,
		Warnings:       warnings,
		SafetyChecks:   safetyChecks,
		Citations:      buildCitations(retrieved),
		SelectedSkills: buildSelectedSkills(retrieved.Skills),
		Metadata:       metadata,
	}, nil
}

// assemble renders the final prompt. Agent requests go through LLM
// synthesis, everything else through template assembly; synthesis failures
// fall back to the template.
func (c *Chain) assemble(ctx context.Context, req Request, userRequest string, sections domain.PromptSections, retrieved retrieval.Result, intent Intent) (string, []string) {
	if intent.IsAgent && c.deps.LLM != nil {
		c.deps.Logger.LogInfo(ctx, "agent request detected, using synthesis", map[string]interface{}{
			"intent": intent.Intent,
		})

		synthesized, err := c.deps.LLM.Complete(ctx, synthesisSystemPrompt, synthesisUserPrompt(userRequest, retrieved))
		if err == nil && strings.TrimSpace(synthesized) != "" {
			return synthesized, []string{"Used AI synthesis to generate detailed agent prompt"}
		}
		if err != nil {
			c.deps.Logger.LogWarning(ctx, "synthesis failed, falling back to template", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	if req.OutputFormat == domain.FormatJSON {
		out, err := c.deps.Builder.AssembleJSON(sections)
		if err == nil {
			return out, nil
		}
		c.deps.Logger.LogWarning(ctx, "json assembly failed, falling back to plain", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return c.deps.Builder.AssemblePlain(sections), nil
}

const synthesisSystemPrompt = `You are an expert prompt engineer specializing in AI agent design.

Given a user request and retrieved knowledge, synthesize a COMPLETE, PRODUCTION-READY system prompt for the requested agent.

Your output MUST include ALL of these sections:

1. **IDENTITY & PURPOSE**: Clear agent name, primary goal, user value
2. **CORE FEATURES**: 4-6 numbered capabilities with bullet point details
3. **OUTPUT REQUIREMENTS**: Exact sections the agent must produce (lettered A, B, C...)
4. **DATA SCHEMA**: Complete JSON schema for structured output
5. **VISUAL REPRESENTATION**: Mermaid diagram if relevant (flowchart, graph TD)
6. **TONE & STYLE**: Concise guidelines for response style
7. **DEFAULT ROLES**: If multi-agent, define subagent roles

CRITICAL RULES:
- Be execution-focused and practical
- Every task must have a concrete deliverable (no vague instructions)
- Include acceptance criteria for major outputs
- Prefer parallel execution when safe
- Make outputs machine-parseable where possible

Use the retrieved patterns and skills as inspiration, but produce a COMPLETE prompt that stands alone.`

func synthesisUserPrompt(userRequest string, retrieved retrieval.Result) string {
	return fmt.Sprintf("User Request: %s\n\nRetrieved Context:\n%s\n\nGenerate the complete agent system prompt:",
		userRequest, synthesisContext(retrieved))
}

// synthesisContext condenses retrieved documents into a bounded context
// block for the synthesis call.
func synthesisContext(retrieved retrieval.Result) string {
	var parts []string

	if len(retrieved.Patterns) > 0 {
		parts = append(parts, "## Relevant Prompt Patterns\n")
		for _, p := range top(retrieved.Patterns, 3) {
			parts = append(parts, fmt.Sprintf("### %s\n%s\n", p.Title, clip(p.Content, 500)))
		}
	}
	if len(retrieved.Skills) > 0 {
		parts = append(parts, "\n## Relevant Skill Cards\n")
		for _, s := range top(retrieved.Skills, 3) {
			parts = append(parts, fmt.Sprintf("### %s\n%s\n", s.Title, clip(s.Content, 500)))
		}
	}
	if len(retrieved.Guidelines) > 0 {
		parts = append(parts, "\n## Security Guidelines\n")
		for _, g := range top(retrieved.Guidelines, 2) {
			parts = append(parts, fmt.Sprintf("### %s\n%s\n", g.Title, clip(g.Content, 300)))
		}
	}

	if len(parts) == 0 {
		return "No specific patterns or skills retrieved. Generate a comprehensive agent prompt based on best practices."
	}
	return strings.Join(parts, "\n")
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func buildCitations(retrieved retrieval.Result) []domain.Citation {
	cite := func(docs []domain.RetrievedDocument, kind string) []domain.Citation {
		out := make([]domain.Citation, 0, len(docs))
		for _, doc := range docs {
			out = append(out, domain.Citation{
				DocID:      doc.DocID,
				Title:      doc.Title,
				Section:    doc.Section,
				ReasonUsed: fmt.Sprintf("%s (relevance: %.2f)", kind, doc.RelevanceScore),
			})
		}
		return out
	}

	var citations []domain.Citation
	citations = append(citations, cite(retrieved.Patterns, "Prompt pattern")...)
	citations = append(citations, cite(retrieved.Skills, "Skill card")...)
	citations = append(citations, cite(retrieved.Guidelines, "Security guideline")...)
	return citations
}

var whenToUseRE = regexp.MustCompile(`(?i)when_to_use:\s*(.+?)(?:\n|$)`)

func buildSelectedSkills(skills []domain.RetrievedDocument) []domain.SelectedSkill {
	selected := make([]domain.SelectedSkill, 0, len(skills))
	for _, doc := range skills {
		whenToUse := "When relevant to the current task"
		if m := whenToUseRE.FindStringSubmatch(doc.Content); m != nil {
			whenToUse = strings.TrimSpace(m[1])
		}

		selected = append(selected, domain.SelectedSkill{
			ID:             doc.DocID,
			Name:           doc.Title,
			Description:    clip(doc.Content, 200),
			WhenToUse:      whenToUse,
			RelevanceScore: doc.RelevanceScore,
		})
	}
	return selected
}
