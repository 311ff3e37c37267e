// Package quality evaluates assembled prompts against a fixed battery of
// gate checks before they are returned to the caller.
package quality

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
)

// Check severities. Error-severity failures block the gate; warning and
// info failures only lower the score.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Thresholds tunes the gate battery. The zero value is replaced by
// DefaultThresholds in New.
type Thresholds struct {
	MinSystemLength int
	MinTotalLength  int
	MinAgentLength  int
	PassScore       float64
}

// DefaultThresholds returns the stock gate thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinSystemLength: 100,
		MinTotalLength:  200,
		MinAgentLength:  1000,
		PassScore:       0.7,
	}
}

// Gates validates generated prompts. Stateless and safe for concurrent use.
type Gates struct {
	t Thresholds
}

// New creates a Gates instance. Zero threshold fields fall back to the
// defaults.
func New(t Thresholds) *Gates {
	d := DefaultThresholds()
	if t.MinSystemLength <= 0 {
		t.MinSystemLength = d.MinSystemLength
	}
	if t.MinTotalLength <= 0 {
		t.MinTotalLength = d.MinTotalLength
	}
	if t.MinAgentLength <= 0 {
		t.MinAgentLength = d.MinAgentLength
	}
	if t.PassScore <= 0 {
		t.PassScore = d.PassScore
	}
	return &Gates{t: t}
}

// Evaluate runs every gate check against the prompt sections. The prompt
// passes when all error-severity checks pass and the overall score reaches
// the pass threshold.
func (g *Gates) Evaluate(sections domain.PromptSections, isCoding, isAgent bool) domain.QualityGateResult {
	checks := []domain.QualityCheck{
		g.checkRoleObjective(sections),
		g.checkConstraints(sections),
		g.checkIORequirements(sections),
		g.checkSecuritySection(sections, isCoding),
		g.checkLength(sections, isAgent),
		g.checkStructure(sections),
	}
	if isAgent {
		checks = append(checks,
			g.checkIdentity(sections),
			g.checkDataSchema(sections),
			g.checkCoreFeatures(sections),
		)
	}

	passed := 0
	criticalOK := true
	var recommendations []string
	for _, c := range checks {
		if c.Passed {
			passed++
			continue
		}
		if c.Severity == SeverityError {
			criticalOK = false
		}
		recommendations = append(recommendations, fmt.Sprintf("[%s] %s: %s", strings.ToUpper(c.Severity), c.Name, c.Message))
	}
	score := float64(passed) / float64(len(checks))

	return domain.QualityGateResult{
		Passed:          criticalOK && score >= g.t.PassScore,
		Checks:          checks,
		OverallScore:    score,
		Recommendations: recommendations,
	}
}

func (g *Gates) checkRoleObjective(s domain.PromptSections) domain.QualityCheck {
	hasRole := len(s.System) >= g.t.MinSystemLength
	hasObjective := strings.Contains(strings.ToLower(s.UserInstructions), "request")

	switch {
	case hasRole && hasObjective:
		return domain.QualityCheck{Name: "Role & Objective", Passed: true, Message: "Clear role and objective defined", Severity: SeverityError}
	case hasRole:
		return domain.QualityCheck{Name: "Role & Objective", Passed: false, Message: "Role defined but objective unclear", Severity: SeverityWarning}
	default:
		return domain.QualityCheck{Name: "Role & Objective", Passed: false, Message: "Missing clear role or objective", Severity: SeverityError}
	}
}

var constraintIndicatorRE = regexp.MustCompile(`(?i)must|should|do not|avoid|require`)

func (g *Gates) checkConstraints(s domain.PromptSections) domain.QualityCheck {
	if len(s.Constraints) > 50 && constraintIndicatorRE.MatchString(s.Constraints) {
		return domain.QualityCheck{Name: "Constraints", Passed: true, Message: "Constraints clearly defined", Severity: SeverityWarning}
	}
	return domain.QualityCheck{Name: "Constraints", Passed: false, Message: "Consider adding more specific constraints", Severity: SeverityWarning}
}

func (g *Gates) checkIORequirements(s domain.PromptSections) domain.QualityCheck {
	if len(s.OutputFormat) > 50 {
		return domain.QualityCheck{Name: "I/O Requirements", Passed: true, Message: "Output format specified", Severity: SeverityWarning}
	}
	return domain.QualityCheck{Name: "I/O Requirements", Passed: false, Message: "Output format should be more specific", Severity: SeverityWarning}
}

var (
	safetyKeywords = []string{"security", "safe", "validation", "sanitize", "protect"}
	codingKeywords = []string{"injection", "xss", "authentication", "authorization"}
)

func (g *Gates) checkSecuritySection(s domain.PromptSections, isCoding bool) domain.QualityCheck {
	security := strings.ToLower(s.SecurityGuardrails)
	hasSecurity := len(security) > 100

	if isCoding {
		switch {
		case hasSecurity && containsAny(security, codingKeywords):
			return domain.QualityCheck{Name: "Security Guardrails", Passed: true, Message: "Security guidelines include coding-specific rules", Severity: SeverityError}
		case hasSecurity:
			return domain.QualityCheck{Name: "Security Guardrails", Passed: true, Message: "Basic security present; consider adding coding-specific rules", Severity: SeverityWarning}
		default:
			return domain.QualityCheck{Name: "Security Guardrails", Passed: false, Message: "Coding request requires security guardrails", Severity: SeverityError}
		}
	}

	if hasSecurity && containsAny(security, safetyKeywords) {
		return domain.QualityCheck{Name: "Security Guardrails", Passed: true, Message: "Security guardrails present", Severity: SeverityWarning}
	}
	return domain.QualityCheck{Name: "Security Guardrails", Passed: false, Message: "Consider adding security guardrails", Severity: SeverityWarning}
}

func (g *Gates) checkLength(s domain.PromptSections, isAgent bool) domain.QualityCheck {
	total := s.TotalLength()
	min := g.t.MinTotalLength
	if isAgent {
		min = g.t.MinAgentLength
	}

	if total >= min {
		return domain.QualityCheck{Name: "Prompt Length", Passed: true, Message: fmt.Sprintf("Prompt length adequate (%d chars)", total), Severity: SeverityInfo}
	}
	return domain.QualityCheck{Name: "Prompt Length", Passed: false, Message: fmt.Sprintf("Prompt may be too short (%d chars, min: %d)", total, min), Severity: SeverityWarning}
}

func (g *Gates) checkStructure(s domain.PromptSections) domain.QualityCheck {
	nonEmpty := 0
	for _, section := range s.CoreSections() {
		if strings.TrimSpace(section) != "" {
			nonEmpty++
		}
	}

	switch {
	case nonEmpty >= 5:
		return domain.QualityCheck{Name: "Structure", Passed: true, Message: fmt.Sprintf("Well-structured with %d sections", nonEmpty), Severity: SeverityInfo}
	case nonEmpty >= 3:
		return domain.QualityCheck{Name: "Structure", Passed: true, Message: fmt.Sprintf("Adequate structure with %d sections", nonEmpty), Severity: SeverityInfo}
	default:
		return domain.QualityCheck{Name: "Structure", Passed: false, Message: fmt.Sprintf("Only %d sections - consider adding more structure", nonEmpty), Severity: SeverityWarning}
	}
}

var identityKeywords = []string{"you are", "agent", "assistant", "purpose", "goal"}

func (g *Gates) checkIdentity(s domain.PromptSections) domain.QualityCheck {
	identity := strings.ToLower(s.Identity)

	switch {
	case len(identity) >= 50 && containsAny(identity, identityKeywords):
		return domain.QualityCheck{Name: "Agent Identity", Passed: true, Message: "Clear agent identity defined", Severity: SeverityError}
	case len(identity) >= 50:
		return domain.QualityCheck{Name: "Agent Identity", Passed: false, Message: "Identity section present but may lack clear purpose", Severity: SeverityWarning}
	default:
		return domain.QualityCheck{Name: "Agent Identity", Passed: false, Message: "Agent prompts must have a clear identity section", Severity: SeverityError}
	}
}

func (g *Gates) checkDataSchema(s domain.PromptSections) domain.QualityCheck {
	hasSchema := len(s.DataSchema) >= 100
	hasJSON := strings.Contains(strings.ToLower(s.DataSchema), "json") || strings.Contains(s.DataSchema, "{")

	switch {
	case hasSchema && hasJSON:
		return domain.QualityCheck{Name: "Data Schema", Passed: true, Message: "Data schema with JSON structure defined", Severity: SeverityWarning}
	case hasSchema:
		return domain.QualityCheck{Name: "Data Schema", Passed: false, Message: "Data schema present but may lack JSON structure", Severity: SeverityWarning}
	default:
		return domain.QualityCheck{Name: "Data Schema", Passed: false, Message: "Agent prompts should include a data schema for structured output", Severity: SeverityWarning}
	}
}

var numberedFeatureRE = regexp.MustCompile(`\d+[.)]|##\s*\d+`)

func (g *Gates) checkCoreFeatures(s domain.PromptSections) domain.QualityCheck {
	hasFeatures := len(s.CoreFeatures) >= 100
	hasNumbered := numberedFeatureRE.MatchString(s.CoreFeatures)

	switch {
	case hasFeatures && hasNumbered:
		return domain.QualityCheck{Name: "Core Features", Passed: true, Message: "Core features clearly enumerated", Severity: SeverityWarning}
	case hasFeatures:
		return domain.QualityCheck{Name: "Core Features", Passed: false, Message: "Core features present but should be numbered", Severity: SeverityWarning}
	default:
		return domain.QualityCheck{Name: "Core Features", Passed: false, Message: "Agent prompts should have numbered core features", Severity: SeverityWarning}
	}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
