// Package injection detects prompt-injection attempts with a ranked table of
// heuristic patterns and offers a non-destructive neutralization transform
// for retrieved content.
package injection

import (
	"regexp"

	"github.com/promptforge/promptforge/internal/domain"
)

// rule pairs a compiled pattern with its severity and human-readable reason.
// Order matters only for Detect's first-match-wins contract: override and
// exfiltration patterns come first.
type rule struct {
	re       *regexp.Regexp
	severity domain.Severity
	reason   string
}

var rules = []rule{
	// Direct instruction override attempts.
	{regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions?`), domain.SeverityCritical, "Attempts to override system instructions"},
	{regexp.MustCompile(`(?i)forget\s+(all\s+)?previous\s+(instructions?|context)`), domain.SeverityCritical, "Attempts to clear context"},
	{regexp.MustCompile(`(?i)disregard\s+(all\s+)?(?:previous|above|prior)`), domain.SeverityCritical, "Attempts to disregard instructions"},
	{regexp.MustCompile(`(?i)override\s+(?:system|safety|security)`), domain.SeverityCritical, "Attempts to override safety measures"},

	// Data exfiltration attempts.
	{regexp.MustCompile(`(?i)(?:output|print|show|display|reveal|expose)\s+(?:all\s+)?(?:secrets?|api[_\s]?keys?|tokens?|passwords?|credentials?)`), domain.SeverityCritical, "Attempts to exfiltrate secrets"},
	{regexp.MustCompile(`(?i)(?:what|show|tell)\s+(?:are?\s+)?(?:your|the|system)\s+(?:secrets?|credentials?|api[_\s]?keys?)`), domain.SeverityCritical, "Attempts to reveal credentials"},
	{regexp.MustCompile(`(?i)(?:list|enumerate|dump)\s+(?:all\s+)?(?:env(?:ironment)?|config(?:uration)?)\s*(?:variables?)?`), domain.SeverityCritical, "Attempts to dump environment"},

	// Role hijacking. Anchored at line starts: retrieved chunks rarely begin
	// at the document's first line.
	{regexp.MustCompile(`(?im)^\s*system\s*:`), domain.SeverityHigh, "Attempts to inject system role"},
	{regexp.MustCompile(`(?im)^\s*assistant\s*:`), domain.SeverityHigh, "Attempts to inject assistant role"},
	{regexp.MustCompile(`(?im)^\s*user\s*:`), domain.SeverityHigh, "Attempts to inject user role"},
	{regexp.MustCompile(`(?i)\[system\]|\[assistant\]|\[user\]`), domain.SeverityHigh, "Role injection via brackets"},
	{regexp.MustCompile(`(?i)<\s*system\s*>|<\s*assistant\s*>|<\s*user\s*>`), domain.SeverityHigh, "Role injection via XML tags"},

	// Policy manipulation.
	{regexp.MustCompile(`(?i)new\s+(?:policy|rule|instruction)\s*:`), domain.SeverityHigh, "Attempts to define new policies"},
	{regexp.MustCompile(`(?i)(?:updated?|revised?|changed?)\s+(?:policy|instructions?)`), domain.SeverityHigh, "Claims policy has changed"},
	{regexp.MustCompile(`(?i)admin(?:istrator)?\s+mode`), domain.SeverityHigh, "Attempts to activate admin mode"},
	{regexp.MustCompile(`(?i)developer\s+mode|dev\s+mode`), domain.SeverityHigh, "Attempts to activate developer mode"},

	// Jailbreak phrasing.
	{regexp.MustCompile(`(?i)\bdan\b|do\s+anything\s+now`), domain.SeverityHigh, "DAN jailbreak attempt"},
	{regexp.MustCompile(`(?i)pretend\s+(?:you\s+are|to\s+be)\s+(?:an?\s+)?(?:unrestricted|uncensored|evil)`), domain.SeverityHigh, "Roleplay jailbreak attempt"},
	{regexp.MustCompile(`(?i)act\s+as\s+(?:if\s+)?(?:you\s+have\s+)?no\s+(?:restrictions?|limits?)`), domain.SeverityHigh, "Restriction removal attempt"},

	// Encoded instruction attempts.
	{regexp.MustCompile(`(?i)base64\s*:\s*[A-Za-z0-9+/=]{20,}`), domain.SeverityMedium, "Potentially encoded instructions (base64)"},
	{regexp.MustCompile(`(?i)hex\s*:\s*[0-9a-fA-F]{20,}`), domain.SeverityMedium, "Potentially encoded instructions (hex)"},

	// Prompt delimiter manipulation.
	{regexp.MustCompile("(?i)```\\s*(?:system|instruction|prompt)"), domain.SeverityMedium, "Attempts to use code blocks for injection"},
	{regexp.MustCompile(`(?i)---+\s*(?:new\s+)?(?:system|instructions?)`), domain.SeverityMedium, "Attempts to use separators for injection"},

	// Indirect injection markers.
	{regexp.MustCompile(`(?i)when\s+(?:you|the\s+ai)\s+(?:read|see|process)\s+this`), domain.SeverityMedium, "Indirect injection marker"},
	{regexp.MustCompile(`(?i)hidden\s+instruction`), domain.SeverityMedium, "Hidden instruction marker"},
}

// Detect scans text and returns the first matching pattern in priority
// order. A negative result is returned when nothing matches or the input is
// empty.
func Detect(text string) domain.InjectionDetection {
	if text == "" {
		return domain.InjectionDetection{OriginalText: text}
	}

	for _, r := range rules {
		if match := r.re.FindString(text); match != "" {
			return domain.InjectionDetection{
				IsInjection:    true,
				Severity:       r.severity,
				PatternMatched: match,
				Reason:         r.reason,
				OriginalText:   text,
			}
		}
	}

	return domain.InjectionDetection{OriginalText: text}
}

// DetectAll returns every match from every pattern category, for aggregate
// scoring.
func DetectAll(text string) []domain.InjectionDetection {
	if text == "" {
		return nil
	}

	var detections []domain.InjectionDetection
	for _, r := range rules {
		for _, match := range r.re.FindAllString(text, -1) {
			detections = append(detections, domain.InjectionDetection{
				IsInjection:    true,
				Severity:       r.severity,
				PatternMatched: match,
				Reason:         r.reason,
				OriginalText:   text,
			})
		}
	}
	return detections
}

var (
	roleMarkerRE = regexp.MustCompile(`(?i)(^|\n)(system|assistant|user)\s*:`)

	overrideREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(ignore\s+(?:all\s+)?previous\s+instructions?)`),
		regexp.MustCompile(`(?i)(forget\s+(?:all\s+)?previous)`),
		regexp.MustCompile(`(?i)(disregard\s+(?:all\s+)?(?:previous|above))`),
	}
)

// SanitizeForContext neutralizes retrieved text so it can be re-inserted
// into a prompt without being interpreted as an instruction. The transform
// is deliberately non-destructive: role markers and override phrases are
// wrapped in annotations rather than deleted, so the content stays
// inspectable and auditable.
func SanitizeForContext(text string) string {
	if text == "" {
		return text
	}

	result := roleMarkerRE.ReplaceAllString(text, `${1}[ROLE_MARKER: "${2}"]:`)
	for _, re := range overrideREs {
		result = re.ReplaceAllString(result, `[BLOCKED: "${1}"]`)
	}
	return result
}

// SeverityScore collapses multiple detections into a 0-100 score: the
// maximum severity weight, not a sum, so one critical finding saturates it.
func SeverityScore(detections []domain.InjectionDetection) int {
	max := 0
	for _, d := range detections {
		if w := d.Severity.Weight(); w > max {
			max = w
		}
	}
	return max
}
