// Package redact performs regex-based secret detection and redaction.
// Redaction is irreversible: matched spans are replaced with a sentinel
// marker, unlike the annotate-only transform in the injection package.
package redact

import (
	"regexp"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
)

// DefaultReplacement is the sentinel written over every matched secret.
const DefaultReplacement = "[REDACTED]"

// secretRule pairs a compiled pattern with its secret-category label.
// Rules are data: adding a category must not touch any control flow.
type secretRule struct {
	re    *regexp.Regexp
	label string

	// boundary rules capture a guard character on each side of the secret
	// (RE2 has no lookaround); the replacement must preserve groups 1 and 3.
	boundary bool
}

// defaultRules returns the secret pattern catalog. Each rule is matched
// independently, category by category, so overlapping patterns each redact
// their own span.
func defaultRules() []secretRule {
	return []secretRule{
		// Generic key=value / key: value credential pairs.
		{re: regexp.MustCompile(`(?i)(api[_-]?key|apikey)\s*[:=]\s*["']?([a-zA-Z0-9_\-]{20,})["']?`), label: "API_KEY"},
		{re: regexp.MustCompile(`(?i)(secret|token|password|passwd|pwd)\s*[:=]\s*["']?([^\s"'\[\]]{8,})["']?`), label: "SECRET"},

		// Bearer-token headers.
		{re: regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9_\-.]+`), label: "BEARER_TOKEN"},

		// AWS credentials.
		{re: regexp.MustCompile(`(?i)(aws[_-]?access[_-]?key[_-]?id)\s*[:=]\s*["']?([A-Z0-9]{20})["']?`), label: "AWS_ACCESS_KEY"},
		{re: regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([a-zA-Z0-9/+=]{40})["']?`), label: "AWS_SECRET_KEY"},
		{re: regexp.MustCompile(`AKIA[0-9A-Z]{16}`), label: "AWS_KEY_ID"},

		// Google Cloud.
		{re: regexp.MustCompile(`(?i)(google[_-]?api[_-]?key|gcp[_-]?key)\s*[:=]\s*["']?([a-zA-Z0-9_\-]{35,})["']?`), label: "GCP_KEY"},
		{re: regexp.MustCompile(`AIza[0-9A-Za-z_\-]{35}`), label: "GOOGLE_API_KEY"},

		// Azure.
		{re: regexp.MustCompile(`(?i)(azure[_-]?key|azure[_-]?secret)\s*[:=]\s*["']?([a-zA-Z0-9+/=]{40,})["']?`), label: "AZURE_KEY"},

		// PEM private-key headers.
		{re: regexp.MustCompile(`-----BEGIN (?:RSA |OPENSSH |DSA |EC )?PRIVATE KEY-----`), label: "PRIVATE_KEY"},

		// Source-control personal access tokens.
		{re: regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`), label: "GITHUB_TOKEN"},
		{re: regexp.MustCompile(`github_pat_[A-Za-z0-9_]{22,}`), label: "GITHUB_PAT"},

		// Slack tokens.
		{re: regexp.MustCompile(`xox[baprs]-[0-9]{10,}-[0-9]{10,}-[a-zA-Z0-9]{20,}`), label: "SLACK_TOKEN"},

		// JWT structural shape.
		{re: regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), label: "JWT_TOKEN"},

		// Catch-all 32+ hex-char token, guarded so it never matches inside a
		// longer hex run.
		{re: regexp.MustCompile(`(^|[^a-fA-F0-9])([a-fA-F0-9]{32,})($|[^a-fA-F0-9])`), label: "HEX_TOKEN", boundary: true},

		// Environment-variable references whose name implies a secret.
		{re: regexp.MustCompile(`\$\{?(?:API_KEY|SECRET|TOKEN|PASSWORD|CREDENTIALS)[A-Z_]*\}?`), label: "ENV_VAR_REF"},
	}
}

// Redactor scans text for credential-shaped substrings.
type Redactor struct {
	rules       []secretRule
	replacement string
}

// Option customizes a Redactor.
type Option func(*Redactor)

// WithReplacement overrides the sentinel marker.
func WithReplacement(replacement string) Option {
	return func(r *Redactor) {
		if replacement != "" {
			r.replacement = replacement
		}
	}
}

// New creates a Redactor with the default secret catalog.
func New(opts ...Option) *Redactor {
	r := &Redactor{
		rules:       defaultRules(),
		replacement: DefaultReplacement,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Redact replaces every secret-shaped substring with the sentinel marker.
// Empty input is returned unchanged, and redacting already-redacted text is
// a no-op.
func (r *Redactor) Redact(text string) string {
	if text == "" {
		return text
	}
	result := text
	for _, rule := range r.rules {
		result = rule.replace(result, r.replacement)
	}
	return result
}

// RedactDetailed redacts like Redact and additionally reports how many
// matches were found and which categories they belong to.
func (r *Redactor) RedactDetailed(text string) domain.RedactionResult {
	if text == "" {
		return domain.RedactionResult{Text: text}
	}

	result := text
	count := 0
	var types []string
	for _, rule := range r.rules {
		matches := rule.re.FindAllStringIndex(result, -1)
		if len(matches) == 0 {
			continue
		}
		count += len(matches)
		if !contains(types, rule.label) {
			types = append(types, rule.label)
		}
		result = rule.replace(result, r.replacement)
	}

	return domain.RedactionResult{
		Text:           result,
		RedactedCount:  count,
		RedactionTypes: types,
	}
}

// ContainsSecrets reports whether text matches any secret pattern without
// performing redaction.
func (r *Redactor) ContainsSecrets(text string) bool {
	if text == "" {
		return false
	}
	for _, rule := range r.rules {
		if rule.re.MatchString(text) {
			return true
		}
	}
	return false
}

// Mask keeps the first visibleChars characters of a secret and replaces the
// rest with asterisks. Secrets no longer than visibleChars are fully masked.
func Mask(secret string, visibleChars int) string {
	if len(secret) <= visibleChars {
		return strings.Repeat("*", len(secret))
	}
	return secret[:visibleChars] + strings.Repeat("*", len(secret)-visibleChars)
}

func (rule secretRule) replace(text, replacement string) string {
	if !rule.boundary {
		return rule.re.ReplaceAllString(text, replacement)
	}
	// Re-run until stable: boundary guards consume the separator character,
	// so adjacent matches can need a second pass.
	prev := text
	for {
		next := rule.re.ReplaceAllString(prev, "${1}"+replacement+"${3}")
		if next == prev {
			return next
		}
		prev = next
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
