// Package validate enforces size limits and sanitizes user-supplied text
// before it enters the generation pipeline.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/promptforge/promptforge/internal/domain"
)

// Limits configures the validator. Construct one explicitly and inject it;
// the validator holds no ambient state.
type Limits struct {
	MaxRequestBytes int // blocking limit for user requests
	MaxContextBytes int // soft limit for free-form context, truncated beyond
}

// DefaultLimits returns the stock limits: 10 KiB requests, 50 KiB context.
func DefaultLimits() Limits {
	return Limits{
		MaxRequestBytes: 10240,
		MaxContextBytes: 51200,
	}
}

// Validator validates and sanitizes request text, constraint lists, and
// free-form context. All methods are pure and safe for concurrent use.
type Validator struct {
	limits Limits
}

// New creates a Validator. Zero limit fields fall back to the defaults.
func New(limits Limits) *Validator {
	defaults := DefaultLimits()
	if limits.MaxRequestBytes <= 0 {
		limits.MaxRequestBytes = defaults.MaxRequestBytes
	}
	if limits.MaxContextBytes <= 0 {
		limits.MaxContextBytes = defaults.MaxContextBytes
	}
	return &Validator{limits: limits}
}

const (
	maxConstraintLen = 500
	maxConstraints   = 20
	shortRequestLen  = 10
)

// ValidateRequest validates and sanitizes user request text. It fails on
// empty or oversized input; otherwise it sanitizes and succeeds, warning
// when sanitization removed significant content or the result is very
// short.
func (v *Validator) ValidateRequest(text string) domain.ValidationResult {
	if strings.TrimSpace(text) == "" {
		return domain.ValidationResult{
			Errors: []string{"user request cannot be empty"},
		}
	}

	if len(text) > v.limits.MaxRequestBytes {
		return domain.ValidationResult{
			Errors: []string{fmt.Sprintf("request exceeds maximum size of %d bytes", v.limits.MaxRequestBytes)},
		}
	}

	sanitized := Sanitize(text)

	var warnings []string
	if len(sanitized) < len(text)/2 {
		warnings = append(warnings, "significant portion of input was removed during sanitization")
	}
	if len(strings.TrimSpace(sanitized)) < shortRequestLen {
		warnings = append(warnings, "request is very short, may produce generic results")
	}

	return domain.ValidationResult{
		IsValid:       true,
		SanitizedText: sanitized,
		Warnings:      warnings,
	}
}

// ValidateConstraints sanitizes a constraint list. It always succeeds:
// overlong constraints are truncated with a warning, blank entries are
// skipped with a warning, and the survivors are joined with newlines.
func (v *Validator) ValidateConstraints(constraints []string) domain.ValidationResult {
	if len(constraints) == 0 {
		return domain.ValidationResult{IsValid: true}
	}

	var warnings []string
	if len(constraints) > maxConstraints {
		warnings = append(warnings, "large number of constraints may reduce prompt quality")
	}

	sanitized := make([]string, 0, len(constraints))
	for i, constraint := range constraints {
		if strings.TrimSpace(constraint) == "" {
			warnings = append(warnings, fmt.Sprintf("constraint %d is blank, skipping", i))
			continue
		}
		if len(constraint) > maxConstraintLen {
			warnings = append(warnings, fmt.Sprintf("constraint %d is very long, truncating", i))
			constraint = truncateUTF8(constraint, maxConstraintLen)
		}
		if s := strings.TrimSpace(Sanitize(constraint)); s != "" {
			sanitized = append(sanitized, s)
		}
	}

	return domain.ValidationResult{
		IsValid:       true,
		SanitizedText: strings.Join(sanitized, "\n"),
		Warnings:      warnings,
	}
}

// ValidateContext sanitizes optional free-form context. It always succeeds,
// truncating to the configured maximum with a warning when exceeded.
func (v *Validator) ValidateContext(context string) domain.ValidationResult {
	if context == "" {
		return domain.ValidationResult{IsValid: true}
	}

	var warnings []string
	if len(context) > v.limits.MaxContextBytes {
		warnings = append(warnings, fmt.Sprintf("context truncated to %d bytes", v.limits.MaxContextBytes))
		context = truncateUTF8(context, v.limits.MaxContextBytes)
	}

	return domain.ValidationResult{
		IsValid:       true,
		SanitizedText: Sanitize(context),
		Warnings:      warnings,
	}
}

var (
	excessiveWhitespaceRE = regexp.MustCompile(`[ \t]{10,}`)
	excessiveNewlinesRE   = regexp.MustCompile(`\n{5,}`)
)

// Sanitize normalizes text for safe downstream use: NFC Unicode
// normalization, removal of control and binary-garbage characters (tab,
// newline, and carriage return survive), collapsing of excessive
// whitespace, and trimming. Deterministic and idempotent.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	result := norm.NFC.String(text)

	// Drop C0 controls (except \t \n \r), DEL, and the C1 range.
	result = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return r
		case r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f):
			return -1
		default:
			return r
		}
	}, result)

	result = excessiveWhitespaceRE.ReplaceAllString(result, "    ")
	result = excessiveNewlinesRE.ReplaceAllString(result, "\n\n\n")

	// NUL bytes are already dropped above; removing them again keeps the
	// guarantee even if the character table changes.
	result = strings.ReplaceAll(result, "\x00", "")

	return strings.TrimSpace(result)
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := s[:n]
	// Walk back over a partial multi-byte sequence.
	for len(cut) > 0 && cut[len(cut)-1]&0xC0 == 0x80 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
