// Package static provides a canned completion provider for offline
// development and tests.
package static

import (
	"context"
	"strings"
)

const defaultIntent = `{"intent": "general", "domain": "unknown", "complexity": "medium", "is_agent": false}`

const defaultSynthesis = `# Identity & Purpose

You are **Static Agent**, a placeholder agent produced without a live model.

## Core Features

1. Echo the request back in a structured plan.
2. List explicit assumptions.
3. Produce machine-parseable output.
`

// Provider implements the generation use case's LLM port with fixed
// responses. It never fails.
type Provider struct {
	intentResponse    string
	synthesisResponse string
}

// NewProvider constructs a static Provider with default responses.
func NewProvider() *Provider {
	return &Provider{
		intentResponse:    defaultIntent,
		synthesisResponse: defaultSynthesis,
	}
}

// WithIntentResponse overrides the canned intent classification.
func (p *Provider) WithIntentResponse(response string) *Provider {
	p.intentResponse = response
	return p
}

// WithSynthesisResponse overrides the canned synthesis output.
func (p *Provider) WithSynthesisResponse(response string) *Provider {
	p.synthesisResponse = response
	return p
}

// Complete returns the canned response matching the request kind. Intent
// classification prompts are recognized by their system message.
func (p *Provider) Complete(_ context.Context, system, _ string) (string, error) {
	if strings.Contains(system, "intent classifier") {
		return p.intentResponse, nil
	}
	return p.synthesisResponse, nil
}
