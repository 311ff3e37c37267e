package generate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Intent categories produced by the classifier.
const (
	IntentCodeGeneration = "code_generation"
	IntentCodeReview     = "code_review"
	IntentDocumentation  = "documentation"
	IntentDebugging      = "debugging"
	IntentSecurity       = "security_review"
	IntentDesign         = "design"
	IntentAgentBuilding  = "agent_building"
	IntentGeneral        = "general"
)

// Intent is the classified shape of a user request.
type Intent struct {
	Intent     string `json:"intent"`
	Domain     string `json:"domain"`
	Complexity string `json:"complexity"`
	IsAgent    bool   `json:"is_agent"`
}

// DefaultIntent is the fallback when classification fails or is unavailable.
func DefaultIntent() Intent {
	return Intent{Intent: IntentGeneral, Domain: "unknown", Complexity: "medium"}
}

const intentSystemPrompt = `You are an intent classifier for a prompt generation system.
Analyze the user request and classify it into one of these categories:
- code_generation: Writing new code
- code_review: Reviewing or improving existing code
- documentation: Writing docs, README, comments
- debugging: Fixing bugs or errors
- security_review: Security-related tasks
- design: System design, architecture
- agent_building: Creating an AI agent, assistant, or automated system
- general: Other requests

Also identify:
- domain: The technical domain (web, data, ml, devops, ai, etc.)
- complexity: low/medium/high
- is_agent: true if this is about building an AI agent/system, false otherwise

Respond with a single JSON object and nothing else:
{"intent": "<intent>", "domain": "<domain>", "complexity": "<complexity>", "is_agent": <true/false>}`

// Classifier determines request intent via the LLM. Classification is
// advisory: every failure degrades to DefaultIntent rather than failing the
// request.
type Classifier struct {
	llm    LLM
	logger Logger
}

// NewClassifier creates a Classifier. A nil llm disables classification.
func NewClassifier(llm LLM, logger Logger) *Classifier {
	return &Classifier{llm: llm, logger: logger}
}

// Classify returns the intent of a user request. The raw model output is
// repaired before parsing since models wrap JSON in prose or fences.
func (c *Classifier) Classify(ctx context.Context, userRequest string) Intent {
	if c.llm == nil {
		return DefaultIntent()
	}

	raw, err := c.llm.Complete(ctx, intentSystemPrompt, userRequest)
	if err != nil {
		c.logger.LogWarning(ctx, "intent classification failed", map[string]interface{}{
			"error": err.Error(),
		})
		return DefaultIntent()
	}

	intent, err := parseIntent(raw)
	if err != nil {
		c.logger.LogWarning(ctx, "intent response unparseable", map[string]interface{}{
			"error": err.Error(),
		})
		return DefaultIntent()
	}
	return intent
}

func parseIntent(raw string) (Intent, error) {
	repaired, err := jsonrepair.JSONRepair(strings.TrimSpace(raw))
	if err != nil {
		return Intent{}, err
	}

	var intent Intent
	if err := json.Unmarshal([]byte(repaired), &intent); err != nil {
		return Intent{}, err
	}

	intent.Intent = strings.ToLower(strings.TrimSpace(intent.Intent))
	intent.Domain = strings.ToLower(strings.TrimSpace(intent.Domain))
	intent.Complexity = strings.ToLower(strings.TrimSpace(intent.Complexity))
	if intent.Intent == "" {
		intent.Intent = IntentGeneral
	}
	if intent.Domain == "" {
		intent.Domain = "unknown"
	}
	if intent.Complexity == "" {
		intent.Complexity = "medium"
	}
	if intent.Intent == IntentAgentBuilding {
		intent.IsAgent = true
	}
	return intent, nil
}

// codingKeywords mark a request as coding-related.
var codingKeywords = []string{
	"code", "program", "function", "class", "api", "script",
	"implement", "develop", "build", "create", "write",
	"python", "javascript", "java", "typescript", "sql",
	"database", "backend", "frontend", "server", "client",
}

var codingIntents = map[string]bool{
	IntentCodeGeneration: true,
	IntentCodeReview:     true,
	IntentDebugging:      true,
}

var codingDomains = map[string]bool{
	"web": true, "backend": true, "frontend": true,
	"data": true, "ml": true, "devops": true,
}

// IsCodingRequest reports whether a request is coding-related, from either
// keyword presence or the classified intent.
func IsCodingRequest(userRequest string, intent Intent) bool {
	lower := strings.ToLower(userRequest)
	for _, kw := range codingKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return codingIntents[intent.Intent] || codingDomains[intent.Domain]
}
