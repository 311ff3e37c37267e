package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/promptforge/promptforge/internal/domain"
)

// modelPrefixes maps the target model to its system-role opener.
var modelPrefixes = map[domain.TargetModel]string{
	domain.TargetGemini:  "You are a helpful AI assistant powered by Google Gemini.",
	domain.TargetClaude:  "You are Claude, an AI assistant made by Anthropic.",
	domain.TargetGPT:     "You are ChatGPT, a helpful AI assistant by OpenAI.",
	domain.TargetGeneric: "You are a helpful AI assistant.",
}

// styleInstructions maps the prompt style to its response-style paragraph.
var styleInstructions = map[domain.PromptStyle]string{
	domain.StyleConcise: "Be concise and direct. Provide the essential information without " +
		"unnecessary elaboration. Use bullet points where appropriate.",
	domain.StyleDetailed: "Provide comprehensive, detailed responses. Include explanations, " +
		"examples, and relevant context. Structure your response clearly.",
	domain.StyleStepByStep: "Break down your response into clear, numbered steps. Explain each " +
		"step thoroughly before moving to the next. Summarize at the end.",
}

// agentKeywords mark a request as agent-building.
var agentKeywords = []string{
	"agent", "assistant", "bot", "ai system", "automated",
	"planner", "orchestrator", "subagent", "multi-agent",
	"agentic", "autonomous", "workflow engine",
}

// BuildInput carries everything the builder needs for one prompt.
type BuildInput struct {
	UserRequest string
	TargetModel domain.TargetModel
	PromptStyle domain.PromptStyle
	Patterns    []domain.RetrievedDocument
	Skills      []domain.RetrievedDocument
	Guidelines  []domain.RetrievedDocument
	Constraints []string
	Context     string
	IsCoding    bool
}

// Builder assembles structured prompt sections from retrieved content.
// Stateless and safe for concurrent use.
type Builder struct{}

// NewBuilder creates a Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the structured prompt sections for a request. Agent-only
// sections are filled when the request looks like an agent-building task.
func (b *Builder) Build(in BuildInput) domain.PromptSections {
	sections := domain.PromptSections{
		System:             b.buildSystemSection(in.TargetModel, in.PromptStyle),
		Context:            b.buildContextSection(in.Context, in.Patterns),
		Skills:             b.buildSkillsSection(in.Skills),
		SecurityGuardrails: b.buildSecuritySection(in.Guidelines, in.IsCoding),
		UserInstructions:   b.buildUserSection(in.UserRequest),
		Constraints:        b.buildConstraintsSection(in.Constraints, in.PromptStyle),
		OutputFormat:       b.buildOutputSection(),
	}

	if IsAgentRequest(in.UserRequest) {
		sections.Identity = b.buildIdentitySection(in.UserRequest)
		sections.CoreFeatures = b.buildCoreFeaturesSection(in.Patterns)
		sections.DataSchema = b.buildDataSchemaSection()
		sections.DefaultRoles = b.buildDefaultRolesSection()
	}

	return sections
}

// IsAgentRequest reports whether the request describes building an AI agent
// or automated system.
func IsAgentRequest(userRequest string) bool {
	lower := strings.ToLower(userRequest)
	for _, kw := range agentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func (b *Builder) buildSystemSection(model domain.TargetModel, style domain.PromptStyle) string {
	prefix, ok := modelPrefixes[model]
	if !ok {
		prefix = modelPrefixes[domain.TargetGeneric]
	}

	return fmt.Sprintf(`# System Role

%s

## Response Style

%s

## Core Principles

1. **Accuracy**: Provide correct, verified information only
2. **Safety**: Never suggest harmful, unethical, or dangerous actions
3. **Clarity**: Structure responses for easy understanding
4. **Honesty**: Acknowledge limitations and uncertainties
`, prefix, styleInstructions[style])
}

func (b *Builder) buildContextSection(context string, patterns []domain.RetrievedDocument) string {
	parts := []string{"# Context and Background"}

	if context != "" {
		parts = append(parts, fmt.Sprintf("\n## Project Context\n\n%s\n", context))
	}

	if len(patterns) > 0 {
		parts = append(parts, "\n## Relevant Patterns and Templates\n")
		for _, p := range top(patterns, 3) {
			parts = append(parts, fmt.Sprintf("\n### %s\n\n%s\n", p.Title, p.Content))
		}
	}

	return strings.Join(parts, "\n")
}

func (b *Builder) buildSkillsSection(skills []domain.RetrievedDocument) string {
	if len(skills) == 0 {
		return ""
	}

	parts := []string{
		"# Selected Skills\n",
		"The following skills are relevant to this task. Apply them as appropriate:\n",
	}
	for _, skill := range skills {
		parts = append(parts, fmt.Sprintf("\n## %s\n\n%s\n", skill.Title, skill.Content))
	}
	return strings.Join(parts, "\n")
}

func (b *Builder) buildSecuritySection(guidelines []domain.RetrievedDocument, isCoding bool) string {
	parts := []string{"# Security Guardrails\n"}

	parts = append(parts, `
## Mandatory Security Requirements

1. **No Secrets**: Never output API keys, tokens, passwords, or credentials
2. **Input Validation**: Always validate and sanitize user inputs
3. **Safe Defaults**: Use secure defaults for all configurations
4. **Error Handling**: Handle errors gracefully without exposing internals
`)

	if isCoding {
		parts = append(parts, `
## Secure Coding Requirements

1. **Parameterized Queries**: Use parameterized queries to prevent SQL injection
2. **Output Encoding**: Encode output to prevent XSS
3. **Authentication**: Use strong, proven authentication mechanisms
4. **Authorization**: Implement proper access controls
5. **Cryptography**: Use established libraries, never roll your own
6. **Logging**: Log security events but never log sensitive data
`)
	}

	if len(guidelines) > 0 {
		parts = append(parts, "\n## Applicable Security Guidelines\n")
		for _, g := range guidelines {
			parts = append(parts, fmt.Sprintf("\n### %s\n\n%s\n", g.Title, g.Content))
		}
	}

	return strings.Join(parts, "\n")
}

func (b *Builder) buildUserSection(userRequest string) string {
	return fmt.Sprintf("# User Request\n\n%s\n", userRequest)
}

func (b *Builder) buildConstraintsSection(constraints []string, style domain.PromptStyle) string {
	parts := []string{"# Constraints and Requirements\n"}

	switch style {
	case domain.StyleConcise:
		parts = append(parts,
			"- Keep response under 500 words unless more detail is essential",
			"- Prioritize actionable information over explanations",
		)
	case domain.StyleStepByStep:
		parts = append(parts,
			"- Number each step clearly",
			"- Explain the 'why' for each step",
			"- Include a summary at the end",
		)
	}

	if len(constraints) > 0 {
		parts = append(parts, "\n## User-Specified Constraints\n")
		for _, c := range constraints {
			parts = append(parts, "- "+c)
		}
	}

	return strings.Join(parts, "\n")
}

func (b *Builder) buildOutputSection() string {
	return `# Output Format

Structure your response as follows:

1. **Summary**: Brief overview of your response
2. **Main Content**: Detailed response to the request
3. **Assumptions**: List any assumptions made
4. **Next Steps**: Suggested follow-up actions (if applicable)
`
}

// AssemblePlain joins the populated sections into a single prompt, separated
// by horizontal rules. Empty sections are skipped.
func (b *Builder) AssemblePlain(sections domain.PromptSections) string {
	ordered := []string{
		sections.System,
		sections.Identity,
		sections.Context,
		sections.CoreFeatures,
		sections.Skills,
		sections.SecurityGuardrails,
		sections.UserInstructions,
		sections.Constraints,
		sections.OutputFormat,
		sections.DataSchema,
		sections.DefaultRoles,
	}

	parts := make([]string, 0, len(ordered))
	for _, s := range ordered {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n\n---\n\n")
}

// AssembleJSON renders the sections as an indented JSON document. Agent-only
// sections appear only when populated.
func (b *Builder) AssembleJSON(sections domain.PromptSections) (string, error) {
	payload := map[string]interface{}{
		"system":              sections.System,
		"context":             sections.Context,
		"security_guardrails": sections.SecurityGuardrails,
		"user_request":        sections.UserInstructions,
		"constraints":         sections.Constraints,
		"output_format":       sections.OutputFormat,
	}
	if sections.Skills != "" {
		payload["skills"] = sections.Skills
	}
	if sections.Identity != "" {
		payload["identity"] = sections.Identity
	}
	if sections.CoreFeatures != "" {
		payload["core_features"] = sections.CoreFeatures
	}
	if sections.DataSchema != "" {
		payload["data_schema"] = sections.DataSchema
	}
	if sections.DefaultRoles != "" {
		payload["default_roles"] = sections.DefaultRoles
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("assembling json prompt: %w", err)
	}
	return string(out), nil
}

var (
	agentNameREs = []*regexp.Regexp{
		regexp.MustCompile(`(?i)called?\s+"?([A-Za-z]+(?:\s+[A-Za-z]+)*)"?`),
		regexp.MustCompile(`(?i)named?\s+"?([A-Za-z]+(?:\s+[A-Za-z]+)*)"?`),
		regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*)\s+agent`),
		regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*)\s+planner`),
		regexp.MustCompile(`(?i)(\w+(?:\s+\w+)*)\s+assistant`),
	}

	goalPrefixes = []string{"i want to", "i need to", "create", "build", "make", "help me"}

	numberedFeatureRE = regexp.MustCompile(`(?:^|\n)\s*\d+[.)]\s*\*?\*?([^*\n]+)`)
)

func (b *Builder) buildIdentitySection(userRequest string) string {
	return fmt.Sprintf(`# Identity & Purpose

You are **%s**.

## Primary Goal
%s

## User Value
- Transform vague requests into actionable, structured plans
- Provide execution-ready outputs that other systems can consume
- Reduce ambiguity through explicit assumptions and clarifications
`, extractAgentName(userRequest), extractPrimaryGoal(userRequest))
}

func (b *Builder) buildCoreFeaturesSection(patterns []domain.RetrievedDocument) string {
	base := `# Core Features

## 1) Intake & Clarification
- Ask at most 3 clarifying questions ONLY if required to avoid a wrong output
- Otherwise, infer reasonable assumptions and list them explicitly
- Capture: goal, success criteria, constraints, timeline

## 2) Structured Decomposition
- Break down the goal into logical components or phases
- Identify dependencies and ordering constraints
- Mark items as parallelizable yes/no

## 3) Output Generation
- Produce structured output in the required format
- Include validation checklists for each major component
- Provide clear acceptance criteria
`

	if features := extractFeaturesFromPatterns(patterns); features != "" {
		base += "\n## Additional Features from Patterns\n" + features
	}
	return base
}

func (b *Builder) buildDataSchemaSection() string {
	return `# Data Structure (JSON)

Return valid JSON in a code block with this structure:

` + "```json" + `
{
  "goal": "string - the interpreted goal",
  "assumptions": ["array of assumptions made"],
  "components": [
    {
      "id": "C1",
      "title": "string",
      "description": "string",
      "deliverable": "string - concrete output",
      "effort": "S|M|L",
      "dependencies": ["array of component IDs this depends on"],
      "parallelizable": true
    }
  ],
  "execution_order": ["C1", "C2", "C3"],
  "risks": [
    { "description": "string", "mitigation": "string", "severity": "low|med|high" }
  ]
}
` + "```" + `
`
}

func (b *Builder) buildDefaultRolesSection() string {
	return `# Default Roles

If the task involves delegation or multi-agent execution, use these roles:

- **ResearchAgent**: Requirements gathering, constraint discovery, background research
- **DesignAgent**: Architecture, specifications, interface definitions
- **BuildAgent**: Implementation, scaffolding, code generation
- **QAAgent**: Test planning, validation, acceptance testing
- **OpsAgent**: Deployment, automation, monitoring setup
- **WriterAgent**: Documentation, handoff notes, user guides

Assign each component to the most appropriate role.
`
}

func extractAgentName(userRequest string) string {
	for _, re := range agentNameREs {
		if match := re.FindStringSubmatch(userRequest); match != nil {
			name := strings.TrimSpace(match[1])
			if len(name) > 2 {
				return title(name) + " Agent"
			}
		}
	}

	lower := strings.ToLower(userRequest)
	switch {
	case strings.Contains(lower, "plan"):
		return "Task Planner Agent"
	case strings.Contains(lower, "code"):
		return "Code Generation Agent"
	case strings.Contains(lower, "review"):
		return "Review Agent"
	}
	return "AI Assistant Agent"
}

func extractPrimaryGoal(userRequest string) string {
	goal := strings.TrimSpace(userRequest)
	lower := strings.ToLower(goal)
	for _, prefix := range goalPrefixes {
		if strings.HasPrefix(lower, prefix) {
			goal = strings.TrimSpace(goal[len(prefix):])
			break
		}
	}

	if goal == "" {
		return "Accomplish the user's objective effectively"
	}
	return strings.ToUpper(goal[:1]) + goal[1:]
}

func extractFeaturesFromPatterns(patterns []domain.RetrievedDocument) string {
	var features []string
	for _, p := range top(patterns, 2) {
		matches := numberedFeatureRE.FindAllStringSubmatch(p.Content, -1)
		for i, m := range matches {
			if i >= 3 {
				break
			}
			features = append(features, "- "+strings.TrimSpace(m[1]))
		}
	}
	return strings.Join(features, "\n")
}

// title uppercases the first letter of each word.
func title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func top(docs []domain.RetrievedDocument, n int) []domain.RetrievedDocument {
	if len(docs) <= n {
		return docs
	}
	return docs[:n]
}
