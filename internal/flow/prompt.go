package flow

import (
	"strings"

	"github.com/sgpatel/ai-chat-api-assistant/internal/openapi"
)

// PromptFor builds the template question for a parameter. Underscores in
// the name become spaces so "due_date" reads as "due date"; the description,
// when present, is appended in parentheses.
func PromptFor(p openapi.ParameterInfo) string {
	var b strings.Builder
	b.WriteString("Please provide the ")
	b.WriteString(strings.ReplaceAll(p.Name, "_", " "))
	if p.Description != "" {
		b.WriteString(" (")
		b.WriteString(p.Description)
		b.WriteString(")")
	}
	b.WriteString(":")
	return b.String()
}
