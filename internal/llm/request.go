package llm

import "strings"

// Request is one structured-generation call.
type Request struct {
	Prompt string
	System string
	Schema *Schema
}

// CleanJSONBlock strips markdown code fences that models sometimes wrap JSON in.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
