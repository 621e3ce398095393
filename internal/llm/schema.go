// Package llm holds the provider-neutral pieces of structured generation: the
// output schema description, request type, output validation and the Gemini
// provider.
package llm

import (
	"regexp"
	"strings"
	"unicode"
)

// Type is a JSON value type usable in an output schema.
type Type string

const (
	TypeObject  Type = "object"
	TypeArray   Type = "array"
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
)

// Schema describes the shape a model response must have. It is rendered to
// JSON Schema for local validation and prompt embedding, and converted to the
// provider's native schema where one exists.
type Schema struct {
	Type        Type
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Enum        []string
	Nullable    bool
	Minimum     *float64
	Maximum     *float64
	MinItems    *int
	// Placeholders are literal strings accepted in place of a typed value,
	// e.g. "N/A" for a score that could not be assigned. Matching ignores case
	// and surrounding whitespace.
	Placeholders []string
}

// Range returns min and max pointers for use in a Schema literal.
func Range(min, max float64) (*float64, *float64) {
	return &min, &max
}

// AtLeast returns a pointer for Schema.MinItems.
func AtLeast(n int) *int {
	return &n
}

// JSONSchema renders s as a draft-07 JSON Schema document.
func (s *Schema) JSONSchema() map[string]any {
	doc := s.jsonSchema()
	doc["$schema"] = "http://json-schema.org/draft-07/schema#"
	return doc
}

func (s *Schema) jsonSchema() map[string]any {
	typed := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		typed["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		typed["enum"] = s.Enum
	}
	if s.Minimum != nil {
		typed["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		typed["maximum"] = *s.Maximum
	}
	if s.MinItems != nil {
		typed["minItems"] = *s.MinItems
	}
	if s.Items != nil {
		typed["items"] = s.Items.jsonSchema()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.jsonSchema()
		}
		typed["properties"] = props
	}
	if len(s.Required) > 0 {
		typed["required"] = s.Required
	}

	if !s.Nullable && len(s.Placeholders) == 0 {
		return typed
	}
	alts := []any{typed}
	if len(s.Placeholders) > 0 {
		alts = append(alts, map[string]any{
			"type":     "string",
			"pattern":  placeholderPattern(s.Placeholders),
			"examples": s.Placeholders,
		})
	}
	if s.Nullable {
		alts = append(alts, map[string]any{"type": "null"})
	}
	return map[string]any{"anyOf": alts}
}

// placeholderPattern matches any of ps regardless of case. Letters are spelled
// out as character classes so the pattern stays valid ECMA-262.
func placeholderPattern(ps []string) string {
	alts := make([]string, len(ps))
	for i, p := range ps {
		var sb strings.Builder
		for _, r := range p {
			lower, upper := unicode.ToLower(r), unicode.ToUpper(r)
			if lower != upper {
				sb.WriteString("[" + string(upper) + string(lower) + "]")
				continue
			}
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
		alts[i] = sb.String()
	}
	return `^\s*(?:` + strings.Join(alts, "|") + `)\s*$`
}
