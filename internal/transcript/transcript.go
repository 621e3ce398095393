// Package transcript parses flattened voice-call transcripts and classifies
// how much of the candidate's speech is usable for scoring.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// Adequacy thresholds. The prompt builder renders these same values, so the
// model and the local classifier never disagree about what "adequate" means.
const (
	MinResponseChars     = 10
	MinResponseWords     = 3
	MinAdequateResponses = 2
)

// Roles emitted by the voice agent.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
	RoleUnknown   = "unknown"
)

// Turn is one utterance captured during a call.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NormalizedTurn is a parsed transcript line with its adequacy verdict.
type NormalizedTurn struct {
	Role       string `json:"role"`
	Content    string `json:"content"`
	IsAdequate bool   `json:"is_adequate"`
}

// Normalized is the result of parsing one transcript.
type Normalized struct {
	Turns                 []NormalizedTurn
	AdequateUserResponses int
	HasInsufficientData   bool
}

// Normalize parses a newline-delimited "role: content" transcript. It never
// fails: lines without a role prefix are attributed to RoleUnknown.
func Normalize(raw string) Normalized {
	var out Normalized
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		turn := parseLine(line)
		if turn.Role == RoleUser && turn.IsAdequate {
			out.AdequateUserResponses++
		}
		out.Turns = append(out.Turns, turn)
	}
	out.HasInsufficientData = out.AdequateUserResponses < MinAdequateResponses
	return out
}

func parseLine(line string) NormalizedTurn {
	role, content, found := strings.Cut(line, ":")
	role = strings.TrimSpace(role)
	content = strings.TrimSpace(content)
	if !found {
		role, content = RoleUnknown, strings.TrimSpace(line)
	}
	if role == "" {
		role = RoleUnknown
	}

	adequate := true
	if role == RoleUser {
		adequate = IsAdequate(content)
	}
	return NormalizedTurn{Role: role, Content: content, IsAdequate: adequate}
}

// IsAdequate reports whether a user answer is long enough to be scored. Both
// the character and the word threshold must be met.
func IsAdequate(content string) bool {
	content = strings.TrimSpace(content)
	return utf8.RuneCountInString(content) >= MinResponseChars &&
		len(strings.Fields(content)) >= MinResponseWords
}

// Flatten renders turns in the "role: content" line format consumed by
// Normalize. Runs of whitespace, line breaks included, collapse to one space so
// each turn stays on a single line. Turns with no content are skipped.
func Flatten(turns []Turn) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		content := singleLine(t.Content)
		if content == "" {
			continue
		}
		role := singleLine(t.Role)
		if role == "" {
			role = RoleUnknown
		}
		lines = append(lines, role+": "+content)
	}
	return strings.Join(lines, "\n")
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
