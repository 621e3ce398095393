package feedback

import (
	"fmt"
	"strings"

	"github.com/MikeSquared-Agency/mockview/internal/transcript"
)

// SystemInstruction is sent with every feedback generation.
const SystemInstruction = "You are a professional interviewer providing structured feedback. " +
	"You must be honest about incomplete or inadequate responses and not fabricate or assume answers that weren't given. " +
	"Focus on accuracy and truthfulness over being overly positive."

const (
	contextAdequate     = "has adequate responses for evaluation"
	contextInsufficient = "appears to have insufficient responses for a comprehensive evaluation"
)

const promptTemplate = `You are a professional AI interview assessor trained to evaluate mock technical interviews with fairness, structure, and precision.

Your task is to analyze the following mock interview transcript between an AI interviewer and a user.

CRITICAL INSTRUCTIONS:
- Only evaluate questions that the user clearly responded to with substantial, meaningful answers
- Do NOT score or comment on questions where the user gave no meaningful answer, incomplete responses, or responses that are too brief (fewer than %[1]d words or %[2]d characters)
- Do NOT infer, guess, or imagine answers that weren't actually given
- If a response is unclear, fragmented, or doesn't address the question, treat it as "%[3]s"
- Base your total score ONLY on questions that received adequate responses
- If the interview lacks sufficient responses, mention this in your assessment

MINIMUM RESPONSE CRITERIA:
- Response must be at least %[1]d words and %[2]d characters long
- Response must directly address the question asked
- Response must be grammatically coherent and complete
- Response must demonstrate actual knowledge or experience

SCORING GUIDELINES:
%[4]s

Use this format for your response:

1. **Total Score** (0-100) — based **only on adequately answered questions**
2. **Category Scores** (0-10 each):
%[5]s
3. **Strengths** — List 2-5 strong points observed in valid answers (write "%[6]s" if insufficient data)
4. **Areas for Improvement** — List 2-5 suggestions based on actual performance
5. **Final Assessment** — An honest paragraph based on actual responses only
6. **Structured Q&A Feedback** — For each question in the transcript:
   - **Question**: The interview question
   - **User Answer**: ONLY include if the answer meets minimum criteria above. If not adequate, write: "%[7]s"
   - **AI Feedback**:
     * If answered adequately: Specific, constructive comment
     * If not answered adequately: "%[8]s"
   - **Score (0-10)**: Only assign if answer meets minimum criteria, otherwise "%[9]s"

IMPORTANT: Be honest about the quality of responses. If most questions lack adequate responses, reflect this in a lower total score and mention in the final assessment that the interview lacked sufficient depth for proper evaluation.

Additional Context: This interview %[10]s.

Transcript:
%[11]s
`

// BuildPrompt renders the scoring prompt for a normalized transcript.
func BuildPrompt(turns []transcript.NormalizedTurn, hasInsufficientData bool) string {
	note := contextAdequate
	if hasInsufficientData {
		note = contextInsufficient
	}

	return fmt.Sprintf(promptTemplate,
		transcript.MinResponseWords,
		transcript.MinResponseChars,
		NoClearAnswer,
		scoringGuidelines(),
		categoryList(),
		LimitedResponsesMsg,
		PlaceholderAnswer,
		PlaceholderComment,
		NotApplicable,
		note,
		FormatTurns(turns),
	)
}

// FormatTurns renders turns as "- role: content" lines.
func FormatTurns(turns []transcript.NormalizedTurn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("- %s: %s", t.Role, t.Content)
	}
	return strings.Join(lines, "\n")
}

func scoringGuidelines() string {
	lines := make([]string, len(ScoreBands))
	for i, b := range ScoreBands {
		if b.MaxAdequate < 0 {
			lines[i] = fmt.Sprintf("- If %s adequate responses: Score based on quality (%g-%g)", b.responses(), b.MinScore, b.MaxScore)
			continue
		}
		lines[i] = fmt.Sprintf("- If %s adequate responses: Total score should be %g-%g", b.responses(), b.MinScore, b.MaxScore)
	}
	return strings.Join(lines, "\n")
}

func categoryList() string {
	lines := make([]string, len(Categories))
	for i, c := range Categories {
		lines[i] = "   - " + c
	}
	return strings.Join(lines, "\n")
}
