// Package feedback turns an interview transcript into a scored, structured
// feedback report and persists it.
package feedback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category names the model must score.
const (
	CategoryCommunication = "Communication Skills"
	CategoryTechnical     = "Technical Knowledge"
	CategoryProblemSolve  = "Problem-Solving"
	CategoryCultureFit    = "Cultural & Role Fit"
	CategoryConfidence    = "Confidence & Clarity"
)

// Categories lists the scored categories in report order.
var Categories = []string{
	CategoryCommunication,
	CategoryTechnical,
	CategoryProblemSolve,
	CategoryCultureFit,
	CategoryConfidence,
}

// Placeholders written in place of inadequate answers.
const (
	NotApplicable       = "N/A"
	PlaceholderAnswer   = "Response too brief or unclear"
	PlaceholderComment  = "No clear answer provided — question skipped"
	NoClearAnswer       = "No clear answer provided"
	LimitedResponsesMsg = "Limited responses provided"
)

// Feedback is the persisted assessment of one interview.
type Feedback struct {
	ID                    string             `json:"id"`
	InterviewID           string             `json:"interviewId"`
	UserID                string             `json:"userId"`
	TotalScore            float64            `json:"totalScore"`
	CategoryScores        []CategoryScore    `json:"categoryScores"`
	Strengths             []string           `json:"strengths"`
	AreasForImprovement   []string           `json:"areasForImprovement"`
	FinalAssessment       string             `json:"finalAssessment"`
	Questions             []QuestionFeedback `json:"questions"`
	CreatedAt             time.Time          `json:"createdAt"`
	HasInsufficientData   bool               `json:"hasInsufficientData"`
	AdequateResponseCount int                `json:"adequateResponseCount"`
}

type CategoryScore struct {
	Name    string  `json:"name"`
	Score   float64 `json:"score"`
	Comment string  `json:"comment"`
}

type QuestionFeedback struct {
	Question string        `json:"question"`
	Answer   string        `json:"answer"`
	Comment  string        `json:"comment"`
	Score    QuestionScore `json:"score"`
}

// QuestionScore is a 0-10 score or "N/A" when the answer was not scorable.
// The zero value is "N/A".
type QuestionScore struct {
	value  float64
	scored bool
}

// Scored returns a QuestionScore holding v.
func Scored(v float64) QuestionScore {
	return QuestionScore{value: v, scored: true}
}

// Value returns the score and whether one was assigned.
func (s QuestionScore) Value() (float64, bool) {
	return s.value, s.scored
}

func (s QuestionScore) String() string {
	if !s.scored {
		return NotApplicable
	}
	return fmt.Sprintf("%g", s.value)
}

func (s QuestionScore) MarshalJSON() ([]byte, error) {
	if !s.scored {
		return json.Marshal(NotApplicable)
	}
	return json.Marshal(s.value)
}

// UnmarshalJSON accepts a number, null, or the string "N/A".
func (s *QuestionScore) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = QuestionScore{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		if !strings.EqualFold(strings.TrimSpace(str), NotApplicable) {
			return fmt.Errorf("question score: unexpected string %q", str)
		}
		*s = QuestionScore{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("question score: %w", err)
	}
	*s = Scored(v)
	return nil
}

// modelOutput is the part of Feedback the model produces.
type modelOutput struct {
	TotalScore          float64            `json:"totalScore"`
	CategoryScores      []CategoryScore    `json:"categoryScores"`
	Strengths           []string           `json:"strengths"`
	AreasForImprovement []string           `json:"areasForImprovement"`
	FinalAssessment     string             `json:"finalAssessment"`
	Questions           []QuestionFeedback `json:"questions"`
}
