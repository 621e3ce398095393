package backfill

import (
	"github.com/MikeSquared-Agency/mockview/internal/feedback"
	"github.com/MikeSquared-Agency/mockview/internal/transcript"
)

// CallRecord is one archived interview call. Either Transcript or Turns
// carries the conversation; Transcript wins when both are set.
type CallRecord struct {
	InterviewID string            `json:"interviewId"`
	UserID      string            `json:"userId"`
	FeedbackID  string            `json:"feedbackId,omitempty"`
	Transcript  string            `json:"transcript,omitempty"`
	Turns       []transcript.Turn `json:"turns,omitempty"`
}

// Text returns the flattened transcript.
func (r CallRecord) Text() string {
	if r.Transcript != "" {
		return r.Transcript
	}
	return transcript.Flatten(r.Turns)
}

func (r CallRecord) Request() feedback.Request {
	return feedback.Request{
		InterviewID: r.InterviewID,
		UserID:      r.UserID,
		FeedbackID:  r.FeedbackID,
		Transcript:  r.Text(),
	}
}

// Summary counts the outcome of a run.
type Summary struct {
	Files        int `json:"files"`
	Records      int `json:"records"`
	Submitted    int `json:"submitted"`
	Skipped      int `json:"skipped"`
	Failed       int `json:"failed"`
	Insufficient int `json:"insufficient"`
}
