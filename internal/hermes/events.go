package hermes

// Call lifecycle subjects published by the voice-agent bridge.
const (
	SubjectCallStarted    = "interview.call.started"
	SubjectCallTranscript = "interview.call.transcript"
	SubjectCallEnded      = "interview.call.ended"
)

// Feedback outcome subjects published by mockview.
const (
	SubjectFeedbackGenerated = "interview.feedback.generated"
	SubjectFeedbackFailed    = "interview.feedback.failed"
)

// TranscriptTypeFinal marks a settled utterance; partial transcripts are
// superseded by a later final one.
const TranscriptTypeFinal = "final"

type CallStarted struct {
	CallID      string `json:"call_id"`
	InterviewID string `json:"interview_id"`
	UserID      string `json:"user_id"`
	FeedbackID  string `json:"feedback_id,omitempty"`
}

type TranscriptEvent struct {
	CallID         string `json:"call_id"`
	Role           string `json:"role"`
	Transcript     string `json:"transcript"`
	TranscriptType string `json:"transcript_type"`
}

type CallEnded struct {
	CallID string `json:"call_id"`
}

type FeedbackGenerated struct {
	InterviewID string `json:"interview_id"`
	UserID      string `json:"user_id"`
	FeedbackID  string `json:"feedback_id"`
}

type FeedbackFailed struct {
	InterviewID string `json:"interview_id"`
	UserID      string `json:"user_id"`
	Error       string `json:"error"`
	Retryable   bool   `json:"retryable"`
}
