package feedback

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Request asks for feedback on one finished interview. Transcript is the
// newline-joined "role: content" rendering of the call.
type Request struct {
	InterviewID string `json:"interviewId" validate:"required,max=128"`
	UserID      string `json:"userId" validate:"required,max=128"`
	Transcript  string `json:"transcript" validate:"required"`
	FeedbackID  string `json:"feedbackId,omitempty" validate:"omitempty,max=128"`
}

// Normalize trims identifier fields in place.
func (r *Request) Normalize() {
	r.InterviewID = strings.TrimSpace(r.InterviewID)
	r.UserID = strings.TrimSpace(r.UserID)
	r.FeedbackID = strings.TrimSpace(r.FeedbackID)
}

// Validate reports missing or malformed fields as ErrInvalidRequest.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.Transcript) == "" {
		return fmt.Errorf("%w: transcript is empty", ErrInvalidRequest)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

// DeterministicFeedbackID derives the feedback document id for an interview,
// so that repeated submissions for the same interview overwrite one document.
func DeterministicFeedbackID(interviewID string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mockview:feedback:"+strings.TrimSpace(interviewID))).String()
}
