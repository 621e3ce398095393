package feedback

import "errors"

var (
	// ErrInvalidRequest means the request was rejected before any external call.
	ErrInvalidRequest = errors.New("invalid feedback request")
	// ErrGeneration covers transport and provider failures of the model call.
	ErrGeneration = errors.New("feedback generation failed")
	// ErrGenerationTimeout means the model call exceeded its deadline.
	ErrGenerationTimeout = errors.New("feedback generation timed out")
	// ErrInvalidOutput means the model response did not match the output schema.
	ErrInvalidOutput = errors.New("invalid structured output")
	// ErrScoreOutOfBand means the total score contradicts the adequate-response count.
	ErrScoreOutOfBand = errors.New("total score outside permitted band")
	// ErrStorage wraps failures of the feedback store.
	ErrStorage = errors.New("feedback storage failed")
	// ErrOwnershipConflict means the target feedback row belongs to a different
	// interview or user and was left untouched.
	ErrOwnershipConflict = errors.New("feedback belongs to another interview or user")
)

// Retryable reports whether re-submitting the same request may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrGenerationTimeout) ||
		errors.Is(err, ErrGeneration) ||
		errors.Is(err, ErrStorage)
}
