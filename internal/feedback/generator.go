package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/mockview/internal/llm"
	"github.com/MikeSquared-Agency/mockview/internal/transcript"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// Model produces a JSON object for a structured-generation request.
type Model interface {
	GenerateObject(ctx context.Context, req llm.Request) (json.RawMessage, error)
}

// Store persists feedback records. Both write methods refuse to overwrite a
// row owned by another interview or user and report ErrOwnershipConflict.
type Store interface {
	UpsertFeedback(ctx context.Context, id string, rec Feedback) (string, error)
	PutFeedbackForInterview(ctx context.Context, rec Feedback) (string, error)
	GetFeedbackByInterviewID(ctx context.Context, interviewID string) (*Feedback, error)
}

// Generator runs the transcript-to-feedback pipeline.
type Generator struct {
	model   Model
	store   Store
	timeout time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

func New(model Model, store Store, timeout time.Duration, logger *slog.Logger) *Generator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Generator{
		model:   model,
		store:   store,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
	}
}

// Submit generates feedback for a finished interview and stores it, returning
// the feedback id. Nothing is written unless the model output passes schema
// and score-band validation. Without a caller-supplied FeedbackID the id is
// derived from the interview id and the write is serialized per interview, so
// retries overwrite instead of duplicating.
func (g *Generator) Submit(ctx context.Context, req Request) (string, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return "", err
	}

	norm := transcript.Normalize(req.Transcript)
	prompt := BuildPrompt(norm.Turns, norm.HasInsufficientData)

	g.logger.Info("generating feedback",
		"interview_id", req.InterviewID,
		"user_id", req.UserID,
		"turns", len(norm.Turns),
		"adequate_responses", norm.AdequateUserResponses,
		"insufficient_data", norm.HasInsufficientData,
	)

	out, err := g.generate(ctx, prompt)
	if err != nil {
		g.logger.Error("feedback generation failed",
			"interview_id", req.InterviewID,
			"retryable", Retryable(err),
			"error", err,
		)
		return "", err
	}

	if err := CheckScoreBand(out.TotalScore, norm.AdequateUserResponses); err != nil {
		g.logger.Warn("score band violation",
			"interview_id", req.InterviewID,
			"total_score", out.TotalScore,
			"adequate_responses", norm.AdequateUserResponses,
		)
		return "", err
	}

	rec := Feedback{
		InterviewID:           req.InterviewID,
		UserID:                req.UserID,
		TotalScore:            out.TotalScore,
		CategoryScores:        out.CategoryScores,
		Strengths:             nonNil(out.Strengths),
		AreasForImprovement:   nonNil(out.AreasForImprovement),
		FinalAssessment:       out.FinalAssessment,
		Questions:             out.Questions,
		CreatedAt:             g.now().UTC(),
		HasInsufficientData:   norm.HasInsufficientData,
		AdequateResponseCount: norm.AdequateUserResponses,
	}
	if rec.Questions == nil {
		rec.Questions = []QuestionFeedback{}
	}

	var storedID string
	if req.FeedbackID != "" {
		rec.ID = req.FeedbackID
		storedID, err = g.store.UpsertFeedback(ctx, rec.ID, rec)
	} else {
		rec.ID = DeterministicFeedbackID(req.InterviewID)
		storedID, err = g.store.PutFeedbackForInterview(ctx, rec)
	}
	if errors.Is(err, ErrOwnershipConflict) {
		g.logger.Warn("feedback write refused",
			"interview_id", req.InterviewID,
			"user_id", req.UserID,
			"feedback_id", rec.ID,
		)
		return "", err
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}

	g.logger.Info("feedback stored",
		"interview_id", req.InterviewID,
		"feedback_id", storedID,
		"total_score", rec.TotalScore,
	)
	return storedID, nil
}

// Get returns the feedback for an interview, or nil when none exists yet.
func (g *Generator) Get(ctx context.Context, interviewID string) (*Feedback, error) {
	interviewID = strings.TrimSpace(interviewID)
	if interviewID == "" {
		return nil, fmt.Errorf("%w: interview id is empty", ErrInvalidRequest)
	}
	fb, err := g.store.GetFeedbackByInterviewID(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return fb, nil
}

func (g *Generator) generate(ctx context.Context, prompt string) (*modelOutput, error) {
	genCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.model.GenerateObject(genCtx, llm.Request{
		Prompt: prompt,
		System: SystemInstruction,
		Schema: OutputSchema,
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s: %w", ErrGenerationTimeout, g.timeout, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if err := llm.Validate(raw, OutputSchema); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}

	var out modelOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	return &out, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
