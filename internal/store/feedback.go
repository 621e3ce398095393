package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/mockview/internal/feedback"
)

const feedbackColumns = `id, interview_id, user_id, total_score, category_scores, strengths,
	areas_for_improvement, final_assessment, questions, has_insufficient_data,
	adequate_response_count, created_at`

const upsertFeedbackSQL = `
	INSERT INTO feedback (` + feedbackColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	ON CONFLICT (id) DO UPDATE SET
		interview_id = EXCLUDED.interview_id,
		user_id = EXCLUDED.user_id,
		total_score = EXCLUDED.total_score,
		category_scores = EXCLUDED.category_scores,
		strengths = EXCLUDED.strengths,
		areas_for_improvement = EXCLUDED.areas_for_improvement,
		final_assessment = EXCLUDED.final_assessment,
		questions = EXCLUDED.questions,
		has_insufficient_data = EXCLUDED.has_insufficient_data,
		adequate_response_count = EXCLUDED.adequate_response_count,
		created_at = EXCLUDED.created_at
	WHERE feedback.interview_id = EXCLUDED.interview_id
		AND feedback.user_id = EXCLUDED.user_id`

// UpsertFeedback writes rec at id, replacing every column of an existing row
// that has the same interview and user. A row owned by anyone else is left
// alone and feedback.ErrOwnershipConflict is returned. An empty id allocates a
// fresh one, so two calls without an id produce two rows. Callers wanting one
// row per interview pass a stable id or use PutFeedbackForInterview.
func (s *Store) UpsertFeedback(ctx context.Context, id string, rec feedback.Feedback) (string, error) {
	if id == "" {
		id = uuid.New().String()
	}
	if err := writeFeedback(ctx, s.pool, id, rec); err != nil {
		return "", err
	}
	return id, nil
}

// PutFeedbackForInterview inserts rec unless feedback for the same interview
// already exists, in which case that row is overwritten and its id kept.
// Existing feedback of another user is never replaced. Concurrent callers for
// one interview are serialized on an advisory lock.
func (s *Store) PutFeedbackForInterview(ctx context.Context, rec feedback.Feedback) (string, error) {
	interviewID := strings.TrimSpace(rec.InterviewID)
	if interviewID == "" {
		return "", fmt.Errorf("put feedback: interview id is empty")
	}
	rec.InterviewID = interviewID

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, interviewID); err != nil {
		return "", fmt.Errorf("lock interview %s: %w", interviewID, err)
	}

	var id, owner string
	err = tx.QueryRow(ctx, `
		SELECT id, user_id FROM feedback WHERE interview_id = $1
		ORDER BY created_at DESC LIMIT 1`, interviewID,
	).Scan(&id, &owner)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		id = rec.ID
		if id == "" {
			id = uuid.New().String()
		}
	case err != nil:
		return "", fmt.Errorf("find feedback for interview %s: %w", interviewID, err)
	case owner != rec.UserID:
		return "", fmt.Errorf("put feedback for interview %s: %w", interviewID, feedback.ErrOwnershipConflict)
	}

	if err := writeFeedback(ctx, tx, id, rec); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// GetFeedbackByInterviewID returns the newest feedback for an interview, or
// nil when there is none.
func (s *Store) GetFeedbackByInterviewID(ctx context.Context, interviewID string) (*feedback.Feedback, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+feedbackColumns+` FROM feedback
		WHERE interview_id = $1
		ORDER BY created_at DESC LIMIT 1`, strings.TrimSpace(interviewID))

	fb, err := scanFeedback(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get feedback for interview %s: %w", interviewID, err)
	}
	return fb, nil
}

// ListFeedbackByUser returns a user's feedback, newest first.
func (s *Store) ListFeedbackByUser(ctx context.Context, userID string) ([]feedback.Feedback, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+feedbackColumns+` FROM feedback
		WHERE user_id = $1
		ORDER BY created_at DESC`, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("list feedback for user %s: %w", userID, err)
	}
	defer rows.Close()

	out := []feedback.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, *fb)
	}
	return out, rows.Err()
}

func writeFeedback(ctx context.Context, db execer, id string, rec feedback.Feedback) error {
	args, err := feedbackArgs(id, rec)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, upsertFeedbackSQL, args...)
	if err != nil {
		return fmt.Errorf("upsert feedback %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("upsert feedback %s: %w", id, feedback.ErrOwnershipConflict)
	}
	return nil
}

func feedbackArgs(id string, rec feedback.Feedback) ([]any, error) {
	cats := rec.CategoryScores
	if cats == nil {
		cats = []feedback.CategoryScore{}
	}
	catsJSON, err := json.Marshal(cats)
	if err != nil {
		return nil, fmt.Errorf("marshal category scores: %w", err)
	}
	questions := rec.Questions
	if questions == nil {
		questions = []feedback.QuestionFeedback{}
	}
	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("marshal questions: %w", err)
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return []any{
		id,
		rec.InterviewID,
		rec.UserID,
		rec.TotalScore,
		catsJSON,
		textArray(rec.Strengths),
		textArray(rec.AreasForImprovement),
		rec.FinalAssessment,
		questionsJSON,
		rec.HasInsufficientData,
		rec.AdequateResponseCount,
		createdAt.UTC(),
	}, nil
}

func scanFeedback(row pgx.Row) (*feedback.Feedback, error) {
	var (
		fb            feedback.Feedback
		catsJSON      []byte
		questionsJSON []byte
	)
	err := row.Scan(
		&fb.ID, &fb.InterviewID, &fb.UserID, &fb.TotalScore, &catsJSON,
		&fb.Strengths, &fb.AreasForImprovement, &fb.FinalAssessment, &questionsJSON,
		&fb.HasInsufficientData, &fb.AdequateResponseCount, &fb.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(catsJSON, &fb.CategoryScores); err != nil {
		return nil, fmt.Errorf("decode category scores: %w", err)
	}
	if err := json.Unmarshal(questionsJSON, &fb.Questions); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	fb.CreatedAt = fb.CreatedAt.UTC()
	return &fb, nil
}

func textArray(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
