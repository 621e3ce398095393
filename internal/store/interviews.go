package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	DefaultLatestLimit = 20
	MaxLatestLimit     = 100
)

// Interview is a mock interview definition a user can take.
type Interview struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	Level     string    `json:"level"`
	Type      string    `json:"type"`
	Techstack []string  `json:"techstack"`
	Questions []string  `json:"questions"`
	Finalized bool      `json:"finalized"`
	CreatedAt time.Time `json:"createdAt"`
}

const interviewColumns = `id, user_id, role, level, type, techstack, questions, finalized, created_at`

// CreateInterview inserts iv, allocating an id and timestamp when unset.
func (s *Store) CreateInterview(ctx context.Context, iv Interview) (*Interview, error) {
	if iv.ID == "" {
		iv.ID = uuid.New().String()
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = time.Now().UTC()
	}
	iv.Techstack = textArray(iv.Techstack)
	iv.Questions = textArray(iv.Questions)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO interviews (`+interviewColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		iv.ID, iv.UserID, iv.Role, iv.Level, iv.Type, iv.Techstack, iv.Questions, iv.Finalized, iv.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert interview: %w", err)
	}
	return &iv, nil
}

// GetInterviewByID returns nil when the interview does not exist.
func (s *Store) GetInterviewByID(ctx context.Context, id string) (*Interview, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, strings.TrimSpace(id))
	iv, err := scanInterview(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get interview %s: %w", id, err)
	}
	return iv, nil
}

func (s *Store) GetInterviewsByUserID(ctx context.Context, userID string) ([]Interview, error) {
	return s.queryInterviews(ctx, `
		SELECT `+interviewColumns+` FROM interviews
		WHERE user_id = $1
		ORDER BY created_at DESC`, strings.TrimSpace(userID))
}

// GetLatestInterviews lists finalized interviews created by other users.
func (s *Store) GetLatestInterviews(ctx context.Context, excludeUserID string, limit int) ([]Interview, error) {
	return s.queryInterviews(ctx, `
		SELECT `+interviewColumns+` FROM interviews
		WHERE finalized = true AND user_id <> $1
		ORDER BY created_at DESC
		LIMIT $2`, strings.TrimSpace(excludeUserID), LatestLimit(limit))
}

// LatestLimit applies the default and cap to a requested page size.
func LatestLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLatestLimit
	case n > MaxLatestLimit:
		return MaxLatestLimit
	default:
		return n
	}
}

func (s *Store) queryInterviews(ctx context.Context, sql string, args ...any) ([]Interview, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query interviews: %w", err)
	}
	defer rows.Close()

	out := []Interview{}
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		out = append(out, *iv)
	}
	return out, rows.Err()
}

func scanInterview(row pgx.Row) (*Interview, error) {
	var iv Interview
	err := row.Scan(&iv.ID, &iv.UserID, &iv.Role, &iv.Level, &iv.Type, &iv.Techstack, &iv.Questions, &iv.Finalized, &iv.CreatedAt)
	if err != nil {
		return nil, err
	}
	iv.CreatedAt = iv.CreatedAt.UTC()
	return &iv, nil
}
