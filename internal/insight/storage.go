package insight

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/pkg/postgres"
)

// ErrNotFound is returned when a requested insight does not exist
var ErrNotFound = errors.New("insight not found")

// Storage persists insights in Postgres
type Storage struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewStorage creates a new insight storage handler
func NewStorage(pgClient postgres.Client, logger *slog.Logger) *Storage {
	return &Storage{
		pg:     pgClient,
		logger: logger,
	}
}

// Insert writes a generated insight and advances the user's rotation
// cursor in one transaction, so a failed write never skips a rotation
// step
func (s *Storage) Insert(ctx context.Context, userID uuid.UUID, ins Insight) error {
	return s.pg.Transaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO insights (id, user_id, pattern_id, type, title, body, action, is_locked, seen, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, false, $9)
		`, ins.ID, userID, ins.PatternID, ins.Type, ins.Title, ins.Body, ins.Action, ins.IsLocked, ins.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO analytics_profiles (user_id, insight_count)
			VALUES ($1, 1)
			ON CONFLICT (user_id)
			DO UPDATE SET insight_count = analytics_profiles.insight_count + 1
		`, userID)
		if err != nil {
			return fmt.Errorf("failed to advance rotation cursor: %w", err)
		}

		return nil
	})
}

// Latest returns the user's most recent insight created at or after the
// cutoff, or ErrNotFound
func (s *Storage) Latest(ctx context.Context, userID uuid.UUID, since time.Time) (Insight, error) {
	query := `
		SELECT id, user_id, pattern_id, type, title, body, COALESCE(action, ''),
		       is_locked, seen, created_at
		FROM insights
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	var ins Insight
	err := s.pg.QueryRow(ctx, query, userID, since).Scan(
		&ins.ID, &ins.UserID, &ins.PatternID, &ins.Type, &ins.Title, &ins.Body,
		&ins.Action, &ins.IsLocked, &ins.Seen, &ins.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return Insight{}, ErrNotFound
	}
	if err != nil {
		return Insight{}, fmt.Errorf("query failed: %w", err)
	}

	return ins, nil
}

// MarkSeen flags an insight as seen by its owner
func (s *Storage) MarkSeen(ctx context.Context, userID, insightID uuid.UUID) error {
	result, err := s.pg.Exec(ctx, `
		UPDATE insights SET seen = true
		WHERE id = $1 AND user_id = $2
	`, insightID, userID)
	if err != nil {
		return fmt.Errorf("failed to update insight: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}
