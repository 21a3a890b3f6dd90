package entry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/pkg/postgres"
)

// Storage reads meal entries from Postgres
type Storage struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewStorage creates a new meal entry storage handler
func NewStorage(pgClient postgres.Client, logger *slog.Logger) *Storage {
	return &Storage{
		pg:     pgClient,
		logger: logger,
	}
}

// ListSince returns a user's meal entries logged at or after the cutoff,
// newest first
func (s *Storage) ListSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]MealEntry, error) {
	query := `
		SELECT id, user_id, logged_at, COALESCE(total_calories, 0),
		       COALESCE(mood, ''), COALESCE(context, '')
		FROM meal_entries
		WHERE user_id = $1 AND logged_at >= $2
		ORDER BY logged_at DESC
	`

	rows, err := s.pg.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var entries []MealEntry

	for rows.Next() {
		var e MealEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.LoggedAt, &e.TotalCalories, &e.Mood, &e.Context); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ListActiveUserIDs returns the IDs of all users with at least one entry
// since the cutoff. Used by the sweep to find users worth analyzing.
func (s *Storage) ListActiveUserIDs(ctx context.Context, since time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM meal_entries
		WHERE logged_at >= $1
	`

	rows, err := s.pg.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var userIDs []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	return userIDs, rows.Err()
}
