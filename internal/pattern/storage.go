package pattern

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/savorly/mindful-platform/pkg/postgres"
)

// ErrNotFound is returned when a requested pattern does not exist
var ErrNotFound = errors.New("pattern not found")

// Storage persists patterns in Postgres
type Storage struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewStorage creates a new pattern storage handler
func NewStorage(pgClient postgres.Client, logger *slog.Logger) *Storage {
	return &Storage{
		pg:     pgClient,
		logger: logger,
	}
}

// ListActive returns a user's active patterns, strongest first
func (s *Storage) ListActive(ctx context.Context, userID uuid.UUID) ([]Pattern, error) {
	query := `
		SELECT id, user_id, type, confidence, evidence, active, discovered_at
		FROM patterns
		WHERE user_id = $1 AND active = true
		ORDER BY confidence DESC
	`

	rows, err := s.pg.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var patterns []Pattern

	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	return patterns, rows.Err()
}

// Get returns a single pattern owned by the user, or ErrNotFound
func (s *Storage) Get(ctx context.Context, userID, patternID uuid.UUID) (Pattern, error) {
	query := `
		SELECT id, user_id, type, confidence, evidence, active, discovered_at
		FROM patterns
		WHERE id = $1 AND user_id = $2
	`

	row := s.pg.QueryRow(ctx, query, patternID, userID)

	p, err := scanPattern(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Pattern{}, ErrNotFound
	}
	if err != nil {
		return Pattern{}, err
	}

	return p, nil
}

// ApplyReconciliation deactivates superseded patterns and inserts the new
// ones in a single transaction, keeping the one-active-per-type invariant
func (s *Storage) ApplyReconciliation(ctx context.Context, rec Reconciliation) error {
	if len(rec.New) == 0 && len(rec.Superseded) == 0 {
		return nil
	}

	return s.pg.Transaction(ctx, func(tx *sql.Tx) error {
		if len(rec.Superseded) > 0 {
			_, err := tx.ExecContext(ctx, `
				UPDATE patterns SET active = false
				WHERE id = ANY($1)
			`, pq.Array(rec.Superseded))
			if err != nil {
				return fmt.Errorf("failed to deactivate superseded patterns: %w", err)
			}
		}

		for _, p := range rec.New {
			evidence, err := json.Marshal(p.Evidence)
			if err != nil {
				return fmt.Errorf("failed to encode evidence: %w", err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO patterns (id, user_id, type, confidence, evidence, active, discovered_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, p.ID, p.UserID, p.Type, p.Confidence, evidence, p.Active, p.DiscoveredAt)
			if err != nil {
				return fmt.Errorf("failed to insert pattern: %w", err)
			}
		}

		return nil
	})
}

// SaveDispute writes a pattern's post-dispute confidence and active flag
func (s *Storage) SaveDispute(ctx context.Context, p Pattern) error {
	result, err := s.pg.Exec(ctx, `
		UPDATE patterns SET confidence = $1, active = $2
		WHERE id = $3
	`, p.Confidence, p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update pattern: %w", err)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPattern(row rowScanner) (Pattern, error) {
	var p Pattern
	var evidence []byte

	if err := row.Scan(&p.ID, &p.UserID, &p.Type, &p.Confidence, &evidence, &p.Active, &p.DiscoveredAt); err != nil {
		return Pattern{}, fmt.Errorf("scan failed: %w", err)
	}

	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &p.Evidence); err != nil {
			return Pattern{}, fmt.Errorf("failed to decode evidence: %w", err)
		}
	}

	return p, nil
}
