package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/pkg/postgres"
)

// Subscription tiers
const (
	TierFree    = "free"
	TierPremium = "premium"
)

// Profile holds the analytics-facing slice of a user's account: the
// cold-start cohort, the subscription tier, and the insight rotation
// cursor. The account subsystem owns the rest.
type Profile struct {
	UserID           uuid.UUID
	ClusterID        string
	SubscriptionTier string
	InsightCount     int
}

// Storage reads analytics profiles from Postgres
type Storage struct {
	pg     postgres.Client
	logger *slog.Logger
}

// NewStorage creates a new profile storage handler
func NewStorage(pgClient postgres.Client, logger *slog.Logger) *Storage {
	return &Storage{
		pg:     pgClient,
		logger: logger,
	}
}

// Get returns a user's analytics profile. Users without a stored profile
// get a default free-tier profile with no cohort assignment.
func (s *Storage) Get(ctx context.Context, userID uuid.UUID) (Profile, error) {
	query := `
		SELECT user_id, COALESCE(cluster_id, ''), COALESCE(subscription_tier, 'free'),
		       COALESCE(insight_count, 0)
		FROM analytics_profiles
		WHERE user_id = $1
	`

	var p Profile
	err := s.pg.QueryRow(ctx, query, userID).Scan(
		&p.UserID, &p.ClusterID, &p.SubscriptionTier, &p.InsightCount)

	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug("No analytics profile, using defaults", "user_id", userID)
		return Profile{
			UserID:           userID,
			SubscriptionTier: TierFree,
		}, nil
	}
	if err != nil {
		return Profile{}, fmt.Errorf("query failed: %w", err)
	}

	return p, nil
}
