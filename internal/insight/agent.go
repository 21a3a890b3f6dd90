package insight

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/internal/entry"
	"github.com/savorly/mindful-platform/internal/pattern"
	"github.com/savorly/mindful-platform/internal/profile"
	"github.com/savorly/mindful-platform/pkg/config"
	"github.com/savorly/mindful-platform/pkg/mqtt"
	"github.com/savorly/mindful-platform/pkg/postgres"
	"github.com/savorly/mindful-platform/pkg/redis"
)

// entryLookbackDays feeds the generator two weeks of entries so the
// progress archetype can compare week over week
const entryLookbackDays = 14

// Agent generates one insight per active user per day. A Redis marker
// keyed by user and calendar day keeps restarts and manual triggers from
// producing duplicates.
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	pgClient postgres.Client
	cfg      *config.Config
	logger   *slog.Logger

	generator *Generator
	entries   *entry.Storage
	patterns  *pattern.Storage
	profiles  *profile.Storage
	storage   *Storage
}

// NewAgent creates the insight agent
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	return &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		pgClient:  pgClient,
		cfg:       cfg,
		logger:    logger,
		generator: NewGenerator(cfg.FreeInsightLimit, logger),
		entries:   entry.NewStorage(pgClient, logger),
		patterns:  pattern.NewStorage(pgClient, logger),
		profiles:  profile.NewStorage(pgClient, logger),
		storage:   NewStorage(pgClient, logger),
	}, nil
}

// Start connects the agent and blocks until the context is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting insight agent")

	if err := a.pgClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicInsightTrigger, 0, a.handleGenerateTrigger); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicInsightTrigger, err)
	}

	a.logger.Info("Subscribed to topics", "topics", []string{mqtt.TopicInsightTrigger})

	go a.runGenerationLoop(ctx)

	<-ctx.Done()
	return nil
}

// Stop disconnects the agent from its dependencies
func (a *Agent) Stop() error {
	a.logger.Info("Stopping insight agent")
	a.mqtt.Disconnect()
	return a.pgClient.Disconnect()
}

// handleGenerateTrigger runs a generation sweep on demand. An empty
// payload sweeps all active users, a payload with a user_id targets one.
func (a *Agent) handleGenerateTrigger(msg mqtt.Message) {
	ctx := context.Background()

	var trigger struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &trigger); err == nil && trigger.UserID != "" {
		userID, err := uuid.Parse(trigger.UserID)
		if err != nil {
			a.logger.Error("Invalid user ID in trigger", "user_id", trigger.UserID, "error", err)
			return
		}
		a.logger.Info("Targeted insight generation triggered", "user_id", userID)
		if err := a.GenerateForUser(ctx, userID); err != nil {
			a.logger.Error("Insight generation failed", "user_id", userID, "error", err)
		}
		return
	}

	a.logger.Info("Full insight generation sweep triggered")
	a.runSweep(ctx)
}

func (a *Agent) runGenerationLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.InsightIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("Insight generation scheduled", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runSweep(ctx)
		}
	}
}

func (a *Agent) runSweep(ctx context.Context) {
	since := time.Now().UTC().AddDate(0, 0, -entryLookbackDays)

	userIDs, err := a.entries.ListActiveUserIDs(ctx, since)
	if err != nil {
		a.logger.Error("Sweep failed to list active users", "error", err)
		return
	}

	a.logger.Info("Insight sweep started", "users", len(userIDs))

	generated := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		if err := a.generateUser(ctx, userID); err != nil {
			a.logger.Error("Insight generation failed", "user_id", userID, "error", err)
			continue
		}
		generated++
	}

	a.logger.Info("Insight sweep complete", "users_processed", generated)
}

// generateUser wraps GenerateForUser with panic isolation for the sweep
func (a *Agent) generateUser(ctx context.Context, userID uuid.UUID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during generation: %v", r)
		}
	}()

	return a.GenerateForUser(ctx, userID)
}

// GenerateForUser produces and persists today's insight for one user.
// Generation is skipped without error when today's marker already exists.
func (a *Agent) GenerateForUser(ctx context.Context, userID uuid.UUID) error {
	now := time.Now().UTC()
	markerKey := redis.InsightMarkerKey(userID.String(), now.Format("2006-01-02"))

	if _, err := a.redis.Get(ctx, markerKey); err == nil {
		a.logger.Debug("Insight already generated today", "user_id", userID)
		return nil
	} else if !errors.Is(err, redis.ErrKeyNotFound) {
		a.logger.Warn("Marker check failed, generating anyway", "user_id", userID, "error", err)
	}

	prof, err := a.profiles.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	patterns, err := a.patterns.ListActive(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load active patterns: %w", err)
	}

	entries, err := a.entries.ListSince(ctx, userID, now.AddDate(0, 0, -entryLookbackDays))
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}

	ins := a.generator.Generate(prof.InsightCount, patterns, entries, prof.SubscriptionTier, now)
	ins.UserID = userID

	if err := a.storage.Insert(ctx, userID, ins); err != nil {
		return fmt.Errorf("failed to persist insight: %w", err)
	}

	// Marker expires after two days, long past its usefulness
	if err := a.redis.Set(ctx, markerKey, "1", 48*time.Hour); err != nil {
		a.logger.Warn("Failed to set generation marker", "user_id", userID, "error", err)
	}

	a.logger.Info("Insight generated",
		"user_id", userID,
		"type", ins.Type,
		"locked", ins.IsLocked)

	a.publishInsightEvent(userID, ins)

	return nil
}

func (a *Agent) publishInsightEvent(userID uuid.UUID, ins Insight) {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":   userID,
		"insight":   ins.Redact(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to encode insight event", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.InsightTopic(userID.String()), 0, false, payload); err != nil {
		a.logger.Warn("Failed to publish insight event", "user_id", userID, "error", err)
	}
}
