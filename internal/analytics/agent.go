package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/internal/entry"
	"github.com/savorly/mindful-platform/internal/insight"
	"github.com/savorly/mindful-platform/internal/pattern"
	"github.com/savorly/mindful-platform/internal/profile"
	"github.com/savorly/mindful-platform/internal/risk"
	"github.com/savorly/mindful-platform/pkg/config"
	"github.com/savorly/mindful-platform/pkg/mqtt"
	"github.com/savorly/mindful-platform/pkg/postgres"
	"github.com/savorly/mindful-platform/pkg/redis"
)

// Agent runs pattern detection and risk assessment. It reacts to
// entry-logged events, runs a periodic detection sweep over recently
// active users, and serves the HTTP API.
type Agent struct {
	mqtt     mqtt.Client
	redis    redis.Client
	pgClient postgres.Client
	cfg      *config.Config
	logger   *slog.Logger

	detector *pattern.Detector
	entries  *entry.Storage
	patterns *pattern.Storage
	profiles *profile.Storage
	insights *insight.Storage
}

// NewAgent creates the analytics agent. The cohort seed file is optional;
// without it the built-in seeds are used.
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger) (*Agent, error) {
	seeds := pattern.DefaultCohortSeeds()
	if cfg.CohortSeedFile != "" {
		loaded, err := pattern.LoadCohortSeeds(cfg.CohortSeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load cohort seeds: %w", err)
		}
		seeds = loaded
		logger.Info("Loaded cohort seeds", "file", cfg.CohortSeedFile, "clusters", len(loaded))
	}

	return &Agent{
		mqtt:     mqttClient,
		redis:    redisClient,
		pgClient: pgClient,
		cfg:      cfg,
		logger:   logger,
		detector: pattern.NewDetector(seeds, cfg.MinEntriesForStats, logger),
		entries:  entry.NewStorage(pgClient, logger),
		patterns: pattern.NewStorage(pgClient, logger),
		profiles: profile.NewStorage(pgClient, logger),
		insights: insight.NewStorage(pgClient, logger),
	}, nil
}

// Start connects the agent to its dependencies and blocks until the
// context is cancelled
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting analytics agent")

	if err := a.pgClient.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicEntryLogged, 0, a.handleEntryLogged); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicEntryLogged, err)
	}

	if err := a.mqtt.Subscribe(mqtt.TopicSweepTrigger, 0, a.handleSweepTrigger); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", mqtt.TopicSweepTrigger, err)
	}

	a.logger.Info("Subscribed to topics",
		"topics", []string{mqtt.TopicEntryLogged, mqtt.TopicSweepTrigger})

	go a.runSweepLoop(ctx)

	<-ctx.Done()
	return nil
}

// Stop disconnects the agent from its dependencies
func (a *Agent) Stop() error {
	a.logger.Info("Stopping analytics agent")
	a.mqtt.Disconnect()
	return a.pgClient.Disconnect()
}

// handleEntryLogged reacts to a freshly logged meal: re-run detection for
// that user and refresh the cached risk score
func (a *Agent) handleEntryLogged(msg mqtt.Message) {
	userID, err := userIDFromTopic(msg.Topic())
	if err != nil {
		a.logger.Error("Invalid entry-logged topic", "topic", msg.Topic(), "error", err)
		return
	}

	ctx := context.Background()

	if _, err := a.RunDetection(ctx, userID); err != nil {
		a.logger.Error("Detection failed", "user_id", userID, "error", err)
	}

	// Risk depends on today's entries, so the cache is stale now
	if err := a.redis.Del(ctx, redis.RiskKey(userID.String())); err != nil {
		a.logger.Warn("Failed to invalidate risk cache", "user_id", userID, "error", err)
	}

	if _, err := a.ComputeRisk(ctx, userID, time.Now().UTC()); err != nil {
		a.logger.Error("Risk computation failed", "user_id", userID, "error", err)
	}
}

// handleSweepTrigger runs a full detection sweep on demand
func (a *Agent) handleSweepTrigger(msg mqtt.Message) {
	a.logger.Info("Manual sweep triggered")
	a.runSweep(context.Background())
}

// runSweepLoop periodically re-runs detection for every recently active
// user, so patterns stay current even for users who stop logging
func (a *Agent) runSweepLoop(ctx context.Context) {
	interval := time.Duration(a.cfg.SweepIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.logger.Info("Detection sweep scheduled", "interval", interval)

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
	since := time.Now().UTC().AddDate(0, 0, -a.cfg.DetectionWindowDays)

	userIDs, err := a.entries.ListActiveUserIDs(ctx, since)
	if err != nil {
		a.logger.Error("Sweep failed to list active users", "error", err)
		return
	}

	a.logger.Info("Detection sweep started", "users", len(userIDs))

	processed := 0
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			return
		}
		a.sweepUser(ctx, userID)
		processed++
	}

	a.logger.Info("Detection sweep complete", "users_processed", processed)
}

// sweepUser isolates per-user failures so one bad user cannot stop the
// whole sweep
func (a *Agent) sweepUser(ctx context.Context, userID uuid.UUID) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Panic during user sweep", "user_id", userID, "panic", r)
		}
	}()

	if _, err := a.RunDetection(ctx, userID); err != nil {
		a.logger.Error("Sweep detection failed", "user_id", userID, "error", err)
	}
}

// RunDetection executes the full detection pipeline for one user and
// returns the newly activated patterns
func (a *Agent) RunDetection(ctx context.Context, userID uuid.UUID) ([]pattern.Pattern, error) {
	prof, err := a.profiles.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	since := time.Now().UTC().AddDate(0, 0, -a.cfg.DetectionWindowDays)
	entries, err := a.entries.ListSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	candidates := a.detector.Detect(entries, prof.ClusterID)
	if len(candidates) == 0 {
		a.logger.Debug("No pattern candidates", "user_id", userID)
		return nil, nil
	}

	active, err := a.patterns.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active patterns: %w", err)
	}

	rec := pattern.Reconcile(candidates, active, userID, time.Now().UTC())
	if len(rec.New) == 0 {
		a.logger.Debug("All candidate types already active", "user_id", userID)
		return nil, nil
	}

	if err := a.patterns.ApplyReconciliation(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to persist patterns: %w", err)
	}

	types := make([]string, len(rec.New))
	for i, p := range rec.New {
		types[i] = p.Type
	}
	a.logger.Info("Patterns detected",
		"user_id", userID,
		"count", len(rec.New),
		"types", strings.Join(types, ","))

	a.publishPatternEvent(userID, rec.New)

	return rec.New, nil
}

// ComputeRisk returns the user's current risk score, serving from the
// Redis cache when fresh. A nil score with a nil error means the user has
// no active patterns.
func (a *Agent) ComputeRisk(ctx context.Context, userID uuid.UUID, now time.Time) (*risk.Score, error) {
	cacheKey := redis.RiskKey(userID.String())

	if cached, err := a.redis.Get(ctx, cacheKey); err == nil {
		var score risk.Score
		if err := json.Unmarshal([]byte(cached), &score); err == nil {
			a.logger.Debug("Risk served from cache", "user_id", userID)
			return &score, nil
		}
		a.logger.Warn("Discarding malformed cached risk score", "user_id", userID)
	} else if !errors.Is(err, redis.ErrKeyNotFound) {
		a.logger.Warn("Risk cache read failed", "user_id", userID, "error", err)
	}

	active, err := a.patterns.ListActive(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load active patterns: %w", err)
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	today, err := a.entries.ListSince(ctx, userID, dayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to load today's entries: %w", err)
	}

	score := risk.Calculate(active, today, now)
	if score == nil {
		return nil, nil
	}

	a.cacheRiskScore(ctx, userID, score, now)
	a.publishRiskEvent(userID, score)

	return score, nil
}

// cacheRiskScore stores the fresh score with a short TTL and appends it
// to the user's risk timeline, trimming anything older than 30 days
func (a *Agent) cacheRiskScore(ctx context.Context, userID uuid.UUID, score *risk.Score, now time.Time) {
	payload, err := json.Marshal(score)
	if err != nil {
		a.logger.Error("Failed to encode risk score", "user_id", userID, "error", err)
		return
	}

	ttl := time.Duration(a.cfg.RiskCacheTTLMinutes) * time.Minute
	if err := a.redis.Set(ctx, redis.RiskKey(userID.String()), payload, ttl); err != nil {
		a.logger.Warn("Failed to cache risk score", "user_id", userID, "error", err)
	}

	historyKey := redis.RiskHistoryKey(userID.String())
	member := formatRiskMember(now, score.Score, score.Level)
	if err := a.redis.ZAdd(ctx, historyKey, float64(now.UnixMilli()), member); err != nil {
		a.logger.Warn("Failed to append risk history", "user_id", userID, "error", err)
		return
	}

	horizon := now.AddDate(0, 0, -30)
	if err := a.redis.ZRemRangeByScore(ctx, historyKey,
		"-inf", fmt.Sprintf("%d", horizon.UnixMilli())); err != nil {
		a.logger.Warn("Failed to trim risk history", "user_id", userID, "error", err)
	}
}

// RiskPoint is one entry of the cached risk timeline
type RiskPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Score     float64   `json:"score"`
	Level     string    `json:"level"`
}

// RiskHistory returns the user's risk timeline for the trailing week,
// newest first
func (a *Agent) RiskHistory(ctx context.Context, userID uuid.UUID, now time.Time) ([]RiskPoint, error) {
	weekAgo := now.AddDate(0, 0, -7)

	members, err := a.redis.ZRevRangeByScoreWithScores(ctx,
		redis.RiskHistoryKey(userID.String()),
		float64(now.UnixMilli()), float64(weekAgo.UnixMilli()), 0, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to read risk history: %w", err)
	}

	points := make([]RiskPoint, 0, len(members))
	for _, m := range members {
		point, err := parseRiskPoint(m.Member)
		if err != nil {
			a.logger.Warn("Skipping malformed risk history entry",
				"user_id", userID, "member", m.Member, "error", err)
			continue
		}
		points = append(points, point)
	}

	return points, nil
}

// formatRiskMember encodes a history entry as "unixmilli:score:level"
func formatRiskMember(at time.Time, score float64, level string) string {
	return fmt.Sprintf("%d:%.3f:%s", at.UnixMilli(), score, level)
}

// parseRiskPoint decodes a "unixmilli:score:level" history member
func parseRiskPoint(member string) (RiskPoint, error) {
	parts := strings.SplitN(member, ":", 3)
	if len(parts) != 3 {
		return RiskPoint{}, fmt.Errorf("unexpected member format")
	}

	millis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RiskPoint{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	score, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return RiskPoint{}, fmt.Errorf("invalid score: %w", err)
	}

	return RiskPoint{
		Timestamp: time.UnixMilli(millis).UTC(),
		Score:     score,
		Level:     parts[2],
	}, nil
}

// DisputePattern applies one negative feedback to a pattern and persists
// the result. Returns the updated pattern.
func (a *Agent) DisputePattern(ctx context.Context, userID, patternID uuid.UUID) (pattern.Pattern, error) {
	p, err := a.patterns.Get(ctx, userID, patternID)
	if err != nil {
		return pattern.Pattern{}, err
	}

	updated := pattern.Dispute(p)
	if err := a.patterns.SaveDispute(ctx, updated); err != nil {
		return pattern.Pattern{}, err
	}

	a.logger.Info("Pattern disputed",
		"user_id", userID,
		"pattern_id", patternID,
		"new_confidence", updated.Confidence,
		"active", updated.Active)

	// A changed pattern set invalidates the cached risk score
	if err := a.redis.Del(ctx, redis.RiskKey(userID.String())); err != nil {
		a.logger.Warn("Failed to invalidate risk cache", "user_id", userID, "error", err)
	}

	return updated, nil
}

func (a *Agent) publishPatternEvent(userID uuid.UUID, patterns []pattern.Pattern) {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":   userID,
		"patterns":  patterns,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to encode pattern event", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.PatternsTopic(userID.String()), 0, false, payload); err != nil {
		a.logger.Warn("Failed to publish pattern event", "user_id", userID, "error", err)
	}
}

func (a *Agent) publishRiskEvent(userID uuid.UUID, score *risk.Score) {
	payload, err := json.Marshal(map[string]interface{}{
		"user_id":   userID,
		"risk":      score,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		a.logger.Error("Failed to encode risk event", "error", err)
		return
	}

	if err := a.mqtt.Publish(mqtt.RiskTopic(userID.String()), 0, false, payload); err != nil {
		a.logger.Warn("Failed to publish risk event", "user_id", userID, "error", err)
	}
}

// userIDFromTopic extracts the user ID from a per-user topic like
// mindful/entry/logged/{user_id}
func userIDFromTopic(topic string) (uuid.UUID, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 4 {
		return uuid.Nil, fmt.Errorf("unexpected topic format: %s", topic)
	}

	userID, err := uuid.Parse(parts[len(parts)-1])
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user ID in topic %s: %w", topic, err)
	}

	return userID, nil
}
