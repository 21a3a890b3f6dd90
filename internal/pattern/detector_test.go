package pattern

import (
	"log/slog"
	"math"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/internal/entry"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// testEntry builds a meal entry on a fixed base date plus day offset
func testEntry(day, hour, calories int, mood, context string) entry.MealEntry {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return entry.MealEntry{
		ID:            uuid.New(),
		UserID:        uuid.Nil,
		LoggedAt:      base.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour),
		TotalCalories: calories,
		Mood:          mood,
		Context:       context,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDetectEveningLoading(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	// Ten days of modest lunches followed by large dinners
	var entries []entry.MealEntry
	for day := 0; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 200, "", ""))
		entries = append(entries, testEntry(day, 19, 500, "", ""))
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Type != TypeTime {
		t.Errorf("Expected type %s, got %s", TypeTime, c.Type)
	}
	if !almostEqual(c.Confidence, 1.0) {
		t.Errorf("Expected confidence 1.0, got %f", c.Confidence)
	}
	if ratio, ok := c.Evidence["ratio"].(float64); !ok || !almostEqual(ratio, 2.5) {
		t.Errorf("Expected ratio 2.5, got %v", c.Evidence["ratio"])
	}
	if avg, ok := c.Evidence["avg_lunch_calories"].(float64); !ok || !almostEqual(avg, 200) {
		t.Errorf("Expected avg_lunch_calories 200, got %v", c.Evidence["avg_lunch_calories"])
	}
}

func TestDetectWeakSignalFiltered(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	// Evening loading exists but only on 4 of 10 logged days, which
	// leaves confidence at 0.4, under the reporting floor
	var entries []entry.MealEntry
	for day := 0; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 200, "", ""))
		if day < 4 {
			entries = append(entries, testEntry(day, 19, 600, "", ""))
		}
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d: %+v", len(candidates), candidates)
	}
}

func TestDetectEmotionalEating(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	// Bad-mood meals run more than 1.5x larger than ok-mood meals.
	// All entries sit in lunch hours so no time signal can fire.
	var entries []entry.MealEntry
	for day := 0; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 900, entry.MoodBad, ""))
		entries = append(entries, testEntry(day, 13, 400, entry.MoodOK, ""))
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Type != TypeMood {
		t.Errorf("Expected type %s, got %s", TypeMood, c.Type)
	}
	if !almostEqual(c.Confidence, 1.0) {
		t.Errorf("Expected confidence 1.0, got %f", c.Confidence)
	}
	if ratio, ok := c.Evidence["ratio"].(float64); !ok || !almostEqual(ratio, 2.25) {
		t.Errorf("Expected ratio 2.25, got %v", c.Evidence["ratio"])
	}
}

func TestDetectContextSpikes(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	var entries []entry.MealEntry
	for day := 0; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 400, "", entry.ContextHome))
		entries = append(entries, testEntry(day, 13, 700, "", entry.ContextRestaurant))
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Type != TypeContext {
		t.Errorf("Expected type %s, got %s", TypeContext, c.Type)
	}
	if avg, ok := c.Evidence["avg_out_calories"].(float64); !ok || !almostEqual(avg, 700) {
		t.Errorf("Expected avg_out_calories 700, got %v", c.Evidence["avg_out_calories"])
	}
}

func TestDetectSkipBinge(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	// Six days skip lunch and load the evening, four days eat lunch
	var entries []entry.MealEntry
	for day := 0; day < 6; day++ {
		entries = append(entries, testEntry(day, 8, 200, "", ""))
		entries = append(entries, testEntry(day, 19, 800, "", ""))
	}
	for day := 6; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 500, "", ""))
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Type != TypeSkip {
		t.Errorf("Expected type %s, got %s", TypeSkip, c.Type)
	}
	if !almostEqual(c.Confidence, 0.6) {
		t.Errorf("Expected confidence 0.6, got %f", c.Confidence)
	}
	if days, ok := c.Evidence["skip_binge_days"].(int); !ok || days != 6 {
		t.Errorf("Expected skip_binge_days 6, got %v", c.Evidence["skip_binge_days"])
	}
	if days, ok := c.Evidence["total_days"].(int); !ok || days != 10 {
		t.Errorf("Expected total_days 10, got %v", c.Evidence["total_days"])
	}
}

func TestDetectNoSignal(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	// Regular lunches only: no comparison bucket ever fills, so every
	// detector stays silent
	var entries []entry.MealEntry
	for day := 0; day < 12; day++ {
		entries = append(entries, testEntry(day, 12, 450, "", ""))
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) != 0 {
		t.Errorf("Expected no candidates, got %d: %+v", len(candidates), candidates)
	}
}

func TestDetectColdStart(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	var entries []entry.MealEntry
	for day := 0; day < 5; day++ {
		entries = append(entries, testEntry(day, 12, 400, "", ""))
	}

	candidates := detector.Detect(entries, "emotional_eater")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 seeded candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Type != TypeMood {
		t.Errorf("Expected type %s, got %s", TypeMood, c.Type)
	}
	if c.Confidence > 0.4 {
		t.Errorf("Cold start confidence must not exceed 0.4, got %f", c.Confidence)
	}
	if c.Evidence["source"] != "cold_start" {
		t.Errorf("Expected cold_start evidence source, got %v", c.Evidence["source"])
	}
	if c.Evidence["cluster_id"] != "emotional_eater" {
		t.Errorf("Expected cluster_id emotional_eater, got %v", c.Evidence["cluster_id"])
	}
}

func TestDetectColdStartUnknownCluster(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	candidates := detector.Detect(nil, "night_owl")

	if len(candidates) != 1 {
		t.Fatalf("Expected 1 seeded candidate, got %d", len(candidates))
	}

	c := candidates[0]
	if c.Type != TypeTime {
		t.Errorf("Expected general fallback type %s, got %s", TypeTime, c.Type)
	}
	if !almostEqual(c.Confidence, 0.25) {
		t.Errorf("Expected confidence 0.25, got %f", c.Confidence)
	}
	if c.Evidence["cluster_id"] != "general" {
		t.Errorf("Expected fallback cluster general, got %v", c.Evidence["cluster_id"])
	}
}

func TestDetectDeterministic(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	var entries []entry.MealEntry
	for day := 0; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 200, entry.MoodBad, entry.ContextHome))
		entries = append(entries, testEntry(day, 19, 500, entry.MoodOK, entry.ContextRestaurant))
	}

	first := detector.Detect(entries, "")
	second := detector.Detect(entries, "")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Detection is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestDetectRankedByConfidence(t *testing.T) {
	detector := NewDetector(nil, 10, testLogger())

	// Skip-binge on 6 of 10 days (confidence 0.6) plus emotional eating
	// every day (confidence 1.0): mood must rank first
	var entries []entry.MealEntry
	for day := 0; day < 6; day++ {
		entries = append(entries, testEntry(day, 8, 900, entry.MoodBad, ""))
		entries = append(entries, testEntry(day, 19, 2100, entry.MoodBad, ""))
	}
	for day := 6; day < 10; day++ {
		entries = append(entries, testEntry(day, 12, 900, entry.MoodBad, ""))
		entries = append(entries, testEntry(day, 13, 400, entry.MoodOK, ""))
	}

	candidates := detector.Detect(entries, "")

	if len(candidates) < 2 {
		t.Fatalf("Expected at least 2 candidates, got %d", len(candidates))
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Confidence > candidates[i-1].Confidence {
			t.Errorf("Candidates not sorted by confidence: %+v", candidates)
		}
	}
	if candidates[0].Type != TypeMood {
		t.Errorf("Expected strongest candidate to be mood, got %s", candidates[0].Type)
	}
}
