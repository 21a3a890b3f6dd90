package risk

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/internal/entry"
	"github.com/savorly/mindful-platform/internal/pattern"
)

// 2025-03-15 is a Saturday, 2025-03-12 a Wednesday
var (
	saturdayEvening  = time.Date(2025, 3, 15, 20, 0, 0, 0, time.UTC)
	wednesdayEvening = time.Date(2025, 3, 12, 20, 0, 0, 0, time.UTC)
)

func activePattern(ptype string, confidence float64) pattern.Pattern {
	return pattern.Pattern{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Type:       ptype,
		Confidence: confidence,
		Active:     true,
	}
}

func todayEntry(at time.Time, hour, calories int, mood string) entry.MealEntry {
	return entry.MealEntry{
		ID:            uuid.New(),
		LoggedAt:      time.Date(at.Year(), at.Month(), at.Day(), hour, 0, 0, 0, time.UTC),
		TotalCalories: calories,
		Mood:          mood,
	}
}

func TestCalculateNoPatterns(t *testing.T) {
	score := Calculate(nil, nil, saturdayEvening)

	if score != nil {
		t.Errorf("Expected nil score without active patterns, got %+v", score)
	}
}

func TestCalculateWeekendAmplifiesEveningRisk(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeTime, 0.8)}

	weekend := Calculate(patterns, nil, saturdayEvening)
	weekday := Calculate(patterns, nil, wednesdayEvening)

	if weekend == nil || weekday == nil {
		t.Fatal("Expected scores for both days")
	}

	// 0.8 * 0.4 * (5/6) = 0.267, times 1.3 on the weekend
	if !almostEqual(weekday.Score, 0.8*0.4*5.0/6.0) {
		t.Errorf("Unexpected weekday score %f", weekday.Score)
	}
	if !almostEqual(weekend.Score, 0.8*0.4*5.0/6.0*1.3) {
		t.Errorf("Unexpected weekend score %f", weekend.Score)
	}

	if weekday.Level != LevelLow {
		t.Errorf("Expected weekday level low, got %s", weekday.Level)
	}
	if weekend.Level != LevelMedium {
		t.Errorf("Expected weekend level medium, got %s", weekend.Level)
	}

	if !strings.Contains(weekend.TimeWindow, "evening") {
		t.Errorf("Expected evening window, got %q", weekend.TimeWindow)
	}
	if weekend.Recommendation != recommendations["time"] {
		t.Errorf("Expected time recommendation, got %q", weekend.Recommendation)
	}
}

func TestCalculateTimeRiskBeforeRamp(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeTime, 1.0)}
	morning := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)

	score := Calculate(patterns, nil, morning)

	if score == nil {
		t.Fatal("Expected a score")
	}
	if score.Score != 0 {
		t.Errorf("Expected zero risk in the morning, got %f", score.Score)
	}
	if score.Level != LevelLow {
		t.Errorf("Expected level low, got %s", score.Level)
	}
	if score.TimeWindow != "" {
		t.Errorf("Expected no time window, got %q", score.TimeWindow)
	}
}

func TestCalculateHighCalorieDampening(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeTime, 1.0)}
	at := time.Date(2025, 3, 12, 21, 0, 0, 0, time.UTC)

	light := Calculate(patterns, []entry.MealEntry{
		todayEntry(at, 9, 400, ""),
	}, at)
	heavy := Calculate(patterns, []entry.MealEntry{
		todayEntry(at, 9, 1600, ""),
	}, at)

	if !almostEqual(light.Score, 0.4) {
		t.Errorf("Expected score 0.4 on a light day, got %f", light.Score)
	}
	if !almostEqual(heavy.Score, 0.4*0.7) {
		t.Errorf("Expected dampened score 0.28, got %f", heavy.Score)
	}
	if heavy.Level != LevelLow {
		t.Errorf("Expected dampened level low, got %s", heavy.Level)
	}
}

func TestCalculateSkipRiskGatedOnLunch(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeSkip, 0.8)}
	at := time.Date(2025, 3, 12, 16, 0, 0, 0, time.UTC)

	noLunch := Calculate(patterns, nil, at)
	withLunch := Calculate(patterns, []entry.MealEntry{
		todayEntry(at, 12, 500, ""),
	}, at)

	if !almostEqual(noLunch.Score, 0.4) {
		t.Errorf("Expected score 0.4 with lunch skipped, got %f", noLunch.Score)
	}
	if noLunch.Level != LevelMedium {
		t.Errorf("Expected level medium, got %s", noLunch.Level)
	}
	if !strings.Contains(noLunch.TimeWindow, "evening") {
		t.Errorf("Expected evening window, got %q", noLunch.TimeWindow)
	}

	if withLunch.Score != 0 {
		t.Errorf("Expected zero risk once lunch is logged, got %f", withLunch.Score)
	}
	if withLunch.Recommendation != recommendations["default"] {
		t.Errorf("Expected default recommendation, got %q", withLunch.Recommendation)
	}
}

func TestCalculateSkipRiskWaitsForAfternoon(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeSkip, 0.8)}
	at := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)

	score := Calculate(patterns, nil, at)

	if score.Score != 0 {
		t.Errorf("Expected no skip risk at 15:00, got %f", score.Score)
	}
}

func TestCalculateMoodRiskNeedsBadMood(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeMood, 1.0)}
	at := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)

	calm := Calculate(patterns, []entry.MealEntry{
		todayEntry(at, 9, 300, entry.MoodOK),
	}, at)
	upset := Calculate(patterns, []entry.MealEntry{
		todayEntry(at, 9, 300, entry.MoodAwful),
	}, at)

	if calm.Score != 0 {
		t.Errorf("Expected zero mood risk without bad mood, got %f", calm.Score)
	}
	if !almostEqual(upset.Score, 0.3) {
		t.Errorf("Expected score 0.3 with bad mood, got %f", upset.Score)
	}
	if upset.Level != LevelMedium {
		t.Errorf("Expected boundary score to classify medium, got %s", upset.Level)
	}
	if upset.Recommendation != recommendations["mood"] {
		t.Errorf("Expected mood recommendation, got %q", upset.Recommendation)
	}
}

func TestCalculateContextAlwaysContributes(t *testing.T) {
	patterns := []pattern.Pattern{activePattern(pattern.TypeContext, 0.5)}
	at := time.Date(2025, 3, 12, 8, 0, 0, 0, time.UTC)

	score := Calculate(patterns, nil, at)

	if !almostEqual(score.Score, 0.1) {
		t.Errorf("Expected score 0.1, got %f", score.Score)
	}
	if score.Recommendation != recommendations["context"] {
		t.Errorf("Expected context recommendation, got %q", score.Recommendation)
	}
}

func TestCalculateClampsToOne(t *testing.T) {
	patterns := []pattern.Pattern{
		activePattern(pattern.TypeTime, 1.0),
		activePattern(pattern.TypeSkip, 1.0),
		activePattern(pattern.TypeMood, 1.0),
		activePattern(pattern.TypeContext, 1.0),
	}
	at := time.Date(2025, 3, 15, 21, 0, 0, 0, time.UTC)

	score := Calculate(patterns, []entry.MealEntry{
		todayEntry(at, 9, 300, entry.MoodBad),
	}, at)

	if score.Score != 1.0 {
		t.Errorf("Expected score clamped to 1.0, got %f", score.Score)
	}
	if score.Level != LevelHigh {
		t.Errorf("Expected level high, got %s", score.Level)
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
