package risk

import (
	"time"

	"github.com/savorly/mindful-platform/internal/entry"
	"github.com/savorly/mindful-platform/internal/pattern"
)

// Risk levels
const (
	LevelLow    = "low"
	LevelMedium = "medium"
	LevelHigh   = "high"
)

// Per-type weights on pattern confidence
const (
	timeWeight    = 0.4
	moodWeight    = 0.3
	skipWeight    = 0.5
	contextWeight = 0.2
)

// Daily and weekly adjustments
const (
	highCalorieCutoff = 1500
	highCalorieDampen = 0.7
	weekendAmplifier  = 1.3
	riskRampStartHour = 15
	riskRampSpanHours = 6.0
	lowCeiling        = 0.3
	mediumCeiling     = 0.6
)

// Score is a same-day risk assessment. It is derived fresh on every call
// and never persisted as durable state.
type Score struct {
	Score          float64 `json:"score"`
	Level          string  `json:"level"`
	TimeWindow     string  `json:"time_window,omitempty"`
	Recommendation string  `json:"recommendation,omitempty"`
}

// Calculate combines active patterns with today's entries and the clock to
// produce a risk score. Returns nil when the user has no active patterns,
// since there is nothing to assess against.
func Calculate(patterns []pattern.Pattern, today []entry.MealEntry, now time.Time) *Score {
	if len(patterns) == 0 {
		return nil
	}

	currentHour := now.Hour()
	weekday := now.Weekday()
	isWeekend := weekday == time.Saturday || weekday == time.Sunday

	lunchLogged := false
	hasBadMood := false
	totalCalories := 0
	for _, e := range today {
		if h := e.Hour(); h >= 11 && h <= 14 {
			lunchLogged = true
		}
		if e.HasBadMood() {
			hasBadMood = true
		}
		totalCalories += e.TotalCalories
	}
	highCalorieDay := totalCalories > highCalorieCutoff

	risk := 0.0
	topContributor := "default"
	topContribution := 0.0
	window := ""

	for _, p := range patterns {
		contribution := 0.0

		switch p.Type {
		case pattern.TypeTime:
			// Evening loading ramps from mid-afternoon and peaks at 21:00
			if currentHour >= riskRampStartHour {
				hourFactor := float64(currentHour-riskRampStartHour) / riskRampSpanHours
				if hourFactor > 1 {
					hourFactor = 1
				}
				contribution = p.Confidence * timeWeight * hourFactor
				if contribution > 0 {
					window = windowEvening
				}
			}

		case pattern.TypeMood:
			if hasBadMood {
				contribution = p.Confidence * moodWeight
			}

		case pattern.TypeSkip:
			if !lunchLogged && currentHour > riskRampStartHour {
				contribution = p.Confidence * skipWeight
				if window == "" {
					window = windowEvening
				}
			}

		case pattern.TypeContext:
			contribution = p.Confidence * contextWeight
		}

		risk += contribution
		if contribution > topContribution {
			topContribution = contribution
			topContributor = p.Type
		}
	}

	if highCalorieDay {
		risk *= highCalorieDampen
	}
	if isWeekend {
		risk *= weekendAmplifier
	}

	if risk < 0 {
		risk = 0
	}
	if risk > 1 {
		risk = 1
	}

	level := LevelHigh
	switch {
	case risk < lowCeiling:
		level = LevelLow
	case risk <= mediumCeiling:
		level = LevelMedium
	}

	return &Score{
		Score:          risk,
		Level:          level,
		TimeWindow:     windowLabels[window],
		Recommendation: recommendationFor(topContributor),
	}
}
