package entry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDerivedFields(t *testing.T) {
	e := MealEntry{
		LoggedAt:      time.Date(2025, 3, 15, 19, 30, 0, 0, time.UTC),
		TotalCalories: 650,
	}

	assert.Equal(t, 19, e.Hour())
	assert.Equal(t, time.Saturday, e.Weekday())
	assert.Equal(t, "2025-03-15", e.DayKey())
}

func TestMoodPredicates(t *testing.T) {
	tests := []struct {
		mood string
		bad  bool
		ok   bool
	}{
		{MoodGreat, false, true},
		{MoodOK, false, true},
		{MoodMeh, false, false},
		{MoodBad, true, false},
		{MoodAwful, true, false},
		{"", false, false},
	}

	for _, tt := range tests {
		e := MealEntry{Mood: tt.mood}
		assert.Equal(t, tt.bad, e.HasBadMood(), "mood %q", tt.mood)
		assert.Equal(t, tt.ok, e.HasOKMood(), "mood %q", tt.mood)
	}
}

func TestContextPredicates(t *testing.T) {
	assert.True(t, MealEntry{Context: ContextRestaurant}.IsAwayFromHome())
	assert.True(t, MealEntry{Context: ContextStreet}.IsAwayFromHome())
	assert.False(t, MealEntry{Context: ContextHome}.IsAwayFromHome())
	assert.False(t, MealEntry{Context: ContextWork}.IsAwayFromHome())
	assert.False(t, MealEntry{}.IsAwayFromHome())
}
