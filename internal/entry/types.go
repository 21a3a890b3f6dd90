package entry

import (
	"time"

	"github.com/google/uuid"
)

// Mood values recorded with a meal entry, ordered best to worst
const (
	MoodGreat = "great"
	MoodOK    = "ok"
	MoodMeh   = "meh"
	MoodBad   = "bad"
	MoodAwful = "awful"
)

// Location context values for a meal entry
const (
	ContextHome       = "home"
	ContextWork       = "work"
	ContextStreet     = "street"
	ContextRestaurant = "restaurant"
)

// MealEntry is a single structured meal-log record. Entries are written by
// the food logging service and are read-only to the analytics agents.
type MealEntry struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	LoggedAt      time.Time
	TotalCalories int
	Mood          string // empty when not recorded
	Context       string // empty when not recorded
}

// Hour returns the hour of day (0-23) the entry was logged
func (e MealEntry) Hour() int {
	return e.LoggedAt.Hour()
}

// Weekday returns the day of week the entry was logged
func (e MealEntry) Weekday() time.Weekday {
	return e.LoggedAt.Weekday()
}

// DayKey returns the calendar day of the entry as yyyy-mm-dd
func (e MealEntry) DayKey() string {
	return e.LoggedAt.Format("2006-01-02")
}

// HasBadMood reports whether the entry carries a bad or awful mood
func (e MealEntry) HasBadMood() bool {
	return e.Mood == MoodBad || e.Mood == MoodAwful
}

// HasOKMood reports whether the entry carries an ok or great mood
func (e MealEntry) HasOKMood() bool {
	return e.Mood == MoodOK || e.Mood == MoodGreat
}

// IsAwayFromHome reports whether the entry was logged in a restaurant or
// on the street
func (e MealEntry) IsAwayFromHome() bool {
	return e.Context == ContextRestaurant || e.Context == ContextStreet
}
