package pattern

import (
	"time"

	"github.com/google/uuid"
)

// Pattern types detected from meal history
const (
	TypeTime    = "time"    // evening-loading: evenings dominate lunch
	TypeMood    = "mood"    // emotional eating: bad-mood meals run larger
	TypeContext = "context" // eating out drives larger meals
	TypeSkip    = "skip"    // skipped lunch followed by an evening binge
)

// Evidence carries the numbers that support a detected pattern. Stored as
// jsonb so each pattern type can keep its own fields.
type Evidence map[string]interface{}

// Candidate is a pattern the detector proposes from the current window.
// It has no identity until the lifecycle reconciles it against stored state.
type Candidate struct {
	Type       string
	Confidence float64
	Evidence   Evidence
}

// Pattern is a persisted behavioral pattern attached to a user
type Pattern struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Type         string
	Confidence   float64
	Evidence     Evidence
	Active       bool
	DiscoveredAt time.Time
}
