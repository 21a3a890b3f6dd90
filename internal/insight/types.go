package insight

import (
	"time"

	"github.com/google/uuid"
)

// Insight archetypes produced by the rotation
const (
	TypePattern  = "pattern"
	TypeProgress = "progress"
	TypeCBT      = "cbt"
	TypeRisk     = "risk"
)

// redactedBodyLength is how much of a locked insight's body stays visible
const redactedBodyLength = 100

// Insight is one coaching message generated for a user. Immutable after
// creation except for the Seen flag.
type Insight struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	PatternID *uuid.UUID `json:"pattern_id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Action    string     `json:"action,omitempty"`
	IsLocked  bool       `json:"is_locked"`
	Seen      bool       `json:"seen"`
	CreatedAt time.Time  `json:"created_at"`
}

// Redact returns the free-tier teaser form of a locked insight: the body
// is truncated and the action removed. Unlocked insights pass through.
func (i Insight) Redact() Insight {
	if !i.IsLocked {
		return i
	}

	if len(i.Body) > redactedBodyLength {
		i.Body = i.Body[:redactedBodyLength] + "..."
	}
	i.Action = ""
	return i
}

// RotationType maps the rotation cursor to the archetype generated on
// this step. The cycle is 7 steps long: three pattern days, two progress
// days, one technique day, one weekly summary day.
func RotationType(insightCount int) string {
	dayInCycle := (insightCount % 7) + 1

	switch {
	case dayInCycle <= 3:
		return TypePattern
	case dayInCycle <= 5:
		return TypeProgress
	case dayInCycle == 6:
		return TypeCBT
	default:
		return TypeRisk
	}
}
