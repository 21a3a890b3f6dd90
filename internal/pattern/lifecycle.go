package pattern

import (
	"time"

	"github.com/google/uuid"
)

const (
	// disputePenalty is how much confidence each user dispute removes
	disputePenalty = 0.2

	// deactivationThreshold retires a pattern once disputes push its
	// confidence under it
	deactivationThreshold = 0.3
)

// Reconciliation is the outcome of matching detector candidates against
// a user's stored active patterns
type Reconciliation struct {
	// New holds the patterns to insert, already stamped with identity
	New []Pattern

	// Superseded holds the IDs of active patterns replaced by a new
	// detection of the same type
	Superseded []uuid.UUID
}

// Reconcile decides which candidates become stored patterns. A candidate
// whose type already has an active pattern is dropped, so re-detection of
// a known behavior never duplicates or refreshes it. Remaining candidates
// supersede any active patterns that share their type.
func Reconcile(candidates []Candidate, active []Pattern, userID uuid.UUID, now time.Time) Reconciliation {
	activeTypes := make(map[string]struct{}, len(active))
	for _, p := range active {
		activeTypes[p.Type] = struct{}{}
	}

	var fresh []Candidate
	for _, c := range candidates {
		if _, exists := activeTypes[c.Type]; exists {
			continue
		}
		fresh = append(fresh, c)
	}

	var rec Reconciliation
	if len(fresh) == 0 {
		return rec
	}

	freshTypes := make(map[string]struct{}, len(fresh))
	for _, c := range fresh {
		freshTypes[c.Type] = struct{}{}
	}
	for _, p := range active {
		if _, replaced := freshTypes[p.Type]; replaced {
			rec.Superseded = append(rec.Superseded, p.ID)
		}
	}

	for _, c := range fresh {
		rec.New = append(rec.New, Pattern{
			ID:           uuid.New(),
			UserID:       userID,
			Type:         c.Type,
			Confidence:   c.Confidence,
			Evidence:     c.Evidence,
			Active:       true,
			DiscoveredAt: now,
		})
	}

	return rec
}

// Dispute applies one user disagreement to a pattern. Confidence drops by
// a fixed penalty, floored at zero, and the pattern deactivates once it
// falls under the deactivation threshold.
func Dispute(p Pattern) Pattern {
	p.Confidence -= disputePenalty
	if p.Confidence < 0 {
		p.Confidence = 0
	}
	if p.Confidence < deactivationThreshold {
		p.Active = false
	}
	return p
}
