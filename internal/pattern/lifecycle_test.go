package pattern

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestReconcileNewCandidate(t *testing.T) {
	userID := uuid.New()
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

	active := []Pattern{
		{ID: uuid.New(), UserID: userID, Type: TypeTime, Confidence: 0.8, Active: true},
	}
	candidates := []Candidate{
		{Type: TypeMood, Confidence: 0.7, Evidence: Evidence{"ratio": 2.1}},
	}

	rec := Reconcile(candidates, active, userID, now)

	if len(rec.New) != 1 {
		t.Fatalf("Expected 1 new pattern, got %d", len(rec.New))
	}
	if len(rec.Superseded) != 0 {
		t.Errorf("Expected no superseded patterns, got %d", len(rec.Superseded))
	}

	p := rec.New[0]
	if p.Type != TypeMood {
		t.Errorf("Expected type %s, got %s", TypeMood, p.Type)
	}
	if p.UserID != userID {
		t.Errorf("Expected user %s, got %s", userID, p.UserID)
	}
	if p.ID == uuid.Nil {
		t.Error("New pattern must receive an identity")
	}
	if !p.Active {
		t.Error("New pattern must start active")
	}
	if !p.DiscoveredAt.Equal(now) {
		t.Errorf("Expected discovered_at %v, got %v", now, p.DiscoveredAt)
	}
}

func TestReconcileDropsKnownTypes(t *testing.T) {
	userID := uuid.New()

	active := []Pattern{
		{ID: uuid.New(), UserID: userID, Type: TypeTime, Confidence: 0.6, Active: true},
	}
	candidates := []Candidate{
		{Type: TypeTime, Confidence: 0.9},
	}

	rec := Reconcile(candidates, active, userID, time.Now())

	if len(rec.New) != 0 {
		t.Errorf("Re-detection of an active type must not create patterns, got %d", len(rec.New))
	}
	if len(rec.Superseded) != 0 {
		t.Errorf("Re-detection of an active type must not supersede, got %d", len(rec.Superseded))
	}
}

func TestReconcileEmptyCandidates(t *testing.T) {
	rec := Reconcile(nil, nil, uuid.New(), time.Now())

	if len(rec.New) != 0 || len(rec.Superseded) != 0 {
		t.Errorf("Expected empty reconciliation, got %+v", rec)
	}
}

func TestDisputeDecay(t *testing.T) {
	p := Pattern{ID: uuid.New(), Type: TypeMood, Confidence: 0.8, Active: true}

	p = Dispute(p)
	if !almostEqual(p.Confidence, 0.6) || !p.Active {
		t.Errorf("After 1st dispute expected 0.6/active, got %f/%v", p.Confidence, p.Active)
	}

	p = Dispute(p)
	if !almostEqual(p.Confidence, 0.4) || !p.Active {
		t.Errorf("After 2nd dispute expected 0.4/active, got %f/%v", p.Confidence, p.Active)
	}

	p = Dispute(p)
	if !almostEqual(p.Confidence, 0.2) || p.Active {
		t.Errorf("After 3rd dispute expected 0.2/inactive, got %f/%v", p.Confidence, p.Active)
	}
}

func TestDisputeFloorsAtZero(t *testing.T) {
	p := Pattern{ID: uuid.New(), Type: TypeSkip, Confidence: 0.1, Active: true}

	p = Dispute(p)

	if p.Confidence != 0 {
		t.Errorf("Expected confidence floored at 0, got %f", p.Confidence)
	}
	if p.Active {
		t.Error("Expected pattern deactivated")
	}
}

func TestDisputeKeepsThresholdBoundary(t *testing.T) {
	// Landing exactly on the threshold does not deactivate
	p := Pattern{ID: uuid.New(), Type: TypeContext, Confidence: 0.5, Active: true}

	p = Dispute(p)

	if !p.Active {
		t.Errorf("Expected pattern at threshold to stay active, confidence %f", p.Confidence)
	}
}
