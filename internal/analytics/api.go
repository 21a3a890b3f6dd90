package analytics

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/internal/insight"
	"github.com/savorly/mindful-platform/internal/pattern"
)

// API serves the read and feedback endpoints over the analytics agent
type API struct {
	agent  *Agent
	logger *slog.Logger
}

// NewAPI creates the HTTP API for the analytics agent
func NewAPI(agent *Agent, logger *slog.Logger) *API {
	return &API{
		agent:  agent,
		logger: logger,
	}
}

// Routes returns the API route multiplexer
func (api *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/patterns/{user_id}", api.handleGetPatterns)
	mux.HandleFunc("POST /api/patterns/{user_id}/{pattern_id}/dispute", api.handleDisputePattern)
	mux.HandleFunc("GET /api/risk/{user_id}", api.handleGetRisk)
	mux.HandleFunc("GET /api/risk/{user_id}/history", api.handleGetRiskHistory)
	mux.HandleFunc("GET /api/insight/{user_id}", api.handleGetInsight)
	mux.HandleFunc("POST /api/insight/{user_id}/{insight_id}/seen", api.handleMarkSeen)

	return mux
}

type patternView struct {
	ID           uuid.UUID        `json:"id"`
	Type         string           `json:"type"`
	Confidence   float64          `json:"confidence"`
	Evidence     pattern.Evidence `json:"evidence,omitempty"`
	DiscoveredAt time.Time        `json:"discovered_at"`
}

func (api *API) handleGetPatterns(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.parseUUID(w, r.PathValue("user_id"))
	if !ok {
		return
	}

	active, err := api.agent.patterns.ListActive(r.Context(), userID)
	if err != nil {
		api.serverError(w, "Failed to load patterns", err)
		return
	}

	views := make([]patternView, 0, len(active))
	for _, p := range active {
		views = append(views, patternView{
			ID:           p.ID,
			Type:         p.Type,
			Confidence:   p.Confidence,
			Evidence:     p.Evidence,
			DiscoveredAt: p.DiscoveredAt,
		})
	}

	riskToday, err := api.agent.ComputeRisk(r.Context(), userID, time.Now().UTC())
	if err != nil {
		api.serverError(w, "Failed to compute risk", err)
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"patterns":   views,
		"risk_today": riskToday,
	})
}

func (api *API) handleDisputePattern(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.parseUUID(w, r.PathValue("user_id"))
	if !ok {
		return
	}
	patternID, ok := api.parseUUID(w, r.PathValue("pattern_id"))
	if !ok {
		return
	}

	updated, err := api.agent.DisputePattern(r.Context(), userID, patternID)
	if errors.Is(err, pattern.ErrNotFound) {
		api.writeError(w, http.StatusNotFound, "Pattern not found")
		return
	}
	if err != nil {
		api.serverError(w, "Failed to dispute pattern", err)
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"new_confidence": updated.Confidence,
		"active":         updated.Active,
	})
}

func (api *API) handleGetRisk(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.parseUUID(w, r.PathValue("user_id"))
	if !ok {
		return
	}

	score, err := api.agent.ComputeRisk(r.Context(), userID, time.Now().UTC())
	if err != nil {
		api.serverError(w, "Failed to compute risk", err)
		return
	}

	// No active patterns means nothing to assess, which is not an error
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"risk": score,
	})
}

func (api *API) handleGetRiskHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.parseUUID(w, r.PathValue("user_id"))
	if !ok {
		return
	}

	points, err := api.agent.RiskHistory(r.Context(), userID, time.Now().UTC())
	if err != nil {
		api.serverError(w, "Failed to load risk history", err)
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"history": points,
	})
}

func (api *API) handleGetInsight(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.parseUUID(w, r.PathValue("user_id"))
	if !ok {
		return
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	ins, err := api.agent.insights.Latest(r.Context(), userID, dayStart)
	if errors.Is(err, insight.ErrNotFound) {
		api.writeJSON(w, http.StatusOK, map[string]interface{}{
			"insight":   nil,
			"is_locked": false,
		})
		return
	}
	if err != nil {
		api.serverError(w, "Failed to load insight", err)
		return
	}

	redacted := ins.Redact()
	api.writeJSON(w, http.StatusOK, map[string]interface{}{
		"insight":   redacted,
		"is_locked": redacted.IsLocked,
	})
}

func (api *API) handleMarkSeen(w http.ResponseWriter, r *http.Request) {
	userID, ok := api.parseUUID(w, r.PathValue("user_id"))
	if !ok {
		return
	}
	insightID, ok := api.parseUUID(w, r.PathValue("insight_id"))
	if !ok {
		return
	}

	err := api.agent.insights.MarkSeen(r.Context(), userID, insightID)
	if errors.Is(err, insight.ErrNotFound) {
		api.writeError(w, http.StatusNotFound, "Insight not found")
		return
	}
	if err != nil {
		api.serverError(w, "Failed to mark insight seen", err)
		return
	}

	api.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (api *API) parseUUID(w http.ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		api.writeError(w, http.StatusBadRequest, "Invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (api *API) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		api.logger.Error("Failed to encode response", "error", err)
	}
}

func (api *API) writeError(w http.ResponseWriter, status int, message string) {
	api.writeJSON(w, status, map[string]string{"error": message})
}

func (api *API) serverError(w http.ResponseWriter, message string, err error) {
	api.logger.Error(message, "error", err)
	api.writeError(w, http.StatusInternalServerError, message)
}
