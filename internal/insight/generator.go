package insight

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/savorly/mindful-platform/internal/entry"
	"github.com/savorly/mindful-platform/internal/pattern"
)

// Generator renders insights from the template library
type Generator struct {
	freeLimit int
	logger    *slog.Logger
}

// NewGenerator creates a generator with the free-tier insight limit
func NewGenerator(freeLimit int, logger *slog.Logger) *Generator {
	return &Generator{
		freeLimit: freeLimit,
		logger:    logger,
	}
}

// Generate produces the next insight for a user. The rotation cursor
// (insightCount) picks the archetype, patterns must be ordered strongest
// first, and entries should cover the last 14 days so the progress
// archetype can compare week over week. The caller persists the result
// and increments the cursor.
func (g *Generator) Generate(insightCount int, patterns []pattern.Pattern, entries []entry.MealEntry, tier string, now time.Time) Insight {
	insightType := RotationType(insightCount)

	var title, body, action string
	var patternID *uuid.UUID

	switch insightType {
	case TypePattern:
		title, body, action, patternID = g.patternInsight(patterns)
	case TypeProgress:
		title, body, action = g.progressInsight(entries, now)
	case TypeCBT:
		title, body, action = g.cbtInsight(insightCount)
	case TypeRisk:
		title, body, action = g.riskInsight(patterns, entries, now)
	}

	locked := tier == "free" && insightCount >= g.freeLimit

	g.logger.Debug("Insight generated",
		"type", insightType,
		"rotation_cursor", insightCount,
		"locked", locked)

	return Insight{
		ID:        uuid.New(),
		PatternID: patternID,
		Type:      insightType,
		Title:     title,
		Body:      body,
		Action:    action,
		IsLocked:  locked,
		CreatedAt: now,
	}
}

// patternInsight renders the top-confidence pattern, falling back to the
// onboarding message when the user has none
func (g *Generator) patternInsight(patterns []pattern.Pattern) (string, string, string, *uuid.UUID) {
	if len(patterns) == 0 {
		return fallbackInsight.title, fallbackInsight.body, fallbackInsight.action, nil
	}

	top := patterns[0]
	tpl, ok := patternTemplates[top.Type]
	if !ok {
		return fallbackInsight.title, fallbackInsight.body, fallbackInsight.action, nil
	}

	body := fmt.Sprintf(tpl.body, formatEvidence(top))
	id := top.ID
	return tpl.title, body, tpl.action, &id
}

// progressInsight compares the trailing week's logging volume with the
// week before it
func (g *Generator) progressInsight(entries []entry.MealEntry, now time.Time) (string, string, string) {
	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)

	thisWeek := 0
	lastWeek := 0
	for _, e := range entries {
		switch {
		case !e.LoggedAt.Before(weekAgo):
			thisWeek++
		case !e.LoggedAt.Before(twoWeeksAgo):
			lastWeek++
		}
	}

	var comparison string
	switch {
	case lastWeek == 0:
		comparison = "That is a good start!"
	case thisWeek > lastWeek:
		comparison = fmt.Sprintf("That is %d more than the week before, great progress!", thisWeek-lastWeek)
	case thisWeek < lastWeek:
		comparison = fmt.Sprintf("The week before had %d. Try to get back to that pace.", lastWeek)
	default:
		comparison = "A steady result, keep it up!"
	}

	body := fmt.Sprintf(progressTemplate.body, thisWeek, comparison)
	return progressTemplate.title, body, progressTemplate.action
}

// cbtInsight rotates through the technique library. The index advances in
// lockstep with the 7-step archetype rotation, by the same cursor.
func (g *Generator) cbtInsight(insightCount int) (string, string, string) {
	t := cbtLibrary[insightCount%len(cbtLibrary)]
	return t.title, t.body, t.action
}

// riskInsight summarizes the trailing week: logging volume, detected
// patterns, and a tone set by how many patterns are active
func (g *Generator) riskInsight(patterns []pattern.Pattern, entries []entry.MealEntry, now time.Time) (string, string, string) {
	weekAgo := now.AddDate(0, 0, -7)
	entryCount := 0
	for _, e := range entries {
		if !e.LoggedAt.Before(weekAgo) {
			entryCount++
		}
	}

	var parts []string
	if entryCount > 0 {
		parts = append(parts, fmt.Sprintf("you logged %d meals", entryCount))
	} else {
		parts = append(parts, "no meals logged yet this week")
	}

	if len(patterns) > 0 {
		named := make([]string, 0, 2)
		for _, p := range patterns {
			name, ok := patternTypeNames[p.Type]
			if !ok {
				name = p.Type
			}
			named = append(named, name)
			if len(named) == 2 {
				break
			}
		}
		parts = append(parts, "patterns found: "+strings.Join(named, ", "))
	}

	var riskNote string
	switch {
	case len(patterns) >= 2:
		riskNote = "Several patterns are active, give them some attention."
	case len(patterns) == 1:
		riskNote = "One pattern is active, you are already on the path to awareness."
	default:
		riskNote = "Keep logging meals for a sharper analysis."
	}

	body := fmt.Sprintf(riskTemplate.body, joinSummaryParts(parts), riskNote)
	return riskTemplate.title, body, riskTemplate.action
}
