package risk

// Internal time window identifiers
const (
	windowEvening   = "evening"
	windowAfternoon = "afternoon"
	windowNight     = "night"
	windowLunch     = "lunch"
)

// windowLabels maps internal window identifiers to user-facing text.
// The empty identifier maps to an empty label.
var windowLabels = map[string]string{
	windowEvening:   "in the evening (18:00-22:00)",
	windowAfternoon: "in the afternoon (15:00-18:00)",
	windowNight:     "late at night (22:00+)",
	windowLunch:     "around lunchtime (12:00-14:00)",
}

// recommendations holds one micro-exercise per pattern type, keyed by the
// strongest contributor to the score
var recommendations = map[string]string{
	"time": "Try the 10-minute rule: wait 10 minutes before snacking. " +
		"The urge often passes on its own.",
	"mood": "Stop and take 3 deep breaths. " +
		"Ask yourself: am I hungry, or am I feeling down?",
	"skip": "It is important to eat now. Skipping a meal raises the risk " +
		"of overeating in the evening. Pick a light snack.",
	"context": "Before leaving home, think about what you want to eat. " +
		"A conscious choice is your best tool.",
	"default": "Pause and ask yourself: what am I feeling right now? " +
		"Awareness is the first step.",
}

func recommendationFor(contributor string) string {
	if r, ok := recommendations[contributor]; ok {
		return r
	}
	return recommendations["default"]
}
