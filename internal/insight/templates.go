package insight

import (
	"fmt"
	"strings"

	"github.com/savorly/mindful-platform/internal/pattern"
)

// Template texts are CBT-informed, empathetic, and non-judgmental.

type patternTemplate struct {
	title  string
	body   string // contains a %s slot for the evidence sentence
	action string
}

var patternTemplates = map[string]patternTemplate{
	pattern.TypeTime: {
		title: "Your eating schedule",
		body: "We noticed you often eat more in the evening. %s " +
			"Try a bigger lunch, it can take the edge off evening appetite.",
		action: "Tomorrow, add a portion of protein to lunch (chicken, eggs, tofu)",
	},
	pattern.TypeMood: {
		title: "Mood and food",
		body: "Your data shows a link between mood and meal size. %s " +
			"This is a normal reaction, and noticing it is already the first step.",
		action: "When your mood dips, try a 5-minute walk before eating",
	},
	pattern.TypeContext: {
		title: "Where you eat",
		body: "An interesting find: where you eat shapes what you choose. %s " +
			"Being deliberate about the place is key to managing your eating.",
		action: "This week, swap one restaurant meal for a home-cooked one",
	},
	pattern.TypeSkip: {
		title: "Skipped meals",
		body: "We noticed a pattern of skipping lunch. %s " +
			"Eating regularly helps avoid overeating in the evening.",
		action: "Set a lunch reminder for 13:00",
	},
}

var progressTemplate = struct {
	title  string
	body   string // %d entry count, %s comparison sentence
	action string
}{
	title: "Your progress",
	body: "Over the past week you logged %d meals. %s " +
		"Keep the journal going, it is your main mindfulness tool.",
	action: "Try to log every meal over the coming week",
}

// cbtLibrary holds the technique rotation. Order matters: the rotation
// cursor indexes into it.
var cbtLibrary = []struct {
	title  string
	body   string
	action string
}{
	{
		title: "CBT technique: the food thought diary",
		body: "Cognitive behavioral therapy teaches you to notice automatic " +
			"thoughts before eating. Before your next meal, ask yourself: " +
			"am I eating because I am hungry, or for another reason?",
		action: "Before dinner, jot down your thoughts and feelings",
	},
	{
		title: "CBT technique: the 10-minute rule",
		body: "If you feel a craving for unhealthy food, wait 10 minutes. " +
			"The urge often passes, which is the urge-surfing principle from CBT.",
		action: "Next time you feel like snacking, set a 10-minute timer",
	},
	{
		title: "CBT technique: mindful eating",
		body: "Try eating without a screen. Research shows that paying " +
			"attention to your food reduces overeating by 20-30%.",
		action: "Have one meal today without your phone or TV",
	},
}

var riskTemplate = struct {
	title  string
	body   string // %s summary, %s risk note
	action string
}{
	title:  "Your week in review",
	body:   "This week: %s. %s Every week is a fresh chance to improve.",
	action: "Pick one small goal for the coming week",
}

var fallbackInsight = struct {
	title  string
	body   string
	action string
}{
	title: "Start your mindful eating journey",
	body: "Log every meal, even a small snack. The more data you add, " +
		"the sharper our guidance gets. Mindfulness starts with noticing.",
	action: "Log your next meal and include how you felt",
}

// patternTypeNames is used in weekly summaries
var patternTypeNames = map[string]string{
	pattern.TypeTime:    "an eating schedule pattern",
	pattern.TypeMood:    "a mood and food link",
	pattern.TypeContext: "a place-of-eating effect",
	pattern.TypeSkip:    "skipped meals",
}

// formatEvidence renders a pattern's stored evidence as one sentence.
// Missing values show as "?" rather than failing the whole insight.
func formatEvidence(p pattern.Pattern) string {
	switch p.Type {
	case pattern.TypeTime:
		return fmt.Sprintf("Average calories: lunch %v, dinner %v.",
			evidenceValue(p.Evidence, "avg_lunch_calories"),
			evidenceValue(p.Evidence, "avg_evening_calories"))
	case pattern.TypeMood:
		return fmt.Sprintf("On low-mood days you average %v kcal per meal, against %v kcal otherwise.",
			evidenceValue(p.Evidence, "avg_bad_mood_calories"),
			evidenceValue(p.Evidence, "avg_ok_mood_calories"))
	case pattern.TypeContext:
		return fmt.Sprintf("At home you average %v kcal, away from home %v kcal.",
			evidenceValue(p.Evidence, "avg_home_calories"),
			evidenceValue(p.Evidence, "avg_out_calories"))
	case pattern.TypeSkip:
		return fmt.Sprintf("Over the recent period: %v of %v days.",
			evidenceValue(p.Evidence, "skip_binge_days"),
			evidenceValue(p.Evidence, "total_days"))
	default:
		return ""
	}
}

func evidenceValue(e pattern.Evidence, key string) interface{} {
	if e == nil {
		return "?"
	}
	v, ok := e[key]
	if !ok {
		return "?"
	}
	return v
}

func joinSummaryParts(parts []string) string {
	return strings.Join(parts, "; ")
}
