package mqtt

import "fmt"

// Topic constants for the mindful-platform event bus
const (
	// Entry-logged events published by the food logging service (input)
	TopicEntryLogged = "mindful/entry/logged/+"

	// Manual trigger topics (input)
	TopicSweepTrigger   = "mindful/analytics/sweep"
	TopicInsightTrigger = "mindful/insight/generate"

	// Event topics published by the analytics agents (output)
	TopicPatternsBase = "mindful/patterns"
	TopicRiskBase     = "mindful/risk"
	TopicInsightBase  = "mindful/insight"
)

// EntryLoggedTopic constructs the entry-logged topic for a specific user
// Pattern: mindful/entry/logged/{user_id}
func EntryLoggedTopic(userID string) string {
	return fmt.Sprintf("mindful/entry/logged/%s", userID)
}

// PatternsTopic constructs the pattern event topic for a specific user
// Pattern: mindful/patterns/{user_id}
func PatternsTopic(userID string) string {
	return fmt.Sprintf("mindful/patterns/%s", userID)
}

// RiskTopic constructs the risk event topic for a specific user
// Pattern: mindful/risk/{user_id}
func RiskTopic(userID string) string {
	return fmt.Sprintf("mindful/risk/%s", userID)
}

// InsightTopic constructs the insight event topic for a specific user
// Pattern: mindful/insight/{user_id}
func InsightTopic(userID string) string {
	return fmt.Sprintf("mindful/insight/%s", userID)
}
