package redis

import "fmt"

// Key construction helpers for the analytics cache schema

// RiskKey returns the key for a user's cached risk score (string, short TTL)
// Pattern: risk:current:{user_id}
func RiskKey(userID string) string {
	return fmt.Sprintf("risk:current:%s", userID)
}

// RiskHistoryKey returns the key for a user's risk score timeline (sorted set)
// Pattern: risk:history:{user_id}
func RiskHistoryKey(userID string) string {
	return fmt.Sprintf("risk:history:%s", userID)
}

// InsightMarkerKey returns the key marking that an insight was generated
// for a user on a given day (string, expires after the day)
// Pattern: insight:generated:{user_id}:{yyyy-mm-dd}
func InsightMarkerKey(userID, day string) string {
	return fmt.Sprintf("insight:generated:%s:%s", userID, day)
}
