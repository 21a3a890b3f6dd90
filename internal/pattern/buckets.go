package pattern

// Hour buckets used by the statistical detectors. Night wraps midnight.
const (
	morningStart = 6
	morningEnd   = 10

	lunchStart = 11
	lunchEnd   = 14

	afternoonStart = 15
	afternoonEnd   = 17

	eveningStart = 18
	eveningEnd   = 21
)

func isLunchHour(hour int) bool {
	return hour >= lunchStart && hour <= lunchEnd
}

func isEveningHour(hour int) bool {
	return hour >= eveningStart && hour <= eveningEnd
}
