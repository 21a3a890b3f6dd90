package pattern

import (
	"log/slog"
	"math"
	"sort"

	"github.com/savorly/mindful-platform/internal/entry"
)

const (
	// confidenceFloor is the minimum confidence for a statistical
	// candidate to survive ranking. Cold-start seeds are exempt.
	confidenceFloor = 0.5

	// maxCandidates caps how many candidates a single run can emit
	maxCandidates = 5
)

// Detector turns a window of meal entries into pattern candidates.
// Detection is pure: same entries in, same candidates out.
type Detector struct {
	seeds      CohortSeeds
	minEntries int
	logger     *slog.Logger
}

// NewDetector creates a detector with the given cohort seeds and the
// minimum entry count below which detection falls back to cold start
func NewDetector(seeds CohortSeeds, minEntries int, logger *slog.Logger) *Detector {
	if seeds == nil {
		seeds = DefaultCohortSeeds()
	}
	return &Detector{
		seeds:      seeds,
		minEntries: minEntries,
		logger:     logger,
	}
}

// Detect runs all statistical detectors over the entries and returns the
// ranked candidates. With fewer than minEntries entries it returns the
// cohort seed for clusterID instead of running statistics.
func (d *Detector) Detect(entries []entry.MealEntry, clusterID string) []Candidate {
	if len(entries) < d.minEntries {
		seeded := d.coldStart(clusterID)
		d.logger.Debug("Cold start detection",
			"entries", len(entries),
			"cluster_id", clusterID,
			"candidates", len(seeded))
		return seeded
	}

	var candidates []Candidate
	candidates = appendCandidate(candidates, detectTimePattern(entries))
	candidates = appendCandidate(candidates, detectMoodPattern(entries))
	candidates = appendCandidate(candidates, detectContextPattern(entries))
	candidates = appendCandidate(candidates, detectSkipPattern(entries))

	// Drop weak statistical signals before ranking
	kept := candidates[:0]
	for _, c := range candidates {
		if c.Confidence >= confidenceFloor {
			kept = append(kept, c)
		}
	}
	candidates = kept

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})

	if len(candidates) > maxCandidates {
		candidates = candidates[:maxCandidates]
	}

	d.logger.Debug("Statistical detection complete",
		"entries", len(entries),
		"candidates", len(candidates))

	return candidates
}

func appendCandidate(candidates []Candidate, c *Candidate) []Candidate {
	if c == nil {
		return candidates
	}
	return append(candidates, *c)
}

// detectTimePattern fires when evening meals average more than twice the
// calories of lunch meals. Confidence is the share of logged days that
// have an evening entry.
func detectTimePattern(entries []entry.MealEntry) *Candidate {
	var lunchTotal, lunchCount, eveningTotal, eveningCount int

	for _, e := range entries {
		switch {
		case isLunchHour(e.Hour()):
			lunchTotal += e.TotalCalories
			lunchCount++
		case isEveningHour(e.Hour()):
			eveningTotal += e.TotalCalories
			eveningCount++
		}
	}

	if lunchCount == 0 || eveningCount == 0 {
		return nil
	}

	avgLunch := float64(lunchTotal) / float64(lunchCount)
	avgEvening := float64(eveningTotal) / float64(eveningCount)

	if avgLunch == 0 || avgEvening <= 2*avgLunch {
		return nil
	}

	totalDays := make(map[string]struct{})
	eveningDays := make(map[string]struct{})
	for _, e := range entries {
		totalDays[e.DayKey()] = struct{}{}
		if isEveningHour(e.Hour()) {
			eveningDays[e.DayKey()] = struct{}{}
		}
	}

	return &Candidate{
		Type:       TypeTime,
		Confidence: dayShare(len(eveningDays), len(totalDays)),
		Evidence: Evidence{
			"avg_lunch_calories":   round1(avgLunch),
			"avg_evening_calories": round1(avgEvening),
			"ratio":                round2(avgEvening / avgLunch),
		},
	}
}

// detectMoodPattern fires when bad-mood meals average more than 1.5x the
// calories of ok-mood meals
func detectMoodPattern(entries []entry.MealEntry) *Candidate {
	var badTotal, badCount, okTotal, okCount int

	for _, e := range entries {
		switch {
		case e.HasBadMood():
			badTotal += e.TotalCalories
			badCount++
		case e.HasOKMood():
			okTotal += e.TotalCalories
			okCount++
		}
	}

	if badCount == 0 || okCount == 0 {
		return nil
	}

	avgBad := float64(badTotal) / float64(badCount)
	avgOK := float64(okTotal) / float64(okCount)

	if avgOK == 0 || avgBad <= 1.5*avgOK {
		return nil
	}

	totalDays := make(map[string]struct{})
	badDays := make(map[string]struct{})
	for _, e := range entries {
		totalDays[e.DayKey()] = struct{}{}
		if e.HasBadMood() {
			badDays[e.DayKey()] = struct{}{}
		}
	}

	return &Candidate{
		Type:       TypeMood,
		Confidence: dayShare(len(badDays), len(totalDays)),
		Evidence: Evidence{
			"avg_bad_mood_calories": round1(avgBad),
			"avg_ok_mood_calories":  round1(avgOK),
			"ratio":                 round2(avgBad / avgOK),
		},
	}
}

// detectContextPattern fires when meals eaten out (restaurant or street)
// average more than 1.5x the calories of meals eaten at home
func detectContextPattern(entries []entry.MealEntry) *Candidate {
	var homeTotal, homeCount, outTotal, outCount int

	for _, e := range entries {
		switch {
		case e.Context == entry.ContextHome:
			homeTotal += e.TotalCalories
			homeCount++
		case e.IsAwayFromHome():
			outTotal += e.TotalCalories
			outCount++
		}
	}

	if homeCount == 0 || outCount == 0 {
		return nil
	}

	avgHome := float64(homeTotal) / float64(homeCount)
	avgOut := float64(outTotal) / float64(outCount)

	if avgHome == 0 || avgOut <= 1.5*avgHome {
		return nil
	}

	totalDays := make(map[string]struct{})
	outDays := make(map[string]struct{})
	for _, e := range entries {
		totalDays[e.DayKey()] = struct{}{}
		if e.IsAwayFromHome() {
			outDays[e.DayKey()] = struct{}{}
		}
	}

	return &Candidate{
		Type:       TypeContext,
		Confidence: dayShare(len(outDays), len(totalDays)),
		Evidence: Evidence{
			"avg_home_calories": round1(avgHome),
			"avg_out_calories":  round1(avgOut),
			"ratio":             round2(avgOut / avgHome),
		},
	}
}

// detectSkipPattern fires on days with no lunch entry where evening meals
// carry more than 60% of the day's calories
func detectSkipPattern(entries []entry.MealEntry) *Candidate {
	daily := make(map[string][]entry.MealEntry)
	for _, e := range entries {
		daily[e.DayKey()] = append(daily[e.DayKey()], e)
	}

	totalDays := len(daily)
	if totalDays == 0 {
		return nil
	}

	skipBingeDays := 0
	for _, dayEntries := range daily {
		hasLunch := false
		for _, e := range dayEntries {
			if isLunchHour(e.Hour()) {
				hasLunch = true
				break
			}
		}
		if hasLunch {
			continue
		}

		dayTotal := 0
		eveningTotal := 0
		for _, e := range dayEntries {
			dayTotal += e.TotalCalories
			if isEveningHour(e.Hour()) {
				eveningTotal += e.TotalCalories
			}
		}
		if dayTotal == 0 {
			continue
		}

		if float64(eveningTotal)/float64(dayTotal) > 0.6 {
			skipBingeDays++
		}
	}

	if skipBingeDays == 0 {
		return nil
	}

	return &Candidate{
		Type:       TypeSkip,
		Confidence: dayShare(skipBingeDays, totalDays),
		Evidence: Evidence{
			"skip_binge_days": skipBingeDays,
			"total_days":      totalDays,
			"ratio":           round2(float64(skipBingeDays) / float64(totalDays)),
		},
	}
}

func dayShare(relevant, total int) float64 {
	if total < 1 {
		total = 1
	}
	return math.Min(1.0, float64(relevant)/float64(total))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
