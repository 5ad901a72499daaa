package score

import "math"

const (
	maxBaseScore         = 60.0
	maxDistributionBonus = 25.0
	maxStreakBonus       = 10.0
	streakBonusPerDay    = 2.0
	maxRecencyBonus      = 5.0

	minScore = 0
	maxScore = 100
)

// Compose computes the four score components.
func Compose(days []ActiveDay, meta Metadata, reference CivilDate) Breakdown {
	return Breakdown{
		BaseScore:         baseScore(meta.ActiveDays),
		DistributionBonus: distributionBonus(days),
		StreakBonus:       streakBonus(days, reference),
		RecencyBonus:      recencyBonus(meta.DaysSinceLastSession),
	}
}

// Total sums the components, rounds once and clamps the result to [0, 100].
func Total(b Breakdown) int {
	total := int(math.Round(b.BaseScore + b.DistributionBonus + b.StreakBonus + b.RecencyBonus))
	switch {
	case total < minScore:
		return minScore
	case total > maxScore:
		return maxScore
	default:
		return total
	}
}

func baseScore(activeDays int) float64 {
	return float64(activeDays) / Window * maxBaseScore
}

// distributionBonus is driven by the single longest gap, not by the spread of all gaps.
func distributionBonus(days []ActiveDay) float64 {
	gaps := dayGaps(days)
	if len(gaps) == 0 {
		return 0
	}
	maxGap := 0
	for _, gap := range gaps {
		maxGap = max(maxGap, gap)
	}
	quality := 1 - math.Min(float64(maxGap)/Window, 1)
	return quality * maxDistributionBonus
}

func streakBonus(days []ActiveDay, reference CivilDate) float64 {
	active := make(map[CivilDate]struct{}, len(days))
	for _, day := range days {
		active[day.Date] = struct{}{}
	}
	count := WalkStreak(func(d CivilDate) bool {
		_, ok := active[d]
		return ok
	}, reference, Window)

	return math.Min(float64(count)*streakBonusPerDay, maxStreakBonus)
}

func recencyBonus(daysSinceLastSession int) float64 {
	switch {
	case daysSinceLastSession <= 1:
		return maxRecencyBonus
	case daysSinceLastSession <= 3:
		return 3
	case daysSinceLastSession <= 7:
		return 1
	default:
		return 0
	}
}
