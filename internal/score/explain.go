package score

import (
	"fmt"
	"math"
)

// MaxExplanations bounds the length of the explanation list.
const MaxExplanations = 5

const (
	evenlyDistributedMessage = "Your sessions are evenly distributed across the window"
	wellSpacedMessage        = "Your sessions are fairly well spaced"
	longGapsMessage          = "Long gaps reduce your consistency score"
	trainedTodayMessage      = "You exercised today, keep it up!"
)

// Explain builds the ordered explanation bullets. Rules are applied in a fixed order and
// the list is never reordered by severity; it always holds at least the frequency bullet.
func Explain(meta Metadata, b Breakdown) []string {
	explanations := make([]string, 0, MaxExplanations)

	explanations = append(explanations, fmt.Sprintf("You trained %d out of %d days (%d%%)",
		meta.ActiveDays, Window, percent(float64(meta.ActiveDays), Window)))

	if meta.ActiveDays >= 2 {
		switch distPct := percent(b.DistributionBonus, maxDistributionBonus); {
		case distPct >= 75:
			explanations = append(explanations, evenlyDistributedMessage)
		case distPct >= 50:
			explanations = append(explanations, wellSpacedMessage)
		default:
			explanations = append(explanations, longGapsMessage)
		}
	}

	if meta.LongestStreak > 1 {
		explanations = append(explanations, fmt.Sprintf("Longest streak: %d days", meta.LongestStreak))
	}

	if meta.DaysSinceLastSession <= 3 {
		if meta.DaysSinceLastSession == 0 {
			explanations = append(explanations, trainedTodayMessage)
		} else {
			explanations = append(explanations, fmt.Sprintf("Last session was %d days ago", meta.DaysSinceLastSession))
		}
	}

	if meta.LongestGap > 7 && len(explanations) < MaxExplanations {
		explanations = append(explanations, fmt.Sprintf("Longest gap: %d days", meta.LongestGap))
	}

	if len(explanations) > MaxExplanations {
		explanations = explanations[:MaxExplanations]
	}
	return explanations
}

func percent(part, whole float64) int {
	return int(math.Round(part / whole * 100))
}
