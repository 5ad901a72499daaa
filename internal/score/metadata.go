package score

// CalculateMetadata derives activity statistics from ascending, date-unique active days.
// reference is the civil date of the reference instant in the same zone the days were
// bucketed in.
func CalculateMetadata(days []ActiveDay, reference CivilDate) Metadata {
	if len(days) == 0 {
		return Metadata{DaysSinceLastSession: Window}
	}

	meta := Metadata{
		ActiveDays:    len(days),
		LongestStreak: 1,
	}
	for _, day := range days {
		meta.TotalSessions += day.SessionCount
	}

	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].Date.DaysSince(days[i-1].Date) == 1 {
			run++
		} else {
			run = 1
		}
		if run > meta.LongestStreak {
			meta.LongestStreak = run
		}
	}

	gaps := dayGaps(days)
	if len(gaps) > 0 {
		sum := 0
		for _, gap := range gaps {
			sum += gap
			meta.LongestGap = max(meta.LongestGap, gap)
		}
		meta.AverageGap = float64(sum) / float64(len(gaps))
	}

	meta.DaysSinceLastSession = reference.DaysSince(days[len(days)-1].Date)

	return meta
}

// dayGaps returns the day difference between each pair of consecutive active days.
func dayGaps(days []ActiveDay) []int {
	if len(days) < 2 {
		return nil
	}
	gaps := make([]int, 0, len(days)-1)
	for i := 1; i < len(days); i++ {
		gaps = append(gaps, days[i].Date.DaysSince(days[i-1].Date))
	}
	return gaps
}
