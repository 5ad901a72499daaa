package score

// ProjectChart returns exactly Window entries, one per civil date from reference-27
// through reference, oldest first.
func ProjectChart(days []ActiveDay, reference CivilDate) []DayActivity {
	counts := make(map[CivilDate]int, len(days))
	for _, day := range days {
		counts[day.Date] = day.SessionCount
	}

	chart := make([]DayActivity, Window)
	first := reference.AddDays(-(Window - 1))
	for i := range chart {
		date := first.AddDays(i)
		count, found := counts[date]
		chart[i] = DayActivity{
			Date:         date,
			HasActivity:  found,
			SessionCount: count,
		}
	}

	return chart
}
