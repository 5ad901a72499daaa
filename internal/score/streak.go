package score

// streakState is the state of the backward streak walk.
type streakState int

const (
	// streakSearching: no active day seen yet, misses are skipped.
	streakSearching streakState = iota
	// streakCounting: inside the current streak, the first miss ends the walk.
	streakCounting
	streakDone
)

// WalkStreak walks backward from the given date, one day per step and at most limit
// steps, and returns the length of the current streak.
//
// Misses before the first active day do not end the walk, so a streak that ended
// yesterday (or earlier) still counts when today has no session yet. The first miss
// after an active day ends it.
func WalkStreak(active func(CivilDate) bool, from CivilDate, limit int) int {
	state := streakSearching
	count := 0

	for step := 0; step < limit && state != streakDone; step++ {
		hit := active(from.AddDays(-step))
		switch state {
		case streakSearching:
			if hit {
				count++
				state = streakCounting
			}
		case streakCounting:
			if hit {
				count++
			} else {
				state = streakDone
			}
		}
	}

	return count
}
