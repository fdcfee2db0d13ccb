// Package streak decides how a user's streak moves from one calendar day to
// the next. Everything here works on dates, never on timestamps.
package streak

import (
	"time"

	"cloud.google.com/go/civil"
)

type DecisionKind string

const (
	NeedsStreak DecisionKind = "needs_streak"
	Unchanged   DecisionKind = "unchanged"
	Continues   DecisionKind = "continues"
	Broken      DecisionKind = "broken"
)

type Decision struct {
	Kind     DecisionKind `json:"kind"`
	DaysDiff int          `json:"days_diff"`
	Streak   int          `json:"streak"`
}

// Today returns the calendar date of now in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.UTC
	}
	return civil.DateOf(now.In(loc))
}

func DaysBetween(last, today civil.Date) int {
	return today.DaysSince(last)
}

// Check classifies the gap between the last streak stamp and today. A broken
// streak drops to zero right away, before the user posts again.
func Check(last *civil.Date, today civil.Date, current int) Decision {
	if last == nil {
		return Decision{Kind: NeedsStreak, Streak: current}
	}

	diff := DaysBetween(*last, today)
	switch {
	case diff <= 0:
		return Decision{Kind: Unchanged, DaysDiff: diff, Streak: current}
	case diff == 1:
		return Decision{Kind: Continues, DaysDiff: diff, Streak: current}
	default:
		return Decision{Kind: Broken, DaysDiff: diff, Streak: 0}
	}
}

// OnCompletion is the streak transition for a normal (non-coward) post.
func OnCompletion(last *civil.Date, today civil.Date, current int) (next int, newStreak bool) {
	if last != nil && *last == today.AddDays(-1) {
		return current + 1, true
	}
	if last == nil || *last != today {
		return 1, current == 0
	}
	return current, false
}

// OnRetreat is the coward penalty: streak goes to zero and is stamped today,
// whatever the previous state was.
func OnRetreat(today civil.Date) (next int, stamp civil.Date) {
	return 0, today
}
