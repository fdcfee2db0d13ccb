package achievement

import (
	"slices"
	"sort"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Achievement struct {
	ID          string     `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	Icon        string     `json:"icon" db:"icon"`
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	Category    string     `json:"category" db:"category"`
}

type AchievementWithStatus struct {
	Achievement
	Unlocked bool `json:"unlocked"`
}

// Resolve flags every catalog entry as unlocked or locked against the ids in
// unlocked. Unlocked entries come first; catalog order is kept otherwise.
// Ids that are not in the catalog are ignored.
func Resolve(catalog []*Achievement, unlocked []string) []*AchievementWithStatus {
	out := make([]*AchievementWithStatus, 0, len(catalog))
	for _, a := range catalog {
		out = append(out, &AchievementWithStatus{
			Achievement: *a,
			Unlocked:    slices.Contains(unlocked, a.ID),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Unlocked && !out[j].Unlocked
	})
	return out
}

// Level is one row of the level catalog.
type Level struct {
	Level          int `json:"level" db:"level"`
	MinCompletions int `json:"min_completions" db:"min_completions"`
}

// DefaultLevels is used when the level catalog table is empty.
var DefaultLevels = []Level{
	{Level: 1, MinCompletions: 0},
	{Level: 2, MinCompletions: 3},
	{Level: 3, MinCompletions: 7},
	{Level: 4, MinCompletions: 15},
	{Level: 5, MinCompletions: 30},
	{Level: 6, MinCompletions: 50},
	{Level: 7, MinCompletions: 80},
	{Level: 8, MinCompletions: 120},
	{Level: 9, MinCompletions: 175},
	{Level: 10, MinCompletions: 250},
}

// LevelFor returns the highest level whose threshold is reached. It never
// returns less than 1 and never decreases as completions grow.
func LevelFor(completions int, levels []Level) int {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	best := 1
	for _, l := range levels {
		if completions >= l.MinCompletions && l.Level > best {
			best = l.Level
		}
	}
	return best
}

// NextThreshold returns the completions needed for the next level, or nil at
// the top of the catalog.
func NextThreshold(current int, levels []Level) *Level {
	if len(levels) == 0 {
		levels = DefaultLevels
	}
	var next *Level
	for i := range levels {
		l := levels[i]
		if l.Level > current && (next == nil || l.Level < next.Level) {
			next = &l
		}
	}
	return next
}

type Progress struct {
	Level       int    `json:"level"`
	Completions int    `json:"completions"`
	NextLevel   *Level `json:"next_level,omitempty"`
	Unlocked    int    `json:"achievements_unlocked"`
	Total       int    `json:"achievements_total"`
}
