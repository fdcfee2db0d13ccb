package achievement

// Stats is what the grant rules look at.
type Stats struct {
	Completions       int
	Streak            int
	LikesReceived     int
	CommentsReceived  int
	ApprovedChallenge bool
}

// Rules maps achievement ids to the condition that unlocks them. Catalog
// entries without a rule are granted by hand.
var Rules = map[string]func(Stats) bool{
	"first_steps":     func(s Stats) bool { return s.Completions >= 1 },
	"ten_down":        func(s Stats) bool { return s.Completions >= 10 },
	"half_century":    func(s Stats) bool { return s.Completions >= 50 },
	"on_fire":         func(s Stats) bool { return s.Streak >= 7 },
	"unstoppable":     func(s Stats) bool { return s.Streak >= 30 },
	"crowd_favourite": func(s Stats) bool { return s.LikesReceived >= 100 },
	"conversation":    func(s Stats) bool { return s.CommentsReceived >= 25 },
	"trailblazer":     func(s Stats) bool { return s.ApprovedChallenge },
}

// Earned returns the catalog ids whose rule holds and that are not already
// unlocked, in catalog order.
func Earned(catalog []*Achievement, unlocked []string, stats Stats) []string {
	have := make(map[string]bool, len(unlocked))
	for _, id := range unlocked {
		have[id] = true
	}
	var out []string
	for _, a := range catalog {
		rule, ok := Rules[a.ID]
		if !ok || have[a.ID] {
			continue
		}
		if rule(stats) {
			out = append(out, a.ID)
		}
	}
	return out
}
