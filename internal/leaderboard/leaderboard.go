package leaderboard

type LeaderboardEntry struct {
	UserID         string  `json:"user_id" db:"user_id"`
	Username       string  `json:"username" db:"username"`
	ProfilePicture *string `json:"profile_picture" db:"profile_picture"`
	Streak         int     `json:"streak" db:"streak"`
	LikesReceived  int     `json:"likes_received" db:"likes_received"`
	Level          int     `json:"level" db:"level"`
	Rank           int     `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}

// Build assigns RANK() style positions to entries already sorted by streak
// then likes, and picks out userID's row.
func Build(entries []*LeaderboardEntry, userID string) *Leaderboard {
	board := &Leaderboard{Entries: entries, TotalUsers: len(entries)}
	if board.Entries == nil {
		board.Entries = []*LeaderboardEntry{}
	}
	for i, e := range entries {
		switch {
		case i == 0:
			e.Rank = 1
		case e.Streak == entries[i-1].Streak && e.LikesReceived == entries[i-1].LikesReceived:
			e.Rank = entries[i-1].Rank
		default:
			e.Rank = i + 1
		}
		if e.UserID == userID {
			board.UserPosition = e
		}
	}
	return board
}
