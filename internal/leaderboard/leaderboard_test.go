package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRanksTies(t *testing.T) {
	entries := []*LeaderboardEntry{
		{UserID: "a", Streak: 10, LikesReceived: 4},
		{UserID: "b", Streak: 10, LikesReceived: 4},
		{UserID: "c", Streak: 10, LikesReceived: 1},
		{UserID: "d", Streak: 2},
	}

	board := Build(entries, "c")

	assert.Equal(t, []int{1, 1, 3, 4}, []int{entries[0].Rank, entries[1].Rank, entries[2].Rank, entries[3].Rank})
	require.NotNil(t, board.UserPosition)
	assert.Equal(t, "c", board.UserPosition.UserID)
	assert.Equal(t, 4, board.TotalUsers)
}

func TestBuildEmpty(t *testing.T) {
	board := Build(nil, "x")
	assert.NotNil(t, board.Entries)
	assert.Nil(t, board.UserPosition)
}
