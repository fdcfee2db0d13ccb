package achievement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	catalog := []*Achievement{
		{ID: "first", Name: "First steps"},
		{ID: "social", Name: "Social butterfly"},
		{ID: "wild", Name: "Into the wild"},
	}

	got := Resolve(catalog, []string{"wild", "ghost"})

	require.Len(t, got, 3)
	assert.Equal(t, "wild", got[0].ID)
	assert.True(t, got[0].Unlocked)
	assert.Equal(t, "first", got[1].ID)
	assert.False(t, got[1].Unlocked)
	assert.Equal(t, "social", got[2].ID)
	assert.False(t, got[2].Unlocked)
}

func TestResolveEmpty(t *testing.T) {
	assert.Empty(t, Resolve(nil, []string{"x"}))
}

func TestLevelFor(t *testing.T) {
	levels := []Level{{1, 0}, {2, 5}, {3, 10}}

	assert.Equal(t, 1, LevelFor(0, levels))
	assert.Equal(t, 1, LevelFor(4, levels))
	assert.Equal(t, 2, LevelFor(5, levels))
	assert.Equal(t, 3, LevelFor(500, levels))
	assert.Equal(t, 1, LevelFor(-3, levels))
}

func TestLevelForIsMonotonic(t *testing.T) {
	prev := 0
	for n := 0; n < 400; n++ {
		l := LevelFor(n, nil)
		assert.GreaterOrEqual(t, l, prev)
		prev = l
	}
}

func TestNextThreshold(t *testing.T) {
	levels := []Level{{3, 10}, {1, 0}, {2, 5}}

	next := NextThreshold(1, levels)
	require.NotNil(t, next)
	assert.Equal(t, 2, next.Level)

	assert.Nil(t, NextThreshold(3, levels))
}

func TestEarnedSkipsUnlockedAndUnknown(t *testing.T) {
	catalog := []*Achievement{
		{ID: "first_steps"},
		{ID: "on_fire"},
		{ID: "manual_only"},
		{ID: "ten_down"},
	}

	got := Earned(catalog, []string{"first_steps"}, Stats{Completions: 12, Streak: 8})
	assert.Equal(t, []string{"on_fire", "ten_down"}, got)

	assert.Empty(t, Earned(catalog, nil, Stats{}))
}
