package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type board struct {
	Names []string
}

func TestUseCacheCallsCallbackOnce(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	calls := 0
	load := func() (*board, error) {
		calls++
		return &board{Names: []string{"ana", "bo"}}, nil
	}

	first, err := UseCache(ctx, c, "board", time.Minute, load)
	require.NoError(t, err)
	second, err := UseCache(ctx, c, "board", time.Minute, load)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Equal(t, first.Names, second.Names)
}

func TestUseCacheDoesNotStoreErrors(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	boom := errors.New("boom")

	_, err := UseCache(ctx, c, "k", time.Minute, func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	v, err := UseCache(ctx, c, "k", time.Minute, func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestDeleteInvalidates(t *testing.T) {
	c := New(nil)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	require.NoError(t, c.Delete(ctx, "k"))

	var v int
	assert.Error(t, c.Get(ctx, "k", &v))
}
