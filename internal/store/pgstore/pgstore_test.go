package pgstore_test

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/post"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/store/pgstore"
	"wildAppAPI/internal/user"
	"wildAppAPI/tests/helpers"
)

func newUser(t *testing.T, s *pgstore.PgStore) string {
	t.Helper()
	id := "test_" + uuid.NewString()
	require.NoError(t, s.CreateUser(context.Background(), &user.User{ID: id, Username: id[:12], IsPublic: true}))
	return id
}

func TestPgStoreFriendshipPairIsUnique(t *testing.T) {
	s := pgstore.New(helpers.SetupTestDB(t))
	ctx := context.Background()
	a, b := newUser(t, s), newUser(t, s)

	require.NoError(t, s.CreateFriendship(ctx, &friendship.Friendship{RequesterID: a, AddresseeID: b, Status: friendship.StatusPending}))
	err := s.CreateFriendship(ctx, &friendship.Friendship{RequesterID: b, AddresseeID: a, Status: friendship.StatusPending})
	assert.ErrorIs(t, err, apperr.ErrDuplicateRequest)
}

func TestPgStoreWithTxRollsBack(t *testing.T) {
	s := pgstore.New(helpers.SetupTestDB(t))
	ctx := context.Background()
	id := newUser(t, s)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Store) error {
		require.NoError(t, tx.SaveStreak(ctx, id, 9, civil.Date{Year: 2024, Month: 1, Day: 2}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	u, err := s.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Streak)
	assert.Nil(t, u.StreakLastUpdated)
}

func TestPgStorePostRoundTrip(t *testing.T) {
	s := pgstore.New(helpers.SetupTestDB(t))
	ctx := context.Background()
	owner := newUser(t, s)

	p := &post.Post{OwnerID: &owner, Username: "x", ChallengeName: "test coward", Kind: post.Retreat{}}
	require.NoError(t, s.CreatePost(ctx, p))
	require.NoError(t, s.SaveLikes(ctx, p.ID, []string{"u1", "u2"}))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRetreat())
	assert.Equal(t, 2, got.Likes)
	assert.Equal(t, []string{"u1", "u2"}, got.UsersWhoLiked)
}

func TestPgStoreResetBrokenStreaks(t *testing.T) {
	s := pgstore.New(helpers.SetupTestDB(t))
	ctx := context.Background()
	today := civil.Date{Year: 2024, Month: 1, Day: 5}
	stale, fresh := newUser(t, s), newUser(t, s)
	require.NoError(t, s.SaveStreak(ctx, stale, 4, civil.Date{Year: 2024, Month: 1, Day: 1}))
	require.NoError(t, s.SaveStreak(ctx, fresh, 4, today.AddDays(-1)))

	_, err := s.ResetBrokenStreaks(ctx, today)
	require.NoError(t, err)

	u, err := s.GetUser(ctx, stale)
	require.NoError(t, err)
	assert.Equal(t, 0, u.Streak)
	u, err = s.GetUser(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, 4, u.Streak)
}

func TestPgStoreDailyChallengeFirstClaimWins(t *testing.T) {
	s := pgstore.New(helpers.SetupTestDB(t))
	ctx := context.Background()
	first := &challenge.Challenge{Name: "test first", Category: challenge.CategorySocial, Difficulty: challenge.DifficultyEasy, IsActive: true}
	second := &challenge.Challenge{Name: "test second", Category: challenge.CategorySocial, Difficulty: challenge.DifficultyEasy, IsActive: true}
	require.NoError(t, s.CreateChallenge(ctx, first))
	require.NoError(t, s.CreateChallenge(ctx, second))
	date := civil.Date{Year: 2999, Month: 1, Day: 1}.AddDays(int(uuid.New().ID() % 3650))

	got, err := s.ClaimDailyChallenge(ctx, date, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got)

	got, err = s.ClaimDailyChallenge(ctx, date, second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got)

	stored, err := s.GetDailyChallengeID(ctx, date)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored)
}
