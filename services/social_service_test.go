package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/lock"
	"wildAppAPI/internal/notification"
)

func newSocialService(f *fixture) *SocialService {
	return NewSocialService(f.store, lock.NewLocalLocker(), f.notifier, f.cal)
}

func TestFriendRequestLifecycle(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice")
	f.addUser("bob")
	svc := newSocialService(f)

	status := func(a, b string) friendship.Relation {
		t.Helper()
		resp, err := svc.GetFriendshipStatus(f.ctx, sess(a), b)
		require.NoError(t, err)
		return resp.Status
	}

	assert.Equal(t, friendship.RelationNone, status("alice", "bob"))

	req, err := svc.SendRequest(f.ctx, sess("alice"), "bob")
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusPending, req.Status)
	assert.Equal(t, []notification.Type{notification.TypeFriendRequest}, f.notifier.to("bob"))

	assert.Equal(t, friendship.RelationSent, status("alice", "bob"))
	assert.Equal(t, friendship.RelationPending, status("bob", "alice"))

	_, err = svc.RespondToRequest(f.ctx, sess("alice"), req.ID, "accepted")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	accepted, err := svc.RespondToRequest(f.ctx, sess("bob"), req.ID, "accepted")
	require.NoError(t, err)
	assert.Equal(t, friendship.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)
	assert.Equal(t, []notification.Type{notification.TypeFriendAccepted}, f.notifier.to("alice"))

	assert.Equal(t, friendship.RelationFriends, status("alice", "bob"))
	assert.Equal(t, friendship.RelationFriends, status("bob", "alice"))

	_, err = svc.RespondToRequest(f.ctx, sess("bob"), req.ID, "declined")
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	friends, err := svc.GetFriends(f.ctx, "alice")
	require.NoError(t, err)
	require.Len(t, friends, 1)
	assert.Equal(t, "bob", friends[0].Friend.ID)
	assert.Equal(t, req.ID, friends[0].FriendshipID)

	require.NoError(t, svc.RemoveFriend(f.ctx, sess("bob"), "alice"))
	assert.Equal(t, friendship.RelationNone, status("alice", "bob"))
	assert.ErrorIs(t, svc.RemoveFriend(f.ctx, sess("bob"), "alice"), apperr.ErrNotFound)
}

func TestSendRequestRejectsDuplicatesInEitherDirection(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice")
	f.addUser("bob")
	svc := newSocialService(f)

	_, err := svc.SendRequest(f.ctx, sess("alice"), "bob")
	require.NoError(t, err)

	_, err = svc.SendRequest(f.ctx, sess("alice"), "bob")
	assert.ErrorIs(t, err, apperr.ErrDuplicateRequest)
	_, err = svc.SendRequest(f.ctx, sess("bob"), "alice")
	assert.ErrorIs(t, err, apperr.ErrDuplicateRequest)
}

func TestSendRequestValidation(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice")
	svc := newSocialService(f)

	_, err := svc.SendRequest(f.ctx, sess("alice"), "alice")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.SendRequest(f.ctx, sess("alice"), "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.SendRequest(f.ctx, nil, "alice")
	assert.ErrorIs(t, err, apperr.ErrAuthenticationRequired)
}

func TestDeclinedRequestCanBeSentAgain(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice")
	f.addUser("bob")
	svc := newSocialService(f)

	req, err := svc.SendRequest(f.ctx, sess("alice"), "bob")
	require.NoError(t, err)
	_, err = svc.RespondToRequest(f.ctx, sess("bob"), req.ID, "declined")
	require.NoError(t, err)

	resp, err := svc.GetFriendshipStatus(f.ctx, sess("alice"), "bob")
	require.NoError(t, err)
	assert.Equal(t, friendship.RelationNone, resp.Status)

	again, err := svc.SendRequest(f.ctx, sess("bob"), "alice")
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)
	assert.Equal(t, "bob", again.RequesterID)
	assert.Equal(t, "alice", again.AddresseeID)
	assert.Equal(t, friendship.StatusPending, again.Status)
	assert.Nil(t, again.RespondedAt)

	_, err = svc.RespondToRequest(f.ctx, sess("alice"), again.ID, "accepted")
	require.NoError(t, err)
}

func TestRespondToRequestRejectsUnknownDecision(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice")
	f.addUser("bob")
	svc := newSocialService(f)

	req, err := svc.SendRequest(f.ctx, sess("alice"), "bob")
	require.NoError(t, err)

	_, err = svc.RespondToRequest(f.ctx, sess("bob"), req.ID, "maybe")
	assert.ErrorIs(t, err, apperr.ErrInvalidInput)

	_, err = svc.RespondToRequest(f.ctx, sess("bob"), "missing", "accepted")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestConcurrentRequestsCreateOneRow(t *testing.T) {
	f := newFixture(t)
	f.addUser("alice")
	f.addUser("bob")
	svc := newSocialService(f)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		other     []error
	)
	for i := 0; i < 20; i++ {
		from, to := "alice", "bob"
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.SendRequest(f.ctx, sess(from), to)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, apperr.ErrDuplicateRequest):
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Empty(t, other)

	rows, err := f.store.ListFriendships(f.ctx, "alice", "")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGetPendingRequestsDirections(t *testing.T) {
	f := newFixture(t)
	f.addUser("me")
	f.addUser("fan")
	f.addUser("crush")
	svc := newSocialService(f)

	_, err := svc.SendRequest(f.ctx, sess("fan"), "me")
	require.NoError(t, err)
	_, err = svc.SendRequest(f.ctx, sess("me"), "crush")
	require.NoError(t, err)

	pending, err := svc.GetPendingRequests(f.ctx, sess("me"))
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byUser := map[string]string{}
	for _, p := range pending {
		byUser[p.User.ID] = p.Direction
	}
	assert.Equal(t, map[string]string{"fan": "incoming", "crush": "outgoing"}, byUser)
}

func TestFriendshipStatusWithSelf(t *testing.T) {
	f := newFixture(t)
	f.addUser("me")

	resp, err := newSocialService(f).GetFriendshipStatus(f.ctx, sess("me"), "me")
	require.NoError(t, err)
	assert.Equal(t, friendship.RelationNone, resp.Status)
}
