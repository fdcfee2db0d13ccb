package services

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/require"

	"wildAppAPI/internal/achievement"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store/memstore"
	"wildAppAPI/internal/user"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*notification.Notification
}

func (r *recordingNotifier) Notify(n *notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) to(userID string) []notification.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.Type
	for _, n := range r.sent {
		if n.UserID == userID {
			out = append(out, n.Type)
		}
	}
	return out
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

var testCatalog = []*achievement.Achievement{
	{ID: "first_steps", Name: "First Steps", Difficulty: achievement.DifficultyEasy},
	{ID: "ten_down", Name: "Ten Down", Difficulty: achievement.DifficultyMedium},
	{ID: "on_fire", Name: "On Fire", Difficulty: achievement.DifficultyMedium},
	{ID: "crowd_favourite", Name: "Crowd Favourite", Difficulty: achievement.DifficultyHard},
	{ID: "trailblazer", Name: "Trailblazer", Difficulty: achievement.DifficultyMedium},
}

type fixture struct {
	t        *testing.T
	ctx      context.Context
	store    *memstore.Store
	objects  *storage.MemoryStorage
	notifier *recordingNotifier
	cal      *Calendar
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    memstore.New(),
		objects:  storage.NewMemoryStorage(),
		notifier: &recordingNotifier{},
		now:      time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	f.cal = &Calendar{Now: func() time.Time { return f.now }, Loc: time.UTC}
	f.store.SetClock(f.cal.Now)
	f.store.SeedAchievements(testCatalog)
	return f
}

func (f *fixture) today() civil.Date { return f.cal.Today() }

func sess(id string) *session.Session { return &session.Session{UserID: id} }

func (f *fixture) addUser(id string, opts ...func(u *user.User)) *user.User {
	f.t.Helper()
	u := &user.User{ID: id, Username: id + "_name", Email: id + "@example.com", IsPublic: true, Level: 1}
	for _, o := range opts {
		o(u)
	}
	require.NoError(f.t, f.store.CreateUser(f.ctx, u))
	return u
}

func withStreak(n int, last civil.Date) func(u *user.User) {
	return func(u *user.User) {
		u.Streak = n
		u.StreakLastUpdated = &last
	}
}

func private(u *user.User) { u.IsPublic = false }

func (f *fixture) addChallenge(name string, category challenge.Category, opts ...func(c *challenge.Challenge)) *challenge.Challenge {
	f.t.Helper()
	c := &challenge.Challenge{Name: name, Category: category, Difficulty: challenge.DifficultyEasy, IsActive: true}
	for _, o := range opts {
		o(c)
	}
	require.NoError(f.t, f.store.CreateChallenge(f.ctx, c))
	return c
}

func at(lat, lng float64) func(c *challenge.Challenge) {
	return func(c *challenge.Challenge) {
		c.Latitude = &lat
		c.Longitude = &lng
	}
}

func (f *fixture) befriend(a, b string) {
	f.t.Helper()
	now := f.now
	require.NoError(f.t, f.store.CreateFriendship(f.ctx, &friendship.Friendship{
		RequesterID: a,
		AddresseeID: b,
		Status:      friendship.StatusAccepted,
		RespondedAt: &now,
	}))
}

func (f *fixture) user(id string) *user.User {
	f.t.Helper()
	u, err := f.store.GetUser(f.ctx, id)
	require.NoError(f.t, err)
	return u
}

func hasAll(have []string, want ...string) bool {
	for _, w := range want {
		if !slices.Contains(have, w) {
			return false
		}
	}
	return true
}
