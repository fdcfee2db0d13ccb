package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/handlers"
	"wildAppAPI/internal/cache"
	"wildAppAPI/internal/config"
	"wildAppAPI/internal/lock"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/store/memstore"
	"wildAppAPI/internal/user"
	"wildAppAPI/middleware"
	"wildAppAPI/services"
)

func mustInvoke[T any](t *testing.T, container *do.Injector) T {
	t.Helper()
	v, err := do.Invoke[T](container)
	require.NoError(t, err)
	return v
}

func testRouter(t *testing.T, st *memstore.Store) *mux.Router {
	t.Helper()
	objects := storage.NewMemoryStorage()
	cal := services.NewCalendar(time.UTC)
	notifier := services.NewNotificationDispatcher(st, services.LogPushProvider{})
	t.Cleanup(notifier.Stop)

	userSvc := services.NewUserService(st, objects)
	postSvc := services.NewPostService(st, objects, cal)
	return newRouter(routerDeps{
		health:      handlers.NewHealthHandler(st),
		webhook:     handlers.NewWebhookHandler(userSvc, ""),
		users:       handlers.NewUserHandler(userSvc, postSvc, services.NewAchievementService(st)),
		posts:       handlers.NewPostHandler(postSvc, services.NewEngagementService(st, notifier, cal)),
		friends:     handlers.NewFriendHandler(services.NewSocialService(st, lock.NewLocalLocker(), notifier, cal)),
		challenges:  handlers.NewChallengeHandler(services.NewChallengeService(st, nil, cal)),
		submissions: handlers.NewSubmissionHandler(services.NewModerationService(st, objects, notifier, cal, nil)),
		invites:     handlers.NewInviteHandler(services.NewInviteService(st, notifier, cal, "https://wild.test/i")),
		leaderboard: handlers.NewLeaderboardHandler(services.NewLeaderboardService(st, cache.New(nil))),
		limiter:     middleware.NewRateLimiter(100, 100),
		verify: func(ctx context.Context, token string) (string, error) {
			return token, nil
		},
		metricsUser: "metrics",
		metricsPass: "secret",
	})
}

func TestRouterRegistersEveryEndpoint(t *testing.T) {
	r := testRouter(t, memstore.New())

	registered := map[string]bool{}
	require.NoError(t, r.Walk(func(route *mux.Route, router *mux.Router, ancestors []*mux.Route) error {
		tpl, err := route.GetPathTemplate()
		if err != nil {
			return nil
		}
		methods, _ := route.GetMethods()
		for _, m := range methods {
			registered[m+" "+tpl] = true
		}
		return nil
	}))

	for _, want := range []string{
		"GET /health",
		"POST /webhooks/clerk",
		"GET /api/v1/user",
		"PUT /api/v1/user",
		"POST /api/v1/user/profile-picture",
		"GET /api/v1/users/{id}",
		"GET /api/v1/user/streak",
		"GET /api/v1/user/progress",
		"GET /api/v1/user/achievements",
		"POST /api/v1/user/devices",
		"GET /api/v1/posts",
		"GET /api/v1/posts/{id}",
		"GET /api/v1/users/{id}/posts",
		"POST /api/v1/challenges/{id}/complete",
		"POST /api/v1/challenges/{id}/retreat",
		"POST /api/v1/posts/{id}/like",
		"GET /api/v1/posts/{id}/comments",
		"POST /api/v1/posts/{id}/comments",
		"GET /api/v1/friends",
		"GET /api/v1/friends/requests",
		"POST /api/v1/friends/requests",
		"PUT /api/v1/friends/requests/{id}",
		"DELETE /api/v1/friends/{id}",
		"GET /api/v1/friends/status/{id}",
		"GET /api/v1/challenges",
		"GET /api/v1/challenges/daily",
		"GET /api/v1/challenges/nearby",
		"GET /api/v1/places",
		"POST /api/v1/submissions",
		"GET /api/v1/submissions/mine",
		"GET /api/v1/submissions/pending",
		"PUT /api/v1/submissions/{id}/review",
		"POST /api/v1/invites",
		"GET /api/v1/invites",
		"POST /api/v1/invites/{id}/accept",
		"POST /api/v1/invites/{id}/decline",
		"GET /api/v1/leaderboards/global",
		"GET /api/v1/leaderboards/friends",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestRouterAuthAndHealth(t *testing.T) {
	st := memstore.New()
	require.NoError(t, st.CreateUser(context.Background(), &user.User{ID: "u1", Username: "wanderer", IsPublic: true, Level: 1}))
	r := testRouter(t, st)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/user", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/user", nil)
	req.Header.Set("Authorization", "Bearer u1")
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/challenges", nil))
	assert.Equal(t, http.StatusOK, rr.Code, "challenge browsing is public")

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestContainerResolvesDevelopmentDefaults(t *testing.T) {
	cfg := &config.Config{Env: "development", TimeZone: "UTC", OverpassURL: "http://localhost/api"}
	container := newContainer(cfg)

	st := mustInvoke[store.Store](t, container)
	_, isMem := st.(*memstore.Store)
	assert.True(t, isMem)

	_, isLocal := mustInvoke[lock.Locker](t, container).(*lock.LocalLocker)
	assert.True(t, isLocal)

	_, isMemStorage := mustInvoke[storage.ObjectStorage](t, container).(*storage.MemoryStorage)
	assert.True(t, isMemStorage)

	mustInvoke[*services.LeaderboardService](t, container)
	require.NoError(t, container.Shutdown())
}
