package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/handlers"
	"wildAppAPI/internal/cache"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/lock"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store/pgstore"
	"wildAppAPI/middleware"
	"wildAppAPI/services"
	"wildAppAPI/tests/helpers"
)

var webhookSecret = "whsec_" + base64.StdEncoding.EncodeToString([]byte("integration-secret"))

type nopNotifier struct{}

func (nopNotifier) Notify(*notification.Notification) {}

// tokenIsUserID treats the bearer token as the user id.
func tokenIsUserID(ctx context.Context, token string) (string, error) {
	return token, nil
}

type app struct {
	t      *testing.T
	router *mux.Router
	store  *pgstore.PgStore
}

func newApp(t *testing.T) *app {
	pool := helpers.SetupTestDB(t)
	st := pgstore.New(pool)
	objects := storage.NewMemoryStorage()
	cal := services.NewCalendar(time.UTC)

	userSvc := services.NewUserService(st, objects)
	postSvc := services.NewPostService(st, objects, cal)
	users := handlers.NewUserHandler(userSvc, postSvc, services.NewAchievementService(st))
	posts := handlers.NewPostHandler(postSvc, services.NewEngagementService(st, nopNotifier{}, cal))
	friends := handlers.NewFriendHandler(services.NewSocialService(st, lock.NewLocalLocker(), nopNotifier{}, cal))
	boards := handlers.NewLeaderboardHandler(services.NewLeaderboardService(st, cache.New(nil)))
	webhook := handlers.NewWebhookHandler(userSvc, webhookSecret)

	r := mux.NewRouter()
	r.HandleFunc("/webhooks/clerk", webhook.HandleClerkWebhook).Methods(http.MethodPost)
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware(tokenIsUserID))
	protected.HandleFunc("/user", users.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/user/streak", users.GetStreak).Methods(http.MethodGet)
	protected.HandleFunc("/posts", posts.GetFeed).Methods(http.MethodGet)
	protected.HandleFunc("/posts/{id}/like", posts.ToggleLike).Methods(http.MethodPost)
	protected.HandleFunc("/challenges/{id}/complete", posts.CompleteChallenge).Methods(http.MethodPost)
	protected.HandleFunc("/friends", friends.GetFriends).Methods(http.MethodGet)
	protected.HandleFunc("/friends/requests", friends.SendRequest).Methods(http.MethodPost)
	protected.HandleFunc("/friends/requests/{id}", friends.RespondToRequest).Methods(http.MethodPut)
	protected.HandleFunc("/leaderboards/friends", boards.Friends).Methods(http.MethodGet)

	return &app{t: t, router: r, store: st}
}

func (a *app) call(method, path, userID string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+userID)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *app) signUp(userID string) {
	a.t.Helper()
	body := helpers.MockClerkWebhookPayload("user.created", userID)
	body = bytes.Replace(body, []byte(`"testuser"`), []byte(`"`+userID+`"`), 1)
	headers, err := helpers.SignWebhook(webhookSecret, "msg_"+userID, body, time.Now())
	require.NoError(a.t, err)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/clerk", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	require.Equal(a.t, http.StatusOK, rr.Code, rr.Body.String())
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

// TestFullChallengeFlow signs two users up, makes them friends, has one
// complete a challenge and the other like it.
func TestFullChallengeFlow(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()
	suffix := time.Now().Format("150405.000")
	alice, bob := "test_alice_"+suffix, "test_bob_"+suffix

	a.signUp(alice)
	a.signUp(bob)

	rr := a.call(http.MethodGet, "/api/v1/user", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	ch := &challenge.Challenge{Name: "test sunrise hike " + suffix, Category: challenge.CategoryAdventure, Difficulty: challenge.DifficultyEasy, IsActive: true}
	require.NoError(t, a.store.CreateChallenge(ctx, ch))

	rr = a.call(http.MethodPost, "/api/v1/friends/requests", alice, map[string]string{"addressee_id": bob})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var request struct {
		ID string `json:"id"`
	}
	decode(t, rr, &request)

	rr = a.call(http.MethodPost, "/api/v1/friends/requests", bob, map[string]string{"addressee_id": alice})
	assert.Equal(t, http.StatusConflict, rr.Code, "reverse request hits the same pair")

	rr = a.call(http.MethodPut, "/api/v1/friends/requests/"+request.ID, bob, map[string]string{"decision": "accepted"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = a.call(http.MethodPost, "/api/v1/challenges/"+ch.ID+"/complete", alice, map[string]string{"caption": "made it"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var completed services.CompletionResult
	decode(t, rr, &completed)
	assert.Equal(t, 1, completed.Streak)
	assert.Contains(t, completed.NewAchievements, "first_steps")

	rr = a.call(http.MethodPost, "/api/v1/posts/"+completed.Post.ID+"/like", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = a.call(http.MethodGet, "/api/v1/posts?scope=friends", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var feed []map[string]any
	decode(t, rr, &feed)
	require.NotEmpty(t, feed)
	assert.EqualValues(t, 1, feed[0]["likes"])

	u, err := a.store.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, u.LikesReceived)
	assert.Equal(t, 1, u.Streak)

	got, err := a.store.GetChallenge(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Finishes)

	rr = a.call(http.MethodGet, "/api/v1/leaderboards/friends", bob, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
}
