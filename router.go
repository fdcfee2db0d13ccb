package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"wildAppAPI/handlers"
	"wildAppAPI/middleware"
)

type routerDeps struct {
	health      *handlers.HealthHandler
	webhook     *handlers.WebhookHandler
	users       *handlers.UserHandler
	posts       *handlers.PostHandler
	friends     *handlers.FriendHandler
	challenges  *handlers.ChallengeHandler
	submissions *handlers.SubmissionHandler
	invites     *handlers.InviteHandler
	leaderboard *handlers.LeaderboardHandler

	limiter     *middleware.RateLimiter
	verify      middleware.TokenVerifier
	metricsUser string
	metricsPass string
}

func newRouter(d routerDeps) *mux.Router {
	r := mux.NewRouter()

	standardRouter := r.PathPrefix("/").Subrouter()
	standardRouter.Use(d.limiter.Middleware)
	standardRouter.Use(middleware.MonitorMiddleware)

	standardRouter.Handle("/metrics", middleware.BasicAuthMiddleware(d.metricsUser, d.metricsPass)(promhttp.Handler()))
	standardRouter.HandleFunc("/health", d.health.Health).Methods(http.MethodGet)
	standardRouter.HandleFunc("/webhooks/clerk", d.webhook.HandleClerkWebhook).Methods(http.MethodPost)

	api := standardRouter.PathPrefix("/api/v1").Subrouter()

	public := api.PathPrefix("").Subrouter()
	public.Use(middleware.OptionalAuthMiddleware(d.verify))
	public.HandleFunc("/challenges", d.challenges.ListChallenges).Methods(http.MethodGet)
	public.HandleFunc("/challenges/daily", d.challenges.GetDailyChallenge).Methods(http.MethodGet)
	public.HandleFunc("/challenges/nearby", d.challenges.NearbyChallenges).Methods(http.MethodGet)
	public.HandleFunc("/challenges/{id}", d.challenges.GetChallenge).Methods(http.MethodGet)

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware(d.verify))

	protected.HandleFunc("/user", d.users.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/user", d.users.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/user/profile-picture", d.users.UploadProfilePicture).Methods(http.MethodPost)
	protected.HandleFunc("/user/streak", d.users.GetStreak).Methods(http.MethodGet)
	protected.HandleFunc("/user/progress", d.users.GetProgress).Methods(http.MethodGet)
	protected.HandleFunc("/user/achievements", d.users.GetAchievements).Methods(http.MethodGet)
	protected.HandleFunc("/user/devices", d.users.RegisterDevice).Methods(http.MethodPost)
	protected.HandleFunc("/users/{id}", d.users.GetUser).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}/posts", d.posts.GetUserPosts).Methods(http.MethodGet)

	protected.HandleFunc("/posts", d.posts.GetFeed).Methods(http.MethodGet)
	protected.HandleFunc("/posts/{id}", d.posts.GetPost).Methods(http.MethodGet)
	protected.HandleFunc("/posts/{id}/like", d.posts.ToggleLike).Methods(http.MethodPost)
	protected.HandleFunc("/posts/{id}/comments", d.posts.GetComments).Methods(http.MethodGet)
	protected.HandleFunc("/posts/{id}/comments", d.posts.AddComment).Methods(http.MethodPost)
	protected.HandleFunc("/challenges/{id}/complete", d.posts.CompleteChallenge).Methods(http.MethodPost)
	protected.HandleFunc("/challenges/{id}/retreat", d.posts.Retreat).Methods(http.MethodPost)

	protected.HandleFunc("/friends", d.friends.GetFriends).Methods(http.MethodGet)
	protected.HandleFunc("/friends/requests", d.friends.GetPendingRequests).Methods(http.MethodGet)
	protected.HandleFunc("/friends/requests", d.friends.SendRequest).Methods(http.MethodPost)
	protected.HandleFunc("/friends/requests/{id}", d.friends.RespondToRequest).Methods(http.MethodPut)
	protected.HandleFunc("/friends/status/{id}", d.friends.GetFriendshipStatus).Methods(http.MethodGet)
	protected.HandleFunc("/friends/{id}", d.friends.RemoveFriend).Methods(http.MethodDelete)

	protected.HandleFunc("/places", d.challenges.SearchPlaces).Methods(http.MethodGet)

	protected.HandleFunc("/submissions", d.submissions.SubmitChallenge).Methods(http.MethodPost)
	protected.HandleFunc("/submissions/mine", d.submissions.ListMine).Methods(http.MethodGet)
	protected.HandleFunc("/submissions/pending", d.submissions.ListPending).Methods(http.MethodGet)
	protected.HandleFunc("/submissions/{id}/review", d.submissions.Review).Methods(http.MethodPut)

	protected.HandleFunc("/invites", d.invites.CreateInvite).Methods(http.MethodPost)
	protected.HandleFunc("/invites", d.invites.ListInvites).Methods(http.MethodGet)
	protected.HandleFunc("/invites/{id}/accept", d.invites.AcceptInvite).Methods(http.MethodPost)
	protected.HandleFunc("/invites/{id}/decline", d.invites.DeclineInvite).Methods(http.MethodPost)

	protected.HandleFunc("/leaderboards/global", d.leaderboard.Global).Methods(http.MethodGet)
	protected.HandleFunc("/leaderboards/friends", d.leaderboard.Friends).Methods(http.MethodGet)

	return r
}
