package services

import "github.com/prometheus/client_golang/prometheus"

var (
	postsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildapp_posts_created_total",
			Help: "Posts created, by kind",
		},
		[]string{"kind"},
	)
	likesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildapp_likes_toggled_total",
			Help: "Like toggles, by resulting action",
		},
		[]string{"action"},
	)
	friendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildapp_friend_requests_total",
			Help: "Friend request attempts, by result",
		},
		[]string{"result"},
	)
	submissionsReviewed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildapp_submissions_reviewed_total",
			Help: "Moderation decisions",
		},
		[]string{"decision"},
	)
	partialWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildapp_partial_writes_total",
			Help: "Operations that left state half applied",
		},
		[]string{"op"},
	)
	pushDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wildapp_push_deliveries_total",
			Help: "Push notification jobs, by result",
		},
		[]string{"result"},
	)
)

// InitMetrics registers the domain counters. Call it once from main.go.
func InitMetrics() {
	prometheus.MustRegister(postsCreated)
	prometheus.MustRegister(likesToggled)
	prometheus.MustRegister(friendRequests)
	prometheus.MustRegister(submissionsReviewed)
	prometheus.MustRegister(partialWrites)
	prometheus.MustRegister(pushDeliveries)
}
