// Package store is the persistence gateway. Services only see the Store
// interface; pgstore backs it with PostgreSQL and memstore keeps everything
// in memory for tests and local runs.
package store

import (
	"context"
	"time"

	"cloud.google.com/go/civil"

	"wildAppAPI/internal/achievement"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/invite"
	"wildAppAPI/internal/leaderboard"
	"wildAppAPI/internal/post"
	"wildAppAPI/internal/user"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *user.User) error
	UpsertUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	// GetUserForUpdate locks the row until the surrounding transaction ends.
	GetUserForUpdate(ctx context.Context, id string) (*user.User, error)
	GetUsers(ctx context.Context, ids []string) ([]*user.User, error)
	UpdateProfile(ctx context.Context, id string, req *user.UpdateProfileRequest) (*user.User, error)
	DeleteUser(ctx context.Context, id string) error

	SaveStreak(ctx context.Context, userID string, streak int, lastUpdated civil.Date) error
	ResetStreak(ctx context.Context, userID string) error
	// ResetBrokenStreaks zeroes every streak whose stamp is older than
	// yesterday and returns how many users were touched.
	ResetBrokenStreaks(ctx context.Context, today civil.Date) (int64, error)

	AppendUserPost(ctx context.Context, userID, postID string) error
	SetLevel(ctx context.Context, userID string, level int) error
	SetLikedPost(ctx context.Context, userID, postID string, liked bool) error
	AddLikesReceived(ctx context.Context, userID string, delta int) error
	AddCommentedPost(ctx context.Context, userID, postID string) error
	AddCommentsReceived(ctx context.Context, userID string, delta int) error
	// GrantAchievements adds ids to the user's unlocked set, skipping ones
	// already present.
	GrantAchievements(ctx context.Context, userID string, ids []string) error

	SaveDeviceToken(ctx context.Context, t *user.DeviceToken) error
	ListDeviceTokens(ctx context.Context, userID string) ([]*user.DeviceToken, error)
}

type FeedQuery struct {
	Limit    int
	Before   *time.Time
	OwnerIDs []string // empty means everyone
	Category post.Category
}

type PostStore interface {
	CreatePost(ctx context.Context, p *post.Post) error
	GetPost(ctx context.Context, id string) (*post.Post, error)
	GetPostForUpdate(ctx context.Context, id string) (*post.Post, error)
	SaveLikes(ctx context.Context, postID string, usersWhoLiked []string) error
	SaveComments(ctx context.Context, postID string, comments []post.Comment) error
	ListPosts(ctx context.Context, q FeedQuery) ([]*post.Post, error)
	CountCompletions(ctx context.Context, userID string) (int, error)
}

// BBox is a lat/lng filter. MinLng > MaxLng selects the band that crosses
// the antimeridian.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func (b BBox) Contains(lat, lng float64) bool {
	if lat < b.MinLat || lat > b.MaxLat {
		return false
	}
	if b.MinLng > b.MaxLng {
		return lng >= b.MinLng || lng <= b.MaxLng
	}
	return lng >= b.MinLng && lng <= b.MaxLng
}

type ChallengeQuery struct {
	Category   challenge.Category
	ActiveOnly bool
	Within     *BBox
}

type ChallengeStore interface {
	CreateChallenge(ctx context.Context, c *challenge.Challenge) error
	GetChallenge(ctx context.Context, id string) (*challenge.Challenge, error)
	ListChallenges(ctx context.Context, q ChallengeQuery) ([]*challenge.Challenge, error)
	IncrementFinishes(ctx context.Context, challengeID string) error
	GetDailyChallengeID(ctx context.Context, date civil.Date) (string, error)
	// ClaimDailyChallenge stores challengeID for date unless a pick already
	// exists, and returns whichever id is stored.
	ClaimDailyChallenge(ctx context.Context, date civil.Date, challengeID string) (string, error)

	CreateSubmission(ctx context.Context, s *challenge.Submission) error
	GetSubmission(ctx context.Context, id string) (*challenge.Submission, error)
	GetSubmissionForUpdate(ctx context.Context, id string) (*challenge.Submission, error)
	SaveReview(ctx context.Context, s *challenge.Submission) error
	ListSubmissions(ctx context.Context, status challenge.SubmissionStatus, ownerID string) ([]*challenge.Submission, error)
}

type FriendshipStore interface {
	// FindFriendship returns the row between a and b in either direction.
	FindFriendship(ctx context.Context, a, b string) (*friendship.Friendship, error)
	GetFriendshipForUpdate(ctx context.Context, id string) (*friendship.Friendship, error)
	// CreateFriendship returns apperr.ErrDuplicateRequest when the pair
	// already has a row.
	CreateFriendship(ctx context.Context, f *friendship.Friendship) error
	SaveFriendship(ctx context.Context, f *friendship.Friendship) error
	DeleteFriendship(ctx context.Context, id string) error
	ListFriendships(ctx context.Context, userID string, status friendship.Status) ([]*friendship.Friendship, error)
}

type InviteStore interface {
	CreateInvite(ctx context.Context, inv *invite.Invite) error
	GetInviteForUpdate(ctx context.Context, id string) (*invite.Invite, error)
	SaveParticipants(ctx context.Context, inv *invite.Invite) error
	ListInvitesFor(ctx context.Context, userID string) ([]*invite.Invite, error)
}

type CatalogStore interface {
	ListAchievements(ctx context.Context) ([]*achievement.Achievement, error)
	ListLevels(ctx context.Context) ([]achievement.Level, error)
}

type LeaderboardQuery struct {
	UserIDs []string // empty means everyone
	Limit   int
}

type LeaderboardStore interface {
	// Leaderboard returns entries sorted by streak then likes received,
	// without ranks.
	Leaderboard(ctx context.Context, q LeaderboardQuery) ([]*leaderboard.LeaderboardEntry, error)
}

type Store interface {
	UserStore
	PostStore
	ChallengeStore
	FriendshipStore
	InviteStore
	CatalogStore
	LeaderboardStore

	// WithTx runs fn inside one transaction. The Store handed to fn must be
	// used for every read and write that belongs to the operation. A non-nil
	// error from fn rolls everything back.
	WithTx(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
