package user

import (
	"slices"
	"time"

	"cloud.google.com/go/civil"
)

type User struct {
	ID                string      `json:"id"`
	Username          string      `json:"username"`
	Email             string      `json:"email"`
	ProfilePicture    string      `json:"profile_picture,omitempty"`
	Posts             []string    `json:"posts"`
	Streak            int         `json:"streak"`
	StreakLastUpdated *civil.Date `json:"streak_last_updated"`
	LikedPosts        []string    `json:"liked_posts"`
	CommentedPosts    []string    `json:"commented_posts"`
	LikesReceived     int         `json:"likes_received"`
	CommentsReceived  int         `json:"comments_received"`
	Achievements      []string    `json:"achievements"`
	Level             int         `json:"level"`
	IsPublic          bool        `json:"is_public"`
	IsModerator       bool        `json:"is_moderator"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Profile is what other users get to see.
type Profile struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profile_picture,omitempty"`
	Streak         int    `json:"streak"`
	Level          int    `json:"level"`
	IsPublic       bool   `json:"is_public"`
}

func (u *User) Profile() Profile {
	return Profile{
		ID:             u.ID,
		Username:       u.Username,
		ProfilePicture: u.ProfilePicture,
		Streak:         u.Streak,
		Level:          u.Level,
		IsPublic:       u.IsPublic,
	}
}

func (u *User) HasLiked(postID string) bool {
	return slices.Contains(u.LikedPosts, postID)
}
