// Package post holds feed entries. A post is either a challenge completion
// with photo proof or a retreat ("coward" post) with no photo.
package post

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"wildAppAPI/internal/apperr"
)

type Category string

const (
	CategorySocial    Category = "social"
	CategoryAdventure Category = "adventure"
	CategoryCreative  Category = "creative"
	CategoryDaily     Category = "daily"
	CategoryCoward    Category = "COWARD"
)

// ParseCompletionCategory accepts the categories a completion post can carry.
func ParseCompletionCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategorySocial, CategoryAdventure, CategoryCreative, CategoryDaily:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrInvalidCategory, s)
}

// Kind is sealed: Completion and Retreat are the only implementations.
type Kind interface {
	Category() Category
	isKind()
}

type Completion struct {
	PostCategory Category
	PhotoURL     string
	Caption      string
}

func (c Completion) Category() Category { return c.PostCategory }
func (Completion) isKind()              {}

type Retreat struct{}

func (Retreat) Category() Category { return CategoryCoward }
func (Retreat) isKind()            {}

type Comment struct {
	ID             string    `json:"id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
	UserID         string    `json:"user_id"`
	Username       string    `json:"username"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Post struct {
	ID            string
	OwnerID       *string
	Username      string
	ChallengeID   *string
	ChallengeName string
	Kind          Kind
	Likes         int
	UsersWhoLiked []string
	Comments      []Comment
	CompletedAt   time.Time
	Location      *Location
}

func (p *Post) IsRetreat() bool {
	_, ok := p.Kind.(Retreat)
	return ok
}

// Owner returns the owner id, or "" for anonymous posts.
func (p *Post) Owner() string {
	if p.OwnerID == nil {
		return ""
	}
	return *p.OwnerID
}

// ToggleLike flips userID in the liker set and keeps Likes equal to the set
// size. It reports whether userID likes the post afterwards.
func (p *Post) ToggleLike(userID string) bool {
	if i := slices.Index(p.UsersWhoLiked, userID); i >= 0 {
		p.UsersWhoLiked = slices.Delete(slices.Clone(p.UsersWhoLiked), i, i+1)
		p.Likes = len(p.UsersWhoLiked)
		return false
	}
	p.UsersWhoLiked = append(slices.Clone(p.UsersWhoLiked), userID)
	p.Likes = len(p.UsersWhoLiked)
	return true
}

func (p *Post) AppendComment(c Comment) {
	p.Comments = append(slices.Clone(p.Comments), c)
}

// Columns flattens the kind into the nullable columns it is stored in.
func Columns(k Kind) (category Category, photoURL *string, caption *string) {
	switch v := k.(type) {
	case Completion:
		var photo *string
		if v.PhotoURL != "" {
			photo = &v.PhotoURL
		}
		return v.PostCategory, photo, &v.Caption
	case Retreat:
		return CategoryCoward, nil, nil
	default:
		panic(fmt.Sprintf("post: unknown kind %T", k))
	}
}

// KindFromColumns is the inverse of Columns.
func KindFromColumns(category string, photoURL, caption *string) (Kind, error) {
	if Category(category) == CategoryCoward {
		return Retreat{}, nil
	}
	c, err := ParseCompletionCategory(category)
	if err != nil {
		return nil, err
	}
	k := Completion{PostCategory: c}
	if photoURL != nil {
		k.PhotoURL = *photoURL
	}
	if caption != nil {
		k.Caption = *caption
	}
	return k, nil
}

type postJSON struct {
	ID            string    `json:"id"`
	OwnerID       *string   `json:"owner_id"`
	Username      string    `json:"username"`
	ChallengeID   *string   `json:"challenge_id,omitempty"`
	ChallengeName string    `json:"challenge_name"`
	Category      Category  `json:"category"`
	PhotoURL      *string   `json:"photo_url"`
	Caption       *string   `json:"caption,omitempty"`
	Likes         int       `json:"likes"`
	UsersWhoLiked []string  `json:"users_who_liked"`
	Comments      []Comment `json:"comments"`
	CompletedAt   time.Time `json:"completed_at"`
	Latitude      *float64  `json:"latitude,omitempty"`
	Longitude     *float64  `json:"longitude,omitempty"`
}

func (p Post) MarshalJSON() ([]byte, error) {
	category, photo, caption := Columns(p.Kind)
	out := postJSON{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Username:      p.Username,
		ChallengeID:   p.ChallengeID,
		ChallengeName: p.ChallengeName,
		Category:      category,
		PhotoURL:      photo,
		Caption:       caption,
		Likes:         p.Likes,
		UsersWhoLiked: p.UsersWhoLiked,
		Comments:      p.Comments,
		CompletedAt:   p.CompletedAt,
	}
	if out.UsersWhoLiked == nil {
		out.UsersWhoLiked = []string{}
	}
	if out.Comments == nil {
		out.Comments = []Comment{}
	}
	if p.Location != nil {
		out.Latitude = &p.Location.Latitude
		out.Longitude = &p.Location.Longitude
	}
	return json.Marshal(out)
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var in postJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	kind, err := KindFromColumns(string(in.Category), in.PhotoURL, in.Caption)
	if err != nil {
		return err
	}
	*p = Post{
		ID:            in.ID,
		OwnerID:       in.OwnerID,
		Username:      in.Username,
		ChallengeID:   in.ChallengeID,
		ChallengeName: in.ChallengeName,
		Kind:          kind,
		Likes:         in.Likes,
		UsersWhoLiked: in.UsersWhoLiked,
		Comments:      in.Comments,
		CompletedAt:   in.CompletedAt,
	}
	if in.Latitude != nil && in.Longitude != nil {
		p.Location = &Location{Latitude: *in.Latitude, Longitude: *in.Longitude}
	}
	return nil
}

// LikeResult mirrors the toggle_post_like RPC payload.
type LikeResult struct {
	Liked         bool     `json:"liked"`
	NewLikesCount int      `json:"new_likes_count"`
	OwnerPost     string   `json:"owner_post"`
	UsersWhoLiked []string `json:"users_who_liked"`
}
