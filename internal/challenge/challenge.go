package challenge

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"wildAppAPI/internal/apperr"
)

type Category string

const (
	CategorySocial    Category = "social"
	CategoryCreative  Category = "creative"
	CategoryAdventure Category = "adventure"
	CategoryDaily     Category = "daily"
)

// ParseOfficialCategory accepts the categories a user submission may be
// published under. Daily challenges are curated and never come from users.
func ParseOfficialCategory(s string) (Category, error) {
	switch c := Category(s); c {
	case CategorySocial, CategoryCreative, CategoryAdventure:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", apperr.ErrInvalidCategory, s)
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

type Challenge struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Category    Category   `json:"category"`
	Description string     `json:"description"`
	Difficulty  Difficulty `json:"difficulty"`
	Finishes    int        `json:"finishes"`
	IsActive    bool       `json:"is_active"`
	Local       *string    `json:"local,omitempty"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type NearbyChallenge struct {
	Challenge
	DistanceKm float64 `json:"distance_km"`
}

type DailyChallenge struct {
	Date      civil.Date `json:"date"`
	Challenge *Challenge `json:"challenge"`
}

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is a user-proposed challenge waiting for a moderator.
type Submission struct {
	ID            string           `json:"id"`
	OwnerID       string           `json:"owner_id"`
	Username      string           `json:"username"`
	ChallengeName string           `json:"challenge_name"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	PhotoURL      *string          `json:"photo_url,omitempty"`
	Caption       string           `json:"caption,omitempty"`
	Status        SubmissionStatus `json:"status"`
	ReviewedBy    *string          `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time       `json:"reviewed_at,omitempty"`
	ReviewNotes   *string          `json:"review_notes,omitempty"`
	ChallengeID   *string          `json:"challenge_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}

func (s *Submission) IsTerminal() bool {
	return s.Status == SubmissionApproved || s.Status == SubmissionRejected
}

type SubmitRequest struct {
	ChallengeName string `json:"challenge_name"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	Caption       string `json:"caption,omitempty"`
	PhotoURL      string `json:"photo_url,omitempty"`
}

type ReviewRequest struct {
	Decision SubmissionStatus `json:"decision"`
	Notes    string           `json:"notes,omitempty"`
}

type CompleteRequest struct {
	Caption   string   `json:"caption"`
	PhotoURL  string   `json:"photo_url,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Photo, when set, is uploaded to object storage and wins over PhotoURL.
	Photo            []byte `json:"-"`
	PhotoContentType string `json:"-"`
}
