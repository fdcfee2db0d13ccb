package friendship

import (
	"fmt"
	"time"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
)

// ParseDecision accepts the two answers an addressee can give.
func ParseDecision(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusAccepted, StatusDeclined:
		return st, nil
	}
	return "", apperr.Invalid(fmt.Sprintf("decision must be accepted or declined, got %q", s))
}

type Friendship struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	AddresseeID string     `json:"addressee_id"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// Other returns the party of the row that is not userID.
func (f *Friendship) Other(userID string) string {
	if f.RequesterID == userID {
		return f.AddresseeID
	}
	return f.RequesterID
}

func (f *Friendship) Involves(userID string) bool {
	return f.RequesterID == userID || f.AddresseeID == userID
}

// Relation is the friendship state as seen by one side of the pair.
type Relation string

const (
	RelationNone    Relation = "none"
	RelationSent    Relation = "sent"
	RelationPending Relation = "pending"
	RelationFriends Relation = "friends"
)

// RelationFor derives a's view of the single row between a and someone else.
// A nil row and a declined row both read as none.
func RelationFor(f *Friendship, a string) Relation {
	if f == nil {
		return RelationNone
	}
	switch f.Status {
	case StatusAccepted:
		return RelationFriends
	case StatusPending:
		if f.RequesterID == a {
			return RelationSent
		}
		return RelationPending
	default:
		return RelationNone
	}
}

type SendRequest struct {
	AddresseeID string `json:"addressee_id"`
}

type RespondRequest struct {
	Decision string `json:"decision"`
}

type Friend struct {
	FriendshipID string       `json:"friendship_id"`
	Friend       user.Profile `json:"friend"`
	Since        time.Time    `json:"since"`
}

type PendingRequest struct {
	FriendshipID string       `json:"friendship_id"`
	User         user.Profile `json:"user"`
	Direction    string       `json:"direction"` // "incoming" or "outgoing"
	CreatedAt    time.Time    `json:"created_at"`
}

type StatusResponse struct {
	UserID string   `json:"user_id"`
	Status Relation `json:"status"`
}
