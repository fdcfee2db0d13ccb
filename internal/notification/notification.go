package notification

import "fmt"

type Type string

const (
	TypeFriendRequest      Type = "friend_request"
	TypeFriendAccepted     Type = "friend_accepted"
	TypePostLiked          Type = "post_liked"
	TypePostCommented      Type = "post_commented"
	TypeChallengeInvite    Type = "challenge_invite"
	TypeSubmissionReviewed Type = "submission_reviewed"
)

// Notification is a push addressed to every device of one user.
type Notification struct {
	UserID string            `json:"user_id"`
	Type   Type              `json:"type"`
	Title  string            `json:"title"`
	Body   string            `json:"body"`
	Data   map[string]string `json:"data,omitempty"`
}

func FriendRequest(to, fromName, requestID string) *Notification {
	return &Notification{
		UserID: to,
		Type:   TypeFriendRequest,
		Title:  "New friend request",
		Body:   fmt.Sprintf("%s wants to be your friend", fromName),
		Data:   map[string]string{"type": string(TypeFriendRequest), "request_id": requestID},
	}
}

func FriendAccepted(to, byName string) *Notification {
	return &Notification{
		UserID: to,
		Type:   TypeFriendAccepted,
		Title:  "Friend request accepted",
		Body:   fmt.Sprintf("%s accepted your friend request", byName),
		Data:   map[string]string{"type": string(TypeFriendAccepted)},
	}
}

func PostLiked(to, byName, postID string) *Notification {
	return &Notification{
		UserID: to,
		Type:   TypePostLiked,
		Title:  "New like",
		Body:   fmt.Sprintf("%s liked your post", byName),
		Data:   map[string]string{"type": string(TypePostLiked), "post_id": postID},
	}
}

func PostCommented(to, byName, postID, text string) *Notification {
	return &Notification{
		UserID: to,
		Type:   TypePostCommented,
		Title:  fmt.Sprintf("%s commented", byName),
		Body:   truncate(text, 80),
		Data:   map[string]string{"type": string(TypePostCommented), "post_id": postID},
	}
}

func ChallengeInvite(to, fromName, challengeName, inviteID string) *Notification {
	return &Notification{
		UserID: to,
		Type:   TypeChallengeInvite,
		Title:  "You've been challenged",
		Body:   fmt.Sprintf("%s invited you to %q", fromName, challengeName),
		Data:   map[string]string{"type": string(TypeChallengeInvite), "invite_id": inviteID},
	}
}

func SubmissionReviewed(to, challengeName, status string) *Notification {
	return &Notification{
		UserID: to,
		Type:   TypeSubmissionReviewed,
		Title:  "Your challenge was reviewed",
		Body:   fmt.Sprintf("%q was %s", challengeName, status),
		Data:   map[string]string{"type": string(TypeSubmissionReviewed), "status": status},
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
