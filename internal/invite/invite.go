package invite

import (
	"slices"
	"time"
)

type Invite struct {
	ID                  string    `json:"id"`
	ChallengeID         string    `json:"challenge_id"`
	SenderID            string    `json:"sender_id"`
	Participants        []string  `json:"participants"`
	PendingParticipants []string  `json:"pending_participants"`
	CreatedAt           time.Time `json:"created_at"`
}

func (i *Invite) IsPending(userID string) bool {
	return slices.Contains(i.PendingParticipants, userID)
}

// Accept moves userID from pending to participants.
func (i *Invite) Accept(userID string) bool {
	idx := slices.Index(i.PendingParticipants, userID)
	if idx < 0 {
		return false
	}
	i.PendingParticipants = slices.Delete(slices.Clone(i.PendingParticipants), idx, idx+1)
	if !slices.Contains(i.Participants, userID) {
		i.Participants = append(slices.Clone(i.Participants), userID)
	}
	return true
}

// Decline drops userID from pending.
func (i *Invite) Decline(userID string) bool {
	idx := slices.Index(i.PendingParticipants, userID)
	if idx < 0 {
		return false
	}
	i.PendingParticipants = slices.Delete(slices.Clone(i.PendingParticipants), idx, idx+1)
	return true
}

type CreateRequest struct {
	ChallengeID string   `json:"challenge_id"`
	FriendIDs   []string `json:"friend_ids"`
}

type CreateResponse struct {
	Invite       *Invite `json:"invite"`
	ShareLink    string  `json:"share_link"`
	QrCodeBase64 string  `json:"qr_code_base64"`
}
