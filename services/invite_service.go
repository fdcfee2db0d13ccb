package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/invite"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/post"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/store"
)

const maxInvitees = 20

type InviteService struct {
	store         store.Store
	notifier      Notifier
	cal           *Calendar
	shareLinkBase string
}

func NewInviteService(st store.Store, notifier Notifier, cal *Calendar, shareLinkBase string) *InviteService {
	return &InviteService{store: st, notifier: notifier, cal: cal, shareLinkBase: strings.TrimRight(shareLinkBase, "/")}
}

// CreateInvite challenges a set of friends. Every invitee must be an
// accepted friend of the caller.
func (s *InviteService) CreateInvite(ctx context.Context, sess *session.Session, req *invite.CreateRequest) (*invite.CreateResponse, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	invitees := make([]string, 0, len(req.FriendIDs))
	seen := map[string]bool{}
	for _, id := range req.FriendIDs {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if id == uid {
			return nil, apperr.Invalid("cannot invite yourself")
		}
		seen[id] = true
		invitees = append(invitees, id)
	}
	if len(invitees) == 0 {
		return nil, apperr.Invalid("at least one friend is required")
	}
	if len(invitees) > maxInvitees {
		return nil, apperr.Invalid(fmt.Sprintf("at most %d friends per invite", maxInvitees))
	}

	sender, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	ch, err := s.store.GetChallenge(ctx, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive {
		return nil, apperr.NotFound("challenge")
	}

	for _, id := range invitees {
		ok, err := areFriends(ctx, s.store, uid, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s is not your friend", apperr.ErrForbidden, id)
		}
	}

	inv := &invite.Invite{
		ChallengeID:         ch.ID,
		SenderID:            uid,
		Participants:        []string{uid},
		PendingParticipants: invitees,
	}
	if err := s.store.CreateInvite(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invite: %w", err)
	}

	link := fmt.Sprintf("%s/%s", s.shareLinkBase, inv.ID)
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate qr code: %w", err)
	}

	for _, id := range invitees {
		s.notifier.Notify(notification.ChallengeInvite(id, sender.Username, ch.Name, inv.ID))
	}
	log.Info().Str("sender_id", uid).Str("invite_id", inv.ID).Int("invitees", len(invitees)).Msg("invite created")

	return &invite.CreateResponse{
		Invite:       inv,
		ShareLink:    link,
		QrCodeBase64: base64.StdEncoding.EncodeToString(png),
	}, nil
}

// AcceptInvite moves the caller from pending to participants.
func (s *InviteService) AcceptInvite(ctx context.Context, sess *session.Session, inviteID string) (*invite.Invite, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	var inv *invite.Invite
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		inv, err = tx.GetInviteForUpdate(ctx, inviteID)
		if err != nil {
			return err
		}
		if !inv.Accept(uid) {
			return fmt.Errorf("%w: no pending invite for you", apperr.ErrInvalidTransition)
		}
		return tx.SaveParticipants(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// DeclineInvite drops the caller from the invite and posts a retreat for
// the challenge, with the streak penalty that goes with it.
func (s *InviteService) DeclineInvite(ctx context.Context, sess *session.Session, inviteID string) (*post.Post, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	var p *post.Post
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		inv, err := tx.GetInviteForUpdate(ctx, inviteID)
		if err != nil {
			return err
		}
		if !inv.Decline(uid) {
			return fmt.Errorf("%w: no pending invite for you", apperr.ErrInvalidTransition)
		}
		if err := tx.SaveParticipants(ctx, inv); err != nil {
			return err
		}

		ch, err := tx.GetChallenge(ctx, inv.ChallengeID)
		if err != nil {
			return err
		}
		u, err := tx.GetUserForUpdate(ctx, uid)
		if err != nil {
			return err
		}
		p, err = createRetreat(ctx, tx, u, ch, s.cal.Today())
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", uid).Str("invite_id", inviteID).Msg("invite declined")
	return p, nil
}

// ListMyInvites returns invites still waiting on the caller.
func (s *InviteService) ListMyInvites(ctx context.Context, sess *session.Session) ([]*invite.Invite, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	list, err := s.store.ListInvitesFor(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list invites: %w", err)
	}
	if list == nil {
		list = []*invite.Invite{}
	}
	return list, nil
}
