package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/friendship"
	"wildAppAPI/internal/lock"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/user"
)

type SocialService struct {
	store    store.Store
	locker   lock.Locker
	notifier Notifier
	cal      *Calendar
}

func NewSocialService(st store.Store, locker lock.Locker, notifier Notifier, cal *Calendar) *SocialService {
	return &SocialService{store: st, locker: locker, notifier: notifier, cal: cal}
}

// SendRequest opens a pending request from the caller to addresseeID. The
// check-then-insert runs under a lock on the unordered pair, and the table's
// pair index turns any race that slips through into ErrDuplicateRequest.
func (s *SocialService) SendRequest(ctx context.Context, sess *session.Session, addresseeID string) (*friendship.Friendship, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	addresseeID = strings.TrimSpace(addresseeID)
	if addresseeID == "" {
		return nil, apperr.Invalid("addressee_id is required")
	}
	if addresseeID == uid {
		return nil, apperr.Invalid("cannot send a friend request to yourself")
	}

	requester, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetUser(ctx, addresseeID); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, lock.PairKey("friendship", uid, addresseeID))
	if err != nil {
		return nil, fmt.Errorf("failed to lock friend pair: %w", err)
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn().Err(err).Str("user_id", uid).Msg("failed to release friend pair lock")
		}
	}()

	var f *friendship.Friendship
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		existing, err := tx.FindFriendship(ctx, uid, addresseeID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			f = &friendship.Friendship{
				RequesterID: uid,
				AddresseeID: addresseeID,
				Status:      friendship.StatusPending,
				CreatedAt:   s.cal.Now().UTC(),
			}
			return tx.CreateFriendship(ctx, f)
		case err != nil:
			return err
		case existing.Status == friendship.StatusDeclined:
			// a declined pair can be asked again, by either side
			existing.RequesterID = uid
			existing.AddresseeID = addresseeID
			existing.Status = friendship.StatusPending
			existing.CreatedAt = s.cal.Now().UTC()
			existing.RespondedAt = nil
			f = existing
			return tx.SaveFriendship(ctx, f)
		default:
			return apperr.ErrDuplicateRequest
		}
	})
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicateRequest) {
			friendRequests.WithLabelValues("duplicate").Inc()
		}
		return nil, err
	}

	friendRequests.WithLabelValues("sent").Inc()
	s.notifier.Notify(notification.FriendRequest(addresseeID, requester.Username, f.ID))
	log.Info().Str("requester_id", uid).Str("addressee_id", addresseeID).Msg("friend request sent")
	return f, nil
}

// RespondToRequest accepts or declines a pending request. Only the
// addressee may answer, and only once.
func (s *SocialService) RespondToRequest(ctx context.Context, sess *session.Session, requestID, decision string) (*friendship.Friendship, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	status, err := friendship.ParseDecision(decision)
	if err != nil {
		return nil, err
	}

	var f *friendship.Friendship
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		f, err = tx.GetFriendshipForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if f.AddresseeID != uid {
			return fmt.Errorf("%w: only the addressee can respond", apperr.ErrForbidden)
		}
		if f.Status != friendship.StatusPending {
			return fmt.Errorf("%w: request is already %s", apperr.ErrInvalidTransition, f.Status)
		}
		now := s.cal.Now().UTC()
		f.Status = status
		f.RespondedAt = &now
		return tx.SaveFriendship(ctx, f)
	})
	if err != nil {
		return nil, err
	}

	friendRequests.WithLabelValues(string(status)).Inc()
	if status == friendship.StatusAccepted {
		if u, err := s.store.GetUser(ctx, uid); err == nil {
			s.notifier.Notify(notification.FriendAccepted(f.RequesterID, u.Username))
		}
	}
	return f, nil
}

// RemoveFriend deletes an accepted friendship between the caller and
// otherID.
func (s *SocialService) RemoveFriend(ctx context.Context, sess *session.Session, otherID string) error {
	uid, err := session.Require(sess)
	if err != nil {
		return err
	}
	return s.store.WithTx(ctx, func(tx store.Store) error {
		f, err := tx.FindFriendship(ctx, uid, otherID)
		if err != nil {
			return err
		}
		if f.Status != friendship.StatusAccepted {
			return apperr.NotFound("friendship")
		}
		return tx.DeleteFriendship(ctx, f.ID)
	})
}

func (s *SocialService) GetFriends(ctx context.Context, userID string) ([]*friendship.Friend, error) {
	rows, err := s.store.ListFriendships(ctx, userID, friendship.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friendships: %w", err)
	}
	profiles, err := s.profilesFor(ctx, rows, userID)
	if err != nil {
		return nil, err
	}

	friends := make([]*friendship.Friend, 0, len(rows))
	for _, f := range rows {
		p, ok := profiles[f.Other(userID)]
		if !ok {
			continue
		}
		since := f.CreatedAt
		if f.RespondedAt != nil {
			since = *f.RespondedAt
		}
		friends = append(friends, &friendship.Friend{FriendshipID: f.ID, Friend: p, Since: since})
	}
	return friends, nil
}

func (s *SocialService) GetPendingRequests(ctx context.Context, sess *session.Session) ([]*friendship.PendingRequest, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListFriendships(ctx, uid, friendship.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	profiles, err := s.profilesFor(ctx, rows, uid)
	if err != nil {
		return nil, err
	}

	out := make([]*friendship.PendingRequest, 0, len(rows))
	for _, f := range rows {
		direction := "incoming"
		if f.RequesterID == uid {
			direction = "outgoing"
		}
		out = append(out, &friendship.PendingRequest{
			FriendshipID: f.ID,
			User:         profiles[f.Other(uid)],
			Direction:    direction,
			CreatedAt:    f.CreatedAt,
		})
	}
	return out, nil
}

// GetFriendshipStatus reports the pair state from the caller's side.
func (s *SocialService) GetFriendshipStatus(ctx context.Context, sess *session.Session, otherID string) (*friendship.StatusResponse, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	resp := &friendship.StatusResponse{UserID: otherID, Status: friendship.RelationNone}
	if otherID == uid {
		return resp, nil
	}

	f, err := s.store.FindFriendship(ctx, uid, otherID)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	resp.Status = friendship.RelationFor(f, uid)
	return resp, nil
}

func (s *SocialService) profilesFor(ctx context.Context, rows []*friendship.Friendship, userID string) (map[string]user.Profile, error) {
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.Other(userID))
	}
	users, err := s.store.GetUsers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	out := make(map[string]user.Profile, len(users))
	for _, u := range users {
		out[u.ID] = u.Profile()
	}
	return out, nil
}

// friendIDs lists the users with an accepted friendship with userID.
func friendIDs(ctx context.Context, st store.FriendshipStore, userID string) ([]string, error) {
	rows, err := st.ListFriendships(ctx, userID, friendship.StatusAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	ids := make([]string, 0, len(rows))
	for _, f := range rows {
		ids = append(ids, f.Other(userID))
	}
	return ids, nil
}

func areFriends(ctx context.Context, st store.FriendshipStore, a, b string) (bool, error) {
	f, err := st.FindFriendship(ctx, a, b)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return f.Status == friendship.StatusAccepted, nil
}

// canView returns ErrForbidden when target is private and viewer is neither
// the target nor a friend.
func canView(ctx context.Context, st store.FriendshipStore, viewer string, target *user.User) error {
	if target.IsPublic || target.ID == viewer {
		return nil
	}
	ok, err := areFriends(ctx, st, viewer, target.ID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: profile is private", apperr.ErrForbidden)
	}
	return nil
}
