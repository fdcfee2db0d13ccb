package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/post"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/store"
)

const maxCommentLength = 500

type EngagementService struct {
	store    store.Store
	notifier Notifier
	cal      *Calendar
}

func NewEngagementService(st store.Store, notifier Notifier, cal *Calendar) *EngagementService {
	return &EngagementService{store: st, notifier: notifier, cal: cal}
}

// ToggleLike flips the caller's like on a post. The post row, the liker's
// liked set and the owner's likes_received move together.
func (s *EngagementService) ToggleLike(ctx context.Context, sess *session.Session, postID string) (*post.LikeResult, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	var (
		result *post.LikeResult
		liker  string
	)
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		p, err := tx.GetPostForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, uid)
		if err != nil {
			return err
		}
		liker = u.Username

		liked := p.ToggleLike(uid)
		if err := tx.SaveLikes(ctx, p.ID, p.UsersWhoLiked); err != nil {
			return fmt.Errorf("failed to save likes: %w", err)
		}
		if err := tx.SetLikedPost(ctx, uid, p.ID, liked); err != nil {
			return fmt.Errorf("failed to update liked posts: %w", err)
		}

		if owner := p.Owner(); owner != "" {
			delta := 1
			if !liked {
				delta = -1
			}
			if err := tx.AddLikesReceived(ctx, owner, delta); err != nil {
				return fmt.Errorf("failed to update likes received: %w", err)
			}
			if liked {
				if _, err := grantEarned(ctx, tx, owner, false); err != nil {
					return err
				}
			}
		}

		result = &post.LikeResult{
			Liked:         liked,
			NewLikesCount: p.Likes,
			OwnerPost:     p.Owner(),
			UsersWhoLiked: p.UsersWhoLiked,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	action := "unlike"
	if result.Liked {
		action = "like"
		if result.OwnerPost != "" && result.OwnerPost != uid {
			s.notifier.Notify(notification.PostLiked(result.OwnerPost, liker, postID))
		}
	}
	likesToggled.WithLabelValues(action).Inc()
	if result.UsersWhoLiked == nil {
		result.UsersWhoLiked = []string{}
	}
	return result, nil
}

// AddComment appends a comment and credits the post owner.
func (s *EngagementService) AddComment(ctx context.Context, sess *session.Session, postID, text string) (*post.Comment, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxCommentLength {
		return nil, apperr.Invalid("comment must be between 1 and 500 characters")
	}

	var (
		c     post.Comment
		owner string
	)
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		p, err := tx.GetPostForUpdate(ctx, postID)
		if err != nil {
			return err
		}
		u, err := tx.GetUser(ctx, uid)
		if err != nil {
			return err
		}

		c = post.Comment{
			ID:             uuid.NewString(),
			Text:           text,
			Timestamp:      s.cal.Now().UTC(),
			UserID:         uid,
			Username:       u.Username,
			ProfilePicture: u.ProfilePicture,
		}
		p.AppendComment(c)
		if err := tx.SaveComments(ctx, p.ID, p.Comments); err != nil {
			return fmt.Errorf("failed to save comments: %w", err)
		}
		if err := tx.AddCommentedPost(ctx, uid, p.ID); err != nil {
			return fmt.Errorf("failed to update commented posts: %w", err)
		}

		owner = p.Owner()
		if owner != "" {
			if err := tx.AddCommentsReceived(ctx, owner, 1); err != nil {
				return fmt.Errorf("failed to update comments received: %w", err)
			}
			if _, err := grantEarned(ctx, tx, owner, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if owner != "" && owner != uid {
		s.notifier.Notify(notification.PostCommented(owner, c.Username, postID, c.Text))
	}
	log.Debug().Str("user_id", uid).Str("post_id", postID).Msg("comment added")
	return &c, nil
}

func (s *EngagementService) GetComments(ctx context.Context, postID string) ([]post.Comment, error) {
	p, err := s.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.Comments == nil {
		return []post.Comment{}, nil
	}
	return p.Comments, nil
}
