package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/places"
	"wildAppAPI/internal/post"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/streak"
	"wildAppAPI/internal/user"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 50
	maxCaptionLength = 500
)

type PostService struct {
	store   store.Store
	storage storage.ObjectStorage
	cal     *Calendar
}

func NewPostService(st store.Store, objects storage.ObjectStorage, cal *Calendar) *PostService {
	return &PostService{store: st, storage: objects, cal: cal}
}

type CompletionResult struct {
	Post            *post.Post `json:"post"`
	Streak          int        `json:"streak"`
	NewStreak       bool       `json:"new_streak"`
	Level           int        `json:"level"`
	LeveledUp       bool       `json:"leveled_up"`
	NewAchievements []string   `json:"new_achievements"`
}

// RefreshStreak applies the streak check for today. A broken streak is
// written back as 0 right away; the stamp is left alone.
func (s *PostService) RefreshStreak(ctx context.Context, sess *session.Session) (*user.StreakState, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	d := streak.Check(u.StreakLastUpdated, s.cal.Today(), u.Streak)
	if d.Kind == streak.Broken && u.Streak != 0 {
		if err := s.store.ResetStreak(ctx, uid); err != nil {
			return nil, fmt.Errorf("failed to reset streak: %w", err)
		}
		log.Debug().Str("user_id", uid).Int("days_diff", d.DaysDiff).Msg("streak broken")
	}

	state := &user.StreakState{
		Streak:   d.Streak,
		Decision: string(d.Kind),
		DaysDiff: d.DaysDiff,
	}
	if u.StreakLastUpdated != nil {
		state.StreakLastUpdated = u.StreakLastUpdated.String()
	}
	return state, nil
}

// SweepBrokenStreaks zeroes every streak that was not continued yesterday
// or today.
func (s *PostService) SweepBrokenStreaks(ctx context.Context) (int64, error) {
	n, err := s.store.ResetBrokenStreaks(ctx, s.cal.Today())
	if err != nil {
		return 0, fmt.Errorf("failed to reset broken streaks: %w", err)
	}
	log.Info().Int64("users", n).Msg("broken streaks reset")
	return n, nil
}

// CompleteChallenge posts photo proof for a challenge and moves the streak,
// level and achievements along in one transaction.
func (s *PostService) CompleteChallenge(ctx context.Context, sess *session.Session, challengeID string, req *challenge.CompleteRequest) (*CompletionResult, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if !ch.IsActive {
		return nil, apperr.NotFound("challenge")
	}
	category, err := post.ParseCompletionCategory(string(ch.Category))
	if err != nil {
		return nil, err
	}

	caption := strings.TrimSpace(req.Caption)
	if utf8.RuneCountInString(caption) > maxCaptionLength {
		return nil, apperr.Invalid("caption is longer than 500 characters")
	}
	loc, err := locationOf(req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}

	postID := uuid.NewString()
	var result *CompletionResult

	write := func(photoURL string) error {
		return s.store.WithTx(ctx, func(tx store.Store) error {
			u, err := tx.GetUserForUpdate(ctx, uid)
			if err != nil {
				return err
			}

			today := s.cal.Today()
			current := streak.Check(u.StreakLastUpdated, today, u.Streak).Streak
			next, isNew := streak.OnCompletion(u.StreakLastUpdated, today, current)

			p := &post.Post{
				ID:            postID,
				OwnerID:       &uid,
				Username:      u.Username,
				ChallengeID:   &ch.ID,
				ChallengeName: ch.Name,
				Kind:          post.Completion{PostCategory: category, PhotoURL: photoURL, Caption: caption},
				Location:      loc,
			}
			if err := tx.CreatePost(ctx, p); err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}
			if err := tx.AppendUserPost(ctx, uid, p.ID); err != nil {
				return fmt.Errorf("failed to link post to user: %w", err)
			}
			if err := tx.IncrementFinishes(ctx, ch.ID); err != nil {
				return fmt.Errorf("failed to count finish: %w", err)
			}
			if err := tx.SaveStreak(ctx, uid, next, today); err != nil {
				return fmt.Errorf("failed to save streak: %w", err)
			}

			level, err := recomputeLevel(ctx, tx, u)
			if err != nil {
				return err
			}
			granted, err := grantEarned(ctx, tx, uid, false)
			if err != nil {
				return err
			}

			result = &CompletionResult{
				Post:            p,
				Streak:          next,
				NewStreak:       isNew,
				Level:           level,
				LeveledUp:       level > u.Level,
				NewAchievements: granted,
			}
			return nil
		})
	}

	if len(req.Photo) > 0 {
		if err := validateImage(req.Photo, req.PhotoContentType); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("posts/%s/%s.%s", uid, postID, storage.ExtensionFor(req.PhotoContentType))
		err = withUpload(ctx, s.storage, "complete_challenge", key, req.Photo, req.PhotoContentType, write)
	} else {
		err = write(req.PhotoURL)
	}
	if err != nil {
		return nil, err
	}

	postsCreated.WithLabelValues("completion").Inc()
	log.Info().Str("user_id", uid).Str("challenge_id", ch.ID).Int("streak", result.Streak).Msg("challenge completed")
	return result, nil
}

// Retreat is the coward path: a photo-less post and a streak reset.
func (s *PostService) Retreat(ctx context.Context, sess *session.Session, challengeID string) (*post.Post, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	ch, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	var p *post.Post
	err = s.store.WithTx(ctx, func(tx store.Store) error {
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

	log.Info().Str("user_id", uid).Str("challenge_id", ch.ID).Msg("challenge retreat")
	return p, nil
}

func createRetreat(ctx context.Context, tx store.Store, u *user.User, ch *challenge.Challenge, today civil.Date) (*post.Post, error) {
	p := &post.Post{
		OwnerID:       &u.ID,
		Username:      u.Username,
		ChallengeID:   &ch.ID,
		ChallengeName: ch.Name,
		Kind:          post.Retreat{},
	}
	if err := tx.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create coward post: %w", err)
	}
	if err := tx.AppendUserPost(ctx, u.ID, p.ID); err != nil {
		return nil, fmt.Errorf("failed to link post to user: %w", err)
	}
	next, stamp := streak.OnRetreat(today)
	if err := tx.SaveStreak(ctx, u.ID, next, stamp); err != nil {
		return nil, fmt.Errorf("failed to save streak: %w", err)
	}
	postsCreated.WithLabelValues("retreat").Inc()
	return p, nil
}

func locationOf(lat, lng *float64) (*post.Location, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil || !places.ValidCoordinates(*lat, *lng) {
		return nil, apperr.Invalid("latitude and longitude must both be set and in range")
	}
	return &post.Location{Latitude: *lat, Longitude: *lng}, nil
}

type FeedRequest struct {
	Limit    int
	Before   *time.Time
	Scope    string // "global" (default) or "friends"
	Category string
}

func (s *PostService) GetFeed(ctx context.Context, sess *session.Session, req FeedRequest) ([]*post.Post, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	q := store.FeedQuery{Limit: req.Limit, Before: req.Before}
	switch {
	case q.Limit < 0:
		return nil, apperr.Invalid("limit must be positive")
	case q.Limit == 0:
		q.Limit = defaultFeedLimit
	case q.Limit > maxFeedLimit:
		q.Limit = maxFeedLimit
	}

	if req.Category != "" {
		c := post.Category(req.Category)
		if c != post.CategoryCoward {
			if c, err = post.ParseCompletionCategory(req.Category); err != nil {
				return nil, err
			}
		}
		q.Category = c
	}

	switch req.Scope {
	case "", "global":
	case "friends":
		ids, err := friendIDs(ctx, s.store, uid)
		if err != nil {
			return nil, err
		}
		q.OwnerIDs = append(ids, uid)
	default:
		return nil, apperr.Invalid(fmt.Sprintf("unknown feed scope %q", req.Scope))
	}

	posts, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed: %w", err)
	}
	return nonNilPosts(posts), nil
}

func (s *PostService) GetPost(ctx context.Context, id string) (*post.Post, error) {
	return s.store.GetPost(ctx, id)
}

// GetUserPosts lists a user's posts. Private profiles are only visible to
// the owner and their friends.
func (s *PostService) GetUserPosts(ctx context.Context, sess *session.Session, userID string) ([]*post.Post, error) {
	viewer, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	target, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := canView(ctx, s.store, viewer, target); err != nil {
		return nil, err
	}

	posts, err := s.store.ListPosts(ctx, store.FeedQuery{OwnerIDs: []string{userID}})
	if err != nil {
		return nil, fmt.Errorf("failed to load user posts: %w", err)
	}
	return nonNilPosts(posts), nil
}

func nonNilPosts(p []*post.Post) []*post.Post {
	if p == nil {
		return []*post.Post{}
	}
	return p
}
