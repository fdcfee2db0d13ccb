package services

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/challenge"
	"wildAppAPI/internal/notification"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store"
)

type ModerationService struct {
	store        store.Store
	storage      storage.ObjectStorage
	notifier     Notifier
	cal          *Calendar
	moderatorIDs []string
}

func NewModerationService(st store.Store, objects storage.ObjectStorage, notifier Notifier, cal *Calendar, moderatorIDs []string) *ModerationService {
	return &ModerationService{store: st, storage: objects, notifier: notifier, cal: cal, moderatorIDs: moderatorIDs}
}

// SubmitChallenge files a user-proposed challenge for review.
func (s *ModerationService) SubmitChallenge(ctx context.Context, sess *session.Session, req *challenge.SubmitRequest, photo []byte, contentType string) (*challenge.Submission, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.ChallengeName)
	if n := utf8.RuneCountInString(name); n < 3 || n > 80 {
		return nil, apperr.Invalid("challenge name must be between 3 and 80 characters")
	}
	description := strings.TrimSpace(req.Description)
	if utf8.RuneCountInString(description) > 1000 {
		return nil, apperr.Invalid("description is longer than 1000 characters")
	}
	category, err := challenge.ParseOfficialCategory(req.Category)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	sub := &challenge.Submission{
		ID:            uuid.NewString(),
		OwnerID:       uid,
		Username:      u.Username,
		ChallengeName: name,
		Category:      string(category),
		Description:   description,
		Caption:       strings.TrimSpace(req.Caption),
		Status:        challenge.SubmissionPending,
	}
	create := func(url string) error {
		if url != "" {
			sub.PhotoURL = &url
		}
		if err := s.store.CreateSubmission(ctx, sub); err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}
		return nil
	}

	if len(photo) > 0 {
		if err := validateImage(photo, contentType); err != nil {
			return nil, err
		}
		key := fmt.Sprintf("submissions/%s/%s.%s", uid, sub.ID, storage.ExtensionFor(contentType))
		err = withUpload(ctx, s.storage, "submit_challenge", key, photo, contentType, create)
	} else {
		err = create(strings.TrimSpace(req.PhotoURL))
	}
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", uid).Str("submission_id", sub.ID).Msg("challenge submitted")
	return sub, nil
}

// IsModerator reports whether userID may review submissions.
func (s *ModerationService) IsModerator(ctx context.Context, userID string) (bool, error) {
	if slices.Contains(s.moderatorIDs, userID) {
		return true, nil
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsModerator, nil
}

func (s *ModerationService) requireModerator(ctx context.Context, sess *session.Session) (string, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return "", err
	}
	ok, err := s.IsModerator(ctx, uid)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: moderators only", apperr.ErrForbidden)
	}
	return uid, nil
}

// ListPending returns pending submissions, oldest first.
func (s *ModerationService) ListPending(ctx context.Context, sess *session.Session) ([]*challenge.Submission, error) {
	if _, err := s.requireModerator(ctx, sess); err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubmissions(ctx, challenge.SubmissionPending, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return nonNilSubmissions(subs), nil
}

func (s *ModerationService) ListMySubmissions(ctx context.Context, sess *session.Session) ([]*challenge.Submission, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	subs, err := s.store.ListSubmissions(ctx, "", uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	return nonNilSubmissions(subs), nil
}

// ReviewSubmission approves or rejects a pending submission. Approval
// creates the challenge in the same transaction; if the submission's
// category is not an official one nothing is written and it stays pending.
func (s *ModerationService) ReviewSubmission(ctx context.Context, sess *session.Session, id string, req *challenge.ReviewRequest) (*challenge.Submission, error) {
	reviewer, err := s.requireModerator(ctx, sess)
	if err != nil {
		return nil, err
	}
	if req.Decision != challenge.SubmissionApproved && req.Decision != challenge.SubmissionRejected {
		return nil, apperr.Invalid(fmt.Sprintf("decision must be approved or rejected, got %q", req.Decision))
	}

	var sub *challenge.Submission
	err = s.store.WithTx(ctx, func(tx store.Store) error {
		sub, err = tx.GetSubmissionForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if sub.IsTerminal() {
			return fmt.Errorf("%w: submission is already %s", apperr.ErrInvalidTransition, sub.Status)
		}

		if req.Decision == challenge.SubmissionApproved {
			category, err := challenge.ParseOfficialCategory(sub.Category)
			if err != nil {
				return err
			}
			ch := &challenge.Challenge{
				Name:        sub.ChallengeName,
				Category:    category,
				Description: sub.Description,
				Difficulty:  challenge.DifficultyMedium,
				IsActive:    true,
			}
			if err := tx.CreateChallenge(ctx, ch); err != nil {
				return fmt.Errorf("failed to create challenge: %w", err)
			}
			sub.ChallengeID = &ch.ID
			if _, err := grantEarned(ctx, tx, sub.OwnerID, true); err != nil {
				return err
			}
		}

		now := s.cal.Now().UTC()
		sub.Status = req.Decision
		sub.ReviewedBy = &reviewer
		sub.ReviewedAt = &now
		if notes := strings.TrimSpace(req.Notes); notes != "" {
			sub.ReviewNotes = &notes
		}
		return tx.SaveReview(ctx, sub)
	})
	if err != nil {
		return nil, err
	}

	submissionsReviewed.WithLabelValues(string(sub.Status)).Inc()
	s.notifier.Notify(notification.SubmissionReviewed(sub.OwnerID, sub.ChallengeName, string(sub.Status)))
	log.Info().Str("submission_id", sub.ID).Str("reviewer", reviewer).Str("decision", string(sub.Status)).Msg("submission reviewed")
	return sub, nil
}

func nonNilSubmissions(s []*challenge.Submission) []*challenge.Submission {
	if s == nil {
		return []*challenge.Submission{}
	}
	return s
}
