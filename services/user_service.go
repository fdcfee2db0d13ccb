package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/apperr"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/storage"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/user"
)

type UserService struct {
	store   store.Store
	storage storage.ObjectStorage
}

func NewUserService(st store.Store, objects storage.ObjectStorage) *UserService {
	return &UserService{store: st, storage: objects}
}

// SyncFromClerk creates or refreshes the row for an identity provider user.
func (s *UserService) SyncFromClerk(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	if strings.TrimSpace(req.ID) == "" {
		return nil, apperr.Invalid("user id is required")
	}
	if req.Username == "" {
		req.Username = fallbackUsername(req)
	}

	u, err := s.store.UpsertUser(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to sync user: %w", err)
	}
	log.Info().Str("user_id", u.ID).Msg("user synced from clerk")
	return u, nil
}

func fallbackUsername(req *user.CreateUserRequest) string {
	if local, _, ok := strings.Cut(req.Email, "@"); ok && local != "" {
		return local
	}
	return "wild_" + strings.ToLower(req.ID[max(0, len(req.ID)-6):])
}

// DeleteFromClerk removes the user. Deleting an unknown user is not an
// error so webhook redeliveries are harmless.
func (s *UserService) DeleteFromClerk(ctx context.Context, userID string) error {
	err := s.store.DeleteUser(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		log.Debug().Str("user_id", userID).Msg("delete for unknown user ignored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	log.Info().Str("user_id", userID).Msg("user deleted")
	return nil
}

func (s *UserService) GetProfile(ctx context.Context, sess *session.Session) (*user.User, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	return s.store.GetUser(ctx, uid)
}

// GetUser returns another user's public profile.
func (s *UserService) GetUser(ctx context.Context, sess *session.Session, userID string) (*user.Profile, error) {
	viewer, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := canView(ctx, s.store, viewer, u); err != nil {
		return nil, err
	}
	p := u.Profile()
	return &p, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, sess *session.Session, req *user.UpdateProfileRequest) (*user.User, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username != "" {
		if n := utf8.RuneCountInString(req.Username); n < 3 || n > 30 {
			return nil, apperr.Invalid("username must be between 3 and 30 characters")
		}
	}
	req.ProfilePicture = strings.TrimSpace(req.ProfilePicture)

	u, err := s.store.UpdateProfile(ctx, uid, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return u, nil
}

// UploadProfilePicture stores a new avatar and points the profile at it.
func (s *UserService) UploadProfilePicture(ctx context.Context, sess *session.Session, body []byte, contentType string) (*user.User, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, apperr.Invalid("photo is empty")
	}
	if err := validateImage(body, contentType); err != nil {
		return nil, err
	}

	var u *user.User
	key := fmt.Sprintf("avatars/%s/%s.%s", uid, uuid.NewString(), storage.ExtensionFor(contentType))
	err = withUpload(ctx, s.storage, "upload_profile_picture", key, body, contentType, func(url string) error {
		u, err = s.store.UpdateProfile(ctx, uid, &user.UpdateProfileRequest{ProfilePicture: url})
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

var devicePlatforms = map[string]bool{"ios": true, "android": true, "web": true}

func (s *UserService) RegisterDevice(ctx context.Context, sess *session.Session, req *user.RegisterDeviceRequest) error {
	uid, err := session.Require(sess)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return apperr.Invalid("token is required")
	}
	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	if !devicePlatforms[platform] {
		return apperr.Invalid(fmt.Sprintf("unknown platform %q", req.Platform))
	}

	if err := s.store.SaveDeviceToken(ctx, &user.DeviceToken{UserID: uid, Token: token, Platform: platform}); err != nil {
		return fmt.Errorf("failed to save device token: %w", err)
	}
	return nil
}
