package session

import (
	"context"

	"wildAppAPI/internal/apperr"
)

// Session is the authenticated caller. It is passed explicitly to every
// service call instead of being read from ambient state.
type Session struct {
	UserID string
	Email  string
}

type contextKey struct{}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok && s != nil
}

// Require returns the caller id or ErrAuthenticationRequired.
func Require(s *Session) (string, error) {
	if s == nil || s.UserID == "" {
		return "", apperr.ErrAuthenticationRequired
	}
	return s.UserID, nil
}
