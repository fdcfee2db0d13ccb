package services

import (
	"context"
	"fmt"
	"time"

	"wildAppAPI/internal/cache"
	"wildAppAPI/internal/leaderboard"
	"wildAppAPI/internal/session"
	"wildAppAPI/internal/store"
)

const (
	globalBoardKey  = "leaderboard:global"
	globalBoardTTL  = time.Minute
	globalBoardSize = 100
)

type LeaderboardService struct {
	store store.Store
	cache cache.Cache
}

func NewLeaderboardService(st store.Store, c cache.Cache) *LeaderboardService {
	return &LeaderboardService{store: st, cache: c}
}

// Global ranks every user. The ranked rows are cached briefly; the caller's
// own position is picked out per request.
func (s *LeaderboardService) Global(ctx context.Context, sess *session.Session) (*leaderboard.Leaderboard, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}

	entries, err := cache.UseCache(ctx, s.cache, globalBoardKey, globalBoardTTL, func() ([]*leaderboard.LeaderboardEntry, error) {
		return s.store.Leaderboard(ctx, store.LeaderboardQuery{})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	board := leaderboard.Build(entries, uid)
	if len(board.Entries) > globalBoardSize {
		board.Entries = board.Entries[:globalBoardSize]
	}
	return board, nil
}

// Friends ranks the caller among their accepted friends.
func (s *LeaderboardService) Friends(ctx context.Context, sess *session.Session) (*leaderboard.Leaderboard, error) {
	uid, err := session.Require(sess)
	if err != nil {
		return nil, err
	}
	ids, err := friendIDs(ctx, s.store, uid)
	if err != nil {
		return nil, err
	}

	entries, err := s.store.Leaderboard(ctx, store.LeaderboardQuery{UserIDs: append(ids, uid)})
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return leaderboard.Build(entries, uid), nil
}
