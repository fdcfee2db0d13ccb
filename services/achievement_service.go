package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/achievement"
	"wildAppAPI/internal/store"
	"wildAppAPI/internal/user"
)

type AchievementService struct {
	store store.Store
}

func NewAchievementService(st store.Store) *AchievementService {
	return &AchievementService{store: st}
}

// GetAchievements returns the whole catalog flagged against what userID has
// unlocked, unlocked entries first.
func (s *AchievementService) GetAchievements(ctx context.Context, userID string) ([]*achievement.AchievementWithStatus, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.store.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	return achievement.Resolve(catalog, u.Achievements), nil
}

func (s *AchievementService) GetProgress(ctx context.Context, userID string) (*achievement.Progress, error) {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	completions, err := s.store.CountCompletions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}
	levels, err := s.store.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels: %w", err)
	}
	catalog, err := s.store.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	level := max(u.Level, achievement.LevelFor(completions, levels))
	unlocked := 0
	for _, a := range achievement.Resolve(catalog, u.Achievements) {
		if a.Unlocked {
			unlocked++
		}
	}
	return &achievement.Progress{
		Level:       level,
		Completions: completions,
		NextLevel:   achievement.NextThreshold(level, levels),
		Unlocked:    unlocked,
		Total:       len(catalog),
	}, nil
}

// recomputeLevel raises u's level to match its completion count. Levels
// never go down.
func recomputeLevel(ctx context.Context, tx store.Store, u *user.User) (int, error) {
	completions, err := tx.CountCompletions(ctx, u.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completions: %w", err)
	}
	levels, err := tx.ListLevels(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load levels: %w", err)
	}
	level := max(u.Level, achievement.LevelFor(completions, levels))
	if level != u.Level {
		if err := tx.SetLevel(ctx, u.ID, level); err != nil {
			return 0, fmt.Errorf("failed to save level: %w", err)
		}
	}
	return level, nil
}

// grantEarned unlocks every catalog achievement userID now qualifies for
// and returns the new ids.
func grantEarned(ctx context.Context, tx store.Store, userID string, approvedChallenge bool) ([]string, error) {
	u, err := tx.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	completions, err := tx.CountCompletions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completions: %w", err)
	}
	catalog, err := tx.ListAchievements(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	ids := achievement.Earned(catalog, u.Achievements, achievement.Stats{
		Completions:       completions,
		Streak:            u.Streak,
		LikesReceived:     u.LikesReceived,
		CommentsReceived:  u.CommentsReceived,
		ApprovedChallenge: approvedChallenge,
	})
	if len(ids) == 0 {
		return nil, nil
	}
	if err := tx.GrantAchievements(ctx, userID, ids); err != nil {
		return nil, fmt.Errorf("failed to grant achievements: %w", err)
	}
	log.Info().Str("user_id", userID).Strs("achievements", ids).Msg("achievements unlocked")
	return ids, nil
}
