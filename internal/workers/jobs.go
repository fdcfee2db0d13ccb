// Package workers holds the scheduled jobs run by the `cron` command.
package workers

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"wildAppAPI/internal/challenge"
)

const (
	StreakSweepSchedule   = "1 0 * * *"
	DailyRotationSchedule = "5 0 * * *"

	jobTimeout = 2 * time.Minute
)

type StreakSweeper interface {
	SweepBrokenStreaks(ctx context.Context) (int64, error)
}

type DailyRotator interface {
	RotateDailyChallenge(ctx context.Context, date civil.Date) (*challenge.DailyChallenge, error)
}

type Job interface {
	Start(runner *cron.Cron) error
}

// StreakSweepJob zeroes streaks that lapsed overnight so leaderboards do not
// wait for each user's next lazy check.
type StreakSweepJob struct {
	sweeper StreakSweeper
}

func NewStreakSweepJob(sweeper StreakSweeper) *StreakSweepJob {
	return &StreakSweepJob{sweeper: sweeper}
}

func (j *StreakSweepJob) Start(runner *cron.Cron) error {
	_, err := runner.AddFunc(StreakSweepSchedule, j.Run)
	if err != nil {
		return err
	}
	log.Info().Str("cron", StreakSweepSchedule).Msg("streak sweep scheduled")
	return nil
}

func (j *StreakSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := j.sweeper.SweepBrokenStreaks(ctx)
	if err != nil {
		log.Error().Err(err).Msg("streak sweep failed")
		return
	}
	log.Info().Int64("reset", n).Msg("streak sweep finished")
}

// DailyChallengeJob runs shortly after midnight. It makes sure today has a
// pick and settles tomorrow's ahead of time.
type DailyChallengeJob struct {
	rotator DailyRotator
	today   func() civil.Date
}

func NewDailyChallengeJob(rotator DailyRotator, today func() civil.Date) *DailyChallengeJob {
	return &DailyChallengeJob{rotator: rotator, today: today}
}

func (j *DailyChallengeJob) Start(runner *cron.Cron) error {
	_, err := runner.AddFunc(DailyRotationSchedule, j.Run)
	if err != nil {
		return err
	}
	log.Info().Str("cron", DailyRotationSchedule).Msg("daily challenge rotation scheduled")
	return nil
}

func (j *DailyChallengeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	today := j.today()
	for _, date := range []civil.Date{today, today.AddDays(1)} {
		daily, err := j.rotator.RotateDailyChallenge(ctx, date)
		if err != nil {
			log.Error().Err(err).Str("date", date.String()).Msg("daily challenge rotation failed")
			return
		}
		log.Info().Str("date", date.String()).Str("challenge_id", daily.Challenge.ID).Msg("daily challenge picked")
	}
}

// NewRunner builds a cron runner in loc and registers every job on it.
func NewRunner(loc *time.Location, jobs ...Job) (*cron.Cron, error) {
	runner := cron.New(cron.WithLocation(loc))
	for _, j := range jobs {
		if err := j.Start(runner); err != nil {
			return nil, err
		}
	}
	return runner, nil
}
