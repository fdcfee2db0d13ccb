package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wildAppAPI/internal/challenge"
)

type fakeSweeper struct {
	calls int
	err   error
}

func (f *fakeSweeper) SweepBrokenStreaks(ctx context.Context) (int64, error) {
	f.calls++
	return 3, f.err
}

type fakeRotator struct {
	dates []civil.Date
	err   error
}

func (f *fakeRotator) RotateDailyChallenge(ctx context.Context, date civil.Date) (*challenge.DailyChallenge, error) {
	f.dates = append(f.dates, date)
	if f.err != nil {
		return nil, f.err
	}
	return &challenge.DailyChallenge{Date: date, Challenge: &challenge.Challenge{ID: "c1"}}, nil
}

func TestNewRunnerRegistersJobs(t *testing.T) {
	sweeper := &fakeSweeper{}
	rotator := &fakeRotator{}
	day := civil.Date{Year: 2024, Month: 3, Day: 10}

	runner, err := NewRunner(time.UTC,
		NewStreakSweepJob(sweeper),
		NewDailyChallengeJob(rotator, func() civil.Date { return day }),
	)
	require.NoError(t, err)
	assert.Len(t, runner.Entries(), 2)

	for _, e := range runner.Entries() {
		next := e.Schedule.Next(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
		assert.Equal(t, 11, next.Day())
		assert.Equal(t, 0, next.Hour())
	}
}

func TestJobsRun(t *testing.T) {
	sweeper := &fakeSweeper{}
	NewStreakSweepJob(sweeper).Run()
	assert.Equal(t, 1, sweeper.calls)

	day := civil.Date{Year: 2024, Month: 3, Day: 10}
	rotator := &fakeRotator{}
	NewDailyChallengeJob(rotator, func() civil.Date { return day }).Run()
	assert.Equal(t, []civil.Date{day, day.AddDays(1)}, rotator.dates)
}

func TestDailyChallengeJobStopsOnFailure(t *testing.T) {
	day := civil.Date{Year: 2024, Month: 3, Day: 10}
	rotator := &fakeRotator{err: errors.New("no challenges")}
	NewDailyChallengeJob(rotator, func() civil.Date { return day }).Run()
	assert.Equal(t, []civil.Date{day}, rotator.dates)
}

func TestJobFailuresDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		NewStreakSweepJob(&fakeSweeper{err: errors.New("db down")}).Run()
		NewDailyChallengeJob(&fakeRotator{err: errors.New("no challenges")}, func() civil.Date { return civil.Date{} }).Run()
	})
}
