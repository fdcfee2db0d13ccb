package services

import (
	"time"

	"cloud.google.com/go/civil"

	"wildAppAPI/internal/streak"
)

// Calendar decides what "today" is for streaks and the daily challenge.
type Calendar struct {
	Now func() time.Time
	Loc *time.Location
}

func NewCalendar(loc *time.Location) *Calendar {
	return &Calendar{Now: time.Now, Loc: loc}
}

func (c *Calendar) Today() civil.Date {
	return streak.Today(c.Now(), c.Loc)
}
