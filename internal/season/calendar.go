// Package season maps calendar dates onto (season, week) positions.
package season

import (
	"fmt"
	"strings"
	"time"

	"github.com/yourusername/spread-edge/internal/models"
)

// Calendar maps a kickoff time to a season and week
type Calendar interface {
	Name() string
	WeekOf(t time.Time) (models.SeasonWeek, error)
}

// WeeklyCalendar numbers weeks from a per-season opening date. Games before the
// opening week fall in week 0.
type WeeklyCalendar struct {
	name string
	// RolloverMonth is the first month of a new season year; earlier months
	// belong to the previous season.
	RolloverMonth time.Month
	// WeekStart is the weekday each betting week begins on.
	WeekStart time.Weekday
	Opening   func(year int) time.Time
	Location  *time.Location
}

// NewWeeklyCalendar creates a calendar
func NewWeeklyCalendar(name string, rollover time.Month, weekStart time.Weekday, opening func(year int) time.Time) *WeeklyCalendar {
	return &WeeklyCalendar{
		name:          name,
		RolloverMonth: rollover,
		WeekStart:     weekStart,
		Opening:       opening,
		Location:      time.UTC,
	}
}

// NFL opens on the Thursday after Labor Day
func NFL() *WeeklyCalendar {
	return NewWeeklyCalendar("nfl", time.March, time.Tuesday, func(year int) time.Time {
		return laborDay(year).AddDate(0, 0, 3)
	})
}

// CollegeFootball opens on the Saturday before Labor Day
func CollegeFootball() *WeeklyCalendar {
	return NewWeeklyCalendar("ncaaf", time.March, time.Tuesday, func(year int) time.Time {
		return laborDay(year).AddDate(0, 0, -2)
	})
}

// ByName returns a built-in calendar
func ByName(name string) (Calendar, error) {
	switch strings.ToLower(name) {
	case "nfl":
		return NFL(), nil
	case "ncaaf", "cfb", "college":
		return CollegeFootball(), nil
	}
	return nil, fmt.Errorf("%w: unknown calendar %q", models.ErrInvalidConfiguration, name)
}

func (c *WeeklyCalendar) Name() string { return c.name }

// WeekOf returns the season and week for a kickoff time
func (c *WeeklyCalendar) WeekOf(t time.Time) (models.SeasonWeek, error) {
	if t.IsZero() {
		return models.SeasonWeek{}, fmt.Errorf("cannot derive week from zero time")
	}
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	year := local.Year()
	if local.Month() < c.RolloverMonth {
		year--
	}

	start := c.firstWeekStart(year, loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if day.Before(start) {
		return models.SeasonWeek{Season: year, Week: 0}, nil
	}
	days := int(day.Sub(start).Hours() / 24)
	return models.SeasonWeek{Season: year, Week: days/7 + 1}, nil
}

// firstWeekStart is the most recent WeekStart on or before the opening date
func (c *WeeklyCalendar) firstWeekStart(year int, loc *time.Location) time.Time {
	open := c.Opening(year)
	open = time.Date(open.Year(), open.Month(), open.Day(), 0, 0, 0, 0, loc)
	back := (int(open.Weekday()) - int(c.WeekStart) + 7) % 7
	return open.AddDate(0, 0, -back)
}

func laborDay(year int) time.Time {
	d := time.Date(year, time.September, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
