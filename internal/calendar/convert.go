package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/civil"
	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
)

// Result is the lunisolar date of one instant.
type Result struct {
	LunarYear   int
	LunarMonth  int
	LunarDay    int
	IsLeapMonth bool

	Year  ganzhi.Designation
	Month ganzhi.Designation
	Day   ganzhi.Designation
	Hour  ganzhi.Designation

	// Wall is the query instant at the caller's offset.
	Wall civil.WallClock
	// Period is the lunar month containing Wall's date.
	Period MonthPeriod
}

// Convert resolves t, observed at offsetSeconds east of UTC, against an
// event set. The set must cover the months around the query; a narrow set
// yields one of the range errors.
func Convert(t time.Time, offsetSeconds int, events *astro.EventSet) (*Result, error) {
	wall := civil.Wall(t, offsetSeconds)

	periods, err := NumberPeriods(events, t, wall.Year)
	if err != nil {
		return nil, err
	}
	period, ok := FindPeriod(periods, wall.Date)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoEnclosingPeriod, wall.Date)
	}

	lunarYear := LunarYear(period)
	yearPillar := ganzhi.Year(lunarYear)
	dayPillar := ganzhi.Day(wall.Date)

	return &Result{
		LunarYear:   lunarYear,
		LunarMonth:  period.Month,
		LunarDay:    LunarDay(period, wall.Date),
		IsLeapMonth: period.IsLeap,
		Year:        yearPillar,
		Month:       ganzhi.Month(yearPillar.Stem, period.Month),
		Day:         dayPillar,
		Hour:        ganzhi.Hour(wall.Hour(), dayPillar.Stem),
		Wall:        wall,
		Period:      period,
	}, nil
}

// NumberPeriods builds, tags and numbers the month periods of an event set
// for a query instant whose local calendar year is localYear.
func NumberPeriods(events *astro.EventSet, query time.Time, localYear int) ([]MonthPeriod, error) {
	if events == nil {
		return nil, fmt.Errorf("%w: no event set", ErrInsufficientEvents)
	}
	periods, err := BuildPeriods(events.NewMoons)
	if err != nil {
		return nil, err
	}
	TagPrincipalTerms(periods, events.SolarTerms)

	anchor, err := SelectAnchor(events.SolarTerms, query, localYear)
	if err != nil {
		return nil, err
	}
	if _, err := AssignMonthNumbers(periods, anchor); err != nil {
		return nil, err
	}
	return periods, nil
}

// FindPeriod returns the first period whose reference dates contain d.
func FindPeriod(periods []MonthPeriod, d civil.Date) (MonthPeriod, bool) {
	for _, p := range periods {
		if p.ContainsDate(d) {
			return p, true
		}
	}
	return MonthPeriod{}, false
}

// LunarDay returns the 1-based day of d within p, clamped to 1..30.
func LunarDay(p MonthPeriod, d civil.Date) int {
	day := int(d.Days()-p.StartDate.Days()) + 1
	return min(max(day, 1), 30)
}

// LunarYear returns the lunar year a numbered period belongs to: the UTC
// year of its start, except that a twelfth month starting in January or
// February still belongs to the year before.
func LunarYear(p MonthPeriod) int {
	start := p.Start.UTC()
	if p.Month == 12 && start.Month() <= time.February {
		return start.Year() - 1
	}
	return start.Year()
}
