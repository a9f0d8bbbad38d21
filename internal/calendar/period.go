// Package calendar numbers lunar months from astronomical events and
// converts instants into lunisolar dates with their four pillars.
package calendar

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/civil"
)

// ReferenceOffset is UTC+8, the fixed offset at which month boundaries and
// term dates are evaluated regardless of the caller's zone.
const ReferenceOffset = 8 * 3600

var (
	// ErrInsufficientEvents means fewer than two new moons were available.
	ErrInsufficientEvents = errors.New("insufficient new moon events")
	// ErrNoEnclosingPeriod means the query date lies outside every month
	// period built from the event set.
	ErrNoEnclosingPeriod = errors.New("no month period encloses the query date")
	// ErrAnchorNotFound means no usable winter solstice was found.
	ErrAnchorNotFound = errors.New("winter solstice anchor not found")
)

// IsRangeError reports whether err means the event range was too narrow
// for the query. Callers should retry with a wider range.
func IsRangeError(err error) bool {
	return errors.Is(err, ErrInsufficientEvents) ||
		errors.Is(err, ErrNoEnclosingPeriod) ||
		errors.Is(err, ErrAnchorNotFound)
}

// MonthPeriod is the lunar month [Start, End) between two new moons.
// StartDate and EndDate are wall dates at ReferenceOffset.
type MonthPeriod struct {
	Start            time.Time
	End              time.Time
	StartDate        civil.Date
	EndDate          civil.Date
	HasPrincipalTerm bool
	IsLeap           bool
	Month            int // 1..12, 0 until numbered
}

// Contains reports whether t falls in [Start, End).
func (p MonthPeriod) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// ContainsDate reports whether d falls in [StartDate, EndDate).
func (p MonthPeriod) ContainsDate(d civil.Date) bool {
	return d.Within(p.StartDate, p.EndDate)
}

// Days returns the number of days in the month, 29 or 30.
func (p MonthPeriod) Days() int {
	return int(p.EndDate.Days() - p.StartDate.Days())
}

// BuildPeriods returns one period per consecutive pair of new moons.
func BuildPeriods(newMoons []time.Time) ([]MonthPeriod, error) {
	if len(newMoons) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientEvents, len(newMoons))
	}
	sorted := slices.Clone(newMoons)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })

	periods := make([]MonthPeriod, 0, len(sorted)-1)
	for i := 0; i+1 < len(sorted); i++ {
		periods = append(periods, MonthPeriod{
			Start:     sorted[i],
			End:       sorted[i+1],
			StartDate: civil.WallDate(sorted[i], ReferenceOffset),
			EndDate:   civil.WallDate(sorted[i+1], ReferenceOffset),
		})
	}
	return periods, nil
}

// TagPrincipalTerms marks each period whose date range contains the
// reference-offset date of a principal term. Nodal terms are ignored.
func TagPrincipalTerms(periods []MonthPeriod, terms []astro.SolarTermEvent) {
	for _, term := range terms {
		if !term.IsPrincipal() {
			continue
		}
		d := civil.WallDate(term.Instant, ReferenceOffset)
		for i := range periods {
			if periods[i].ContainsDate(d) {
				periods[i].HasPrincipalTerm = true
				break
			}
		}
	}
}
