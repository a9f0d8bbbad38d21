package astro

import (
	"errors"
	"time"
)

// ErrOracleFailure reports that the ephemeris could not answer a query or
// returned an unusable longitude. The whole range lookup fails with it.
var ErrOracleFailure = errors.New("ephemeris oracle failure")

// SolarTermEvent is the instant the Sun's longitude crosses Index×15°.
type SolarTermEvent struct {
	Instant time.Time
	Index   int
}

// IsPrincipal reports whether the event is a principal term (even index).
func (e SolarTermEvent) IsPrincipal() bool { return e.Index%2 == 0 }

// EventSet holds every new moon and solar term from January 1 of StartYear
// through December 31 of EndYear (UTC). Both slices are in chronological
// order. An EventSet is not modified once built and may be shared.
type EventSet struct {
	StartYear  int
	EndYear    int
	NewMoons   []time.Time
	SolarTerms []SolarTermEvent
}

// Covers reports whether the set spans [start, end].
func (s *EventSet) Covers(start, end int) bool {
	return s != nil && s.StartYear <= start && end <= s.EndYear
}

// Range returns the UTC interval [Jan 1 StartYear, Jan 1 EndYear+1).
func (s *EventSet) Range() (time.Time, time.Time) {
	return YearStart(s.StartYear), YearStart(s.EndYear + 1)
}

// PrincipalTerms returns the principal-term subset in order.
func (s *EventSet) PrincipalTerms() []SolarTermEvent {
	out := make([]SolarTermEvent, 0, len(s.SolarTerms)/2+1)
	for _, e := range s.SolarTerms {
		if e.IsPrincipal() {
			out = append(out, e)
		}
	}
	return out
}

// Slice returns a new set restricted to the years [start, end].
func (s *EventSet) Slice(start, end int) *EventSet {
	lo, hi := YearStart(start), YearStart(end+1)
	out := &EventSet{StartYear: start, EndYear: end}
	for _, nm := range s.NewMoons {
		if !nm.Before(lo) && nm.Before(hi) {
			out.NewMoons = append(out.NewMoons, nm)
		}
	}
	for _, st := range s.SolarTerms {
		if !st.Instant.Before(lo) && st.Instant.Before(hi) {
			out.SolarTerms = append(out.SolarTerms, st)
		}
	}
	return out
}

// YearStart returns midnight UTC on January 1 of year.
func YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
}
