package calendar

import (
	"fmt"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
)

// SelectAnchor picks the winter solstice that fixes month 11 for a query.
//
// The solstice whose UTC year equals localYear is preferred; without one,
// the nearest by year wins, the earlier on a tie. A query that falls before
// that solstice is anchored on the previous year's solstice when present,
// so the months leading up to the solstice keep the numbering of the
// preceding cycle.
func SelectAnchor(terms []astro.SolarTermEvent, query time.Time, localYear int) (time.Time, error) {
	var solstices []time.Time
	for _, t := range terms {
		if t.Index == astro.WinterSolstice {
			solstices = append(solstices, t.Instant)
		}
	}
	if len(solstices) == 0 {
		return time.Time{}, ErrAnchorNotFound
	}

	current, found := solsticeOf(solstices, localYear)
	if !found {
		current = solstices[0]
		best := yearDistance(current, localYear)
		for _, s := range solstices[1:] {
			if d := yearDistance(s, localYear); d < best || (d == best && s.Before(current)) {
				current, best = s, d
			}
		}
	}

	if !query.Before(current) {
		return current, nil
	}
	if prev, ok := solsticeOf(solstices, localYear-1); ok {
		return prev, nil
	}
	return current, nil
}

func solsticeOf(solstices []time.Time, year int) (time.Time, bool) {
	for _, s := range solstices {
		if s.UTC().Year() == year {
			return s, true
		}
	}
	return time.Time{}, false
}

func yearDistance(t time.Time, year int) int {
	d := t.UTC().Year() - year
	if d < 0 {
		return -d
	}
	return d
}

// AssignMonthNumbers numbers every period around the one containing the
// anchor instant, which becomes month 11. Sweeping away from the anchor,
// a period with a principal term takes the next number and a period
// without one repeats its predecessor's number as a leap month. It returns
// the index of the anchor period.
func AssignMonthNumbers(periods []MonthPeriod, anchor time.Time) (int, error) {
	zi := -1
	for i := range periods {
		if periods[i].Contains(anchor) {
			zi = i
			break
		}
	}
	if zi < 0 {
		return -1, fmt.Errorf("%w: solstice %s outside the month periods", ErrAnchorNotFound, anchor.UTC().Format(time.RFC3339))
	}

	periods[zi].Month = 11
	periods[zi].IsLeap = false

	month := 11
	for i := zi + 1; i < len(periods); i++ {
		if periods[i].HasPrincipalTerm {
			month = month%12 + 1
			periods[i].IsLeap = false
		} else {
			periods[i].IsLeap = true
		}
		periods[i].Month = month
	}

	// Walking backwards, the number steps down when leaving a period that
	// advanced it, so a leap period always shares the number of the period
	// before it.
	month = 11
	for i := zi - 1; i >= 0; i-- {
		if periods[i+1].HasPrincipalTerm {
			month--
			if month < 1 {
				month = 12
			}
		}
		periods[i].Month = month
		periods[i].IsLeap = !periods[i].HasPrincipalTerm
	}
	return zi, nil
}
