package database

import (
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
)

// Source names where a year's events came from.
type Source string

const (
	SourceMeeus  Source = "meeus"
	SourceImport Source = "import"
)

// IsValid reports whether s is a known source.
func (s Source) IsValid() bool {
	return s == SourceMeeus || s == SourceImport
}

// EventYear is one UTC year held completely in the store.
type EventYear struct {
	Year       int        `json:"year"`
	Source     Source     `json:"source"`
	ComputedAt *time.Time `json:"computed_at"`
}

// YearCoverage counts the stored events of one year.
type YearCoverage struct {
	EventYear
	NewMoons   int `json:"new_moons"`
	SolarTerms int `json:"solar_terms"`
}

// Complete reports whether the counts are plausible for a full year:
// twelve or thirteen new moons and all twenty-four terms.
func (c YearCoverage) Complete() bool {
	return (c.NewMoons == 12 || c.NewMoons == 13) && c.SolarTerms == 24
}

// CountYears tallies the events of set for each of its years.
func CountYears(set *astro.EventSet) []YearCoverage {
	out := make([]YearCoverage, 0, set.EndYear-set.StartYear+1)
	for y := set.StartYear; y <= set.EndYear; y++ {
		out = append(out, YearCoverage{EventYear: EventYear{Year: y}})
	}
	for _, nm := range set.NewMoons {
		if i := nm.UTC().Year() - set.StartYear; i >= 0 && i < len(out) {
			out[i].NewMoons++
		}
	}
	for _, st := range set.SolarTerms {
		if i := st.Instant.UTC().Year() - set.StartYear; i >= 0 && i < len(out) {
			out[i].SolarTerms++
		}
	}
	return out
}

// IncompleteYears returns the years of set whose counts are not those of a
// full year. A set with a missing event would shift month numbering.
func IncompleteYears(set *astro.EventSet) []YearCoverage {
	var bad []YearCoverage
	for _, c := range CountYears(set) {
		if !c.Complete() {
			bad = append(bad, c)
		}
	}
	return bad
}
