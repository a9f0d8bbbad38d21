package lunisolar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/calendar"
	"github.com/zapponejosh/lunisolar-api/internal/civil"
	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
	"github.com/zapponejosh/lunisolar-api/internal/huangdao"
)

// Supported local years. A query also loads the years on either side.
const (
	MinYear = 1
	MaxYear = 9998
)

var (
	// ErrSpanTooWide is returned when one request would need events for
	// more years than the service allows.
	ErrSpanTooWide = errors.New("requested year span too wide")

	// ErrYearOutOfRange is returned for a year outside [MinYear, MaxYear].
	ErrYearOutOfRange = errors.New("year outside supported range")
)

func checkYear(year int) error {
	if year < MinYear || year > MaxYear {
		return fmt.Errorf("%w: %d not in %d..%d", ErrYearOutOfRange, year, MinYear, MaxYear)
	}
	return nil
}

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

// RealClock implements Clock using the system time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Query is one instant observed at a fixed UTC offset.
type Query struct {
	Instant       time.Time
	OffsetSeconds int
}

// Conversion is a converted query with its almanac entry.
type Conversion struct {
	Query
	*calendar.Result
	Almanac huangdao.Day
}

// Record flattens c for serialization.
func (c *Conversion) Record(script ganzhi.Script) ConversionRecord {
	return ConversionRecord{
		Record:           c.Result.Record(script),
		TimestampMs:      c.Instant.UnixMilli(),
		OffsetSeconds:    c.OffsetSeconds,
		LocalDate:        c.Wall.Date.String(),
		LocalTime:        fmt.Sprintf("%02d:%02d", c.Wall.Hour(), c.Wall.Minute()),
		ConstructionStar: c.Almanac.Star.Hanzi,
		GYPSpirit:        c.Almanac.Spirit.Hanzi,
		GYPPathType:      string(c.Almanac.Spirit.Path),
	}
}

// ConversionRecord is the serialized conversion.
type ConversionRecord struct {
	calendar.Record
	TimestampMs      int64  `json:"tsMs"`
	OffsetSeconds    int    `json:"offsetSeconds"`
	LocalDate        string `json:"localDate"`
	LocalTime        string `json:"localTime"`
	ConstructionStar string `json:"constructionStar"`
	GYPSpirit        string `json:"gypSpirit"`
	GYPPathType      string `json:"gypPathType"`
}

// Service converts instants to lunisolar dates.
type Service struct {
	Events      *Provider
	Clock       Clock
	MaxYearSpan int
	logger      *slog.Logger
}

// NewService returns a Service over events.
func NewService(events *Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Events: events, Clock: RealClock{}, MaxYearSpan: 10, logger: logger}
}

// Now returns the current instant.
func (s *Service) Now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// Convert resolves one instant using events for the year before through
// the year after its local date.
func (s *Service) Convert(ctx context.Context, t time.Time, offsetSeconds int) (*Conversion, error) {
	out, err := s.ConvertBatch(ctx, []Query{{Instant: t, OffsetSeconds: offsetSeconds}})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ConvertBatch resolves many instants against a single event range.
func (s *Service) ConvertBatch(ctx context.Context, queries []Query) ([]*Conversion, error) {
	if len(queries) == 0 {
		return nil, nil
	}

	lo, hi := queryYear(queries[0]), queryYear(queries[0])
	for _, q := range queries {
		y := queryYear(q)
		if err := checkYear(y); err != nil {
			return nil, fmt.Errorf("convert %s: %w", q.Instant.UTC().Format(time.RFC3339), err)
		}
		lo, hi = min(lo, y), max(hi, y)
	}
	start, end := lo-1, hi+1
	if s.MaxYearSpan > 0 && end-start+1 > s.MaxYearSpan+2 {
		return nil, fmt.Errorf("%w: %d..%d", ErrSpanTooWide, lo, hi)
	}

	set, err := s.Events.Events(ctx, start, end)
	if err != nil {
		return nil, err
	}

	out := make([]*Conversion, len(queries))
	for i, q := range queries {
		res, err := calendar.Convert(q.Instant, q.OffsetSeconds, set)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", q.Instant.UTC().Format(time.RFC3339), err)
		}
		out[i] = &Conversion{
			Query:   q,
			Result:  res,
			Almanac: huangdao.ForDay(res.LunarMonth, res.Day.Branch),
		}
	}
	return out, nil
}

func queryYear(q Query) int {
	return civil.Wall(q.Instant, q.OffsetSeconds).Year
}

// MonthEntry is one lunar month of a year table.
type MonthEntry struct {
	LunarYear        int
	Month            int
	IsLeap           bool
	Days             int
	StartDate        civil.Date
	NewMoon          time.Time
	Pillar           ganzhi.Designation
	HasPrincipalTerm bool
}

// TermEntry is one solar term of a year table.
type TermEntry struct {
	astro.Term
	Instant time.Time
	Date    civil.Date
}

// YearTable lists the lunar months that begin, and the solar terms that
// fall, within one Gregorian year at the reference offset.
type YearTable struct {
	Year   int
	Months []MonthEntry
	Terms  []TermEntry
}

// YearTable builds the month and term table for year.
func (s *Service) YearTable(ctx context.Context, year int) (*YearTable, error) {
	if err := checkYear(year); err != nil {
		return nil, err
	}
	set, err := s.Events.Events(ctx, year-1, year+1)
	if err != nil {
		return nil, err
	}
	periods, err := calendar.BuildPeriods(set.NewMoons)
	if err != nil {
		return nil, err
	}

	table := &YearTable{Year: year}
	for _, p := range periods {
		if p.StartDate.Year != year {
			continue
		}
		// Number each month as a conversion on its first day would.
		res, err := calendar.Convert(civil.Midnight(p.StartDate, calendar.ReferenceOffset), calendar.ReferenceOffset, set)
		if err != nil {
			return nil, fmt.Errorf("month starting %s: %w", p.StartDate, err)
		}
		table.Months = append(table.Months, MonthEntry{
			LunarYear:        res.LunarYear,
			Month:            res.LunarMonth,
			IsLeap:           res.IsLeapMonth,
			Days:             res.Period.Days(),
			StartDate:        res.Period.StartDate,
			NewMoon:          res.Period.Start,
			Pillar:           res.Month,
			HasPrincipalTerm: res.Period.HasPrincipalTerm,
		})
	}

	for _, st := range set.SolarTerms {
		d := civil.WallDate(st.Instant, calendar.ReferenceOffset)
		if d.Year != year {
			continue
		}
		term, err := astro.TermName(st.Index)
		if err != nil {
			return nil, err
		}
		table.Terms = append(table.Terms, TermEntry{Term: term, Instant: st.Instant, Date: d})
	}
	return table, nil
}

// Precompute searches and stores events for [start, end].
func (s *Service) Precompute(ctx context.Context, start, end int) (*astro.EventSet, error) {
	if end < start {
		return nil, fmt.Errorf("invalid year range %d..%d", start, end)
	}
	for _, y := range []int{start, end} {
		if err := checkYear(y); err != nil {
			return nil, err
		}
	}
	if s.MaxYearSpan > 0 && end-start+1 > s.MaxYearSpan {
		return nil, fmt.Errorf("%w: %d..%d", ErrSpanTooWide, start, end)
	}
	set, err := s.Events.Precompute(ctx, start, end)
	if err != nil {
		return nil, err
	}
	s.logger.Info("events precomputed",
		slog.Int("start_year", start),
		slog.Int("end_year", end),
		slog.Int("new_moons", len(set.NewMoons)),
	)
	return set, nil
}
