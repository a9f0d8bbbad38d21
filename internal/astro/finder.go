// Package astro locates new moons and solar-term crossings by sampling an
// ephemeris oracle at fixed steps and bisecting each detected change.
package astro

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

// Defaults used by NewFinder.
const (
	DefaultStep          = 24 * time.Hour
	DefaultMaxIterations = 50
	DefaultResolution    = time.Millisecond
	DefaultWorkers       = 4
)

// Finder scans an ephemeris for events.
//
// Step must be shorter than the gap between two events of the same kind
// (about 14.8 days for solar terms, 29.3 for new moons) so each crossing
// falls in its own window.
type Finder struct {
	Oracle        ephemeris.Oracle
	Step          time.Duration
	MaxIterations int
	Resolution    time.Duration
	Workers       int
	Logger        *slog.Logger
}

// NewFinder returns a Finder with default tuning.
func NewFinder(oracle ephemeris.Oracle, logger *slog.Logger) *Finder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finder{
		Oracle:        oracle,
		Step:          DefaultStep,
		MaxIterations: DefaultMaxIterations,
		Resolution:    DefaultResolution,
		Workers:       DefaultWorkers,
		Logger:        logger,
	}
}

// FindYears computes the event set for January 1 of startYear through the
// end of endYear (UTC).
func (f *Finder) FindYears(ctx context.Context, startYear, endYear int) (*EventSet, error) {
	if endYear < startYear {
		return nil, fmt.Errorf("invalid year range %d..%d", startYear, endYear)
	}
	start, end := YearStart(startYear), YearStart(endYear+1)
	began := time.Now()

	set := &EventSet{StartYear: startYear, EndYear: endYear}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		moons, err := f.NewMoons(gctx, start, end)
		set.NewMoons = moons
		return err
	})
	g.Go(func() error {
		terms, err := f.SolarTerms(gctx, start, end)
		set.SolarTerms = terms
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	f.logger().Debug("events computed",
		slog.Int("start_year", startYear),
		slog.Int("end_year", endYear),
		slog.Int("new_moons", len(set.NewMoons)),
		slog.Int("solar_terms", len(set.SolarTerms)),
		slog.Duration("elapsed", time.Since(began)),
	)
	return set, nil
}

// NewMoons returns every instant in [start, end) at which the Moon's
// elongation from the Sun turns from negative to non-negative.
func (f *Finder) NewMoons(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	crossings, err := f.scan(ctx, start, end, tracker{
		state: func(ctx context.Context, t time.Time) (int, error) {
			e, err := f.elongation(ctx, t)
			if err != nil {
				return 0, err
			}
			if e < 0 {
				return 0, nil
			}
			return 1, nil
		},
		crossed: func(prev, cur int) bool { return prev == 0 && cur == 1 },
	})
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, len(crossings))
	for i, c := range crossings {
		out[i] = c.at
	}
	return out, nil
}

// SolarTerms returns every instant in [start, end) at which the Sun enters a
// new 15° sector. The event index is the sector entered.
func (f *Finder) SolarTerms(ctx context.Context, start, end time.Time) ([]SolarTermEvent, error) {
	crossings, err := f.scan(ctx, start, end, tracker{
		state:   f.sector,
		crossed: func(prev, cur int) bool { return prev != cur },
	})
	if err != nil {
		return nil, err
	}
	out := make([]SolarTermEvent, len(crossings))
	for i, c := range crossings {
		out[i] = SolarTermEvent{Instant: c.at, Index: c.state}
	}
	return out, nil
}

// tracker is a piecewise-constant quantity sampled over time; an event is a
// change between two samples that crossed accepts.
type tracker struct {
	state   func(ctx context.Context, t time.Time) (int, error)
	crossed func(prev, cur int) bool
}

type crossing struct {
	at    time.Time
	state int
}

// scan samples [start, end) every Step and bisects each window in which the
// tracker crossed. Windows are split across workers and the results sorted.
func (f *Finder) scan(ctx context.Context, start, end time.Time, tr tracker) ([]crossing, error) {
	if !start.Before(end) {
		return nil, nil
	}
	step := f.step()
	// Window k spans samples start+k*step and start+(k+1)*step; the last
	// window reaches end or just past it.
	windows := int((end.Sub(start) + step - 1) / step)

	workers := min(max(f.Workers, 1), windows)
	per := (windows + workers - 1) / workers
	results := make([][]crossing, workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lo := w * per
		hi := min(lo+per, windows)
		if lo >= hi {
			continue
		}
		g.Go(func() error {
			found, err := f.scanWindows(gctx, start, step, lo, hi, tr)
			results[w] = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []crossing
	for _, r := range results {
		for _, c := range r {
			if c.at.Before(end) {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].at.Before(out[j].at) })
	return out, nil
}

// scanWindows handles windows [lo, hi), where window k spans samples k and k+1.
func (f *Finder) scanWindows(ctx context.Context, start time.Time, step time.Duration, lo, hi int, tr tracker) ([]crossing, error) {
	at := func(k int) time.Time { return start.Add(time.Duration(k) * step) }

	prev, err := tr.state(ctx, at(lo))
	if err != nil {
		return nil, err
	}
	var out []crossing
	for k := lo + 1; k <= hi; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur, err := tr.state(ctx, at(k))
		if err != nil {
			return nil, err
		}
		if tr.crossed(prev, cur) {
			when, err := f.bisect(ctx, at(k-1), at(k), prev, tr)
			if err != nil {
				return nil, err
			}
			out = append(out, crossing{at: when, state: cur})
		}
		prev = cur
	}
	return out, nil
}

// bisect narrows (lo, hi] until it is no wider than Resolution and returns
// its midpoint truncated to the millisecond.
func (f *Finder) bisect(ctx context.Context, lo, hi time.Time, before int, tr tracker) (time.Time, error) {
	res := f.Resolution
	if res <= 0 {
		res = DefaultResolution
	}
	iterations := f.MaxIterations
	if iterations <= 0 {
		iterations = DefaultMaxIterations
	}
	for i := 0; i < iterations && hi.Sub(lo) > res; i++ {
		mid := lo.Add(hi.Sub(lo) / 2)
		s, err := tr.state(ctx, mid)
		if err != nil {
			return time.Time{}, err
		}
		if s == before {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo.Add(hi.Sub(lo) / 2).Truncate(time.Millisecond).UTC(), nil
}

func (f *Finder) elongation(ctx context.Context, t time.Time) (float64, error) {
	moon, err := f.longitude(ctx, ephemeris.Moon, t)
	if err != nil {
		return 0, err
	}
	sun, err := f.longitude(ctx, ephemeris.Sun, t)
	if err != nil {
		return 0, err
	}
	return ephemeris.Normalize180(moon - sun), nil
}

func (f *Finder) sector(ctx context.Context, t time.Time) (int, error) {
	sun, err := f.longitude(ctx, ephemeris.Sun, t)
	if err != nil {
		return 0, err
	}
	return int(math.Floor(sun/15)) % TermCount, nil
}

func (f *Finder) longitude(ctx context.Context, body ephemeris.Body, t time.Time) (float64, error) {
	if f.Oracle == nil {
		return 0, fmt.Errorf("%w: no oracle configured", ErrOracleFailure)
	}
	lon, err := f.Oracle.Longitude(ctx, body, t)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		return 0, fmt.Errorf("%w: %s at %s: %w", ErrOracleFailure, body, t.UTC().Format(time.RFC3339), err)
	}
	if !ephemeris.ValidLongitude(lon) {
		return 0, fmt.Errorf("%w: %s at %s: longitude %v out of range", ErrOracleFailure, body, t.UTC().Format(time.RFC3339), lon)
	}
	return lon, nil
}

func (f *Finder) step() time.Duration {
	if f.Step <= 0 {
		return DefaultStep
	}
	return f.Step
}

func (f *Finder) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}
