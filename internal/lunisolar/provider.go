// Package lunisolar serves conversions backed by cached astronomical
// events: memory first, then the persistent store, then a fresh search.
package lunisolar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/database"
)

// EventFinder searches an ephemeris for a year range.
type EventFinder interface {
	FindYears(ctx context.Context, startYear, endYear int) (*astro.EventSet, error)
}

// EventStore persists event sets. LoadEventSet returns an error matching
// database.ErrNotFound when any year is missing.
type EventStore interface {
	LoadEventSet(ctx context.Context, start, end int) (*astro.EventSet, error)
	SaveEventSet(ctx context.Context, set *astro.EventSet, source database.Source) error
}

// DefaultFillTimeout bounds one shared search.
const DefaultFillTimeout = 2 * time.Minute

// Provider hands out event sets for year ranges. Each UTC year is searched
// at most once per process; concurrent requests for the same years share
// one search.
type Provider struct {
	finder EventFinder
	store  EventStore
	logger *slog.Logger

	// FillTimeout bounds a shared search. The search outlives the request
	// that started it so other waiters are not cancelled along with it.
	FillTimeout time.Duration

	// years maps a UTC year to its events. The map is replaced, never
	// mutated, so readers need no lock.
	years   atomic.Pointer[map[int]*astro.EventSet]
	writeMu sync.Mutex
	group   singleflight.Group
}

// NewProvider returns a Provider. store may be nil to keep events in
// memory only.
func NewProvider(finder EventFinder, store EventStore, logger *slog.Logger) *Provider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Provider{finder: finder, store: store, logger: logger, FillTimeout: DefaultFillTimeout}
	empty := map[int]*astro.EventSet{}
	p.years.Store(&empty)
	return p
}

// Events returns the events from January 1 of start through December 31
// of end (UTC).
func (p *Provider) Events(ctx context.Context, start, end int) (*astro.EventSet, error) {
	if end < start {
		return nil, fmt.Errorf("invalid year range %d..%d", start, end)
	}

	if missing := p.missing(start, end); len(missing) > 0 {
		lo, hi := missing[0], missing[len(missing)-1]
		key := fmt.Sprintf("%d-%d", lo, hi)
		ch := p.group.DoChan(key, func() (any, error) {
			fillCtx, cancel := p.fillContext(ctx)
			defer cancel()
			return nil, p.fill(fillCtx, lo, hi)
		})
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
		}
	}

	cached := *p.years.Load()
	out := &astro.EventSet{StartYear: start, EndYear: end}
	for y := start; y <= end; y++ {
		set, ok := cached[y]
		if !ok {
			return nil, fmt.Errorf("events for %d not available", y)
		}
		out.NewMoons = append(out.NewMoons, set.NewMoons...)
		out.SolarTerms = append(out.SolarTerms, set.SolarTerms...)
	}
	return out, nil
}

// Precompute searches [start, end] even when cached and writes the result
// to the store.
func (p *Provider) Precompute(ctx context.Context, start, end int) (*astro.EventSet, error) {
	set, err := p.finder.FindYears(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		if err := p.store.SaveEventSet(ctx, set, database.SourceMeeus); err != nil {
			return nil, fmt.Errorf("save events: %w", err)
		}
	}
	p.remember(set)
	return set, nil
}

// CachedYears lists the years held in memory, ascending.
func (p *Provider) CachedYears() []int {
	cached := *p.years.Load()
	years := make([]int, 0, len(cached))
	for y := range cached {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// fillContext detaches ctx from its caller's cancellation, keeping its
// values, and applies FillTimeout.
func (p *Provider) fillContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if p.FillTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.FillTimeout)
}

func (p *Provider) missing(start, end int) []int {
	cached := *p.years.Load()
	var out []int
	for y := start; y <= end; y++ {
		if _, ok := cached[y]; !ok {
			out = append(out, y)
		}
	}
	return out
}

// fill loads [lo, hi] from the store, or searches and stores it.
func (p *Provider) fill(ctx context.Context, lo, hi int) error {
	if p.store != nil {
		set, err := p.store.LoadEventSet(ctx, lo, hi)
		switch {
		case err == nil:
			p.logger.Debug("events loaded from store", slog.Int("start_year", lo), slog.Int("end_year", hi))
			p.remember(set)
			return nil
		case !errors.Is(err, database.ErrNotFound):
			p.logger.Warn("event store read failed", slog.Any("error", err))
		}
	}

	set, err := p.finder.FindYears(ctx, lo, hi)
	if err != nil {
		return err
	}
	p.remember(set)

	if p.store != nil {
		if err := p.store.SaveEventSet(ctx, set, database.SourceMeeus); err != nil {
			p.logger.Warn("event store write failed",
				slog.Int("start_year", lo),
				slog.Int("end_year", hi),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

// remember splits set into single years and publishes them.
func (p *Provider) remember(set *astro.EventSet) {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	prev := *p.years.Load()
	next := make(map[int]*astro.EventSet, len(prev)+set.EndYear-set.StartYear+1)
	for y, s := range prev {
		next[y] = s
	}
	for y := set.StartYear; y <= set.EndYear; y++ {
		next[y] = set.Slice(y, y)
	}
	p.years.Store(&next)
}
