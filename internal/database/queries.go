package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Returns nil if no known format matches.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

func yearBounds(start, end int) (int64, int64) {
	return astro.YearStart(start).UnixMilli(), astro.YearStart(end + 1).UnixMilli()
}

// =============================================================================
// Event Queries
// =============================================================================

// SaveEventSet replaces the stored events of every year in the set and
// marks those years complete.
func (db *DB) SaveEventSet(ctx context.Context, set *astro.EventSet, source Source) error {
	if set == nil {
		return fmt.Errorf("save events: nil event set")
	}
	if !source.IsValid() {
		return fmt.Errorf("save events: unknown source %q", source)
	}
	lo, hi := yearBounds(set.StartYear, set.EndYear)

	err := db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM new_moons WHERE instant_ms >= ? AND instant_ms < ?", lo, hi); err != nil {
			return fmt.Errorf("clear new moons: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM solar_terms WHERE instant_ms >= ? AND instant_ms < ?", lo, hi); err != nil {
			return fmt.Errorf("clear solar terms: %w", err)
		}

		moonStmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO new_moons (instant_ms) VALUES (?)")
		if err != nil {
			return fmt.Errorf("prepare new moon insert: %w", err)
		}
		defer moonStmt.Close()
		for _, nm := range set.NewMoons {
			ms := nm.UnixMilli()
			if ms < lo || ms >= hi {
				continue
			}
			if _, err := moonStmt.ExecContext(ctx, ms); err != nil {
				return fmt.Errorf("insert new moon %s: %w", nm.UTC().Format(time.RFC3339), err)
			}
		}

		termStmt, err := tx.PrepareContext(ctx, "INSERT OR REPLACE INTO solar_terms (instant_ms, term_index) VALUES (?, ?)")
		if err != nil {
			return fmt.Errorf("prepare solar term insert: %w", err)
		}
		defer termStmt.Close()
		for _, st := range set.SolarTerms {
			ms := st.Instant.UnixMilli()
			if ms < lo || ms >= hi {
				continue
			}
			if _, err := termStmt.ExecContext(ctx, ms, st.Index); err != nil {
				return fmt.Errorf("insert solar term %d: %w", st.Index, err)
			}
		}

		for year := set.StartYear; year <= set.EndYear; year++ {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO event_years (year, source, computed_at)
				VALUES (?, ?, datetime('now'))
				ON CONFLICT(year) DO UPDATE SET
					source = excluded.source,
					computed_at = excluded.computed_at
			`, year, string(source))
			if err != nil {
				return fmt.Errorf("mark year %d: %w", year, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Debug("event set saved",
		slog.Int("start_year", set.StartYear),
		slog.Int("end_year", set.EndYear),
		slog.String("source", string(source)),
	)
	return nil
}

// LoadEventSet returns the stored events for [start, end]. It returns
// ErrNotFound unless every year in the range is marked and holds a full
// year of events.
func (db *DB) LoadEventSet(ctx context.Context, start, end int) (*astro.EventSet, error) {
	if end < start {
		return nil, fmt.Errorf("load events: invalid year range %d..%d", start, end)
	}

	var have int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_years WHERE year BETWEEN ? AND ?", start, end,
	).Scan(&have)
	if err != nil {
		return nil, fmt.Errorf("count stored years: %w", err)
	}
	if have != end-start+1 {
		return nil, fmt.Errorf("%w: years %d..%d (%d of %d stored)", ErrNotFound, start, end, have, end-start+1)
	}

	lo, hi := yearBounds(start, end)
	set := &astro.EventSet{StartYear: start, EndYear: end}

	rows, err := db.QueryContext(ctx,
		"SELECT instant_ms FROM new_moons WHERE instant_ms >= ? AND instant_ms < ? ORDER BY instant_ms", lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query new moons: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ms int64
		if err := rows.Scan(&ms); err != nil {
			return nil, fmt.Errorf("scan new moon: %w", err)
		}
		set.NewMoons = append(set.NewMoons, time.UnixMilli(ms).UTC())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate new moons: %w", err)
	}

	termRows, err := db.QueryContext(ctx,
		"SELECT instant_ms, term_index FROM solar_terms WHERE instant_ms >= ? AND instant_ms < ? ORDER BY instant_ms", lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query solar terms: %w", err)
	}
	defer termRows.Close()
	for termRows.Next() {
		var ms int64
		var idx int
		if err := termRows.Scan(&ms, &idx); err != nil {
			return nil, fmt.Errorf("scan solar term: %w", err)
		}
		set.SolarTerms = append(set.SolarTerms, astro.SolarTermEvent{Instant: time.UnixMilli(ms).UTC(), Index: idx})
	}
	if err := termRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solar terms: %w", err)
	}

	if bad := IncompleteYears(set); len(bad) > 0 {
		c := bad[0]
		db.logger.Warn("stored year is incomplete",
			slog.Int("year", c.Year),
			slog.Int("new_moons", c.NewMoons),
			slog.Int("solar_terms", c.SolarTerms),
		)
		return nil, fmt.Errorf("%w: year %d holds %d new moons and %d solar terms",
			ErrNotFound, c.Year, c.NewMoons, c.SolarTerms)
	}

	return set, nil
}

// ListYears returns the complete years in ascending order.
func (db *DB) ListYears(ctx context.Context) ([]EventYear, error) {
	rows, err := db.QueryContext(ctx, "SELECT year, source, computed_at FROM event_years ORDER BY year")
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()

	var years []EventYear
	for rows.Next() {
		var y EventYear
		var source string
		var computedAt sql.NullString
		if err := rows.Scan(&y.Year, &source, &computedAt); err != nil {
			return nil, fmt.Errorf("scan year: %w", err)
		}
		y.Source = Source(source)
		y.ComputedAt = parseTimestamp(computedAt)
		years = append(years, y)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate years: %w", err)
	}
	return years, nil
}

// Coverage counts the stored events of every complete year.
func (db *DB) Coverage(ctx context.Context) ([]YearCoverage, error) {
	years, err := db.ListYears(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]YearCoverage, 0, len(years))
	for _, y := range years {
		lo, hi := yearBounds(y.Year, y.Year)
		c := YearCoverage{EventYear: y}
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM new_moons WHERE instant_ms >= ? AND instant_ms < ?", lo, hi,
		).Scan(&c.NewMoons); err != nil {
			return nil, fmt.Errorf("count new moons in %d: %w", y.Year, err)
		}
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM solar_terms WHERE instant_ms >= ? AND instant_ms < ?", lo, hi,
		).Scan(&c.SolarTerms); err != nil {
			return nil, fmt.Errorf("count solar terms in %d: %w", y.Year, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteYears removes the events of [start, end] and unmarks the years.
// It returns the number of years unmarked.
func (db *DB) DeleteYears(ctx context.Context, start, end int) (int, error) {
	lo, hi := yearBounds(start, end)
	var n int64
	err := db.WithTx(ctx, func(tx *Tx) error {
		for _, q := range []string{
			"DELETE FROM new_moons WHERE instant_ms >= ? AND instant_ms < ?",
			"DELETE FROM solar_terms WHERE instant_ms >= ? AND instant_ms < ?",
		} {
			if _, err := tx.ExecContext(ctx, q, lo, hi); err != nil {
				return fmt.Errorf("delete events: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM event_years WHERE year BETWEEN ? AND ?", start, end)
		if err != nil {
			return fmt.Errorf("delete years: %w", err)
		}
		n, err = res.RowsAffected()
		return err
	})
	return int(n), err
}
