// Command import loads precomputed astronomical events into the event
// store, so events from a high-precision ephemeris replace the built-in
// series for the covered years.
//
// Usage:
//
//	go run ./cmd/import -json data/events-2000-2050.json -db data/lunisolar.db
//
// The input holds new moons as Unix seconds and solar terms as
// [Unix seconds, term index] pairs:
//
//	{"startYear": 2000, "endYear": 2050,
//	 "newMoons": [947182440.0, ...],
//	 "solarTerms": [[945832500.0, 18], ...]}
//
// Every year in [startYear, endYear] must hold twelve or thirteen new moons
// and all twenty-four terms; the file is rejected otherwise. The years are
// replaced in a single transaction.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/database"
)

func main() {
	// Parse command line flags
	jsonPath := flag.String("json", "data/events.json", "Path to event JSON file")
	dbPath := flag.String("db", "data/lunisolar.db", "Path to SQLite database")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Setup logger
	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// Run import
	if err := run(*jsonPath, *dbPath, logger); err != nil {
		logger.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("import complete")
}

func run(jsonPath, dbPath string, logger *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// =========================================================================
	// Step 1: Read and parse JSON
	// =========================================================================
	logger.Info("reading JSON file", slog.String("path", jsonPath))

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("read JSON file: %w", err)
	}

	var file eventFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	set, err := file.EventSet()
	if err != nil {
		return fmt.Errorf("invalid events: %w", err)
	}
	if err := checkComplete(set, logger); err != nil {
		return fmt.Errorf("invalid events: %w", err)
	}

	logger.Info("parsed JSON",
		slog.Int("start_year", set.StartYear),
		slog.Int("end_year", set.EndYear),
		slog.Int("new_moons", len(set.NewMoons)),
		slog.Int("solar_terms", len(set.SolarTerms)),
	)

	// =========================================================================
	// Step 2: Open database and run migrations
	// =========================================================================
	logger.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("migrations complete", slog.Int("applied", migrated))

	// =========================================================================
	// Step 3: Replace the covered years
	// =========================================================================
	if err := db.SaveEventSet(ctx, set, database.SourceImport); err != nil {
		return fmt.Errorf("save events: %w", err)
	}

	// =========================================================================
	// Step 4: Verify import
	// =========================================================================
	coverage, err := db.Coverage(ctx)
	if err != nil {
		return fmt.Errorf("read coverage: %w", err)
	}

	var imported int
	for _, c := range coverage {
		if c.Year >= set.StartYear && c.Year <= set.EndYear {
			imported++
		}
	}
	if want := set.EndYear - set.StartYear + 1; imported != want {
		return fmt.Errorf("verify import: %d of %d years stored", imported, want)
	}

	elapsed := time.Since(startTime)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Years imported:      %d (%d..%d)\n", imported, set.StartYear, set.EndYear)
	fmt.Printf("New moons:           %d\n", len(set.NewMoons))
	fmt.Printf("Solar terms:         %d\n", len(set.SolarTerms))
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}

// checkComplete rejects a set in which any year lacks events. One missing
// new moon merges two months and renumbers the rest of the year.
func checkComplete(set *astro.EventSet, logger *slog.Logger) error {
	bad := database.IncompleteYears(set)
	for _, c := range bad {
		logger.Error("incomplete year in input",
			slog.Int("year", c.Year),
			slog.Int("new_moons", c.NewMoons),
			slog.Int("solar_terms", c.SolarTerms),
		)
	}
	if len(bad) > 0 {
		return fmt.Errorf("%d of %d years incomplete, first %d (%d new moons, %d solar terms)",
			len(bad), set.EndYear-set.StartYear+1, bad[0].Year, bad[0].NewMoons, bad[0].SolarTerms)
	}
	return nil
}

// eventFile is the JSON layout of precomputed events.
type eventFile struct {
	StartYear  int          `json:"startYear"`
	EndYear    int          `json:"endYear"`
	NewMoons   []float64    `json:"newMoons"`
	SolarTerms [][2]float64 `json:"solarTerms"`
}

// EventSet converts f, checking ordering and term indices.
func (f *eventFile) EventSet() (*astro.EventSet, error) {
	if f.EndYear < f.StartYear {
		return nil, fmt.Errorf("year range %d..%d is inverted", f.StartYear, f.EndYear)
	}
	if len(f.NewMoons) < 2 {
		return nil, errors.New("at least two new moons are required")
	}

	set := &astro.EventSet{
		StartYear:  f.StartYear,
		EndYear:    f.EndYear,
		NewMoons:   make([]time.Time, len(f.NewMoons)),
		SolarTerms: make([]astro.SolarTermEvent, len(f.SolarTerms)),
	}

	for i, sec := range f.NewMoons {
		set.NewMoons[i] = unixSeconds(sec)
		if i > 0 && !set.NewMoons[i].After(set.NewMoons[i-1]) {
			return nil, fmt.Errorf("newMoons[%d] is not after its predecessor", i)
		}
	}

	for i, pair := range f.SolarTerms {
		idx := pair[1]
		if idx != math.Trunc(idx) || idx < 0 || idx >= astro.TermCount {
			return nil, fmt.Errorf("solarTerms[%d]: term index %v out of range", i, idx)
		}
		set.SolarTerms[i] = astro.SolarTermEvent{Instant: unixSeconds(pair[0]), Index: int(idx)}
	}
	sort.SliceStable(set.SolarTerms, func(i, j int) bool {
		return set.SolarTerms[i].Instant.Before(set.SolarTerms[j].Instant)
	})

	return set, nil
}

// unixSeconds converts fractional Unix seconds to a UTC instant truncated
// to the millisecond.
func unixSeconds(sec float64) time.Time {
	return time.UnixMilli(int64(math.Floor(sec * 1000))).UTC()
}
