package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/lunisolar"
)

// This command prints the new moons, principal terms and numbered month
// table of a year, or writes the raw events in the format cmd/import reads.

func main() {
	year := flag.Int("year", time.Now().Year(), "Year to generate events for")
	end := flag.Int("end", 0, "Last year for -json output (defaults to -year)")
	jsonOut := flag.String("json", "", "Write raw events for [year, end] to this file instead of printing")
	workers := flag.Int("workers", astro.DefaultWorkers, "Parallel scan workers")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	finder := astro.NewFinder(ephemeris.NewMeeus(), logger)
	finder.Workers = *workers

	ctx := context.Background()
	var err error
	if *jsonOut != "" {
		last := *end
		if last == 0 {
			last = *year
		}
		err = writeEvents(ctx, finder, *year, last, *jsonOut)
	} else {
		err = printYear(ctx, finder, *year, logger)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printYear(ctx context.Context, finder *astro.Finder, year int, logger *slog.Logger) error {
	svc := lunisolar.NewService(lunisolar.NewProvider(finder, nil, logger), logger)
	table, err := svc.YearTable(ctx, year)
	if err != nil {
		return err
	}

	fmt.Printf("=== Lunisolar Events for %d (UTC+8) ===\n\n", year)

	fmt.Println("Lunar Months:")
	for _, m := range table.Months {
		leap := "  "
		if m.IsLeap {
			leap = "闰"
		}
		principal := ""
		if !m.HasPrincipalTerm {
			principal = "  (no principal term)"
		}
		fmt.Printf("  %s  %s%2d  %s  %d days  new moon %s UTC%s\n",
			m.StartDate, leap, m.Month, m.Pillar, m.Days,
			m.NewMoon.UTC().Format("2006-01-02 15:04:05"), principal)
	}
	fmt.Println()

	fmt.Println("Principal Terms:")
	for _, t := range table.Terms {
		if !t.Principal() {
			continue
		}
		fmt.Printf("  %s  %-4s %-12s %3d°  %s UTC\n",
			t.Date, t.Hanzi, t.Pinyin, t.Longitude, t.Instant.UTC().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// importFile mirrors the cmd/import input layout.
type importFile struct {
	StartYear  int          `json:"startYear"`
	EndYear    int          `json:"endYear"`
	NewMoons   []float64    `json:"newMoons"`
	SolarTerms [][2]float64 `json:"solarTerms"`
}

func writeEvents(ctx context.Context, finder *astro.Finder, start, end int, path string) error {
	set, err := finder.FindYears(ctx, start, end)
	if err != nil {
		return err
	}

	out := importFile{
		StartYear:  set.StartYear,
		EndYear:    set.EndYear,
		NewMoons:   make([]float64, len(set.NewMoons)),
		SolarTerms: make([][2]float64, len(set.SolarTerms)),
	}
	for i, t := range set.NewMoons {
		out.NewMoons[i] = float64(t.UnixMilli()) / 1000
	}
	for i, st := range set.SolarTerms {
		out.SolarTerms[i] = [2]float64{float64(st.Instant.UnixMilli()) / 1000, float64(st.Index)}
	}

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write events: %w", err)
	}
	fmt.Printf("Wrote %d new moons and %d solar terms for %d..%d to %s\n",
		len(set.NewMoons), len(set.SolarTerms), start, end, path)
	return nil
}
