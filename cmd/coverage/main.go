// Command coverage audits the event store: every stored year should hold
// twelve or thirteen new moons and all twenty-four solar terms, and the
// stored years should form one unbroken range.
//
// Usage:
//
//	go run ./cmd/coverage -db data/lunisolar.db [-prune] [-o report.json]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/zapponejosh/lunisolar-api/internal/database"
)

// Report summarizes the audit.
type Report struct {
	Years      int                     `json:"years"`
	FirstYear  int                     `json:"first_year,omitempty"`
	LastYear   int                     `json:"last_year,omitempty"`
	Incomplete []database.YearCoverage `json:"incomplete"`
	Gaps       []int                   `json:"gaps"`
	Pruned     int                     `json:"pruned,omitempty"`
}

// OK reports whether the store needs no attention.
func (r *Report) OK() bool {
	return len(r.Incomplete) == 0 && len(r.Gaps) == 0
}

func main() {
	dbPath := flag.String("db", "data/lunisolar.db", "Path to SQLite database")
	prune := flag.Bool("prune", false, "Delete incomplete years so they are recomputed")
	verbose := flag.Bool("v", false, "Verbose output (show each year)")
	outputFile := flag.String("o", "", "Output report to JSON file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	report, err := run(context.Background(), *dbPath, *prune, *verbose, logger)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *outputFile != "" {
		if err := saveReport(*outputFile, report); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	// Exit with error code if there were problems left in the store
	if !report.OK() && report.Pruned == 0 {
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath string, prune, verbose bool, logger *slog.Logger) (*Report, error) {
	db, err := database.Open(database.DefaultConfig(dbPath), logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if _, err := db.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	coverage, err := db.Coverage(ctx)
	if err != nil {
		return nil, fmt.Errorf("read coverage: %w", err)
	}

	report := audit(coverage)
	printReport(report, coverage, verbose)

	if prune {
		for _, c := range report.Incomplete {
			n, err := db.DeleteYears(ctx, c.Year, c.Year)
			if err != nil {
				return nil, fmt.Errorf("prune %d: %w", c.Year, err)
			}
			report.Pruned += n
		}
		if report.Pruned > 0 {
			fmt.Printf("Pruned %d incomplete year(s)\n", report.Pruned)
		}
	}

	return report, nil
}

// audit checks coverage, which is sorted by year.
func audit(coverage []database.YearCoverage) *Report {
	report := &Report{Years: len(coverage)}
	if len(coverage) == 0 {
		return report
	}
	report.FirstYear = coverage[0].Year
	report.LastYear = coverage[len(coverage)-1].Year

	for i, c := range coverage {
		if !c.Complete() {
			report.Incomplete = append(report.Incomplete, c)
		}
		if i > 0 {
			for y := coverage[i-1].Year + 1; y < c.Year; y++ {
				report.Gaps = append(report.Gaps, y)
			}
		}
	}
	return report
}

func printReport(r *Report, coverage []database.YearCoverage, verbose bool) {
	fmt.Println("================================================================")
	fmt.Println("Lunisolar Event Store - Coverage")
	fmt.Println("================================================================")
	if r.Years == 0 {
		fmt.Println("No years stored.")
		return
	}
	fmt.Printf("Years:       %d (%d..%d)\n", r.Years, r.FirstYear, r.LastYear)
	fmt.Printf("Incomplete:  %d\n", len(r.Incomplete))
	fmt.Printf("Gaps:        %v\n", r.Gaps)
	fmt.Println()

	if verbose {
		for _, c := range coverage {
			mark := "✓"
			if !c.Complete() {
				mark = "✗"
			}
			fmt.Printf("  %s %d  %-6s  new moons %2d  terms %2d\n", mark, c.Year, c.Source, c.NewMoons, c.SolarTerms)
		}
		fmt.Println()
	}

	for _, c := range r.Incomplete {
		fmt.Printf("  ✗ %d: %d new moons, %d solar terms\n", c.Year, c.NewMoons, c.SolarTerms)
	}
}

func saveReport(path string, r *Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Printf("Report written to %s\n", path)
	return nil
}
