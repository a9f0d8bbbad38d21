// Command convert prints the lunisolar date and four pillars of one
// moment.
//
// Usage:
//
//	go run ./cmd/convert -date 2023-04-01 -time 12:00 -tz Asia/Shanghai
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
	"github.com/zapponejosh/lunisolar-api/internal/lunisolar"
)

func main() {
	now := time.Now()
	date := flag.String("date", now.Format("2006-01-02"), "Date (YYYY-MM-DD)")
	clock := flag.String("time", now.Format("15:04"), "Time of day (HH:MM)")
	tz := flag.String("tz", "Asia/Shanghai", "IANA timezone")
	pinyin := flag.Bool("pinyin", false, "Print stems and branches in pinyin")
	asJSON := flag.Bool("json", false, "Print the result as JSON")
	flag.Parse()

	if err := run(*date, *clock, *tz, *pinyin, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(date, clock, tz string, pinyin, asJSON bool) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, loc)
	if err != nil {
		return fmt.Errorf("invalid date or time: %w", err)
	}
	_, offset := t.Zone()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	finder := astro.NewFinder(ephemeris.NewMeeus(), logger)
	svc := lunisolar.NewService(lunisolar.NewProvider(finder, nil, logger), logger)

	conv, err := svc.Convert(context.Background(), t, offset)
	if err != nil {
		return err
	}

	script := ganzhi.Hanzi
	if pinyin {
		script = ganzhi.Pinyin
	}
	rec := conv.Record(script)

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	leap := ""
	if rec.IsLeapMonth {
		leap = " (leap)"
	}
	fmt.Printf("%s %s %s\n", rec.LocalDate, rec.LocalTime, tz)
	fmt.Printf("  Lunar date:  year %d, month %d%s, day %d\n", rec.LunarYear, rec.LunarMonth, leap, rec.LunarDay)
	fmt.Printf("  Year:        %s%s (%d)\n", rec.YearStem, rec.YearBranch, rec.YearCycle)
	fmt.Printf("  Month:       %s%s (%d)\n", rec.MonthStem, rec.MonthBranch, rec.MonthCycle)
	fmt.Printf("  Day:         %s%s (%d)\n", rec.DayStem, rec.DayBranch, rec.DayCycle)
	fmt.Printf("  Hour:        %s%s (%d)\n", rec.HourStem, rec.HourBranch, rec.HourCycle)
	fmt.Printf("  Almanac:     %s, %s (%s)\n", rec.ConstructionStar, rec.GYPSpirit, rec.GYPPathType)
	return nil
}
