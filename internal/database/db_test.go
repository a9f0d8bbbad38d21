package database

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
)

// testDB creates a migrated in-memory database.
func testDB(t *testing.T) *DB {
	t.Helper()

	cfg := Config{
		Path:            ":memory:",
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
	}

	// Quiet logger for tests
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))

	db, err := Open(cfg, logger)
	require.NoError(t, err, "open test database")

	_, err = db.Migrate(context.Background())
	require.NoError(t, err, "migrate test database")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func utc(y, mo, d, h, mi int) time.Time {
	return time.Date(y, time.Month(mo), d, h, mi, 0, 0, time.UTC)
}

const (
	// mean synodic month and 1/24 of a tropical year
	synodicMonth = 29*24*time.Hour + 12*time.Hour + 44*time.Minute + 3*time.Second
	termStep     = 15*24*time.Hour + 5*time.Hour + 14*time.Minute
)

// sampleSet is a synthetic 2023-2024 set spaced at mean intervals: 12 new
// moons in 2023, 13 in 2024 and 24 terms in each year.
func sampleSet() *astro.EventSet {
	set := &astro.EventSet{StartYear: 2023, EndYear: 2024}
	first := utc(2023, 1, 21, 20, 53)
	for k := 0; ; k++ {
		nm := first.Add(time.Duration(k) * synodicMonth)
		if nm.Year() > 2024 {
			break
		}
		set.NewMoons = append(set.NewMoons, nm)
	}
	for y := 2023; y <= 2024; y++ {
		for i := 0; i < astro.TermCount; i++ {
			set.SolarTerms = append(set.SolarTerms, astro.SolarTermEvent{
				Instant: utc(y, 1, 6, 4, 49).Add(time.Duration(i) * termStep),
				Index:   (19 + i) % astro.TermCount,
			})
		}
	}
	return set
}

// withoutNewMoon returns a copy of set missing its i-th new moon.
func withoutNewMoon(set *astro.EventSet, i int) *astro.EventSet {
	out := *set
	out.NewMoons = append(append([]time.Time{}, set.NewMoons[:i]...), set.NewMoons[i+1:]...)
	return &out
}

// -----------------------------------------------------------------
// DB tests
// -----------------------------------------------------------------

func TestOpen(t *testing.T) {
	db := testDB(t)
	assert.NoError(t, db.Health(context.Background()))
}

func TestMigrate(t *testing.T) {
	db := testDB(t)

	// Running again should be a no-op
	count, err := db.Migrate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

// -----------------------------------------------------------------
// Event tests
// -----------------------------------------------------------------

func TestSaveAndLoadEventSet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	set := sampleSet()

	require.NoError(t, db.SaveEventSet(ctx, set, SourceMeeus))

	got, err := db.LoadEventSet(ctx, 2023, 2024)
	require.NoError(t, err)
	assert.Equal(t, set.NewMoons, got.NewMoons)
	assert.Equal(t, set.SolarTerms, got.SolarTerms)
	assert.Equal(t, 2023, got.StartYear)
	assert.Equal(t, 2024, got.EndYear)

	only, err := db.LoadEventSet(ctx, 2024, 2024)
	require.NoError(t, err)
	assert.Len(t, only.NewMoons, 13)
	assert.Len(t, only.SolarTerms, 24)
}

func TestLoadEventSet_NotFound(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveEventSet(ctx, sampleSet(), SourceMeeus))

	_, err := db.LoadEventSet(ctx, 2024, 2025)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsNotFound(err))

	_, err = db.LoadEventSet(ctx, 2025, 2024)
	assert.Error(t, err)
}

func TestLoadEventSet_IncompleteYear(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	// August 2023 is missing.
	holed := withoutNewMoon(sampleSet(), 7)
	require.NoError(t, db.SaveEventSet(ctx, holed, SourceImport))

	_, err := db.LoadEventSet(ctx, 2023, 2024)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "year 2023")

	_, err = db.LoadEventSet(ctx, 2023, 2023)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := db.LoadEventSet(ctx, 2024, 2024)
	require.NoError(t, err)
	assert.Len(t, got.NewMoons, 13)

	// A full save of the year heals it.
	require.NoError(t, db.SaveEventSet(ctx, sampleSet().Slice(2023, 2023), SourceMeeus))
	_, err = db.LoadEventSet(ctx, 2023, 2024)
	assert.NoError(t, err)
}

func TestSaveEventSet_ReplacesYears(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveEventSet(ctx, sampleSet(), SourceMeeus))

	replacement := sampleSet().Slice(2024, 2024)
	replacement.NewMoons[0] = replacement.NewMoons[0].Add(time.Minute)
	require.NoError(t, db.SaveEventSet(ctx, replacement, SourceImport))

	got, err := db.LoadEventSet(ctx, 2023, 2024)
	require.NoError(t, err)
	require.Len(t, got.NewMoons, 25)
	assert.Equal(t, sampleSet().NewMoons[11], got.NewMoons[11])
	assert.Equal(t, replacement.NewMoons[0], got.NewMoons[12])
	assert.Len(t, got.SolarTerms, 48)

	years, err := db.ListYears(ctx)
	require.NoError(t, err)
	require.Len(t, years, 2)
	assert.Equal(t, SourceMeeus, years[0].Source)
	assert.Equal(t, SourceImport, years[1].Source)
	assert.NotNil(t, years[1].ComputedAt)
}

func TestSaveEventSet_IgnoresEventsOutsideRange(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	set := sampleSet()
	set.EndYear = 2023
	require.NoError(t, db.SaveEventSet(ctx, set, SourceMeeus))

	got, err := db.LoadEventSet(ctx, 2023, 2023)
	require.NoError(t, err)
	assert.Len(t, got.NewMoons, 12)
	assert.Len(t, got.SolarTerms, 24)

	_, err = db.LoadEventSet(ctx, 2024, 2024)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEventSet_Invalid(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	assert.Error(t, db.SaveEventSet(ctx, nil, SourceMeeus))
	assert.Error(t, db.SaveEventSet(ctx, sampleSet(), Source("guess")))

	bad := sampleSet()
	bad.SolarTerms = append(bad.SolarTerms, astro.SolarTermEvent{Instant: utc(2023, 6, 1, 0, 0), Index: 24})
	assert.Error(t, db.SaveEventSet(ctx, bad, SourceMeeus))

	// The failed save leaves nothing behind.
	years, err := db.ListYears(ctx)
	require.NoError(t, err)
	assert.Empty(t, years)
}

func TestCoverage(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveEventSet(ctx, withoutNewMoon(sampleSet(), 7), SourceMeeus))

	cov, err := db.Coverage(ctx)
	require.NoError(t, err)
	require.Len(t, cov, 2)

	assert.Equal(t, 2023, cov[0].Year)
	assert.Equal(t, 11, cov[0].NewMoons)
	assert.Equal(t, 24, cov[0].SolarTerms)
	assert.False(t, cov[0].Complete())

	assert.Equal(t, 13, cov[1].NewMoons)
	assert.True(t, cov[1].Complete())
}

func TestCountYears(t *testing.T) {
	counts := CountYears(sampleSet())
	require.Len(t, counts, 2)
	assert.Equal(t, YearCoverage{EventYear: EventYear{Year: 2023}, NewMoons: 12, SolarTerms: 24}, counts[0])
	assert.Equal(t, YearCoverage{EventYear: EventYear{Year: 2024}, NewMoons: 13, SolarTerms: 24}, counts[1])

	assert.Empty(t, IncompleteYears(sampleSet()))

	bad := IncompleteYears(withoutNewMoon(sampleSet(), 0))
	require.Len(t, bad, 1)
	assert.Equal(t, 2023, bad[0].Year)

	noTerms := sampleSet()
	noTerms.SolarTerms = noTerms.SolarTerms[:24]
	bad = IncompleteYears(noTerms)
	require.Len(t, bad, 1)
	assert.Equal(t, 2024, bad[0].Year)
	assert.Equal(t, 0, bad[0].SolarTerms)
}

func TestDeleteYears(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	require.NoError(t, db.SaveEventSet(ctx, sampleSet(), SourceMeeus))

	n, err := db.DeleteYears(ctx, 2024, 2030)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = db.LoadEventSet(ctx, 2024, 2024)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := db.LoadEventSet(ctx, 2023, 2023)
	require.NoError(t, err)
	assert.Len(t, got.NewMoons, 12)
}

func TestParseTimestamp(t *testing.T) {
	assert.Nil(t, parseTimestamp(sqlNull("")))
	assert.Nil(t, parseTimestamp(sqlNull("yesterday")))

	got := parseTimestamp(sqlNull("2024-01-02 03:04:05"))
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), *got)
}

func sqlNull(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
