package lunisolar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/astro"
	"github.com/zapponejosh/lunisolar-api/internal/civil"
	"github.com/zapponejosh/lunisolar-api/internal/database"
	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
	"github.com/zapponejosh/lunisolar-api/internal/huangdao"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) *Service {
	t.Helper()
	finder := astro.NewFinder(ephemeris.NewMeeus(), nil)
	return NewService(NewProvider(finder, nil, nil), nil)
}

var shanghai = time.FixedZone("CST", 8*3600)

func TestService_Convert(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Convert(context.Background(), time.Date(2023, 4, 1, 12, 0, 0, 0, shanghai), 8*3600)
	require.NoError(t, err)

	assert.Equal(t, 2023, got.LunarYear)
	assert.Equal(t, 2, got.LunarMonth)
	assert.Equal(t, 11, got.LunarDay)
	assert.True(t, got.IsLeapMonth)
	assert.Equal(t, "开", got.Almanac.Star.Hanzi)
	assert.Equal(t, "勾陈", got.Almanac.Spirit.Hanzi)
	assert.Equal(t, huangdao.BlackPath, got.Almanac.Spirit.Path)

	rec := got.Record(ganzhi.Hanzi)
	assert.Equal(t, "2023-04-01", rec.LocalDate)
	assert.Equal(t, "12:00", rec.LocalTime)
	assert.Equal(t, "癸", rec.YearStem)
	assert.Equal(t, "黑道", rec.GYPPathType)
	assert.Equal(t, got.Instant.UnixMilli(), rec.TimestampMs)
}

func TestService_ConvertBatch(t *testing.T) {
	svc := newTestService(t)

	out, err := svc.ConvertBatch(context.Background(), []Query{
		{Instant: time.Date(2023, 1, 21, 23, 30, 0, 0, shanghai), OffsetSeconds: 8 * 3600},
		{Instant: time.Date(2024, 2, 10, 12, 0, 0, 0, shanghai), OffsetSeconds: 8 * 3600},
		{Instant: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), OffsetSeconds: 0},
	})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, [3]int{2022, 12, 30}, [3]int{out[0].LunarYear, out[0].LunarMonth, out[0].LunarDay})
	assert.Equal(t, [3]int{2024, 1, 1}, [3]int{out[1].LunarYear, out[1].LunarMonth, out[1].LunarDay})
	assert.Equal(t, [3]int{2023, 11, 20}, [3]int{out[2].LunarYear, out[2].LunarMonth, out[2].LunarDay})

	// The batch shares one range covering 2022 to 2025.
	assert.Equal(t, []int{2022, 2023, 2024, 2025}, svc.Events.CachedYears())
}

func TestService_ConvertBatchEmpty(t *testing.T) {
	out, err := newTestService(t).ConvertBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestService_SpanTooWide(t *testing.T) {
	svc := newTestService(t)
	svc.MaxYearSpan = 2

	_, err := svc.ConvertBatch(context.Background(), []Query{
		{Instant: time.Date(2020, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Instant: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	assert.ErrorIs(t, err, ErrSpanTooWide)

	_, err = svc.Precompute(context.Background(), 2020, 2024)
	assert.ErrorIs(t, err, ErrSpanTooWide)
}

func TestService_YearOutOfRange(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, at := range []time.Time{
		time.UnixMilli(-9_000_000_000_000_000),
		time.UnixMilli(9_000_000_000_000_000),
		time.Date(0, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(9999, 6, 1, 0, 0, 0, 0, time.UTC),
	} {
		_, err := svc.Convert(ctx, at, 0)
		assert.ErrorIs(t, err, ErrYearOutOfRange, at.String())
	}

	_, err := svc.ConvertBatch(ctx, []Query{
		{Instant: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)},
		{Instant: time.Date(10000, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	assert.ErrorIs(t, err, ErrYearOutOfRange)

	_, err = svc.YearTable(ctx, 0)
	assert.ErrorIs(t, err, ErrYearOutOfRange)
	_, err = svc.Precompute(ctx, 9998, 9999)
	assert.ErrorIs(t, err, ErrYearOutOfRange)

	assert.Empty(t, svc.Events.CachedYears())
}

func TestService_RecomputesIncompleteStoredYear(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(database.Config{Path: ":memory:", MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	finder := astro.NewFinder(ephemeris.NewMeeus(), nil)
	set, err := finder.FindYears(ctx, 2022, 2024)
	require.NoError(t, err)

	// Drop the August 2023 new moon from an imported set.
	holed := *set
	holed.NewMoons = nil
	for _, nm := range set.NewMoons {
		if nm.Year() == 2023 && nm.Month() == time.August {
			continue
		}
		holed.NewMoons = append(holed.NewMoons, nm)
	}
	require.Len(t, holed.NewMoons, len(set.NewMoons)-1)
	require.NoError(t, db.SaveEventSet(ctx, &holed, database.SourceImport))

	svc := NewService(NewProvider(finder, db, nil), nil)
	got, err := svc.Convert(ctx, time.Date(2023, 9, 1, 4, 0, 0, 0, time.UTC), 8*3600)
	require.NoError(t, err)
	assert.Equal(t, [3]int{2023, 7, 17}, [3]int{got.LunarYear, got.LunarMonth, got.LunarDay})
	assert.False(t, got.IsLeapMonth)

	// The recomputed years replaced the import.
	years, err := db.ListYears(ctx)
	require.NoError(t, err)
	require.Len(t, years, 3)
	for _, y := range years {
		assert.Equal(t, database.SourceMeeus, y.Source, "year %d", y.Year)
	}
}

func TestService_YearTable(t *testing.T) {
	svc := newTestService(t)

	table, err := svc.YearTable(context.Background(), 2023)
	require.NoError(t, err)
	assert.Equal(t, 2023, table.Year)

	require.Len(t, table.Months, 12)
	wantMonths := []int{1, 2, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}
	for i, m := range table.Months {
		assert.Equal(t, wantMonths[i], m.Month, "month %d", i)
		assert.Equal(t, i == 2, m.IsLeap, "month %d", i)
		assert.Equal(t, 2023, m.LunarYear)
		assert.Contains(t, []int{29, 30}, m.Days)
	}
	assert.Equal(t, civil.Date{Year: 2023, Month: 1, Day: 22}, table.Months[0].StartDate)
	assert.Equal(t, civil.Date{Year: 2023, Month: 3, Day: 22}, table.Months[2].StartDate)
	assert.Equal(t, "乙卯", table.Months[2].Pillar.String())
	assert.Equal(t, "甲子", table.Months[11].Pillar.String())

	require.Len(t, table.Terms, 24)
	assert.Equal(t, "小寒", table.Terms[0].Hanzi)
	assert.Equal(t, "冬至", table.Terms[23].Hanzi)
}

func TestService_Now(t *testing.T) {
	svc := newTestService(t)
	fixed := time.Date(2024, 2, 10, 4, 0, 0, 0, time.UTC)
	svc.Clock = fixedClock{t: fixed}
	assert.Equal(t, fixed, svc.Now())
}
