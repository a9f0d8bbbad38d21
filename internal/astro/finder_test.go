package astro

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/ephemeris"
)

var linearEpoch = time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	linearYear    = 365.25
	linearSynodic = 29.5
	sunAtEpoch    = 280.0
	elongAtEpoch  = -10.0
)

// linearOracle moves the Sun and the Moon at constant rates so every
// crossing has a closed form.
func linearOracle() ephemeris.Oracle {
	return ephemeris.OracleFunc(func(_ context.Context, body ephemeris.Body, t time.Time) (float64, error) {
		days := t.Sub(linearEpoch).Hours() / 24
		sun := sunAtEpoch + days*360/linearYear
		if body == ephemeris.Sun {
			return ephemeris.Normalize(sun), nil
		}
		return ephemeris.Normalize(sun + elongAtEpoch + days*360/linearSynodic), nil
	})
}

func linearNewMoon(n int) time.Time {
	days := (-elongAtEpoch + 360*float64(n)) * linearSynodic / 360
	return linearEpoch.Add(time.Duration(days * 24 * float64(time.Hour)))
}

func linearTerm(longitude float64) time.Time {
	days := ephemeris.Normalize(longitude-sunAtEpoch) * linearYear / 360
	return linearEpoch.Add(time.Duration(days * 24 * float64(time.Hour)))
}

func TestFinder_NewMoonsMatchClosedForm(t *testing.T) {
	f := NewFinder(linearOracle(), nil)
	start, end := linearEpoch, linearEpoch.AddDate(1, 0, 0)

	moons, err := f.NewMoons(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, moons, 13)
	for i, got := range moons {
		assert.WithinDuration(t, linearNewMoon(i), got, 2*time.Millisecond, "new moon %d", i)
		assert.Equal(t, got.Truncate(time.Millisecond), got)
	}
}

func TestFinder_SolarTermsMatchClosedForm(t *testing.T) {
	f := NewFinder(linearOracle(), nil)
	start, end := linearEpoch, linearEpoch.AddDate(1, 0, 0)

	terms, err := f.SolarTerms(context.Background(), start, end)
	require.NoError(t, err)

	require.Len(t, terms, 24)
	// The Sun starts at 280°, so the first crossing enters the 285° sector.
	assert.Equal(t, 19, terms[0].Index)
	for i, e := range terms {
		want := (19 + i) % TermCount
		assert.Equal(t, want, e.Index)
		assert.WithinDuration(t, linearTerm(float64(want*15)), e.Instant, 2*time.Millisecond, "term %d", want)
		if i > 0 {
			assert.True(t, terms[i-1].Instant.Before(e.Instant))
		}
	}
}

func TestFinder_WorkerCountDoesNotChangeResult(t *testing.T) {
	ctx := context.Background()
	serial := NewFinder(linearOracle(), nil)
	serial.Workers = 1
	parallel := NewFinder(linearOracle(), nil)
	parallel.Workers = 16

	a, err := serial.FindYears(ctx, 2023, 2024)
	require.NoError(t, err)
	b, err := parallel.FindYears(ctx, 2023, 2024)
	require.NoError(t, err)

	assert.Equal(t, a.NewMoons, b.NewMoons)
	assert.Equal(t, a.SolarTerms, b.SolarTerms)
}

func TestFinder_FindYears(t *testing.T) {
	set, err := NewFinder(linearOracle(), nil).FindYears(context.Background(), 2023, 2023)
	require.NoError(t, err)

	assert.Equal(t, 2023, set.StartYear)
	assert.Equal(t, 2023, set.EndYear)
	assert.Len(t, set.NewMoons, 13)
	assert.Len(t, set.SolarTerms, 24)
	assert.Len(t, set.PrincipalTerms(), 12)

	lo, hi := set.Range()
	for _, nm := range set.NewMoons {
		assert.False(t, nm.Before(lo))
		assert.True(t, nm.Before(hi))
	}
}

func TestFinder_FindYearsRejectsInvertedRange(t *testing.T) {
	_, err := NewFinder(linearOracle(), nil).FindYears(context.Background(), 2024, 2023)
	assert.Error(t, err)
}

func TestFinder_OracleFailures(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		oracle ephemeris.Oracle
	}{
		{
			name: "error",
			oracle: ephemeris.OracleFunc(func(context.Context, ephemeris.Body, time.Time) (float64, error) {
				return 0, boom
			}),
		},
		{
			name: "nan",
			oracle: ephemeris.OracleFunc(func(context.Context, ephemeris.Body, time.Time) (float64, error) {
				return math.NaN(), nil
			}),
		},
		{
			name: "out of range",
			oracle: ephemeris.OracleFunc(func(context.Context, ephemeris.Body, time.Time) (float64, error) {
				return 361, nil
			}),
		},
		{
			name:   "missing",
			oracle: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set, err := NewFinder(tt.oracle, nil).FindYears(context.Background(), 2023, 2023)
			assert.Nil(t, set)
			assert.ErrorIs(t, err, ErrOracleFailure)
		})
	}
}

func TestFinder_FailsMidRange(t *testing.T) {
	cutoff := linearEpoch.AddDate(0, 6, 0)
	inner := linearOracle()
	oracle := ephemeris.OracleFunc(func(ctx context.Context, body ephemeris.Body, t time.Time) (float64, error) {
		if t.After(cutoff) {
			return 0, errors.New("table ends")
		}
		return inner.Longitude(ctx, body, t)
	})

	_, err := NewFinder(oracle, nil).FindYears(context.Background(), 2023, 2023)
	assert.ErrorIs(t, err, ErrOracleFailure)
}

func TestFinder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFinder(ephemeris.NewMeeus(), nil).FindYears(ctx, 2023, 2023)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFinder_EmptyRange(t *testing.T) {
	f := NewFinder(linearOracle(), nil)
	moons, err := f.NewMoons(context.Background(), linearEpoch, linearEpoch)
	require.NoError(t, err)
	assert.Empty(t, moons)
}

func TestFinder_Meeus2023(t *testing.T) {
	set, err := NewFinder(ephemeris.NewMeeus(), nil).FindYears(context.Background(), 2023, 2023)
	require.NoError(t, err)

	require.Len(t, set.NewMoons, 12)
	require.Len(t, set.SolarTerms, 24)

	// Published: new moon 2023-01-21 20:53 UTC, 2023-12-12 23:32 UTC.
	assert.WithinDuration(t, time.Date(2023, 1, 21, 20, 53, 0, 0, time.UTC), set.NewMoons[0], 10*time.Minute)
	assert.WithinDuration(t, time.Date(2023, 12, 12, 23, 32, 0, 0, time.UTC), set.NewMoons[11], 10*time.Minute)

	var solstice, equinox *SolarTermEvent
	for i := range set.SolarTerms {
		switch set.SolarTerms[i].Index {
		case WinterSolstice:
			solstice = &set.SolarTerms[i]
		case 0:
			equinox = &set.SolarTerms[i]
		}
	}
	require.NotNil(t, solstice)
	require.NotNil(t, equinox)
	assert.WithinDuration(t, time.Date(2023, 12, 22, 3, 27, 0, 0, time.UTC), solstice.Instant, 30*time.Minute)
	assert.WithinDuration(t, time.Date(2023, 3, 20, 21, 24, 0, 0, time.UTC), equinox.Instant, 30*time.Minute)
}

func TestEventSet_Slice(t *testing.T) {
	set, err := NewFinder(linearOracle(), nil).FindYears(context.Background(), 2023, 2024)
	require.NoError(t, err)

	only := set.Slice(2024, 2024)
	assert.True(t, only.Covers(2024, 2024))
	assert.False(t, only.Covers(2023, 2024))
	for _, nm := range only.NewMoons {
		assert.Equal(t, 2024, nm.Year())
	}
	assert.Len(t, only.SolarTerms, 24)
}

func TestTermName(t *testing.T) {
	ws, err := TermName(WinterSolstice)
	require.NoError(t, err)
	assert.Equal(t, "冬至", ws.Hanzi)
	assert.Equal(t, 270, ws.Longitude)
	assert.True(t, ws.Principal())

	lichun, err := TermName(21)
	require.NoError(t, err)
	assert.Equal(t, "Lichun", lichun.Pinyin)
	assert.False(t, lichun.Principal())

	_, err = TermName(24)
	assert.Error(t, err)
}
