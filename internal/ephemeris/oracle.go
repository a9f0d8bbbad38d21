// Package ephemeris provides ecliptic longitudes of the Sun and Moon.
//
// The calendar engine only ever asks one question of an ephemeris: where is
// this body along the ecliptic at this instant. Oracle captures that
// question so the built-in analytic model can be swapped for a table, a
// remote service or a synthetic function in tests.
package ephemeris

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Body is a solar-system body the oracle can locate.
type Body int

const (
	Sun Body = iota
	Moon
)

func (b Body) String() string {
	switch b {
	case Sun:
		return "sun"
	case Moon:
		return "moon"
	default:
		return fmt.Sprintf("body(%d)", int(b))
	}
}

// Oracle returns the apparent geocentric ecliptic longitude of a body, in
// degrees within [0, 360).
type Oracle interface {
	Longitude(ctx context.Context, body Body, t time.Time) (float64, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, body Body, t time.Time) (float64, error)

// Longitude calls f.
func (f OracleFunc) Longitude(ctx context.Context, body Body, t time.Time) (float64, error) {
	return f(ctx, body, t)
}

// Normalize maps any angle onto [0, 360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// Normalize180 maps any angle onto (-180, 180].
func Normalize180(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	}
	if deg <= -180 {
		deg += 360
	}
	return deg
}

// ValidLongitude reports whether v is a finite angle in [0, 360).
func ValidLongitude(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v < 360
}
