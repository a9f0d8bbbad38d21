package ephemeris

import (
	"context"
	"fmt"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
)

// aberration is the constant of annual aberration in degrees at 1 AU.
const aberration = 20.4898 / 3600

// Meeus is an analytic Oracle after Jean Meeus, Astronomical Algorithms
// (2nd ed.). The Sun follows the series of chapter 25 (about 0.01°); the
// Moon uses the periodic terms of chapter 47 (about 10"). Both get the full
// IAU 1980 nutation of chapter 22.
// New moons come out within a minute or two of published times; solar
// terms within a quarter of an hour.
type Meeus struct{}

// NewMeeus returns the built-in analytic oracle.
func NewMeeus() Meeus { return Meeus{} }

// Longitude implements Oracle.
func (Meeus) Longitude(ctx context.Context, body Body, t time.Time) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	jde := ephemerisDay(t)
	switch body {
	case Sun:
		return SunLongitude(jde), nil
	case Moon:
		return MoonLongitude(jde), nil
	default:
		return 0, fmt.Errorf("meeus: unsupported body %s", body)
	}
}

// SunLongitude returns the apparent longitude of the Sun at a Julian
// Ephemeris Day.
func SunLongitude(jde float64) float64 {
	T := base.J2000Century(jde)
	s, _ := solar.True(T)
	Δψ, _ := nutation.Nutation(jde)
	return Normalize(s.Deg() + Δψ.Deg() - aberration/solar.Radius(T))
}

// MoonLongitude returns the apparent longitude of the Moon at a Julian
// Ephemeris Day.
func MoonLongitude(jde float64) float64 {
	λ, _, _ := moonposition.Position(jde)
	Δψ, _ := nutation.Nutation(jde)
	return Normalize(λ.Deg() + Δψ.Deg())
}
