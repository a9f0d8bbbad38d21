package ephemeris

import (
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/deltat"
	"github.com/soniakeys/meeus/v3/julian"
)

// JulianDay returns the Julian Day (UT) of t. The proleptic Gregorian
// calendar is used for every date, as time.Time does.
func JulianDay(t time.Time) float64 {
	return julian.TimeToJD(t)
}

// DeltaT estimates TT − UT in seconds at a Julian Day.
//
// The polynomials and table of Meeus chapter 10 cover history; 2005–2050
// uses the Espenak–Meeus fit, which tracks observed values within a second
// where the chapter 10 extrapolation drifts by half a minute.
func DeltaT(jd float64) float64 {
	year := 2000 + (jd-base.J2000)/base.JulianYear
	switch {
	case year < 948:
		return deltat.PolyBefore948(year).Sec()
	case year < 1620:
		return deltat.Poly948to1600(year).Sec()
	case year < 2000:
		return deltat.Interp10A(jd).Sec()
	case year >= 2005 && year <= 2050:
		t := year - 2000
		return 62.92 + 0.32217*t + 0.005589*t*t
	default:
		return deltat.PolyAfter2000(year).Sec()
	}
}

// ephemerisDay returns the Julian Ephemeris Day (TT) of t.
func ephemerisDay(t time.Time) float64 {
	jd := JulianDay(t)
	return jd + DeltaT(jd)/86400
}
