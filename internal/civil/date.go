// Package civil provides integer proleptic Gregorian calendar arithmetic.
//
// Day counts are relative to 1970-01-01. All conversions are exact for
// negative years and negative day counts; no floating point is involved.
package civil

import "fmt"

// Date is a proleptic Gregorian calendar date.
type Date struct {
	Year  int
	Month int // 1..12
	Day   int // 1..31
}

// DaysFromCivil returns the number of days from 1970-01-01 to the given date.
//
// Uses the era decomposition (400-year cycles of 146097 days) with March as
// the first month of the computational year, so February's leap day is the
// last day of the year.
func DaysFromCivil(year, month, day int) int64 {
	y := int64(year)
	if month <= 2 {
		y--
	}
	era := floorDiv(y, 400)
	yoe := y - era*400 // [0, 399]
	mp := int64(month+9) % 12
	doy := (153*mp+2)/5 + int64(day) - 1 // [0, 365]
	doe := yoe*365 + yoe/4 - yoe/100 + doy // [0, 146096]
	return era*146097 + doe - 719468
}

// FromDays returns the date that is days after 1970-01-01.
func FromDays(days int64) Date {
	z := days + 719468
	era := floorDiv(z, 146097)
	doe := z - era*146097                                  // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365 // [0, 399]
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100) // [0, 365]
	mp := (5*doy + 2) / 153                  // [0, 11]
	d := doy - (153*mp+2)/5 + 1              // [1, 31]
	m := (mp+2)%12 + 1                       // [1, 12]
	if m <= 2 {
		y++
	}
	return Date{Year: int(y), Month: int(m), Day: int(d)}
}

// Days returns the day count of d relative to 1970-01-01.
func (d Date) Days() int64 {
	return DaysFromCivil(d.Year, d.Month, d.Day)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return FromDays(d.Days() + int64(n))
}

// Compare orders dates lexicographically on (year, month, day).
// It returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(d.Month - o.Month)
	default:
		return sign(d.Day - o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// Within reports whether start <= d < end.
func (d Date) Within(start, end Date) bool {
	return start.Compare(d) <= 0 && d.Compare(end) < 0
}

// String formats the date as YYYY-MM-DD. Years outside 0..9999 keep their
// sign and full width.
func (d Date) String() string {
	if d.Year < 0 {
		return fmt.Sprintf("-%04d-%02d-%02d", -d.Year, d.Month, d.Day)
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsLeapYear reports whether year has 366 days.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year, month int) int {
	switch month {
	case 2:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	case 4, 6, 9, 11:
		return 30
	default:
		return 31
	}
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int64) int64 {
	return a - floorDiv(a, b)*b
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
