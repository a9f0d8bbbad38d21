package civil

import "time"

const secondsPerDay = 86400

// WallClock is the local calendar date and time of day of an instant under
// a fixed UTC offset.
type WallClock struct {
	Date
	SecondOfDay int // [0, 86399]
}

// Hour returns the hour of the day, 0..23.
func (w WallClock) Hour() int { return w.SecondOfDay / 3600 }

// Minute returns the minute of the hour, 0..59.
func (w WallClock) Minute() int { return (w.SecondOfDay % 3600) / 60 }

// Second returns the second of the minute, 0..59.
func (w WallClock) Second() int { return w.SecondOfDay % 60 }

// WallFromUnix converts whole seconds since the Unix epoch to wall time at
// offsetSeconds east of UTC.
func WallFromUnix(sec int64, offsetSeconds int) WallClock {
	total := sec + int64(offsetSeconds)
	return WallClock{
		Date:        FromDays(floorDiv(total, secondsPerDay)),
		SecondOfDay: int(floorMod(total, secondsPerDay)),
	}
}

// WallFromUnixMilli is WallFromUnix for millisecond timestamps. Sub-second
// precision is floored away.
func WallFromUnixMilli(ms int64, offsetSeconds int) WallClock {
	return WallFromUnix(floorDiv(ms, 1000), offsetSeconds)
}

// Wall returns the wall time of t at offsetSeconds east of UTC. The location
// attached to t is ignored.
func Wall(t time.Time, offsetSeconds int) WallClock {
	return WallFromUnix(t.Unix(), offsetSeconds)
}

// WallDate returns only the calendar date of Wall(t, offsetSeconds).
func WallDate(t time.Time, offsetSeconds int) Date {
	return Wall(t, offsetSeconds).Date
}

// Midnight returns the instant at which the wall date d begins at
// offsetSeconds east of UTC.
func Midnight(d Date, offsetSeconds int) time.Time {
	return time.Unix(d.Days()*secondsPerDay-int64(offsetSeconds), 0).UTC()
}
