// Package feed renders a year of lunar months and solar terms as an
// iCalendar feed of all-day events.
package feed

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"github.com/zapponejosh/lunisolar-api/internal/civil"
	"github.com/zapponejosh/lunisolar-api/internal/ganzhi"
	"github.com/zapponejosh/lunisolar-api/internal/lunisolar"
)

const (
	prodID    = "-//Lunisolar API//Calendar//EN"
	uidDomain = "lunisolar-api"

	propCalName = "X-WR-CALNAME"
)

var monthNames = [13]string{"", "正月", "二月", "三月", "四月", "五月", "六月", "七月", "八月", "九月", "十月", "冬月", "腊月"}

// Build returns the calendar for a year table: one event per lunar month
// start and one per principal term. stamp fills DTSTAMP.
func Build(table *lunisolar.YearTable, script ganzhi.Script, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText(ical.PropCalendarScale, "GREGORIAN")
	cal.Props.SetText(ical.PropMethod, "PUBLISH")
	cal.Props.SetText(propCalName, calendarName(table.Year, script))

	for _, m := range table.Months {
		e := allDay(fmt.Sprintf("month-%s@%s", compact(m.StartDate), uidDomain), m.StartDate, stamp)
		e.Props.SetText(ical.PropSummary, monthSummary(m, script))
		e.Props.SetText(ical.PropDescription, fmt.Sprintf("%d days, new moon %s UTC", m.Days, m.NewMoon.UTC().Format("2006-01-02 15:04")))
		e.Props.SetText(ical.PropCategories, "LUNAR-MONTH")
		cal.Children = append(cal.Children, e.Component)
	}

	for _, t := range table.Terms {
		if !t.Principal() {
			continue
		}
		e := allDay(fmt.Sprintf("term-%s-%02d@%s", compact(t.Date), t.Index, uidDomain), t.Date, stamp)
		e.Props.SetText(ical.PropSummary, termSummary(t, script))
		e.Props.SetText(ical.PropDescription, fmt.Sprintf("Sun at %d°, %s UTC", t.Longitude, t.Instant.UTC().Format("2006-01-02 15:04")))
		e.Props.SetText(ical.PropCategories, "SOLAR-TERM")
		cal.Children = append(cal.Children, e.Component)
	}
	return cal
}

// Encode writes the feed for table to w.
func Encode(w io.Writer, table *lunisolar.YearTable, script ganzhi.Script, stamp time.Time) error {
	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(Build(table, script, stamp)); err != nil {
		return fmt.Errorf("encode calendar: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func allDay(uid string, d civil.Date, stamp time.Time) *ical.Event {
	e := ical.NewEvent()
	e.Props.SetText(ical.PropUID, uid)
	e.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())

	start := ical.NewProp(ical.PropDateTimeStart)
	start.SetDate(dateOf(d))
	e.Props.Set(start)

	end := ical.NewProp(ical.PropDateTimeEnd)
	end.SetDate(dateOf(d.AddDays(1)))
	e.Props.Set(end)

	e.Props.SetText(ical.PropTransparency, "TRANSPARENT")
	return e
}

func dateOf(d civil.Date) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

func compact(d civil.Date) string {
	return fmt.Sprintf("%04d%02d%02d", d.Year, d.Month, d.Day)
}

func calendarName(year int, script ganzhi.Script) string {
	if script == ganzhi.Pinyin {
		return fmt.Sprintf("Lunisolar calendar %d", year)
	}
	return fmt.Sprintf("%d 农历", year)
}

func monthSummary(m lunisolar.MonthEntry, script ganzhi.Script) string {
	if script == ganzhi.Pinyin {
		leap := ""
		if m.IsLeap {
			leap = "Leap "
		}
		return fmt.Sprintf("%smonth %d (%s)", leap, m.Month, m.Pillar.Pinyin())
	}
	leap := ""
	if m.IsLeap {
		leap = "闰"
	}
	return fmt.Sprintf("%s%s %s月", leap, monthNames[m.Month], m.Pillar)
}

func termSummary(t lunisolar.TermEntry, script ganzhi.Script) string {
	if script == ganzhi.Pinyin {
		return t.Pinyin
	}
	return t.Hanzi
}
