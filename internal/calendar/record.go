package calendar

import "github.com/zapponejosh/lunisolar-api/internal/ganzhi"

// Record is the flat serialized form of a Result.
type Record struct {
	LunarYear   int  `json:"lunarYear"`
	LunarMonth  int  `json:"lunarMonth"`
	LunarDay    int  `json:"lunarDay"`
	IsLeapMonth bool `json:"isLeapMonth"`

	YearStem    string `json:"yearStem"`
	YearBranch  string `json:"yearBranch"`
	YearCycle   int    `json:"yearCycle"`
	MonthStem   string `json:"monthStem"`
	MonthBranch string `json:"monthBranch"`
	MonthCycle  int    `json:"monthCycle"`
	DayStem     string `json:"dayStem"`
	DayBranch   string `json:"dayBranch"`
	DayCycle    int    `json:"dayCycle"`
	HourStem    string `json:"hourStem"`
	HourBranch  string `json:"hourBranch"`
	HourCycle   int    `json:"hourCycle"`
}

// Record flattens r, naming stems and branches in script.
func (r *Result) Record(script ganzhi.Script) Record {
	return Record{
		LunarYear:   r.LunarYear,
		LunarMonth:  r.LunarMonth,
		LunarDay:    r.LunarDay,
		IsLeapMonth: r.IsLeapMonth,

		YearStem:    r.Year.StemName(script),
		YearBranch:  r.Year.BranchName(script),
		YearCycle:   r.Year.Cycle,
		MonthStem:   r.Month.StemName(script),
		MonthBranch: r.Month.BranchName(script),
		MonthCycle:  r.Month.Cycle,
		DayStem:     r.Day.StemName(script),
		DayBranch:   r.Day.BranchName(script),
		DayCycle:    r.Day.Cycle,
		HourStem:    r.Hour.StemName(script),
		HourBranch:  r.Hour.BranchName(script),
		HourCycle:   r.Hour.Cycle,
	}
}
