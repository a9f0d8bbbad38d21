package ganzhi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapponejosh/lunisolar-api/internal/civil"
)

func TestFromStemBranch_CRT(t *testing.T) {
	seen := map[int]bool{}
	for s := Stem(0); s < 10; s++ {
		for b := Branch(0); b < 12; b++ {
			d, err := FromStemBranch(s, b)
			if int(s)%2 != int(b)%2 {
				assert.Error(t, err)
				continue
			}
			require.NoError(t, err)
			assert.GreaterOrEqual(t, d.Cycle, 1)
			assert.LessOrEqual(t, d.Cycle, 60)
			assert.Equal(t, int(s), (d.Cycle-1)%10)
			assert.Equal(t, int(b), (d.Cycle-1)%12)
			assert.False(t, seen[d.Cycle], "cycle %d produced twice", d.Cycle)
			seen[d.Cycle] = true
			assert.Equal(t, d, FromCycle(d.Cycle))
		}
	}
	assert.Len(t, seen, 60)

	_, err := FromStemBranch(10, 0)
	assert.Error(t, err)
}

func TestFromCycle_Wraps(t *testing.T) {
	assert.Equal(t, FromCycle(1), FromCycle(61))
	assert.Equal(t, FromCycle(60), FromCycle(0))
	assert.Equal(t, "癸亥", FromCycle(60).String())
}

func TestYear(t *testing.T) {
	tests := []struct {
		year  int
		name  string
		cycle int
	}{
		{4, "甲子", 1},
		{1984, "甲子", 1},
		{2000, "庚辰", 17},
		{2022, "壬寅", 39},
		{2023, "癸卯", 40},
		{2024, "甲辰", 41},
		{-2, "戊午", 55},
	}
	for _, tt := range tests {
		got := Year(tt.year)
		assert.Equal(t, tt.name, got.String(), "year %d", tt.year)
		assert.Equal(t, tt.cycle, got.Cycle, "year %d", tt.year)
	}
	assert.Equal(t, "Gui-Mao", Year(2023).Pinyin())
}

func TestMonth(t *testing.T) {
	tests := []struct {
		yearStem Stem
		month    int
		name     string
		cycle    int
	}{
		{9, 1, "甲寅", 51}, // 2023
		{9, 2, "乙卯", 52},
		{9, 11, "甲子", 1},
		{8, 12, "癸丑", 50}, // 2022
		{0, 1, "丙寅", 3},   // 2024
		{0, 11, "丙子", 13},
		{1, 1, "戊寅", 15},
		{2, 1, "庚寅", 27},
		{3, 1, "壬寅", 39},
		{4, 1, "甲寅", 51},
	}
	for _, tt := range tests {
		got := Month(tt.yearStem, tt.month)
		assert.Equal(t, tt.name, got.String(), "stem %d month %d", tt.yearStem, tt.month)
		assert.Equal(t, tt.cycle, got.Cycle)
	}
}

func TestMonth_BranchIsFixedPerMonth(t *testing.T) {
	for m := 1; m <= 12; m++ {
		want := Branch((m + 1) % 12)
		for s := Stem(0); s < 10; s++ {
			assert.Equal(t, want, Month(s, m).Branch)
		}
	}
	assert.Equal(t, Branch(2), Month(0, 1).Branch) // Yin
	assert.Equal(t, Branch(0), Month(0, 11).Branch) // Zi
}

func TestDay(t *testing.T) {
	tests := []struct {
		date  civil.Date
		name  string
		cycle int
	}{
		{civil.Date{Year: 1949, Month: 10, Day: 1}, "甲子", 1},
		{civil.Date{Year: 2000, Month: 1, Day: 7}, "甲子", 1},
		{civil.Date{Year: 2023, Month: 1, Day: 22}, "庚辰", 17},
		{civil.Date{Year: 2023, Month: 4, Day: 1}, "己丑", 26},
		{civil.Date{Year: 2024, Month: 1, Day: 1}, "甲子", 1},
		{civil.Date{Year: 2024, Month: 2, Day: 10}, "甲辰", 41},
	}
	for _, tt := range tests {
		got := Day(tt.date)
		assert.Equal(t, tt.name, got.String(), tt.date.String())
		assert.Equal(t, tt.cycle, got.Cycle, tt.date.String())
	}
}

func TestDay_ConsecutiveDatesAdvanceOnce(t *testing.T) {
	d := civil.Date{Year: -500, Month: 1, Day: 1}
	prev := Day(d)
	for i := 0; i < 2000; i++ {
		d = d.AddDays(1)
		cur := Day(d)
		assert.Equal(t, prev.Cycle%60+1, cur.Cycle)
		prev = cur
	}
}

func TestHourBranch(t *testing.T) {
	want := []Branch{0, 1, 1, 2, 2, 3, 3, 4, 4, 5, 5, 6, 6, 7, 7, 8, 8, 9, 9, 10, 10, 11, 11, 0}
	for h, b := range want {
		assert.Equal(t, b, HourBranch(h), "hour %d", h)
	}
}

func TestHour(t *testing.T) {
	tests := []struct {
		name    string
		hour    int
		dayStem Stem
		want    string
		cycle   int
	}{
		{"zi hour after midnight", 0, 6, "丙子", 13},
		{"zi hour before midnight uses next day", 23, 5, "丙子", 13},
		{"hai hour keeps current day", 22, 5, "乙亥", 12},
		{"noon on jia day", 12, 0, "庚午", 7},
		{"midnight on jia day", 0, 0, "甲子", 1},
		{"chen hour on jia day", 7, 0, "戊辰", 5},
		{"late on gui day rolls to jia", 23, 9, "甲子", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hour(tt.hour, tt.dayStem)
			assert.Equal(t, tt.want, got.String())
			assert.Equal(t, tt.cycle, got.Cycle)
		})
	}
}

func TestHour_RolloverMatchesNextDay(t *testing.T) {
	d := civil.Date{Year: 2023, Month: 1, Day: 21}
	today, tomorrow := Day(d), Day(d.AddDays(1))

	late := Hour(23, today.Stem)
	early := Hour(0, tomorrow.Stem)
	assert.Equal(t, early, late)
	assert.Equal(t, Branch(0), late.Branch)

	evening := Hour(22, today.Stem)
	assert.Equal(t, Branch(11), evening.Branch)
	assert.Equal(t, Stem((int(hourStartStem[int(today.Stem)%5])+11)%10), evening.Stem)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "甲", Stem(0).Hanzi())
	assert.Equal(t, "Gui", Stem(9).Pinyin())
	assert.Equal(t, "亥", Branch(11).Hanzi())
	assert.Equal(t, "Chen", Branch(4).Pinyin())
}

func TestDesignation_Scripts(t *testing.T) {
	d := Year(2024)
	assert.Equal(t, "甲", d.StemName(Hanzi))
	assert.Equal(t, "Jia", d.StemName(Pinyin))
	assert.Equal(t, "辰", d.BranchName(Hanzi))
	assert.Equal(t, "Chen", d.BranchName(Pinyin))
}
