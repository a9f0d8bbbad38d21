// Package ganzhi derives sexagenary (stem-branch) designations for years,
// lunar months, days and hours.
//
// Stems are indexed 0..9 from Jia, branches 0..11 from Zi, and cycle
// positions 1..60 from Jia-Zi.
package ganzhi

import (
	"fmt"

	"github.com/zapponejosh/lunisolar-api/internal/civil"
)

// Stem is a heavenly stem, 0 (Jia) through 9 (Gui).
type Stem int

// Branch is an earthly branch, 0 (Zi) through 11 (Hai).
type Branch int

var stems = [10][2]string{
	{"甲", "Jia"}, {"乙", "Yi"}, {"丙", "Bing"}, {"丁", "Ding"}, {"戊", "Wu"},
	{"己", "Ji"}, {"庚", "Geng"}, {"辛", "Xin"}, {"壬", "Ren"}, {"癸", "Gui"},
}

var branches = [12][2]string{
	{"子", "Zi"}, {"丑", "Chou"}, {"寅", "Yin"}, {"卯", "Mao"}, {"辰", "Chen"}, {"巳", "Si"},
	{"午", "Wu"}, {"未", "Wei"}, {"申", "Shen"}, {"酉", "You"}, {"戌", "Xu"}, {"亥", "Hai"},
}

func (s Stem) Hanzi() string  { return stems[s][0] }
func (s Stem) Pinyin() string { return stems[s][1] }
func (s Stem) String() string { return s.Hanzi() }

func (b Branch) Hanzi() string  { return branches[b][0] }
func (b Branch) Pinyin() string { return branches[b][1] }
func (b Branch) String() string { return b.Hanzi() }

// Designation is one pillar. Cycle-1 is congruent to Stem mod 10 and to
// Branch mod 12.
type Designation struct {
	Stem   Stem
	Branch Branch
	Cycle  int
}

func (d Designation) String() string { return d.Stem.Hanzi() + d.Branch.Hanzi() }

// Pinyin returns the romanized name, e.g. "Gui-Mao".
func (d Designation) Pinyin() string { return d.Stem.Pinyin() + "-" + d.Branch.Pinyin() }

// FromCycle returns the designation at position 1..60.
func FromCycle(cycle int) Designation {
	c := mod(cycle-1, 60)
	return Designation{Stem: Stem(c % 10), Branch: Branch(c % 12), Cycle: c + 1}
}

// FromStemBranch combines a stem and branch. Only pairs of equal parity
// name a cycle position.
func FromStemBranch(s Stem, b Branch) (Designation, error) {
	if s < 0 || s > 9 || b < 0 || b > 11 {
		return Designation{}, fmt.Errorf("stem %d or branch %d out of range", s, b)
	}
	if int(s)%2 != int(b)%2 {
		return Designation{}, fmt.Errorf("stem %s and branch %s differ in parity", s, b)
	}
	return Designation{Stem: s, Branch: b, Cycle: cycleOf(int(s), int(b))}, nil
}

// cycleOf solves c ≡ s (mod 10), c ≡ b (mod 12) for matching parity.
func cycleOf(s, b int) int {
	return mod(6*s-5*b, 60) + 1
}

// Stem of lunar month 1 (the Yin month), by year stem group.
var monthStartStem = [5]Stem{2, 4, 6, 8, 0}

// Stem of the Zi hour, by day stem group.
var hourStartStem = [5]Stem{0, 2, 4, 6, 8}

// Year returns the pillar of a lunar year. 4 CE was Jia-Zi.
func Year(lunarYear int) Designation {
	return FromCycle(mod(lunarYear-4, 60) + 1)
}

// Month returns the pillar of lunar month 1..12 in a year with the given
// year stem. Leap months share the pillar of the month they repeat.
func Month(yearStem Stem, lunarMonth int) Designation {
	s := Stem(mod(int(monthStartStem[int(yearStem)%5])+lunarMonth-1, 10))
	b := Branch(mod(lunarMonth+1, 12))
	return Designation{Stem: s, Branch: b, Cycle: cycleOf(int(s), int(b))}
}

// dayEpoch is 0004-01-31 (proleptic Gregorian), a Jia-Zi day.
var dayEpoch = civil.DaysFromCivil(4, 1, 31)

// Day returns the pillar of a wall date.
func Day(d civil.Date) Designation {
	return FromCycle(int(mod64(d.Days()-dayEpoch, 60)) + 1)
}

// HourBranch returns the branch of the two-hour window containing hour
// 0..23. Zi spans 23:00 to 00:59.
func HourBranch(hour int) Branch {
	return Branch(((hour + 1) / 2) % 12)
}

// Hour returns the pillar for a wall-clock hour 0..23 on a day whose stem
// is dayStem. From 23:00 the Zi hour belongs to the next day, so its stem
// follows the next day's stem.
func Hour(hour int, dayStem Stem) Designation {
	if hour >= 23 {
		dayStem = (dayStem + 1) % 10
	}
	b := HourBranch(hour)
	s := Stem(mod(int(hourStartStem[int(dayStem)%5])+int(b), 10))
	return Designation{Stem: s, Branch: b, Cycle: cycleOf(int(s), int(b))}
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

func mod64(a, n int64) int64 {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}

// Script selects how stem and branch names are rendered.
type Script int

const (
	Hanzi Script = iota
	Pinyin
)

// StemName renders the stem of d.
func (d Designation) StemName(s Script) string {
	if s == Pinyin {
		return d.Stem.Pinyin()
	}
	return d.Stem.Hanzi()
}

// BranchName renders the branch of d.
func (d Designation) BranchName(s Script) string {
	if s == Pinyin {
		return d.Branch.Pinyin()
	}
	return d.Branch.Hanzi()
}
