// Package huangdao computes the daily almanac stars: the twelve
// construction stars and the Great Yellow Path spirits.
package huangdao

import "github.com/zapponejosh/lunisolar-api/internal/ganzhi"

// PathType says whether a day lies on the yellow (auspicious) or black path.
type PathType string

const (
	YellowPath PathType = "黄道"
	BlackPath  PathType = "黑道"
)

// Level rates a construction star.
type Level string

const (
	Auspicious       Level = "auspicious"
	Moderate         Level = "moderate"
	Inauspicious     Level = "inauspicious"
	VeryInauspicious Level = "very_inauspicious"
)

// Star is one of the twelve construction stars.
type Star struct {
	Index   int    `json:"index"`
	Hanzi   string `json:"hanzi"`
	Pinyin  string `json:"pinyin"`
	English string `json:"english"`
	Level   Level  `json:"level"`
}

// Spirit is one of the twelve Great Yellow Path spirits.
type Spirit struct {
	Index      int      `json:"index"`
	Hanzi      string   `json:"hanzi"`
	Pinyin     string   `json:"pinyin"`
	English    string   `json:"english"`
	Auspicious bool     `json:"auspicious"`
	Path       PathType `json:"path"`
}

// "建满平收黑，除危定执黄，成开皆可用，破闭不可当"
var stars = [12]Star{
	{0, "建", "Jian", "Establish", Inauspicious},
	{1, "除", "Chu", "Remove", Auspicious},
	{2, "满", "Man", "Full", Moderate},
	{3, "平", "Ping", "Balanced", Inauspicious},
	{4, "定", "Ding", "Set", Auspicious},
	{5, "执", "Zhi", "Hold", Moderate},
	{6, "破", "Po", "Break", VeryInauspicious},
	{7, "危", "Wei", "Danger", Inauspicious},
	{8, "成", "Cheng", "Accomplish", Moderate},
	{9, "收", "Shou", "Harvest", Inauspicious},
	{10, "开", "Kai", "Open", Moderate},
	{11, "闭", "Bi", "Close", VeryInauspicious},
}

var spirits = [12]Spirit{
	{Index: 0, Hanzi: "青龙", Pinyin: "Qinglong", English: "Azure Dragon", Auspicious: true},
	{Index: 1, Hanzi: "明堂", Pinyin: "Mingtang", English: "Bright Hall", Auspicious: true},
	{Index: 2, Hanzi: "天刑", Pinyin: "Tianxing", English: "Heavenly Punishment"},
	{Index: 3, Hanzi: "朱雀", Pinyin: "Zhuque", English: "Vermillion Bird"},
	{Index: 4, Hanzi: "金匮", Pinyin: "Jinkui", English: "Golden Coffer", Auspicious: true},
	{Index: 5, Hanzi: "天德", Pinyin: "Tiande", English: "Heavenly Virtue", Auspicious: true},
	{Index: 6, Hanzi: "白虎", Pinyin: "Baihu", English: "White Tiger"},
	{Index: 7, Hanzi: "玉堂", Pinyin: "Yutang", English: "Jade Hall", Auspicious: true},
	{Index: 8, Hanzi: "天牢", Pinyin: "Tianlao", English: "Heavenly Prison"},
	{Index: 9, Hanzi: "玄武", Pinyin: "Xuanwu", English: "Black Tortoise"},
	{Index: 10, Hanzi: "司命", Pinyin: "Siming", English: "Life Controller", Auspicious: true},
	{Index: 11, Hanzi: "勾陈", Pinyin: "Gouchen", English: "Coiling Snake"},
}

// Day is the almanac entry for one day.
type Day struct {
	Star   Star   `json:"constructionStar"`
	Spirit Spirit `json:"gypSpirit"`
}

// ConstructionStar returns the star of a day in lunar month 1..12. Jian
// falls on the day whose branch matches the month branch.
func ConstructionStar(lunarMonth int, dayBranch ganzhi.Branch) Star {
	monthBranch := (lunarMonth + 1) % 12
	return stars[mod(int(dayBranch)-monthBranch, 12)]
}

// YellowPathSpirit returns the spirit of a day in lunar month 1..12. The
// Azure Dragon starts on Zi in months 1 and 7 and moves two branches a
// month.
func YellowPathSpirit(lunarMonth int, dayBranch ganzhi.Branch) Spirit {
	start := 2 * mod(lunarMonth-1, 6)
	s := spirits[mod(int(dayBranch)-start, 12)]
	s.Path = BlackPath
	if s.Auspicious {
		s.Path = YellowPath
	}
	return s
}

// ForDay returns both almanac values.
func ForDay(lunarMonth int, dayBranch ganzhi.Branch) Day {
	return Day{
		Star:   ConstructionStar(lunarMonth, dayBranch),
		Spirit: YellowPathSpirit(lunarMonth, dayBranch),
	}
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
