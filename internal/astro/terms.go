package astro

import "fmt"

// TermCount is the number of solar terms in a tropical year.
const TermCount = 24

// WinterSolstice is the term index of the 270° crossing, which anchors
// lunar month 11.
const WinterSolstice = 18

// Term names a solar term.
type Term struct {
	Index  int    `json:"index"`
	Hanzi  string `json:"hanzi"`
	Pinyin string `json:"pinyin"`
	// Longitude is the solar ecliptic longitude of the crossing, in degrees.
	Longitude int `json:"longitude"`
}

// Principal reports whether the term is one of the twelve principal terms.
func (t Term) Principal() bool { return t.Index%2 == 0 }

var termNames = [TermCount][2]string{
	{"春分", "Chunfen"},
	{"清明", "Qingming"},
	{"谷雨", "Guyu"},
	{"立夏", "Lixia"},
	{"小满", "Xiaoman"},
	{"芒种", "Mangzhong"},
	{"夏至", "Xiazhi"},
	{"小暑", "Xiaoshu"},
	{"大暑", "Dashu"},
	{"立秋", "Liqiu"},
	{"处暑", "Chushu"},
	{"白露", "Bailu"},
	{"秋分", "Qiufen"},
	{"寒露", "Hanlu"},
	{"霜降", "Shuangjiang"},
	{"立冬", "Lidong"},
	{"小雪", "Xiaoxue"},
	{"大雪", "Daxue"},
	{"冬至", "Dongzhi"},
	{"小寒", "Xiaohan"},
	{"大寒", "Dahan"},
	{"立春", "Lichun"},
	{"雨水", "Yushui"},
	{"惊蛰", "Jingzhe"},
}

// TermName returns the catalog entry for a term index in 0..23.
func TermName(index int) (Term, error) {
	if index < 0 || index >= TermCount {
		return Term{}, fmt.Errorf("solar term index %d out of range", index)
	}
	return Term{
		Index:     index,
		Hanzi:     termNames[index][0],
		Pinyin:    termNames[index][1],
		Longitude: index * 15,
	}, nil
}
