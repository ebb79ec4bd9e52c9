package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// monthTokens 月份关键词（小写），按词边界匹配
var monthTokens = [12][]string{
	{"январь", "января", "янв"},
	{"февраль", "февраля", "фев"},
	{"март", "марта", "мар"},
	{"апрель", "апреля", "апр"},
	{"май", "мая"},
	{"июнь", "июня", "июн"},
	{"июль", "июля", "июл"},
	{"август", "августа", "авг"},
	{"сентябрь", "сентября", "сен"},
	{"октябрь", "октября", "окт"},
	{"ноябрь", "ноября", "ноя"},
	{"декабрь", "декабря", "дек"},
}

var monthTitles = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// 月份词后可跟 2 或 4 位年份，如 "март25"、"Март 2025"
var monthYearSuffixRe = regexp.MustCompile(`^[\s_\-.]*(\d{4}|\d{2})(?:\D|$)`)

// MonthRef 识别出的月份（Year 为 0 表示未知）
type MonthRef struct {
	Month int
	Year  int
}

// Valid 是否识别到月份
func (m MonthRef) Valid() bool {
	return m.Month >= 1 && m.Month <= 12
}

// Title 报表期间名称，如 "Март 2025"
func (m MonthRef) Title() string {
	if !m.Valid() {
		return ""
	}
	if m.Year > 0 {
		return monthTitles[m.Month-1] + " " + strconv.Itoa(m.Year)
	}
	return monthTitles[m.Month-1]
}

// DetectMonth 从文件名/Sheet 名中识别俄文月份；多个月份时取最靠前的
func DetectMonth(text string) MonthRef {
	lower := strings.ToLower(NormalizeText(text))
	if lower == "" {
		return MonthRef{}
	}

	best := MonthRef{}
	bestPos := -1
	for i, tokens := range monthTokens {
		for _, tok := range tokens {
			pos := indexWord(lower, tok)
			if pos < 0 {
				continue
			}
			if bestPos < 0 || pos < bestPos {
				bestPos = pos
				best = MonthRef{Month: i + 1, Year: yearAfter(lower[pos+len(tok):])}
			}
			break
		}
	}
	return best
}

// indexWord 查找前后都不是西里尔字母的 tok
func indexWord(s, tok string) int {
	offset := 0
	for {
		pos := strings.Index(s[offset:], tok)
		if pos < 0 {
			return -1
		}
		pos += offset
		end := pos + len(tok)
		prevOK := pos == 0 || !isCyrillic(lastRune(s[:pos]))
		nextOK := end == len(s) || !isCyrillic(firstRune(s[end:]))
		if prevOK && nextOK {
			return pos
		}
		offset = end
	}
}

func isCyrillic(r rune) bool {
	return r >= 'а' && r <= 'я' || r == 'ё' || r >= 'А' && r <= 'Я' || r == 'Ё'
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}

// MonthTokens 返回某月份的全部关键词
func MonthTokens(month int) []string {
	if month < 1 || month > 12 {
		return nil
	}
	return monthTokens[month-1][:]
}

// MatchesMonth 文本是否包含指定月份的关键词
func MatchesMonth(text string, month int) bool {
	lower := strings.ToLower(NormalizeText(text))
	for _, tok := range MonthTokens(month) {
		if indexWord(lower, tok) >= 0 {
			return true
		}
	}
	return false
}

func yearAfter(rest string) int {
	m := monthYearSuffixRe.FindStringSubmatch(rest)
	if m == nil {
		return 0
	}
	y, _ := strconv.Atoi(m[1])
	if len(m[1]) == 2 {
		y += 2000
	}
	if y < 2000 || y > 2099 {
		return 0
	}
	return y
}
