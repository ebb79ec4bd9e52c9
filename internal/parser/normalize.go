package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"mentionreport/internal/model"
)

const (
	// 表格序列日期与 Unix 纪元（1970-01-01）相差的天数，已包含 1900 闰年问题的修正
	serialUnixEpoch = 25569
	// 视为序列日期的数值区间：2000-01-01 .. 2099-12-31
	serialMin = 36526
	serialMax = 73051

	maxViews = 10_000_000

	dateLayout = "02.01.2006"
)

var (
	dottedDateRe = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{2}|\d{4})(?:[ T].*)?$`)
	slashDateRe  = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})(?:[ T,].*)?$`)
	isoDateRe    = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:[ T].*)?$`)
	digitsRe     = regexp.MustCompile(`^\d+$`)
	numericRe    = regexp.MustCompile(`^[+-]?(\d+([.,]\d+)?|[.,]\d+)$`)

	// 自由文本日期（浏览器 toString / 英文导出格式）
	freeTextLayouts = []string{
		"Mon Jan 02 2006",
		"Mon Jan 2 2006",
		"Mon Jan 02 2006 15:04:05 GMT-0700",
		"Mon, 02 Jan 2006 15:04:05 MST",
		"Mon, 02 Jan 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"2 January 2006",
		"2 Jan 2006",
		time.RFC3339,
	}
)

// NormalizeText 单元格转为去首尾空白的字符串；nil 返回空串
func NormalizeText(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		s := strings.ReplaceAll(v, "\u00a0", " ")
		return strings.TrimSpace(norm.NFC.String(s))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(dateLayout)
	default:
		return ""
	}
}

// NormalizeDate 将多种日期表示统一为 dd.mm.yyyy；无法解析返回空串
//
// 优先级：序列日期数值 > time.Time > D.M.YYYY / 斜杠日期 > ISO > 自由文本
func NormalizeDate(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case float64:
		return serialToDate(v)
	case int:
		return serialToDate(float64(v))
	case int64:
		return serialToDate(float64(v))
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format(dateLayout)
	case string:
		return parseDateText(NormalizeText(v))
	default:
		return ""
	}
}

// NormalizeViews 浏览量：[0, 10 000 000) 内的整数，其余一律 “no data”
func NormalizeViews(cell any) model.Views {
	switch v := cell.(type) {
	case float64:
		return viewsFromFloat(v)
	case int:
		return viewsFromFloat(float64(v))
	case int64:
		return viewsFromFloat(float64(v))
	case string:
		s := NormalizeText(v)
		s = strings.NewReplacer(" ", "", "\u202f", "", "\u2009", "").Replace(s)
		if s == "" {
			return model.Views{}
		}
		if digitsRe.MatchString(s) {
			n, err := strconv.Atoi(s)
			if err != nil {
				return model.Views{}
			}
			return viewsFromFloat(float64(n))
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return model.Views{}
		}
		return viewsFromFloat(f)
	default:
		return model.Views{}
	}
}

// LooksLikeDate 文本本身是否是日期（用于识别错位列）
func LooksLikeDate(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	return dottedDateRe.MatchString(s) || slashDateRe.MatchString(s) || isoDateRe.MatchString(s)
}

// IsNumeric 文本是否为十进制数字（允许符号与小数点/逗号）；NaN、Inf 等不算
func IsNumeric(s string) bool {
	return numericRe.MatchString(strings.TrimSpace(s))
}

func viewsFromFloat(f float64) model.Views {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return model.Views{}
	}
	if f < 0 || f >= maxViews {
		return model.Views{}
	}
	return model.ViewsOf(int(f))
}

func serialToDate(serial float64) string {
	if math.IsNaN(serial) || serial < serialMin || serial >= serialMax {
		return ""
	}
	secs := math.Round((serial - serialUnixEpoch) * 86400)
	return time.Unix(int64(secs), 0).UTC().Format(dateLayout)
}

func parseDateText(s string) string {
	if s == "" {
		return ""
	}
	if IsNumeric(s) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err == nil {
			return serialToDate(f)
		}
	}

	if m := dottedDateRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		return formatDate(year, atoi(m[2]), atoi(m[1]))
	}
	if m := slashDateRe.FindStringSubmatch(s); m != nil {
		a, b := atoi(m[1]), atoi(m[2])
		// 第二段大于 12 只能是 M/D/YYYY，否则按 D/M/YYYY
		if b > 12 && a <= 12 {
			return formatDate(atoi(m[3]), a, b)
		}
		return formatDate(atoi(m[3]), b, a)
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	for _, layout := range freeTextLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	// "Fri Mar 07 2025 00:00:00 GMT+0300 (Moscow Standard Time)" 之类：只取前四段
	if fields := strings.Fields(s); len(fields) >= 4 {
		if t, err := time.Parse("Mon Jan 2 2006", strings.Join(fields[:4], " ")); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}

func formatDate(year, month, day int) string {
	if year < 1900 || month < 1 || month > 12 || day < 1 || day > 31 {
		return ""
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// 拒绝 31.02 这类被 time.Date 自动进位的日期
	if t.Day() != day || int(t.Month()) != month {
		return ""
	}
	return t.Format(dateLayout)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
