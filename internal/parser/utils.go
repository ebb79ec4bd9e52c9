package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// NormalizeColumnName 规范化表头：小写、压缩空白、ё -> е
func NormalizeColumnName(name string) string {
	name = strings.ToLower(NormalizeText(name))
	name = strings.ReplaceAll(name, "ё", "е")
	name = whitespaceRe.ReplaceAllString(name, " ")
	return strings.TrimSpace(name)
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// RuneLen 按字符（而非字节）计算长度
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// TruncateRunes 超过 n 个字符时截断并追加省略号
func TruncateRunes(s string, n int) string {
	if n <= 0 || RuneLen(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n])) + "..."
}

// RowIsBlank 一行是否全部为空
func RowIsBlank(row []any) bool {
	for _, c := range row {
		if NormalizeText(c) != "" {
			return false
		}
	}
	return true
}
