package report

import (
	"regexp"
	"strings"

	"mentionreport/internal/model"
	"mentionreport/internal/parser"
)

const (
	themeMaxRunes = 50

	minReviewTextRunes  = 20
	minCommentTextRunes = 10

	minAuthorRunes = 3
	maxAuthorRunes = 49
)

var (
	themeLabelRe = regexp.MustCompile(`(?i)^\s*(название|тема)\s*:\s*`)

	// 形似网址：协议、www. 或常见域名后缀；作者校验与链接评分共用
	urlLikeRe = regexp.MustCompile(`(?i)(https?://|www\.|\.(ru|com|net|org|me|be|su|io|tv|info|рф)(?:[/?#:]|$))`)
)

// looksLikeLink 整个单元格是一个网址（不含空白），协议可省略
func looksLikeLink(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\n") && urlLikeRe.MatchString(s)
}

// DefaultViewsColumns 浏览量列的默认优先顺序
var DefaultViewsColumns = []model.Field{
	model.FieldViewsReceived,
	model.FieldViewsEnd,
	model.FieldViewsStart,
}

// Extractor 字段抽取器
type Extractor struct {
	viewsColumns []model.Field
}

// NewExtractor viewsColumns 为空时使用 DefaultViewsColumns
func NewExtractor(viewsColumns []model.Field) *Extractor {
	if len(viewsColumns) == 0 {
		viewsColumns = DefaultViewsColumns
	}
	return &Extractor{viewsColumns: append([]model.Field(nil), viewsColumns...)}
}

// Extract 从已分类的行抽取记录
//
// ok=false 表示该行被丢弃，reason 给出原因；warn 非空表示记录保留但某字段无法解析。
func (e *Extractor) Extract(row model.RawRow, cols model.ColumnMap, class model.Class, rowNo int) (rec model.Record, ok bool, reason, warn string) {
	text := parser.NormalizeText(cols.Cell(row, model.FieldText))
	platform := parser.NormalizeText(cols.Cell(row, model.FieldPlatform))
	if text == "" && platform == "" {
		return model.Record{}, false, "empty text and platform", ""
	}

	if need := minTextRunes(class); parser.RuneLen(text) < need {
		return model.Record{}, false, "text too short", ""
	}

	rec = model.Record{
		Platform:   platform,
		Theme:      Theme(text),
		Text:       text,
		Link:       parser.NormalizeText(cols.Cell(row, model.FieldLink)),
		Author:     e.author(row, cols),
		Views:      e.views(row, cols),
		Engagement: parser.NormalizeText(cols.Cell(row, model.FieldEngagement)),
		PostType:   parser.NormalizeText(cols.Cell(row, model.FieldPostType)),
		Placement:  parser.NormalizeText(cols.Cell(row, model.FieldTypeOfPlacement)),
		RowNo:      rowNo,
	}

	rawDate := cols.Cell(row, model.FieldDate)
	rec.Date = parser.NormalizeDate(rawDate)
	if rec.Date == "" && parser.NormalizeText(rawDate) != "" {
		warn = "unparseable date " + quote(parser.NormalizeText(rawDate))
	}

	rec.QualityScore = Score(rec)
	return rec, true, "", warn
}

func minTextRunes(class model.Class) int {
	if class == model.ClassReview {
		return minReviewTextRunes
	}
	return minCommentTextRunes
}

// author 依次尝试昵称列、作者列
func (e *Extractor) author(row model.RawRow, cols model.ColumnMap) string {
	for _, f := range []model.Field{model.FieldNickname, model.FieldAuthor} {
		if v := parser.NormalizeText(cols.Cell(row, f)); ValidAuthor(v) {
			return v
		}
	}
	return ""
}

// views 按优先顺序取第一个有效的浏览量；默认列被其他字段占用的候选跳过
func (e *Extractor) views(row model.RawRow, cols model.ColumnMap) model.Views {
	for _, f := range e.viewsColumns {
		if cols.Shadowed(f) {
			continue
		}
		if v := parser.NormalizeViews(cols.Cell(row, f)); v.Known {
			return v
		}
	}
	return model.Views{}
}

// ValidAuthor 排除列错位时混进来的链接、日期、纯数字
func ValidAuthor(v string) bool {
	n := parser.RuneLen(v)
	if n < minAuthorRunes || n > maxAuthorRunes {
		return false
	}
	if urlLikeRe.MatchString(v) {
		return false
	}
	return !parser.LooksLikeDate(v) && !parser.IsNumeric(v)
}

// Theme 由正文派生主题：去掉 "Название:"/"Тема:" 标签，截到第一个句末符号，最长 50 个字符
func Theme(text string) string {
	t := themeLabelRe.ReplaceAllString(text, "")
	if i := strings.IndexAny(t, ".!?\n"); i >= 0 {
		t = t[:i]
	}
	t = strings.TrimSpace(t)
	return parser.TruncateRunes(t, themeMaxRunes)
}

func quote(s string) string {
	return `"` + parser.TruncateRunes(s, 40) + `"`
}
