package parser

import (
	"strings"

	"mentionreport/internal/model"
)

const (
	// DefaultHeaderScanRows 在前 N 行中查找表头
	DefaultHeaderScanRows = 10
	// DefaultHeaderRow 未识别到表头时，视第 4 行（索引 3）为表头，数据从索引 4 开始
	DefaultHeaderRow = 3

	// 超过该长度的单元格视为正文，不参与表头判定
	maxHeaderCellRunes = 80
)

// headerKeywords 出现任一即认为该行是表头
var headerKeywords = []string{"площадка", "текст сообщения", "тип размещения", "дата"}

type columnRule struct {
	Field model.Field
	Match func(header string) bool
}

// HeaderResult 表头解析结果
type HeaderResult struct {
	HeaderRowIndex int             `json:"headerRowIndex"`
	DataStartRow   int             `json:"dataStartRow"`
	Found          bool            `json:"found"`
	Columns        model.ColumnMap `json:"-"`
}

// HeaderResolver 表头定位 + 列映射
type HeaderResolver struct {
	scanRows int
	rules    []columnRule
}

// NewHeaderResolver 创建解析器；scanRows <= 0 时使用默认值
func NewHeaderResolver(scanRows int) *HeaderResolver {
	if scanRows <= 0 {
		scanRows = DefaultHeaderScanRows
	}
	return &HeaderResolver{
		scanRows: scanRows,
		rules:    defaultColumnRules(),
	}
}

// Resolve 在前 scanRows 行中寻找表头；找不到时返回固定默认布局，从不失败
func (r *HeaderResolver) Resolve(rows []model.RawRow) HeaderResult {
	limit := r.scanRows
	if limit > len(rows) {
		limit = len(rows)
	}

	for i := 0; i < limit; i++ {
		headers := headerCells(rows[i])
		if !isHeaderRow(headers) {
			continue
		}
		cols := r.MapColumns(headers)
		// 数据行里偶然出现 "дата" 等词时，关键词会抢占正文列
		if !usableHeader(cols) {
			continue
		}
		return HeaderResult{
			HeaderRowIndex: i,
			DataStartRow:   i + 1,
			Found:          true,
			Columns:        cols,
		}
	}

	return HeaderResult{
		HeaderRowIndex: DefaultHeaderRow,
		DataStartRow:   DefaultHeaderRow + 1,
		Found:          false,
		Columns:        model.DefaultColumnMap(),
	}
}

// MapColumns 按关键词把表头单元格映射到语义字段
//
// 同一字段取最左侧匹配列；未识别的字段沿用默认索引（见 ColumnMap.Inferred）。
func (r *HeaderResolver) MapColumns(headers []string) model.ColumnMap {
	found := make(map[model.Field]int)

	for idx, h := range headers {
		if h == "" {
			continue
		}
		for _, rule := range r.rules {
			if _, done := found[rule.Field]; done {
				continue
			}
			if rule.Match(h) {
				found[rule.Field] = idx
				break
			}
		}
	}
	return model.NewColumnMap(found)
}

// usableHeader 正文列与平台列必须不同，且都未被其他字段占用
func usableHeader(cols model.ColumnMap) bool {
	if cols.Index(model.FieldText) == cols.Index(model.FieldPlatform) {
		return false
	}
	return !cols.Shadowed(model.FieldText) && !cols.Shadowed(model.FieldPlatform)
}

func headerCells(row model.RawRow) []string {
	out := make([]string, len(row))
	for i, c := range row {
		h := NormalizeColumnName(NormalizeText(c))
		if RuneLen(h) > maxHeaderCellRunes {
			h = ""
		}
		out[i] = h
	}
	return out
}

func isHeaderRow(headers []string) bool {
	joined := strings.Join(headers, " ")
	return ContainsAny(joined, headerKeywords)
}

func defaultColumnRules() []columnRule {
	contains := func(f model.Field, subs ...string) columnRule {
		return columnRule{
			Field: f,
			Match: func(h string) bool { return ContainsAny(h, subs) },
		}
	}
	containsAll := func(f model.Field, must string, anyOf ...string) columnRule {
		return columnRule{
			Field: f,
			Match: func(h string) bool {
				return strings.Contains(h, must) && (len(anyOf) == 0 || ContainsAny(h, anyOf))
			},
		}
	}

	// 顺序即优先级："тип поста" 必须先于 "тип размещения"，各类“просмотры”先具体后笼统
	return []columnRule{
		contains(model.FieldPostType, "тип поста", "тип сообщения", "ос/цс"),
		contains(model.FieldTypeOfPlacement, "тип размещения", "раздел"),
		contains(model.FieldPlatform, "площадка"),
		contains(model.FieldProduct, "продукт", "препарат"),
		contains(model.FieldLink, "ссылка", "url"),
		contains(model.FieldText, "текст"),
		contains(model.FieldCommentNotes, "комментарий", "примечани"),
		contains(model.FieldDate, "дата"),
		{
			Field: model.FieldNickname,
			Match: func(h string) bool {
				return h == "ник" || strings.HasPrefix(h, "ник ") || strings.Contains(h, "никнейм")
			},
		},
		contains(model.FieldAuthor, "автор"),
		containsAll(model.FieldViewsStart, "просмотр", "начал", "старт"),
		containsAll(model.FieldViewsEnd, "просмотр", "конец", "конц", "окончан"),
		containsAll(model.FieldViewsReceived, "просмотр"),
		contains(model.FieldEngagement, "вовлеч"),
	}
}
