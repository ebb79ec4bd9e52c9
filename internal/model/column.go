package model

// Field 语义字段名（表头解析后的列含义）
type Field string

const (
	FieldTypeOfPlacement Field = "type_of_placement" // 类型列：Тип размещения
	FieldPlatform        Field = "platform"
	FieldProduct         Field = "product"
	FieldLink            Field = "link"
	FieldText            Field = "text"
	FieldCommentNotes    Field = "comment_notes"
	FieldDate            Field = "date"
	FieldNickname        Field = "nickname"
	FieldAuthor          Field = "author"
	FieldViewsStart      Field = "views_start"
	FieldViewsEnd        Field = "views_end"
	FieldViewsReceived   Field = "views_received"
	FieldEngagement      Field = "engagement"
	FieldPostType        Field = "post_type"
)

// Unmapped 未知字段名的索引；读取时视为空单元格
const Unmapped = -1

// AllFields 全部语义字段（顺序即默认布局顺序）
var AllFields = []Field{
	FieldTypeOfPlacement,
	FieldPlatform,
	FieldProduct,
	FieldLink,
	FieldText,
	FieldCommentNotes,
	FieldDate,
	FieldNickname,
	FieldAuthor,
	FieldViewsStart,
	FieldViewsEnd,
	FieldViewsReceived,
	FieldEngagement,
	FieldPostType,
}

// ColumnMap 语义字段 -> 列索引（从 0 开始）。构建后只读。
//
// 每个字段总有索引；inferred 记录沿用默认布局（而非由表头识别）的字段。
type ColumnMap struct {
	index    map[Field]int
	inferred map[Field]bool
}

// DefaultColumnMap 大多数输入文件没有可识别表头，此时使用固定布局
func DefaultColumnMap() ColumnMap {
	return ColumnMap{index: map[Field]int{
		FieldTypeOfPlacement: 0,
		FieldPlatform:        1,
		FieldProduct:         2,
		FieldLink:            3,
		FieldText:            4,
		FieldCommentNotes:    5,
		FieldDate:            6,
		FieldNickname:        7,
		FieldAuthor:          8,
		FieldViewsStart:      10,
		FieldViewsEnd:        11,
		FieldViewsReceived:   12,
		FieldEngagement:      13,
		FieldPostType:        14,
	}}
}

// NewColumnMap 以 index 覆盖默认布局；未给出的字段保持默认索引并记为推断
func NewColumnMap(index map[Field]int) ColumnMap {
	m := DefaultColumnMap()
	m.inferred = make(map[Field]bool, len(AllFields))
	for _, f := range AllFields {
		if _, ok := index[f]; !ok {
			m.inferred[f] = true
		}
	}
	for f, i := range index {
		m.index[f] = i
	}
	return m
}

// Inferred 字段索引是否来自默认布局
func (m ColumnMap) Inferred(f Field) bool {
	if m.inferred == nil {
		return true
	}
	return m.inferred[f]
}

// Shadowed 推断出的默认列已被表头识别出的其他字段占用
func (m ColumnMap) Shadowed(f Field) bool {
	if !m.Inferred(f) {
		return false
	}
	i := m.Index(f)
	for _, g := range AllFields {
		if g != f && !m.Inferred(g) && m.Index(g) == i {
			return true
		}
	}
	return false
}

// Index 返回字段所在列；只有未知字段名返回 Unmapped
func (m ColumnMap) Index(f Field) int {
	if m.index == nil {
		return DefaultColumnMap().index[f]
	}
	i, ok := m.index[f]
	if !ok {
		return Unmapped
	}
	return i
}

// Cell 按语义字段读取一行中的原始单元格；越界返回 nil
func (m ColumnMap) Cell(row RawRow, f Field) any {
	i := m.Index(f)
	if i < 0 || i >= len(row) {
		return nil
	}
	return row[i]
}

// Snapshot 返回映射副本（用于日志/接口展示）
func (m ColumnMap) Snapshot() map[Field]int {
	out := make(map[Field]int, len(AllFields))
	for _, f := range AllFields {
		out[f] = m.Index(f)
	}
	return out
}

// RawRow 从工作表读出的一行原始值：nil / string / float64 / int / time.Time
type RawRow []any
