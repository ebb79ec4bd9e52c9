package report

import (
	"strings"

	"mentionreport/internal/model"
	"mentionreport/internal/parser"
)

type deduction struct {
	points int
	hit    func(r model.Record) bool
}

// 扣分表；分数只取决于记录本身，保证重复处理结果一致
var deductions = []deduction{
	{30, func(r model.Record) bool { return parser.RuneLen(r.Text) < 20 }},
	{25, func(r model.Record) bool { return !looksLikeLink(r.Link) }},
	{20, func(r model.Record) bool { return r.Date == "" }},
	{15, func(r model.Record) bool { return r.Author == "" }},
	{10, func(r model.Record) bool {
		k := postTypeKey(r.PostType)
		return k != "ос" && k != "цс"
	}},
	{10, func(r model.Record) bool { return parser.RuneLen(r.Text) < 50 }},
	{50, func(r model.Record) bool {
		l := strings.ToLower(r.Link)
		return strings.Contains(l, "deleted") || strings.Contains(l, "removed")
	}},
}

// Score 0..100 的完整度评分，用于容量受限分桶内的排序
func Score(r model.Record) int {
	score := 100
	for _, d := range deductions {
		if d.hit(r) {
			score -= d.points
		}
	}
	if score < 0 {
		return 0
	}
	return score
}
