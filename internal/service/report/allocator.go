package report

import (
	"sort"

	"mentionreport/internal/model"
)

// DefaultMaxTopComments 默认 ТОП 评论容量
const DefaultMaxTopComments = 20

// AllocatorConfig 分桶容量
type AllocatorConfig struct {
	MaxTopComments int // ТОП 评论上限
	MaxReviews     int // 0 表示不限
}

// DefaultAllocatorConfig 评价不限量，ТОП 评论 20 条
func DefaultAllocatorConfig() AllocatorConfig {
	return AllocatorConfig{MaxTopComments: DefaultMaxTopComments}
}

// Classified 分类器输出 + 抽取出的记录
type Classified struct {
	Class  model.Class
	Record model.Record
}

// Buckets 三个互不相交的最终分桶
type Buckets struct {
	Reviews     []model.Record
	TopComments []model.Record
	Discussions []model.Record
}

// Allocate 按质量分排序并切分
//
// comment_or_discussion 按分数取前 MaxTopComments 条进入 ТОП，其余与直接讨论（ПС）一起进入讨论桶。
// 分数相同保持源表顺序。
func Allocate(items []Classified, cfg AllocatorConfig) Buckets {
	maxTop := cfg.MaxTopComments
	if maxTop < 0 {
		maxTop = 0
	}

	var reviews, direct, commentOrDiscussion []model.Record
	for _, it := range items {
		switch it.Class {
		case model.ClassReview:
			reviews = append(reviews, it.Record)
		case model.ClassDiscussion:
			direct = append(direct, it.Record)
		case model.ClassCommentOrDiscussion:
			commentOrDiscussion = append(commentOrDiscussion, it.Record)
		}
	}

	rankByScore(reviews)
	rankByScore(direct)
	rankByScore(commentOrDiscussion)

	if cfg.MaxReviews > 0 && len(reviews) > cfg.MaxReviews {
		reviews = reviews[:cfg.MaxReviews]
	}

	cut := maxTop
	if cut > len(commentOrDiscussion) {
		cut = len(commentOrDiscussion)
	}

	out := Buckets{
		Reviews:     make([]model.Record, 0, len(reviews)),
		TopComments: make([]model.Record, 0, cut),
		Discussions: make([]model.Record, 0, len(direct)+len(commentOrDiscussion)-cut),
	}
	for _, r := range reviews {
		out.Reviews = append(out.Reviews, r.WithCategory(model.CategoryReview))
	}
	for _, r := range commentOrDiscussion[:cut] {
		out.TopComments = append(out.TopComments, r.WithCategory(model.CategoryTopComment))
	}
	for _, r := range direct {
		out.Discussions = append(out.Discussions, r.WithCategory(model.CategoryDiscussion))
	}
	for _, r := range commentOrDiscussion[cut:] {
		out.Discussions = append(out.Discussions, r.WithCategory(model.CategoryDiscussion))
	}
	return out
}

func rankByScore(records []model.Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].QualityScore > records[j].QualityScore
	})
}
