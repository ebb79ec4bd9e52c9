package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Class 行分类器输出
type Class string

const (
	ClassHeader              Class = "header"
	ClassReview              Class = "review"
	ClassCommentOrDiscussion Class = "comment_or_discussion"
	ClassDiscussion          Class = "discussion"
	ClassEmpty               Class = "empty"
)

// Category 最终分桶，只由分配器赋值一次
type Category string

const (
	CategoryReview     Category = "review"
	CategoryTopComment Category = "topComment"
	CategoryDiscussion Category = "discussion"
)

// NoData 浏览量缺失时的占位文本
const NoData = "no data"

// Views 浏览量：0 是合法值，与“无数据”区分
type Views struct {
	Count int
	Known bool
}

// ViewsOf 构造已知浏览量
func ViewsOf(n int) Views {
	return Views{Count: n, Known: true}
}

// String 已知时返回数字，否则返回 "no data"
func (v Views) String() string {
	if !v.Known {
		return NoData
	}
	return strconv.Itoa(v.Count)
}

// MarshalJSON 数字或 "no data"
func (v Views) MarshalJSON() ([]byte, error) {
	if !v.Known {
		return json.Marshal(NoData)
	}
	return json.Marshal(v.Count)
}

// UnmarshalJSON 与 MarshalJSON 对称
func (v *Views) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*v = ViewsOf(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("views: %w", err)
	}
	if s != NoData {
		return fmt.Errorf("views: unexpected value %q", s)
	}
	*v = Views{}
	return nil
}

// Record 抽取后的一条提及
type Record struct {
	Platform     string   `json:"platform"`
	Theme        string   `json:"theme"`
	Text         string   `json:"text"`
	Link         string   `json:"link"`
	Date         string   `json:"date"` // dd.mm.yyyy 或空
	Author       string   `json:"author"`
	Views        Views    `json:"views"`
	Engagement   string   `json:"engagement"`
	PostType     string   `json:"post_type"`
	Placement    string   `json:"placement"`
	QualityScore int      `json:"quality_score"`
	Category     Category `json:"category,omitempty"`
	RowNo        int      `json:"row_no"` // 源表行号（1 起）
}

// WithCategory 返回带分桶的副本，原记录不变
func (r Record) WithCategory(c Category) Record {
	r.Category = c
	return r
}

// Statistics 由三个分桶派生的统计值
type Statistics struct {
	TotalRows             int `json:"totalRows"`
	ReviewsCount          int `json:"reviewsCount"`
	CommentsCount         int `json:"commentsCount"`
	DiscussionsCount      int `json:"discussionsCount"`
	TotalViews            int `json:"totalViews"`
	EngagementRate        int `json:"engagementRate"`        // %
	PlatformsWithDataRate int `json:"platformsWithDataRate"` // %
	QualityScore          int `json:"qualityScore"`
}

// ReportBundle 一次处理的完整结果
type ReportBundle struct {
	Reviews     []Record   `json:"reviews"`
	TopComments []Record   `json:"topComments"`
	Discussions []Record   `json:"discussions"`
	TotalViews  int        `json:"totalViews"`
	MonthName   string     `json:"monthName"`
	ProductName string     `json:"productName"`
	Statistics  Statistics `json:"statistics"`
}
