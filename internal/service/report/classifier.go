package report

import (
	"strings"

	"mentionreport/internal/model"
	"mentionreport/internal/parser"
)

// 弱兜底：没有任何其他信号时，正文超过该长度即视为评论/讨论
const fallbackTextRunes = 15

var (
	noiseKeywords = []string{"тип размещения", "площадка", "план", "итого"}

	reviewSectionKeywords  = []string{"отзыв"}
	commentSectionKeywords = []string{"комментарии", "обсуждени"}

	// 评价类平台（点评站、药店聚合、电商）
	reviewPlatforms = []string{
		"otzovik", "irecommend", "apteka.ru", "eapteka", "zdravcity", "uteka",
		"aptekamos", "protabletky", "market.yandex", "ozon.ru", "wildberries",
		"megapteka", "piluli", "rigla", "366.ru", "gorzdrav", "asna.ru",
	}
	// 评论类平台（社交网络、视频、论坛）
	commentPlatforms = []string{
		"vk.com", "youtube.com", "youtu.be", "ok.ru", "t.me", "telegram", "dzen.ru",
		"zen.yandex", "forum", "pikabu", "woman.ru", "baby.ru", "babyblog",
		"rutube", "otvet.mail.ru", "mail.ru", "livejournal", "drive2", "instagram",
	}
)

// rowSignals 分类用到的单元格（已规范化、小写）
type rowSignals struct {
	placement string
	postType  string
	platform  string
	link      string
	text      string
}

func readSignals(row model.RawRow, cols model.ColumnMap) rowSignals {
	lower := func(f model.Field) string {
		return strings.ToLower(parser.NormalizeText(cols.Cell(row, f)))
	}
	return rowSignals{
		placement: lower(model.FieldTypeOfPlacement),
		postType:  postTypeKey(parser.NormalizeText(cols.Cell(row, model.FieldPostType))),
		platform:  lower(model.FieldPlatform),
		link:      lower(model.FieldLink),
		text:      parser.NormalizeText(cols.Cell(row, model.FieldText)),
	}
}

// 手工录入时常把 "ОС"/"ЦС" 打成拉丁字母
var latinLookalikes = strings.NewReplacer("o", "о", "c", "с")

// postTypeKey 帖子类型标记的比较键：小写、去空白、拉丁形近字母转西里尔
func postTypeKey(v string) string {
	return latinLookalikes.Replace(strings.ToLower(strings.TrimSpace(v)))
}

// classRule 按顺序匹配，命中第一条即返回
type classRule struct {
	Name  string
	Match func(s rowSignals) bool
	Class model.Class
}

// Classifier 行分类器：无状态的有序规则表
type Classifier struct {
	rules []classRule
}

// NewClassifier 使用默认规则
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultClassRules()}
}

// Classify 返回行的分类，以及命中的规则名（floor / 规则名 / fallback）
func (c *Classifier) Classify(row model.RawRow, cols model.ColumnMap) (model.Class, string) {
	s := readSignals(row, cols)
	if s.text == "" && s.platform == "" {
		return model.ClassEmpty, "floor"
	}
	for _, rule := range c.rules {
		if rule.Match(s) {
			return rule.Class, rule.Name
		}
	}
	return model.ClassEmpty, "fallback"
}

func defaultClassRules() []classRule {
	postTypeIs := func(v string) func(rowSignals) bool {
		return func(s rowSignals) bool { return s.postType == v }
	}
	platformIn := func(list []string) func(rowSignals) bool {
		return func(s rowSignals) bool {
			return parser.ContainsAny(s.platform+" "+s.link, list)
		}
	}

	return []classRule{
		{
			Name:  "noise",
			Match: func(s rowSignals) bool { return parser.ContainsAny(s.placement, noiseKeywords) || parser.ContainsAny(s.platform, noiseKeywords) },
			Class: model.ClassHeader,
		},
		{Name: "post_type_os", Match: postTypeIs("ос"), Class: model.ClassReview},
		{Name: "post_type_cs", Match: postTypeIs("цс"), Class: model.ClassCommentOrDiscussion},
		{Name: "post_type_ps", Match: postTypeIs("пс"), Class: model.ClassDiscussion},
		{
			Name:  "section_review",
			Match: func(s rowSignals) bool { return parser.ContainsAny(s.placement, reviewSectionKeywords) },
			Class: model.ClassReview,
		},
		{
			Name:  "section_comment",
			Match: func(s rowSignals) bool { return parser.ContainsAny(s.placement, commentSectionKeywords) },
			Class: model.ClassCommentOrDiscussion,
		},
		{Name: "review_platform", Match: platformIn(reviewPlatforms), Class: model.ClassReview},
		{Name: "comment_platform", Match: platformIn(commentPlatforms), Class: model.ClassCommentOrDiscussion},
		{
			Name:  "long_text",
			Match: func(s rowSignals) bool { return parser.RuneLen(s.text) > fallbackTextRunes },
			Class: model.ClassCommentOrDiscussion,
		},
	}
}
