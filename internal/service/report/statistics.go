package report

import (
	"math"
	"strings"

	"mentionreport/internal/model"
)

// 互动列中表示“有互动”的取值
var engagementMarks = map[string]struct{}{"есть": {}, "да": {}, "+": {}}

// Aggregate 由三个分桶计算统计值；计数一律等于分桶长度
func Aggregate(b Buckets) model.Statistics {
	stats := model.Statistics{
		ReviewsCount:     len(b.Reviews),
		CommentsCount:    len(b.TopComments),
		DiscussionsCount: len(b.Discussions),
	}
	stats.TotalRows = stats.ReviewsCount + stats.CommentsCount + stats.DiscussionsCount

	var withViews, scoreSum int
	for _, bucket := range [][]model.Record{b.Reviews, b.TopComments, b.Discussions} {
		for _, r := range bucket {
			if r.Views.Known {
				stats.TotalViews += r.Views.Count
				withViews++
			}
			scoreSum += r.QualityScore
		}
	}

	engaged := 0
	for _, bucket := range [][]model.Record{b.TopComments, b.Discussions} {
		for _, r := range bucket {
			if hasEngagement(r.Engagement) {
				engaged++
			}
		}
	}

	stats.EngagementRate = percent(engaged, stats.CommentsCount+stats.DiscussionsCount)
	stats.PlatformsWithDataRate = percent(withViews, stats.TotalRows)
	if stats.TotalRows > 0 {
		stats.QualityScore = int(math.Round(float64(scoreSum) / float64(stats.TotalRows)))
	}
	return stats
}

func hasEngagement(v string) bool {
	_, ok := engagementMarks[strings.ToLower(strings.TrimSpace(v))]
	return ok
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}
