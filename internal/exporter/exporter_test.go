package exporter

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"mentionreport/internal/model"
)

func sampleBundle() *model.ReportBundle {
	return &model.ReportBundle{
		Reviews: []model.Record{
			{Platform: "otzovik.com", Theme: "Хороший препарат", Text: "Хороший препарат, помог быстро.", Link: "https://otzovik.com/1", Date: "12.02.2025", Author: "user1", Views: model.ViewsOf(0), PostType: "ОС"},
		},
		TopComments: []model.Record{
			{Platform: "vk.com", Text: "Комментарий", Views: model.Views{}, Engagement: "есть"},
			{Platform: "t.me", Text: "Еще один", Views: model.ViewsOf(150)},
		},
		TotalViews:  150,
		MonthName:   "Февраль 2025",
		ProductName: "Prod",
		Statistics: model.Statistics{
			TotalRows: 3, ReviewsCount: 1, CommentsCount: 2, DiscussionsCount: 0,
			TotalViews: 150, EngagementRate: 50, PlatformsWithDataRate: 67, QualityScore: 80,
		},
	}
}

func readRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	return rows
}

func cell(rows [][]string, r, c int) string {
	if r >= len(rows) || c >= len(rows[r]) {
		return ""
	}
	return rows[r][c]
}

func TestExportBytes_Layout(t *testing.T) {
	data, err := NewExporter().ExportBytes(sampleBundle(), ExportOptions{})
	if err != nil {
		t.Fatalf("ExportBytes: %v", err)
	}
	rows := readRows(t, data)

	if cell(rows, 0, 1) != "Prod" || cell(rows, 1, 1) != "Февраль 2025" {
		t.Fatalf("title rows: %v / %v", rows[0], rows[1])
	}
	if got := cell(rows, HeaderRow-1, 1); got != "Площадка" {
		t.Fatalf("header col B=%q", got)
	}
	if got := cell(rows, HeaderRow-1, summaryStartCol); got != "1" {
		t.Fatalf("reviews count in header=%q", got)
	}

	// 分节顺序：Отзывы, 1 条，Комментарии в ТОП, 2 条，Активные обсуждения，0 条
	want := []struct {
		row  int
		col  int
		text string
	}{
		{4, 0, SectionReviews},
		{5, 1, "otzovik.com"},
		{5, 7, "0"},
		{6, 0, SectionTopComments},
		{7, 7, model.NoData},
		{8, 7, "150"},
		{9, 0, SectionDiscussions},
		{11, 0, StatisticsTitle},
		{12, 1, "150"},
	}
	for _, w := range want {
		if got := cell(rows, w.row, w.col); got != w.text {
			t.Fatalf("row %d col %d=%q, want %q", w.row+1, w.col+1, got, w.text)
		}
	}
}

func TestExport_ProgressMonotonic(t *testing.T) {
	var events []ProgressEvent
	f, err := NewExporter().Export(sampleBundle(), ExportOptions{
		Progress: func(ev ProgressEvent) { events = append(events, ev) },
	})
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	defer func() { _ = f.Close() }()

	if len(events) == 0 || events[len(events)-1].Percent != 100 {
		t.Fatalf("events=%v", events)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Percent < events[i-1].Percent {
			t.Fatalf("progress went backwards: %v", events)
		}
	}
	if got := events[len(events)-1].Rows; got != 3 {
		t.Fatalf("rows written=%d, want 3", got)
	}
}

func TestExport_NilBundle(t *testing.T) {
	if _, err := NewExporter().Export(nil, ExportOptions{}); err == nil {
		t.Fatal("expected error for nil bundle")
	}
}

func TestProgressReporter_Clamps(t *testing.T) {
	var got []int
	p := newProgressReporter(func(ev ProgressEvent) { got = append(got, ev.Percent) })
	p.report(-5, "a")
	p.report(50, "b")
	p.report(40, "c")
	p.report(150, "d")

	want := []int{0, 50, 100}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
