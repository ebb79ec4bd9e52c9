package report

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"

	"mentionreport/internal/exporter"
	"mentionreport/internal/model"
	"mentionreport/internal/parser"
)

var e2eHeader = []any{"Тип размещения", "Площадка", "Продукт", "Ссылка", "Текст сообщения", "", "Дата", "Ник", "Автор", "", "", "", "Вовлечение", "Тип поста"}

func e2eSheet(dataRows ...[]any) testSheet {
	rows := [][]any{
		{"Мониторинг упоминаний"},
		{"Продукт: Prod"},
		nil,
		e2eHeader,
	}
	return testSheet{name: "Данные", rows: append(rows, dataRows...)}
}

func TestPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, e2eSheet(
		[]any{"", "otzovik.com", "Prod", "http://x", "Прекрасный отзыв о препарате, рекомендую всем!", "", 45700, "user1", "", "", "", "", "", "ОС"},
	))

	res, err := NewPipeline(nil).Run(data, Options{FileName: "Отчет_март25.xlsx", ProductName: "Prod"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !res.Header.Found || res.Header.HeaderRowIndex != 3 {
		t.Fatalf("header=%+v", res.Header)
	}
	if len(res.Bundle.Reviews) != 1 || len(res.Bundle.TopComments) != 0 || len(res.Bundle.Discussions) != 0 {
		t.Fatalf("buckets: %d/%d/%d", len(res.Bundle.Reviews), len(res.Bundle.TopComments), len(res.Bundle.Discussions))
	}

	r := res.Bundle.Reviews[0]
	if r.Platform != "otzovik.com" || r.Date != "12.02.2025" || r.PostType != "ОС" || r.Author != "user1" {
		t.Fatalf("record=%+v", r)
	}
	if r.QualityScore != 90 || r.Category != model.CategoryReview {
		t.Fatalf("score=%d category=%s", r.QualityScore, r.Category)
	}
	if res.Statistics.ReviewsCount != 1 || res.Statistics.TotalRows != 1 {
		t.Fatalf("stats=%+v", res.Statistics)
	}
	if res.Bundle.MonthName != "Март 2025" {
		t.Fatalf("month=%q", res.Bundle.MonthName)
	}
	if len(res.Output) == 0 {
		t.Fatalf("empty output")
	}

	f, err := excelize.OpenReader(bytes.NewReader(res.Output))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(exporter.SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if rows[0][1] != "Prod" || rows[1][1] != "Март 2025" {
		t.Fatalf("metadata rows: %v / %v", rows[0], rows[1])
	}
	if rows[4][0] != exporter.SectionReviews || rows[5][1] != "otzovik.com" || rows[6][0] != exporter.SectionTopComments || rows[7][0] != exporter.SectionDiscussions {
		t.Fatalf("section layout: %v", rows[4:8])
	}
}

func TestPipeline_Idempotent(t *testing.T) {
	t.Parallel()

	var data [][]any
	for i := 0; i < 40; i++ {
		postType := "ЦС"
		if i%7 == 0 {
			postType = "ПС"
		}
		link := "https://vk.com/wall-1_" + fmt.Sprint(i)
		if i%3 == 0 {
			link = ""
		}
		data = append(data, []any{"", "vk.com", "Prod", link, fmt.Sprintf("Комментарий номер %d про препарат", i), "", 45700 + i%5, "", "", "", "", "", "есть", postType})
	}
	buf := buildWorkbook(t, e2eSheet(data...))

	p := NewPipeline(nil)
	first, err := p.Run(buf, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	second, err := p.Run(buf, Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if !reflect.DeepEqual(first.Bundle, second.Bundle) {
		t.Fatalf("bundles differ between runs")
	}
	if first.Statistics != second.Statistics {
		t.Fatalf("statistics differ: %+v vs %+v", first.Statistics, second.Statistics)
	}
	if got := len(first.Bundle.TopComments); got != DefaultMaxTopComments {
		t.Fatalf("top=%d, want %d", got, DefaultMaxTopComments)
	}
	if first.Statistics.CommentsCount+first.Statistics.DiscussionsCount != 40 {
		t.Fatalf("stats=%+v", first.Statistics)
	}
	// 没有文件名/Sheet 名提示时取记录日期中最常见的月份
	if first.Bundle.MonthName != "Февраль 2025" {
		t.Fatalf("month=%q", first.Bundle.MonthName)
	}
}

func TestPipeline_EmptyRows(t *testing.T) {
	t.Parallel()

	sheet := e2eSheet(nil, nil, nil)
	res, err := NewPipeline(nil).Process([]parser.Sheet{{Name: sheet.name, Rows: rawRows(sheet.rows)}}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Statistics != (model.Statistics{}) {
		t.Fatalf("stats=%+v, want zero", res.Statistics)
	}
	if res.Scan.EmptyRows != 3 || res.Scan.RowsScanned != 3 {
		t.Fatalf("scan=%+v", res.Scan)
	}
}

func TestPipeline_FixedLayoutWithoutHeader(t *testing.T) {
	t.Parallel()

	rows := []model.RawRow{
		{"Отчет"}, nil, nil, nil,
		rowOf(map[model.Field]any{model.FieldPlatform: "irecommend.ru", model.FieldText: "Отличное средство, помогло уже на второй день", model.FieldPostType: "ОС"}),
		rowOf(map[model.Field]any{model.FieldPlatform: "vk.com", model.FieldText: "Кто-нибудь пробовал этот препарат?"}),
		rowOf(map[model.Field]any{model.FieldTypeOfPlacement: "Итого", model.FieldText: "12"}),
	}
	res, err := NewPipeline(nil).Process([]parser.Sheet{{Name: "Лист1", Rows: rows}}, Options{Month: "октябрь"})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Header.Found || res.Scan.DataStartRow != 5 {
		t.Fatalf("header=%+v scan=%+v", res.Header, res.Scan)
	}
	if res.Statistics.ReviewsCount != 1 || res.Statistics.CommentsCount != 1 || res.Scan.HeaderRows != 1 {
		t.Fatalf("stats=%+v scan=%+v", res.Statistics, res.Scan)
	}
	if res.Bundle.MonthName != "Октябрь" {
		t.Fatalf("month=%q", res.Bundle.MonthName)
	}
}

func TestPipeline_InputErrors(t *testing.T) {
	t.Parallel()

	p := NewPipeline(nil)

	var inErr *InputError
	if _, err := p.Run([]byte("not a workbook"), Options{}); !errors.As(err, &inErr) {
		t.Fatalf("garbage input: err=%v, want InputError", err)
	}

	data := buildWorkbook(t, e2eSheet())
	_, err := p.Run(data, Options{SheetName: "Апрель"})
	if !errors.As(err, &inErr) || !errors.Is(err, parser.ErrSheetNotFound) {
		t.Fatalf("missing sheet: err=%v", err)
	}

	if _, err := p.Process(nil, Options{}); !errors.Is(err, parser.ErrNoSheets) {
		t.Fatalf("no sheets: err=%v", err)
	}

	if _, err := p.Run(data, Options{Month: "не месяц"}); !errors.As(err, &inErr) {
		t.Fatalf("bad month: err=%v", err)
	}
}

func TestPipeline_ProgressReachesDone(t *testing.T) {
	t.Parallel()

	data := buildWorkbook(t, e2eSheet())
	last := -1
	monotonic := true
	_, err := NewPipeline(nil).Run(data, Options{Progress: func(percent int, stage string) {
		if percent < last {
			monotonic = false
		}
		last = percent
	}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if last != 100 || !monotonic {
		t.Fatalf("last=%d monotonic=%v", last, monotonic)
	}
}

func rawRows(rows [][]any) []model.RawRow {
	out := make([]model.RawRow, len(rows))
	for i, r := range rows {
		out[i] = model.RawRow(r)
	}
	return out
}

func TestPipeline_HeaderlessSheetWithDateInText(t *testing.T) {
	t.Parallel()

	rows := []model.RawRow{
		{"Отчет"}, nil, nil, nil,
		rowOf(map[model.Field]any{model.FieldPlatform: "vk.com", model.FieldText: "Какая дата выхода нового препарата?", model.FieldPostType: "ЦС"}),
		rowOf(map[model.Field]any{model.FieldPlatform: "vk.com", model.FieldText: "Пользователи делятся опытом применения и сравнивают с аналогами", model.FieldPostType: "ЦС"}),
		rowOf(map[model.Field]any{model.FieldPlatform: "otzovik.com", model.FieldText: "Хороший препарат, помог уже на третий день приема", model.FieldPostType: "ОС"}),
	}
	res, err := NewPipeline(nil).Process([]parser.Sheet{{Name: "Лист1", Rows: rows}}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Header.Found {
		t.Fatalf("data row taken as header: %+v", res.Header)
	}
	if res.Statistics.ReviewsCount != 1 || res.Statistics.CommentsCount != 2 {
		t.Fatalf("stats=%+v scan=%+v", res.Statistics, res.Scan)
	}
	if res.Scan.Skipped != 0 || len(res.Warnings) != 0 {
		t.Fatalf("skipped=%d warnings=%v", res.Scan.Skipped, res.Warnings)
	}
}

func TestPipeline_ReportsSkippedRows(t *testing.T) {
	t.Parallel()

	rows := []model.RawRow{
		{"Отчет"}, nil, nil, nil,
		// 14 个字符，低于评价的最小长度
		rowOf(map[model.Field]any{model.FieldPlatform: "otzovik.com", model.FieldText: "Хорошо помогло", model.FieldPostType: "ОС"}),
	}
	res, err := NewPipeline(nil).Process([]parser.Sheet{{Name: "Лист1", Rows: rows}}, Options{})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if res.Scan.Skipped != 1 || res.Scan.SkipReasons["text too short"] != 1 {
		t.Fatalf("scan=%+v", res.Scan)
	}
	if res.Scan.Rules["post_type_os"] != 1 {
		t.Fatalf("rules=%v", res.Scan.Rules)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("warnings=%v", res.Warnings)
	}
	w := res.Warnings[0]
	if !w.Skipped || w.Row != 5 || w.Reason != "text too short" || w.Rule != "post_type_os" {
		t.Fatalf("warning=%+v", w)
	}
	if got, want := w.String(), "row 5 skipped: text too short (rule post_type_os)"; got != want {
		t.Fatalf("String()=%q, want %q", got, want)
	}
}
