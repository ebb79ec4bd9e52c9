package exporter

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"mentionreport/internal/model"
)

// 输出表的固定文字；下游工具依赖行顺序与分节标题
const (
	SheetName = "Отчет"

	SectionReviews     = "Отзывы"
	SectionTopComments = "Комментарии в ТОП"
	SectionDiscussions = "Активные обсуждения (мониторинг)"
	StatisticsTitle    = "Статистика"

	// 数据表头所在行（1 起）
	HeaderRow = 4
)

var columnHeaders = []string{
	"№", "Площадка", "Тема", "Текст сообщения", "Ссылка", "Дата", "Автор", "Просмотры", "Вовлечение", "Тип поста",
}

// 表头行右侧的汇总计数从 L 列开始（与数据列之间空一列）
const summaryStartCol = 12

var footnotes = []string{
	"* Просмотры учитываются только там, где площадка отдает статистику; «no data» означает, что данных нет.",
	"* Вовлеченность считается по комментариям в ТОП и активным обсуждениям.",
	"* Оценка качества: 0–100, учитывает полноту текста, ссылки, даты, автора и типа поста.",
}

// Exporter 报告工作簿渲染器
type Exporter struct{}

// NewExporter 创建渲染器
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Progress func(ProgressEvent)
}

// Export 把分桶与统计渲染成固定版式的工作簿
//
// 第 1-3 行：产品、期间、计划行；第 4 行：列头 + 右侧汇总；
// 随后依次是三个分节（标题行 + 每条记录一行），最后是统计块与脚注。
func (e *Exporter) Export(b *model.ReportBundle, opts ExportOptions) (*excelize.File, error) {
	if b == nil {
		return nil, fmt.Errorf("report bundle is nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	w := &sheetWriter{f: f, sheet: SheetName}
	styles, err := newStyles(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	progress := newProgressReporter(opts.Progress)
	progress.report(5, "header")
	w.row(1, "Продукт:", b.ProductName)
	w.row(2, "Период:", b.MonthName)
	w.row(3, "План:", planLine(b.Statistics))

	header := make([]any, 0, summaryStartCol+6)
	for _, h := range columnHeaders {
		header = append(header, h)
	}
	for len(header) < summaryStartCol-1 {
		header = append(header, nil)
	}
	header = append(header,
		"Отзывов", b.Statistics.ReviewsCount,
		"Комментариев", b.Statistics.CommentsCount,
		"Обсуждений", b.Statistics.DiscussionsCount,
	)
	w.row(HeaderRow, header...)
	w.style(HeaderRow, len(header), styles.header)

	next := HeaderRow + 1
	sections := []struct {
		title   string
		records []model.Record
		percent int
	}{
		{SectionReviews, b.Reviews, 30},
		{SectionTopComments, b.TopComments, 55},
		{SectionDiscussions, b.Discussions, 80},
	}
	for _, s := range sections {
		w.row(next, s.title)
		w.style(next, len(columnHeaders), styles.section)
		next++
		for i, r := range s.records {
			w.row(next, recordCells(i+1, r)...)
			next++
		}
		progress.wrote(len(s.records))
		progress.report(s.percent, s.title)
	}

	next++
	w.row(next, StatisticsTitle)
	w.style(next, 2, styles.section)
	next++
	st := b.Statistics
	statRows := [][]any{
		{"Суммарные просмотры", b.TotalViews},
		{"Количество отзывов", st.ReviewsCount},
		{"Количество комментариев в ТОП", st.CommentsCount},
		{"Количество активных обсуждений", st.DiscussionsCount},
		{"Всего записей", st.TotalRows},
		{"Вовлеченность, %", st.EngagementRate},
		{"Площадки с данными о просмотрах, %", st.PlatformsWithDataRate},
		{"Оценка качества обработки", st.QualityScore},
	}
	for _, r := range statRows {
		w.row(next, r...)
		next++
	}
	next++
	for _, note := range footnotes {
		w.row(next, note)
		next++
	}
	if w.err != nil {
		_ = f.Close()
		return nil, w.err
	}

	_ = f.SetColWidth(SheetName, "A", "A", 6)
	_ = f.SetColWidth(SheetName, "B", "B", 22)
	_ = f.SetColWidth(SheetName, "C", "C", 40)
	_ = f.SetColWidth(SheetName, "D", "D", 80)
	_ = f.SetColWidth(SheetName, "E", "E", 35)
	_ = f.SetColWidth(SheetName, "F", "J", 14)

	progress.report(100, "done")
	return f, nil
}

// ExportBytes Export 后序列化为 xlsx 字节
func (e *Exporter) ExportBytes(b *model.ReportBundle, opts ExportOptions) ([]byte, error) {
	f, err := e.Export(b, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return bytes.Clone(buf.Bytes()), nil
}

func planLine(s model.Statistics) string {
	return fmt.Sprintf("Отзывы: %d, Комментарии в ТОП: %d, Активные обсуждения: %d",
		s.ReviewsCount, s.CommentsCount, s.DiscussionsCount)
}

func recordCells(n int, r model.Record) []any {
	var views any = model.NoData
	if r.Views.Known {
		views = r.Views.Count
	}
	return []any{n, r.Platform, r.Theme, r.Text, r.Link, r.Date, r.Author, views, r.Engagement, r.PostType}
}

type reportStyles struct {
	header  int
	section int
}

func newStyles(f *excelize.File) (reportStyles, error) {
	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
	})
	if err != nil {
		return reportStyles{}, fmt.Errorf("create header style: %w", err)
	}
	section, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FEF3C7"}, Pattern: 1},
	})
	if err != nil {
		return reportStyles{}, fmt.Errorf("create section style: %w", err)
	}
	return reportStyles{header: header, section: section}, nil
}

// sheetWriter 记录第一个写入错误，避免每行判断
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func (w *sheetWriter) row(n int, cells ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.sheet, cell, &cells); err != nil {
		w.err = fmt.Errorf("write row %d: %w", n, err)
	}
}

func (w *sheetWriter) style(n, cols, style int) {
	if w.err != nil || cols <= 0 {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, n)
	to, _ := excelize.CoordinatesToCellName(cols, n)
	if err := w.f.SetCellStyle(w.sheet, from, to, style); err != nil {
		w.err = fmt.Errorf("style row %d: %w", n, err)
	}
}
