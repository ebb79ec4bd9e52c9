package report

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"mentionreport/internal/exporter"
	"mentionreport/internal/model"
	"mentionreport/internal/parser"
)

// Options 一次处理的输入提示与配置
type Options struct {
	FileName       string // 原始文件名，用于识别月份
	SheetName      string // 显式指定 Sheet
	Month          string // 显式月份，如 "март25"
	ProductName    string
	Allocator      *AllocatorConfig // nil 时使用 DefaultAllocatorConfig
	ViewsColumns   []model.Field
	HeaderScanRows int

	// Progress 进度回调（百分比 0-100）
	Progress func(percent int, stage string)
}

// ScanSummary 逐行扫描的计数；与最终分桶长度比较即可发现容量截断
type ScanSummary struct {
	DataStartRow int                 `json:"dataStartRow"` // 1 起
	RowsScanned  int                 `json:"rowsScanned"`
	HeaderRows   int                 `json:"headerRows"`
	EmptyRows    int                 `json:"emptyRows"`
	Skipped      int                 `json:"skipped"`
	Classified   map[model.Class]int `json:"classified"`
	Rules        map[string]int      `json:"rules"`       // 分类规则命中次数
	SkipReasons  map[string]int      `json:"skipReasons"` // 丢弃原因计数
}

// Result 一次处理的结果
type Result struct {
	Bundle     model.ReportBundle  `json:"bundle"`
	Statistics model.Statistics    `json:"statistics"`
	SheetName  string              `json:"sheetName"`
	Header     parser.HeaderResult `json:"header"`
	Scan       ScanSummary         `json:"scan"`
	Warnings   []ExtractionWarning `json:"warnings,omitempty"`
	Output     []byte              `json:"-"`
}

// Pipeline 行分类与报告汇总流水线。无共享可变状态，可并发调用。
type Pipeline struct {
	logger     *zap.Logger
	classifier *Classifier
	exporter   *exporter.Exporter
}

// NewPipeline logger 为 nil 时不输出日志
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		logger:     logger,
		classifier: NewClassifier(),
		exporter:   exporter.NewExporter(),
	}
}

// Run 读取工作簿字节，处理并渲染报告
func (p *Pipeline) Run(data []byte, opts Options) (*Result, error) {
	progress(opts, 0, "read")
	sheets, err := ReadWorkbook(data)
	if err != nil {
		return nil, err
	}

	res, err := p.Process(sheets, opts)
	if err != nil {
		return nil, err
	}

	out, err := p.exporter.ExportBytes(&res.Bundle, exporter.ExportOptions{
		Progress: func(ev exporter.ProgressEvent) {
			// 渲染占总进度的最后 20%
			progress(opts, 80+ev.Percent/5, ev.Stage)
		},
	})
	if err != nil {
		return nil, &OutputError{Op: "render report", Err: err}
	}
	res.Output = out
	return res, nil
}

// Process 不含读写的核心处理：选 Sheet → 表头 → 逐行分类/抽取 → 分桶 → 统计
func (p *Pipeline) Process(sheets []parser.Sheet, opts Options) (*Result, error) {
	hint, err := monthHint(opts)
	if err != nil {
		return nil, err
	}

	located, err := parser.LocateSheet(sheets, parser.LocateOptions{SheetName: opts.SheetName, Month: hint})
	if err != nil {
		return nil, &InputError{Op: "locate sheet", Err: err}
	}
	sheet := located.Sheet
	log := p.logger.With(zap.String("sheet", sheet.Name))
	log.Info("sheet selected", zap.String("reason", located.Reason), zap.Int("rows", len(sheet.Rows)))
	progress(opts, 10, "locate")

	header := parser.NewHeaderResolver(opts.HeaderScanRows).Resolve(sheet.Rows)
	log.Info("header resolved",
		zap.Bool("found", header.Found),
		zap.Int("header_row", header.HeaderRowIndex+1),
		zap.Any("columns", header.Columns.Snapshot()),
	)
	progress(opts, 15, "header")

	extractor := NewExtractor(opts.ViewsColumns)
	scan := ScanSummary{
		DataStartRow: header.DataStartRow + 1,
		Classified:   make(map[model.Class]int),
		Rules:        make(map[string]int),
		SkipReasons:  make(map[string]int),
	}
	var (
		items    []Classified
		warnings []ExtractionWarning
	)

	total := len(sheet.Rows) - header.DataStartRow
	for i := header.DataStartRow; i < len(sheet.Rows); i++ {
		rowNo := i + 1
		scan.RowsScanned++

		item, keep, warn := p.processRow(sheet.Rows[i], header.Columns, extractor, rowNo, &scan)
		if warn != nil {
			warnings = append(warnings, *warn)
			log.Warn("row extraction warning",
				zap.Int("row", warn.Row),
				zap.String("reason", warn.Reason),
				zap.String("rule", warn.Rule),
				zap.Bool("skipped", warn.Skipped),
			)
		}
		if keep {
			items = append(items, item)
		}

		if total > 0 && scan.RowsScanned%200 == 0 {
			progress(opts, 15+60*scan.RowsScanned/total, "rows")
		}
	}
	progress(opts, 75, "rows")

	alloc := DefaultAllocatorConfig()
	if opts.Allocator != nil {
		alloc = *opts.Allocator
	}
	buckets := Allocate(items, alloc)
	stats := Aggregate(buckets)

	bundle := model.ReportBundle{
		Reviews:     buckets.Reviews,
		TopComments: buckets.TopComments,
		Discussions: buckets.Discussions,
		TotalViews:  stats.TotalViews,
		MonthName:   reportMonth(hint, sheet.Name, items).Title(),
		ProductName: strings.TrimSpace(opts.ProductName),
		Statistics:  stats,
	}

	log.Info("report assembled",
		zap.Int("reviews", stats.ReviewsCount),
		zap.Int("top_comments", stats.CommentsCount),
		zap.Int("discussions", stats.DiscussionsCount),
		zap.Int("skipped", scan.Skipped),
		zap.Int("warnings", len(warnings)),
	)
	progress(opts, 80, "allocate")

	return &Result{
		Bundle:     bundle,
		Statistics: stats,
		SheetName:  sheet.Name,
		Header:     header,
		Scan:       scan,
		Warnings:   warnings,
	}, nil
}

// processRow 单行处理；任何 panic 都降级为该行的警告
func (p *Pipeline) processRow(row model.RawRow, cols model.ColumnMap, ex *Extractor, rowNo int, scan *ScanSummary) (item Classified, keep bool, warn *ExtractionWarning) {
	defer func() {
		if r := recover(); r != nil {
			scan.Skipped++
			scan.SkipReasons["panic"]++
			item, keep = Classified{}, false
			warn = &ExtractionWarning{Row: rowNo, Reason: fmt.Sprintf("panic: %v", r), Skipped: true}
		}
	}()

	if parser.RowIsBlank(row) {
		scan.EmptyRows++
		return Classified{}, false, nil
	}

	class, rule := p.classifier.Classify(row, cols)
	scan.Classified[class]++
	scan.Rules[rule]++
	switch class {
	case model.ClassHeader:
		scan.HeaderRows++
		return Classified{}, false, nil
	case model.ClassEmpty:
		scan.EmptyRows++
		return Classified{}, false, nil
	}

	rec, ok, reason, w := ex.Extract(row, cols, class, rowNo)
	if !ok {
		scan.Skipped++
		scan.SkipReasons[reason]++
		return Classified{}, false, &ExtractionWarning{Row: rowNo, Reason: reason, Rule: rule, Skipped: true}
	}
	if w != "" {
		warn = &ExtractionWarning{Row: rowNo, Reason: w, Rule: rule}
	}
	return Classified{Class: class, Record: rec}, true, warn
}

var errUnknownMonth = errors.New("unrecognized month")

// monthHint 显式月份优先，其次文件名
func monthHint(opts Options) (parser.MonthRef, error) {
	if m := strings.TrimSpace(opts.Month); m != "" {
		ref := parser.DetectMonth(m)
		if !ref.Valid() {
			return parser.MonthRef{}, &InputError{Op: "parse month", Err: fmt.Errorf("%w: %q", errUnknownMonth, m)}
		}
		return ref, nil
	}
	base := strings.TrimSuffix(filepath.Base(opts.FileName), filepath.Ext(opts.FileName))
	return parser.DetectMonth(base), nil
}

// reportMonth 报告期间：提示 > Sheet 名 > 记录日期中最常见的月份
func reportMonth(hint parser.MonthRef, sheetName string, items []Classified) parser.MonthRef {
	fromSheet := parser.DetectMonth(sheetName)
	if hint.Valid() {
		if hint.Year == 0 && fromSheet.Month == hint.Month {
			hint.Year = fromSheet.Year
		}
		return hint
	}
	if fromSheet.Valid() {
		return fromSheet
	}
	return dominantMonth(items)
}

func dominantMonth(items []Classified) parser.MonthRef {
	counts := make(map[parser.MonthRef]int)
	for _, it := range items {
		d := it.Record.Date // dd.mm.yyyy
		if len(d) != 10 {
			continue
		}
		ref := parser.MonthRef{Month: atoi(d[3:5]), Year: atoi(d[6:])}
		if ref.Valid() {
			counts[ref]++
		}
	}
	if len(counts) == 0 {
		return parser.MonthRef{}
	}

	refs := make([]parser.MonthRef, 0, len(counts))
	for ref := range counts {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		if counts[refs[i]] != counts[refs[j]] {
			return counts[refs[i]] > counts[refs[j]]
		}
		if refs[i].Year != refs[j].Year {
			return refs[i].Year < refs[j].Year
		}
		return refs[i].Month < refs[j].Month
	})
	return refs[0]
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func progress(opts Options, percent int, stage string) {
	if opts.Progress == nil {
		return
	}
	if percent > 100 {
		percent = 100
	}
	opts.Progress(percent, stage)
}
