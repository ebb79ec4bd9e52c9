// process 命令行处理单个文件：读取提及表，写出报告并打印统计
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"mentionreport/internal/config"
	"mentionreport/internal/importer"
	"mentionreport/internal/service/report"
	"mentionreport/internal/util"
)

var (
	inPath   = flag.String("in", "", "输入 .xlsx 文件")
	outDir   = flag.String("out", ".", "报告输出目录")
	sheet    = flag.String("sheet", "", "工作表名（默认自动识别）")
	month    = flag.String("month", "", "报告月份，如 март25（默认自动识别）")
	product  = flag.String("product", "", "产品名（覆盖配置）")
	logLevel = flag.String("log", "warn", "日志级别")
)

func main() {
	flag.Parse()
	if *inPath == "" {
		fmt.Fprintln(os.Stderr, "usage: process -in <file.xlsx> [-out dir] [-sheet name] [-month март25]")
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger, err := util.NewLogger(*logLevel, true)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	data, err := os.ReadFile(*inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	opts := cfg.PipelineOptions()
	opts.FileName = filepath.Base(*inPath)
	opts.SheetName = *sheet
	opts.Month = *month
	if *product != "" {
		opts.ProductName = *product
	}
	opts.Progress = func(percent int, stage string) {
		fmt.Fprintf(os.Stderr, "\r[%3d%%] %-40s", percent, stage)
	}

	res, err := report.NewPipeline(logger).Run(data, opts)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}
	outPath := filepath.Join(*outDir, importer.OutputName(opts.FileName, uuid.New().String(), time.Now()))
	if err := os.WriteFile(outPath, res.Output, 0644); err != nil {
		return &report.OutputError{Op: "write report", Err: err}
	}
	summary, err := json.MarshalIndent(map[string]any{
		"output":     outPath,
		"sheet":      res.SheetName,
		"month":      res.Bundle.MonthName,
		"scan":       res.Scan,
		"warnings":   len(res.Warnings),
		"statistics": res.Statistics,
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(summary))
	return nil
}
