package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mentionreport/internal/model"
	"mentionreport/internal/service/report"
	svcstore "mentionreport/internal/service/store"
)

// 进度通道容量；事件经过节流，正常处理远达不到该数量
const progressBuffer = 100

// 单次处理最多推送的行级警告事件
const maxWarningEvents = 20

var unsafeNameRe = regexp.MustCompile(`[^\p{L}\p{N}_\-]+`)

// Coordinator 处理协调器：建任务记录，后台跑流水线，写出报告并回写状态
type Coordinator struct {
	jobs      svcstore.JobStore
	pipeline  *report.Pipeline
	defaults  report.Options
	uploadDir string
	exportDir string
	logger    *zap.Logger
	now       func() time.Time
}

// Config 协调器配置
type Config struct {
	UploadDir string         // 保存原始上传文件；为空则不保存
	ExportDir string         // 报告输出目录
	Defaults  report.Options // 产品名、容量、浏览量列等默认值
}

// NewCoordinator 创建处理协调器
func NewCoordinator(jobs svcstore.JobStore, cfg Config, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		jobs:      jobs,
		pipeline:  report.NewPipeline(logger),
		defaults:  cfg.Defaults,
		uploadDir: cfg.UploadDir,
		exportDir: cfg.ExportDir,
		logger:    logger,
		now:       time.Now,
	}
}

// ImportOptions 一次处理的输入
type ImportOptions struct {
	FileName  string
	Data      []byte
	SheetName string
	Month     string
}

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/progress/warning/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// ImportReport done 事件携带的汇总
type ImportReport struct {
	Job        *model.Job         `json:"job"`
	Statistics model.Statistics   `json:"statistics"`
	Scan       report.ScanSummary `json:"scan"`
	Warnings   int                `json:"warnings"`
	Duration   time.Duration      `json:"duration"`
}

// Start 建立 processing 状态的任务并在后台处理，返回任务与进度通道
//
// 通道在处理结束后关闭；调用方不读取时事件会被丢弃，不会阻塞处理。
func (c *Coordinator) Start(opts ImportOptions) (*model.Job, <-chan ProgressEvent, error) {
	if len(opts.Data) == 0 {
		return nil, nil, &report.InputError{Op: "upload", Err: errors.New("file is empty")}
	}

	now := c.now()
	job := &model.Job{
		ID:        uuid.New().String(),
		Name:      displayName(opts.FileName),
		Size:      int64(len(opts.Data)),
		Status:    model.JobProcessing,
		SheetName: strings.TrimSpace(opts.SheetName),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.jobs.CreateJob(job); err != nil {
		return nil, nil, fmt.Errorf("create job: %w", err)
	}
	c.logger.Info("job created", zap.String("job_id", job.ID), zap.String("name", job.Name), zap.Int64("size", job.Size))

	progressChan := make(chan ProgressEvent, progressBuffer)
	created := *job

	go func() {
		defer close(progressChan)
		c.doImport(job, opts, progressChan)
	}()

	return &created, progressChan, nil
}

// Run 同步处理（CLI/测试用），返回最终任务状态
func (c *Coordinator) Run(opts ImportOptions) (*model.Job, error) {
	job, ch, err := c.Start(opts)
	if err != nil {
		return nil, err
	}
	for range ch {
	}
	return c.jobs.GetJob(job.ID)
}

// Delete 删除任务记录及其上传/输出文件
func (c *Coordinator) Delete(id string) error {
	job, err := c.jobs.GetJob(id)
	if err != nil {
		return err
	}
	for _, p := range []string{job.OutputPath, c.uploadPath(job)} {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			c.logger.Warn("remove job file failed", zap.String("job_id", id), zap.String("path", p), zap.Error(err))
		}
	}
	if err := c.jobs.DeleteJob(id); err != nil {
		return err
	}
	c.logger.Info("job deleted", zap.String("job_id", id))
	return nil
}

func (c *Coordinator) doImport(job *model.Job, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := c.now()
	log := c.logger.With(zap.String("job_id", job.ID))

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "start",
		Message: "Начата обработка файла",
		Data: map[string]interface{}{
			"job_id":   job.ID,
			"filename": job.Name,
		},
		Timestamp: c.now(),
	})

	if p := c.uploadPath(job); p != "" {
		if err := writeFile(p, opts.Data); err != nil {
			log.Warn("save upload failed", zap.Error(err))
		}
	}

	runOpts := c.defaults
	runOpts.FileName = job.Name
	runOpts.SheetName = opts.SheetName
	runOpts.Month = opts.Month
	lastPercent := -1
	runOpts.Progress = func(percent int, stage string) {
		// 节流：只在百分比前进时推送
		if percent <= lastPercent {
			return
		}
		lastPercent = percent
		c.sendProgress(progressChan, ProgressEvent{
			Type:      "progress",
			Message:   stage,
			Data:      map[string]interface{}{"percent": percent, "stage": stage},
			Timestamp: c.now(),
		})
	}

	res, err := c.pipeline.Run(opts.Data, runOpts)
	if err != nil {
		c.fail(job, progressChan, err)
		return
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    "info",
		Message: fmt.Sprintf("Выбран лист «%s»", res.SheetName),
		Data: map[string]interface{}{
			"sheet_name":   res.SheetName,
			"header_found": res.Header.Found,
			"header_row":   res.Header.HeaderRowIndex + 1,
		},
		Timestamp: c.now(),
	})
	for i, w := range res.Warnings {
		if i >= maxWarningEvents {
			break
		}
		c.sendProgress(progressChan, ProgressEvent{Type: "warning", Message: w.String(), Data: w, Timestamp: c.now()})
	}

	outputName := OutputName(job.Name, job.ID, startTime)
	outputPath := filepath.Join(c.exportDir, outputName)
	if err := writeFile(outputPath, res.Output); err != nil {
		c.fail(job, progressChan, &report.OutputError{Op: "write report", Err: err})
		return
	}

	status := model.JobCompleted
	rowCount := res.Scan.RowsScanned
	stats := res.Statistics
	updated, err := c.jobs.UpdateJob(job.ID, model.JobUpdate{
		Status:     &status,
		RowCount:   &rowCount,
		Statistics: &stats,
		SheetName:  &res.SheetName,
		OutputName: &outputName,
		OutputPath: &outputPath,
	})
	if err != nil {
		log.Error("update job failed", zap.Error(err))
		c.sendProgress(progressChan, ProgressEvent{Type: "error", Message: err.Error(), Timestamp: c.now()})
		return
	}

	duration := c.now().Sub(startTime)
	log.Info("job completed",
		zap.String("output", outputName),
		zap.Int("rows", rowCount),
		zap.Duration("duration", duration),
	)
	c.sendProgress(progressChan, ProgressEvent{
		Type:    "done",
		Message: "Обработка завершена",
		Data: &ImportReport{
			Job:        updated,
			Statistics: stats,
			Scan:       res.Scan,
			Warnings:   len(res.Warnings),
			Duration:   duration,
		},
		Timestamp: c.now(),
	})
}

func (c *Coordinator) fail(job *model.Job, progressChan chan ProgressEvent, cause error) {
	status := model.JobError
	msg := cause.Error()
	if _, err := c.jobs.UpdateJob(job.ID, model.JobUpdate{Status: &status, ErrorMessage: &msg}); err != nil {
		c.logger.Error("mark job failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	c.logger.Warn("job failed", zap.String("job_id", job.ID), zap.Error(cause))
	c.sendProgress(progressChan, ProgressEvent{
		Type:      "error",
		Message:   msg,
		Data:      map[string]interface{}{"job_id": job.ID},
		Timestamp: c.now(),
	})
}

func (c *Coordinator) uploadPath(job *model.Job) string {
	if c.uploadDir == "" {
		return ""
	}
	return filepath.Join(c.uploadDir, job.ID+"_"+safeBase(job.Name)+filepath.Ext(job.Name))
}

func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}

// OutputName 报告文件名：<原文件名>_report_<yyyymmdd-hhmmss>_<任务 id 前 8 位>.xlsx
func OutputName(sourceName, jobID string, at time.Time) string {
	id := strings.ReplaceAll(jobID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s_report_%s_%s.xlsx", safeBase(sourceName), at.Format("20060102-150405"), id)
}

func safeBase(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Trim(unsafeNameRe.ReplaceAllString(base, "_"), "_")
	if base == "" || base == "." {
		return "mentions"
	}
	return base
}

func displayName(name string) string {
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "upload.xlsx"
	}
	return name
}

// writeFile 先写临时文件再 rename，下载方不会读到半截报告
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
