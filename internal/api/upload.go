package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"mentionreport/internal/importer"
	"mentionreport/internal/service/report"
)

var allowedExts = map[string]struct{}{".xlsx": {}, ".xlsm": {}, ".xltx": {}}

// Upload 上传文件并在后台处理，立即返回任务
// POST /api/upload
func (h *Handler) Upload(c *gin.Context) {
	opts, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	job, _, err := h.coordinator.Start(opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// UploadStream 上传文件并以 SSE 推送处理进度
// POST /api/upload/stream
func (h *Handler) UploadStream(c *gin.Context) {
	opts, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	_, progressChan, err := h.coordinator.Start(opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.streamProgress(c, progressChan)
}

// GoogleSheetsRequest Google Sheets 导入请求
type GoogleSheetsRequest struct {
	URL       string `json:"url"`
	SheetName string `json:"sheetName"`
	Month     string `json:"month"`
}

// ImportGoogleSheets 下载 Google Sheets 并按上传流程处理
// POST /api/import/google-sheets
func (h *Handler) ImportGoogleSheets(c *gin.Context) {
	var req GoogleSheetsRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}
	if h.fetcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sheets import is disabled"})
		return
	}

	data, ref, err := h.fetcher.Fetch(c.Request.Context(), req.URL)
	if err != nil {
		h.respondError(c, err)
		return
	}

	name := "google_" + ref.ID
	if ref.GID != "" {
		name += "_" + ref.GID
	}
	job, _, err := h.coordinator.Start(importer.ImportOptions{
		FileName:  name + ".xlsx",
		Data:      data,
		SheetName: req.SheetName,
		Month:     req.Month,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, job)
}

// readUpload 读取 multipart 中的 file 字段及可选的 sheetName / month
func (h *Handler) readUpload(c *gin.Context) (importer.ImportOptions, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return importer.ImportOptions{}, &report.InputError{Op: "upload", Err: fmt.Errorf("file exceeds %d MB", h.maxUpload>>20)}
		}
		return importer.ImportOptions{}, &report.InputError{Op: "upload", Err: errors.New("missing file field")}
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if _, ok := allowedExts[ext]; !ok {
		return importer.ImportOptions{}, &report.InputError{Op: "upload", Err: fmt.Errorf("unsupported file type %q", ext)}
	}

	f, err := fh.Open()
	if err != nil {
		return importer.ImportOptions{}, &report.InputError{Op: "upload", Err: err}
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return importer.ImportOptions{}, &report.InputError{Op: "upload", Err: err}
	}

	return importer.ImportOptions{
		FileName:  fh.Filename,
		Data:      data,
		SheetName: c.PostForm("sheetName"),
		Month:     c.PostForm("month"),
	}, nil
}

// streamProgress SSE 格式: data: {json}\n\n
func (h *Handler) streamProgress(c *gin.Context, progressChan <-chan importer.ProgressEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming is not supported"})
		return
	}

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}
