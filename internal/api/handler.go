package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentionreport/internal/importer"
	"mentionreport/internal/service/report"
	svcstore "mentionreport/internal/service/store"
	"mentionreport/internal/sheets"
)

// Handler API 处理器
type Handler struct {
	jobs        svcstore.JobStore
	coordinator *importer.Coordinator
	fetcher     *sheets.Fetcher
	maxUpload   int64
	logger      *zap.Logger
	startedAt   time.Time
}

// Options 处理器依赖
type Options struct {
	Jobs           svcstore.JobStore
	Coordinator    *importer.Coordinator
	Fetcher        *sheets.Fetcher
	MaxUploadBytes int64
	Logger         *zap.Logger
}

// NewHandler 创建 API 处理器
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 50 << 20
	}
	return &Handler{
		jobs:        opts.Jobs,
		coordinator: opts.Coordinator,
		fetcher:     opts.Fetcher,
		maxUpload:   maxUpload,
		logger:      logger,
		startedAt:   time.Now(),
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 上传与处理
	router.POST("/upload", h.Upload)
	router.POST("/upload/stream", h.UploadStream)
	router.POST("/import/google-sheets", h.ImportGoogleSheets)

	// 任务记录
	router.GET("/files", h.ListFiles)
	router.GET("/files/:id", h.GetFile)
	router.DELETE("/files/:id", h.DeleteFile)

	// 报告下载
	router.GET("/download/:id", h.Download)
}

// respondError 按错误类型映射 HTTP 状态码
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var (
		inErr *report.InputError
		se    *sheets.StatusError
	)
	switch {
	case errors.As(err, &inErr), errors.Is(err, sheets.ErrInvalidURL):
		status = http.StatusBadRequest
	case errors.Is(err, svcstore.ErrJobNotFound):
		status = http.StatusNotFound
	case errors.As(err, &se):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
