package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mentionreport/internal/api"
	"mentionreport/internal/config"
	"mentionreport/internal/importer"
	svcstore "mentionreport/internal/service/store"
	"mentionreport/internal/sheets"
	"mentionreport/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	jobs    svcstore.JobStore
	sqlite  *store.Store
	handler *api.Handler
	logger  *zap.Logger
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	devMode := cfg.Server.DevMode
	if !devMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}

	s := &Server{
		router: gin.New(),
		logger: logger,
	}

	// 任务状态存储
	switch cfg.Store.Driver {
	case "sqlite":
		dbPath := cfg.Store.SQLiteFile
		if !filepath.IsAbs(dbPath) {
			dbPath = filepath.Join(dataDir, dbPath)
		}
		sqliteStore, err := store.New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		s.sqlite = sqliteStore
		s.jobs = sqliteStore
		logger.Info("job store: sqlite", zap.String("path", dbPath))
	default:
		s.jobs = svcstore.NewMemoryStore()
		logger.Info("job store: memory")
	}

	coord := importer.NewCoordinator(s.jobs, importer.Config{
		UploadDir: filepath.Join(dataDir, "uploads"),
		ExportDir: filepath.Join(dataDir, "exports"),
		Defaults:  cfg.PipelineOptions(),
	}, logger)

	fetcher := sheets.NewFetcher(sheets.Options{
		Timeout:     time.Duration(cfg.Google.TimeoutSeconds) * time.Second,
		MaxAttempts: cfg.Google.MaxAttempts,
	}, logger)

	s.handler = api.NewHandler(api.Options{
		Jobs:           s.jobs,
		Coordinator:    coord,
		Fetcher:        fetcher,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Logger:         logger,
	})

	s.setupRoutes(devMode)

	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	s.router.Use(gin.Recovery(), s.accessLog())

	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(apiGroup)
	}

	if devMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			c.Redirect(http.StatusTemporaryRedirect, "http://localhost:5173"+c.Request.URL.Path)
		})
		return
	}
	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// accessLog 请求日志
func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 关闭存储
func (s *Server) Close() error {
	if s.sqlite != nil {
		return s.sqlite.Close()
	}
	return nil
}

// Jobs 获取任务存储（用于测试）
func (s *Server) Jobs() svcstore.JobStore {
	return s.jobs
}
