package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"mentionreport/internal/model"
	"mentionreport/internal/service/report"
)

// 环境变量前缀
const envPrefix = "MENTIONREPORT_"

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Store  StoreConfig  `toml:"store"`
	Report ReportConfig `toml:"report"`
	Log    LogConfig    `toml:"log"`
	Google GoogleConfig `toml:"google"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir     string `toml:"data_dir"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// StoreConfig 任务状态存储
type StoreConfig struct {
	Driver     string `toml:"driver"` // memory / sqlite
	SQLiteFile string `toml:"sqlite_file"`
}

// ReportConfig 报告生成参数
type ReportConfig struct {
	ProductName    string   `toml:"product_name"`
	MaxTopComments int      `toml:"max_top_comments"`
	MaxReviews     int      `toml:"max_reviews"`
	ViewsColumns   []string `toml:"views_columns"`
	HeaderScanRows int      `toml:"header_scan_rows"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// GoogleConfig Google Sheets 导入
type GoogleConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
	MaxAttempts    int `toml:"max_attempts"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	PortSpecified bool
	ConfigPath    string
	FromFile      bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20262,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:     "data",
			MaxUploadMB: 50,
		},
		Store: StoreConfig{
			Driver:     "memory",
			SQLiteFile: "jobs.db",
		},
		Report: ReportConfig{
			MaxTopComments: report.DefaultMaxTopComments,
			MaxReviews:     0,
			ViewsColumns:   []string{"views_received", "views_end", "views_start"},
			HeaderScanRows: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Google: GoogleConfig{
			TimeoutSeconds: 30,
			MaxAttempts:    3,
		},
	}
}

// AllocatorConfig 分桶容量
func (r ReportConfig) AllocatorConfig() report.AllocatorConfig {
	return report.AllocatorConfig{
		MaxTopComments: r.MaxTopComments,
		MaxReviews:     r.MaxReviews,
	}
}

// Fields 浏览量列优先顺序；未知字段名被忽略
func (r ReportConfig) Fields() ([]model.Field, []string) {
	known := make(map[model.Field]struct{}, len(model.AllFields))
	for _, f := range model.AllFields {
		known[f] = struct{}{}
	}

	var fields []model.Field
	var unknown []string
	for _, name := range r.ViewsColumns {
		f := model.Field(strings.ToLower(strings.TrimSpace(name)))
		if _, ok := known[f]; !ok {
			unknown = append(unknown, name)
			continue
		}
		fields = append(fields, f)
	}
	return fields, unknown
}

// PipelineOptions 由配置生成的流水线默认参数
func (c *AppConfig) PipelineOptions() report.Options {
	alloc := c.Report.AllocatorConfig()
	views, _ := c.Report.Fields()
	return report.Options{
		ProductName:    c.Report.ProductName,
		Allocator:      &alloc,
		ViewsColumns:   views,
		HeaderScanRows: c.Report.HeaderScanRows,
	}
}

// MaxUploadBytes 上传大小上限
func (c *AppConfig) MaxUploadBytes() int64 {
	if c.Data.MaxUploadMB <= 0 {
		return 50 << 20
	}
	return int64(c.Data.MaxUploadMB) << 20
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func baseDir() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml / .env 加载配置
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadConfigFrom(baseDir())
}

// LoadConfigFrom 从指定目录加载：默认值 < config.toml < .env / 环境变量
func LoadConfigFrom(dir string) (*AppConfig, LoadConfigInfo, error) {
	configPath := filepath.Join(dir, "config.toml")
	info := LoadConfigInfo{ConfigPath: configPath}
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.FromFile = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	// .env 不覆盖已存在的环境变量
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, info, fmt.Errorf("load .env: %w", err)
	}

	portFromEnv, err := applyEnv(config)
	if err != nil {
		return nil, info, err
	}
	if portFromEnv {
		info.PortSpecified = true
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖；返回端口是否由环境变量指定
func applyEnv(config *AppConfig) (bool, error) {
	portSet := false
	if v := os.Getenv(envPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return false, fmt.Errorf("invalid %sPORT %q", envPrefix, v)
		}
		config.Server.Port = port
		portSet = true
	}
	if v := os.Getenv(envPrefix + "DATA_DIR"); v != "" {
		config.Data.DataDir = v
	}
	if v := os.Getenv(envPrefix + "STORE_DRIVER"); v != "" {
		config.Store.Driver = strings.ToLower(v)
	}
	if v := os.Getenv(envPrefix + "LOG_LEVEL"); v != "" {
		config.Log.Level = v
	}
	if v := os.Getenv(envPrefix + "PRODUCT_NAME"); v != "" {
		config.Report.ProductName = v
	}
	return portSet, nil
}

// LoadConfig 从 config.toml 加载并校验配置
// 配置文件位于可执行文件同目录下
func LoadConfig() (*AppConfig, error) {
	return loadValidated(baseDir())
}

func loadValidated(dir string) (*AppConfig, error) {
	config, info, err := LoadConfigFrom(dir)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", info.ConfigPath, err)
	}
	return config, nil
}

// SaveConfig 保存配置到可执行文件同目录的 config.toml，返回写入路径
func SaveConfig(config *AppConfig) (string, error) {
	return SaveConfigTo(baseDir(), config)
}

// SaveConfigTo 保存配置到 dir/config.toml
func SaveConfigTo(dir string, config *AppConfig) (string, error) {
	data, err := toml.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// Validate 检查取值范围
func (c *AppConfig) Validate() error {
	switch c.Store.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("unknown store driver %q (memory|sqlite)", c.Store.Driver)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if _, unknown := c.Report.Fields(); len(unknown) > 0 {
		return fmt.Errorf("unknown views_columns: %s", strings.Join(unknown, ", "))
	}
	return nil
}

// EnsureDataDir 确保数据目录存在
// 相对路径相对于可执行文件所在目录
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := config.Data.DataDir
	if !filepath.IsAbs(dataDir) {
		dataDir = filepath.Join(baseDir(), dataDir)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
