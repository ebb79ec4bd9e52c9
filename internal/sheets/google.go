package sheets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL Google Sheets 导出地址前缀
const DefaultBaseURL = "https://docs.google.com"

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxAttempts = 3
	defaultBaseDelay   = 500 * time.Millisecond

	// 导出文件上限，防止异常响应占满内存
	maxExportBytes = 100 << 20
)

var (
	// ErrInvalidURL 不是 Google Sheets 表格链接
	ErrInvalidURL = errors.New("not a google sheets url")

	spreadsheetIDRe = regexp.MustCompile(`/spreadsheets/(?:u/\d+/)?d/([a-zA-Z0-9_-]+)`)
	gidRe           = regexp.MustCompile(`(?:^|[#&?])gid=(\d+)`)
)

// SheetRef 表格 ID + 可选的工作表 gid
type SheetRef struct {
	ID  string
	GID string
}

// ParseURL 从分享链接中解析表格 ID 与 gid（gid 可在 query 或 fragment 中）
func ParseURL(raw string) (SheetRef, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return SheetRef{}, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	if host := u.Hostname(); host != "google.com" && !strings.HasSuffix(host, ".google.com") {
		return SheetRef{}, fmt.Errorf("%w: host %q", ErrInvalidURL, u.Host)
	}
	m := spreadsheetIDRe.FindStringSubmatch(u.Path)
	if m == nil {
		return SheetRef{}, fmt.Errorf("%w: no spreadsheet id in %q", ErrInvalidURL, raw)
	}

	ref := SheetRef{ID: m[1]}
	if g := u.Query().Get("gid"); g != "" {
		ref.GID = g
	} else if gm := gidRe.FindStringSubmatch(u.Fragment); gm != nil {
		ref.GID = gm[1]
	}
	return ref, nil
}

// StatusError 非 2xx 响应
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google sheets export returned status %d", e.StatusCode)
}

// Retryable 5xx 与 429 可重试，其余客户端错误（如无访问权限）不重试
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Options Fetcher 配置
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	BaseDelay   time.Duration
	Client      *http.Client
}

// Fetcher 把 Google Sheets 链接下载为 xlsx 字节
type Fetcher struct {
	baseURL     string
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	logger      *zap.Logger
}

// NewFetcher 创建下载器；零值字段使用默认配置
func NewFetcher(opts Options, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		client:      opts.Client,
		maxAttempts: opts.MaxAttempts,
		baseDelay:   opts.BaseDelay,
		logger:      logger,
	}
	if f.baseURL == "" {
		f.baseURL = DefaultBaseURL
	}
	if f.client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		f.client = &http.Client{Timeout: timeout}
	}
	if f.maxAttempts <= 0 {
		f.maxAttempts = defaultMaxAttempts
	}
	if f.baseDelay <= 0 {
		f.baseDelay = defaultBaseDelay
	}
	return f
}

// ExportURL xlsx 导出地址
func (f *Fetcher) ExportURL(ref SheetRef) string {
	u := fmt.Sprintf("%s/spreadsheets/d/%s/export?format=xlsx", f.baseURL, url.PathEscape(ref.ID))
	if ref.GID != "" {
		u += "&gid=" + url.QueryEscape(ref.GID)
	}
	return u
}

// Fetch 解析链接并下载；网络错误与 5xx 指数退避重试，4xx 立即返回
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, SheetRef, error) {
	ref, err := ParseURL(rawURL)
	if err != nil {
		return nil, SheetRef{}, err
	}
	exportURL := f.ExportURL(ref)

	var lastErr error
	delay := f.baseDelay
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		data, err := f.fetchOnce(ctx, exportURL)
		if err == nil {
			f.logger.Info("google sheet downloaded",
				zap.String("spreadsheet_id", ref.ID),
				zap.String("gid", ref.GID),
				zap.Int("bytes", len(data)),
				zap.Int("attempt", attempt),
			)
			return data, ref, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) && !se.Retryable() {
			return nil, ref, err
		}
		if ctx.Err() != nil {
			return nil, ref, ctx.Err()
		}
		if attempt == f.maxAttempts {
			break
		}

		f.logger.Warn("google sheet download failed, retrying",
			zap.String("spreadsheet_id", ref.ID),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ref, ctx.Err()
		}
		delay *= 2
	}

	return nil, ref, fmt.Errorf("download google sheet failed after %d attempts: %w", f.maxAttempts, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, exportURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxExportBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxExportBytes {
		return nil, &StatusError{StatusCode: http.StatusRequestEntityTooLarge}
	}
	return data, nil
}
