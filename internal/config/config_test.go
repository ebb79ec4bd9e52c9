package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mentionreport/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadConfigFrom_Defaults(t *testing.T) {
	cfg, info, err := LoadConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if info.FromFile || info.PortSpecified {
		t.Fatalf("info=%+v", info)
	}
	if cfg.Server.Port != 20262 || cfg.Store.Driver != "memory" || cfg.Report.MaxTopComments != 20 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfigFrom_TomlAndEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `
[server]
port = 8088

[store]
driver = "sqlite"

[report]
product_name = "Prod"
max_top_comments = 15
views_columns = ["views_end", "views_received"]
`)
	writeFile(t, filepath.Join(dir, ".env"), "MENTIONREPORT_LOG_LEVEL=debug\n")
	t.Setenv("MENTIONREPORT_PRODUCT_NAME", "Другой")
	// t.Setenv 负责测试结束后还原；.env 只填充未设置的变量
	t.Setenv("MENTIONREPORT_LOG_LEVEL", "")
	_ = os.Unsetenv("MENTIONREPORT_LOG_LEVEL")

	cfg, info, err := LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if !info.FromFile || !info.PortSpecified || cfg.Server.Port != 8088 {
		t.Fatalf("port=%d info=%+v", cfg.Server.Port, info)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Report.ProductName != "Другой" || cfg.Log.Level != "debug" {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.Data.MaxUploadMB != 50 {
		t.Fatalf("defaults should survive partial toml: %+v", cfg.Data)
	}

	opts := cfg.PipelineOptions()
	if opts.Allocator == nil || opts.Allocator.MaxTopComments != 15 {
		t.Fatalf("allocator=%+v", opts.Allocator)
	}
	if len(opts.ViewsColumns) != 2 || opts.ViewsColumns[0] != model.FieldViewsEnd {
		t.Fatalf("views=%v", opts.ViewsColumns)
	}
}

func TestLoadConfigFrom_EnvPort(t *testing.T) {
	t.Setenv("MENTIONREPORT_PORT", "9000")

	cfg, info, err := LoadConfigFrom(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if cfg.Server.Port != 9000 || !info.PortSpecified {
		t.Fatalf("port=%d info=%+v", cfg.Server.Port, info)
	}

	t.Setenv("MENTIONREPORT_PORT", "abc")
	if _, _, err := LoadConfigFrom(t.TempDir()); err == nil {
		t.Fatalf("expected error for invalid port")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Driver = "postgres"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown driver error")
	}

	cfg = DefaultConfig()
	cfg.Report.ViewsColumns = []string{"views_end", "likes"}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected unknown views column error")
	}
}

func TestEnsureDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Data.DataDir = filepath.Join(t.TempDir(), "data")

	dir, err := EnsureDataDir(cfg)
	if err != nil {
		t.Fatalf("EnsureDataDir: %v", err)
	}
	for _, sub := range []string{"uploads", "exports"} {
		if st, err := os.Stat(filepath.Join(dir, sub)); err != nil || !st.IsDir() {
			t.Fatalf("missing %s: %v", sub, err)
		}
	}
}

func TestSaveConfigTo_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Server.Port = 18080
	cfg.Report.ProductName = "Prod"
	cfg.Report.ViewsColumns = []string{"views_end"}
	path, err := SaveConfigTo(dir, cfg)
	if err != nil {
		t.Fatalf("SaveConfigTo: %v", err)
	}
	if path != filepath.Join(dir, "config.toml") {
		t.Fatalf("path=%s", path)
	}

	loaded, info, err := LoadConfigFrom(dir)
	if err != nil {
		t.Fatalf("LoadConfigFrom: %v", err)
	}
	if !info.FromFile || !info.PortSpecified {
		t.Fatalf("info=%+v", info)
	}
	if loaded.Server.Port != 18080 || loaded.Report.ProductName != "Prod" {
		t.Fatalf("loaded=%+v", loaded)
	}
	if fields, _ := loaded.Report.Fields(); len(fields) != 1 || fields[0] != model.FieldViewsEnd {
		t.Fatalf("views fields=%v", fields)
	}
	if err := loaded.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadConfig_RejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "config.toml"), `
[report]
views_columns = ["views_end", "likes"]
`)
	if _, err := loadValidated(dir); err == nil || !strings.Contains(err.Error(), "likes") {
		t.Fatalf("expected unknown views column error, got %v", err)
	}

	if _, err := loadValidated(t.TempDir()); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
