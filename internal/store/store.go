package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaV1 string

// migrations 按 PRAGMA user_version 依次执行；只追加，不修改已发布的条目
var migrations = []string{
	schemaV1, // v1: jobs 表与索引
}

// Store SQLite 任务状态库，实现 service/store.JobStore
type Store struct {
	db *sql.DB
}

// New 打开（不存在则创建）任务库并迁移到最新结构
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create job db directory: %w", err)
	}

	// 后台任务与 HTTP 请求同时写入时等待锁，而不是立即 SQLITE_BUSY
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open job db %s: %w", dbPath, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open job db %s: %w", dbPath, err)
	}

	// 单连接：UpdateJob 的读-改-写不会与其他写入交错
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate 从当前 user_version 执行剩余迁移，每步一个事务
func (s *Store) migrate() error {
	version, err := s.SchemaVersion()
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("job db schema v%d is newer than this build (v%d)", version, len(migrations))
	}

	for v := version; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("migrate job db to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate job db to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate job db to v%d: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate job db to v%d: %w", v+1, err)
		}
	}
	return nil
}

// SchemaVersion 当前库结构版本
func (s *Store) SchemaVersion() (int, error) {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("read job db schema version: %w", err)
	}
	return version, nil
}

// Close 关闭任务库
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
