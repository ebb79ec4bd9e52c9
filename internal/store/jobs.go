package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mentionreport/internal/model"
	svcstore "mentionreport/internal/service/store"
)

var _ svcstore.JobStore = (*Store)(nil)

const jobColumns = `id, name, size, status, row_count, statistics, error_message, sheet_name, output_name, output_path, created_at, updated_at`

// CreateJob 写入新任务
func (s *Store) CreateJob(job *model.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job id is required")
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	if job.UpdatedAt.IsZero() {
		job.UpdatedAt = job.CreatedAt
	}
	if job.Status == "" {
		job.Status = model.JobProcessing
	}

	stats, err := encodeStatistics(job.Statistics)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Name, job.Size, string(job.Status), job.RowCount, stats, job.ErrorMessage,
		job.SheetName, job.OutputName, job.OutputPath, formatTime(job.CreatedAt), formatTime(job.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

// UpdateJob 读-改-写；单连接下不会与其他写入交错
func (s *Store) UpdateJob(id string, update model.JobUpdate) (*model.Job, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	job, err := scanJob(tx.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	update.Apply(job, time.Now().UTC())

	stats, err := encodeStatistics(job.Statistics)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(`
		UPDATE jobs SET
			status = ?,
			row_count = ?,
			statistics = ?,
			error_message = ?,
			sheet_name = ?,
			output_name = ?,
			output_path = ?,
			updated_at = ?
		WHERE id = ?
	`, string(job.Status), job.RowCount, stats, job.ErrorMessage, job.SheetName, job.OutputName, job.OutputPath,
		formatTime(job.UpdatedAt), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit job update: %w", err)
	}
	return job, nil
}

// GetJob 获取单个任务
func (s *Store) GetJob(id string) (*model.Job, error) {
	return scanJob(s.db.QueryRow(`SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id))
}

// ListJobs 全部任务，最新的在前
func (s *Store) ListJobs() ([]*model.Job, error) {
	rows, err := s.db.Query(`SELECT ` + jobColumns + ` FROM jobs ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}
	return jobs, nil
}

// DeleteJob 删除任务
func (s *Store) DeleteJob(id string) error {
	res, err := s.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if n == 0 {
		return svcstore.ErrJobNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.Job, error) {
	var (
		job                  model.Job
		status               string
		stats                sql.NullString
		createdAt, updatedAt string
	)
	err := row.Scan(&job.ID, &job.Name, &job.Size, &status, &job.RowCount, &stats, &job.ErrorMessage,
		&job.SheetName, &job.OutputName, &job.OutputPath, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, svcstore.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job.Status = model.JobStatus(status)
	if stats.Valid && stats.String != "" {
		var st model.Statistics
		if err := json.Unmarshal([]byte(stats.String), &st); err != nil {
			return nil, fmt.Errorf("failed to decode job statistics: %w", err)
		}
		job.Statistics = &st
	}
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &job, nil
}

func encodeStatistics(st *model.Statistics) (sql.NullString, error) {
	if st == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(st)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode job statistics: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// 固定宽度的 UTC 时间，保证按文本排序即按时间排序
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")
}
