package store

import (
	"errors"
	"sort"
	"sync"
	"time"

	"mentionreport/internal/model"
)

// ErrJobNotFound 任务记录不存在
var ErrJobNotFound = errors.New("job not found")

// JobStore 任务状态存储（内存或 SQLite）
type JobStore interface {
	CreateJob(job *model.Job) error
	UpdateJob(id string, update model.JobUpdate) (*model.Job, error)
	GetJob(id string) (*model.Job, error)
	ListJobs() ([]*model.Job, error)
	DeleteJob(id string) error
}

// MemoryStore 内存任务存储
type MemoryStore struct {
	jobs map[string]*model.Job
	mu   sync.RWMutex
	now  func() time.Time
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*model.Job),
		now:  time.Now,
	}
}

// CreateJob 保存新任务；CreatedAt 为零值时补当前时间
func (s *MemoryStore) CreateJob(job *model.Job) error {
	if job == nil || job.ID == "" {
		return errors.New("job id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[job.ID]; ok {
		return errors.New("job already exists")
	}
	c := cloneJob(job)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
	s.jobs[c.ID] = c
	return nil
}

// UpdateJob 部分更新并返回更新后的副本
func (s *MemoryStore) UpdateJob(id string, update model.JobUpdate) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	update.Apply(job, s.now())
	return cloneJob(job), nil
}

// GetJob 获取单个任务
func (s *MemoryStore) GetJob(id string) (*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return cloneJob(job), nil
}

// ListJobs 全部任务，最新的在前
func (s *MemoryStore) ListJobs() ([]*model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*model.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		result = append(result, cloneJob(j))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// DeleteJob 删除任务
func (s *MemoryStore) DeleteJob(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

// Count 任务数量
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

// 调用方拿到的是副本，避免绕过锁修改
func cloneJob(j *model.Job) *model.Job {
	c := *j
	if j.Statistics != nil {
		s := *j.Statistics
		c.Statistics = &s
	}
	return &c
}
