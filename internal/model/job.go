package model

import "time"

// JobStatus 处理任务状态
type JobStatus string

const (
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobError      JobStatus = "error"
)

// Job 上传文件的处理记录
type Job struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Size         int64       `json:"size"`
	Status       JobStatus   `json:"status"`
	RowCount     int         `json:"rowCount"`
	Statistics   *Statistics `json:"statistics,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	SheetName    string      `json:"sheetName,omitempty"`
	OutputName   string      `json:"outputName,omitempty"`
	OutputPath   string      `json:"-"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// JobUpdate 部分更新；nil 字段不修改
type JobUpdate struct {
	Status       *JobStatus
	RowCount     *int
	Statistics   *Statistics
	ErrorMessage *string
	SheetName    *string
	OutputName   *string
	OutputPath   *string
}

// Apply 将更新写入 job
func (u JobUpdate) Apply(job *Job, now time.Time) {
	if u.Status != nil {
		job.Status = *u.Status
	}
	if u.RowCount != nil {
		job.RowCount = *u.RowCount
	}
	if u.Statistics != nil {
		s := *u.Statistics
		job.Statistics = &s
	}
	if u.ErrorMessage != nil {
		job.ErrorMessage = *u.ErrorMessage
	}
	if u.SheetName != nil {
		job.SheetName = *u.SheetName
	}
	if u.OutputName != nil {
		job.OutputName = *u.OutputName
	}
	if u.OutputPath != nil {
		job.OutputPath = *u.OutputPath
	}
	job.UpdatedAt = now
}
