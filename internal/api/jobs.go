package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mentionreport/internal/model"
)

// ListFiles 任务列表（最新在前）
// GET /api/files
func (h *Handler) ListFiles(c *gin.Context) {
	jobs, err := h.jobs.ListJobs()
	if err != nil {
		h.respondError(c, err)
		return
	}
	if jobs == nil {
		jobs = []*model.Job{}
	}
	c.JSON(http.StatusOK, gin.H{"files": jobs})
}

// GetFile 任务状态
// GET /api/files/:id
func (h *Handler) GetFile(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteFile 删除任务及其文件
// DELETE /api/files/:id
func (h *Handler) DeleteFile(c *gin.Context) {
	if err := h.coordinator.Delete(c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	TotalJobs  int       `json:"totalJobs"`
	Processing int       `json:"processing"`
	Completed  int       `json:"completed"`
	Failed     int       `json:"failed"`
	StartedAt  time.Time `json:"startedAt"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	jobs, err := h.jobs.ListJobs()
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := StatusResponse{TotalJobs: len(jobs), StartedAt: h.startedAt}
	for _, j := range jobs {
		switch j.Status {
		case model.JobProcessing:
			resp.Processing++
		case model.JobCompleted:
			resp.Completed++
		case model.JobError:
			resp.Failed++
		}
	}
	c.JSON(http.StatusOK, resp)
}
