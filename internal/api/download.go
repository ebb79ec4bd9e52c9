package api

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"mentionreport/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Download 下载生成的报告
// GET /api/download/:id
func (h *Handler) Download(c *gin.Context) {
	job, err := h.jobs.GetJob(c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if job.Status != model.JobCompleted || job.OutputPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "report is not ready", "status": job.Status})
		return
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "report file not found"})
		return
	}

	c.Header("Content-Disposition", buildContentDisposition(job.OutputName))
	c.Header("Content-Type", xlsxContentType)
	c.File(job.OutputPath)
}

// buildContentDisposition ASCII 回退名 + RFC 5987 filename*
func buildContentDisposition(name string) string {
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", asciiFallback(name), url.PathEscape(name))
}

func asciiFallback(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		if r < 0x20 || r >= 0x7f || r == '"' || r == '\\' {
			r = '_'
		}
		if r == '_' && lastUnderscore {
			continue
		}
		lastUnderscore = r == '_'
		b.WriteRune(r)
	}
	out := strings.TrimLeft(b.String(), "_")
	if strings.TrimSuffix(out, ".xlsx") == "" {
		return "report.xlsx"
	}
	return out
}
