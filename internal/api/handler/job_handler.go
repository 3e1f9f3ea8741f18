package handler

import (
	"context"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// SearchJobs GET /api/v1/jobs/search?query=&location=
func (h *Handler) SearchJobs(ctx context.Context, c *app.RequestContext) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		badRequest(c, "query 不能为空")
		return
	}
	jobs, err := h.jobs.Search(ctx, query, strings.TrimSpace(c.Query("location")))
	if err != nil {
		h.writeError(ctx, c, "search_jobs", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"jobs": jobs, "count": len(jobs)})
}

type analyzeRequest struct {
	JobDescription string `json:"job_description"`
	Save           bool   `json:"save"`
}

// AnalyzeJob POST /api/v1/jobs/analyze。save 为 true 时同时保存岗位描述
func (h *Handler) AnalyzeJob(ctx context.Context, c *app.RequestContext) {
	var req analyzeRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	if req.Save {
		rec, err := h.jobs.SaveJobDescription(ctx, h.owner(c), req.JobDescription)
		if err != nil {
			h.writeError(ctx, c, "save_job", err)
			return
		}
		c.JSON(consts.StatusCreated, rec)
		return
	}
	analysis, err := h.jobs.AnalyzeJobDescription(ctx, req.JobDescription)
	if err != nil {
		h.writeError(ctx, c, "analyze_job", err)
		return
	}
	c.JSON(consts.StatusOK, analysis)
}
