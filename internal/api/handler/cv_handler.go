package handler

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/processor"
	"cv-agent-go/internal/templates"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// MsgInvalidFileType 上传了不支持的文件类型
const MsgInvalidFileType = "Invalid file type. Only PDF, DOCX or plain text allowed."

var allowedExtensions = map[string]bool{".pdf": true, ".docx": true, ".txt": true, ".md": true}

// readUpload 读取 multipart 的 file 字段
func readUpload(c *app.RequestContext) (string, []byte, bool) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "文件未找到")
		return "", nil, false
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(fileHeader.Filename))] {
		badRequest(c, MsgInvalidFileType)
		return "", nil, false
	}
	if fileHeader.Size > constants.MaxUploadSizeBytes {
		c.JSON(consts.StatusRequestEntityTooLarge, utils.H{"error": "文件过大"})
		return "", nil, false
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "打开文件失败"})
		return "", nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "读取文件失败"})
		return "", nil, false
	}
	return filepath.Base(fileHeader.Filename), data, true
}

// UploadCV POST /api/v1/cv/upload
func (h *Handler) UploadCV(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	filename, data, ok := readUpload(c)
	if !ok {
		return
	}
	out, err := h.cvs.Upload(ctx, h.owner(c), filename, data)
	if err != nil {
		h.writeError(ctx, c, "upload_cv", err)
		return
	}
	status := consts.StatusOK
	switch out.Status {
	case processor.UploadCreated:
		status = consts.StatusCreated
	case processor.UploadDuplicateContent, processor.UploadDuplicateFilename, processor.UploadLimitReached:
		status = consts.StatusConflict
	}
	c.JSON(status, out)
}

// ListCVs GET /api/v1/cv
func (h *Handler) ListCVs(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	cvs, err := h.cvs.List(ctx, h.owner(c))
	if err != nil {
		h.writeError(ctx, c, "list_cvs", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"cvs": cvs, "count": len(cvs)})
}

// GetCV GET /api/v1/cv/:id
func (h *Handler) GetCV(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	rec, err := h.cvs.Get(ctx, h.owner(c), c.Param("id"))
	if err != nil {
		h.writeError(ctx, c, "get_cv", err)
		return
	}
	c.JSON(consts.StatusOK, rec)
}

// DownloadCV GET /api/v1/cv/:id/file 返回上传时的原始文件
func (h *Handler) DownloadCV(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	rec, data, err := h.cvs.File(ctx, h.owner(c), c.Param("id"))
	if err != nil {
		h.writeError(ctx, c, "download_cv", err)
		return
	}
	contentType := rec.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Filename))
	c.Data(consts.StatusOK, contentType, data)
}

// DeleteCV DELETE /api/v1/cv/:id
func (h *Handler) DeleteCV(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	if err := h.cvs.Delete(ctx, h.owner(c), c.Param("id")); err != nil {
		h.writeError(ctx, c, "delete_cv", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"message": processor.MsgCVDeleted})
}

type parseRequest struct {
	Text       string   `json:"text"`
	Hyperlinks []string `json:"hyperlinks"`
}

// ParseCV POST /api/v1/cv/parse，接受 multipart 文件或 JSON 文本，不落库
func (h *Handler) ParseCV(ctx context.Context, c *app.RequestContext) {
	if strings.HasPrefix(string(c.ContentType()), "multipart/") {
		if h.extractor == nil {
			unavailable(c, "文件解析")
			return
		}
		filename, data, ok := readUpload(c)
		if !ok {
			return
		}
		text, links := h.extractor.Extract(ctx, filename, data)
		if strings.TrimSpace(text) == "" {
			c.JSON(consts.StatusUnprocessableEntity, utils.H{"error": processor.MsgExtractionFailed})
			return
		}
		c.JSON(consts.StatusOK, parser.ParseResume(text, links))
		return
	}

	var req parseRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(c, "text 不能为空")
		return
	}
	c.JSON(consts.StatusOK, parser.ParseResume(req.Text, req.Hyperlinks))
}

type matchRequest struct {
	CVID           string `json:"cv_id"`
	CVText         string `json:"cv_text"`
	JobDescription string `json:"job_description"`
}

// Match POST /api/v1/match。给出 cv_id 时使用存储的简历并保存匹配汇总
func (h *Handler) Match(ctx context.Context, c *app.RequestContext) {
	var req matchRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		badRequest(c, "job_description 不能为空")
		return
	}
	if req.CVID == "" && strings.TrimSpace(req.CVText) == "" {
		badRequest(c, "cv_id 和 cv_text 至少提供一个")
		return
	}

	var (
		out *processor.MatchOutcome
		err error
	)
	switch {
	case h.cvs != nil:
		out, err = h.cvs.Match(ctx, h.owner(c), req.CVID, req.CVText, req.JobDescription)
	case req.CVID != "":
		unavailable(c, "简历存储")
		return
	case h.matcher != nil:
		out, err = h.matcher.MatchCVToJob(ctx, req.CVText, req.JobDescription)
	default:
		unavailable(c, "匹配")
		return
	}
	if err != nil {
		h.writeError(ctx, c, "match", err)
		return
	}
	c.JSON(consts.StatusOK, out)
}

type generateRequest struct {
	CVID              string   `json:"cv_id"`
	TemplateID        string   `json:"template_id"`
	ExcludedSections  []string `json:"excluded_sections"`
	CustomSummary     string   `json:"custom_summary"`
	HighlightedSkills []string `json:"highlighted_skills"`
}

// GenerateResume POST /api/v1/resume/generate
func (h *Handler) GenerateResume(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	var req generateRequest
	if err := c.BindJSON(&req); err != nil || req.CVID == "" {
		badRequest(c, "cv_id 不能为空")
		return
	}
	templateID := templates.Normalize(req.TemplateID)
	custom := templates.Customizations{
		ExcludedSections:  req.ExcludedSections,
		CustomSummary:     req.CustomSummary,
		HighlightedSkills: req.HighlightedSkills,
	}
	text, err := h.cvs.GenerateResume(ctx, h.owner(c), req.CVID, templateID, custom)
	if err != nil {
		h.writeError(ctx, c, "generate_resume", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"template_id": templateID, "content": text})
}

type formatRequest struct {
	CVID             string `json:"cv_id"`
	OptimizedContent string `json:"optimized_content"`
	TemplateID       string `json:"template_id"`
}

// FormatOptimizedCV POST /api/v1/resume/format。cv_id 为空时使用最近上传的简历
func (h *Handler) FormatOptimizedCV(ctx context.Context, c *app.RequestContext) {
	if h.cvs == nil {
		unavailable(c, "简历存储")
		return
	}
	var req formatRequest
	if err := c.BindJSON(&req); err != nil || strings.TrimSpace(req.OptimizedContent) == "" {
		badRequest(c, "optimized_content 不能为空")
		return
	}
	templateID := templates.Normalize(req.TemplateID)
	text, err := h.cvs.FormatOptimizedCV(ctx, h.owner(c), req.CVID, req.OptimizedContent, templateID)
	if err != nil {
		h.writeError(ctx, c, "format_optimized_cv", err)
		return
	}
	c.JSON(consts.StatusOK, utils.H{"template_id": templateID, "content": text})
}

type editRequest struct {
	Section string `json:"section"`
	Content string `json:"content"`
	Goal    string `json:"goal"`
}

// EditSection POST /api/v1/resume/ai-edit。模型不可用时原样返回并标记 degraded
func (h *Handler) EditSection(ctx context.Context, c *app.RequestContext) {
	if h.editor == nil {
		unavailable(c, "改写")
		return
	}
	var req editRequest
	if err := c.BindJSON(&req); err != nil {
		badRequest(c, "请求体格式错误")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		badRequest(c, "content 不能为空")
		return
	}
	res := h.editor.EditSection(ctx, req.Section, req.Content, req.Goal)
	c.JSON(consts.StatusOK, utils.H{"section": req.Section, "content": res.Value, "degraded": res.Degraded})
}
