// Package handler HTTP 接口层，把请求转换为服务调用并把业务错误映射为状态码
package handler

import (
	"context"
	"errors"

	"cv-agent-go/internal/assistant"
	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/processor"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/templates"
	"cv-agent-go/internal/types"

	"github.com/cloudwego/eino/schema"
	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CVService 简历相关操作，依赖记录存储
type CVService interface {
	Upload(ctx context.Context, ownerID, filename string, data []byte) (*processor.UploadOutcome, error)
	List(ctx context.Context, ownerID string) ([]models.CVRecord, error)
	Get(ctx context.Context, ownerID, id string) (*models.CVRecord, error)
	File(ctx context.Context, ownerID, id string) (*models.CVRecord, []byte, error)
	Delete(ctx context.Context, ownerID, id string) error
	GenerateResume(ctx context.Context, ownerID, id, templateID string, c templates.Customizations) (string, error)
	FormatOptimizedCV(ctx context.Context, ownerID, id, optimizedContent, templateID string) (string, error)
	Match(ctx context.Context, ownerID, cvID, cvText, jobText string) (*processor.MatchOutcome, error)
}

// JobService 职位搜索和岗位描述解析
type JobService interface {
	Search(ctx context.Context, query, location string) ([]types.Job, error)
	AnalyzeJobDescription(ctx context.Context, text string) (*processor.JobAnalysis, error)
	SaveJobDescription(ctx context.Context, ownerID, text string) (*models.JobDescriptionRecord, error)
}

// Assistant 检索问答
type Assistant interface {
	Ask(ctx context.Context, ownerID, sessionID, question string) (*assistant.Answer, error)
	SimilarCVs(ctx context.Context, ownerID, cvText string, k int) ([]types.IndexedDocument, error)
	History(ctx context.Context, ownerID, sessionID string) ([]*schema.Message, error)
}

// Matcher 不落库的匹配
type Matcher interface {
	MatchCVToJob(ctx context.Context, cvText, jobText string) (*processor.MatchOutcome, error)
}

// SectionEditor 章节改写
type SectionEditor interface {
	EditSection(ctx context.Context, section, content, goal string) enrichment.Result[string]
}

// Deps Handler 的依赖。CVs 和 Assistant 依赖外部存储，未配置时为空，对应接口返回 503
type Deps struct {
	CVs       CVService
	Jobs      JobService
	Assistant Assistant
	Matcher   Matcher
	Editor    SectionEditor
	Extractor processor.TextExtractor

	// OwnerHeader 携带用户标识的请求头，默认 X-Owner-ID
	OwnerHeader string
	Logger      *zerolog.Logger
}

// Handler 全部 HTTP 接口
type Handler struct {
	cvs         CVService
	jobs        JobService
	assistant   Assistant
	matcher     Matcher
	editor      SectionEditor
	extractor   processor.TextExtractor
	ownerHeader string
	logger      zerolog.Logger
}

// New 创建 Handler
func New(d Deps) *Handler {
	h := &Handler{
		cvs:         d.CVs,
		jobs:        d.Jobs,
		assistant:   d.Assistant,
		matcher:     d.Matcher,
		editor:      d.Editor,
		extractor:   d.Extractor,
		ownerHeader: d.OwnerHeader,
		logger:      log.Logger.With().Str("component", "http_handler").Logger(),
	}
	if h.ownerHeader == "" {
		h.ownerHeader = "X-Owner-ID"
	}
	if d.Logger != nil {
		h.logger = *d.Logger
	}
	return h
}

// Health GET /api/v1/health
func (h *Handler) Health(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status": "ok",
		"components": utils.H{
			"cv_store":  h.cvs != nil,
			"assistant": h.assistant != nil,
		},
	})
}

// owner 读取请求头中的用户标识，缺省为匿名用户
func (h *Handler) owner(c *app.RequestContext) string {
	if v := string(c.GetHeader(h.ownerHeader)); v != "" {
		return v
	}
	return constants.DefaultOwnerID
}

func badRequest(c *app.RequestContext, msg string) {
	c.JSON(consts.StatusBadRequest, utils.H{"error": msg})
}

func unavailable(c *app.RequestContext, what string) {
	c.JSON(consts.StatusServiceUnavailable, utils.H{"error": what + "未启用"})
}

// statusOf 业务错误分类到 HTTP 状态码
func statusOf(code processor.ErrorCode) int {
	switch code {
	case processor.CodeInvalidInput:
		return consts.StatusBadRequest
	case processor.CodeExtractionFailed:
		return consts.StatusUnprocessableEntity
	case processor.CodeNotFound:
		return consts.StatusNotFound
	case processor.CodeUnavailable:
		return consts.StatusServiceUnavailable
	default:
		return consts.StatusInternalServerError
	}
}

// writeError 按错误分类返回，内部错误不把细节暴露给调用方
func (h *Handler) writeError(ctx context.Context, c *app.RequestContext, op string, err error) {
	code := processor.CodeOf(err)
	status := statusOf(code)
	msg := "服务内部错误"
	var pe *processor.ProcessingError
	if errors.As(err, &pe) && code != processor.CodeInternal {
		msg = pe.Message
	}
	evt := h.logger.Warn()
	if status >= consts.StatusInternalServerError {
		evt = h.logger.Error()
	}
	evt.Err(err).Str("op", op).Int("status", status).Msg("请求处理失败")
	c.JSON(status, utils.H{"error": msg, "code": string(code)})
}
