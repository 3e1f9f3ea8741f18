package router

import (
	"context"
	"crypto/subtle"
	"time"

	"cv-agent-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// APIKeyHeader 携带 API Key 的请求头
const APIKeyHeader = "X-API-Key"

// RegisterRoutes 注册 API 路由。apiKey 为空时不做鉴权，仅用于本地调试
func RegisterRoutes(h *server.Hertz, hd *handler.Handler, apiKey string) {
	h.Use(AccessLog())

	api := h.Group("/api/v1")
	api.GET("/health", hd.Health)

	secured := api.Group("")
	if apiKey != "" {
		secured.Use(APIKeyAuth(apiKey))
	} else {
		hlog.Warn("未配置 API Key，接口不做鉴权")
	}

	cv := secured.Group("/cv")
	cv.POST("/upload", hd.UploadCV)
	cv.POST("/parse", hd.ParseCV)
	cv.GET("", hd.ListCVs)
	cv.GET("/:id", hd.GetCV)
	cv.GET("/:id/file", hd.DownloadCV)
	cv.DELETE("/:id", hd.DeleteCV)

	secured.POST("/match", hd.Match)

	jobs := secured.Group("/jobs")
	jobs.GET("/search", hd.SearchJobs)
	jobs.POST("/analyze", hd.AnalyzeJob)

	resume := secured.Group("/resume")
	resume.POST("/generate", hd.GenerateResume)
	resume.POST("/format", hd.FormatOptimizedCV)
	resume.POST("/ai-edit", hd.EditSection)

	assistant := secured.Group("/assistant")
	assistant.POST("/ask", hd.Ask)
	assistant.POST("/similar", hd.SimilarCVs)
	assistant.GET("/history/:session_id", hd.History)
}

// APIKeyAuth 校验 X-API-Key 请求头
func APIKeyAuth(apiKey string) app.HandlerFunc {
	expected := []byte(apiKey)
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), expected) == 1, nil
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "API Key 无效或缺失"})
		}),
	)
}

// AccessLog 记录每个请求的方法、路径、状态码和耗时
func AccessLog() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		c.Next(ctx)
		hlog.CtxInfof(ctx, "%s %s status=%d latency=%s",
			string(c.Method()), string(c.Path()), c.Response.StatusCode(), time.Since(start))
	}
}
