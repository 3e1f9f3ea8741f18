package router

import (
	"testing"

	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/processor"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newRouter(apiKey string) *server.Hertz {
	nop := zerolog.Nop()
	adapter := enrichment.NewAdapter(nil, enrichment.WithLogger(nop))
	hd := handler.New(handler.Deps{
		Jobs:   processor.NewJobService(adapter, processor.WithJobLogger(nop)),
		Logger: &nop,
	})
	h := server.New()
	RegisterRoutes(h, hd, apiKey)
	return h
}

func TestAPIKeyRequired(t *testing.T) {
	h := newRouter("secret")

	w := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/search?query=designer", nil)
	assert.Equal(t, 401, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/search?query=designer", nil,
		ut.Header{Key: APIKeyHeader, Value: "wrong"})
	assert.Equal(t, 401, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/search?query=designer", nil,
		ut.Header{Key: APIKeyHeader, Value: "secret"})
	assert.Equal(t, 200, w.Result().StatusCode())
}

func TestHealthIsPublic(t *testing.T) {
	h := newRouter("secret")
	w := ut.PerformRequest(h.Engine, "GET", "/api/v1/health", nil)
	assert.Equal(t, 200, w.Result().StatusCode())
}

func TestNoAPIKeyConfigured(t *testing.T) {
	h := newRouter("")
	w := ut.PerformRequest(h.Engine, "GET", "/api/v1/jobs/search?query=designer", nil)
	assert.Equal(t, 200, w.Result().StatusCode())

	w = ut.PerformRequest(h.Engine, "GET", "/api/v1/cv", nil)
	assert.Equal(t, 503, w.Result().StatusCode())
}

func TestFormatRouteRegistered(t *testing.T) {
	h := newRouter("")
	w := ut.PerformRequest(h.Engine, "POST", "/api/v1/resume/format", nil)
	assert.Equal(t, 503, w.Result().StatusCode(), "the route exists and reports the missing store")
}
