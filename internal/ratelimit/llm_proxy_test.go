package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cv-agent-go/internal/enrichment"
)

func TestEffectiveQPM(t *testing.T) {
	limits := map[string]int{"qwen-max": 1200, "tiny": 1}

	assert.Equal(t, 1080, EffectiveQPM("qwen-max", limits, 0))
	assert.Equal(t, 1, EffectiveQPM("tiny", limits, 0))
	assert.Equal(t, 50, EffectiveQPM("unknown", limits, 50))
	assert.Equal(t, DefaultQPM, EffectiveQPM("unknown", nil, 0))
}

func TestProxyPassesThrough(t *testing.T) {
	mock := enrichment.NewMockChatModel("hello")
	proxy := NewLLMWithRateLimit(mock, "qwen-max", map[string]int{"qwen-max": 1200}, 0)

	msg, err := proxy.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, 1, mock.Calls())

	bound, err := proxy.WithTools(nil)
	require.NoError(t, err)
	_, err = bound.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	assert.Equal(t, 2, mock.Calls())
}

func TestProxyRespectsContextWhenExhausted(t *testing.T) {
	mock := enrichment.NewMockChatModel("ok")
	proxy := NewRateLimitedLLMModel(mock, 1) // 每分钟 1 次，突发 1

	_, err := proxy.Generate(context.Background(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = proxy.Generate(ctx, nil)
	assert.Error(t, err, "令牌耗尽且上下文即将超时时应返回错误")
	assert.Equal(t, 1, mock.Calls())
}
