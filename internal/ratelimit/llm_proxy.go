package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"
)

const (
	// DefaultQPM 模型未配置 QPM 时使用
	DefaultQPM = 30
	// SafetyFactor 只使用配置限额的 90%
	SafetyFactor = 0.9
)

// RateLimitedLLMModel 对模型调用限流的代理。重试由调用方负责。
type RateLimitedLLMModel struct {
	original model.ToolCallingChatModel
	limiter  *rate.Limiter
}

// NewRateLimitedLLMModel 按每分钟请求数创建限流代理，突发容量为 QPM 的一半
func NewRateLimitedLLMModel(original model.ToolCallingChatModel, qpm int) *RateLimitedLLMModel {
	if qpm <= 0 {
		qpm = DefaultQPM
	}
	burst := qpm / 2
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedLLMModel{
		original: original,
		limiter:  rate.NewLimiter(rate.Every(time.Minute/time.Duration(qpm)), burst),
	}
}

// NewLLMWithRateLimit 根据模型名查找 QPM 限额并包装模型。
// 找到限额时取 90% 作为安全值，否则使用 fallbackQPM，仍为 0 时使用 DefaultQPM。
func NewLLMWithRateLimit(original model.ToolCallingChatModel, modelName string, limits map[string]int, fallbackQPM int) *RateLimitedLLMModel {
	return NewRateLimitedLLMModel(original, EffectiveQPM(modelName, limits, fallbackQPM))
}

// EffectiveQPM 计算实际生效的 QPM
func EffectiveQPM(modelName string, limits map[string]int, fallbackQPM int) int {
	if q, ok := limits[modelName]; ok && q > 0 {
		if safe := int(float64(q) * SafetyFactor); safe > 0 {
			return safe
		}
		return 1
	}
	if fallbackQPM > 0 {
		return fallbackQPM
	}
	return DefaultQPM
}

// Generate 等待令牌后调用原模型
func (rl *RateLimitedLLMModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := rl.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("等待限流令牌失败: %w", err)
	}
	return rl.original.Generate(ctx, messages, opts...)
}

// Stream 等待令牌后调用原模型
func (rl *RateLimitedLLMModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("等待限流令牌失败: %w", err)
	}
	return rl.original.Stream(ctx, messages, opts...)
}

// WithTools 返回绑定工具后的代理，与原代理共享同一个限流器
func (rl *RateLimitedLLMModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RateLimitedLLMModel{original: m, limiter: rl.limiter}, nil
}

var _ model.ToolCallingChatModel = (*RateLimitedLLMModel)(nil)
