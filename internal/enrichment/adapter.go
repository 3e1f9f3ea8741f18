// Package enrichment 把生成式模型包装成带超时、重试、JSON 解析和静态兜底的语义分析接口。
// 所有操作都不返回错误：失败时返回兜底值并把结果标记为 Degraded。
package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultCallTimeout = 60 * time.Second
	defaultMaxRetries  = 2
	defaultRetryDelay  = 2 * time.Second
)

// ErrNoJSON 模型输出中找不到 JSON
var ErrNoJSON = errors.New("无法从模型响应中提取有效的JSON")

// Result 一次语义分析的结果。Degraded 为 true 时 Value 是兜底值。
type Result[T any] struct {
	Value    T
	Degraded bool
}

func ok[T any](v T) Result[T]       { return Result[T]{Value: v} }
func degraded[T any](v T) Result[T] { return Result[T]{Value: v, Degraded: true} }

// Adapter 语义增强适配器。只持有不可变配置，可并发使用。
type Adapter struct {
	model      model.ToolCallingChatModel
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	logger     zerolog.Logger
}

// Option 适配器选项
type Option func(*Adapter)

// WithLogger 配置日志记录器
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithCallTimeout 单次模型调用超时
func WithCallTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithRetryPolicy 首次重试等待 delay，之后每次翻倍，最多 maxRetries 次
func WithRetryPolicy(delay time.Duration, maxRetries int) Option {
	return func(a *Adapter) {
		if delay >= 0 {
			a.retryDelay = delay
		}
		if maxRetries >= 0 {
			a.maxRetries = maxRetries
		}
	}
}

// NewAdapter 创建适配器
func NewAdapter(m model.ToolCallingChatModel, opts ...Option) *Adapter {
	a := &Adapter{
		model:      m,
		timeout:    defaultCallTimeout,
		maxRetries: defaultMaxRetries,
		retryDelay: defaultRetryDelay,
		logger:     log.Logger.With().Str("component", "enrichment").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Complete 发送 system + user 两条消息并返回文本回复，带超时和重试
func (a *Adapter) Complete(ctx context.Context, task, system, user string) (string, error) {
	if a.model == nil {
		return "", fmt.Errorf("未配置模型")
	}
	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	var (
		resp  *schema.Message
		err   error
		delay = a.retryDelay
	)
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("上下文已取消: %w", ctx.Err())
			case <-time.After(delay):
				delay *= 2
			}
			a.logger.Debug().Str("task", task).Int("attempt", attempt).Msg("重试模型调用")
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		resp, err = a.model.Generate(callCtx, messages)
		cancel()

		if err == nil {
			break
		}
		if !isRetryableError(err) {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("调用模型失败(%s): %w", task, err)
	}
	if resp == nil {
		return "", fmt.Errorf("模型返回空消息(%s)", task)
	}
	return resp.Content, nil
}

// generateJSON 调用模型并把回复中的 JSON 解码到 T
func generateJSON[T any](ctx context.Context, a *Adapter, task, system, user string) (T, error) {
	var out T
	content, err := a.Complete(ctx, task, system, user)
	if err != nil {
		return out, err
	}
	raw := extractJSON(content)
	if raw == "" {
		return out, fmt.Errorf("%s: %w", task, ErrNoJSON)
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		if err2 := json.Unmarshal([]byte(sanitizeJSON(raw)), &out); err2 != nil {
			return out, fmt.Errorf("解析%s JSON失败: %w", task, err)
		}
	}
	return out, nil
}

// warn 记录降级日志
func (a *Adapter) warn(task string, err error) {
	a.logger.Warn().Err(err).Str("task", task).Msg("语义分析失败，使用兜底结果")
}

// isRetryableError 只对网络和限流类错误重试
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, s := range []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"eof",
		"connection refused",
		"no such host",
		"429",
		"rate limit",
		"502",
		"503",
		"服务器繁忙",
	} {
		if strings.Contains(errStr, s) {
			return true
		}
	}
	return false
}
