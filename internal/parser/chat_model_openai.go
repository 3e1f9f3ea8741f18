package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cv-agent-go/internal/config"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultChatBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultChatModel   = "qwen-turbo"
)

// OpenAIChatModel 调用 OpenAI 兼容的 /chat/completions 接口，实现 model.ToolCallingChatModel。
// 只支持非流式调用。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	endpoint    string
	temperature float32
	maxTokens   int
	httpClient  *http.Client
	tools       []openAITool
	logger      zerolog.Logger
}

// ChatModelOption 对话模型选项
type ChatModelOption func(*OpenAIChatModel)

// WithChatHTTPClient 替换 HTTP 客户端
func WithChatHTTPClient(c *http.Client) ChatModelOption {
	return func(m *OpenAIChatModel) {
		m.httpClient = c
	}
}

// WithChatLogger 配置日志记录器
func WithChatLogger(logger zerolog.Logger) ChatModelOption {
	return func(m *OpenAIChatModel) {
		m.logger = logger
	}
}

// WithChatModelName 覆盖配置中的模型名，用于按任务选择模型
func WithChatModelName(name string) ChatModelOption {
	return func(m *OpenAIChatModel) {
		if name != "" {
			m.modelName = name
		}
	}
}

// NewOpenAIChatModel 创建对话模型客户端
func NewOpenAIChatModel(cfg config.LLMConfig, opts ...ChatModelOption) (*OpenAIChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultChatBaseURL
	}
	m := &OpenAIChatModel{
		apiKey:      cfg.APIKey,
		modelName:   cfg.Model,
		endpoint:    base + "/chat/completions",
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		logger:      log.Logger.With().Str("component", "chat_model").Logger(),
	}
	if m.modelName == "" {
		m.modelName = defaultChatModel
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// ModelName 当前使用的模型名，限流器按它查 QPM
func (m *OpenAIChatModel) ModelName() string {
	return m.modelName
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	Temperature *float32        `json:"temperature,omitempty"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	TopP        *float32        `json:"top_p,omitempty"`
	Stop        []string        `json:"stop,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

// Generate 发送一次非流式对话请求
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	base := &model.Options{Model: &m.modelName}
	if m.temperature > 0 {
		base.Temperature = &m.temperature
	}
	if m.maxTokens > 0 {
		base.MaxTokens = &m.maxTokens
	}
	options := model.GetCommonOptions(base, opts...)

	req := chatCompletionRequest{
		Model:       m.modelName,
		Messages:    toOpenAIMessages(messages),
		Tools:       m.tools,
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
		TopP:        options.TopP,
		Stop:        options.Stop,
	}
	if options.Model != nil && *options.Model != "" {
		req.Model = *options.Model
	}

	start := time.Now()
	body, err := postJSON(ctx, m.httpClient, m.endpoint, m.apiKey, req)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if resp.Error != nil && resp.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("从 API 收到空选项")
	}

	m.logger.Debug().
		Str("model", req.Model).
		Int("messages", len(messages)).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", resp.Choices[0].FinishReason).
		Dur("duration", time.Since(start)).
		Msg("模型调用完成")

	return fromOpenAIMessage(resp.Choices[0].Message), nil
}

// Stream 未实现
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("OpenAIChatModel 不支持流式调用")
}

// WithTools 返回绑定了工具的新实例，原实例不变
func (m *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound := make([]openAITool, 0, len(tools))
	for _, ti := range tools {
		if ti == nil {
			continue
		}
		fn := openAIFunction{Name: ti.Name, Description: ti.Desc}
		if ti.ParamsOneOf != nil {
			s, err := ti.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("转换工具 %s 参数失败: %w", ti.Name, err)
			}
			raw, err := json.Marshal(s)
			if err != nil {
				return nil, fmt.Errorf("序列化工具 %s 参数失败: %w", ti.Name, err)
			}
			fn.Parameters = raw
		} else {
			fn.Parameters = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		bound = append(bound, openAITool{Type: "function", Function: fn})
	}
	clone := *m
	clone.tools = bound
	return &clone, nil
}

func toOpenAIMessages(messages []*schema.Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		content := msg.Content
		om := openAIMessage{
			Role:       string(msg.Role),
			Content:    &content,
			Name:       msg.Name,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			call := openAIToolCall{ID: tc.ID, Type: "function"}
			call.Function.Name = tc.Function.Name
			call.Function.Arguments = tc.Function.Arguments
			om.ToolCalls = append(om.ToolCalls, call)
		}
		out = append(out, om)
	}
	return out
}

func fromOpenAIMessage(om openAIMessage) *schema.Message {
	msg := &schema.Message{Role: schema.RoleType(om.Role)}
	if om.Content != nil {
		msg.Content = *om.Content
	}
	if msg.Role == "" {
		msg.Role = schema.Assistant
	}
	for _, tc := range om.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, schema.ToolCall{
			ID: tc.ID,
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		})
	}
	return msg
}

var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
