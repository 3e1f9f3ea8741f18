package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cv-agent-go/internal/config"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultEmbeddingModel = "text-embedding-v3"
	defaultEmbeddingURL   = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
)

// AliyunEmbedder 通过 DashScope 的 OpenAI 兼容接口生成向量，实现 embedding.Embedder
type AliyunEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// EmbedderOption 向量化客户端选项
type EmbedderOption func(*AliyunEmbedder)

// WithEmbedderHTTPClient 替换 HTTP 客户端，测试中指向 httptest 服务器
func WithEmbedderHTTPClient(c *http.Client) EmbedderOption {
	return func(a *AliyunEmbedder) {
		a.httpClient = c
	}
}

// WithEmbedderLogger 配置日志记录器
func WithEmbedderLogger(logger zerolog.Logger) EmbedderOption {
	return func(a *AliyunEmbedder) {
		a.logger = logger
	}
}

// NewAliyunEmbedder 创建向量化客户端
func NewAliyunEmbedder(cfg config.EmbeddingConfig, opts ...EmbedderOption) (*AliyunEmbedder, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("API密钥不能为空")
	}
	a := &AliyunEmbedder{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     log.Logger.With().Str("component", "embedder").Logger(),
	}
	if a.model == "" {
		a.model = defaultEmbeddingModel
	}
	if a.baseURL == "" {
		a.baseURL = defaultEmbeddingURL
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Dimensions 返回配置的向量维度
func (a *AliyunEmbedder) Dimensions() int {
	return a.dimensions
}

type embeddingRequest struct {
	Input          any    `json:"input"` // string 或 []string
	Model          string `json:"model"`
	Dimensions     int    `json:"dimensions,omitempty"`
	EncodingFormat string `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

// EmbedStrings 将文本转换为向量，返回顺序与输入一致
func (a *AliyunEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	options := embedding.GetCommonOptions(&embedding.Options{Model: &a.model}, opts...)
	model := a.model
	if options.Model != nil && *options.Model != "" {
		model = *options.Model
	}

	req := embeddingRequest{Model: model, Dimensions: a.dimensions, EncodingFormat: "float"}
	if len(texts) == 1 {
		req.Input = texts[0]
	} else {
		req.Input = texts
	}

	start := time.Now()
	body, err := postJSON(ctx, a.httpClient, a.baseURL, a.apiKey, req)
	if err != nil {
		a.logger.Warn().Err(err).Str("model", model).Int("texts", len(texts)).Msg("向量化请求失败")
		return nil, err
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("解析响应JSON失败: %w", err)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return nil, fmt.Errorf("API返回错误: 类型=%s, 消息='%s', Code=%s", parsed.Error.Type, parsed.Error.Message, parsed.Error.Code)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("向量数量与输入不一致: 期望 %d, 实际 %d", len(texts), len(parsed.Data))
	}

	out := make([][]float64, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("向量索引越界: %d", d.Index)
		}
		out[d.Index] = d.Embedding
	}

	a.logger.Debug().
		Str("model", model).
		Int("texts", len(texts)).
		Int("dim", len(out[0])).
		Str("preview", truncateEmbedding(out[0])).
		Int("total_tokens", parsed.Usage.TotalTokens).
		Dur("duration", time.Since(start)).
		Msg("向量化完成")
	return out, nil
}

// truncateEmbedding 截断向量的字符串表示，只用于日志
func truncateEmbedding(vector []float64) string {
	const maxLen = 6
	const showEachSide = 3

	if len(vector) <= maxLen {
		return fmt.Sprintf("%v", vector)
	}
	parts := make([]string, 0, showEachSide*2+1)
	for i := 0; i < showEachSide; i++ {
		parts = append(parts, fmt.Sprintf("%.4f", vector[i]))
	}
	parts = append(parts, "...")
	for i := len(vector) - showEachSide; i < len(vector); i++ {
		parts = append(parts, fmt.Sprintf("%.4f", vector[i]))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

var _ embedding.Embedder = (*AliyunEmbedder)(nil)
