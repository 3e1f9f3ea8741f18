// Package assistant 基于已上传简历的检索问答
package assistant

import (
	"context"
	"fmt"
	"strings"

	"cv-agent-go/internal/constants"
	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/types"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NoInformationAnswer 检索不到任何文档时的固定回答
const NoInformationAnswer = "I don't have enough information to answer that question."

const systemAssistant = "You are a helpful career assistant."

// Searcher 按 owner 检索文档，按距离升序返回
type Searcher interface {
	Search(ctx context.Context, ownerID, query string, k int) ([]types.IndexedDocument, error)
}

// Answer 一次问答的结果
type Answer struct {
	SessionID string                  `json:"session_id"`
	Answer    string                  `json:"answer"`
	Sources   []types.IndexedDocument `json:"sources"`
}

// Assistant 检索 top-k 文档作为上下文，结合会话历史让模型作答
type Assistant struct {
	index   Searcher
	adapter *enrichment.Adapter
	memory  ChatMemory
	topK    int
	logger  zerolog.Logger
}

// Option 助手选项
type Option func(*Assistant)

// WithMemory 设置会话历史存储
func WithMemory(m ChatMemory) Option {
	return func(a *Assistant) {
		if m != nil {
			a.memory = m
		}
	}
}

// WithTopK 设置检索文档数
func WithTopK(k int) Option {
	return func(a *Assistant) {
		if k > 0 {
			a.topK = k
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l zerolog.Logger) Option {
	return func(a *Assistant) { a.logger = l }
}

// New 创建助手，默认使用进程内会话历史
func New(index Searcher, adapter *enrichment.Adapter, opts ...Option) (*Assistant, error) {
	if index == nil || adapter == nil {
		return nil, fmt.Errorf("文档索引和适配器不能为空")
	}
	a := &Assistant{
		index:   index,
		adapter: adapter,
		memory:  NewInMemoryChatMemory(20),
		topK:    constants.AssistantTopK,
		logger:  log.Logger.With().Str("component", "assistant").Logger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Ask 回答问题。sessionID 为空时新建会话；会话历史读写失败不影响回答
func (a *Assistant) Ask(ctx context.Context, ownerID, sessionID, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("问题不能为空")
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	logger := a.logger.With().Str("owner_id", ownerID).Str("session_id", sessionID).Logger()

	docs, err := a.index.Search(ctx, ownerID, question, a.topK)
	if err != nil {
		return nil, fmt.Errorf("检索相关文档失败: %w", err)
	}

	out := &Answer{SessionID: sessionID, Sources: docs}
	if len(docs) == 0 {
		out.Answer = NoInformationAnswer
	} else {
		history, err := a.memory.GetHistory(ctx, ownerID, sessionID)
		if err != nil {
			logger.Warn().Err(err).Msg("读取会话历史失败，按新会话处理")
			history = nil
		}
		answer, err := a.adapter.Complete(ctx, "assistant_ask", systemAssistant, askPrompt(docs, history, question))
		if err != nil {
			return nil, fmt.Errorf("生成回答失败: %w", err)
		}
		out.Answer = strings.TrimSpace(answer)
	}

	if err := a.memory.AddMessages(ctx, ownerID, sessionID,
		schema.UserMessage(question), schema.AssistantMessage(out.Answer, nil)); err != nil {
		logger.Warn().Err(err).Msg("写入会话历史失败")
	}
	return out, nil
}

// SimilarCVs 在 owner 的简历中查找与给定文本相近的简历
func (a *Assistant) SimilarCVs(ctx context.Context, ownerID, cvText string, k int) ([]types.IndexedDocument, error) {
	if strings.TrimSpace(cvText) == "" {
		return nil, fmt.Errorf("简历文本不能为空")
	}
	if k <= 0 {
		k = a.topK
	}
	docs, err := a.index.Search(ctx, ownerID, cvText, k)
	if err != nil {
		return nil, fmt.Errorf("检索相似简历失败: %w", err)
	}
	return docs, nil
}

// History 返回会话历史
func (a *Assistant) History(ctx context.Context, ownerID, sessionID string) ([]*schema.Message, error) {
	return a.memory.GetHistory(ctx, ownerID, sessionID)
}

func askPrompt(docs []types.IndexedDocument, history []*schema.Message, question string) string {
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.Text)
	}
	var sb strings.Builder
	sb.WriteString("You are a helpful career assistant. Answer the following question based only on the information provided:\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(texts, "\n\n"))
	sb.WriteString("\n\n")
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, m := range history {
			fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Question: %s\n\nAnswer:", question)
	return sb.String()
}
