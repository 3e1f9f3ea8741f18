package enrichment

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockResponse MockChatModel 的一次预设响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 测试和离线运行用的 model.ToolCallingChatModel。
// 设置了 Responder 时按最后一条 user 消息生成回复，否则按顺序返回 Responses，
// 用完后重复最后一条。
type MockChatModel struct {
	Responder func(system, user string) (string, error)
	Responses []MockResponse

	mu       sync.Mutex
	calls    int
	received [][]*schema.Message
}

// NewMockChatModel 按顺序返回给定内容
func NewMockChatModel(contents ...string) *MockChatModel {
	m := &MockChatModel{}
	for _, c := range contents {
		m.Responses = append(m.Responses, MockResponse{Content: c})
	}
	return m
}

// Generate 返回预设响应
func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.received = append(m.received, input)
	idx := m.calls
	m.calls++
	m.mu.Unlock()

	if m.Responder != nil {
		var system, user string
		for _, msg := range input {
			switch msg.Role {
			case schema.System:
				system = msg.Content
			case schema.User:
				user = msg.Content
			}
		}
		content, err := m.Responder(system, user)
		if err != nil {
			return nil, err
		}
		return schema.AssistantMessage(content, nil), nil
	}

	if len(m.Responses) == 0 {
		return nil, errors.New("mock model has no responses configured")
	}
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1
	}
	resp := m.Responses[idx]
	if resp.Error != nil {
		return nil, resp.Error
	}
	return schema.AssistantMessage(resp.Content, nil), nil
}

// Stream 未实现
func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("streaming not implemented in MockChatModel")
}

// WithTools 忽略工具，返回自身
func (m *MockChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

// Calls 已收到的调用次数
func (m *MockChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Received 返回每次调用收到的消息
func (m *MockChatModel) Received() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]*schema.Message, len(m.received))
	copy(out, m.received)
	return out
}

var _ model.ToolCallingChatModel = (*MockChatModel)(nil)
