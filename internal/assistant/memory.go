package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cv-agent-go/internal/constants"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"
)

// ChatMemory 会话历史存储。会话按 owner 隔离，不存在的会话返回空切片。
type ChatMemory interface {
	GetHistory(ctx context.Context, ownerID, sessionID string) ([]*schema.Message, error)
	AddMessages(ctx context.Context, ownerID, sessionID string, messages ...*schema.Message) error
	ClearHistory(ctx context.Context, ownerID, sessionID string) error
}

func validateMessages(messages []*schema.Message) error {
	for _, m := range messages {
		if m == nil {
			return errors.New("不能写入空消息")
		}
	}
	return nil
}

// InMemoryChatMemory 进程内实现，Redis 不可用时使用。只保留最近 maxMessages 条
type InMemoryChatMemory struct {
	mu          sync.RWMutex
	histories   map[string][]*schema.Message
	maxMessages int
}

// NewInMemoryChatMemory maxMessages <= 0 表示不限制
func NewInMemoryChatMemory(maxMessages int) *InMemoryChatMemory {
	return &InMemoryChatMemory{
		histories:   make(map[string][]*schema.Message),
		maxMessages: maxMessages,
	}
}

func memoryKey(ownerID, sessionID string) string {
	return fmt.Sprintf(constants.KeyChatHistory, ownerID, sessionID)
}

// GetHistory 返回历史的副本
func (m *InMemoryChatMemory) GetHistory(_ context.Context, ownerID, sessionID string) ([]*schema.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	history := m.histories[memoryKey(ownerID, sessionID)]
	cpy := make([]*schema.Message, len(history))
	copy(cpy, history)
	return cpy, nil
}

// AddMessages 追加消息并裁剪到上限
func (m *InMemoryChatMemory) AddMessages(_ context.Context, ownerID, sessionID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if err := validateMessages(messages); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := memoryKey(ownerID, sessionID)
	history := append(m.histories[key], messages...)
	if m.maxMessages > 0 && len(history) > m.maxMessages {
		history = append([]*schema.Message(nil), history[len(history)-m.maxMessages:]...)
	}
	m.histories[key] = history
	return nil
}

// ClearHistory 删除会话
func (m *InMemoryChatMemory) ClearHistory(_ context.Context, ownerID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.histories, memoryKey(ownerID, sessionID))
	return nil
}

// RedisChatMemory 每个会话一个 LIST，元素为 JSON 序列化的消息。
// 每次写入刷新 TTL，并用 LTRIM 只保留最近 maxMessages 条。
type RedisChatMemory struct {
	client      redis.Cmdable
	ttl         time.Duration
	maxMessages int
}

// NewRedisChatMemory ttl 为 0 时不过期，maxMessages <= 0 时不裁剪
func NewRedisChatMemory(client redis.Cmdable, ttl time.Duration, maxMessages int) (*RedisChatMemory, error) {
	if client == nil {
		return nil, errors.New("redis client 不能为空")
	}
	return &RedisChatMemory{client: client, ttl: ttl, maxMessages: maxMessages}, nil
}

// GetHistory 读取会话历史
func (r *RedisChatMemory) GetHistory(ctx context.Context, ownerID, sessionID string) ([]*schema.Message, error) {
	raw, err := r.client.LRange(ctx, memoryKey(ownerID, sessionID), 0, -1).Result()
	if errors.Is(err, redis.Nil) {
		return []*schema.Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取会话 %s 历史失败: %w", sessionID, err)
	}
	out := make([]*schema.Message, 0, len(raw))
	for _, item := range raw {
		var msg schema.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("解析会话 %s 历史消息失败: %w", sessionID, err)
		}
		out = append(out, &msg)
	}
	return out, nil
}

// AddMessages 在一个事务流水线中追加、裁剪并刷新过期时间
func (r *RedisChatMemory) AddMessages(ctx context.Context, ownerID, sessionID string, messages ...*schema.Message) error {
	if len(messages) == 0 {
		return nil
	}
	if err := validateMessages(messages); err != nil {
		return err
	}
	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		b, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("序列化会话消息失败: %w", err)
		}
		values = append(values, b)
	}

	key := memoryKey(ownerID, sessionID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	if r.maxMessages > 0 {
		pipe.LTrim(ctx, key, int64(-r.maxMessages), -1)
	}
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("写入会话 %s 历史失败: %w", sessionID, err)
	}
	return nil
}

// ClearHistory 删除会话
func (r *RedisChatMemory) ClearHistory(ctx context.Context, ownerID, sessionID string) error {
	if err := r.client.Del(ctx, memoryKey(ownerID, sessionID)).Err(); err != nil {
		return fmt.Errorf("清除会话 %s 历史失败: %w", sessionID, err)
	}
	return nil
}
