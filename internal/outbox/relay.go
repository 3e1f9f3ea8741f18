// Package outbox 实现发件箱模式：业务记录与事件在同一事务中落库，由中继异步投递
package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cv-agent-go/internal/storage/models"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPollingInterval = 5 * time.Second
	defaultBatchSize       = 10
	maxRetryCount          = 5
)

// 事件类型
const (
	EventCVUploaded = "cv.uploaded"
	EventCVMatched  = "cv.matched"
)

// Publisher 消息发布器，由 storage.RabbitMQ 实现
type Publisher interface {
	PublishMessage(ctx context.Context, exchange, routingKey, messageID string, body []byte) error
}

// NewEvent 构造一条待投递的发件箱消息，payload 序列化为 JSON
func NewEvent(ownerID, aggregateID, eventType, exchange, routingKey string, payload any) (*models.OutboxMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("序列化事件 %s 失败: %w", eventType, err)
	}
	return &models.OutboxMessage{
		OwnerID:          ownerID,
		AggregateID:      aggregateID,
		EventType:        eventType,
		Payload:          string(body),
		TargetExchange:   exchange,
		TargetRoutingKey: routingKey,
		Status:           models.OutboxStatusPending,
	}, nil
}

// MessageRelay 轮询 outbox 表并把待处理消息发布到 RabbitMQ
type MessageRelay struct {
	db              *gorm.DB
	publisher       Publisher
	logger          zerolog.Logger
	pollingInterval time.Duration
	batchSize       int
	tracer          trace.Tracer

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// Option 中继选项
type Option func(*MessageRelay)

// WithPollingInterval 设置轮询间隔
func WithPollingInterval(d time.Duration) Option {
	return func(r *MessageRelay) {
		if d > 0 {
			r.pollingInterval = d
		}
	}
}

// WithBatchSize 设置每批最多处理的消息数
func WithBatchSize(n int) Option {
	return func(r *MessageRelay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(l zerolog.Logger) Option {
	return func(r *MessageRelay) { r.logger = l }
}

// NewMessageRelay 创建中继
func NewMessageRelay(db *gorm.DB, publisher Publisher, opts ...Option) *MessageRelay {
	r := &MessageRelay{
		db:              db,
		publisher:       publisher,
		logger:          log.Logger.With().Str("component", "outbox_relay").Logger(),
		pollingInterval: defaultPollingInterval,
		batchSize:       defaultBatchSize,
		tracer:          otel.Tracer("cv-agent-go/outbox"),
		done:            make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start 在后台 goroutine 中开始轮询
func (r *MessageRelay) Start() {
	r.logger.Info().Dur("interval", r.pollingInterval).Int("batch_size", r.batchSize).Msg("发件箱中继启动")
	ticker := time.NewTicker(r.pollingInterval)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				r.logger.Info().Msg("发件箱中继已停止")
				return
			case <-ticker.C:
				if err := r.processPendingMessages(context.Background()); err != nil {
					r.logger.Error().Err(err).Msg("处理待发送消息失败")
				}
			}
		}
	}()
}

// Stop 停止轮询并等待当前批次结束，可重复调用
func (r *MessageRelay) Stop() {
	r.stopOnce.Do(func() { close(r.done) })
	r.wg.Wait()
}

// processPendingMessages 锁定一批 PENDING 消息，投递后在同一事务内更新状态。
// SKIP LOCKED 保证多实例不会重复拾取同一行。
func (r *MessageRelay) processPendingMessages(ctx context.Context) error {
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	var messages []models.OutboxMessage
	err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", models.OutboxStatusPending).
		Order("created_at asc").
		Limit(r.batchSize).
		Find(&messages).Error
	if err != nil {
		return fmt.Errorf("查询待发送消息失败: %w", err)
	}
	// 空轮询不创建 span
	if len(messages) == 0 {
		return tx.Commit().Error
	}

	ctx, span := r.tracer.Start(ctx, "outbox.ProcessBatch",
		trace.WithAttributes(attribute.Int("messaging.batch.message_count", len(messages))))
	defer span.End()

	for _, i := range r.deliver(ctx, messages) {
		if err := tx.Save(&messages[i]).Error; err != nil {
			// 回滚后这批消息保持 PENDING，下次轮询重新拾取
			return fmt.Errorf("更新发件箱消息 %d 失败: %w", messages[i].ID, err)
		}
	}
	return tx.Commit().Error
}

// deliver 逐条发布并就地更新状态字段，返回被修改的下标
func (r *MessageRelay) deliver(ctx context.Context, messages []models.OutboxMessage) []int {
	touched := make([]int, 0, len(messages))
	for i := range messages {
		msg := &messages[i]
		err := r.publisher.PublishMessage(ctx, msg.TargetExchange, msg.TargetRoutingKey,
			strconv.FormatUint(msg.ID, 10), []byte(msg.Payload))
		if err != nil {
			msg.RetryCount++
			msg.ErrorMessage = err.Error()
			if msg.RetryCount >= maxRetryCount {
				msg.Status = models.OutboxStatusFailed
			}
			r.logger.Warn().Err(err).
				Uint64("message_id", msg.ID).
				Str("owner_id", msg.OwnerID).
				Str("aggregate_id", msg.AggregateID).
				Str("event_type", msg.EventType).
				Int("retries", msg.RetryCount).
				Msg("发布发件箱消息失败")
		} else {
			now := time.Now()
			msg.Status = models.OutboxStatusSent
			msg.ProcessedAt = &now
			msg.ErrorMessage = ""
		}
		touched = append(touched, i)
	}
	return touched
}
