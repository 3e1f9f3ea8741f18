package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/tracing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var rabbitTracer = otel.Tracer("cv-agent-go/storage/rabbitmq")

const publishConfirmTimeout = 5 * time.Second

// RabbitMQ 领域事件的发布端。通道放在固定大小的池里复用，每个通道都开启发布确认。
type RabbitMQ struct {
	conn     *amqp.Connection
	channels chan *amqp.Channel
	cfg      *config.RabbitMQConfig
	logger   zerolog.Logger

	mu        sync.Mutex
	exchanges map[string]bool

	poolMu sync.Mutex
	closed bool
}

// NewRabbitMQ 建立连接并声明简历事件交换机
func NewRabbitMQ(cfg *config.RabbitMQConfig) (*RabbitMQ, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, fmt.Errorf("RabbitMQ URL配置不能为空")
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("无法连接到RabbitMQ服务器: %w", err)
	}
	size := cfg.ChannelPoolSize
	if size <= 0 {
		size = 4
	}
	r := &RabbitMQ{
		conn:      conn,
		channels:  make(chan *amqp.Channel, size),
		cfg:       cfg,
		logger:    log.Logger.With().Str("component", "rabbitmq").Logger(),
		exchanges: make(map[string]bool),
	}
	if cfg.CVEventsExchange != "" {
		if err := r.EnsureExchange(cfg.CVEventsExchange, amqp.ExchangeTopic); err != nil {
			_ = conn.Close()
			return nil, err
		}
	}
	r.logger.Info().Str("exchange", cfg.CVEventsExchange).Msg("成功连接到RabbitMQ")
	return r, nil
}

func (r *RabbitMQ) getChannel() (*amqp.Channel, error) {
	select {
	case ch, ok := <-r.channels:
		if ok && !ch.IsClosed() {
			return ch, nil
		}
	default:
	}
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("创建RabbitMQ通道失败: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("开启发布确认失败: %w", err)
	}
	return ch, nil
}

// putChannel 池满或通道已关闭时直接丢弃
func (r *RabbitMQ) putChannel(ch *amqp.Channel) {
	if ch == nil || ch.IsClosed() {
		return
	}
	r.poolMu.Lock()
	defer r.poolMu.Unlock()
	if r.closed {
		_ = ch.Close()
		return
	}
	select {
	case r.channels <- ch:
	default:
		_ = ch.Close()
	}
}

// Close 关闭通道池和连接
func (r *RabbitMQ) Close() error {
	r.poolMu.Lock()
	r.closed = true
	close(r.channels)
	r.poolMu.Unlock()
	for ch := range r.channels {
		_ = ch.Close()
	}
	return r.conn.Close()
}

// EnsureExchange 声明持久化交换机，已声明过的直接返回
func (r *RabbitMQ) EnsureExchange(name, kind string) error {
	if name == "" {
		return fmt.Errorf("exchange名称不能为空")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.exchanges[name] {
		return nil
	}
	ch, err := r.getChannel()
	if err != nil {
		return err
	}
	defer r.putChannel(ch)
	if err := ch.ExchangeDeclare(name, kind, true, false, false, false, nil); err != nil {
		return fmt.Errorf("声明exchange失败: %w", err)
	}
	r.exchanges[name] = true
	return nil
}

// PublishMessage 发布持久化 JSON 消息并等待 broker 确认
func (r *RabbitMQ) PublishMessage(ctx context.Context, exchange, routingKey, messageID string, body []byte) error {
	ctx, span := rabbitTracer.Start(ctx, "RabbitMQ.Publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination.name", exchange),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
			attribute.String("messaging.message_id", messageID),
		))
	defer span.End()

	ch, err := r.getChannel()
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return err
	}
	defer r.putChannel(ch)

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, tableCarrier(headers))

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    messageID,
		Headers:      headers,
		Body:         body,
		Timestamp:    time.Now(),
	})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRabbitMQ)
		return fmt.Errorf("发布消息失败: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, publishConfirmTimeout)
	defer cancel()
	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		tracing.RecordRabbitMQTimeout(span, messageID, publishConfirmTimeout.String())
		return fmt.Errorf("等待发布确认失败: %w", err)
	}
	if !acked {
		tracing.RecordRabbitMQNack(span, messageID, "")
		return fmt.Errorf("消息 %s 未被broker确认", messageID)
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// tableCarrier 让 trace 上下文随消息头传播
type tableCarrier amqp.Table

func (c tableCarrier) Get(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

func (c tableCarrier) Set(key, value string) {
	c[key] = value
}

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
