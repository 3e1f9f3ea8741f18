package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType 错误分类，写入 span 的 error.type 属性
type ErrorType string

const (
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeRabbitMQ   ErrorType = "rabbitmq"
	ErrorTypeVectorDB   ErrorType = "vector_db"
	ErrorTypeLLM        ErrorType = "llm"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external_system"
	ErrorTypeTimeout    ErrorType = "timeout"
)

func markFailed(span trace.Span, errorType ErrorType, msg string, attrs ...attribute.KeyValue) {
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", TruncateString(msg, DefaultMaxLength)),
	)
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	span.SetStatus(codes.Error, msg)
}

// RecordError 记录错误并把 span 标记为失败，可附加额外属性
func RecordError(span trace.Span, err error, errorType ErrorType, attrs ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	markFailed(span, errorType, err.Error(), attrs...)
}

// RecordHTTPError 记录外部 HTTP 调用的错误，按状态码区分客户端/服务端错误
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	if span == nil || err == nil {
		return
	}
	category := "unknown"
	switch {
	case statusCode >= 500:
		category = "server_error"
	case statusCode >= 400:
		category = "client_error"
	}
	span.RecordError(err)
	markFailed(span, ErrorTypeHTTP, err.Error(),
		attribute.Int("http.status_code", statusCode),
		attribute.String("error.category", category),
	)
}

// RecordRabbitMQNack broker 返回 nack
func RecordRabbitMQNack(span trace.Span, messageID string, reason string) {
	if span == nil {
		return
	}
	if reason == "" {
		reason = "message not acknowledged by broker"
	}
	markFailed(span, ErrorTypeRabbitMQ, reason, rabbitAttrs(messageID, "nack")...)
}

// RecordRabbitMQTimeout 等待 publisher confirm 超时
func RecordRabbitMQTimeout(span trace.Span, messageID string, timeout string) {
	if span == nil {
		return
	}
	markFailed(span, ErrorTypeRabbitMQ, "confirm timeout after "+timeout, rabbitAttrs(messageID, "timeout")...)
}

func rabbitAttrs(messageID, kind string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("messaging.message_id", messageID),
		attribute.String("messaging.error_type", kind),
		attribute.Bool("messaging.rabbitmq.confirmed", false),
	}
}
