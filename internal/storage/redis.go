package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

var redisTracer = otel.Tracer("cv-agent-go/storage/redis")

// checkAndAddScript 原子地检查成员是否存在并加入集合，返回 1 表示已存在
var checkAndAddScript = redis.NewScript(`
	local exists = redis.call('SISMEMBER', KEYS[1], ARGV[1])
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('EXPIRE', KEYS[1], ARGV[2])
	return exists
`)

// Redis 去重集合、JD 分析缓存和会话历史的载体
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedisAdapter 创建带 OpenTelemetry 钩子的 Redis 客户端并检查连通性
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis配置不能为空")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis地址不能为空")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("注册Redis追踪钩子失败: %w", err)
	}

	r := &Redis{Client: client, config: cfg}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		return nil, fmt.Errorf("连接Redis %s 失败: %w", cfg.Address, err)
	}
	return r, nil
}

// Close 关闭连接
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping 检查连接
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis客户端未初始化")
	}
	return r.Client.Ping(ctx).Err()
}

// MD5ExpireDuration 去重集合的过期时间，默认一年
func (r *Redis) MD5ExpireDuration() time.Duration {
	days := r.config.MD5RecordExpireDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// JDCacheTTL JD 分析缓存的过期时间
func (r *Redis) JDCacheTTL() time.Duration {
	if r.config.JDCacheTTLHours > 0 {
		return time.Duration(r.config.JDCacheTTLHours) * time.Hour
	}
	return constants.JDCacheDuration
}

// ChatMemoryTTL 助手会话历史的过期时间
func (r *Redis) ChatMemoryTTL() time.Duration {
	if r.config.ChatMemoryTTLHours > 0 {
		return time.Duration(r.config.ChatMemoryTTLHours) * time.Hour
	}
	return constants.ChatMemoryTTL
}

// CheckAndAddContentMD5 检查并登记 owner 的简历内容 MD5
func (r *Redis) CheckAndAddContentMD5(ctx context.Context, ownerID, md5Hex string) (exists bool, err error) {
	key := fmt.Sprintf(constants.KeyCVContentMD5Set, ownerID)
	ctx, span := redisTracer.Start(ctx, "Redis.CheckAndAddContentMD5",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemRedis,
			attribute.String("db.operation", "EVALSHA"),
			attribute.String("db.redis.key", key),
			attribute.String("db.redis.member", md5Hex),
		))
	defer span.End()

	if r.Client == nil {
		err = fmt.Errorf("redis客户端未初始化")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	res, err := checkAndAddScript.Run(ctx, r.Client, []string{key}, md5Hex, int64(r.MD5ExpireDuration().Seconds())).Int64()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("执行原子检查和添加操作失败: %w", err)
	}
	exists = res == 1
	span.SetAttributes(attribute.Bool("already_exists", exists))
	span.SetStatus(codes.Ok, "")
	return exists, nil
}

// RemoveContentMD5 从 owner 的去重集合中移除 MD5
func (r *Redis) RemoveContentMD5(ctx context.Context, ownerID, md5Hex string) error {
	key := fmt.Sprintf(constants.KeyCVContentMD5Set, ownerID)
	if err := r.Client.SRem(ctx, key, md5Hex).Err(); err != nil {
		return fmt.Errorf("从集合中移除MD5失败: %w", err)
	}
	return nil
}

// GetJobAnalysis 读取 JD 分析缓存，未命中时 ok 为 false
func (r *Redis) GetJobAnalysis(ctx context.Context, md5Hex string) (data []byte, ok bool, err error) {
	data, err = r.Client.Get(ctx, fmt.Sprintf(constants.KeyJobAnalysis, md5Hex)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取JD分析缓存失败: %w", err)
	}
	return data, true, nil
}

// SetJobAnalysis 写入 JD 分析缓存
func (r *Redis) SetJobAnalysis(ctx context.Context, md5Hex string, data []byte) error {
	if err := r.Client.Set(ctx, fmt.Sprintf(constants.KeyJobAnalysis, md5Hex), data, r.JDCacheTTL()).Err(); err != nil {
		return fmt.Errorf("写入JD分析缓存失败: %w", err)
	}
	return nil
}
