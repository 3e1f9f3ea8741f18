package storage

import (
	"context"
	"fmt"
	"strings"

	"cv-agent-go/internal/config"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog/log"
)

// Storage 存储管理器，聚合所有存储相关依赖。未配置或初始化失败的组件为 nil。
type Storage struct {
	MinIO    *MinIO
	RabbitMQ *RabbitMQ
	Qdrant   *Qdrant
	MySQL    *MySQL
	Redis    *Redis
}

// NewStorage 按配置初始化各存储组件。单个组件失败只记录警告，
// 只有在配置过的组件全部失败时才返回错误。embedder 为 nil 时跳过 Qdrant。
func NewStorage(ctx context.Context, cfg *config.Config, embedder embedding.Embedder) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	logger := log.Logger.With().Str("component", "storage").Logger()
	s := &Storage{}
	var configured, failed []string

	try := func(name string, enabled bool, init func() error) {
		if !enabled {
			logger.Info().Str("store", name).Msg("未配置，跳过初始化")
			return
		}
		configured = append(configured, name)
		if err := init(); err != nil {
			logger.Warn().Err(err).Str("store", name).Msg("初始化失败")
			failed = append(failed, fmt.Sprintf("%s: %v", name, err))
		}
	}

	try("mysql", cfg.MySQL.Host != "", func() (err error) {
		s.MySQL, err = NewMySQL(&cfg.MySQL)
		return err
	})
	try("redis", cfg.Redis.Address != "", func() (err error) {
		s.Redis, err = NewRedisAdapter(&cfg.Redis)
		return err
	})
	try("minio", cfg.MinIO.Endpoint != "", func() (err error) {
		s.MinIO, err = NewMinIO(&cfg.MinIO)
		return err
	})
	try("rabbitmq", cfg.RabbitMQ.URL != "", func() (err error) {
		s.RabbitMQ, err = NewRabbitMQ(&cfg.RabbitMQ)
		return err
	})
	try("qdrant", cfg.Qdrant.Endpoint != "" && embedder != nil, func() (err error) {
		opts := []QdrantOption{WithQdrantLogger(log.Logger.With().Str("component", "qdrant").Logger())}
		if cfg.Qdrant.Distance != "" {
			opts = append(opts, WithDistanceMetric(cfg.Qdrant.Distance))
		}
		s.Qdrant, err = NewQdrant(&cfg.Qdrant, embedder, opts...)
		return err
	})

	if len(configured) > 0 && len(failed) == len(configured) {
		return nil, fmt.Errorf("所有存储组件初始化失败: %s", strings.Join(failed, "; "))
	}
	_ = ctx
	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	logger := log.Logger.With().Str("component", "storage").Logger()
	if s.RabbitMQ != nil {
		if err := s.RabbitMQ.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭RabbitMQ连接失败")
		}
	}
	if s.MySQL != nil {
		if err := s.MySQL.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭MySQL连接失败")
		}
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Error().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
