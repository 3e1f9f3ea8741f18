package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cv-agent-go/internal/api/handler"
	"cv-agent-go/internal/api/router"
	"cv-agent-go/internal/assistant"
	"cv-agent-go/internal/config"
	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/logger"
	"cv-agent-go/internal/matching"
	"cv-agent-go/internal/outbox"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/processor"
	"cv-agent-go/internal/ratelimit"
	"cv-agent-go/internal/storage"
	"cv-agent-go/internal/tracing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzzerolog "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

const assistantTask = "assistant"

func main() {
	var configPath string
	pflag.StringVarP(&configPath, "config", "c", "", "配置文件路径，为空时自动查找")
	pflag.Parse()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}

	_, closeLog, err := logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
		File:         cfg.Logger.File,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化日志失败")
	}
	defer closeLog()
	hlog.SetLogger(hertzzerolog.From(logger.Logger))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, tracing.Settings{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("初始化链路追踪失败，继续运行")
		shutdownTracing = func(context.Context) error { return nil }
	}

	embedder := newEmbedder(cfg)
	st, err := storage.NewStorage(ctx, cfg, embedder)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储失败")
	}
	defer st.Close()

	adapter := newAdapter(cfg, cfg.LLM.Model)
	extractor, err := parser.NewDocumentExtractor(ctx,
		parser.WithExtractorLogger(logger.Component("extractor")),
		parser.WithExtractTimeout(config.GetDuration(cfg.Server.ExtractTimeout, 30*time.Second)),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化文档提取器失败")
	}
	pipeline := processor.NewMatchPipeline(adapter,
		processor.WithWeights(matching.Weights{Tech: cfg.Matching.TechWeight, Soft: cfg.Matching.SoftWeight}))

	deps := handler.Deps{
		Jobs:        newJobService(adapter, st),
		Matcher:     pipeline,
		Editor:      adapter,
		Extractor:   extractor,
		OwnerHeader: cfg.Auth.OwnerHeader,
	}
	if cvs := newCVService(cfg, st, extractor, adapter, pipeline); cvs != nil {
		deps.CVs = cvs
	}
	if asst := newAssistant(cfg, st); asst != nil {
		deps.Assistant = asst
	}

	var relay *outbox.MessageRelay
	if st.MySQL != nil && st.RabbitMQ != nil {
		if err := st.RabbitMQ.EnsureExchange(cfg.RabbitMQ.CVEventsExchange, "topic"); err != nil {
			logger.Warn().Err(err).Msg("声明事件交换机失败")
		}
		relay = outbox.NewMessageRelay(st.MySQL.DB(), st.RabbitMQ,
			outbox.WithPollingInterval(config.GetDuration(cfg.RabbitMQ.RelayInterval, 5*time.Second)),
			outbox.WithBatchSize(cfg.RabbitMQ.RelayBatchSize),
			outbox.WithLogger(logger.Component("outbox_relay")),
		)
		relay.Start()
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(cfg.Server.MaxUploadMB<<20),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	router.RegisterRoutes(h, handler.New(deps), cfg.Auth.APIKey)

	go func() {
		logger.Info().Str("address", cfg.Server.Address).Msg("HTTP 服务启动")
		if err := h.Run(); err != nil {
			logger.Fatal().Err(err).Msg("启动HTTP服务器失败")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("接收到终止信号，正在优雅退出...")

	if relay != nil {
		relay.Stop()
	}
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ExitWaitSecond)*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("关闭链路追踪失败")
	}
	logger.Info().Msg("优雅退出完成")
}

// newChatModel 未配置 API Key 时返回 nil，适配器对所有调用降级
func newChatModel(cfg *config.Config, modelName string) model.ToolCallingChatModel {
	if cfg.LLM.APIKey == "" {
		logger.Warn().Msg("未配置 LLM_API_KEY，语义增强全部降级为静态结果")
		return nil
	}
	m, err := parser.NewOpenAIChatModel(cfg.LLM,
		parser.WithChatModelName(modelName),
		parser.WithChatLogger(logger.Component("chat_model")))
	if err != nil {
		logger.Warn().Err(err).Msg("初始化对话模型失败")
		return nil
	}
	return ratelimit.NewLLMWithRateLimit(m, modelName, cfg.LLM.QPMLimits, cfg.LLM.DefaultQPM)
}

func newAdapter(cfg *config.Config, modelName string) *enrichment.Adapter {
	return enrichment.NewAdapter(newChatModel(cfg, modelName),
		enrichment.WithLogger(logger.Component("enrichment")),
		enrichment.WithCallTimeout(cfg.LLMTimeout()),
		enrichment.WithRetryPolicy(config.GetDuration(cfg.LLM.RetryWait, 2*time.Second), cfg.LLM.MaxRetries),
	)
}

func newEmbedder(cfg *config.Config) embedding.Embedder {
	if cfg.Embedding.APIKey == "" {
		logger.Warn().Msg("未配置向量化 API Key，文档索引和助手不可用")
		return nil
	}
	e, err := parser.NewAliyunEmbedder(cfg.Embedding, parser.WithEmbedderLogger(logger.Component("embedder")))
	if err != nil {
		logger.Warn().Err(err).Msg("初始化向量化模型失败")
		return nil
	}
	return e
}

func newCVService(cfg *config.Config, st *storage.Storage, extractor processor.TextExtractor,
	adapter *enrichment.Adapter, pipeline *processor.MatchPipeline) *processor.CVService {
	if st.MySQL == nil {
		logger.Warn().Msg("MySQL 不可用，简历存储相关接口返回 503")
		return nil
	}
	opts := []processor.CVOption{
		processor.WithEventRouting(processor.EventRouting{
			Exchange:    cfg.RabbitMQ.CVEventsExchange,
			UploadedKey: cfg.RabbitMQ.UploadedRoutingKey,
			MatchedKey:  cfg.RabbitMQ.MatchedRoutingKey,
		}),
		processor.WithMaxCVsPerOwner(cfg.Server.MaxCVsPerOwner),
		processor.WithCVLogger(logger.Component("cv_service")),
	}
	if st.Qdrant != nil {
		opts = append(opts, processor.WithDocumentIndex(st.Qdrant))
	}
	if st.MinIO != nil {
		opts = append(opts, processor.WithObjectStore(st.MinIO))
	}
	if st.Redis != nil {
		opts = append(opts, processor.WithDedupCache(st.Redis))
	}
	svc, err := processor.NewCVService(st.MySQL, extractor, adapter, pipeline, opts...)
	if err != nil {
		logger.Warn().Err(err).Msg("初始化简历服务失败")
		return nil
	}
	return svc
}

func newJobService(adapter *enrichment.Adapter, st *storage.Storage) *processor.JobService {
	opts := []processor.JobOption{processor.WithJobLogger(logger.Component("job_service"))}
	if st.Redis != nil {
		opts = append(opts, processor.WithAnalysisCache(st.Redis))
	}
	if st.MySQL != nil {
		opts = append(opts, processor.WithJobStore(st.MySQL))
	}
	return processor.NewJobService(adapter, opts...)
}

// newAssistant 助手可以通过 llm.task_models.assistant 使用单独的模型
func newAssistant(cfg *config.Config, st *storage.Storage) *assistant.Assistant {
	if st.Qdrant == nil {
		logger.Warn().Msg("Qdrant 不可用，助手接口返回 503")
		return nil
	}
	opts := []assistant.Option{assistant.WithLogger(logger.Component("assistant"))}
	if st.Redis != nil {
		mem, err := assistant.NewRedisChatMemory(st.Redis.Client, st.Redis.ChatMemoryTTL(), cfg.Redis.ChatMemoryMaxMessages)
		if err == nil {
			opts = append(opts, assistant.WithMemory(mem))
		}
	} else {
		opts = append(opts, assistant.WithMemory(assistant.NewInMemoryChatMemory(cfg.Redis.ChatMemoryMaxMessages)))
	}
	asst, err := assistant.New(st.Qdrant, newAdapter(cfg, cfg.GetModelForTask(assistantTask)), opts...)
	if err != nil {
		logger.Warn().Err(err).Msg("初始化助手失败")
		return nil
	}
	return asst
}
