package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cv-agent-go/internal/config"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/tracing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound 记录不存在
var ErrNotFound = errors.New("记录不存在")

// 并发上传相同内容或同名文件时，由唯一索引兜底拒绝
var (
	ErrDuplicateContent  = errors.New("同一用户已存在相同内容的简历")
	ErrDuplicateFilename = errors.New("同一用户已存在同名简历")
)

const mysqlErrDuplicateEntry = 1062

// duplicateCVError 把唯一索引冲突映射为对应的哨兵错误，其他错误原样返回
func duplicateCVError(err error) error {
	var me *mysqldriver.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlErrDuplicateEntry {
		return err
	}
	switch {
	case strings.Contains(me.Message, "idx_cv_owner_md5"):
		return fmt.Errorf("%w: %v", ErrDuplicateContent, err)
	case strings.Contains(me.Message, "idx_cv_owner_filename"):
		return fmt.Errorf("%w: %v", ErrDuplicateFilename, err)
	}
	return err
}

var mysqlTracer = otel.Tracer("cv-agent-go/storage/mysql")

type spanContextKey struct{}

// GormTracingPlugin 为每条 GORM 操作创建一个 client span
type GormTracingPlugin struct {
	tracer         trace.Tracer
	dbName         string
	disableErrSkip bool
}

// Name 返回插件名称
func (p *GormTracingPlugin) Name() string {
	return "GormOpenTelemetryPlugin"
}

// Initialize 注册GORM回调以启用追踪
func (p *GormTracingPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	steps := []struct {
		name     string
		op       string
		register func(name, op string) error
	}{
		{"create", "CREATE", func(name, op string) error {
			if err := cb.Create().Before("gorm:create").Register("otel:before_"+name, p.before(op)); err != nil {
				return err
			}
			return cb.Create().After("gorm:create").Register("otel:after_"+name, p.after())
		}},
		{"query", "SELECT", func(name, op string) error {
			if err := cb.Query().Before("gorm:query").Register("otel:before_"+name, p.before(op)); err != nil {
				return err
			}
			return cb.Query().After("gorm:query").Register("otel:after_"+name, p.after())
		}},
		{"update", "UPDATE", func(name, op string) error {
			if err := cb.Update().Before("gorm:update").Register("otel:before_"+name, p.before(op)); err != nil {
				return err
			}
			return cb.Update().After("gorm:update").Register("otel:after_"+name, p.after())
		}},
		{"delete", "DELETE", func(name, op string) error {
			if err := cb.Delete().Before("gorm:delete").Register("otel:before_"+name, p.before(op)); err != nil {
				return err
			}
			return cb.Delete().After("gorm:delete").Register("otel:after_"+name, p.after())
		}},
		{"row", "ROW", func(name, op string) error {
			if err := cb.Row().Before("gorm:row").Register("otel:before_"+name, p.before(op)); err != nil {
				return err
			}
			return cb.Row().After("gorm:row").Register("otel:after_"+name, p.after())
		}},
		{"raw", "RAW", func(name, op string) error {
			if err := cb.Raw().Before("gorm:raw").Register("otel:before_"+name, p.before(op)); err != nil {
				return err
			}
			return cb.Raw().After("gorm:raw").Register("otel:after_"+name, p.after())
		}},
	}
	for _, s := range steps {
		if err := s.register(s.name, s.op); err != nil {
			return fmt.Errorf("注册%s追踪回调失败: %w", s.name, err)
		}
	}
	return nil
}

func (p *GormTracingPlugin) before(operation string) func(db *gorm.DB) {
	return func(db *gorm.DB) {
		if p.disableErrSkip && db.Statement.SkipHooks {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		newCtx, span := p.tracer.Start(ctx, fmt.Sprintf("%s %s", operation, table),
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(
				semconv.DBSystemMySQL,
				attribute.String("db.name", p.dbName),
				attribute.String("db.operation", operation),
				attribute.String("db.sql.table", table),
			))
		db.Statement.Context = context.WithValue(newCtx, spanContextKey{}, span)
	}
}

func (p *GormTracingPlugin) after() func(db *gorm.DB) {
	return func(db *gorm.DB) {
		span, ok := db.Statement.Context.Value(spanContextKey{}).(trace.Span)
		if !ok {
			return
		}
		defer span.End()

		span.SetAttributes(
			attribute.Int64("db.rows_affected", db.Statement.RowsAffected),
			attribute.String("db.statement", tracing.SafeSQL(db.Statement.SQL.String())),
		)
		switch {
		case db.Error == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(db.Error, gorm.ErrRecordNotFound):
			// 查不到是正常业务分支
			span.SetAttributes(attribute.String("error.type", "record_not_found"))
			span.SetStatus(codes.Ok, "record not found")
		default:
			span.SetAttributes(attribute.String("error.type", "database_error"))
			span.RecordError(db.Error)
			span.SetStatus(codes.Error, db.Error.Error())
		}
	}
}

// NewGormTracingPlugin 创建一个新的GORM追踪插件
func NewGormTracingPlugin(dbName string) *GormTracingPlugin {
	return &GormTracingPlugin{
		tracer:         mysqlTracer,
		dbName:         dbName,
		disableErrSkip: true,
	}
}

// MySQL 简历、岗位描述、匹配汇总和发件箱的记录存储
type MySQL struct {
	db     *gorm.DB
	cfg    *config.MySQLConfig
	logger zerolog.Logger
}

// NewMySQL 连接 MySQL、注册追踪插件并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
		cfg.ConnectTimeoutSeconds, cfg.ReadTimeoutSeconds, cfg.WriteTimeoutSeconds)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:                              true,
		NowFunc:                                  func() time.Time { return time.Now().Local() },
	})
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}
	return newMySQLFromDB(db, cfg)
}

func newMySQLFromDB(db *gorm.DB, cfg *config.MySQLConfig) (*MySQL, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTimeMinutes) * time.Minute)

	if err := db.Use(NewGormTracingPlugin(cfg.Database)); err != nil {
		return nil, fmt.Errorf("注册追踪插件失败: %w", err)
	}

	m := &MySQL{
		db:     db,
		cfg:    cfg,
		logger: log.Logger.With().Str("component", "mysql").Logger(),
	}
	if err := m.autoMigrateSchema(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}
	m.logger.Info().Str("database", cfg.Database).Msg("成功连接到MySQL并完成表结构迁移")
	return m, nil
}

func gormLogLevel(level int) logger.LogLevel {
	switch level {
	case 1:
		return logger.Silent
	case 2:
		return logger.Error
	case 3:
		return logger.Warn
	default:
		return logger.Info
	}
}

// autoMigrateSchema 迁移时关闭 SQL 日志
func (m *MySQL) autoMigrateSchema() error {
	silent := m.db.Session(&gorm.Session{Logger: logger.Default.LogMode(logger.Silent)})
	if err := silent.AutoMigrate(
		&models.CVRecord{},
		&models.JobDescriptionRecord{},
		&models.MatchSummaryRecord{},
		&models.OutboxMessage{},
	); err != nil {
		return fmt.Errorf("GORM自动迁移失败: %w", err)
	}
	return nil
}

// DB 返回GORM数据库连接实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	return sqlDB.Close()
}

// CreateCV 在同一事务中写入简历记录和发件箱事件，event 可为 nil
func (m *MySQL) CreateCV(ctx context.Context, rec *models.CVRecord, event *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("写入简历记录失败: %w", duplicateCVError(err))
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("写入outbox记录失败: %w", err)
			}
		}
		return nil
	})
}

// GetCV 按 owner 和 id 读取简历
func (m *MySQL) GetCV(ctx context.Context, ownerID, id string) (*models.CVRecord, error) {
	var rec models.CVRecord
	err := m.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("查询简历失败: %w", err)
	}
	return &rec, nil
}

// ListCVs 按上传时间倒序列出 owner 的简历
func (m *MySQL) ListCVs(ctx context.Context, ownerID string) ([]models.CVRecord, error) {
	var recs []models.CVRecord
	if err := m.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("查询简历列表失败: %w", err)
	}
	return recs, nil
}

// DeleteCV 删除简历，不存在时返回 ErrNotFound
func (m *MySQL) DeleteCV(ctx context.Context, ownerID, id string) error {
	res := m.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.CVRecord{})
	if res.Error != nil {
		return fmt.Errorf("删除简历失败: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CVExistsByContentMD5 同一 owner 是否已上传过相同内容
func (m *MySQL) CVExistsByContentMD5(ctx context.Context, ownerID, md5Hex string) (bool, error) {
	return m.exists(ctx, &models.CVRecord{}, "owner_id = ? AND content_md5 = ?", ownerID, md5Hex)
}

// CVExistsByFilename 同一 owner 是否已有同名文件
func (m *MySQL) CVExistsByFilename(ctx context.Context, ownerID, filename string) (bool, error) {
	return m.exists(ctx, &models.CVRecord{}, "owner_id = ? AND filename = ?", ownerID, filename)
}

func (m *MySQL) exists(ctx context.Context, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := m.db.WithContext(ctx).Model(model).Where(query, args...).Limit(1).Count(&count).Error; err != nil {
		return false, fmt.Errorf("查询记录是否存在失败: %w", err)
	}
	return count > 0, nil
}

// SaveJobDescription 保存岗位描述
func (m *MySQL) SaveJobDescription(ctx context.Context, rec *models.JobDescriptionRecord) error {
	if err := m.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("保存岗位描述失败: %w", err)
	}
	return nil
}

// SaveMatchSummary 在同一事务中写入匹配汇总和发件箱事件
func (m *MySQL) SaveMatchSummary(ctx context.Context, rec *models.MatchSummaryRecord, event *models.OutboxMessage) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("保存匹配汇总失败: %w", err)
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return fmt.Errorf("写入outbox记录失败: %w", err)
			}
		}
		return nil
	})
}
