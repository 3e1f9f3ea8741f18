package processor

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/outbox"
	"cv-agent-go/internal/parser"
	"cv-agent-go/internal/storage"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/templates"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
)

// CVService 简历上传、查询、删除、生成和匹配。记录存储是唯一可信来源，
// 文档索引、对象存储和 Redis 都是可选的旁路，它们的失败只记录日志。
type CVService struct {
	store     CVStore
	extractor TextExtractor
	adapter   *enrichment.Adapter
	pipeline  *MatchPipeline

	index   DocumentIndex
	objects ObjectStore
	dedup   DedupCache
	events  EventRouting
	maxCVs  int
	logger  zerolog.Logger
}

// NewCVService 创建简历服务
func NewCVService(store CVStore, extractor TextExtractor, adapter *enrichment.Adapter, pipeline *MatchPipeline, opts ...CVOption) (*CVService, error) {
	if store == nil {
		return nil, ErrStoreUnavailable
	}
	if extractor == nil || adapter == nil || pipeline == nil {
		return nil, fmt.Errorf("extractor、adapter 和 pipeline 不能为空")
	}
	s := &CVService{
		store:     store,
		extractor: extractor,
		adapter:   adapter,
		pipeline:  pipeline,
		logger:    log.Logger.With().Str("component", "cv_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ContentMD5 简历文本的 MD5，用于按内容去重
func ContentMD5(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

type uploadedEvent struct {
	CVID       string `json:"cv_id"`
	OwnerID    string `json:"owner_id"`
	Filename   string `json:"filename"`
	SkillCount int    `json:"skill_count"`
}

type matchedEvent struct {
	SummaryID               string  `json:"summary_id"`
	OwnerID                 string  `json:"owner_id"`
	CVID                    string  `json:"cv_id,omitempty"`
	MatchPercentage         float64 `json:"match_percentage"`
	WeightedMatchPercentage float64 `json:"weighted_match_percentage"`
	Degraded                bool    `json:"degraded"`
}

// Upload 提取文本、去重、解析并保存一份简历。
// 同一 owner 的内容重复或文件名重复时返回对应的 UploadOutcome，不算错误。
func (s *CVService) Upload(ctx context.Context, ownerID, filename string, data []byte) (*UploadOutcome, error) {
	if strings.TrimSpace(ownerID) == "" || strings.TrimSpace(filename) == "" {
		return nil, newError(CodeInvalidInput, "upload", "owner 和文件名不能为空", ErrInvalidInput)
	}
	ctx, span := tracer.Start(ctx, "processor.UploadCV", trace.WithAttributes(
		attribute.String("cv.owner_id", tracing.SafeAttributeValue("owner_id", ownerID, tracing.DefaultMaxLength)),
		attribute.String("cv.filename", tracing.TruncateString(filename, tracing.DefaultMaxLength)),
		attribute.Int("cv.size", len(data)),
	))
	defer span.End()
	logger := s.logger.With().Str("owner_id", ownerID).Str("filename", filename).Logger()

	if s.maxCVs > 0 {
		existing, err := s.store.ListCVs(ctx, ownerID)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeDB)
			return nil, newError(CodeInternal, "upload", "查询已有简历失败", err)
		}
		if len(existing) >= s.maxCVs {
			logger.Info().Int("count", len(existing)).Msg("简历数量已达上限")
			return &UploadOutcome{Status: UploadLimitReached, Message: fmt.Sprintf(MsgLimitReached, s.maxCVs)}, nil
		}
	}

	text, links := s.extractor.Extract(ctx, filename, data)
	if strings.TrimSpace(text) == "" {
		err := newError(CodeExtractionFailed, "upload", MsgExtractionFailed, ErrExtractionFailed)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	md5Hex := ContentMD5(text)

	cachedMD5 := false
	if s.dedup != nil {
		hit, err := s.dedup.CheckAndAddContentMD5(ctx, ownerID, md5Hex)
		switch {
		case err != nil:
			logger.Warn().Err(err).Msg("Redis MD5 去重检查失败，直接查询记录存储")
		case hit:
			logger.Debug().Str("md5", md5Hex).Msg("Redis 命中重复内容，由记录存储确认")
		default:
			cachedMD5 = true
		}
	}
	release := func() {
		if !cachedMD5 {
			return
		}
		if err := s.dedup.RemoveContentMD5(ctx, ownerID, md5Hex); err != nil {
			logger.Warn().Err(err).Msg("回滚 Redis MD5 记录失败")
		}
	}

	exists, err := s.store.CVExistsByContentMD5(ctx, ownerID, md5Hex)
	if err != nil {
		release()
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, newError(CodeInternal, "upload", "查询重复内容失败", err)
	}
	if exists {
		logger.Info().Str("md5", md5Hex).Msg("重复内容上传")
		return &UploadOutcome{Status: UploadDuplicateContent, Message: MsgDuplicateContent}, nil
	}

	exists, err = s.store.CVExistsByFilename(ctx, ownerID, filename)
	if err != nil {
		release()
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, newError(CodeInternal, "upload", "查询重复文件名失败", err)
	}
	if exists {
		release()
		logger.Info().Msg("重复文件名上传")
		return &UploadOutcome{Status: UploadDuplicateFilename, Message: MsgDuplicateFilename}, nil
	}

	profile := parser.ParseResume(text, links)
	skills := s.adapter.EnhanceSkills(ctx, profile.NormalizedSkills())
	if skills.Degraded {
		logger.Warn().Msg("技能扩展降级，使用解析出的技能")
	}

	id, err := uuid.NewV7()
	if err != nil {
		release()
		return nil, newError(CodeInternal, "upload", "生成简历ID失败", err)
	}
	rec := &models.CVRecord{
		ID:          id.String(),
		OwnerID:     ownerID,
		Filename:    filename,
		Content:     text,
		ContentMD5:  md5Hex,
		Summary:     profile.Summary,
		Hyperlinks:  mustJSON(links),
		Skills:      mustJSON(skills.Value),
		ContentType: storage.ContentTypeFor(filename),
	}

	if s.objects != nil {
		key, err := s.objects.PutCVFile(ctx, ownerID, rec.ID, filename, data)
		if err != nil {
			logger.Warn().Err(err).Msg("保存原始简历文件失败，继续保存记录")
		} else {
			rec.ObjectKey = key
		}
	}

	event, err := s.event(rec.OwnerID, rec.ID, outbox.EventCVUploaded, s.events.UploadedKey, uploadedEvent{
		CVID: rec.ID, OwnerID: ownerID, Filename: filename, SkillCount: len(skills.Value),
	})
	if err != nil {
		logger.Warn().Err(err).Msg("构造上传事件失败，跳过事件")
	}

	if err := s.store.CreateCV(ctx, rec, event); err != nil {
		s.removeObject(ctx, rec.ObjectKey)
		// 并发的相同上传都通过了前置检查，由唯一索引裁决
		switch {
		case errors.Is(err, storage.ErrDuplicateContent):
			logger.Info().Str("md5", md5Hex).Msg("并发上传重复内容")
			return &UploadOutcome{Status: UploadDuplicateContent, Message: MsgDuplicateContent}, nil
		case errors.Is(err, storage.ErrDuplicateFilename):
			release()
			logger.Info().Msg("并发上传重复文件名")
			return &UploadOutcome{Status: UploadDuplicateFilename, Message: MsgDuplicateFilename}, nil
		}
		release()
		tracing.RecordError(span, err, tracing.ErrorTypeDB)
		return nil, newError(CodeInternal, "upload", "保存简历失败", err)
	}

	if s.index != nil {
		if _, err := s.index.Add(ctx, ownerID, text, rec.ID); err != nil {
			logger.Warn().Err(err).Str("cv_id", rec.ID).Msg("写入文档索引失败，记录已保存")
		}
	}

	span.SetAttributes(attribute.String("cv.id", rec.ID))
	logger.Info().Str("cv_id", rec.ID).Int("skills", len(skills.Value)).Msg("简历上传完成")
	return &UploadOutcome{Status: UploadCreated, Message: MsgUploaded, CV: rec}, nil
}

// List 按上传时间倒序列出 owner 的简历
func (s *CVService) List(ctx context.Context, ownerID string) ([]models.CVRecord, error) {
	recs, err := s.store.ListCVs(ctx, ownerID)
	if err != nil {
		return nil, newError(CodeInternal, "list", "查询简历列表失败", err)
	}
	return recs, nil
}

// Get 读取一份简历，不存在时返回 CodeNotFound
func (s *CVService) Get(ctx context.Context, ownerID, id string) (*models.CVRecord, error) {
	rec, err := s.store.GetCV(ctx, ownerID, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newError(CodeNotFound, "get", MsgCVNotFound, ErrCVNotFound)
	}
	if err != nil {
		return nil, newError(CodeInternal, "get", "查询简历失败", err)
	}
	return rec, nil
}

// File 读取上传时保存的原始文件
func (s *CVService) File(ctx context.Context, ownerID, id string) (*models.CVRecord, []byte, error) {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	if s.objects == nil || rec.ObjectKey == "" {
		return nil, nil, newError(CodeNotFound, "file", MsgFileUnavailable, ErrFileUnavailable)
	}
	data, err := s.objects.GetCVFile(ctx, rec.ObjectKey)
	if err != nil {
		return nil, nil, newError(CodeInternal, "file", "读取原始文件失败", err)
	}
	return rec, data, nil
}

// Delete 删除简历。索引、缓存和原始文件的清理失败只记录日志
func (s *CVService) Delete(ctx context.Context, ownerID, id string) error {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}
	logger := s.logger.With().Str("owner_id", ownerID).Str("cv_id", id).Logger()

	if s.index != nil {
		if err := s.index.Delete(ctx, id); err != nil {
			logger.Warn().Err(err).Msg("删除文档索引失败")
		}
	}
	if err := s.store.DeleteCV(ctx, ownerID, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return newError(CodeNotFound, "delete", MsgCVNotFound, ErrCVNotFound)
		}
		return newError(CodeInternal, "delete", "删除简历失败", err)
	}
	if s.dedup != nil {
		if err := s.dedup.RemoveContentMD5(ctx, ownerID, rec.ContentMD5); err != nil {
			logger.Warn().Err(err).Msg("删除 Redis MD5 记录失败")
		}
	}
	s.removeObject(ctx, rec.ObjectKey)
	logger.Info().Msg("简历已删除")
	return nil
}

// ParseFile 提取并解析上传文件，不落库
func (s *CVService) ParseFile(ctx context.Context, filename string, data []byte) (types.CandidateProfile, error) {
	text, links := s.extractor.Extract(ctx, filename, data)
	if strings.TrimSpace(text) == "" {
		return types.CandidateProfile{}, newError(CodeExtractionFailed, "parse", MsgExtractionFailed, ErrExtractionFailed)
	}
	return parser.ParseResume(text, links), nil
}

// GenerateResume 用存储的内容和超链接重新解析，再按模板渲染
func (s *CVService) GenerateResume(ctx context.Context, ownerID, id, templateID string, c templates.Customizations) (string, error) {
	rec, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	var links, skills []string
	if err := unmarshalJSON(rec.Hyperlinks, &links); err != nil {
		s.logger.Warn().Err(err).Str("cv_id", id).Msg("解析存储的超链接失败")
	}
	if err := unmarshalJSON(rec.Skills, &skills); err != nil {
		s.logger.Warn().Err(err).Str("cv_id", id).Msg("解析存储的技能失败")
	}
	profile := parser.ParseResume(rec.Content, links)
	return templates.Render(templateID, templates.FromProfile(profile, rec.Summary, skills), c), nil
}

// FormatOptimizedCV 把匹配流程产出的优化简历切分章节，套用模板输出。
// 抬头和技能取自存储的简历；id 为空时使用 owner 最近上传的一份
func (s *CVService) FormatOptimizedCV(ctx context.Context, ownerID, id, optimizedContent, templateID string) (string, error) {
	if strings.TrimSpace(optimizedContent) == "" {
		return "", newError(CodeInvalidInput, "format_optimized", "优化后的简历内容不能为空", ErrInvalidInput)
	}
	rec, err := s.latestOrGet(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	var links, skills []string
	if err := unmarshalJSON(rec.Hyperlinks, &links); err != nil {
		s.logger.Warn().Err(err).Str("cv_id", rec.ID).Msg("解析存储的超链接失败")
	}
	if err := unmarshalJSON(rec.Skills, &skills); err != nil {
		s.logger.Warn().Err(err).Str("cv_id", rec.ID).Msg("解析存储的技能失败")
	}
	data := templates.FromProfile(parser.ParseResume(rec.Content, links), rec.Summary, skills)
	return templates.RenderOptimized(templateID, data.Contact, data.Skills, templates.SplitOptimized(optimizedContent)), nil
}

func (s *CVService) latestOrGet(ctx context.Context, ownerID, id string) (*models.CVRecord, error) {
	if id != "" {
		return s.Get(ctx, ownerID, id)
	}
	recs, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, newError(CodeNotFound, "format_optimized", MsgCVNotFound, ErrCVNotFound)
	}
	return &recs[0], nil
}

// EditSection 让模型改写某个章节，失败时返回原文和降级标记
func (s *CVService) EditSection(ctx context.Context, section, content, goal string) (string, bool) {
	res := s.adapter.EditSection(ctx, section, content, goal)
	return res.Value, res.Degraded
}

// Match 对存储的简历（cvID）或直接给出的文本做匹配，并保存汇总分数。
// 汇总保存失败不影响返回的匹配结果。
func (s *CVService) Match(ctx context.Context, ownerID, cvID, cvText, jobText string) (*MatchOutcome, error) {
	if cvID != "" {
		rec, err := s.Get(ctx, ownerID, cvID)
		if err != nil {
			return nil, err
		}
		cvText = rec.Content
	}
	out, err := s.pipeline.MatchCVToJob(ctx, cvText, jobText)
	if err != nil {
		return nil, err
	}
	if ownerID != "" {
		s.saveSummary(ctx, ownerID, cvID, jobText, out)
	}
	return out, nil
}

func (s *CVService) saveSummary(ctx context.Context, ownerID, cvID, jobText string, out *MatchOutcome) {
	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Warn().Err(err).Msg("生成匹配汇总ID失败")
		return
	}
	rec := &models.MatchSummaryRecord{
		ID:                      id.String(),
		OwnerID:                 ownerID,
		JobMD5:                  ContentMD5(strings.TrimSpace(jobText)),
		MatchPercentage:         out.MatchResult.MatchPercentage,
		WeightedMatchPercentage: out.MatchResult.WeightedMatchPercentage,
		ATSScore:                out.Analysis.ATSScore,
		CompetitiveScore:        out.Analysis.CompetitiveScore,
		Degraded:                out.Degraded,
		DegradedStages:          mustJSON(out.DegradedStages),
	}
	if cvID != "" {
		rec.CVID = &cvID
	}
	event, err := s.event(rec.OwnerID, rec.ID, outbox.EventCVMatched, s.events.MatchedKey, matchedEvent{
		SummaryID:               rec.ID,
		OwnerID:                 ownerID,
		CVID:                    cvID,
		MatchPercentage:         rec.MatchPercentage,
		WeightedMatchPercentage: rec.WeightedMatchPercentage,
		Degraded:                rec.Degraded,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("构造匹配事件失败，跳过事件")
	}
	if err := s.store.SaveMatchSummary(ctx, rec, event); err != nil {
		s.logger.Warn().Err(err).Str("owner_id", ownerID).Msg("保存匹配汇总失败")
	}
}

func (s *CVService) event(ownerID, aggregateID, eventType, routingKey string, payload any) (*models.OutboxMessage, error) {
	if s.events.Exchange == "" || routingKey == "" {
		return nil, nil
	}
	return outbox.NewEvent(ownerID, aggregateID, eventType, s.events.Exchange, routingKey, payload)
}

func (s *CVService) removeObject(ctx context.Context, key string) {
	if s.objects == nil || key == "" {
		return
	}
	if err := s.objects.DeleteCVFile(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("object_key", key).Msg("删除原始简历文件失败")
	}
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

func unmarshalJSON(raw datatypes.JSON, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
