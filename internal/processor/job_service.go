package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/storage/models"
	"cv-agent-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// mockJobs 内置的职位数据，真实招聘平台接入不在范围内
var mockJobs = []types.Job{
	{
		Title:       "Software Engineer",
		Description: "We are looking for a Software Engineer with experience in Python, Java, and SQL. Strong communication skills are required.",
		Location:    "Remote",
	},
	{
		Title:       "Data Analyst",
		Description: "Seeking a Data Analyst proficient in SQL, Python, and data visualization. Teamwork and problem-solving skills are a must.",
		Location:    "New York",
	},
	{
		Title:       "Product Manager",
		Description: "Looking for a Product Manager with experience in Agile methodologies. Must have excellent communication and leadership skills.",
		Location:    "San Francisco",
	},
	{
		Title:       "UX Designer",
		Description: "Seeking a UX Designer with expertise in Figma, Adobe XD, and user research. Strong portfolio required.",
		Location:    "Boston",
	},
}

// MockJobSource 在固定数据集上做大小写不敏感的子串搜索
type MockJobSource struct {
	Jobs []types.Job
}

// NewMockJobSource 使用内置数据集
func NewMockJobSource() *MockJobSource {
	jobs := make([]types.Job, len(mockJobs))
	copy(jobs, mockJobs)
	return &MockJobSource{Jobs: jobs}
}

// Search query 匹配标题或描述，location 为空或被职位地点包含时匹配。
// 没有结果时返回一条占位职位。
func (m *MockJobSource) Search(_ context.Context, query, location string) ([]types.Job, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	loc := strings.ToLower(strings.TrimSpace(location))
	var out []types.Job
	for _, job := range m.Jobs {
		textHit := strings.Contains(strings.ToLower(job.Title), q) || strings.Contains(strings.ToLower(job.Description), q)
		locHit := loc == "" || strings.Contains(strings.ToLower(job.Location), loc)
		if textHit && locHit {
			out = append(out, job)
		}
	}
	if len(out) == 0 {
		fallbackLoc := strings.TrimSpace(location)
		if fallbackLoc == "" {
			fallbackLoc = "Unknown"
		}
		out = append(out, types.Job{
			Title:       "Mock Job - " + strings.TrimSpace(query),
			Location:    fallbackLoc,
			Description: "No exact matches found; this is a mock result.",
		})
	}
	return out, nil
}

// JobAnalysis 岗位描述解析结果
type JobAnalysis struct {
	Requirements types.JobRequirements `json:"requirements"`
	JobSkills    []string              `json:"job_skills"`
	Cached       bool                  `json:"cached"`
	Degraded     bool                  `json:"degraded"`
}

// JobService 职位搜索和岗位描述解析
type JobService struct {
	adapter *enrichment.Adapter
	source  JobSource
	cache   AnalysisCache
	store   CVStore
	logger  zerolog.Logger
}

// NewJobService 创建职位服务，默认使用 MockJobSource
func NewJobService(adapter *enrichment.Adapter, opts ...JobOption) *JobService {
	s := &JobService{
		adapter: adapter,
		source:  NewMockJobSource(),
		logger:  log.Logger.With().Str("component", "job_service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search 搜索职位
func (s *JobService) Search(ctx context.Context, query, location string) ([]types.Job, error) {
	jobs, err := s.source.Search(ctx, query, location)
	if err != nil {
		return nil, newError(CodeInternal, "search_jobs", "搜索职位失败", err)
	}
	return jobs, nil
}

// AnalyzeJobDescription 抽取岗位要求。命中缓存时不调用模型；降级结果不写缓存。
func (s *JobService) AnalyzeJobDescription(ctx context.Context, text string) (*JobAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, newError(CodeInvalidInput, "analyze_job", "岗位描述不能为空", ErrInvalidInput)
	}
	key := ContentMD5(text)

	if s.cache != nil {
		data, ok, err := s.cache.GetJobAnalysis(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Msg("读取岗位解析缓存失败")
		case ok:
			var req types.JobRequirements
			if err := json.Unmarshal(data, &req); err == nil {
				return &JobAnalysis{Requirements: req, JobSkills: req.JobSkills(), Cached: true}, nil
			}
			s.logger.Warn().Str("md5", key).Msg("岗位解析缓存内容损坏，重新解析")
		}
	}

	res := s.adapter.ExtractJobRequirements(ctx, text, "")
	out := &JobAnalysis{Requirements: res.Value, JobSkills: res.Value.JobSkills(), Degraded: res.Degraded}

	if s.cache != nil && !res.Degraded {
		if data, err := json.Marshal(res.Value); err == nil {
			if err := s.cache.SetJobAnalysis(ctx, key, data); err != nil {
				s.logger.Warn().Err(err).Msg("写入岗位解析缓存失败")
			}
		}
	}
	return out, nil
}

// SaveJobDescription 解析并保存岗位描述
func (s *JobService) SaveJobDescription(ctx context.Context, ownerID, text string) (*models.JobDescriptionRecord, error) {
	if s.store == nil {
		return nil, newError(CodeUnavailable, "save_job", "记录存储未配置", ErrStoreUnavailable)
	}
	analysis, err := s.AnalyzeJobDescription(ctx, text)
	if err != nil {
		return nil, err
	}
	industry := s.adapter.ClassifyIndustry(ctx, text)

	id, err := uuid.NewV7()
	if err != nil {
		return nil, newError(CodeInternal, "save_job", "生成岗位ID失败", err)
	}
	rec := &models.JobDescriptionRecord{
		ID:           id.String(),
		OwnerID:      ownerID,
		Content:      strings.TrimSpace(text),
		ContentMD5:   ContentMD5(strings.TrimSpace(text)),
		Industry:     industry.Value.Industry,
		Requirements: mustJSON(analysis.Requirements),
	}
	if err := s.store.SaveJobDescription(ctx, rec); err != nil {
		return nil, newError(CodeInternal, "save_job", fmt.Sprintf("Error saving job description: %v", err), err)
	}
	return rec, nil
}
