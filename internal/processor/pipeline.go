package processor

import (
	"context"
	"strings"

	"cv-agent-go/internal/enrichment"
	"cv-agent-go/internal/matching"
	"cv-agent-go/internal/tracing"
	"cv-agent-go/internal/types"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("cv-agent-go/processor")

// 流水线阶段名，出现在 MatchOutcome.DegradedStages 中
const (
	StageIndustry        = "industry"
	StageCVSkills        = "cv_skills"
	StageJobRequirements = "job_requirements"
	StageSemanticMatch   = "semantic_match"
	StageATS             = "ats"
	StageCompetitive     = "competitive"
	StageOptimizeCV      = "optimize_cv"
	StageCoverLetter     = "cover_letter"
)

// MatchOutcome 一次完整匹配的结果
type MatchOutcome struct {
	Industry        types.IndustryResult   `json:"industry"`
	CVSkills        types.CVSkills         `json:"cv_skills"`
	JobRequirements types.JobRequirements  `json:"job_requirements"`
	MatchResult     types.MatchResult      `json:"match_result"`
	Analysis        types.DetailedAnalysis `json:"analysis"`
	OptimizedCV     string                 `json:"optimized_cv"`
	CoverLetter     string                 `json:"cover_letter"`
	Degraded        bool                   `json:"degraded"`
	DegradedStages  []string               `json:"degraded_stages,omitempty"`
}

func (o *MatchOutcome) note(stage string, degraded bool) {
	if degraded {
		o.Degraded = true
		o.DegradedStages = append(o.DegradedStages, stage)
	}
}

// MatchPipeline 简历与岗位匹配的完整流程。各阶段严格顺序执行，
// 单个阶段失败只会降级，不会中断整个流程。
type MatchPipeline struct {
	adapter *enrichment.Adapter
	weights matching.Weights
	logger  zerolog.Logger
}

// PipelineOption 流水线选项
type PipelineOption func(*MatchPipeline)

// WithWeights 设置技术/软技能权重。权重须非负且和为 1，否则保留默认的 0.7/0.3
func WithWeights(w matching.Weights) PipelineOption {
	return func(p *MatchPipeline) {
		if !w.Valid() {
			p.logger.Warn().Float64("tech", w.Tech).Float64("soft", w.Soft).Msg("匹配权重无效，使用默认权重")
			return
		}
		p.weights = w
	}
}

// WithPipelineLogger 设置日志记录器
func WithPipelineLogger(l zerolog.Logger) PipelineOption {
	return func(p *MatchPipeline) { p.logger = l }
}

// NewMatchPipeline 创建匹配流水线
func NewMatchPipeline(adapter *enrichment.Adapter, opts ...PipelineOption) *MatchPipeline {
	p := &MatchPipeline{
		adapter: adapter,
		weights: matching.DefaultWeights,
		logger:  log.Logger.With().Str("component", "match_pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MatchCVToJob 行业识别 → 简历技能 → 岗位要求 → 技能匹配 → 详细分析 → 简历优化 → 求职信
func (p *MatchPipeline) MatchCVToJob(ctx context.Context, cvText, jobText string) (*MatchOutcome, error) {
	cvText = strings.TrimSpace(cvText)
	jobText = strings.TrimSpace(jobText)
	if cvText == "" || jobText == "" {
		return nil, newError(CodeInvalidInput, "match", "简历和岗位描述都不能为空", ErrInvalidInput)
	}
	if md, err := enrichment.ToMarkdown(jobText); err != nil {
		p.logger.Warn().Err(err).Msg("岗位描述转换markdown失败，使用原文")
	} else if md != "" {
		jobText = md
	}

	ctx, span := tracer.Start(ctx, "processor.MatchCVToJob", trace.WithAttributes(
		attribute.Int("cv.length", len(cvText)),
		attribute.String("job.preview", tracing.SafeCVContent(jobText)),
	))
	defer span.End()

	out := &MatchOutcome{}

	industry := p.adapter.ClassifyIndustry(ctx, jobText)
	out.Industry = industry.Value
	out.note(StageIndustry, industry.Degraded)

	cvSkills := p.adapter.ExtractCVSkills(ctx, cvText, out.Industry.Industry)
	out.CVSkills = cvSkills.Value
	out.note(StageCVSkills, cvSkills.Degraded)

	job := p.adapter.ExtractJobRequirements(ctx, jobText, out.Industry.Industry)
	out.JobRequirements = job.Value
	out.note(StageJobRequirements, job.Degraded)

	semanticDegraded := false
	matcher := matching.SemanticMatcherFunc(func(ctx context.Context, cv, jobSkills []string) []string {
		res := p.adapter.FindSemanticMatches(ctx, cv, jobSkills)
		semanticDegraded = res.Degraded
		names := make([]string, 0, len(res.Value))
		for _, m := range res.Value {
			names = append(names, m.CVSkill)
		}
		return names
	})
	allCV := out.CVSkills.All()
	out.MatchResult = matching.MatchSkillsWeighted(ctx, allCV, out.JobRequirements, matcher, p.weights)
	out.MatchResult.KeywordAnalysis = matching.AnalyzeKeywords(cvText, jobText, allCV, out.JobRequirements.JobSkills())
	out.note(StageSemanticMatch, semanticDegraded)

	ats := p.adapter.ScoreATS(ctx, enrichment.ATSInput{
		CVText:       cvText,
		JobText:      jobText,
		Industry:     out.Industry.Industry,
		Matches:      out.MatchResult.Matches,
		JobTechnical: out.JobRequirements.TechnicalSkills,
		JobSoft:      out.JobRequirements.SoftSkills,
	})
	out.note(StageATS, ats.Degraded)

	competitive := p.adapter.ScoreCompetitive(ctx, enrichment.CompetitiveInput{
		CVText:       cvText,
		JobText:      jobText,
		Industry:     out.Industry.Industry,
		CVSkills:     out.CVSkills,
		Requirements: out.JobRequirements,
		Matches:      out.MatchResult.Matches,
	})
	out.note(StageCompetitive, competitive.Degraded)

	out.Analysis = types.DetailedAnalysis{
		ATS:              ats.Value,
		Competitive:      competitive.Value,
		ATSScore:         ats.Value.ATSScore,
		CompetitiveScore: competitive.Value.CompetitiveScore,
		Keywords:         out.MatchResult.KeywordAnalysis,
		Sections:         matching.AnalyzeSections(cvText),
		Achievements:     matching.AnalyzeAchievements(cvText),
	}

	optimized := p.adapter.OptimizeCV(ctx, cvText, jobText)
	out.OptimizedCV = optimized.Value
	out.note(StageOptimizeCV, optimized.Degraded)

	letter := p.adapter.GenerateCoverLetter(ctx, cvText, jobText)
	out.CoverLetter = letter.Value
	out.note(StageCoverLetter, letter.Degraded)

	span.SetAttributes(
		attribute.Float64("match.percentage", out.MatchResult.MatchPercentage),
		attribute.Float64("match.weighted_percentage", out.MatchResult.WeightedMatchPercentage),
		attribute.Bool("match.degraded", out.Degraded),
	)
	p.logger.Info().
		Str("industry", out.Industry.Industry).
		Float64("match_percentage", out.MatchResult.MatchPercentage).
		Float64("weighted_match_percentage", out.MatchResult.WeightedMatchPercentage).
		Strs("degraded_stages", out.DegradedStages).
		Msg("简历匹配完成")
	return out, nil
}
