package enrichment

import (
	"context"
	"fmt"
	"strings"

	"cv-agent-go/internal/types"
)

// ClassifyIndustry 识别岗位所属行业和领域关键词
func (a *Adapter) ClassifyIndustry(ctx context.Context, jobText string) Result[types.IndustryResult] {
	const task = "classify_industry"
	res, err := generateJSON[types.IndustryResult](ctx, a, task, systemJSONAnalyst, industryPrompt(jobText))
	if err == nil && strings.TrimSpace(res.Industry) == "" {
		err = fmt.Errorf("模型未返回行业")
	}
	if err != nil {
		a.warn(task, err)
		return degraded(FallbackIndustry())
	}
	res.Industry = strings.TrimSpace(res.Industry)
	res.DomainKeywords = trimList(res.DomainKeywords)
	return ok(res)
}

// ExtractCVSkills 抽取简历中的技术技能和软技能，结果统一小写
func (a *Adapter) ExtractCVSkills(ctx context.Context, cvText, industry string) Result[types.CVSkills] {
	const task = "extract_cv_skills"
	res, err := generateJSON[types.CVSkills](ctx, a, task, systemJSONAnalyst, cvSkillsPrompt(cvText, industryOrGeneral(industry)))
	if err != nil {
		a.warn(task, err)
		return degraded(FallbackCVSkills())
	}
	res.TechnicalSkills = dedupe(normalizeList(res.TechnicalSkills))
	res.SoftSkills = dedupe(normalizeList(res.SoftSkills))
	return ok(res)
}

// ExtractJobRequirements 抽取岗位要求，industry 为空时不在提示词中限定行业
func (a *Adapter) ExtractJobRequirements(ctx context.Context, jobText, industry string) Result[types.JobRequirements] {
	const task = "extract_job_requirements"
	res, err := generateJSON[types.JobRequirements](ctx, a, task, systemJSONAnalyst, jobRequirementsPrompt(jobText, industry))
	if err != nil {
		a.warn(task, err)
		return degraded(FallbackJobRequirements())
	}
	res.TechnicalSkills = dedupe(normalizeList(res.TechnicalSkills))
	res.SoftSkills = dedupe(normalizeList(res.SoftSkills))
	res.Experience = normalizeList(res.Experience)
	res.Education = normalizeList(res.Education)
	res.IndustryKnowledge = dedupe(normalizeList(res.IndustryKnowledge))
	return ok(res)
}

// FindSemanticMatches 让模型找出语义相同的技能对
func (a *Adapter) FindSemanticMatches(ctx context.Context, cvSkills, jobSkills []string) Result[[]types.SemanticMatch] {
	const task = "semantic_match"
	res, err := generateJSON[[]types.SemanticMatch](ctx, a, task, systemJSONAnalyst, semanticMatchPrompt(cvSkills, jobSkills))
	if err != nil {
		a.warn(task, err)
		return degraded([]types.SemanticMatch{})
	}
	out := make([]types.SemanticMatch, 0, len(res))
	for _, m := range res {
		m.CVSkill = strings.ToLower(strings.TrimSpace(m.CVSkill))
		m.JobSkill = strings.ToLower(strings.TrimSpace(m.JobSkill))
		if m.CVSkill != "" {
			out = append(out, m)
		}
	}
	return ok(out)
}

// ScoreATS 让模型做 ATS 友好度评分
func (a *Adapter) ScoreATS(ctx context.Context, in ATSInput) Result[types.ATSAnalysis] {
	const task = "score_ats"
	in.Industry = industryOrGeneral(in.Industry)
	res, err := generateJSON[types.ATSAnalysis](ctx, a, task, systemJSONAnalyst, atsPrompt(in))
	if err != nil {
		a.warn(task, err)
		return degraded(FallbackATS())
	}
	res.ATSScore = clampScore(res.ATSScore)
	for _, s := range []*types.ScoredSection{&res.StructureAnalysis, &res.KeywordOptimization, &res.Completeness, &res.IndustryFit, &res.MetricsAnalysis} {
		s.Score = clampScore(s.Score)
	}
	return ok(res)
}

// ScoreCompetitive 让模型评估候选人的竞争力
func (a *Adapter) ScoreCompetitive(ctx context.Context, in CompetitiveInput) Result[types.CompetitiveAnalysis] {
	const task = "score_competitive"
	in.Industry = industryOrGeneral(in.Industry)
	res, err := generateJSON[types.CompetitiveAnalysis](ctx, a, task, systemJSONAnalyst, competitivePrompt(in))
	if err != nil {
		a.warn(task, err)
		return degraded(FallbackCompetitive())
	}
	res.CompetitiveScore = clampScore(res.CompetitiveScore)
	for _, s := range []*types.CompetitiveSection{&res.SkillDepth, &res.ExperienceRelevance, &res.Certifications} {
		s.Score = clampScore(s.Score)
	}
	if res.Standing == "" {
		res.Standing = fallbackStanding
	}
	return ok(res)
}

func industryOrGeneral(industry string) string {
	if strings.TrimSpace(industry) == "" {
		return fallbackIndustry
	}
	return industry
}

func clampScore(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
