// Package matching 计算简历技能与岗位要求的匹配度，并给出基于规则的诊断。
package matching

import (
	"context"
	"math"

	"cv-agent-go/internal/types"
)

// SemanticMatcher 在直接匹配之后找出语义上等价的简历技能
type SemanticMatcher interface {
	SemanticMatches(ctx context.Context, cvSkills, jobSkills []string) []string
}

// SemanticMatcherFunc 函数适配器
type SemanticMatcherFunc func(ctx context.Context, cvSkills, jobSkills []string) []string

// SemanticMatches 调用 f
func (f SemanticMatcherFunc) SemanticMatches(ctx context.Context, cvSkills, jobSkills []string) []string {
	return f(ctx, cvSkills, jobSkills)
}

// Weights 加权匹配分中技术技能和软技能的权重
type Weights struct {
	Tech float64
	Soft float64
}

// DefaultWeights 技术 70%，软技能 30%
var DefaultWeights = Weights{Tech: 0.7, Soft: 0.3}

// Valid 权重非负且和为 1，加权分才能保持在 [0,100]
func (w Weights) Valid() bool {
	return w.Tech >= 0 && w.Soft >= 0 && math.Abs(w.Tech+w.Soft-1) < 1e-9
}

// MatchSkills 使用默认权重计算匹配结果
func MatchSkills(ctx context.Context, cvSkills []string, job types.JobRequirements, semantic SemanticMatcher) types.MatchResult {
	return MatchSkillsWeighted(ctx, cvSkills, job, semantic, DefaultWeights)
}

// MatchSkillsWeighted 计算直接匹配、语义匹配和各项百分比。
//
// 语义匹配只在剩余的简历技能和岗位技能都非空时调用，且只保留剩余简历技能中的结果，
// 因此直接匹配与语义匹配互不相交。技术/软技能百分比统计的是岗位技能本身是否出现在
// matches 中，语义匹配贡献的是简历侧技能名，这一不对称保持不变。
func MatchSkillsWeighted(ctx context.Context, cvSkills []string, job types.JobRequirements, semantic SemanticMatcher, w Weights) types.MatchResult {
	cvSkills = distinct(cvSkills)
	jobSkills := distinct(job.JobSkills())
	jobSet := toSet(jobSkills)

	direct := make([]string, 0)
	for _, s := range cvSkills {
		if _, ok := jobSet[s]; ok {
			direct = append(direct, s)
		}
	}
	directSet := toSet(direct)

	remainingCV := without(cvSkills, directSet)
	remainingJob := without(jobSkills, directSet)

	semanticMatches := make([]string, 0)
	if semantic != nil && len(remainingCV) > 0 && len(remainingJob) > 0 {
		allowed := toSet(remainingCV)
		seen := make(map[string]struct{})
		for _, s := range semantic.SemanticMatches(ctx, remainingCV, remainingJob) {
			if _, ok := allowed[s]; !ok {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			semanticMatches = append(semanticMatches, s)
		}
	}

	matches := make([]string, 0, len(direct)+len(semanticMatches))
	matches = append(matches, direct...)
	matches = append(matches, semanticMatches...)
	matchSet := toSet(matches)

	jobTech, jobSoft := distinct(job.TechnicalSkills), distinct(job.SoftSkills)
	tech := percentage(countIn(jobTech, matchSet), len(jobTech))
	soft := percentage(countIn(jobSoft, matchSet), len(jobSoft))

	return types.MatchResult{
		DirectMatches:           direct,
		SemanticMatches:         semanticMatches,
		Matches:                 matches,
		MatchPercentage:         percentage(len(matches), len(jobSkills)),
		TechMatchPercentage:     tech,
		SoftMatchPercentage:     soft,
		WeightedMatchPercentage: clamp(tech*w.Tech + soft*w.Soft),
	}
}

// percentage n/total*100，total 为 0 时返回 0，结果限制在 [0,100]
func percentage(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return clamp(float64(n) / float64(total) * 100)
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func countIn(items []string, set map[string]struct{}) int {
	n := 0
	for _, s := range items {
		if _, ok := set[s]; ok {
			n++
		}
	}
	return n
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// distinct 保持首次出现顺序去重，技能列表按集合参与计算
func distinct(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func without(items []string, exclude map[string]struct{}) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, ok := exclude[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}
