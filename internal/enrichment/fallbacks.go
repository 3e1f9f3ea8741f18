package enrichment

import "cv-agent-go/internal/types"

const (
	fallbackIndustry = "General"
	fallbackScore    = 50
	fallbackStanding = "average"
)

// FallbackIndustry 行业识别失败时的结果
func FallbackIndustry() types.IndustryResult {
	return types.IndustryResult{Industry: fallbackIndustry, DomainKeywords: []string{}}
}

// FallbackCVSkills 简历技能抽取失败时的结果
func FallbackCVSkills() types.CVSkills {
	return types.CVSkills{TechnicalSkills: []string{}, SoftSkills: []string{}}
}

// FallbackJobRequirements 岗位要求抽取失败时的结果
func FallbackJobRequirements() types.JobRequirements {
	return types.JobRequirements{
		TechnicalSkills:   []string{},
		SoftSkills:        []string{},
		Experience:        []string{},
		Education:         []string{},
		IndustryKnowledge: []string{},
	}
}

// FallbackATS ATS 评分失败时的固定建议
func FallbackATS() types.ATSAnalysis {
	return types.ATSAnalysis{
		ATSScore: fallbackScore,
		StructureAnalysis: types.ScoredSection{
			Score:           fallbackScore,
			Issues:          []string{"Unclear formatting"},
			Recommendations: []string{"Use clear headers"},
		},
		KeywordOptimization: types.ScoredSection{
			Score:           fallbackScore,
			PresentKeywords: []string{},
			MissingKeywords: []string{},
			Recommendations: []string{"Add job-specific keywords"},
		},
		Completeness: types.ScoredSection{
			Score:           fallbackScore,
			MissingElements: []string{"email"},
			Recommendations: []string{"Add contact info"},
		},
		IndustryFit: types.ScoredSection{
			Score:           fallbackScore,
			Strengths:       []string{},
			Weaknesses:      []string{"Generic terms"},
			Recommendations: []string{"Use industry jargon"},
		},
		MetricsAnalysis: types.ScoredSection{
			Score:           fallbackScore,
			Examples:        []string{},
			Recommendations: []string{"Add measurable results"},
		},
	}
}

// FallbackCompetitive 竞争力评估失败时的固定建议
func FallbackCompetitive() types.CompetitiveAnalysis {
	return types.CompetitiveAnalysis{
		CompetitiveScore: fallbackScore,
		SkillDepth: types.CompetitiveSection{
			Score:           fallbackScore,
			Strengths:       []string{},
			Gaps:            []string{"Advanced skills lacking"},
			Recommendations: []string{"Detail skill proficiency"},
		},
		ExperienceRelevance: types.CompetitiveSection{
			Score:           fallbackScore,
			Alignment:       []string{},
			Misalignments:   []string{"Experience not specific"},
			Recommendations: []string{"Tailor experience"},
		},
		Certifications: types.CompetitiveSection{
			Score:           fallbackScore,
			Present:         []string{},
			Missing:         []string{},
			Recommendations: []string{"Add relevant certifications"},
		},
		UniqueSellingPoints:    []string{},
		Standing:               fallbackStanding,
		OverallRecommendations: []string{"Highlight unique achievements"},
	}
}
