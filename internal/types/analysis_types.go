package types

// ScoredSection ATS 分析中的一个维度
type ScoredSection struct {
	Score           float64  `json:"score"`
	Issues          []string `json:"issues,omitempty"`
	PresentKeywords []string `json:"present_keywords,omitempty"`
	MissingKeywords []string `json:"missing_keywords,omitempty"`
	MissingElements []string `json:"missing_elements,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Weaknesses      []string `json:"weaknesses,omitempty"`
	Examples        []string `json:"examples,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// ATSAnalysis 模型给出的 ATS 评分
type ATSAnalysis struct {
	ATSScore            float64       `json:"ats_score"`
	StructureAnalysis   ScoredSection `json:"structure_analysis"`
	KeywordOptimization ScoredSection `json:"keyword_optimization"`
	Completeness        ScoredSection `json:"completeness"`
	IndustryFit         ScoredSection `json:"industry_fit"`
	MetricsAnalysis     ScoredSection `json:"metrics_analysis"`
}

// CompetitiveSection 竞争力分析中的一个维度
type CompetitiveSection struct {
	Score           float64  `json:"score"`
	Strengths       []string `json:"strengths,omitempty"`
	Gaps            []string `json:"gaps,omitempty"`
	Alignment       []string `json:"alignment,omitempty"`
	Misalignments   []string `json:"misalignments,omitempty"`
	Present         []string `json:"present,omitempty"`
	Missing         []string `json:"missing,omitempty"`
	Recommendations []string `json:"recommendations"`
}

// CompetitiveAnalysis 模型给出的竞争力评估
type CompetitiveAnalysis struct {
	CompetitiveScore       float64            `json:"competitive_score"`
	SkillDepth             CompetitiveSection `json:"skill_depth"`
	ExperienceRelevance    CompetitiveSection `json:"experience_relevance"`
	Certifications         CompetitiveSection `json:"certifications"`
	UniqueSellingPoints    []string           `json:"unique_selling_points"`
	Standing               string             `json:"standing"`
	OverallRecommendations []string           `json:"overall_recommendations"`
}

// SectionAnalysis 基于规则的章节完整性检查
type SectionAnalysis struct {
	PresentSections []string `json:"present_sections"`
	MissingSections []string `json:"missing_sections"`
	ATSIssues       []string `json:"ats_issues"`
}

// AchievementAnalysis 基于规则的量化成就检查
type AchievementAnalysis struct {
	AchievementScore           int      `json:"achievement_score"`
	QuantifiableAchievements   []string `json:"quantifiable_achievements"`
	ExperienceWarning          string   `json:"experience_warning,omitempty"`
	ToneWarning                string   `json:"tone_warning,omitempty"`
	AchievementRecommendations []string `json:"achievement_recommendations"`
}

// DetailedAnalysis 汇总所有分析结果
type DetailedAnalysis struct {
	ATS              ATSAnalysis         `json:"ats_analysis"`
	Competitive      CompetitiveAnalysis `json:"competitive_analysis"`
	ATSScore         float64             `json:"ats_score"`
	CompetitiveScore float64             `json:"competitive_score"`
	Keywords         KeywordAnalysis     `json:"keyword_analysis"`
	Sections         SectionAnalysis     `json:"section_analysis"`
	Achievements     AchievementAnalysis `json:"achievement_analysis"`
}
