package types

// IndustryResult 行业识别结果
type IndustryResult struct {
	Industry       string   `json:"industry"`
	DomainKeywords []string `json:"domain_keywords"`
}

// CVSkills 从简历中抽取的技能
type CVSkills struct {
	TechnicalSkills []string `json:"technical_skills"`
	SoftSkills      []string `json:"soft_skills"`
}

// All 技术技能在前，软技能在后
func (s CVSkills) All() []string {
	out := make([]string, 0, len(s.TechnicalSkills)+len(s.SoftSkills))
	out = append(out, s.TechnicalSkills...)
	return append(out, s.SoftSkills...)
}

// JobRequirements 从岗位描述中抽取的要求
type JobRequirements struct {
	TechnicalSkills   []string `json:"technical_skills"`
	SoftSkills        []string `json:"soft_skills"`
	Experience        []string `json:"experience"`
	Education         []string `json:"education"`
	IndustryKnowledge []string `json:"industry_knowledge"`
}

// JobSkills 参与匹配的岗位技能集合：技术 + 软技能 + 行业知识
func (r JobRequirements) JobSkills() []string {
	out := make([]string, 0, len(r.TechnicalSkills)+len(r.SoftSkills)+len(r.IndustryKnowledge))
	out = append(out, r.TechnicalSkills...)
	out = append(out, r.SoftSkills...)
	return append(out, r.IndustryKnowledge...)
}

// SemanticMatch 模型返回的一对语义匹配
type SemanticMatch struct {
	CVSkill  string `json:"cv_skill"`
	JobSkill string `json:"job_skill"`
}

// KeywordAnalysis 关键词诊断
type KeywordAnalysis struct {
	PresentKeywords []string       `json:"present_keywords"`
	MissingKeywords []string       `json:"missing_keywords"`
	CVSkillFreq     map[string]int `json:"cv_skill_freq"`
	JobSkillFreq    map[string]int `json:"job_skill_freq"`
}

// MatchResult 一次简历与岗位的匹配结果。只有汇总字段会被持久化。
type MatchResult struct {
	DirectMatches           []string        `json:"direct_matches"`
	SemanticMatches         []string        `json:"semantic_matches"`
	Matches                 []string        `json:"matches"`
	MatchPercentage         float64         `json:"match_percentage"`
	TechMatchPercentage     float64         `json:"tech_match_percentage"`
	SoftMatchPercentage     float64         `json:"soft_match_percentage"`
	WeightedMatchPercentage float64         `json:"weighted_match_percentage"`
	KeywordAnalysis         KeywordAnalysis `json:"keyword_analysis"`
}

// IndexedDocument 文档索引的一条检索结果，Distance 越小越相似
type IndexedDocument struct {
	ID       string  `json:"id"`
	Text     string  `json:"text"`
	Distance float64 `json:"distance"`
}
