package types

import (
	"strings"
	"time"
)

// SectionType 表示简历章节类型
type SectionType string

const (
	// SectionSummary 个人简介章节
	SectionSummary SectionType = "summary"
	// SectionExperience 工作经历章节
	SectionExperience SectionType = "experience"
	// SectionEducation 教育经历章节
	SectionEducation SectionType = "education"
	// SectionSkills 技能章节
	SectionSkills SectionType = "skills"
	// SectionCertifications 证书章节
	SectionCertifications SectionType = "certifications"
	// SectionLanguages 语言能力章节
	SectionLanguages SectionType = "languages"
	// SectionProjects 项目经历章节
	SectionProjects SectionType = "projects"
)

// ResumeSection 简历中被识别出的一个章节
type ResumeSection struct {
	Type    SectionType `json:"type"`
	Content string      `json:"content"`
}

// PersonalInfo 个人信息，未找到的字段为空字符串
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
	Location string `json:"location"`
	Position string `json:"position"`
}

// Experience 一段工作经历
type Experience struct {
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Description  []string `json:"description"`
	Achievements []string `json:"achievements"`
}

// Education 一段教育经历
type Education struct {
	Degree       string   `json:"degree"`
	Field        string   `json:"field"`
	Institution  string   `json:"institution"`
	Location     string   `json:"location"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	GPA          string   `json:"gpa"`
	Achievements []string `json:"achievements"`
}

// Skill 技能条目。Name 保留原始展示形式
type Skill struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Proficiency string `json:"proficiency"`
}

// Certification 证书条目
type Certification struct {
	Name        string `json:"name"`
	Issuer      string `json:"issuer"`
	Date        string `json:"date"`
	Expiration  string `json:"expiration"`
	Description string `json:"description"`
}

// Language 语言能力条目
type Language struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// Project 项目经历条目
type Project struct {
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Date         string   `json:"date"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
	Achievements []string `json:"achievements"`
}

// CandidateProfile 从简历文本解析出的结构化候选人档案。
// 每次解析都会生成新的值，不在原处修改。
type CandidateProfile struct {
	Personal       PersonalInfo    `json:"personal"`
	Summary        string          `json:"summary"`
	WorkExperience []Experience    `json:"work_experience"`
	Education      []Education     `json:"education"`
	Skills         []Skill         `json:"skills"`
	Certifications []Certification `json:"certifications"`
	Languages      []Language      `json:"languages"`
	Projects       []Project       `json:"projects"`
	ParsedAt       time.Time       `json:"parsed_at"`
}

// NormalizedSkills 返回小写去空格后的技能名，用于集合匹配
func (p CandidateProfile) NormalizedSkills() []string {
	out := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Achievements 汇总所有工作经历中的成就条目
func (p CandidateProfile) Achievements() []string {
	var out []string
	for _, exp := range p.WorkExperience {
		out = append(out, exp.Achievements...)
	}
	return out
}
