package parser

import (
	"time"

	"cv-agent-go/internal/types"
)

// ParseResume 把简历纯文本和文档超链接组装为候选人档案。
// 纯函数，可并发调用。
func ParseResume(cvText string, hyperlinks []string) types.CandidateProfile {
	profile := types.CandidateProfile{
		Personal:       ApplyHyperlinks(ExtractPersonalInfo(cvText), hyperlinks),
		WorkExperience: []types.Experience{},
		Education:      []types.Education{},
		Skills:         []types.Skill{},
		Certifications: []types.Certification{},
		Languages:      []types.Language{},
		Projects:       []types.Project{},
		ParsedAt:       time.Now(),
	}

	sections := SegmentSections(cvText)
	for _, sec := range sections.List() {
		switch sec.Type {
		case types.SectionSummary:
			profile.Summary = sec.Content
		case types.SectionExperience:
			profile.WorkExperience = append(profile.WorkExperience, ParseExperience(sec.Content)...)
		case types.SectionEducation:
			profile.Education = append(profile.Education, ParseEducation(sec.Content)...)
		case types.SectionSkills:
			profile.Skills = append(profile.Skills, ParseSkills(sec.Content)...)
		case types.SectionCertifications:
			profile.Certifications = append(profile.Certifications, ParseCertifications(sec.Content)...)
		case types.SectionLanguages:
			profile.Languages = append(profile.Languages, ParseLanguages(sec.Content)...)
		case types.SectionProjects:
			profile.Projects = append(profile.Projects, ParseProjects(sec.Content)...)
		}
	}
	return profile
}
