// Package templates 把结构化的候选人档案渲染成几种固定版式的纯文本简历
package templates

import (
	"fmt"
	"strings"

	"cv-agent-go/internal/types"
)

// 模板 ID
const (
	Executive    = "executive"
	Modern       = "modern"
	Professional = "professional"
	Technical    = "technical"
)

// 可排除的章节名
const (
	SectionSummary        = "summary"
	SectionSkills         = "skills"
	SectionExperience     = "experience"
	SectionEducation      = "education"
	SectionProjects       = "projects"
	SectionCertifications = "certifications"
)

// ResumeData 渲染所需的数据
type ResumeData struct {
	Contact        types.PersonalInfo    `json:"contact_info"`
	Summary        string                `json:"summary"`
	Skills         []string              `json:"skills"`
	Experience     []types.Experience    `json:"experience"`
	Education      []types.Education     `json:"education"`
	Projects       []types.Project       `json:"projects"`
	Certifications []types.Certification `json:"certifications"`
	Languages      []types.Language      `json:"languages"`
}

// Customizations 用户对生成结果的调整
type Customizations struct {
	ExcludedSections  []string `json:"excluded_sections"`
	CustomSummary     string   `json:"custom_summary"`
	HighlightedSkills []string `json:"highlighted_skills"`
}

func (c Customizations) excluded(section string) bool {
	for _, s := range c.ExcludedSections {
		if strings.EqualFold(strings.TrimSpace(s), section) {
			return true
		}
	}
	return false
}

// IDs 所有支持的模板
func IDs() []string {
	return []string{Executive, Modern, Professional, Technical}
}

// Normalize 未知或为空的模板 ID 回退为 executive
func Normalize(templateID string) string {
	id := strings.ToLower(strings.TrimSpace(templateID))
	if _, ok := layouts[id]; ok || id == Executive {
		return id
	}
	return Executive
}

// FromProfile 由解析结果构造渲染数据。storedSummary 非空时优先于解析出的简介，
// extraSkills（例如入库时扩展过的技能）追加在解析出的技能之后，按小写去重。
func FromProfile(p types.CandidateProfile, storedSummary string, extraSkills []string) ResumeData {
	summary := strings.TrimSpace(storedSummary)
	if summary == "" {
		summary = p.Summary
	}
	names := make([]string, 0, len(p.Skills)+len(extraSkills))
	for _, s := range p.Skills {
		names = append(names, s.Name)
	}
	for _, proj := range p.Projects {
		names = append(names, proj.Technologies...)
	}
	names = append(names, extraSkills...)
	return ResumeData{
		Contact:        p.Personal,
		Summary:        summary,
		Skills:         dedupe(names),
		Experience:     p.WorkExperience,
		Education:      p.Education,
		Projects:       p.Projects,
		Certifications: p.Certifications,
		Languages:      p.Languages,
	}
}

// Render 按模板渲染简历
func Render(templateID string, data ResumeData, c Customizations) string {
	id := Normalize(templateID)
	if id == Executive {
		return renderExecutive(data, c)
	}
	return layouts[id].render(data, c)
}

type doc struct {
	lines []string
}

func (d *doc) add(lines ...string) {
	d.lines = append(d.lines, lines...)
}

func (d *doc) addf(format string, args ...any) {
	d.lines = append(d.lines, fmt.Sprintf(format, args...))
}

func (d *doc) blank() {
	d.lines = append(d.lines, "")
}

func (d *doc) String() string {
	return strings.TrimRight(strings.Join(d.lines, "\n"), "\n") + "\n"
}

func nameOr(p types.PersonalInfo) string {
	if strings.TrimSpace(p.Name) == "" {
		return "YOUR NAME"
	}
	return p.Name
}

func dateRange(start, end string) string {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	switch {
	case start == "" && end == "":
		return ""
	case end == "":
		return start
	case start == "":
		return end
	}
	return start + " - " + end
}

func skillsToShow(data ResumeData, c Customizations) []string {
	if len(c.HighlightedSkills) == 0 {
		return data.Skills
	}
	all := append(append([]string{}, c.HighlightedSkills...), data.Skills...)
	return dedupe(all)
}

func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		it = strings.TrimSpace(it)
		key := strings.ToLower(it)
		if it == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
