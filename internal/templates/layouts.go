package templates

import (
	"strings"

	"cv-agent-go/internal/types"
)

// layout 描述 modern/professional/technical 三种版式的差异：
// 联系方式写法、标题下划线字符、章节顺序和标题文字
type layout struct {
	contact        func(types.PersonalInfo) []string
	underline      string
	order          []string
	headers        map[string]string
	defaultSummary string
	groupSkills    bool
}

var layouts = map[string]layout{
	Modern: {
		contact: inlineContact,
		order:   []string{SectionSummary, SectionSkills, SectionExperience, SectionEducation, SectionProjects, SectionCertifications},
		headers: map[string]string{
			SectionSummary:        "PROFESSIONAL SUMMARY",
			SectionSkills:         "SKILLS",
			SectionExperience:     "PROFESSIONAL EXPERIENCE",
			SectionEducation:      "EDUCATION",
			SectionProjects:       "PROJECTS",
			SectionCertifications: "CERTIFICATIONS",
		},
		defaultSummary: "Experienced professional with a proven track record of success...",
	},
	Professional: {
		contact:   labeledContact,
		underline: "-",
		order:     []string{SectionSummary, SectionExperience, SectionEducation, SectionSkills, SectionProjects, SectionCertifications},
		headers: map[string]string{
			SectionSummary:        "SUMMARY",
			SectionSkills:         "SKILLS",
			SectionExperience:     "PROFESSIONAL EXPERIENCE",
			SectionEducation:      "EDUCATION",
			SectionProjects:       "PROJECTS",
			SectionCertifications: "CERTIFICATIONS",
		},
		defaultSummary: "Experienced professional with a proven track record of success...",
	},
	Technical: {
		contact:   inlineContact,
		underline: "=",
		order:     []string{SectionSkills, SectionSummary, SectionProjects, SectionExperience, SectionEducation, SectionCertifications},
		headers: map[string]string{
			SectionSummary:        "PROFESSIONAL SUMMARY",
			SectionSkills:         "TECHNICAL SKILLS",
			SectionExperience:     "PROFESSIONAL EXPERIENCE",
			SectionEducation:      "EDUCATION",
			SectionProjects:       "TECHNICAL PROJECTS",
			SectionCertifications: "CERTIFICATIONS",
		},
		defaultSummary: "Experienced technical professional with a proven track record of success...",
		groupSkills:    true,
	},
}

// skillCategories technical 版式的技能分组，顺序固定
var skillCategories = []struct {
	name   string
	skills []string
}{
	{"Programming Languages", []string{"Python", "Java", "JavaScript", "C++", "C#", "Go", "Ruby"}},
	{"Web Technologies", []string{"HTML", "CSS", "React", "Angular", "Vue", "Node.js", "Express"}},
	{"Databases", []string{"SQL", "MongoDB", "PostgreSQL", "MySQL", "Redis", "Firebase"}},
	{"Cloud & DevOps", []string{"AWS", "Azure", "GCP", "Docker", "Kubernetes", "CI/CD", "Git"}},
	{"Data Science", []string{"Machine Learning", "TensorFlow", "PyTorch", "Data Analysis", "NLP"}},
}

func inlineContact(p types.PersonalInfo) []string {
	var parts []string
	for _, v := range []string{p.Email, p.Phone, p.LinkedIn} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return []string{nameOr(p), strings.Join(parts, " | ")}
}

func labeledContact(p types.PersonalInfo) []string {
	lines := []string{nameOr(p)}
	if p.Email != "" {
		lines = append(lines, "Email: "+p.Email)
	}
	if p.Phone != "" {
		lines = append(lines, "Phone: "+p.Phone)
	}
	if p.LinkedIn != "" {
		lines = append(lines, "LinkedIn: "+p.LinkedIn)
	}
	return lines
}

func (l layout) render(data ResumeData, c Customizations) string {
	d := &doc{}
	d.add(l.contact(data.Contact)...)
	d.blank()
	for _, section := range l.order {
		if c.excluded(section) {
			continue
		}
		body := l.body(section, data, c)
		// 摘要总会输出（有默认文案），其余章节为空时整体跳过
		if len(body) == 0 {
			continue
		}
		d.add(l.headers[section])
		if l.underline != "" {
			d.add(strings.Repeat(l.underline, len(l.headers[section])))
		}
		d.add(body...)
	}
	return d.String()
}

func (l layout) body(section string, data ResumeData, c Customizations) []string {
	switch section {
	case SectionSummary:
		switch {
		case c.CustomSummary != "":
			return []string{c.CustomSummary, ""}
		case data.Summary != "":
			return []string{data.Summary, ""}
		}
		return []string{l.defaultSummary, ""}
	case SectionSkills:
		skills := skillsToShow(data, c)
		if len(skills) == 0 {
			return nil
		}
		if l.groupSkills {
			return append(groupedSkills(skills), "")
		}
		return []string{strings.Join(skills, " • "), ""}
	case SectionExperience:
		return experienceLines(data.Experience)
	case SectionEducation:
		return educationLines(data.Education)
	case SectionProjects:
		return projectLines(data.Projects)
	case SectionCertifications:
		return certificationLines(data.Certifications)
	}
	return nil
}

// groupedSkills 按 skillCategories 分组；一个都归不进去时直接逗号连接
func groupedSkills(skills []string) []string {
	var lines []string
	known := make(map[string]struct{})
	for _, cat := range skillCategories {
		var matched []string
		for _, s := range skills {
			for _, k := range cat.skills {
				if strings.EqualFold(s, k) {
					matched = append(matched, s)
					known[strings.ToLower(s)] = struct{}{}
				}
			}
		}
		if len(matched) > 0 {
			lines = append(lines, cat.name+": "+strings.Join(matched, ", "))
		}
	}
	if len(lines) == 0 {
		return []string{strings.Join(skills, ", ")}
	}
	var other []string
	for _, s := range skills {
		if _, ok := known[strings.ToLower(s)]; !ok {
			other = append(other, s)
		}
	}
	if len(other) > 0 {
		lines = append(lines, "Other: "+strings.Join(other, ", "))
	}
	return lines
}

func experienceLines(items []types.Experience) []string {
	var lines []string
	for _, exp := range items {
		switch {
		case exp.Title != "" && exp.Company != "":
			lines = append(lines, exp.Title+" at "+exp.Company)
		case exp.Title != "":
			lines = append(lines, exp.Title)
		case exp.Company != "":
			lines = append(lines, exp.Company)
		}
		if dr := dateRange(exp.StartDate, exp.EndDate); dr != "" {
			lines = append(lines, dr)
		}
		for _, a := range exp.Achievements {
			lines = append(lines, "• "+a)
		}
		lines = append(lines, "")
	}
	return lines
}

func educationLines(items []types.Education) []string {
	var lines []string
	for _, ed := range items {
		switch {
		case ed.Degree != "" && ed.Institution != "":
			lines = append(lines, ed.Degree+", "+ed.Institution)
		case ed.Degree != "":
			lines = append(lines, ed.Degree)
		case ed.Institution != "":
			lines = append(lines, ed.Institution)
		}
		if dr := dateRange(ed.StartDate, ed.EndDate); dr != "" {
			lines = append(lines, dr)
		}
		lines = append(lines, "")
	}
	return lines
}

func projectLines(items []types.Project) []string {
	var lines []string
	for _, p := range items {
		lines = append(lines, p.Name)
		if p.Description != "" {
			lines = append(lines, p.Description)
		}
		lines = append(lines, "")
	}
	return lines
}

func certificationLines(items []types.Certification) []string {
	var lines []string
	for _, cert := range items {
		if cert.Name != "" {
			lines = append(lines, cert.Name)
		}
		if cert.Issuer != "" {
			lines = append(lines, "Issued by: "+cert.Issuer)
		}
		if cert.Date != "" {
			lines = append(lines, cert.Date)
		}
		lines = append(lines, "")
	}
	return lines
}
