package parser

import (
	"regexp"
	"strings"

	"cv-agent-go/internal/types"
)

const defaultSkillCategory = "General"

var (
	skillLevelPattern = regexp.MustCompile(`^(.*?)\s*\((Advanced|Intermediate|Beginner|Expert|Proficient)\)`)

	languagePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^(.*?)\s*\((Native|Fluent|Professional|Intermediate|Beginner|Advanced|Basic)\)`),
		regexp.MustCompile(`(?i)^(.*?)\s*(?:-|:)\s*(Native|Fluent|Professional|Intermediate|Beginner|Advanced|Basic)`),
		regexp.MustCompile(`(?i)^(.*?)\s*:\s*(C1|C2|B1|B2|A1|A2)\b`),
	}

	issuerTerms     = []string{"issued by", "from", "provider", "issuer"}
	expirationTerms = []string{"expir", "valid until"}
	techTerms       = []string{"technologies", "tools", "tech stack", "implemented using", "built with"}
	roleTerms       = []string{"role", "position", "responsible for"}
)

// skillState 技能解析过程中的可变状态：当前分类和已解析的技能
type skillState struct {
	category string
	skills   []types.Skill
}

func (s *skillState) add(name, proficiency string) {
	if name = strings.TrimSpace(name); name != "" {
		s.skills = append(s.skills, types.Skill{Name: name, Category: s.category, Proficiency: proficiency})
	}
}

var skillLineRules = []lineRule[skillState]{
	{
		name: "category_header",
		match: func(line string, _ *skillState) bool {
			return strings.HasSuffix(line, ":") || strings.HasSuffix(line, "Skills") || strings.HasSuffix(line, "skills")
		},
		apply: func(line string, s *skillState) bool {
			s.category = strings.TrimSpace(strings.TrimRight(line, ":"))
			return true
		},
	},
	{
		name:  "proficiency",
		match: func(line string, _ *skillState) bool { return skillLevelPattern.MatchString(line) },
		apply: func(line string, s *skillState) bool {
			m := skillLevelPattern.FindStringSubmatch(line)
			s.add(stripBullet(m[1]), m[2])
			return true
		},
	},
	{
		name:  "comma_list",
		match: func(line string, _ *skillState) bool { return strings.Contains(line, ",") },
		apply: func(line string, s *skillState) bool {
			for _, part := range strings.Split(line, ",") {
				s.add(stripBullet(strings.TrimSpace(part)), "")
			}
			return true
		},
	},
	{
		name:  "bullet",
		match: func(line string, _ *skillState) bool { return isBullet(line) },
		apply: func(line string, s *skillState) bool {
			s.add(stripBullet(line), "")
			return true
		},
	},
	{
		name:  "single",
		match: func(string, *skillState) bool { return true },
		apply: func(line string, s *skillState) bool {
			s.add(line, "")
			return true
		},
	},
}

// ParseSkills 解析技能章节。以冒号或 "Skills" 结尾的行作为分类标题。
func ParseSkills(content string) []types.Skill {
	state := skillState{category: defaultSkillCategory}
	for _, line := range normalizeLines(content) {
		applyLineRules(skillLineRules, line, &state)
	}
	return state.skills
}

var certLineRules = []lineRule[types.Certification]{
	{
		name: "issuer",
		match: func(line string, _ *types.Certification) bool {
			return containsAny(strings.ToLower(line), issuerTerms...)
		},
		apply: func(line string, c *types.Certification) bool {
			if rest, ok := splitAfterTerm(line, issuerTerms...); ok && strings.TrimSpace(rest) != "" {
				c.Issuer = strings.Trim(strings.TrimSpace(rest), ":, ")
			} else {
				c.Issuer = line
			}
			return true
		},
	},
	{
		name:  "date",
		match: func(line string, _ *types.Certification) bool { return singleDatePattern.MatchString(line) },
		apply: func(line string, c *types.Certification) bool {
			d := singleDatePattern.FindString(line)
			switch {
			case c.Date == "":
				c.Date = d
			case containsAny(strings.ToLower(line), expirationTerms...):
				c.Expiration = d
			}
			return true
		},
	},
	{
		name:  "description",
		match: func(_ string, c *types.Certification) bool { return c.Description == "" },
		apply: func(line string, c *types.Certification) bool {
			c.Description = line
			return true
		},
	},
}

// ParseCertifications 解析证书章节，第一行为证书名
func ParseCertifications(content string) []types.Certification {
	var out []types.Certification
	for _, entry := range SplitEntries(content) {
		lines := normalizeLines(entry)
		if len(lines) == 0 {
			continue
		}
		cert := types.Certification{Name: stripBullet(lines[0])}
		for _, line := range lines[1:] {
			applyLineRules(certLineRules, line, &cert)
		}
		if cert.Name != "" {
			out = append(out, cert)
		}
	}
	return out
}

// ParseLanguages 每行一种语言，依次尝试 "X (Level)"、"X - Level"、"X: B2"
func ParseLanguages(content string) []types.Language {
	var out []types.Language
	for _, line := range normalizeLines(content) {
		lang := types.Language{}
		for _, p := range languagePatterns {
			if m := p.FindStringSubmatch(line); m != nil {
				lang.Name = stripBullet(strings.TrimSpace(m[1]))
				lang.Proficiency = m[2]
				break
			}
		}
		if lang.Proficiency == "" {
			lang.Name = stripBullet(line)
		}
		if lang.Name != "" {
			out = append(out, lang)
		}
	}
	return out
}

var projectLineRules = []lineRule[types.Project]{
	{
		name:  "date",
		match: func(line string, p *types.Project) bool { return p.Date == "" && singleDatePattern.MatchString(line) },
		apply: func(line string, p *types.Project) bool {
			p.Date = line
			return true
		},
	},
	{
		name:  "technologies",
		match: func(line string, _ *types.Project) bool { return containsAny(strings.ToLower(line), techTerms...) },
		apply: func(line string, p *types.Project) bool {
			if rest, ok := splitAfterTerm(line, techTerms...); ok {
				for _, t := range strings.Split(strings.Trim(rest, ":, "), ",") {
					if t = strings.TrimSpace(t); t != "" {
						p.Technologies = append(p.Technologies, t)
					}
				}
			}
			return true
		},
	},
	{
		name:  "role",
		match: func(line string, _ *types.Project) bool { return containsAny(strings.ToLower(line), roleTerms...) },
		apply: func(line string, p *types.Project) bool {
			if rest, ok := splitAfterTerm(line, roleTerms...); ok {
				p.Role = strings.Trim(rest, ":, ")
			}
			return true
		},
	},
	{
		name:  "achievement",
		match: func(line string, _ *types.Project) bool { return isBullet(line) },
		apply: func(line string, p *types.Project) bool {
			if a := stripBullet(line); a != "" {
				p.Achievements = append(p.Achievements, a)
			}
			return true
		},
	},
	{
		name:  "description",
		match: func(_ string, p *types.Project) bool { return p.Description == "" },
		apply: func(line string, p *types.Project) bool {
			p.Description = line
			return true
		},
	},
}

// ParseProjects 解析项目章节，第一行为项目名
func ParseProjects(content string) []types.Project {
	var out []types.Project
	for _, entry := range SplitEntries(content) {
		lines := normalizeLines(entry)
		if len(lines) == 0 {
			continue
		}
		p := types.Project{Name: stripBullet(lines[0]), Technologies: []string{}, Achievements: []string{}}
		for _, line := range lines[1:] {
			applyLineRules(projectLineRules, line, &p)
		}
		if p.Name != "" {
			out = append(out, p)
		}
	}
	return out
}
