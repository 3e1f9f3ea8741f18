package templates

import (
	"strings"
	"unicode"

	"cv-agent-go/internal/types"
)

// OptimizedSection 改写后简历文本中的一个章节
type OptimizedSection struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	// Skills 该章节按技能列表渲染
	Skills bool `json:"skills"`
}

var (
	commonSectionNames  = []string{"SUMMARY", "EXPERIENCE", "EDUCATION", "SKILLS", "PROJECTS", "CERTIFICATIONS"}
	skillSectionAliases = []string{"TECHNICAL", "COMPETENC", "PROFICIEN"}
)

const (
	maxOptimizedHeaderWords = 4
	maxCommonHeaderLen      = 30
	// 无章节时跳过前两行（姓名和联系方式），在前 10 行内找第一段作为简介
	fallbackSkipLines    = 2
	fallbackSummaryLines = 10
)

type sectionMarker struct {
	line int
	name string
}

// SplitOptimized 把模型改写后的简历切成有序章节：
// 先找全大写的短标题，找不到时按常见章节名匹配，仍找不到时把第一段当作简介、其余当作经历。
// 同名章节的内容按出现顺序合并。
func SplitOptimized(content string) []OptimizedSection {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	if strings.TrimSpace(content) == "" {
		return nil
	}

	markers := upperCaseMarkers(lines)
	if len(markers) == 0 {
		markers = commonNameMarkers(lines)
	}
	if len(markers) == 0 {
		return summaryAndRest(lines)
	}

	var sections []OptimizedSection
	index := make(map[string]int)
	for i, m := range markers {
		end := len(lines)
		if i+1 < len(markers) {
			end = markers[i+1].line
		}
		body := strings.TrimSpace(strings.Join(lines[m.line+1:end], "\n"))
		if at, ok := index[m.name]; ok {
			if body != "" {
				sections[at].Content = strings.TrimSpace(sections[at].Content + "\n" + body)
			}
			continue
		}
		index[m.name] = len(sections)
		sections = append(sections, OptimizedSection{Name: m.name, Content: body, Skills: strings.Contains(m.name, "SKILL")})
	}
	markSkillsAlias(sections)
	return sections
}

// upperCaseMarkers 全大写、含字母、长度大于 3、不超过 4 个词，且不以 - 或 = 开头的行
func upperCaseMarkers(lines []string) []sectionMarker {
	var markers []sectionMarker
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if len(line) <= 3 || len(strings.Fields(line)) > maxOptimizedHeaderWords {
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "=") {
			continue
		}
		if !hasLetter(line) || strings.ToUpper(line) != line {
			continue
		}
		markers = append(markers, sectionMarker{line: i, name: strings.TrimSuffix(line, ":")})
	}
	return markers
}

func commonNameMarkers(lines []string) []sectionMarker {
	var markers []sectionMarker
	for i, line := range lines {
		if len(line) >= maxCommonHeaderLen {
			continue
		}
		upper := strings.ToUpper(line)
		for _, name := range commonSectionNames {
			if strings.Contains(upper, name) {
				markers = append(markers, sectionMarker{line: i, name: name})
				break
			}
		}
	}
	return markers
}

func summaryAndRest(lines []string) []OptimizedSection {
	var summary []string
	next := fallbackSkipLines
	for ; next < len(lines) && next < fallbackSummaryLines; next++ {
		if strings.TrimSpace(lines[next]) != "" {
			summary = append(summary, lines[next])
		} else if len(summary) > 0 {
			break
		}
	}

	var sections []OptimizedSection
	if len(summary) > 0 {
		sections = append(sections, OptimizedSection{Name: "SUMMARY", Content: strings.Join(summary, "\n")})
	}
	if next < len(lines) {
		if rest := strings.TrimSpace(strings.Join(lines[next:], "\n")); rest != "" {
			sections = append(sections, OptimizedSection{Name: "EXPERIENCE", Content: rest})
		}
	}
	return sections
}

// markSkillsAlias 没有 SKILL 章节时，把第一个技术/能力类章节当作技能章节
func markSkillsAlias(sections []OptimizedSection) {
	for _, s := range sections {
		if s.Skills {
			return
		}
	}
	for i, s := range sections {
		for _, alias := range skillSectionAliases {
			if strings.Contains(strings.ToUpper(s.Name), alias) {
				sections[i].Skills = true
				return
			}
		}
	}
}

// RenderOptimized 用模板的抬头和标题样式输出改写后的章节。
// 技能章节优先使用 skills；为空时从章节内容中提取列表项。
func RenderOptimized(templateID string, contact types.PersonalInfo, skills []string, sections []OptimizedSection) string {
	id := Normalize(templateID)
	d := &doc{}
	l, hasLayout := layouts[id]
	if hasLayout {
		d.add(l.contact(contact)...)
	} else {
		d.add(strings.ToUpper(nameOr(contact)))
		if contact.Position != "" {
			d.add(contact.Position)
		}
	}
	d.blank()

	skills = dedupe(skills)
	for _, s := range sections {
		header := strings.ToUpper(s.Name)
		d.add(header)
		if hasLayout && l.underline != "" {
			d.add(strings.Repeat(l.underline, len(header)))
		}
		if s.Skills {
			d.add(optimizedSkillLines(l, hasLayout, skills, s.Content)...)
		} else {
			d.add(nonEmptyLines(s.Content)...)
		}
		d.blank()
	}
	return d.String()
}

func optimizedSkillLines(l layout, hasLayout bool, skills []string, content string) []string {
	items := skills
	if len(items) == 0 {
		items = skillItems(content)
	}
	if len(items) == 0 {
		return nonEmptyLines(content)
	}
	if hasLayout && l.groupSkills {
		return groupedSkills(items)
	}
	return []string{strings.Join(items, " • ")}
}

// skillItems 去掉列表符号的单项，或逗号分隔的多项
func skillItems(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "•"):
			items = append(items, strings.TrimSpace(strings.TrimPrefix(line, "•")))
		case strings.HasPrefix(line, "-"), strings.HasPrefix(line, "*"):
			items = append(items, strings.TrimSpace(line[1:]))
		case strings.Contains(line, ","):
			items = append(items, strings.Split(line, ",")...)
		}
	}
	return dedupe(items)
}

func nonEmptyLines(content string) []string {
	var out []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
