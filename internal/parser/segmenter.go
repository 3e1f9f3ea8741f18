package parser

import (
	"strings"
	"unicode"

	"cv-agent-go/internal/types"
)

// sectionKeywords 章节标题关键词表。顺序即优先级，先命中的章节胜出。
var sectionKeywords = []struct {
	section  types.SectionType
	keywords []string
}{
	{types.SectionSummary, []string{"summary", "profile", "about", "objective", "professional summary"}},
	{types.SectionExperience, []string{"experience", "employment", "work history", "professional experience", "work experience", "career"}},
	{types.SectionEducation, []string{"education", "academic", "qualifications", "degree", "university", "college"}},
	{types.SectionSkills, []string{"skills", "competencies", "expertise", "technical skills", "core competencies", "key skills"}},
	{types.SectionCertifications, []string{"certifications", "certificates", "credentials", "qualifications", "license"}},
	{types.SectionLanguages, []string{"languages", "language skills", "fluency"}},
	{types.SectionProjects, []string{"projects", "portfolio", "work samples", "key projects", "achievements"}},
}

const maxHeaderWords = 5

// Sections 分段结果，保留章节首次出现的顺序
type Sections struct {
	order  []types.SectionType
	blocks map[types.SectionType]string
}

// Get 返回章节内容，不存在时返回空字符串
func (s Sections) Get(t types.SectionType) string {
	return s.blocks[t]
}

// List 按首次出现顺序返回所有章节
func (s Sections) List() []types.ResumeSection {
	out := make([]types.ResumeSection, 0, len(s.order))
	for _, t := range s.order {
		out = append(out, types.ResumeSection{Type: t, Content: s.blocks[t]})
	}
	return out
}

// Len 章节数量
func (s Sections) Len() int { return len(s.order) }

func (s *Sections) add(t types.SectionType, lines []string) {
	if len(lines) == 0 {
		return
	}
	block := strings.Join(lines, "\n")
	if prev, ok := s.blocks[t]; ok {
		// 同名章节再次出现时追加，不覆盖
		s.blocks[t] = prev + "\n" + block
		return
	}
	s.order = append(s.order, t)
	s.blocks[t] = block
}

// SegmentSections 根据标题行把简历文本切分为章节。
// 第一个标题之前的行不属于任何章节，直接丢弃。
func SegmentSections(text string) Sections {
	sections := Sections{blocks: make(map[types.SectionType]string)}

	var current types.SectionType
	var buf []string
	for _, line := range normalizeLines(text) {
		if detected, ok := detectHeader(line); ok {
			if current != "" {
				sections.add(current, buf)
			}
			current = detected
			buf = nil
			continue
		}
		if current != "" {
			buf = append(buf, line)
		}
	}
	if current != "" {
		sections.add(current, buf)
	}
	return sections
}

// detectHeader 判断一行是否为章节标题
func detectHeader(line string) (types.SectionType, bool) {
	lower := strings.ToLower(line)
	words := strings.Fields(line)
	for _, sk := range sectionKeywords {
		for _, kw := range sk.keywords {
			if lower == kw {
				return sk.section, true
			}
		}
		if len(words) > maxHeaderWords || !containsAny(lower, sk.keywords...) {
			continue
		}
		if isAllUpper(line) || allWordsCapitalized(words) {
			return sk.section, true
		}
	}
	return "", false
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

// allWordsCapitalized 每个以字母开头的单词首字母大写；"&" 之类的符号词不参与判断
func allWordsCapitalized(words []string) bool {
	counted := 0
	for _, w := range words {
		r := []rune(w)[0]
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		counted++
	}
	return counted > 0
}
