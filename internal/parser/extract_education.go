package parser

import (
	"regexp"
	"strings"

	"cv-agent-go/internal/types"
)

var (
	degreePattern = regexp.MustCompile(`(?i)\b(?:(Bachelor|Master|Doctorate|PhD|MBA|BSc|MSc|BA|MA|MD|JD)(?:'?s)?\b|(B\.S\.|M\.S\.|B\.A\.|M\.A\.|Ph\.D\.))(?:\s+(?:of|in)\s+(\w+(?:\s+\w+)*))?`)

	institutionPattern = regexp.MustCompile(`(?i)(?:University|College|Institute|School) of [A-Za-z\s]+`)

	gpaPattern = regexp.MustCompile(`(?i)GPA:?[ \t]*(\d+(?:\.\d+)?)(?:/\d+(?:\.\d+)?)?|(\d+(?:\.\d+)?)[ \t]+GPA`)

	institutionKeywords = []string{"university", "college", "institute", "school"}
	honorKeywords       = []string{"honor", "award", "scholar"}
)

// educationFirstLineRules 第一行的识别顺序：学位 → "University of X" → 兜底
var educationFirstLineRules = []lineRule[types.Education]{
	{
		name:  "degree",
		match: func(line string, _ *types.Education) bool { return degreePattern.MatchString(line) },
		apply: func(line string, ed *types.Education) bool {
			m := degreePattern.FindStringSubmatch(line)
			ed.Degree = m[1]
			if ed.Degree == "" {
				ed.Degree = m[2]
			}
			if m[3] != "" {
				field, _, _ := splitOnFold(m[3], " at ")
				ed.Field = field
			}
			ed.Institution = institutionAfterDegree(line)
			return true
		},
	},
	{
		name:  "institution_of",
		match: func(line string, _ *types.Education) bool { return institutionPattern.MatchString(line) },
		apply: func(line string, ed *types.Education) bool {
			ed.Institution = strings.TrimSpace(institutionPattern.FindString(line))
			return true
		},
	},
	{
		name: "institution_keyword",
		match: func(line string, _ *types.Education) bool {
			return containsAny(strings.ToLower(line), institutionKeywords...)
		},
		apply: func(line string, ed *types.Education) bool {
			ed.Institution = line
			return true
		},
	},
	{
		name:  "degree_fallback",
		match: func(string, *types.Education) bool { return true },
		apply: func(line string, ed *types.Education) bool {
			ed.Degree = line
			return true
		},
	},
}

// institutionAfterDegree 学位行中逗号、" at " 或连字符之后的部分视为院校
func institutionAfterDegree(line string) string {
	for _, sep := range []string{",", " at ", "-"} {
		if _, rest, ok := splitOnFold(line, sep); ok {
			return rest
		}
	}
	return ""
}

// ParseEducation 解析教育经历章节，丢弃既无学位也无院校的条目
func ParseEducation(content string) []types.Education {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	var out []types.Education
	for _, entry := range SplitEntries(content) {
		ed := ExtractEducation(entry)
		if ed.Degree != "" || ed.Institution != "" {
			out = append(out, ed)
		}
	}
	return out
}

// ExtractEducation 从单个条目中抽取一段教育经历
func ExtractEducation(entry string) types.Education {
	ed := types.Education{Achievements: []string{}}
	lines := strings.Split(entry, "\n")
	if len(lines) == 0 {
		return ed
	}
	applyLineRules(educationFirstLineRules, strings.TrimSpace(lines[0]), &ed)

	dr, hasDate := findDateRange(entry, false)
	if hasDate {
		ed.StartDate = strings.TrimSpace(dr.start)
		ed.EndDate = strings.TrimSpace(dr.end)
	}

	gpaMatch := gpaPattern.FindStringSubmatch(entry)
	if gpaMatch != nil {
		ed.GPA = gpaMatch[1]
		if ed.GPA == "" {
			ed.GPA = gpaMatch[2]
		}
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if (hasDate && strings.Contains(line, dr.matched)) || (gpaMatch != nil && strings.Contains(line, gpaMatch[0])) {
			continue
		}
		if isBullet(line) {
			if a := stripBullet(line); a != "" {
				ed.Achievements = append(ed.Achievements, a)
			}
			continue
		}
		if containsAny(strings.ToLower(line), honorKeywords...) {
			ed.Achievements = append(ed.Achievements, line)
		}
	}
	return ed
}
