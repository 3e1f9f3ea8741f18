package parser

import (
	"strings"

	"cv-agent-go/internal/types"
)

const minDescriptionLength = 20

// titleSplitRules 第一行按 " at " → " - " → "|" 的顺序拆分职位与公司
var titleSplitRules = []string{" at ", " - ", "|"}

// ParseExperience 解析工作经历章节，丢弃既无职位也无公司的条目
func ParseExperience(content string) []types.Experience {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	var out []types.Experience
	for _, entry := range SplitEntries(content) {
		exp := ExtractExperience(entry)
		if exp.Title != "" || exp.Company != "" {
			out = append(out, exp)
		}
	}
	return out
}

// ExtractExperience 从单个条目中抽取一段工作经历
func ExtractExperience(entry string) types.Experience {
	exp := types.Experience{Description: []string{}, Achievements: []string{}}
	lines := strings.Split(entry, "\n")
	if len(lines) == 0 {
		return exp
	}

	exp.Title, exp.Company = splitTitleCompany(strings.TrimSpace(lines[0]))

	dr, found := findDateRange(entry, true)
	if found {
		exp.StartDate = strings.TrimSpace(dr.start)
		exp.EndDate = strings.TrimSpace(dr.end)
	}

	for i := 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || (found && strings.Contains(line, dr.matched)) {
			continue
		}
		if isBullet(line) {
			if a := stripBullet(line); a != "" {
				exp.Achievements = append(exp.Achievements, a)
			}
			continue
		}
		if i > 1 && len(line) > minDescriptionLength {
			exp.Description = append(exp.Description, line)
		}
	}
	return exp
}

func splitTitleCompany(first string) (string, string) {
	for _, sep := range titleSplitRules {
		if title, company, ok := splitOnFold(first, sep); ok {
			return title, company
		}
	}
	return first, ""
}
