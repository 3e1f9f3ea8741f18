package parser

import (
	"strings"
)

const maxEntryHeaderWords = 5

// SplitEntries 把一个章节的内容切分为独立条目（一段工作、一个学位、一个项目）。
//
// 空行结束当前条目。连续的非空行中，以下情况开启新条目：
//   - 出现日期行，上一行不是日期行，且当前条目已经有日期
//   - 出现 " at " / " - " / " | " 分隔的标题行，而上一行没有分隔符
//   - 短的大写开头行紧跟在项目符号行之后
//
// 标题行和紧随其后的日期行属于同一条目。
func SplitEntries(content string) []string {
	var entries []string
	var current []string
	currentHasDate := false

	flush := func() {
		if len(current) > 0 {
			entries = append(entries, strings.Join(current, "\n"))
		}
		current = nil
		currentHasDate = false
	}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			flush()
			continue
		}
		if len(current) > 0 && startsNewEntry(line, current[len(current)-1], currentHasDate) {
			flush()
		}
		current = append(current, line)
		if isDateLine(line) {
			currentHasDate = true
		}
	}
	flush()

	if len(entries) == 0 && strings.TrimSpace(content) != "" {
		return []string{strings.TrimSpace(content)}
	}
	return entries
}

// startsNewEntry 按顺序检查条目切分规则
func startsNewEntry(line, prev string, currentHasDate bool) bool {
	for _, rule := range entryBoundaryRules {
		if rule.match(line, prev, currentHasDate) {
			return true
		}
	}
	return false
}

type boundaryRule struct {
	name  string
	match func(line, prev string, currentHasDate bool) bool
}

var entryBoundaryRules = []boundaryRule{
	{
		name: "month_year_date",
		match: func(line, prev string, hasDate bool) bool {
			return hasDate && monthYearPattern.MatchString(line) && !monthYearPattern.MatchString(prev)
		},
	},
	{
		name: "year_range",
		match: func(line, prev string, hasDate bool) bool {
			return hasDate && yearRangeStartPattern.MatchString(line) && !yearRangeStartPattern.MatchString(prev)
		},
	},
	{
		// 日期行里的 " - " 是区间符号，不算标题分隔
		name: "title_separator",
		match: func(line, prev string, _ bool) bool {
			return !isDateLine(line) && hasSeparator(line) && !hasSeparator(prev)
		},
	},
	{
		name: "header_after_bullets",
		match: func(line, prev string, _ bool) bool {
			return startsUpper(line) &&
				len(strings.Fields(line)) <= maxEntryHeaderWords &&
				!strings.HasPrefix(line, "•") && !strings.HasPrefix(line, "-") &&
				(strings.HasPrefix(prev, "•") || strings.HasPrefix(prev, "-"))
		},
	},
}
