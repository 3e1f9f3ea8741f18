package parser

import "regexp"

// lineRule 规则表中的一条规则：match 命中后由 apply 写入目标结构。
// apply 返回 true 表示该行已被消费，不再尝试后续规则。
type lineRule[T any] struct {
	name  string
	match func(line string, out *T) bool
	apply func(line string, out *T) bool
}

// applyLineRules 依次尝试规则，第一条命中且消费该行的规则生效
func applyLineRules[T any](rules []lineRule[T], line string, out *T) string {
	for _, r := range rules {
		if r.match(line, out) && r.apply(line, out) {
			return r.name
		}
	}
	return ""
}

// dateRange 从文本中抽取的起止日期
type dateRange struct {
	start, end string
	matched    string
}

// findDateRange 先尝试月份范围，再尝试年份范围，都没有时把单个月份日期作为结束日期
func findDateRange(entry string, allowSingle bool) (dateRange, bool) {
	for _, p := range []*regexp.Regexp{monthRangePattern, yearRangePattern} {
		if m := p.FindStringSubmatch(entry); m != nil {
			return dateRange{start: m[1], end: m[2], matched: m[0]}, true
		}
	}
	if allowSingle {
		if m := monthYearPattern.FindString(entry); m != "" {
			return dateRange{end: m, matched: m}, true
		}
	}
	return dateRange{}, false
}
