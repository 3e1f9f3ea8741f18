package parser

import (
	"regexp"
	"strings"
	"unicode"
)

const monthNames = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec|January|February|March|April|May|June|July|August|September|October|November|December`

var (
	// 月份 + 年份，例如 "Jan 2020"、"September. 2019"
	monthYearPattern = regexp.MustCompile(`(?:` + monthNames + `)\.?\s+\d{4}`)

	// 月份范围，例如 "Jan 2020 - Present"
	monthRangePattern = regexp.MustCompile(`(?i)((?:` + monthNames + `)\.?\s+\d{4})\s*(?:-|–|to|until)\s*((?:` + monthNames + `)\.?\s+\d{4}|Present|Current)`)

	// 年份范围，例如 "2018 - 2020"、"2019 to Present"
	yearRangePattern = regexp.MustCompile(`(?i)((?:19|20)\d{2})\s*(?:-|–|to|until)\s*((?:19|20)\d{2}|Present|Current)`)

	// 年份范围的起始部分，用于条目切分
	yearRangeStartPattern = regexp.MustCompile(`(?:19|20)\d{2}\s*(?:-|–|to|until)`)

	// 单个日期：月份年份或裸年份
	singleDatePattern = regexp.MustCompile(`(?:` + monthNames + `)\.?\s+\d{4}|(?:19|20)\d{2}`)

	bulletPrefixPattern = regexp.MustCompile(`^(?:[•\-*]|\d+\.)\s*`)
	numberedPattern     = regexp.MustCompile(`^\d+\.`)
)

var entrySeparators = []string{" at ", " - ", " | "}

// isBullet 判断行是否以项目符号或编号开头
func isBullet(line string) bool {
	return strings.HasPrefix(line, "•") ||
		strings.HasPrefix(line, "-") ||
		strings.HasPrefix(line, "*") ||
		numberedPattern.MatchString(line)
}

// stripBullet 去掉行首的项目符号或编号
func stripBullet(line string) string {
	return strings.TrimSpace(bulletPrefixPattern.ReplaceAllString(line, ""))
}

// isDateLine 行中是否包含月份年份或年份范围
func isDateLine(line string) bool {
	return monthYearPattern.MatchString(line) || yearRangeStartPattern.MatchString(line)
}

func hasSeparator(line string) bool {
	for _, sep := range entrySeparators {
		if strings.Contains(line, sep) {
			return true
		}
	}
	return false
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func containsAny(s string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// splitAfterTerm 按第一个出现的关键词（忽略大小写）切分，返回关键词之后的部分
func splitAfterTerm(line string, terms ...string) (string, bool) {
	lower := strings.ToLower(line)
	best, bestLen := -1, 0
	for _, t := range terms {
		if idx := strings.Index(lower, t); idx >= 0 && (best < 0 || idx < best) {
			best, bestLen = idx, len(t)
		}
	}
	if best < 0 {
		return "", false
	}
	return line[best+bestLen:], true
}

// splitOnFold 按分隔符（忽略大小写）切成两段
func splitOnFold(line, sep string) (string, string, bool) {
	idx := strings.Index(strings.ToLower(line), strings.ToLower(sep))
	if idx < 0 {
		return line, "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(sep):]), true
}

// normalizeLines 按行切分并去掉首尾空白，丢弃空行
func normalizeLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
