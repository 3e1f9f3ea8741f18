package parser

import (
	"regexp"
	"strings"
	"unicode"

	"cv-agent-go/internal/types"
)

const (
	nameScanLines     = 10
	positionScanLines = 15
	maxPositionWords  = 6
	minWebsiteLength  = 5
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// 按顺序尝试，第一个命中的模式生效
	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\b\d{3}[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\+\d{10,15}\b`),
	}

	linkedinPattern = regexp.MustCompile(`linkedin\.com/in/[\w-]+`)
	websitePattern  = regexp.MustCompile(`(?:https?://)?(?:www\.)?[\w-]+\.(?:com|org|net|io|dev)(?:/[\w-]+)*`)

	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b[A-Z][a-z]+,\s*[A-Z]{2}\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+,\s*[A-Z][a-z]+\b`),
		regexp.MustCompile(`\b[A-Z][a-z]+(?:,\s*[A-Z][a-z]+)?,\s*[A-Z][a-z]+\b`),
	}

	nameStopWords = []string{"university", "college", "resume", "cv"}

	positionKeywords = []string{
		"data scientist", "software engineer", "developer", "analyst",
		"manager", "director", "consultant", "specialist", "lead",
		"architect", "administrator", "coordinator", "designer",
		"researcher", "professor", "teacher", "instructor",
		"executive", "assistant", "associate", "chief", "head",
		"officer", "president", "vice president", "ceo", "cto", "cfo",
		"intern", "trainee", "apprentice", "junior", "senior",
	}
)

// ExtractPersonalInfo 抽取姓名、联系方式、职位和所在地。
// 每个字段独立匹配，找不到时留空，不做字段间一致性校验。
func ExtractPersonalInfo(text string) types.PersonalInfo {
	lines := normalizeLines(text)
	info := types.PersonalInfo{
		Name:     extractName(lines),
		Email:    emailPattern.FindString(text),
		Phone:    extractPhone(text),
		LinkedIn: linkedinPattern.FindString(strings.ToLower(text)),
		Website:  extractWebsite(text),
		Location: firstMatch(locationPatterns, text),
	}
	info.Position = extractPosition(lines, info.Name)
	return info
}

func firstMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindString(text); m != "" {
			return strings.TrimSpace(m)
		}
	}
	return ""
}

// extractPhone 按顺序尝试电话格式。RE2 不支持后顾断言，
// 所以匹配起点紧挨字母或数字时视为长数字串的一部分并跳过
func extractPhone(text string) string {
	for _, p := range phonePatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			if loc[0] > 0 && isWordByte(text[loc[0]-1]) {
				continue
			}
			return strings.TrimSpace(text[loc[0]:loc[1]])
		}
	}
	return ""
}

func isWordByte(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// extractName 前10行中第一个由2到4个纯字母单词组成、至少一个首字母大写的行
func extractName(lines []string) string {
	for i, line := range lines {
		if i >= nameScanLines {
			break
		}
		words := strings.Fields(line)
		if len(words) < 2 || len(words) > 4 {
			continue
		}
		if !allAlphaWords(words) || !anyCapitalized(words) {
			continue
		}
		if containsAny(strings.ToLower(line), nameStopWords...) {
			continue
		}
		return line
	}
	return ""
}

func allAlphaWords(words []string) bool {
	for _, w := range words {
		w = strings.ReplaceAll(w, ".", "")
		if w == "" {
			return false
		}
		for _, r := range w {
			if !unicode.IsLetter(r) {
				return false
			}
		}
	}
	return true
}

func anyCapitalized(words []string) bool {
	for _, w := range words {
		if startsUpper(w) {
			return true
		}
	}
	return false
}

func extractWebsite(text string) string {
	for _, m := range websitePattern.FindAllString(strings.ToLower(text), -1) {
		if !strings.Contains(m, "linkedin") && len(m) > minWebsiteLength {
			return m
		}
	}
	return ""
}

func extractPosition(lines []string, name string) string {
	for i, line := range lines {
		if i >= positionScanLines {
			break
		}
		if line == name {
			continue
		}
		if len(strings.Fields(line)) <= maxPositionWords && containsAny(strings.ToLower(line), positionKeywords...) {
			return line
		}
	}
	return ""
}
