package matching

import (
	"regexp"
	"strings"

	"cv-agent-go/internal/types"
)

var (
	expectedSections = []string{"Personal Information", "Education", "Work Experience", "Skills", "Certifications", "Projects"}
	requiredItems    = []string{"email", "phone", "address", "product manager"}
	cliches          = []string{"hard-working", "team player", "self-motivated"}

	datePattern       = regexp.MustCompile(`\b\d{2}/\d{4}\b|\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\s+\d{4}\b`)
	measurablePattern = regexp.MustCompile(`\b(\d+%|\d+\s*(?:points|users|clients))\b`)
	yearsPattern      = regexp.MustCompile(`\b(\d+)\s*(?:years?|yrs?)\b`)
)

const (
	dateFormatIssue       = "Incorrect date format (use MM/YYYY or Month YYYY)"
	noYearsWarning        = "No specific years of experience mentioned"
	moreMetricsAdvice     = "Add more quantifiable metrics"
	achievementPointsEach = 20
	minAchievements       = 3
)

// AnalyzeKeywords 统计关键词覆盖和出现频率（不区分大小写的子串计数）
func AnalyzeKeywords(cvText, jobText string, cvSkills, jobSkills []string) types.KeywordAnalysis {
	cvSet := toSet(cvSkills)
	jobSet := toSet(jobSkills)

	res := types.KeywordAnalysis{
		PresentKeywords: make([]string, 0),
		MissingKeywords: make([]string, 0),
		CVSkillFreq:     make(map[string]int, len(jobSkills)),
		JobSkillFreq:    make(map[string]int, len(jobSkills)),
	}
	for _, s := range cvSkills {
		if _, ok := jobSet[s]; ok {
			res.PresentKeywords = append(res.PresentKeywords, s)
		}
	}
	cvLower := strings.ToLower(cvText)
	jobLower := strings.ToLower(jobText)
	for _, s := range jobSkills {
		if _, ok := cvSet[s]; !ok {
			res.MissingKeywords = append(res.MissingKeywords, s)
		}
		if s == "" {
			continue
		}
		needle := strings.ToLower(s)
		res.CVSkillFreq[s] = strings.Count(cvLower, needle)
		res.JobSkillFreq[s] = strings.Count(jobLower, needle)
	}
	return res
}

// AnalyzeSections 检查常见章节标题和 ATS 必备信息是否出现
func AnalyzeSections(cvText string) types.SectionAnalysis {
	lower := strings.ToLower(cvText)
	res := types.SectionAnalysis{
		PresentSections: make([]string, 0),
		MissingSections: make([]string, 0),
		ATSIssues:       make([]string, 0),
	}
	for _, s := range expectedSections {
		if strings.Contains(lower, strings.ToLower(s)) {
			res.PresentSections = append(res.PresentSections, s)
		} else {
			res.MissingSections = append(res.MissingSections, s)
		}
	}
	for _, item := range requiredItems {
		if !strings.Contains(lower, item) {
			res.ATSIssues = append(res.ATSIssues, "Missing "+item)
		}
	}
	if !datePattern.MatchString(cvText) {
		res.ATSIssues = append(res.ATSIssues, dateFormatIssue)
	}
	return res
}

// AnalyzeAchievements 统计可量化成就，并检查工作年限和陈词滥调
func AnalyzeAchievements(cvText string) types.AchievementAnalysis {
	found := measurablePattern.FindAllString(cvText, -1)
	if found == nil {
		found = []string{}
	}
	score := len(found) * achievementPointsEach
	if score > 100 {
		score = 100
	}

	res := types.AchievementAnalysis{
		AchievementScore:           score,
		QuantifiableAchievements:   found,
		AchievementRecommendations: []string{},
	}
	if !yearsPattern.MatchString(cvText) {
		res.ExperienceWarning = noYearsWarning
	}

	lower := strings.ToLower(cvText)
	var tone []string
	for _, c := range cliches {
		if strings.Contains(lower, c) {
			tone = append(tone, c)
		}
	}
	if len(tone) > 0 {
		res.ToneWarning = "Avoid clichés like: " + strings.Join(tone, ", ")
	}
	if len(found) < minAchievements {
		res.AchievementRecommendations = append(res.AchievementRecommendations, moreMetricsAdvice)
	}
	return res
}
