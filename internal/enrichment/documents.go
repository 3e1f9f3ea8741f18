package enrichment

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	htmlBlockTag   = regexp.MustCompile(`(?i)<(?:h[1-6]|p|ul|ol|li|div|strong|em|br|table)\b[^>]*>`)
	markdownFenced = regexp.MustCompile("(?s)^```(?:markdown|md|html)?\\s*\n(.*?)\n?```\\s*$")
)

// DefaultEditGoal EditSection 未指定目标时使用
const DefaultEditGoal = "Make it more professional and impactful"

// OptimizeCV 按岗位改写简历，输出 markdown。失败时返回原文。
func (a *Adapter) OptimizeCV(ctx context.Context, cvText, jobText string) Result[string] {
	const task = "optimize_cv"
	out, err := a.Complete(ctx, task, systemWriter, optimizePrompt(cvText, jobText))
	if err == nil {
		out, err = ToMarkdown(out)
	}
	if err == nil && out == "" {
		err = fmt.Errorf("模型返回空内容")
	}
	if err != nil {
		a.warn(task, err)
		return degraded(cvText)
	}
	return ok(out)
}

// GenerateCoverLetter 生成求职信。失败时返回空字符串。
func (a *Adapter) GenerateCoverLetter(ctx context.Context, cvText, jobText string) Result[string] {
	const task = "cover_letter"
	out, err := a.Complete(ctx, task, systemWriter, coverLetterPrompt(cvText, jobText))
	if err == nil && strings.TrimSpace(out) == "" {
		err = fmt.Errorf("模型返回空内容")
	}
	if err != nil {
		a.warn(task, err)
		return degraded("")
	}
	return ok(strings.TrimSpace(out))
}

type enhancedSkills struct {
	EnhancedSkills []string `json:"enhanced_skills"`
}

// EnhanceSkills 补充相关或同义技能，返回去重后的并集。失败时返回原技能列表。
func (a *Adapter) EnhanceSkills(ctx context.Context, skills []string) Result[[]string] {
	const task = "enhance_skills"
	base := dedupe(normalizeList(skills))
	if len(base) == 0 {
		return ok(base)
	}
	res, err := generateJSON[enhancedSkills](ctx, a, task, systemJSONAnalyst, enhanceSkillsPrompt(base))
	if err != nil {
		a.warn(task, err)
		return degraded(base)
	}
	return ok(dedupe(append(base, normalizeList(res.EnhancedSkills)...)))
}

// EditSection 改写简历中的一个章节。失败时返回原内容。
func (a *Adapter) EditSection(ctx context.Context, section, content, goal string) Result[string] {
	const task = "edit_section"
	if strings.TrimSpace(goal) == "" {
		goal = DefaultEditGoal
	}
	out, err := a.Complete(ctx, task, systemEditor, editSectionPrompt(section, content, goal))
	if err == nil && strings.TrimSpace(out) == "" {
		err = fmt.Errorf("模型返回空内容")
	}
	if err != nil {
		a.warn(task, err)
		return degraded(content)
	}
	return ok(strings.TrimSpace(out))
}

// ToMarkdown 去掉外层代码块；内容是 HTML 时转换为 markdown
func ToMarkdown(s string) (string, error) {
	s = strings.TrimSpace(s)
	if m := markdownFenced.FindStringSubmatch(s); len(m) > 1 {
		s = strings.TrimSpace(m[1])
	}
	if !htmlBlockTag.MatchString(s) {
		return s, nil
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return "", fmt.Errorf("HTML转换markdown失败: %w", err)
	}
	return strings.TrimSpace(md), nil
}
