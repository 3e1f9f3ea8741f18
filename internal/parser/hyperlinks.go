package parser

import (
	"strings"

	"cv-agent-go/internal/types"
)

var websiteLinkHints = []string{"portfolio", "mywebsite", "about", "dev"}

// ApplyHyperlinks 用文档中的超链接覆盖文本匹配出的个人主页字段
func ApplyHyperlinks(info types.PersonalInfo, links []string) types.PersonalInfo {
	if l := firstLink(links, isLinkedInProfile); l != "" {
		info.LinkedIn = l
	}
	if l := firstLink(links, isGitHubRepoLink); l != "" {
		info.GitHub = l
	}
	if l := firstLink(links, isPersonalSite); l != "" {
		info.Website = l
	}
	return info
}

func firstLink(links []string, pred func(lower, raw string) bool) string {
	for _, l := range links {
		l = strings.TrimSpace(l)
		if l != "" && pred(strings.ToLower(l), l) {
			return l
		}
	}
	return ""
}

func isLinkedInProfile(lower, _ string) bool {
	return strings.Contains(lower, "linkedin.com/in/")
}

// isGitHubRepoLink 只接受带路径的 github 链接，例如 https://github.com/user
func isGitHubRepoLink(lower, raw string) bool {
	return strings.Contains(lower, "github.com/") && len(strings.Split(strings.Trim(raw, "/"), "/")) > 3
}

func isPersonalSite(lower, _ string) bool {
	return containsAny(lower, websiteLinkHints...)
}
