package enrichment

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*([\\[{].*?[\\]}])\\s*```")

// extractJSON 从模型回复中取出第一个 JSON 对象或数组。
// 优先取 ```json 代码块，否则按括号配对查找。
func extractJSON(text string) string {
	text = cleanText(text)
	if m := fencedJSON.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	open := text[start]
	closeCh := byte('}')
	if open == '[' {
		closeCh = ']'
	}

	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inStr:
			escaped = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == open:
			level++
		case c == closeCh:
			level--
			if level == 0 {
				return strings.TrimSpace(text[start : i+1])
			}
		}
	}
	return ""
}

// cleanText 去掉 BOM 并修复非法 UTF-8
func cleanText(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	if !utf8.ValidString(s) {
		s = string(bytes.ToValidUTF8([]byte(s), nil))
	}
	return s
}

// sanitizeJSON 把字符串内部未转义的双引号改成 \"。
// 判断依据：引号之后的第一个非空白字符不是 JSON 语法符号时，它属于字符串内容。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]
		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
				break
			}
			j := i + 1
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
				j++
			}
			if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
				inStr = false
				b.WriteByte(c)
			} else {
				b.WriteString(`\"`)
			}
			escaped = false
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
		case (c == '\n' || c == '\r') && inStr:
			b.WriteString(`\n`)
			escaped = false
		default:
			b.WriteByte(c)
			escaped = false
		}
	}
	return b.String()
}

// normalizeList 去空白、转小写、去空值，保持顺序
func normalizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// trimList 去空白和空值，不改变大小写
func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// dedupe 保持首次出现顺序去重
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
