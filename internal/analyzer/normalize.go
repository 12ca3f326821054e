package analyzer

import (
	"regexp"
	"strings"
	"time"

	"AlphaScanner/internal/model"
)

var (
	nonAlnumRe      = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	twitterHandleRe = regexp.MustCompile(`(?:twitter\.com|x\.com)/([a-zA-Z0-9_]+)`)
)

// GenerateSlug 由 name+source 派生唯一标识：小写、连续非字母数字折叠为单个'-'、
// 去首尾'-'，再拼接来源后缀。确定性函数，同名同源必然同 slug（有意合并）。
func GenerateSlug(name string, source model.ProjectSource) string {
	clean := nonAlnumRe.ReplaceAllString(strings.ToLower(name), "-")
	clean = strings.Trim(clean, "-")
	return clean + "-" + string(source)
}

// ExtractTwitterHandle 从 twitter.com/x.com 链接中提取用户名，不匹配返回nil
func ExtractTwitterHandle(url string) *string {
	if url == "" {
		return nil
	}
	m := twitterHandleRe.FindStringSubmatch(url)
	if m == nil {
		return nil
	}
	return &m[1]
}

// ParseGithubTime 容错解析 ISO8601 时间串（GitHub 返回带Z后缀），失败返回nil不报错
func ParseGithubTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// StrPtr 非空字符串转指针，空串返回nil（统一可空字段的归一化）
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
