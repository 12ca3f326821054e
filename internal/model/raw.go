package model

import "strings"

// RawProject 各采集器产出的中间记录（抹平来源差异，入库前的统一形态）。
// 字段缺失时保持零值/空指针，由入库侧按规则归一化。
type RawProject struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SourceURL   string `json:"source_url"`

	// GitHub 指标（非代码托管来源保持零值）
	GithubURL          string   `json:"github_url"`
	GithubOrg          string   `json:"github_org"`
	GithubStars        int      `json:"github_stars"`
	GithubForks        int      `json:"github_forks"`
	GithubCommits30d   int      `json:"github_commits_30d"`
	GithubContributors int      `json:"github_contributors"`
	GithubCreatedAt    string   `json:"github_created_at"` // ISO8601 字符串，解析失败置空
	GithubLanguage     string   `json:"github_language"`
	GithubTopics       []string `json:"github_topics"`

	// 社交链接
	TwitterURL string `json:"twitter_url"`
	DiscordURL string `json:"discord_url"`
	WebsiteURL string `json:"website_url"`

	// 早期信号标签（纯文本，供评分与分类参考）
	EarlySignals []string `json:"early_signals"`

	// 来源原始数据快照（各采集器自定义结构）
	RawData map[string]interface{} `json:"raw_data"`
}

// HasSignal 判断是否存在包含指定子串的早期信号
func (r *RawProject) HasSignal(substr string) bool {
	for _, s := range r.EarlySignals {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
