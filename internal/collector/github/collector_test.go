package github

import (
	"testing"
	"time"

	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestCollector() *Collector {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return New(config.SourceConfig{AuthToken: "x"}, l)
}

func TestPassesFilter(t *testing.T) {
	c := newTestCollector()

	ok := &model.RawProject{
		Name:             "real-protocol",
		Description:      "a new defi protocol",
		GithubCommits30d: 5,
	}
	assert.True(t, c.passesFilter(ok))

	// 排除词命中（描述）
	assert.False(t, c.passesFilter(&model.RawProject{
		Name:             "x",
		Description:      "a tutorial about solidity",
		GithubCommits30d: 5,
	}))

	// 排除词命中（名称）
	assert.False(t, c.passesFilter(&model.RawProject{
		Name:             "awesome-boilerplate",
		Description:      "production ready",
		GithubCommits30d: 5,
	}))

	// 无近期commit
	assert.False(t, c.passesFilter(&model.RawProject{
		Name:        "quiet-repo",
		Description: "a new defi protocol",
	}))

	// 无描述
	assert.False(t, c.passesFilter(&model.RawProject{
		Name:             "no-desc",
		GithubCommits30d: 5,
	}))
}

func TestDetectEarlySignals(t *testing.T) {
	c := newTestCollector()

	repo := githubRepo{
		Description:     "testnet deployment coming soon",
		StargazersCount: 20,
		CreatedAt:       time.Now().UTC().Add(-10 * 24 * time.Hour).Format(time.RFC3339),
		Topics:          []string{"wip"},
	}

	signals := c.detectEarlySignals(repo)
	assert.Contains(t, signals, "keyword:testnet")
	assert.Contains(t, signals, "keyword:coming soon")
	assert.Contains(t, signals, "keyword:wip")
	assert.Contains(t, signals, "low_stars")
	assert.Contains(t, signals, "new_repo:10d")
}

func TestDetectEarlySignalsMatureRepo(t *testing.T) {
	c := newTestCollector()

	repo := githubRepo{
		Description:     "battle tested defi protocol",
		StargazersCount: 5000,
		CreatedAt:       "2020-01-01T00:00:00Z",
	}
	signals := c.detectEarlySignals(repo)
	assert.NotContains(t, signals, "low_stars")
	for _, s := range signals {
		assert.NotContains(t, s, "new_repo:")
	}
}

func TestSocialLinkRegexes(t *testing.T) {
	readme := `# Project
Follow us on https://twitter.com/proj_handle and join https://discord.gg/Abc123XY for updates.
Also on https://x.com/alt_handle`

	m := twitterRe.FindStringSubmatch(readme)
	assert.Equal(t, "proj_handle", m[1])

	m = discordRe.FindStringSubmatch(readme)
	assert.Equal(t, "Abc123XY", m[1])
}

func TestLastPageRegex(t *testing.T) {
	link := `<https://api.github.com/repositories/1/contributors?per_page=1&page=2>; rel="next", ` +
		`<https://api.github.com/repositories/1/contributors?per_page=1&page=47>; rel="last"`
	m := lastPageRe.FindStringSubmatch(link)
	assert.Equal(t, "47", m[1])
}
