package analyzer

import (
	"testing"

	"AlphaScanner/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSlug(t *testing.T) {
	cases := []struct {
		name   string
		source model.ProjectSource
		want   string
	}{
		{"Foo Bar", model.SourceGithub, "foo-bar-github"},
		{"foo-bar", model.SourceGithub, "foo-bar-github"},
		{"Foo  Bar!!", model.SourceGithub, "foo-bar-github"},
		{"  ZK_Rollup v2  ", model.SourceDefiLlama, "zk-rollup-v2-defillama"},
		{"中文Name", model.SourceGalxe, "name-galxe"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, GenerateSlug(c.name, c.source), "name=%q", c.name)
	}
}

func TestGenerateSlugDeterministic(t *testing.T) {
	// 同名同源多次生成结果一致
	first := GenerateSlug("My DeFi Protocol", model.SourceGithub)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, GenerateSlug("My DeFi Protocol", model.SourceGithub))
	}
	// 同名不同源 slug 不同
	assert.NotEqual(t, first, GenerateSlug("My DeFi Protocol", model.SourceDefiLlama))
}

func TestCalculateScore(t *testing.T) {
	// 高活跃度+Twitter：5.0 + 2.0 + 1.5 + 1.0 + 0.3 = 9.8
	raw := &model.RawProject{
		GithubStars:        150,
		GithubCommits30d:   60,
		GithubContributors: 8,
		TwitterURL:         "https://twitter.com/foo",
	}
	assert.Equal(t, 9.8, CalculateScore(raw))

	// 空记录取基准分
	assert.Equal(t, 5.0, CalculateScore(&model.RawProject{}))

	// 全满溢出截断到10
	full := &model.RawProject{
		GithubStars:        999,
		GithubCommits30d:   999,
		GithubContributors: 99,
		TwitterURL:         "https://twitter.com/foo",
		DiscordURL:         "https://discord.gg/foo",
		EarlySignals:       []string{"testnet"},
	}
	assert.Equal(t, 10.0, CalculateScore(full))
}

func TestCalculateScoreIdempotent(t *testing.T) {
	raw := &model.RawProject{
		GithubStars:        42,
		GithubCommits30d:   15,
		GithubContributors: 3,
		EarlySignals:       []string{"keyword:devnet"},
		DiscordURL:         "https://discord.gg/bar",
	}
	first := CalculateScore(raw)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, CalculateScore(raw))
	}
	assert.GreaterOrEqual(t, first, 0.0)
	assert.LessOrEqual(t, first, 10.0)
}

func TestCalculateScoreSignalKeyword(t *testing.T) {
	base := CalculateScore(&model.RawProject{})
	withSignal := CalculateScore(&model.RawProject{EarlySignals: []string{"keyword:testnet"}})
	assert.Equal(t, base+0.5, withSignal)
}

func TestDetectCategory(t *testing.T) {
	cases := []struct {
		desc string
		want model.ProjectCategory
	}{
		{"a zk-rollup scaling solution", model.CategoryL2},
		{"next gen blockchain consensus", model.CategoryL1},
		{"decentralized lending protocol with amm", model.CategoryDefi},
		{"cross-chain bridge with oracle", model.CategoryInfrastructure},
		{"developer sdk and cli", model.CategoryTooling},
		{"play-to-earn gaming world", model.CategoryGaming},
		{"nft marketplace for artists", model.CategoryNFT},
		{"dao governance platform", model.CategorySocial},
		{"something entirely different", model.CategoryOther},
	}
	for _, c := range cases {
		raw := &model.RawProject{Description: c.desc}
		assert.Equal(t, c.want, DetectCategory(raw), "desc=%q", c.desc)
	}
}

func TestDetectCategoryPriority(t *testing.T) {
	// 同时命中 L2 和 DeFi 关键词时，规则顺序在前的 L2 胜出
	raw := &model.RawProject{Description: "a defi lending protocol on a zk-rollup"}
	assert.Equal(t, model.CategoryL2, DetectCategory(raw))
}

func TestDetectCategoryUsesTopics(t *testing.T) {
	raw := &model.RawProject{
		Name:         "mystery",
		Description:  "no obvious words here",
		GithubTopics: []string{"nft", "art"},
	}
	assert.Equal(t, model.CategoryNFT, DetectCategory(raw))
}

func TestExtractTwitterHandle(t *testing.T) {
	h := ExtractTwitterHandle("https://twitter.com/foo_bar")
	require.NotNil(t, h)
	assert.Equal(t, "foo_bar", *h)

	h = ExtractTwitterHandle("https://x.com/baz123")
	require.NotNil(t, h)
	assert.Equal(t, "baz123", *h)

	assert.Nil(t, ExtractTwitterHandle(""))
	assert.Nil(t, ExtractTwitterHandle("https://example.com/foo"))
}

func TestParseGithubTime(t *testing.T) {
	ts := ParseGithubTime("2025-06-01T12:30:00Z")
	require.NotNil(t, ts)
	assert.Equal(t, 2025, ts.Year())

	ts = ParseGithubTime("2025-06-01")
	require.NotNil(t, ts)

	assert.Nil(t, ParseGithubTime(""))
	assert.Nil(t, ParseGithubTime("not a date"))
}
