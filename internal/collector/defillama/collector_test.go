package defillama

import (
	"testing"
	"time"

	"AlphaScanner/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollector() *Collector {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return New(config.SourceConfig{}, l)
}

func TestFilterEarlyStage(t *testing.T) {
	c := newTestCollector()

	protocols := []llamaProtocol{
		// 低TVL + 新兴链：入选
		{Name: "NewDex", TVL: 500_000, Chains: []string{"Base"}},
		// 低TVL但都是老链：不入选
		{Name: "OldChainDex", TVL: 500_000, Chains: []string{"Ethereum"}},
		// 高TVL：不入选
		{Name: "BigProtocol", TVL: 50_000_000, Chains: []string{"Base"}},
		// 近期上架且有TVL：入选
		{Name: "FreshListing", TVL: 2_000, Chains: []string{"Ethereum"},
			ListedAt: time.Now().Add(-30 * 24 * time.Hour).Unix()},
		// 近期上架但TVL为0：不入选
		{Name: "EmptyFresh", TVL: 0, Chains: []string{"Ethereum"},
			ListedAt: time.Now().Add(-30 * 24 * time.Hour).Unix()},
		// TVL过低（低于$1K下限）且非近期：不入选
		{Name: "DustProtocol", TVL: 500, Chains: []string{"Base"}},
	}

	early := c.filterEarlyStage(protocols)
	require.Len(t, early, 2)
	// 按TVL升序（越小越早期优先）
	assert.Equal(t, "FreshListing", early[0].Name)
	assert.Equal(t, "NewDex", early[1].Name)
}

func TestDetectEarlySignals(t *testing.T) {
	c := newTestCollector()

	p := llamaProtocol{
		TVL:      50_000,
		Chains:   []string{"Base", "Scroll", "Blast", "Manta", "Ethereum"},
		ListedAt: time.Now().Add(-20 * 24 * time.Hour).Unix(),
	}
	detail := llamaDetail{
		Raises: []struct {
			Date   string  `json:"date"`
			Amount float64 `json:"amount"`
		}{
			{Date: time.Now().Add(-60 * 24 * time.Hour).Format("2006-01-02"), Amount: 1_000_000},
		},
	}

	signals := c.detectEarlySignals(p, detail)
	assert.Contains(t, signals, "very_low_tvl")
	// 新兴链最多列3条
	assert.Contains(t, signals, "new_chains:Base,Scroll,Blast")
	assert.Contains(t, signals, "very_new:20d")
	assert.Contains(t, signals, "raised:1_rounds")
	assert.Contains(t, signals, "recent_funding")
}

func TestDetectEarlySignalsOldFunding(t *testing.T) {
	c := newTestCollector()

	detail := llamaDetail{
		Raises: []struct {
			Date   string  `json:"date"`
			Amount float64 `json:"amount"`
		}{
			{Date: "2020-01-15", Amount: 5_000_000},
		},
	}
	signals := c.detectEarlySignals(llamaProtocol{TVL: 5_000_000}, detail)
	assert.Contains(t, signals, "raised:1_rounds")
	assert.NotContains(t, signals, "recent_funding")
	assert.NotContains(t, signals, "very_low_tvl")
	assert.NotContains(t, signals, "low_tvl")
}

func TestExtractGithub(t *testing.T) {
	c := newTestCollector()

	// 列表字段优先
	url := c.extractGithub(
		llamaProtocol{Github: []string{"org-a"}},
		llamaDetail{Github: []string{"org-b"}},
	)
	assert.Equal(t, "https://github.com/org-a", url)

	// 列表缺失时退回详情
	url = c.extractGithub(llamaProtocol{}, llamaDetail{Github: []string{"org-b"}})
	assert.Equal(t, "https://github.com/org-b", url)

	assert.Empty(t, c.extractGithub(llamaProtocol{}, llamaDetail{}))
}
