package defillama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"AlphaScanner/internal/collector"
	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// earlyChains 新兴链列表：上面的协议更可能处于早期
var earlyChains = map[string]struct{}{
	"Arbitrum": {}, "Optimism": {}, "Base": {}, "zkSync Era": {}, "Linea": {},
	"Scroll": {}, "Blast": {}, "Manta": {}, "Mode": {}, "Mantle": {},
	"Sui": {}, "Aptos": {}, "Sei": {}, "Injective": {}, "Celestia": {},
	"Starknet": {}, "Polygon zkEVM": {}, "Taiko": {}, "Zora": {},
}

// Collector DeFiLlama 协议采集器：全量协议列表 -> 早期协议过滤 -> 详情补全
type Collector struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
}

// New 创建 DeFiLlama 采集器（免费API，无需鉴权）
func New(cfg config.SourceConfig, logger *logrus.Logger) *Collector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.llama.fi"
	}
	return &Collector{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(&cfg, nil, logger),
		logger:     logger,
		baseURL:    baseURL,
	}
}

func (c *Collector) Name() string                { return "defillama" }
func (c *Collector) Source() model.ProjectSource { return model.SourceDefiLlama }

// Collect 拉取并筛选早期DeFi协议。列表接口失败是致命错误（零产出），
// 单个协议详情失败只记日志跳过。
func (c *Collector) Collect(ctx context.Context) ([]*model.RawProject, error) {
	protocols, err := c.fetchProtocols(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取协议列表失败: %w", err)
	}

	early := c.filterEarlyStage(protocols)
	c.logger.Infof("从%d个协议中筛出%d个早期协议", len(protocols), len(early))

	if len(early) > c.cfg.MaxEnrich {
		early = early[:c.cfg.MaxEnrich]
	}
	enrichDelay := time.Duration(c.cfg.EnrichDelay) * time.Millisecond

	var projects []*model.RawProject
	for _, p := range early {
		raw := c.enrichProtocol(ctx, p)
		if raw != nil {
			projects = append(projects, raw)
		}
		if err := collector.Sleep(ctx, enrichDelay); err != nil {
			return nil, err
		}
	}

	return projects, nil
}

// ========== DeFiLlama API 响应结构 ==========

type llamaProtocol struct {
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Twitter     string   `json:"twitter"`
	TVL         float64  `json:"tvl"`
	Change1d    float64  `json:"change_1d"`
	Change7d    float64  `json:"change_7d"`
	Chains      []string `json:"chains"`
	Category    string   `json:"category"`
	ListedAt    int64    `json:"listedAt"`
	MCap        float64  `json:"mcap"`
	Github      []string `json:"github"`
}

type llamaDetail struct {
	Description string `json:"description"`
	Twitter     string `json:"twitter"`
	Github      []string `json:"github"`
	Audits      string `json:"audits"`
	Raises      []struct {
		Date   string  `json:"date"`
		Amount float64 `json:"amount"`
	} `json:"raises"`
}

// fetchProtocols 拉取全量协议列表
func (c *Collector) fetchProtocols(ctx context.Context) ([]llamaProtocol, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/protocols", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("接口返回状态码%d", resp.StatusCode)
	}

	var protocols []llamaProtocol
	if err := json.NewDecoder(resp.Body).Decode(&protocols); err != nil {
		return nil, fmt.Errorf("解析协议列表失败: %w", err)
	}
	return protocols, nil
}

// filterEarlyStage 早期协议判定：低TVL($1K-$10M)且部署在新兴链上，
// 或近180天内上架且TVL>0。结果按TVL升序（越小越早期优先）。
func (c *Collector) filterEarlyStage(protocols []llamaProtocol) []llamaProtocol {
	var early []llamaProtocol

	for _, p := range protocols {
		isLowTVL := p.TVL > 1_000 && p.TVL < 10_000_000
		isNewChain := false
		for _, chain := range p.Chains {
			if _, ok := earlyChains[chain]; ok {
				isNewChain = true
				break
			}
		}

		isRecent := false
		if p.ListedAt > 0 {
			listed := time.Unix(p.ListedAt, 0)
			isRecent = time.Since(listed) < 180*24*time.Hour
		}

		if (isLowTVL && isNewChain) || (isRecent && p.TVL > 0) {
			early = append(early, p)
		}
	}

	sort.Slice(early, func(i, j int) bool { return early[i].TVL < early[j].TVL })
	return early
}

// enrichProtocol 拉取协议详情并组装中间记录（详情失败只造成字段缺失）
func (c *Collector) enrichProtocol(ctx context.Context, p llamaProtocol) *model.RawProject {
	if p.Name == "" {
		return nil
	}

	var detail llamaDetail
	u := fmt.Sprintf("%s/protocol/%s", c.baseURL, p.Slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err == nil {
		if resp, err := c.httpClient.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				_ = json.NewDecoder(resp.Body).Decode(&detail)
			}
			resp.Body.Close()
		} else {
			c.logger.WithError(err).WithField("protocol", p.Slug).Debug("拉取协议详情失败")
		}
	}

	description := p.Description
	if description == "" {
		description = detail.Description
	}
	twitter := p.Twitter
	if twitter == "" {
		twitter = detail.Twitter
	}
	twitterURL := ""
	if twitter != "" {
		twitterURL = "https://twitter.com/" + twitter
	}

	return &model.RawProject{
		Name:         p.Name,
		Description:  description,
		SourceURL:    "https://defillama.com/protocol/" + p.Slug,
		WebsiteURL:   p.URL,
		TwitterURL:   twitterURL,
		GithubURL:    c.extractGithub(p, detail),
		EarlySignals: c.detectEarlySignals(p, detail),
		RawData: map[string]interface{}{
			"tvl":           p.TVL,
			"tvl_change_1d": p.Change1d,
			"tvl_change_7d": p.Change7d,
			"chains":        p.Chains,
			"category":      p.Category,
			"mcap":          p.MCap,
			"listed_at":     p.ListedAt,
			"audits":        detail.Audits,
			"raises":        len(detail.Raises),
		},
	}
}

// extractGithub 从列表或详情中提取首个 GitHub 组织链接
func (c *Collector) extractGithub(p llamaProtocol, detail llamaDetail) string {
	github := p.Github
	if len(github) == 0 {
		github = detail.Github
	}
	if len(github) == 0 {
		return ""
	}
	return "https://github.com/" + github[0]
}

// detectEarlySignals 提取早期信号：TVL档位、新兴链、上架时长、融资轮次
func (c *Collector) detectEarlySignals(p llamaProtocol, detail llamaDetail) []string {
	var signals []string

	switch {
	case p.TVL < 100_000:
		signals = append(signals, "very_low_tvl")
	case p.TVL < 1_000_000:
		signals = append(signals, "low_tvl")
	}

	var newChains []string
	for _, chain := range p.Chains {
		if _, ok := earlyChains[chain]; ok {
			newChains = append(newChains, chain)
		}
	}
	if len(newChains) > 0 {
		if len(newChains) > 3 {
			newChains = newChains[:3]
		}
		signals = append(signals, "new_chains:"+strings.Join(newChains, ","))
	}

	if p.ListedAt > 0 {
		daysOld := int(time.Since(time.Unix(p.ListedAt, 0)).Hours() / 24)
		switch {
		case daysOld < 30:
			signals = append(signals, fmt.Sprintf("very_new:%dd", daysOld))
		case daysOld < 90:
			signals = append(signals, fmt.Sprintf("new:%dd", daysOld))
		}
	}

	if len(detail.Raises) > 0 {
		signals = append(signals, fmt.Sprintf("raised:%d_rounds", len(detail.Raises)))
		for _, r := range detail.Raises {
			t, err := time.Parse(time.RFC3339, r.Date)
			if err != nil {
				t, err = time.Parse("2006-01-02", r.Date)
			}
			if err == nil && time.Since(t) < 180*24*time.Hour {
				signals = append(signals, "recent_funding")
				break
			}
		}
	}

	return signals
}
