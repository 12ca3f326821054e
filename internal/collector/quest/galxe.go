package quest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"AlphaScanner/internal/collector"
	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// earlyKeywords 任务平台项目的早期信号关键词
var earlyKeywords = []string{
	"testnet", "devnet", "alpha", "beta", "early",
	"launch", "airdrop", "points", "quest", "campaign",
}

// galxeQuery ExploreSpaces 查询（拉热门空间及其活动列表）
const galxeQuery = `
query ExploreSpaces($input: ExploreSpacesInput!) {
    exploreSpaces(input: $input) {
        list {
            id
            name
            alias
            description
            followersCount
            categories
            website
            twitter
            discord
            isVerified
            campaigns {
                list {
                    name
                    status
                    participantCount
                }
            }
        }
    }
}`

// GalxeCollector Galxe 任务平台采集器（GraphQL接口）
type GalxeCollector struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
	graphqlURL string
}

// NewGalxe 创建 Galxe 采集器
func NewGalxe(cfg config.SourceConfig, logger *logrus.Logger) *GalxeCollector {
	u := cfg.BaseURL
	if u == "" {
		u = "https://graphigo.prd.galaxy.eco/query"
	}
	return &GalxeCollector{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(&cfg, nil, logger),
		logger:     logger,
		graphqlURL: u,
	}
}

func (c *GalxeCollector) Name() string                { return "galxe" }
func (c *GalxeCollector) Source() model.ProjectSource { return model.SourceGalxe }

// Collect 拉取热门空间并转换为中间记录，单个空间处理失败只跳过
func (c *GalxeCollector) Collect(ctx context.Context) ([]*model.RawProject, error) {
	spaces, err := c.fetchSpaces(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取Galxe空间失败: %w", err)
	}

	limit := 30
	if len(spaces) > limit {
		spaces = spaces[:limit]
	}
	delay := time.Duration(c.cfg.EnrichDelay) * time.Millisecond

	var projects []*model.RawProject
	for _, space := range spaces {
		if raw := c.processSpace(space); raw != nil {
			projects = append(projects, raw)
		}
		if err := collector.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

type galxeCampaign struct {
	Name             string `json:"name"`
	Status           string `json:"status"`
	ParticipantCount int    `json:"participantCount"`
}

type galxeSpace struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Alias          string   `json:"alias"`
	Description    string   `json:"description"`
	FollowersCount int      `json:"followersCount"`
	Categories     []string `json:"categories"`
	Website        string   `json:"website"`
	Twitter        string   `json:"twitter"`
	Discord        string   `json:"discord"`
	IsVerified     bool     `json:"isVerified"`
	Campaigns      struct {
		List []galxeCampaign `json:"list"`
	} `json:"campaigns"`
}

// fetchSpaces 调用 GraphQL 接口拉取热门空间列表
func (c *GalxeCollector) fetchSpaces(ctx context.Context) ([]galxeSpace, error) {
	payload := map[string]interface{}{
		"query": galxeQuery,
		"variables": map[string]interface{}{
			"input": map[string]interface{}{
				"first":        50,
				"order":        "Trending",
				"chains":       []string{},
				"rewardTypes":  []string{},
				"credSources":  []string{},
				"searchString": "",
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("接口返回状态码%d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			ExploreSpaces struct {
				List []galxeSpace `json:"list"`
			} `json:"exploreSpaces"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析GraphQL响应失败: %w", err)
	}
	return result.Data.ExploreSpaces.List, nil
}

// processSpace 空间转中间记录（无名称的丢弃）
func (c *GalxeCollector) processSpace(space galxeSpace) *model.RawProject {
	if space.Name == "" {
		return nil
	}

	text := strings.ToLower(space.Name + " " + space.Description)
	var signals []string
	for _, kw := range earlyKeywords {
		if strings.Contains(text, kw) {
			signals = append(signals, kw)
		}
	}

	var activeCampaigns []map[string]interface{}
	activeCount := 0
	for _, camp := range space.Campaigns.List {
		if camp.Status != "Active" {
			continue
		}
		activeCount++
		if len(activeCampaigns) < 5 {
			activeCampaigns = append(activeCampaigns, map[string]interface{}{
				"name":         camp.Name,
				"participants": camp.ParticipantCount,
				"status":       camp.Status,
			})
		}
	}

	return &model.RawProject{
		Name:         space.Name,
		Description:  truncate(space.Description, 500),
		SourceURL:    "https://galxe.com/" + space.Alias,
		TwitterURL:   formatTwitter(space.Twitter),
		DiscordURL:   space.Discord,
		WebsiteURL:   space.Website,
		EarlySignals: signals,
		RawData: map[string]interface{}{
			"space_id":         space.ID,
			"followers_count":  space.FollowersCount,
			"active_campaigns": activeCount,
			"total_campaigns":  len(space.Campaigns.List),
			"is_verified":      space.IsVerified,
			"categories":       space.Categories,
			"campaigns":        activeCampaigns,
		},
	}
}

// formatTwitter 补全 Twitter 链接（接口可能只给用户名）
func formatTwitter(twitter string) string {
	if twitter == "" {
		return ""
	}
	if strings.HasPrefix(twitter, "http") {
		return twitter
	}
	return "https://twitter.com/" + twitter
}

// truncate 截断超长描述
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
