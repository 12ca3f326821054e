package quest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"AlphaScanner/internal/collector"
	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// ZealyCollector Zealy 社区采集器：公开API优先，失败时退回探索页内嵌数据
type ZealyCollector struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
	apiURL     string
}

// NewZealy 创建 Zealy 采集器
func NewZealy(cfg config.SourceConfig, logger *logrus.Logger) *ZealyCollector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://zealy.io"
	}
	return &ZealyCollector{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(&cfg, map[string]string{"User-Agent": browserUA}, logger),
		logger:     logger,
		baseURL:    baseURL,
		apiURL:     "https://api.zealy.io/communities",
	}
}

func (c *ZealyCollector) Name() string                { return "zealy" }
func (c *ZealyCollector) Source() model.ProjectSource { return model.SourceZealy }

// Collect 拉取热门社区列表
func (c *ZealyCollector) Collect(ctx context.Context) ([]*model.RawProject, error) {
	communities, err := c.fetchCommunities(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取Zealy社区失败: %w", err)
	}

	limit := 30
	if len(communities) > limit {
		communities = communities[:limit]
	}
	delay := time.Duration(c.cfg.EnrichDelay) * time.Millisecond

	var projects []*model.RawProject
	for _, comm := range communities {
		if raw := c.processCommunity(comm); raw != nil {
			projects = append(projects, raw)
		}
		if err := collector.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

type zealyCommunity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Subdomain    string   `json:"subdomain"`
	Description  string   `json:"description"`
	Twitter      string   `json:"twitter"`
	Discord      string   `json:"discord"`
	Website      string   `json:"website"`
	MembersCount int      `json:"membersCount"`
	QuestsCount  int      `json:"questsCount"`
	Tags         []string `json:"tags"`
}

// fetchCommunities 公开API拉取社区，失败退回探索页抓取
func (c *ZealyCollector) fetchCommunities(ctx context.Context) ([]zealyCommunity, error) {
	u := c.apiURL + "?limit=50&isPublic=true&sortBy=trending"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
			if err != nil {
				return nil, err
			}
			// 接口可能直接返回数组，也可能包一层 communities 字段
			var list []zealyCommunity
			if err := json.Unmarshal(body, &list); err == nil {
				return list, nil
			}
			var wrapped struct {
				Communities []zealyCommunity `json:"communities"`
			}
			if err := json.Unmarshal(body, &wrapped); err == nil {
				return wrapped.Communities, nil
			}
		}
	} else {
		c.logger.WithError(err).Warn("Zealy公开API不可用，改走探索页")
	}

	return c.scrapeExplorePage(ctx)
}

// scrapeExplorePage 探索页 __NEXT_DATA__ 内嵌数据兜底
func (c *ZealyCollector) scrapeExplorePage(ctx context.Context) ([]zealyCommunity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/explore", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("探索页返回状态码%d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}

	if m := nextDataRe.FindSubmatch(html); m != nil {
		var data struct {
			Props struct {
				PageProps struct {
					Communities []zealyCommunity `json:"communities"`
				} `json:"pageProps"`
			} `json:"props"`
		}
		if err := json.Unmarshal(m[1], &data); err == nil {
			return data.Props.PageProps.Communities, nil
		}
	}
	return nil, nil
}

// processCommunity 社区转中间记录（名称过短的丢弃）
func (c *ZealyCollector) processCommunity(comm zealyCommunity) *model.RawProject {
	if len(comm.Name) < 3 {
		return nil
	}

	sourceURL := c.baseURL
	if comm.Subdomain != "" {
		sourceURL = c.baseURL + "/c/" + comm.Subdomain
	}

	return &model.RawProject{
		Name:         comm.Name,
		Description:  truncate(comm.Description, 500),
		SourceURL:    sourceURL,
		TwitterURL:   formatTwitter(comm.Twitter),
		DiscordURL:   comm.Discord,
		WebsiteURL:   comm.Website,
		EarlySignals: []string{"quest_platform", "zealy"},
		RawData: map[string]interface{}{
			"community_id":  comm.ID,
			"members_count": comm.MembersCount,
			"quests_count":  comm.QuestsCount,
			"tags":          comm.Tags,
		},
	}
}
