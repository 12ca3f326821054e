package quest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"AlphaScanner/internal/collector"
	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

var (
	nextDataRe  = regexp.MustCompile(`(?s)<script id="__NEXT_DATA__"[^>]*>(.*?)</script>`)
	questCardRe = regexp.MustCompile(`<a[^>]+href="(/quests/[a-zA-Z0-9-]+)"[^>]*>.*?<(?:h2|h3|span)[^>]*>([^<]{3,})</`)
)

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"

// Layer3Collector Layer3 任务平台采集器：探索页内嵌的 Next.js 数据优先，
// 解析失败时退回可见卡片正则提取
type Layer3Collector struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
}

// NewLayer3 创建 Layer3 采集器
func NewLayer3(cfg config.SourceConfig, logger *logrus.Logger) *Layer3Collector {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://layer3.xyz"
	}
	return &Layer3Collector{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(&cfg, map[string]string{"User-Agent": browserUA}, logger),
		logger:     logger,
		baseURL:    baseURL,
	}
}

func (c *Layer3Collector) Name() string                { return "layer3" }
func (c *Layer3Collector) Source() model.ProjectSource { return model.SourceLayer3 }

// Collect 拉取探索页任务列表
func (c *Layer3Collector) Collect(ctx context.Context) ([]*model.RawProject, error) {
	quests, err := c.fetchQuests(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取Layer3任务失败: %w", err)
	}

	limit := 30
	if len(quests) > limit {
		quests = quests[:limit]
	}
	delay := time.Duration(c.cfg.EnrichDelay) * time.Millisecond

	var projects []*model.RawProject
	for _, q := range quests {
		if raw := c.processQuest(q); raw != nil {
			projects = append(projects, raw)
		}
		if err := collector.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

type layer3Quest struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Twitter     string   `json:"twitter"`
	Discord     string   `json:"discord"`
	Website     string   `json:"website"`
	XP          int      `json:"xp"`
	Completions int      `json:"completions"`
	Tags        []string `json:"tags"`
	SourceURL   string   `json:"-"`
}

// fetchQuests 拉取探索页并提取任务数据
func (c *Layer3Collector) fetchQuests(ctx context.Context) ([]layer3Quest, error) {
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

	// 优先解析 __NEXT_DATA__ 内嵌 JSON
	if m := nextDataRe.FindSubmatch(html); m != nil {
		var data struct {
			Props struct {
				PageProps struct {
					Quests   []layer3Quest `json:"quests"`
					Projects []layer3Quest `json:"projects"`
				} `json:"pageProps"`
			} `json:"props"`
		}
		if err := json.Unmarshal(m[1], &data); err == nil {
			quests := data.Props.PageProps.Quests
			if len(quests) == 0 {
				quests = data.Props.PageProps.Projects
			}
			if len(quests) > 0 {
				return quests, nil
			}
		}
	}

	// 兜底：正则提取可见任务卡片
	return c.parseQuestCards(html), nil
}

// parseQuestCards 从HTML可见内容提取任务名与链接
func (c *Layer3Collector) parseQuestCards(html []byte) []layer3Quest {
	var quests []layer3Quest
	for _, m := range questCardRe.FindAllSubmatch(html, 30) {
		quests = append(quests, layer3Quest{
			Name:      string(m[2]),
			SourceURL: c.baseURL + string(m[1]),
		})
	}
	return quests
}

// processQuest 任务转中间记录（名称过短的丢弃）
func (c *Layer3Collector) processQuest(q layer3Quest) *model.RawProject {
	name := q.Name
	if name == "" {
		name = q.Title
	}
	if len(name) < 3 {
		return nil
	}

	sourceURL := q.SourceURL
	if sourceURL == "" {
		sourceURL = c.baseURL + "/quests"
	}

	return &model.RawProject{
		Name:         name,
		Description:  truncate(q.Description, 500),
		SourceURL:    sourceURL,
		TwitterURL:   q.Twitter,
		DiscordURL:   q.Discord,
		WebsiteURL:   q.Website,
		EarlySignals: []string{"quest_platform", "layer3"},
		RawData: map[string]interface{}{
			"xp_reward":    q.XP,
			"participants": q.Completions,
			"tags":         q.Tags,
		},
	}
}
