package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"AlphaScanner/internal/collector"
	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// searchQueries 发现加密项目的检索词模板（%s 为创建时间下限）
var searchQueries = []string{
	"blockchain created:>%s stars:>5",
	"web3 created:>%s stars:>5",
	"ethereum created:>%s stars:>3",
	"solana created:>%s stars:>3",
	"defi protocol created:>%s",
	"layer2 scaling created:>%s",
	"zk rollup created:>%s",
	"smart contracts created:>%s stars:>5",
	"crypto wallet created:>%s",
	"dex swap created:>%s",
	"nft marketplace created:>%s",
	"dao governance created:>%s",
	"bridge cross-chain created:>%s",
	"cosmos sdk created:>%s",
	"substrate polkadot created:>%s",
	"move language aptos sui created:>%s",
	"cairo starknet created:>%s",
}

// earlyStageKeywords 指示早期项目的关键词
var earlyStageKeywords = []string{
	"testnet", "devnet", "alpha", "beta", "mvp", "poc",
	"proof of concept", "coming soon", "wip", "work in progress",
	"prototype", "experimental", "early", "pre-launch", "launch soon",
}

// excludeKeywords 排除词（大概率不是真实项目）
var excludeKeywords = []string{
	"tutorial", "course", "learning", "example", "demo",
	"homework", "assignment", "bootcamp", "lesson", "exercise",
	"test", "sample", "template", "boilerplate", "starter",
}

var (
	twitterRe  = regexp.MustCompile(`(?:twitter\.com|x\.com)/([a-zA-Z0-9_]+)`)
	discordRe  = regexp.MustCompile(`discord\.(?:gg|com/invite)/([a-zA-Z0-9]+)`)
	lastPageRe = regexp.MustCompile(`page=(\d+)>; rel="last"`)
)

// Collector GitHub 仓库采集器：多组检索词拉取近期新建仓库，
// 去重后对前 N 个做详情补全（commit/贡献者/README社交链接），再过滤产出
type Collector struct {
	cfg        config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
}

// New 创建 GitHub 采集器。未配置 Token 时仍可运行，但受匿名限流约束。
func New(cfg config.SourceConfig, logger *logrus.Logger) *Collector {
	headers := map[string]string{
		"Accept":     "application/vnd.github.v3+json",
		"User-Agent": "alpha-scanner/0.1",
	}
	if cfg.AuthToken != "" {
		headers["Authorization"] = "token " + cfg.AuthToken
	} else {
		logger.Warn("未配置GitHub Token，匿名限流会很紧")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}

	return &Collector{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(&cfg, headers, logger),
		logger:     logger,
		baseURL:    baseURL,
	}
}

func (c *Collector) Name() string                { return "github_crypto" }
func (c *Collector) Source() model.ProjectSource { return model.SourceGithub }

// Collect 拉取近期新建的加密相关仓库并补全详情。
// 单个检索/单个仓库失败只记日志跳过，不中断整次采集。
func (c *Collector) Collect(ctx context.Context) ([]*model.RawProject, error) {
	dateThreshold := time.Now().UTC().
		AddDate(0, 0, -c.cfg.SearchWindow).
		Format("2006-01-02")

	// 1. 多检索词拉取候选仓库
	var allRepos []githubRepo
	for _, tmpl := range searchQueries {
		query := fmt.Sprintf(tmpl, dateThreshold)
		repos, err := c.searchRepositories(ctx, query)
		if err != nil {
			c.logger.WithError(err).WithField("query", query).Warn("检索失败，跳过该检索词")
		} else {
			allRepos = append(allRepos, repos...)
		}
		// 检索间隔，避开API限流
		if err := collector.Sleep(ctx, 2*time.Second); err != nil {
			return nil, err
		}
	}

	// 2. 按 full_name 去重
	seen := make(map[string]struct{})
	var unique []githubRepo
	for _, r := range allRepos {
		if _, ok := seen[r.FullName]; ok {
			continue
		}
		seen[r.FullName] = struct{}{}
		unique = append(unique, r)
	}
	c.logger.Infof("检索到%d个去重后的仓库", len(unique))

	// 3. 限量补全详情并过滤
	if len(unique) > c.cfg.MaxEnrich {
		unique = unique[:c.cfg.MaxEnrich]
	}
	enrichDelay := time.Duration(c.cfg.EnrichDelay) * time.Millisecond

	var processed []*model.RawProject
	for _, repo := range unique {
		raw := c.processRepository(ctx, repo)
		if raw != nil && c.passesFilter(raw) {
			processed = append(processed, raw)
		}
		if err := collector.Sleep(ctx, enrichDelay); err != nil {
			return nil, err
		}
	}

	return processed, nil
}

// ========== GitHub API 响应结构 ==========

type githubRepo struct {
	Name            string   `json:"name"`
	FullName        string   `json:"full_name"`
	HTMLURL         string   `json:"html_url"`
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	WatchersCount   int      `json:"watchers_count"`
	OpenIssuesCount int      `json:"open_issues_count"`
	CreatedAt       string   `json:"created_at"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	Homepage        string   `json:"homepage"`
	DefaultBranch   string   `json:"default_branch"`
	Owner           struct {
		Login string `json:"login"`
	} `json:"owner"`
	License *struct {
		Key string `json:"key"`
	} `json:"license"`
}

type searchResponse struct {
	Items []githubRepo `json:"items"`
}

// searchRepositories 调用仓库检索接口（单页）
func (c *Collector) searchRepositories(ctx context.Context, query string) ([]githubRepo, error) {
	u := fmt.Sprintf("%s/search/repositories?q=%s&sort=updated&order=desc&per_page=%d",
		c.baseURL, url.QueryEscape(query), c.cfg.PageSize)

	var resp searchResponse
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// processRepository 补全单个仓库详情。详情失败只造成字段缺失，不丢弃候选。
func (c *Collector) processRepository(ctx context.Context, repo githubRepo) *model.RawProject {
	commits := c.commitsCount(ctx, repo.FullName)
	contributors := c.contributorsCount(ctx, repo.FullName)
	twitterURL, discordURL := c.extractSocialLinks(ctx, repo.FullName)

	websiteURL := repo.Homepage

	licenseKey := ""
	if repo.License != nil {
		licenseKey = repo.License.Key
	}

	return &model.RawProject{
		Name:               repo.Name,
		Description:        repo.Description,
		SourceURL:          repo.HTMLURL,
		GithubURL:          repo.HTMLURL,
		GithubOrg:          repo.Owner.Login,
		GithubStars:        repo.StargazersCount,
		GithubForks:        repo.ForksCount,
		GithubCommits30d:   commits,
		GithubContributors: contributors,
		GithubCreatedAt:    repo.CreatedAt,
		GithubLanguage:     repo.Language,
		GithubTopics:       repo.Topics,
		TwitterURL:         twitterURL,
		DiscordURL:         discordURL,
		WebsiteURL:         websiteURL,
		EarlySignals:       c.detectEarlySignals(repo),
		RawData: map[string]interface{}{
			"full_name":      repo.FullName,
			"open_issues":    repo.OpenIssuesCount,
			"watchers":       repo.WatchersCount,
			"default_branch": repo.DefaultBranch,
			"license":        licenseKey,
		},
	}
}

// commitsCount 近30天commit数（失败返回0）
func (c *Collector) commitsCount(ctx context.Context, fullName string) int {
	since := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC3339)
	u := fmt.Sprintf("%s/repos/%s/commits?since=%s&per_page=100",
		c.baseURL, fullName, url.QueryEscape(since))

	var commits []json.RawMessage
	if err := c.getJSON(ctx, u, &commits); err != nil {
		c.logger.WithError(err).WithField("repo", fullName).Debug("获取commit数失败")
		return 0
	}
	return len(commits)
}

// contributorsCount 贡献者数：优先解析 Link 头的最后一页页码（失败返回0）
func (c *Collector) contributorsCount(ctx context.Context, fullName string) int {
	u := fmt.Sprintf("%s/repos/%s/contributors?per_page=1&anon=true", c.baseURL, fullName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("repo", fullName).Debug("获取贡献者数失败")
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0
	}

	if link := resp.Header.Get("Link"); strings.Contains(link, `rel="last"`) {
		if m := lastPageRe.FindStringSubmatch(link); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n
			}
		}
	}

	var contributors []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&contributors); err != nil {
		return 0
	}
	return len(contributors)
}

// extractSocialLinks 从 README 正文提取 Twitter/Discord 链接（失败均返回空）
func (c *Collector) extractSocialLinks(ctx context.Context, fullName string) (twitterURL, discordURL string) {
	u := fmt.Sprintf("%s/repos/%s/readme", c.baseURL, fullName)

	var readme struct {
		Content string `json:"content"`
	}
	if err := c.getJSON(ctx, u, &readme); err != nil {
		c.logger.WithError(err).WithField("repo", fullName).Debug("获取README失败")
		return "", ""
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(readme.Content, "\n", ""))
	if err != nil {
		return "", ""
	}
	text := string(decoded)

	if m := twitterRe.FindStringSubmatch(text); m != nil {
		twitterURL = "https://twitter.com/" + m[1]
	}
	if m := discordRe.FindStringSubmatch(text); m != nil {
		discordURL = "https://discord.gg/" + m[1]
	}
	return twitterURL, discordURL
}

// detectEarlySignals 提取早期信号标签：关键词命中、低star、新建仓库
func (c *Collector) detectEarlySignals(repo githubRepo) []string {
	var signals []string

	description := strings.ToLower(repo.Description)
	topics := strings.ToLower(strings.Join(repo.Topics, " "))

	for _, kw := range earlyStageKeywords {
		if strings.Contains(description, kw) || strings.Contains(topics, kw) {
			signals = append(signals, "keyword:"+kw)
		}
	}

	if repo.StargazersCount < 100 {
		signals = append(signals, "low_stars")
	}

	if t, err := time.Parse(time.RFC3339, repo.CreatedAt); err == nil {
		daysOld := int(time.Since(t).Hours() / 24)
		if daysOld < 90 {
			signals = append(signals, fmt.Sprintf("new_repo:%dd", daysOld))
		}
	}

	return signals
}

// passesFilter 最终闸门：排除词命中、无活跃度、无描述的一律丢弃
func (c *Collector) passesFilter(raw *model.RawProject) bool {
	description := strings.ToLower(raw.Description)
	name := strings.ToLower(raw.Name)

	for _, kw := range excludeKeywords {
		if strings.Contains(description, kw) || strings.Contains(name, kw) {
			return false
		}
	}
	if raw.GithubCommits30d == 0 {
		return false
	}
	if raw.Description == "" {
		return false
	}
	return true
}

// getJSON GET 请求并解析 JSON 响应，非200视为错误
func (c *Collector) getJSON(ctx context.Context, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("接口返回状态码%d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
