package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server    ServerConfig            `mapstructure:"server"`    // 服务器配置
	Postgres  PostgresConfig          `mapstructure:"postgres"`  // PostgreSQL配置
	Scheduler SchedulerConfig         `mapstructure:"scheduler"` // 定时调度配置
	Sources   map[string]SourceConfig `mapstructure:"sources"`   // 多来源独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SchedulerConfig 定时调度配置
type SchedulerConfig struct {
	GithubIntervalHours    int      `mapstructure:"github_interval_hours"`    // GitHub采集间隔（小时）
	DefiLlamaIntervalHours int      `mapstructure:"defillama_interval_hours"` // DeFiLlama采集间隔（小时）
	QuestIntervalHours     int      `mapstructure:"quest_interval_hours"`     // 任务平台采集间隔（小时）
	DailySummaryCron       string   `mapstructure:"daily_summary_cron"`       // 每日汇总Cron表达式
	EnabledSources         []string `mapstructure:"enabled_sources"`          // 启用的来源列表
}

// SourceConfig 单个来源的独立配置
type SourceConfig struct {
	BaseURL      string `mapstructure:"base_url"`      // API基础地址
	Timeout      int    `mapstructure:"timeout"`       // 请求超时（秒）
	Proxy        string `mapstructure:"proxy"`         // 代理地址
	AuthToken    string `mapstructure:"auth_token"`    // 认证Token（GitHub用）
	SearchWindow int    `mapstructure:"search_window"` // 搜索时间窗口（天）
	MaxEnrich    int    `mapstructure:"max_enrich"`    // 单次运行最大详情抓取数
	EnrichDelay  int    `mapstructure:"enrich_delay"`  // 详情抓取间隔（毫秒，限速用）
	PageSize     int    `mapstructure:"page_size"`     // 单页拉取条数
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if g, ok := cfg.Sources["github"]; ok {
		if v := os.Getenv("GITHUB_TOKEN"); v != "" {
			g.AuthToken = v
		}
		if v := os.Getenv("GITHUB_PROXY"); v != "" {
			g.Proxy = v
		}
		cfg.Sources["github"] = g
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
}

// SourceOrDefault 获取来源配置，缺省字段取兜底值（免配置即可跑通）
func (c *Config) SourceOrDefault(name string) SourceConfig {
	sc := c.Sources[name]
	if sc.Timeout <= 0 {
		sc.Timeout = 30
	}
	if sc.SearchWindow <= 0 {
		sc.SearchWindow = 30
	}
	if sc.MaxEnrich <= 0 {
		sc.MaxEnrich = 50
	}
	if sc.EnrichDelay <= 0 {
		sc.EnrichDelay = 500
	}
	if sc.PageSize <= 0 {
		sc.PageSize = 30
	}
	return sc
}
