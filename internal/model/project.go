package model

import (
	"time"

	"gorm.io/datatypes"
)

// ProjectSource 项目来源枚举
type ProjectSource string

const (
	SourceGithub    ProjectSource = "github"
	SourceDefiLlama ProjectSource = "defillama"
	SourceGalxe     ProjectSource = "galxe"
	SourceLayer3    ProjectSource = "layer3"
	SourceZealy     ProjectSource = "zealy"
	SourceManual    ProjectSource = "manual"
)

// AllSources 全部合法来源（用于统计与参数校验）
var AllSources = []ProjectSource{
	SourceGithub, SourceDefiLlama, SourceGalxe, SourceLayer3, SourceZealy, SourceManual,
}

// ProjectCategory 项目分类枚举
type ProjectCategory string

const (
	CategoryL1             ProjectCategory = "l1"
	CategoryL2             ProjectCategory = "l2"
	CategoryDefi           ProjectCategory = "defi"
	CategoryInfrastructure ProjectCategory = "infrastructure"
	CategoryTooling        ProjectCategory = "tooling"
	CategoryGaming         ProjectCategory = "gaming"
	CategoryNFT            ProjectCategory = "nft"
	CategorySocial         ProjectCategory = "social"
	CategoryAI             ProjectCategory = "ai"
	CategoryOther          ProjectCategory = "other"
)

// AllCategories 全部分类
var AllCategories = []ProjectCategory{
	CategoryL1, CategoryL2, CategoryDefi, CategoryInfrastructure, CategoryTooling,
	CategoryGaming, CategoryNFT, CategorySocial, CategoryAI, CategoryOther,
}

// ProjectStatus 项目状态枚举：new -> analyzed -> archived/rejected
type ProjectStatus string

const (
	StatusNew      ProjectStatus = "new"
	StatusAnalyzed ProjectStatus = "analyzed"
	StatusArchived ProjectStatus = "archived"
	StatusRejected ProjectStatus = "rejected"
)

// AllStatuses 全部状态
var AllStatuses = []ProjectStatus{StatusNew, StatusAnalyzed, StatusArchived, StatusRejected}

// Project 项目主表（slug 全局唯一，同名+同来源视为同一项目并合并）
type Project struct {
	ID          uint64        `gorm:"column:id;primaryKey;autoIncrement;comment:自增主键ID" json:"id"`
	Name        string        `gorm:"column:name;type:varchar(255);index;not null;comment:项目名称" json:"name"`
	Slug        string        `gorm:"column:slug;type:varchar(255);uniqueIndex;not null;comment:唯一标识（name+source派生）" json:"slug"`
	Description *string       `gorm:"column:description;type:text;comment:项目描述" json:"description"`
	Source      ProjectSource `gorm:"column:source;type:varchar(32);index;not null;comment:数据来源" json:"source"`
	SourceURL   *string       `gorm:"column:source_url;type:varchar(512);comment:来源页面地址" json:"source_url"`

	// GitHub 维度指标（非 GitHub 来源时为零值/空）
	GithubURL          *string        `gorm:"column:github_url;type:varchar(512);comment:仓库地址" json:"github_url"`
	GithubOrg          *string        `gorm:"column:github_org;type:varchar(255);comment:所属组织" json:"github_org"`
	GithubStars        int            `gorm:"column:github_stars;type:int;default:0;comment:star数" json:"github_stars"`
	GithubForks        int            `gorm:"column:github_forks;type:int;default:0;comment:fork数" json:"github_forks"`
	GithubCommits30d   int            `gorm:"column:github_commits_30d;type:int;default:0;comment:近30天commit数" json:"github_commits_30d"`
	GithubContributors int            `gorm:"column:github_contributors;type:int;default:0;comment:贡献者数" json:"github_contributors"`
	GithubCreatedAt    *time.Time     `gorm:"column:github_created_at;type:timestamp;comment:仓库创建时间" json:"github_created_at"`
	GithubLanguage     *string        `gorm:"column:github_language;type:varchar(100);comment:主语言" json:"github_language"`
	GithubTopics       datatypes.JSON `gorm:"column:github_topics;type:jsonb;comment:topic列表" json:"github_topics"`

	// 社交链接
	TwitterURL    *string `gorm:"column:twitter_url;type:varchar(512);comment:Twitter地址" json:"twitter_url"`
	TwitterHandle *string `gorm:"column:twitter_handle;type:varchar(255);comment:Twitter用户名" json:"twitter_handle"`
	WebsiteURL    *string `gorm:"column:website_url;type:varchar(512);comment:官网地址" json:"website_url"`
	DiscordURL    *string `gorm:"column:discord_url;type:varchar(512);comment:Discord地址" json:"discord_url"`

	// 分析结果（score 0-10，confidence 0-1）
	Category   ProjectCategory `gorm:"column:category;type:varchar(32);index;default:other;comment:项目分类" json:"category"`
	Score      float64         `gorm:"column:score;type:numeric(4,1);default:0;comment:初始评分0-10" json:"score"`
	Confidence float64         `gorm:"column:confidence;type:numeric(3,2);default:0;comment:置信度0-1" json:"confidence"`

	// AI 分析产物（由外部分析服务回填，采集侧不写）
	WhyEarly *string `gorm:"column:why_early;type:text;comment:早期判定依据" json:"why_early"`
	Summary  *string `gorm:"column:summary;type:text;comment:AI摘要" json:"summary"`
	RedFlags *string `gorm:"column:red_flags;type:text;comment:风险提示" json:"red_flags"`

	// 早期信号标签与原始数据快照
	EarlySignals datatypes.JSON `gorm:"column:early_signals;type:jsonb;comment:早期信号标签" json:"early_signals"`
	RawData      datatypes.JSON `gorm:"column:raw_data;type:jsonb;comment:来源原始数据快照" json:"raw_data"`

	// 状态
	Status     ProjectStatus `gorm:"column:status;type:varchar(16);index;default:new;comment:状态：new/analyzed/archived/rejected" json:"status"`
	IsFeatured bool          `gorm:"column:is_featured;type:boolean;default:false;comment:是否精选" json:"is_featured"`

	// 时间戳：discovered_at 创建后不变，updated_at 每次合并刷新
	DiscoveredAt time.Time  `gorm:"column:discovered_at;type:timestamp;comment:首次发现时间" json:"discovered_at"`
	AnalyzedAt   *time.Time `gorm:"column:analyzed_at;type:timestamp;comment:AI分析完成时间" json:"analyzed_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;type:timestamp;comment:更新时间" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }
