package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"AlphaScanner/internal/analyzer"
	"AlphaScanner/internal/metrics"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UpsertStats 单批入库的聚合结果
type UpsertStats struct {
	New     int `json:"new"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
}

// ProjectService 项目入库与查询服务。入库按 slug 幂等 upsert：
// 同一 slug 只会创建一次，后续观测一律合并进已有记录。
type ProjectService struct {
	db     *gorm.DB
	repo   repository.ProjectRepository
	logger *logrus.Logger
}

// NewProjectService 创建 ProjectService
func NewProjectService(db *gorm.DB, logger *logrus.Logger) *ProjectService {
	return &ProjectService{
		db:     db,
		repo:   repository.NewProjectRepository(db),
		logger: logger,
	}
}

// UpsertBatch 批量入库：整批一个事务、一次提交；单条失败回滚到保存点并计为 skipped，
// 不中断批次。合并策略：指标以最新观测覆盖，社交链接仅在当前为空时填充。
func (s *ProjectService) UpsertBatch(ctx context.Context, records []*model.RawProject, source model.ProjectSource) (stats *UpsertStats, err error) {
	stats = &UpsertStats{}
	if len(records) == 0 {
		return stats, nil
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("开启事务失败: %w", tx.Error)
	}
	// 批内panic回滚后折叠为错误返回，调用方按普通失败处理
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			stats = nil
			err = fmt.Errorf("入库批次异常中断: %v", p)
			s.logger.WithField("panic", p).Error("批量入库发生panic，事务已回滚")
		}
	}()

	for i, rec := range records {
		sp := fmt.Sprintf("sp_%d", i)
		if err := tx.SavePoint(sp).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("创建保存点失败: %w", err)
		}

		outcome, err := s.upsertOne(tx, rec, source)
		if err != nil {
			// 单条失败：回滚到保存点，跳过该条继续处理
			tx.RollbackTo(sp)
			stats.Skipped++
			metrics.ProjectsSkipped.Inc()
			s.logger.WithError(err).WithField("name", rec.Name).Warn("入库单条失败，已跳过")
			continue
		}
		switch outcome {
		case "new":
			stats.New++
			metrics.ProjectsNew.Inc()
		case "updated":
			stats.Updated++
			metrics.ProjectsUpdated.Inc()
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	s.logger.Infof("入库完成: 新增%d 更新%d 跳过%d", stats.New, stats.Updated, stats.Skipped)
	return stats, nil
}

// upsertOne 单条 create-or-merge，返回 "new" 或 "updated"
func (s *ProjectService) upsertOne(tx *gorm.DB, rec *model.RawProject, source model.ProjectSource) (string, error) {
	if rec == nil || rec.Name == "" {
		return "", errors.New("记录缺少名称")
	}
	slug := analyzer.GenerateSlug(rec.Name, source)

	var existing model.Project
	err := tx.Where("slug = ?", slug).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := s.createProject(tx, rec, source, slug); err != nil {
			return "", err
		}
		return "new", nil
	}
	if err != nil {
		return "", err
	}

	if err := s.mergeProject(tx, &existing, rec); err != nil {
		return "", err
	}
	return "updated", nil
}

// createProject 首次观测：分类与评分现算，置信度初始为低值（未经AI分析）
func (s *ProjectService) createProject(tx *gorm.DB, rec *model.RawProject, source model.ProjectSource, slug string) error {
	project := &model.Project{
		Name:        rec.Name,
		Slug:        slug,
		Description: analyzer.StrPtr(rec.Description),
		Source:      source,
		SourceURL:   analyzer.StrPtr(firstNonEmpty(rec.GithubURL, rec.SourceURL)),

		GithubURL:          analyzer.StrPtr(rec.GithubURL),
		GithubOrg:          analyzer.StrPtr(rec.GithubOrg),
		GithubStars:        rec.GithubStars,
		GithubForks:        rec.GithubForks,
		GithubCommits30d:   rec.GithubCommits30d,
		GithubContributors: rec.GithubContributors,
		GithubCreatedAt:    analyzer.ParseGithubTime(rec.GithubCreatedAt),
		GithubLanguage:     analyzer.StrPtr(rec.GithubLanguage),
		GithubTopics:       toJSON(rec.GithubTopics),

		TwitterURL:    analyzer.StrPtr(rec.TwitterURL),
		TwitterHandle: analyzer.ExtractTwitterHandle(rec.TwitterURL),
		WebsiteURL:    analyzer.StrPtr(rec.WebsiteURL),
		DiscordURL:    analyzer.StrPtr(rec.DiscordURL),

		Category:   analyzer.DetectCategory(rec),
		Score:      analyzer.CalculateScore(rec),
		Confidence: 0.3,

		EarlySignals: toJSON(rec.EarlySignals),
		RawData:      toJSON(rec.RawData),

		Status:       model.StatusNew,
		DiscoveredAt: time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := tx.Create(project).Error; err != nil {
		return fmt.Errorf("创建项目失败: %w", err)
	}
	s.logger.WithField("slug", slug).Debug("新建项目")
	return nil
}

// mergeProject 再次观测：指标最新值覆盖，社交链接先到先得（仅空时填充），评分按最新数据重算
func (s *ProjectService) mergeProject(tx *gorm.DB, project *model.Project, rec *model.RawProject) error {
	project.GithubStars = rec.GithubStars
	project.GithubForks = rec.GithubForks
	project.GithubCommits30d = rec.GithubCommits30d
	project.GithubContributors = rec.GithubContributors

	if rec.TwitterURL != "" && project.TwitterURL == nil {
		project.TwitterURL = &rec.TwitterURL
		project.TwitterHandle = analyzer.ExtractTwitterHandle(rec.TwitterURL)
	}
	if rec.DiscordURL != "" && project.DiscordURL == nil {
		project.DiscordURL = &rec.DiscordURL
	}
	if rec.WebsiteURL != "" && project.WebsiteURL == nil {
		project.WebsiteURL = &rec.WebsiteURL
	}

	project.Score = analyzer.CalculateScore(rec)
	project.UpdatedAt = time.Now().UTC()

	if err := tx.Save(project).Error; err != nil {
		return fmt.Errorf("更新项目失败: %w", err)
	}
	s.logger.WithField("slug", project.Slug).Debug("合并项目")
	return nil
}

// GetProjects 列表查询（恒按 score 降序）
func (s *ProjectService) GetProjects(ctx context.Context, filter repository.ProjectFilter) ([]*model.Project, error) {
	return s.repo.List(ctx, filter)
}

// GetProjectBySlug 详情查询，不存在返回 (nil, nil)
func (s *ProjectService) GetProjectBySlug(ctx context.Context, slug string) (*model.Project, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// GetStats 总量与分组统计
func (s *ProjectService) GetStats(ctx context.Context) (*repository.ProjectStats, error) {
	return s.repo.Stats(ctx)
}

// GetRecentProjects 最近发现的高分项目（每日汇总用）
func (s *ProjectService) GetRecentProjects(ctx context.Context, since time.Time, limit int) ([]*model.Project, error) {
	return s.repo.ListDiscoveredSince(ctx, since, limit)
}

// toJSON 序列化为 JSON 列，失败兜底空值
func toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("null")
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return b
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
