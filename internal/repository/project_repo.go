package repository

import (
	"context"
	"errors"
	"time"

	"AlphaScanner/internal/model"

	"gorm.io/gorm"
)

// ProjectFilter 项目列表筛选条件（零值字段不参与过滤）
type ProjectFilter struct {
	Status   model.ProjectStatus
	Category model.ProjectCategory
	Source   model.ProjectSource
	MinScore float64
	Limit    int
	Offset   int
}

// ProjectStats 数据库统计结果
type ProjectStats struct {
	Total      int64            `json:"total"`
	ByStatus   map[string]int64 `json:"by_status"`
	BySource   map[string]int64 `json:"by_source"`
	ByCategory map[string]int64 `json:"by_category"`
}

// ProjectRepository 项目仓储接口
type ProjectRepository interface {
	// GetBySlug 按 slug 精确查询，不存在返回 (nil, nil)
	GetBySlug(ctx context.Context, slug string) (*model.Project, error)
	// List 按过滤条件查询，恒按 score 降序
	List(ctx context.Context, filter ProjectFilter) ([]*model.Project, error)
	// ListDiscoveredSince 指定时间后发现的项目（每日汇总用），按 score 降序
	ListDiscoveredSince(ctx context.Context, since time.Time, limit int) ([]*model.Project, error)
	// Stats 总量及按状态/来源/分类的分组计数
	Stats(ctx context.Context) (*ProjectStats, error)
}

type projectRepository struct {
	db *gorm.DB
}

// NewProjectRepository 创建 ProjectRepository 实例
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) GetBySlug(ctx context.Context, slug string) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]*model.Project, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	db := r.db.WithContext(ctx).Model(&model.Project{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	if filter.Source != "" {
		db = db.Where("source = ?", filter.Source)
	}
	if filter.MinScore > 0 {
		db = db.Where("score >= ?", filter.MinScore)
	}

	var projects []*model.Project
	if err := db.
		Order("score DESC").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) ListDiscoveredSince(ctx context.Context, since time.Time, limit int) ([]*model.Project, error) {
	if limit <= 0 {
		limit = 10
	}
	var projects []*model.Project
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Where("discovered_at >= ?", since).
		Order("score DESC").
		Limit(limit).
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepository) Stats(ctx context.Context) (*ProjectStats, error) {
	stats := &ProjectStats{
		ByStatus:   make(map[string]int64),
		BySource:   make(map[string]int64),
		ByCategory: make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).Model(&model.Project{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}

	// 分组计数用单条 GROUP BY 查询，缺失的枚举值补零
	type row struct {
		Key   string
		Count int64
	}

	var byStatus []row
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Select("status AS key, COUNT(*) AS count").Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, s := range model.AllStatuses {
		stats.ByStatus[string(s)] = 0
	}
	for _, v := range byStatus {
		stats.ByStatus[v.Key] = v.Count
	}

	var bySource []row
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Select("source AS key, COUNT(*) AS count").Group("source").
		Scan(&bySource).Error; err != nil {
		return nil, err
	}
	for _, s := range model.AllSources {
		stats.BySource[string(s)] = 0
	}
	for _, v := range bySource {
		stats.BySource[v.Key] = v.Count
	}

	var byCategory []row
	if err := r.db.WithContext(ctx).Model(&model.Project{}).
		Select("category AS key, COUNT(*) AS count").Group("category").
		Scan(&byCategory).Error; err != nil {
		return nil, err
	}
	for _, c := range model.AllCategories {
		stats.ByCategory[string(c)] = 0
	}
	for _, v := range byCategory {
		stats.ByCategory[v.Key] = v.Count
	}

	return stats, nil
}
