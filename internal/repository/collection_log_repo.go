package repository

import (
	"context"

	"AlphaScanner/internal/model"

	"gorm.io/gorm"
)

// CollectionLogRepository 采集运行台账仓储
type CollectionLogRepository interface {
	// Create 运行开始时插入一行（可观测进行中的运行）
	Create(ctx context.Context, entry *model.CollectionLog) error
	// Finalize 运行结束时回填结果字段
	Finalize(ctx context.Context, entry *model.CollectionLog) error
	// SetUpsertCounts 入库完成后回填新增/更新计数
	SetUpsertCounts(ctx context.Context, runUUID string, created, updated int) error
	// ListRecent 最近的运行记录（按开始时间倒序）
	ListRecent(ctx context.Context, limit int) ([]*model.CollectionLog, error)
}

type collectionLogRepository struct {
	db *gorm.DB
}

// NewCollectionLogRepository 创建 CollectionLogRepository 实例
func NewCollectionLogRepository(db *gorm.DB) CollectionLogRepository {
	return &collectionLogRepository{db: db}
}

func (r *collectionLogRepository) Create(ctx context.Context, entry *model.CollectionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *collectionLogRepository) Finalize(ctx context.Context, entry *model.CollectionLog) error {
	return r.db.WithContext(ctx).Model(&model.CollectionLog{}).
		Where("run_uuid = ?", entry.RunUUID).
		Updates(map[string]interface{}{
			"finished_at":      entry.FinishedAt,
			"projects_found":   entry.ProjectsFound,
			"projects_new":     entry.ProjectsNew,
			"projects_updated": entry.ProjectsUpdated,
			"success":          entry.Success,
			"error_message":    entry.ErrorMessage,
		}).Error
}

func (r *collectionLogRepository) SetUpsertCounts(ctx context.Context, runUUID string, created, updated int) error {
	return r.db.WithContext(ctx).Model(&model.CollectionLog{}).
		Where("run_uuid = ?", runUUID).
		Updates(map[string]interface{}{
			"projects_new":     created,
			"projects_updated": updated,
		}).Error
}

func (r *collectionLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.CollectionLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var logs []*model.CollectionLog
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
