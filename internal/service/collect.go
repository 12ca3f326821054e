package service

import (
	"context"
	"fmt"

	"AlphaScanner/internal/collector"
	"AlphaScanner/internal/collector/defillama"
	"AlphaScanner/internal/collector/github"
	"AlphaScanner/internal/collector/quest"
	"AlphaScanner/internal/config"
	"AlphaScanner/internal/repository"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CollectionOutcome 单来源一次采集+入库的结果
type CollectionOutcome struct {
	Source        string       `json:"source"`
	Success       bool         `json:"success"`
	ProjectsFound int          `json:"projects_found"`
	DBStats       *UpsertStats `json:"db_stats,omitempty"`
	Error         string       `json:"error,omitempty"`
}

// CollectService 采集编排服务：按来源名创建采集器、执行采集、批量入库并回填台账计数
type CollectService struct {
	cfg        *config.Config
	logger     *logrus.Logger
	runner     *collector.Runner
	projectSvc *ProjectService
	logRepo    repository.CollectionLogRepository
	// 采集器工厂：新增来源仅需添加此处
	collectorFactory map[string]func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector
}

// NewCollectService 创建 CollectService
func NewCollectService(db *gorm.DB, logger *logrus.Logger, cfg *config.Config) *CollectService {
	logRepo := repository.NewCollectionLogRepository(db)
	return &CollectService{
		cfg:        cfg,
		logger:     logger,
		runner:     collector.NewRunner(logRepo, logger),
		projectSvc: NewProjectService(db, logger),
		logRepo:    logRepo,
		collectorFactory: map[string]func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector{
			"github": func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector {
				return github.New(cfg, logger)
			},
			"defillama": func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector {
				return defillama.New(cfg, logger)
			},
			"galxe": func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector {
				return quest.NewGalxe(cfg, logger)
			},
			"layer3": func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector {
				return quest.NewLayer3(cfg, logger)
			},
			"zealy": func(cfg config.SourceConfig, logger *logrus.Logger) collector.Collector {
				return quest.NewZealy(cfg, logger)
			},
		},
	}
}

// EnabledSources 配置启用的来源列表（未配置时全量启用，顺序固定）
func (s *CollectService) EnabledSources() []string {
	if len(s.cfg.Scheduler.EnabledSources) > 0 {
		var enabled []string
		for _, name := range s.cfg.Scheduler.EnabledSources {
			if _, ok := s.collectorFactory[name]; ok {
				enabled = append(enabled, name)
			} else {
				s.logger.WithField("source", name).Warn("配置了未支持的来源，已忽略")
			}
		}
		return enabled
	}
	return []string{"github", "defillama", "galxe", "layer3", "zealy"}
}

// RunCollection 执行单来源的完整流水线：采集 -> 入库 -> 回填台账计数。
// 仅来源名非法时返回错误；采集或入库失败折叠进结果结构，不向上抛。
func (s *CollectService) RunCollection(ctx context.Context, sourceName string) (*CollectionOutcome, error) {
	builder, ok := s.collectorFactory[sourceName]
	if !ok {
		return nil, fmt.Errorf("未支持的来源: %s", sourceName)
	}

	c := builder(s.cfg.SourceOrDefault(sourceName), s.logger)
	result := s.runner.Run(ctx, c)

	outcome := &CollectionOutcome{
		Source:        sourceName,
		Success:       result.Success,
		ProjectsFound: result.ProjectsFound,
		Error:         result.Error,
	}
	if !result.Success || len(result.Data) == 0 {
		return outcome, nil
	}

	stats, err := s.projectSvc.UpsertBatch(ctx, result.Data, c.Source())
	if err != nil || stats == nil {
		outcome.Success = false
		if err != nil {
			outcome.Error = err.Error()
		} else {
			outcome.Error = "批量入库未返回结果"
		}
		s.logger.WithField("source", sourceName).Errorf("批量入库失败: %s", outcome.Error)
		return outcome, nil
	}
	outcome.DBStats = stats

	// 台账计数回填为尽力而为
	if err := s.logRepo.SetUpsertCounts(ctx, result.RunUUID, stats.New, stats.Updated); err != nil {
		s.logger.WithError(err).WithField("run_uuid", result.RunUUID).Warn("回填台账入库计数失败")
	}
	return outcome, nil
}

// RunAll 顺序执行全部启用来源（单来源失败不影响后续来源）
func (s *CollectService) RunAll(ctx context.Context) []*CollectionOutcome {
	sources := s.EnabledSources()
	outcomes := make([]*CollectionOutcome, 0, len(sources))
	for _, name := range sources {
		outcome, err := s.RunCollection(ctx, name)
		if err != nil {
			outcome = &CollectionOutcome{Source: name, Success: false, Error: err.Error()}
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// GetRecentRuns 最近的采集运行台账
func (s *CollectService) GetRecentRuns(ctx context.Context, limit int) ([]*CollectionOutcome, error) {
	logs, err := s.logRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	outcomes := make([]*CollectionOutcome, 0, len(logs))
	for _, entry := range logs {
		o := &CollectionOutcome{
			Source:        string(entry.Source),
			Success:       entry.Success,
			ProjectsFound: entry.ProjectsFound,
			DBStats:       &UpsertStats{New: entry.ProjectsNew, Updated: entry.ProjectsUpdated},
		}
		if entry.ErrorMessage != nil {
			o.Error = *entry.ErrorMessage
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// Projects 项目查询服务（API层复用）
func (s *CollectService) Projects() *ProjectService {
	return s.projectSvc
}
