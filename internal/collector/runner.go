package collector

import (
	"context"
	"time"

	"AlphaScanner/internal/metrics"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Runner 统一的采集运行包装器：无论成败，每次运行恰好写一条 CollectionLog。
// Collect 内部的异常不向外抛，折叠为 Success=false 的结构化结果。
type Runner struct {
	logRepo repository.CollectionLogRepository
	logger  *logrus.Logger
}

// NewRunner 创建 Runner
func NewRunner(logRepo repository.CollectionLogRepository, logger *logrus.Logger) *Runner {
	return &Runner{logRepo: logRepo, logger: logger}
}

// Run 执行一次采集并记录台账。台账写入为尽力而为：写失败仅告警，不影响采集结果。
func (r *Runner) Run(ctx context.Context, c Collector) *RunResult {
	entry := &model.CollectionLog{
		RunUUID:       uuid.NewString(),
		Source:        c.Source(),
		CollectorName: c.Name(),
		StartedAt:     time.Now().UTC(),
	}
	if err := r.logRepo.Create(ctx, entry); err != nil {
		r.logger.WithError(err).WithField("collector", c.Name()).Warn("写入采集台账失败")
	}

	r.logger.WithField("collector", c.Name()).Infof("开始从%s采集", c.Source())

	data, err := r.collectSafe(ctx, c)

	now := time.Now().UTC()
	entry.FinishedAt = &now

	if err != nil {
		msg := err.Error()
		entry.Success = false
		entry.ErrorMessage = &msg
		r.finalize(ctx, entry)
		metrics.CollectionRuns.WithLabelValues(string(c.Source()), "failure").Inc()

		r.logger.WithError(err).WithField("collector", c.Name()).Error("采集失败")
		return &RunResult{Success: false, Error: msg, Data: []*model.RawProject{}, RunUUID: entry.RunUUID}
	}

	entry.Success = true
	entry.ProjectsFound = len(data)
	r.finalize(ctx, entry)
	metrics.CollectionRuns.WithLabelValues(string(c.Source()), "success").Inc()

	r.logger.WithField("collector", c.Name()).Infof("采集完成，共发现%d个项目", len(data))
	return &RunResult{Success: true, ProjectsFound: len(data), Data: data, RunUUID: entry.RunUUID}
}

// collectSafe 捕获 Collect 内部 panic，统一转为错误返回
func (r *Runner) collectSafe(ctx context.Context, c Collector) (data []*model.RawProject, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p}
		}
	}()
	return c.Collect(ctx)
}

func (r *Runner) finalize(ctx context.Context, entry *model.CollectionLog) {
	if err := r.logRepo.Finalize(ctx, entry); err != nil {
		r.logger.WithError(err).WithField("run_uuid", entry.RunUUID).Warn("回填采集台账失败")
	}
}

type panicError struct {
	value interface{}
}

func (e *panicError) Error() string {
	if s, ok := e.value.(string); ok {
		return s
	}
	if err, ok := e.value.(error); ok {
		return err.Error()
	}
	return "collector panic"
}
