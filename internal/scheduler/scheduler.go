package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"AlphaScanner/internal/config"
	"AlphaScanner/internal/metrics"
	"AlphaScanner/internal/service"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// JobStatus 单个定时任务的状态快照
type JobStatus struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	Trigger string     `json:"trigger"`
	NextRun *time.Time `json:"next_run"`
	Running bool       `json:"running"`
}

// Status 调度器整体状态
type Status struct {
	Running bool        `json:"running"`
	Jobs    []JobStatus `json:"jobs"`
}

// job 注册在 cron 上的任务：busy 标志保证同一任务不并发（触发时仍在跑则丢弃本次）
type job struct {
	id      string
	name    string
	trigger string
	entryID cron.EntryID
	busy    atomic.Bool
	run     func(ctx context.Context)
}

// Scheduler 定时调度器：按配置间隔触发各来源采集与每日汇总。
// Start/Stop 幂等，重复调用无副作用。
type Scheduler struct {
	cron       *cron.Cron
	collectSvc *service.CollectService
	cfg        *config.Config
	logger     *logrus.Logger

	mu      sync.Mutex
	running bool
	jobs    []*job
}

// New 创建 Scheduler（任务注册发生在 Start 时）
func New(collectSvc *service.CollectService, cfg *config.Config, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		// 统一UTC：每日汇总等cron表达式按UTC解释
		cron:       cron.New(cron.WithLocation(time.UTC)),
		collectSvc: collectSvc,
		cfg:        cfg,
		logger:     logger,
	}
}

// Start 注册任务并启动调度。已启动时直接返回。
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.logger.Info("调度器已在运行，忽略重复启动")
		return nil
	}

	if len(s.jobs) == 0 {
		if err := s.registerJobs(); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.running = true
	s.logger.Infof("调度器启动，共注册%d个任务", len(s.jobs))
	return nil
}

// Stop 停止调度（不打断正在执行的任务）。未启动时直接返回。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("调度器已停止")
}

// Status 调度器与各任务状态（含下次触发时间）
func (s *Scheduler) Status() *Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := &Status{Running: s.running}
	for _, j := range s.jobs {
		js := JobStatus{
			ID:      j.id,
			Name:    j.name,
			Trigger: j.trigger,
			Running: j.busy.Load(),
		}
		if s.running {
			entry := s.cron.Entry(j.entryID)
			if !entry.Next.IsZero() {
				next := entry.Next
				js.NextRun = &next
			}
		}
		st.Jobs = append(st.Jobs, js)
	}
	return st
}

// RunAllNow 立即触发一轮全量采集（同步执行，API手动触发用）
func (s *Scheduler) RunAllNow(ctx context.Context) []*service.CollectionOutcome {
	return s.collectSvc.RunAll(ctx)
}

// registerJobs 按配置注册全部定时任务
func (s *Scheduler) registerJobs() error {
	sched := s.cfg.Scheduler

	githubHours := sched.GithubIntervalHours
	if githubHours <= 0 {
		githubHours = 6
	}
	llamaHours := sched.DefiLlamaIntervalHours
	if llamaHours <= 0 {
		llamaHours = 12
	}
	questHours := sched.QuestIntervalHours
	if questHours <= 0 {
		questHours = 8
	}
	summaryCron := sched.DailySummaryCron
	if summaryCron == "" {
		summaryCron = "0 9 * * *"
	}

	enabled := map[string]bool{}
	for _, name := range s.collectSvc.EnabledSources() {
		enabled[name] = true
	}

	type jobDef struct {
		id      string
		name    string
		trigger string
		run     func(ctx context.Context)
	}
	var defs []jobDef

	if enabled["github"] {
		defs = append(defs, jobDef{
			id:      "github_collection",
			name:    "GitHub项目采集",
			trigger: fmt.Sprintf("@every %dh", githubHours),
			run:     func(ctx context.Context) { s.runSources(ctx, "github") },
		})
	}
	if enabled["defillama"] {
		defs = append(defs, jobDef{
			id:      "defillama_collection",
			name:    "DeFiLlama协议采集",
			trigger: fmt.Sprintf("@every %dh", llamaHours),
			run:     func(ctx context.Context) { s.runSources(ctx, "defillama") },
		})
	}
	var questSources []string
	for _, name := range []string{"galxe", "layer3", "zealy"} {
		if enabled[name] {
			questSources = append(questSources, name)
		}
	}
	if len(questSources) > 0 {
		defs = append(defs, jobDef{
			id:      "quest_collection",
			name:    "任务平台采集",
			trigger: fmt.Sprintf("@every %dh", questHours),
			run:     func(ctx context.Context) { s.runSources(ctx, questSources...) },
		})
	}
	defs = append(defs, jobDef{
		id:      "daily_summary",
		name:    "每日发现汇总",
		trigger: summaryCron,
		run:     s.dailySummary,
	})

	for _, sp := range defs {
		j := &job{id: sp.id, name: sp.name, trigger: sp.trigger, run: sp.run}
		entryID, err := s.cron.AddFunc(sp.trigger, s.wrap(j))
		if err != nil {
			return fmt.Errorf("注册任务%s失败: %w", sp.id, err)
		}
		j.entryID = entryID
		s.jobs = append(s.jobs, j)
	}
	return nil
}

// wrap 包装任务执行体：上次运行未结束时丢弃本次触发；
// 任务体panic就地捕获，不得拖垮调度进程
func (s *Scheduler) wrap(j *job) func() {
	return func() {
		if !j.busy.CompareAndSwap(false, true) {
			metrics.SchedulerSkippedFirings.WithLabelValues(j.id).Inc()
			s.logger.WithField("job", j.id).Warn("上次运行未结束，丢弃本次触发")
			return
		}
		defer j.busy.Store(false)
		defer func() {
			if p := recover(); p != nil {
				s.logger.WithField("job", j.id).Errorf("任务panic已捕获: %v", p)
			}
		}()

		start := time.Now()
		j.run(context.Background())
		s.logger.WithField("job", j.id).Infof("任务执行完成，耗时%s", time.Since(start).Round(time.Second))
	}
}

// runSources 顺序执行一组来源的采集流水线
func (s *Scheduler) runSources(ctx context.Context, sources ...string) {
	for _, name := range sources {
		outcome, err := s.collectSvc.RunCollection(ctx, name)
		if err != nil {
			s.logger.WithError(err).WithField("source", name).Error("触发采集失败")
			continue
		}
		if !outcome.Success {
			s.logger.WithField("source", name).Warnf("采集未成功: %s", outcome.Error)
		}
	}
}

// dailySummary 每日汇总：输出总量统计与近24小时发现的高分项目
func (s *Scheduler) dailySummary(ctx context.Context) {
	projects := s.collectSvc.Projects()

	stats, err := projects.GetStats(ctx)
	if err != nil {
		s.logger.WithError(err).Error("每日汇总统计失败")
		return
	}
	s.logger.Infof("每日汇总: 项目总数%d 按状态%v 按来源%v", stats.Total, stats.ByStatus, stats.BySource)

	since := time.Now().UTC().Add(-24 * time.Hour)
	recent, err := projects.GetRecentProjects(ctx, since, 10)
	if err != nil {
		s.logger.WithError(err).Error("每日汇总查询近期项目失败")
		return
	}
	for _, p := range recent {
		s.logger.Infof("近24小时发现: %s (来源%s 分类%s 评分%.1f)", p.Name, p.Source, p.Category, p.Score)
	}
}
