package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 采集与入库维度的Prometheus指标
var (
	CollectionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_collection_runs_total",
			Help: "采集运行总次数（按来源与结果区分）",
		},
		[]string{"source", "result"},
	)

	ProjectsNew = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alpha_projects_new_total",
		Help: "新增项目总数",
	})

	ProjectsUpdated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alpha_projects_updated_total",
		Help: "合并更新项目总数",
	})

	ProjectsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "alpha_projects_skipped_total",
		Help: "入库失败跳过的记录总数",
	})

	SchedulerSkippedFirings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alpha_scheduler_skipped_firings_total",
			Help: "因上次运行未结束而被丢弃的调度触发次数",
		},
		[]string{"job"},
	)
)

// Register 注册全部指标（进程启动时调用一次）
func Register() {
	prometheus.MustRegister(
		CollectionRuns,
		ProjectsNew,
		ProjectsUpdated,
		ProjectsSkipped,
		SchedulerSkippedFirings,
	)
}
