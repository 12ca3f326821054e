package collector

import (
	"context"
	"time"

	"AlphaScanner/internal/model"
)

// Collector 所有数据来源必须实现的核心接口：
// 一次调用从单个外部系统产出零或多条中间记录。
type Collector interface {
	Name() string                                             // 采集器名称（写入运行台账）
	Source() model.ProjectSource                              // 数据来源
	Collect(ctx context.Context) ([]*model.RawProject, error) // 拉取并归一化候选记录
}

// RunResult 单次采集运行的结构化结果：采集器内部异常不会向上抛出，
// 统一以 Success=false + Error 形式返回。
type RunResult struct {
	Success       bool                `json:"success"`
	ProjectsFound int                 `json:"projects_found"`
	Data          []*model.RawProject `json:"-"`
	Error         string              `json:"error,omitempty"`
	RunUUID       string              `json:"run_uuid"`
}

// Sleep 可被取消的限速等待（采集器对外部API的人为节流）
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
