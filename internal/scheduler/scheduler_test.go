package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"AlphaScanner/internal/config"
	"AlphaScanner/internal/model"
	"AlphaScanner/internal/service"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Project{}, &model.CollectionLog{}))

	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{
			GithubIntervalHours:    6,
			DefiLlamaIntervalHours: 12,
			QuestIntervalHours:     8,
			DailySummaryCron:       "0 9 * * *",
		},
	}
	return New(service.NewCollectService(db, quietLogger(), cfg), cfg, quietLogger())
}

func TestWrapDropsOverlappingFirings(t *testing.T) {
	s := newTestScheduler(t)

	started := make(chan struct{})
	release := make(chan struct{})
	var runs atomic.Int32

	j := &job{id: "slow_job", run: func(_ context.Context) {
		runs.Add(1)
		close(started)
		<-release
	}}
	fire := s.wrap(j)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		fire()
	}()

	// 等首次执行进入任务体后再次触发：应被丢弃
	<-started
	fire()
	assert.Equal(t, int32(1), runs.Load())
	assert.True(t, j.busy.Load())

	close(release)
	wg.Wait()
	assert.False(t, j.busy.Load())

	// 上次运行结束后再触发可正常执行
	j.run = func(_ context.Context) { runs.Add(1) }
	s.wrap(j)()
	assert.Equal(t, int32(2), runs.Load())
}

func TestWrapRecoversJobPanic(t *testing.T) {
	s := newTestScheduler(t)

	j := &job{id: "panicky", run: func(_ context.Context) { panic("任务体崩溃") }}
	// 任务体panic不得逃出包装层
	assert.NotPanics(t, func() { s.wrap(j)() })
	assert.False(t, j.busy.Load())

	// panic过的任务下次触发仍正常执行
	var ran bool
	j.run = func(_ context.Context) { ran = true }
	s.wrap(j)()
	assert.True(t, ran)
}

func TestStartStopIdempotent(t *testing.T) {
	s := newTestScheduler(t)

	require.NoError(t, s.Start())
	require.NoError(t, s.Start()) // 重复启动无副作用

	st := s.Status()
	assert.True(t, st.Running)
	// github + defillama + quest + daily_summary
	require.Len(t, st.Jobs, 4)
	for _, j := range st.Jobs {
		assert.NotNil(t, j.NextRun, "任务%s应有下次触发时间", j.ID)
		assert.False(t, j.Running)
	}

	s.Stop()
	s.Stop() // 重复停止无副作用
	assert.False(t, s.Status().Running)
}

func TestStatusJobTriggers(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Start())
	defer s.Stop()

	triggers := map[string]string{}
	for _, j := range s.Status().Jobs {
		triggers[j.ID] = j.Trigger
	}
	assert.Equal(t, "@every 6h", triggers["github_collection"])
	assert.Equal(t, "@every 12h", triggers["defillama_collection"])
	assert.Equal(t, "@every 8h", triggers["quest_collection"])
	assert.Equal(t, "0 9 * * *", triggers["daily_summary"])

	// 下次触发时间应在未来
	for _, j := range s.Status().Jobs {
		require.NotNil(t, j.NextRun)
		assert.True(t, j.NextRun.After(time.Now().Add(-time.Minute)))
	}
}

func TestDailySummaryScheduledInUTC(t *testing.T) {
	s := newTestScheduler(t)
	require.NoError(t, s.Start())
	defer s.Stop()

	found := false
	for _, j := range s.Status().Jobs {
		if j.ID != "daily_summary" {
			continue
		}
		found = true
		require.NotNil(t, j.NextRun)
		// "0 9 * * *" 按UTC解释：下次触发恒为09:00 UTC
		next := j.NextRun.In(time.UTC)
		assert.Equal(t, 9, next.Hour())
		assert.Equal(t, 0, next.Minute())
	}
	assert.True(t, found)
}

func TestEnabledSourcesSubsetRegistersFewerJobs(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Project{}, &model.CollectionLog{}))

	cfg := &config.Config{
		Scheduler: config.SchedulerConfig{
			EnabledSources: []string{"github"},
		},
	}
	s := New(service.NewCollectService(db, quietLogger(), cfg), cfg, quietLogger())
	require.NoError(t, s.Start())
	defer s.Stop()

	// 只启用github：github采集 + 每日汇总
	st := s.Status()
	require.Len(t, st.Jobs, 2)
	assert.Equal(t, "github_collection", st.Jobs[0].ID)
	assert.Equal(t, "daily_summary", st.Jobs[1].ID)
}
