package service

import (
	"context"
	"testing"

	"AlphaScanner/internal/model"
	"AlphaScanner/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Project{}, &model.CollectionLog{}))
	return db
}

func newTestService(t *testing.T) *ProjectService {
	t.Helper()
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)
	return NewProjectService(setupTestDB(t), l)
}

func TestUpsertBatchCreatesThenUpdates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rec := &model.RawProject{
		Name:        "Foo Protocol",
		Description: "a lending protocol",
		GithubStars: 30,
	}

	stats, err := svc.UpsertBatch(ctx, []*model.RawProject{rec}, model.SourceGithub)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)
	assert.Equal(t, 0, stats.Updated)

	// 同一记录再来一次：合并而非新建
	stats, err = svc.UpsertBatch(ctx, []*model.RawProject{rec}, model.SourceGithub)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.New)
	assert.Equal(t, 1, stats.Updated)

	projects, err := svc.GetProjects(ctx, repository.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "foo-protocol-github", projects[0].Slug)
	assert.Equal(t, model.StatusNew, projects[0].Status)
	assert.InDelta(t, 0.3, projects[0].Confidence, 1e-9)
}

func TestUpsertSameSlugFromDifferentPunctuation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	// "Foo Bar" 与 "foo-bar" 派生同一 slug，第二次是合并
	stats, err := svc.UpsertBatch(ctx, []*model.RawProject{
		{Name: "Foo Bar", Description: "x"},
	}, model.SourceGithub)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.New)

	stats, err = svc.UpsertBatch(ctx, []*model.RawProject{
		{Name: "foo-bar", Description: "x"},
	}, model.SourceGithub)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Updated)

	p, err := svc.GetProjectBySlug(ctx, "foo-bar-github")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestUpsertMergePolicy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := &model.RawProject{
		Name:        "Merge Target",
		Description: "first sighting",
		GithubStars: 5,
		WebsiteURL:  "https://first.example.com",
	}
	_, err := svc.UpsertBatch(ctx, []*model.RawProject{first}, model.SourceGithub)
	require.NoError(t, err)

	second := &model.RawProject{
		Name:        "Merge Target",
		GithubStars: 120,
		TwitterURL:  "https://twitter.com/merge_target",
		WebsiteURL:  "https://second.example.com",
	}
	_, err = svc.UpsertBatch(ctx, []*model.RawProject{second}, model.SourceGithub)
	require.NoError(t, err)

	p, err := svc.GetProjectBySlug(ctx, "merge-target-github")
	require.NoError(t, err)
	require.NotNil(t, p)

	// 指标取最新观测
	assert.Equal(t, 120, p.GithubStars)
	// 社交链接先到先得：已有官网不被覆盖，空的Twitter被填充
	require.NotNil(t, p.WebsiteURL)
	assert.Equal(t, "https://first.example.com", *p.WebsiteURL)
	require.NotNil(t, p.TwitterURL)
	assert.Equal(t, "https://twitter.com/merge_target", *p.TwitterURL)
	require.NotNil(t, p.TwitterHandle)
	assert.Equal(t, "merge_target", *p.TwitterHandle)
	// 评分按最新数据重算：stars>100(+2.0) + twitter(+0.3)
	assert.Equal(t, 7.3, p.Score)
}

func TestUpsertBatchSkipsBadRecord(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	records := []*model.RawProject{
		{Name: "Good One", Description: "x"},
		{Name: "", Description: "缺名称的坏记录"},
		{Name: "Good Two", Description: "y"},
	}
	stats, err := svc.UpsertBatch(ctx, records, model.SourceDefiLlama)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.New)
	assert.Equal(t, 1, stats.Skipped)

	projects, err := svc.GetProjects(ctx, repository.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestUpsertBatchPanicBecomesError(t *testing.T) {
	db := setupTestDB(t)
	l := logrus.New()
	l.SetLevel(logrus.FatalLevel)
	svc := NewProjectService(db, l)

	// 存储层panic不得被吞掉：必须折叠为错误返回给调用方
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("explode", func(_ *gorm.DB) {
		panic("存储层崩溃")
	}))

	stats, err := svc.UpsertBatch(context.Background(), []*model.RawProject{
		{Name: "Panic Target", Description: "x"},
	}, model.SourceGithub)
	require.Error(t, err)
	assert.Nil(t, stats)
	assert.Contains(t, err.Error(), "存储层崩溃")

	// 事务已回滚，库里没有半截数据
	var count int64
	require.NoError(t, db.Model(&model.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpsertBatchEmpty(t *testing.T) {
	svc := newTestService(t)
	stats, err := svc.UpsertBatch(context.Background(), nil, model.SourceGithub)
	require.NoError(t, err)
	assert.Equal(t, &UpsertStats{}, stats)
}

func TestGetProjectBySlugNotFound(t *testing.T) {
	svc := newTestService(t)
	p, err := svc.GetProjectBySlug(context.Background(), "no-such-slug")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestGetProjectsFilterAndOrder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	records := []*model.RawProject{
		{Name: "Low Score", Description: "x"},
		{Name: "High Score", Description: "y", GithubStars: 150, GithubCommits30d: 60, GithubContributors: 8},
	}
	_, err := svc.UpsertBatch(ctx, records, model.SourceGithub)
	require.NoError(t, err)

	// 恒按 score 降序
	projects, err := svc.GetProjects(ctx, repository.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "High Score", projects[0].Name)

	// min_score 过滤
	projects, err = svc.GetProjects(ctx, repository.ProjectFilter{MinScore: 8.0})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "High Score", projects[0].Name)

	// 来源过滤不命中
	projects, err = svc.GetProjects(ctx, repository.ProjectFilter{Source: model.SourceZealy})
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func TestGetStatsZeroFill(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.UpsertBatch(ctx, []*model.RawProject{
		{Name: "Stat Target", Description: "nft marketplace"},
	}, model.SourceGalxe)
	require.NoError(t, err)

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Total)
	assert.Equal(t, int64(1), stats.ByStatus["new"])
	assert.Equal(t, int64(1), stats.BySource["galxe"])
	assert.Equal(t, int64(1), stats.ByCategory["nft"])

	// 未出现的枚举值补零而非缺键
	assert.Contains(t, stats.ByStatus, "archived")
	assert.Equal(t, int64(0), stats.ByStatus["archived"])
	assert.Contains(t, stats.BySource, "manual")
	assert.Contains(t, stats.ByCategory, "gaming")
}
