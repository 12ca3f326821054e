package api

import (
	"net/http"
	"strconv"
	"strings"

	"AlphaScanner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CollectHandler struct {
	collectSvc *service.CollectService
	logger     *logrus.Logger
}

func NewCollectHandler(collectSvc *service.CollectService, logger *logrus.Logger) *CollectHandler {
	return &CollectHandler{
		collectSvc: collectSvc,
		logger:     logger,
	}
}

// CollectSourceHandler 手动触发指定来源采集
// @Summary 同步执行单来源采集流水线
// @Param source path string true "来源名（github/defillama/galxe/layer3/zealy）"
// @Success 200 {object} service.CollectionOutcome
// @Failure 400 {object} map[string]string
// @Router /api/collect/{source} [post]
func (h *CollectHandler) CollectSourceHandler(c *gin.Context) {
	sourceName := c.Param("source")

	outcome, err := h.collectSvc.RunCollection(c.Request.Context(), sourceName)
	if err != nil {
		// 来源名非法，其余失败折叠在 outcome 里
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// CollectAllHandler 手动触发全量采集
// @Summary 同步执行全部启用来源的采集流水线
// @Success 200 {object} map[string]interface{}
// @Router /api/collect [post]
func (h *CollectHandler) CollectAllHandler(c *gin.Context) {
	outcomes := h.collectSvc.RunAll(c.Request.Context())

	var failed []string
	for _, o := range outcomes {
		if !o.Success {
			failed = append(failed, o.Source)
		}
	}

	resp := gin.H{"results": outcomes}
	if len(failed) > 0 {
		resp["failed_sources"] = strings.Join(failed, ",")
	}
	c.JSON(http.StatusOK, resp)
}

// RecentRunsHandler 最近的采集运行台账
// @Summary 查询最近的采集运行记录
// @Param limit query int false "返回条数（默认20，上限100）"
// @Success 200 {object} map[string]interface{}
// @Router /api/collect/runs [get]
func (h *CollectHandler) RecentRunsHandler(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}

	runs, err := h.collectSvc.GetRecentRuns(c.Request.Context(), limit)
	if err != nil {
		h.logger.Errorf("查询采集台账失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total": len(runs),
		"runs":  runs,
	})
}
