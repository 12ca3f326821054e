package api

import (
	"net/http"

	"AlphaScanner/internal/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SchedulerHandler struct {
	sched  *scheduler.Scheduler
	logger *logrus.Logger
}

func NewSchedulerHandler(sched *scheduler.Scheduler, logger *logrus.Logger) *SchedulerHandler {
	return &SchedulerHandler{
		sched:  sched,
		logger: logger,
	}
}

// StatusHandler 调度器状态
// @Summary 查询调度器与各任务状态（含下次触发时间）
// @Success 200 {object} scheduler.Status
// @Router /api/scheduler/status [get]
func (h *SchedulerHandler) StatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.sched.Status())
}

// StartHandler 启动调度器（幂等）
// @Summary 启动定时调度
// @Success 200 {object} map[string]string
// @Router /api/scheduler/start [post]
func (h *SchedulerHandler) StartHandler(c *gin.Context) {
	if err := h.sched.Start(); err != nil {
		h.logger.Errorf("启动调度器失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "调度器已启动",
	})
}

// StopHandler 停止调度器（幂等）
// @Summary 停止定时调度
// @Success 200 {object} map[string]string
// @Router /api/scheduler/stop [post]
func (h *SchedulerHandler) StopHandler(c *gin.Context) {
	h.sched.Stop()
	c.JSON(http.StatusOK, gin.H{
		"message": "调度器已停止",
	})
}

// RunNowHandler 立即执行一轮全量采集
// @Summary 跳过定时立即执行全部启用来源
// @Success 200 {object} map[string]interface{}
// @Router /api/scheduler/run-now [post]
func (h *SchedulerHandler) RunNowHandler(c *gin.Context) {
	outcomes := h.sched.RunAllNow(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"results": outcomes,
	})
}
