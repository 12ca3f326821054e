package api

import (
	"net/http"
	"strconv"

	"AlphaScanner/internal/model"
	"AlphaScanner/internal/repository"
	"AlphaScanner/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProjectHandler struct {
	projectSvc *service.ProjectService
	logger     *logrus.Logger
}

func NewProjectHandler(projectSvc *service.ProjectService, logger *logrus.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectSvc: projectSvc,
		logger:     logger,
	}
}

// ListProjectsHandler 项目列表查询
// @Summary 按条件查询已发现项目（恒按评分降序）
// @Param status query string false "状态过滤（new/analyzed/archived/rejected）"
// @Param category query string false "分类过滤"
// @Param source query string false "来源过滤"
// @Param min_score query number false "最低评分"
// @Param limit query int false "返回条数（默认50，上限200）"
// @Param offset query int false "偏移量"
// @Success 200 {object} map[string]interface{}
// @Router /api/projects [get]
func (h *ProjectHandler) ListProjectsHandler(c *gin.Context) {
	filter := repository.ProjectFilter{
		Status:   model.ProjectStatus(c.Query("status")),
		Category: model.ProjectCategory(c.Query("category")),
		Source:   model.ProjectSource(c.Query("source")),
	}
	if v := c.Query("min_score"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			filter.MinScore = f
		}
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	projects, err := h.projectSvc.GetProjects(c.Request.Context(), filter)
	if err != nil {
		h.logger.Errorf("查询项目列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    len(projects),
		"projects": projects,
	})
}

// GetProjectHandler 项目详情查询
// @Summary 按 slug 查询单个项目
// @Param slug path string true "项目slug"
// @Success 200 {object} model.Project
// @Failure 404 {object} map[string]string
// @Router /api/projects/{slug} [get]
func (h *ProjectHandler) GetProjectHandler(c *gin.Context) {
	slug := c.Param("slug")

	project, err := h.projectSvc.GetProjectBySlug(c.Request.Context(), slug)
	if err != nil {
		h.logger.Errorf("查询项目%s失败: %v", slug, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}
	if project == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "项目不存在: " + slug,
		})
		return
	}

	c.JSON(http.StatusOK, project)
}

// StatsHandler 项目库统计
// @Summary 总量及按状态/来源/分类的分组计数
// @Success 200 {object} repository.ProjectStats
// @Router /api/stats [get]
func (h *ProjectHandler) StatsHandler(c *gin.Context) {
	stats, err := h.projectSvc.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Errorf("查询统计失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
