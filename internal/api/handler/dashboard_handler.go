package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/service"
	"github.com/severusraj/gradverify-mono/pkg/response"
)

// DashboardHandler 仪表盘 HTTP 处理器
type DashboardHandler struct {
	dashboardSvc service.DashboardService
}

// NewDashboardHandler 创建 DashboardHandler
func NewDashboardHandler(dashboardSvc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Stats 按汇总状态统计
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, stats)
}

// DepartmentProgress 各学院审核进度
// GET /api/v1/dashboard/department-progress
func (h *DashboardHandler) DepartmentProgress(c *gin.Context) {
	progress, err := h.dashboardSvc.DepartmentProgress(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, progress)
}

// RecentSubmissions 最近创建的学生档案
// GET /api/v1/dashboard/recent-submissions?limit=
func (h *DashboardHandler) RecentSubmissions(c *gin.Context) {
	var req dto.RecentSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, err := h.dashboardSvc.RecentSubmissions(c.Request.Context(), req.GetLimit())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, items)
}
