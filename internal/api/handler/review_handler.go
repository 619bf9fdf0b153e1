package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/service"
	"github.com/severusraj/gradverify-mono/internal/verification"
	"github.com/severusraj/gradverify-mono/pkg/response"
)

// ReviewHandler 审核模块 HTTP 处理器（faculty / admin / superadmin）
type ReviewHandler struct {
	verificationSvc service.VerificationService
	submissionSvc   service.SubmissionService
}

// NewReviewHandler 创建 ReviewHandler
func NewReviewHandler(verificationSvc service.VerificationService, submissionSvc service.SubmissionService) *ReviewHandler {
	return &ReviewHandler{verificationSvc: verificationSvc, submissionSvc: submissionSvc}
}

// ListDocuments 文档审核队列
// GET /api/v1/documents?status=&department=&type=
func (h *ReviewHandler) ListDocuments(c *gin.Context) {
	var req dto.ReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.verificationSvc.ListPendingDocuments(c.Request.Context(), &req)
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// ReviewDocument 审核文档
// PATCH /api/v1/documents/:id/review
func (h *ReviewHandler) ReviewDocument(c *gin.Context) {
	in, ok := h.decisionInput(c)
	if !ok {
		return
	}

	result, err := h.verificationSvc.ReviewDocument(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAwards 奖项审核队列
// GET /api/v1/awards?status=&department=
func (h *ReviewHandler) ListAwards(c *gin.Context) {
	var req dto.ReviewListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.verificationSvc.ListPendingAwards(c.Request.Context(), &req)
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// ReviewAward 审核奖项
// PATCH /api/v1/awards/:id/review
func (h *ReviewHandler) ReviewAward(c *gin.Context) {
	in, ok := h.decisionInput(c)
	if !ok {
		return
	}

	result, err := h.verificationSvc.ReviewAward(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OK(c, result)
}

// ListStudents 学生列表
// GET /api/v1/students?department=&status=&keyword=
func (h *ReviewHandler) ListStudents(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		bindError(c, err)
		return
	}

	items, total, err := h.submissionSvc.ListStudents(c.Request.Context(), &req)
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OKPage(c, items, total, req.GetPage(), req.GetPageSize())
}

// GetStudent 单个学生的审核进度
// GET /api/v1/students/:id
func (h *ReviewHandler) GetStudent(c *gin.Context) {
	status, err := h.submissionSvc.GetStudentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OK(c, status)
}

// UpdateStudentProfile 审核人员修正学生档案（带版本号，乐观锁）
// PATCH /api/v1/students/:id/profile
func (h *ReviewHandler) UpdateStudentProfile(c *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.submissionSvc.UpdateStudentProfile(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrStudentNumberExists) {
			response.Conflict(c, 21007, "学号已被使用")
			return
		}
		handleReviewError(c, err)
		return
	}

	response.OK(c, profile)
}

// RecomputeAggregate 重新计算汇总状态（重算失败后的重试入口）
// POST /api/v1/students/:id/recompute
func (h *ReviewHandler) RecomputeAggregate(c *gin.Context) {
	aggregate, err := h.verificationSvc.RecomputeAggregate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OK(c, aggregate)
}

// ListLogs 学生的审核日志
// GET /api/v1/students/:id/logs
func (h *ReviewHandler) ListLogs(c *gin.Context) {
	logs, err := h.verificationSvc.ListLogs(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleReviewError(c, err)
		return
	}

	response.OK(c, logs)
}

// decisionInput 绑定审核请求并附上审核人身份
func (h *ReviewHandler) decisionInput(c *gin.Context) (service.DecisionInput, bool) {
	reviewerID, ok := MustGetUserID(c)
	if !ok {
		return service.DecisionInput{}, false
	}

	var req dto.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return service.DecisionInput{}, false
	}

	return service.DecisionInput{
		Decision:   verification.Decision(req.Decision),
		Feedback:   req.Feedback,
		ReviewerID: reviewerID,
	}, true
}

// ── 审核模块错误码 23xxx（23010 为汇总重算失败） ──

func handleReviewError(c *gin.Context, err error) {
	if handleRecomputeError(c, err) {
		return
	}
	if handleCategoryError(c, err, 23000) {
		return
	}
	response.InternalError(c)
}
