package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/service"
	"github.com/severusraj/gradverify-mono/pkg/response"
)

// StudentHandler 学生提交模块 HTTP 处理器（/student/*，身份取自 JWT）
type StudentHandler struct {
	submissionSvc service.SubmissionService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(submissionSvc service.SubmissionService) *StudentHandler {
	return &StudentHandler{submissionSvc: submissionSvc}
}

// GetProfile 获取本人档案
// GET /api/v1/student/profile
func (h *StudentHandler) GetProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	profile, err := h.submissionSvc.GetProfile(c.Request.Context(), userID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, profile)
}

// CreateProfile 创建本人档案
// POST /api/v1/student/profile
func (h *StudentHandler) CreateProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.submissionSvc.CreateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.Created(c, profile)
}

// UpdateProfile 更新本人档案（携带 version）
// PUT /api/v1/student/profile
func (h *StudentHandler) UpdateProfile(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.submissionSvc.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, profile)
}

// GetStatus 审核进度：汇总状态、当前步骤、各材料
// GET /api/v1/student/status
func (h *StudentHandler) GetStatus(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	status, err := h.submissionSvc.GetStatus(c.Request.Context(), userID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, status)
}

// UploadDocument 提交 PSA 出生证明或毕业照
// POST /api/v1/student/documents
func (h *StudentHandler) UploadDocument(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	doc, err := h.submissionSvc.UploadDocument(c.Request.Context(), userID, &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.Created(c, doc)
}

// ListDocuments 本人提交过的文档
// GET /api/v1/student/documents
func (h *StudentHandler) ListDocuments(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	docs, err := h.submissionSvc.ListDocuments(c.Request.Context(), userID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, docs)
}

// SubmitAward 申报奖项
// POST /api/v1/student/awards
func (h *StudentHandler) SubmitAward(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SubmitAwardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	award, err := h.submissionSvc.SubmitAward(c.Request.Context(), userID, &req)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.Created(c, award)
}

// ListAwards 本人申报的奖项
// GET /api/v1/student/awards
func (h *StudentHandler) ListAwards(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	awards, err := h.submissionSvc.ListAwards(c.Request.Context(), userID)
	if err != nil {
		handleStudentError(c, err)
		return
	}

	response.OK(c, awards)
}

// ── 学生提交模块错误码 21xxx ──

func handleStudentError(c *gin.Context, err error) {
	if handleRecomputeError(c, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrProfileExists):
		response.Conflict(c, 21006, "学生档案已存在")
		return
	case errors.Is(err, service.ErrStudentNumberExists):
		response.Conflict(c, 21007, "学号已被使用")
		return
	}
	if handleCategoryError(c, err, 21000) {
		return
	}
	response.InternalError(c)
}
