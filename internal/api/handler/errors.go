package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/severusraj/gradverify-mono/internal/verification"
	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
	"github.com/severusraj/gradverify-mono/pkg/response"
	"github.com/severusraj/gradverify-mono/pkg/validate"
)

// bindError 参数绑定失败统一返回 10001，details 为字段级说明
func bindError(c *gin.Context, err error) {
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validate.FormatErrors(err))
}

// handleCategoryError 按 pkg/errors 分类映射，模块错误码为 prefix+1..prefix+5。
// 返回 false 表示未匹配任何分类，调用方继续处理。
func handleCategoryError(c *gin.Context, err error, prefix int) bool {
	var locked *verification.StepLockedError
	switch {
	case errors.As(err, &locked):
		response.ErrorWithDetails(c, http.StatusConflict, prefix+3, "提交步骤未解锁",
			"step="+string(locked.Step)+", blocking="+string(locked.Blocking))
	case errors.Is(err, pkgerrors.ErrNotFound):
		response.ErrorWithDetails(c, http.StatusNotFound, prefix+1, "资源不存在", err.Error())
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		response.ErrorWithDetails(c, http.StatusBadRequest, prefix+2, "参数无效", err.Error())
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		response.ErrorWithDetails(c, http.StatusUnauthorized, prefix+4, "未授权", err.Error())
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, prefix+5, pkgerrors.ErrOptimisticLock.Error())
	default:
		return false
	}
	return true
}

// handleRecomputeError 审核已保存但汇总重算失败：500 + 23010，details 给出需要重试的学生档案
func handleRecomputeError(c *gin.Context, err error) bool {
	re, ok := verification.AsRecomputeError(err)
	if !ok {
		return false
	}
	response.ErrorWithDetails(c, http.StatusInternalServerError, 23010,
		pkgerrors.ErrAggregateRecomputeFailed.Error(), "student_profile_id="+re.StudentProfileID)
	return true
}
