package verification

import (
	"errors"
	"fmt"

	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
)

// ErrInvalidDecision 审核决定不在 approve/reject 之内
var ErrInvalidDecision = fmt.Errorf("%w: 审核决定只能为 approve 或 reject", pkgerrors.ErrInvalidArgument)

// StepLockedError 目标步骤未解锁，Blocking 为需要先完成的步骤
type StepLockedError struct {
	Step     Step
	Blocking Step
}

func (e *StepLockedError) Error() string {
	return fmt.Sprintf("%s: 步骤 %s 需要先完成 %s", pkgerrors.ErrStepLocked.Error(), e.Step, e.Blocking)
}

// Unwrap 使 errors.Is(err, pkgerrors.ErrStepLocked) 成立
func (e *StepLockedError) Unwrap() error { return pkgerrors.ErrStepLocked }

// RecomputeError 审核结果已落库但汇总重算失败。
// 调用方应对 StudentProfileID 重试重算，而不是重放整个审核决定。
type RecomputeError struct {
	StudentProfileID string
	Err              error
}

func (e *RecomputeError) Error() string {
	return fmt.Sprintf("%s (student_profile_id=%s): %v",
		pkgerrors.ErrAggregateRecomputeFailed.Error(), e.StudentProfileID, e.Err)
}

// Is 匹配 pkgerrors.ErrAggregateRecomputeFailed
func (e *RecomputeError) Is(target error) bool {
	return target == pkgerrors.ErrAggregateRecomputeFailed
}

func (e *RecomputeError) Unwrap() error { return e.Err }

// AsRecomputeError 提取 RecomputeError
func AsRecomputeError(err error) (*RecomputeError, bool) {
	var re *RecomputeError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
