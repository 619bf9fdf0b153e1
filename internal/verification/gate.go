// Package verification 审核状态机的纯逻辑部分：提交步骤门控、汇总状态重算、审核决定与通知文案。
// 包内函数不访问存储，也不读取任何会话状态。
package verification

import (
	"math"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// Step 提交步骤，严格按 profile → psa → photo → awards 顺序推进
type Step string

const (
	StepProfile  Step = "profile"
	StepPSA      Step = "psa"
	StepPhoto    Step = "photo"
	StepAwards   Step = "awards"
	StepComplete Step = "complete"
)

// StepForDocument 文档类别对应的提交步骤
func StepForDocument(t model.DocumentType) Step {
	if t == model.DocumentPhoto {
		return StepPhoto
	}
	return StepPSA
}

// ActiveStep 当前需要学生处理的步骤
func ActiveStep(profileComplete bool, psa, photo, awards model.VerificationStatus) Step {
	switch {
	case !profileComplete:
		return StepProfile
	case psa != model.StatusApproved:
		return StepPSA
	case photo != model.StatusApproved:
		return StepPhoto
	case awards != model.StatusApproved:
		return StepAwards
	default:
		return StepComplete
	}
}

// IsStepUnlocked 指定步骤是否允许提交新内容。
// Complete 不是提交目标，照片通过后即视为解锁。
func IsStepUnlocked(step Step, profileComplete bool, psa, photo model.VerificationStatus) bool {
	switch step {
	case StepProfile:
		return true
	case StepPSA:
		return profileComplete
	case StepPhoto:
		return psa == model.StatusApproved
	case StepAwards, StepComplete:
		return photo == model.StatusApproved
	default:
		return false
	}
}

// RequireUnlocked 步骤未解锁时返回 *StepLockedError
func RequireUnlocked(step Step, profileComplete bool, psa, photo model.VerificationStatus) error {
	if IsStepUnlocked(step, profileComplete, psa, photo) {
		return nil
	}
	return &StepLockedError{Step: step, Blocking: blockingStep(step)}
}

func blockingStep(step Step) Step {
	switch step {
	case StepPSA:
		return StepProfile
	case StepPhoto:
		return StepPSA
	default:
		return StepPhoto
	}
}

// Progress 完成百分比（四舍五入）。
// 奖项只有在学生至少申报一项时才计入步骤总数。
func Progress(profileComplete bool, psa, photo model.VerificationStatus, awardsCount int, awards model.VerificationStatus) int {
	total, done := 3, 0
	if profileComplete {
		done++
	}
	if psa == model.StatusApproved {
		done++
	}
	if photo == model.StatusApproved {
		done++
	}
	if awardsCount > 0 {
		total++
		if awards == model.StatusApproved {
			done++
		}
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}
