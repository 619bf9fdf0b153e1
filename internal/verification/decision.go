package verification

import (
	"fmt"
	"strings"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// Decision 审核决定
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// IsValid 是否为 approve/reject
func (d Decision) IsValid() bool {
	return d == DecisionApprove || d == DecisionReject
}

// Outcome 审核决定作用于材料后的结果
type Outcome struct {
	Status   model.VerificationStatus
	Feedback *string
}

// 驳回且未填写意见时使用的默认说明
var defaultRejectFeedback = map[model.Category]string{
	model.CategoryPSA:    "Your PSA birth certificate could not be verified. Please upload a clear and complete copy.",
	model.CategoryPhoto:  "Your graduation photo does not meet the requirements. Please upload a new photo.",
	model.CategoryAwards: "Your award claim could not be verified. Please provide valid proof of the award.",
}

// DefaultRejectFeedback 类别对应的默认驳回说明
func DefaultRejectFeedback(c model.Category) string {
	if fb, ok := defaultRejectFeedback[c]; ok {
		return fb
	}
	return "Your submission was rejected. Please review the requirements and submit again."
}

// Decide 计算审核决定的结果。任何当前状态都可以重新审核，因此不需要传入当前状态。
// 通过：意见可选，空白意见视为清空；驳回：意见为空时替换为默认说明。
func Decide(c model.Category, d Decision, feedback *string) (Outcome, error) {
	fb := trimFeedback(feedback)
	switch d {
	case DecisionApprove:
		return Outcome{Status: model.StatusApproved, Feedback: fb}, nil
	case DecisionReject:
		if fb == nil {
			def := DefaultRejectFeedback(c)
			fb = &def
		}
		return Outcome{Status: model.StatusRejected, Feedback: fb}, nil
	default:
		return Outcome{}, ErrInvalidDecision
	}
}

func trimFeedback(feedback *string) *string {
	if feedback == nil {
		return nil
	}
	v := strings.TrimSpace(*feedback)
	if v == "" {
		return nil
	}
	return &v
}

// ── 通知文案 ──

// Message 通知标题与正文
type Message struct {
	Title string
	Body  string
}

var titleLabels = map[model.Category]string{
	model.CategoryPSA:    "PSA birth certificate",
	model.CategoryPhoto:  "Graduation photo",
	model.CategoryAwards: "Award",
}

var bodyLabels = map[model.Category]string{
	model.CategoryPSA:    "PSA birth certificate",
	model.CategoryPhoto:  "graduation photo",
	model.CategoryAwards: "award",
}

// Label 类别的展示名称
func Label(c model.Category) string {
	return titleLabels[c]
}

// BuildNotification 生成审核结果通知。artifactName 为奖项名称，文档传空串。
func BuildNotification(c model.Category, artifactName string, o Outcome) Message {
	verb := "approved"
	if o.Status == model.StatusRejected {
		verb = "rejected"
	}

	label := bodyLabels[c]
	if artifactName != "" {
		label = fmt.Sprintf("%s %q", label, artifactName)
	}

	body := fmt.Sprintf("Your %s has been %s", label, verb)
	if o.Feedback != nil && *o.Feedback != "" {
		body += ": " + *o.Feedback
	} else {
		body += "."
	}

	return Message{
		Title: fmt.Sprintf("%s %s", titleLabels[c], verb),
		Body:  body,
	}
}

// NotificationType 类别对应的通知类型
func NotificationType(c model.Category) string {
	if c == model.CategoryAwards {
		return model.NotificationAwardReviewed
	}
	return model.NotificationDocumentReviewed
}
