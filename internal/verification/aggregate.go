package verification

import "github.com/severusraj/gradverify-mono/internal/model"

// Statuses 学生的汇总审核状态
type Statuses struct {
	PSA     model.VerificationStatus `json:"psa_status"`
	Photo   model.VerificationStatus `json:"photo_status"`
	Awards  model.VerificationStatus `json:"awards_status"`
	Overall model.VerificationStatus `json:"overall_status"`
}

// Recompute 根据有效文档与全部奖项推导汇总状态。
// 纯函数，结果只取决于输入的最终状态，与调用次数和奖项顺序无关。
func Recompute(psaDoc, photoDoc *model.Document, awards []model.Award) Statuses {
	s := Statuses{
		PSA:    documentStatus(psaDoc),
		Photo:  documentStatus(photoDoc),
		Awards: AwardsStatus(awards),
	}
	s.Overall = OverallStatus(s.PSA, s.Photo, s.Awards)
	return s
}

func documentStatus(d *model.Document) model.VerificationStatus {
	if d == nil {
		return model.StatusPending
	}
	return d.Status.OrPending()
}

// AwardsStatus 奖项线状态：无奖项视为通过；任一驳回则驳回；全部通过才通过
func AwardsStatus(awards []model.Award) model.VerificationStatus {
	if len(awards) == 0 {
		return model.StatusApproved
	}
	allApproved := true
	for i := range awards {
		switch awards[i].Status.OrPending() {
		case model.StatusRejected:
			return model.StatusRejected
		case model.StatusApproved:
		default:
			allApproved = false
		}
	}
	if allApproved {
		return model.StatusApproved
	}
	return model.StatusPending
}

// OverallStatus 任一驳回则驳回，三者均通过才通过，否则待审
func OverallStatus(psa, photo, awards model.VerificationStatus) model.VerificationStatus {
	if psa == model.StatusRejected || photo == model.StatusRejected || awards == model.StatusRejected {
		return model.StatusRejected
	}
	if psa == model.StatusApproved && photo == model.StatusApproved && awards == model.StatusApproved {
		return model.StatusApproved
	}
	return model.StatusPending
}

// ApplyTo 写入档案上的缓存字段
func (s Statuses) ApplyTo(p *model.StudentProfile) {
	p.PSAStatus = s.PSA
	p.PhotoStatus = s.Photo
	p.AwardsStatus = s.Awards
	p.OverallStatus = s.Overall
}

// FromProfile 读取档案上缓存的汇总状态
func FromProfile(p *model.StudentProfile) Statuses {
	return Statuses{
		PSA:     p.PSAStatus.OrPending(),
		Photo:   p.PhotoStatus.OrPending(),
		Awards:  p.AwardsStatus.OrPending(),
		Overall: p.OverallStatus.OrPending(),
	}
}

// Equal 是否与档案上的缓存一致
func (s Statuses) Equal(p *model.StudentProfile) bool {
	return s == FromProfile(p)
}
