package service

import (
	"time"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/verification"
)

// ── model → dto 转换 ──

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

func toUserResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:         u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
		CreatedAt:  formatTime(u.CreatedAt),
	}
}

func toAggregateResponse(profileID string, s verification.Statuses) dto.AggregateResponse {
	return dto.AggregateResponse{
		StudentProfileID: profileID,
		PSAStatus:        string(s.PSA),
		PhotoStatus:      string(s.Photo),
		AwardsStatus:     string(s.Awards),
		OverallStatus:    string(s.Overall),
	}
}

func toProfileResponse(p *model.StudentProfile) *dto.ProfileResponse {
	resp := &dto.ProfileResponse{
		ID:            p.StudentProfileID,
		UserID:        p.UserID,
		StudentNumber: p.StudentNumber,
		Program:       p.Program,
		Department:    p.Department,
		DateOfBirth:   p.DateOfBirth,
		PlaceOfBirth:  p.PlaceOfBirth,
		Sex:           p.Sex,
		ContactNumber: p.ContactNumber,
		Aggregate:     toAggregateResponse(p.StudentProfileID, verification.FromProfile(p)),
		Version:       p.Version,
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
	if p.User != nil {
		resp.Name = p.User.Name
		resp.Email = p.User.Email
	}
	return resp
}

func toStudentBrief(p *model.StudentProfile) *dto.StudentBrief {
	if p == nil {
		return nil
	}
	brief := &dto.StudentBrief{
		StudentProfileID: p.StudentProfileID,
		StudentNumber:    p.StudentNumber,
		Program:          p.Program,
		Department:       p.Department,
	}
	if p.User != nil {
		brief.Name = p.User.Name
	}
	return brief
}

func toDocumentResponse(d *model.Document) *dto.DocumentResponse {
	if d == nil {
		return nil
	}
	return &dto.DocumentResponse{
		ID:               d.DocumentID,
		StudentProfileID: d.StudentProfileID,
		DocumentType:     string(d.DocumentType),
		FileName:         d.FileName,
		FileSize:         d.FileSize,
		MimeType:         d.MimeType,
		Status:           string(d.Status.OrPending()),
		Feedback:         d.Feedback,
		VerifiedBy:       d.VerifiedBy,
		VerifiedAt:       formatTimePtr(d.VerifiedAt),
		CreatedAt:        formatTime(d.CreatedAt),
	}
}

func toAwardResponse(a *model.Award) *dto.AwardResponse {
	if a == nil {
		return nil
	}
	return &dto.AwardResponse{
		ID:               a.AwardID,
		StudentProfileID: a.StudentProfileID,
		Name:             a.Name,
		AwardType:        string(a.AwardType),
		Description:      a.Description,
		ProofFileName:    a.ProofFileName,
		Status:           string(a.Status.OrPending()),
		Feedback:         a.Feedback,
		VerifiedBy:       a.VerifiedBy,
		VerifiedAt:       formatTimePtr(a.VerifiedAt),
		CreatedAt:        formatTime(a.CreatedAt),
	}
}

func toNotificationResponse(n *model.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:          n.NotificationID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		IsRead:      n.IsRead,
		ReadAt:      formatTimePtr(n.ReadAt),
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		CreatedAt:   formatTime(n.CreatedAt),
	}
}

func toLogResponse(l *model.VerificationLog) dto.VerificationLogResponse {
	resp := dto.VerificationLogResponse{
		ID:           l.LogID,
		Category:     string(l.Category),
		ArtifactID:   l.ArtifactID,
		Decision:     l.Decision,
		ResultStatus: string(l.ResultStatus),
		Feedback:     l.Feedback,
		ReviewerID:   l.ReviewerID,
		CreatedAt:    formatTime(l.CreatedAt),
	}
	if l.Reviewer != nil {
		resp.ReviewerName = l.Reviewer.Name
	}
	return resp
}
