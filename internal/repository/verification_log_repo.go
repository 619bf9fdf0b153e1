package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// VerificationLogRepository 审核日志数据访问接口（只追加）
type VerificationLogRepository interface {
	Create(ctx context.Context, log *model.VerificationLog) error
	ListByStudent(ctx context.Context, studentProfileID string) ([]model.VerificationLog, error)
}

type verificationLogRepo struct {
	db *gorm.DB
}

// NewVerificationLogRepo 创建 VerificationLogRepository 实例
func NewVerificationLogRepo(db *gorm.DB) VerificationLogRepository {
	return &verificationLogRepo{db: db}
}

func (r *verificationLogRepo) Create(ctx context.Context, log *model.VerificationLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *verificationLogRepo) ListByStudent(ctx context.Context, studentProfileID string) ([]model.VerificationLog, error) {
	var logs []model.VerificationLog
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("student_profile_id = ?", studentProfileID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
