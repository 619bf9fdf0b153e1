package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// AwardRepository 奖项数据访问接口
type AwardRepository interface {
	Create(ctx context.Context, award *model.Award) error
	GetByID(ctx context.Context, id string) (*model.Award, error)
	Update(ctx context.Context, award *model.Award) error
	ListByStudent(ctx context.Context, studentProfileID string) ([]model.Award, error)
	List(ctx context.Context, filter ReviewFilter) ([]model.Award, int64, error)
}

type awardRepo struct {
	db *gorm.DB
}

// NewAwardRepo 创建 AwardRepository 实例
func NewAwardRepo(db *gorm.DB) AwardRepository {
	return &awardRepo{db: db}
}

func (r *awardRepo) Create(ctx context.Context, award *model.Award) error {
	return r.db.WithContext(ctx).Create(award).Error
}

func (r *awardRepo) GetByID(ctx context.Context, id string) (*model.Award, error) {
	var award model.Award
	err := r.db.WithContext(ctx).
		Where("award_id = ?", id).
		First(&award).Error
	if err != nil {
		return nil, err
	}
	return &award, nil
}

func (r *awardRepo) Update(ctx context.Context, award *model.Award) error {
	result := r.db.WithContext(ctx).
		Model(award).
		Select("status", "feedback", "verified_by", "verified_at", "updated_at").
		Updates(award)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *awardRepo) ListByStudent(ctx context.Context, studentProfileID string) ([]model.Award, error) {
	var awards []model.Award
	err := r.db.WithContext(ctx).
		Where("student_profile_id = ?", studentProfileID).
		Order("created_at ASC, award_id ASC").
		Find(&awards).Error
	return awards, err
}

func (r *awardRepo) List(ctx context.Context, filter ReviewFilter) ([]model.Award, int64, error) {
	var awards []model.Award
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Award{}).
		Joins("JOIN student_profiles sp ON sp.student_profile_id = awards.student_profile_id")
	if filter.Status != "" {
		db = db.Where("awards.status = ?", filter.Status)
	}
	if filter.Department != "" {
		db = db.Where("sp.department = ?", filter.Department)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("StudentProfile.User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("awards.created_at ASC").
		Find(&awards).Error; err != nil {
		return nil, 0, err
	}

	return awards, total, nil
}
