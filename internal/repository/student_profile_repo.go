package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/severusraj/gradverify-mono/internal/model"
	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
)

// StudentProfileRepository 学生档案数据访问接口
type StudentProfileRepository interface {
	Create(ctx context.Context, p *model.StudentProfile) error
	GetByID(ctx context.Context, id string) (*model.StudentProfile, error)
	GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error)
	GetByStudentNumber(ctx context.Context, studentNumber string) (*model.StudentProfile, error)
	// GetByIDForUpdate 在事务中对档案行加排他锁，串行化同一学生的重算
	GetByIDForUpdate(ctx context.Context, id string) (*model.StudentProfile, error)
	// Update 更新档案基本信息（乐观锁）
	Update(ctx context.Context, p *model.StudentProfile) error
	// UpdateStatuses 写入汇总状态缓存，不改变 version
	UpdateStatuses(ctx context.Context, p *model.StudentProfile) error
	List(ctx context.Context, filter ProfileFilter) ([]model.StudentProfile, int64, error)
	ListRecent(ctx context.Context, limit int) ([]model.StudentProfile, error)
	CountByOverallStatus(ctx context.Context) (map[model.VerificationStatus]int64, error)
	DepartmentProgress(ctx context.Context) ([]DepartmentProgressRow, error)
}

type studentProfileRepo struct {
	db *gorm.DB
}

// NewStudentProfileRepo 创建 StudentProfileRepository 实例
func NewStudentProfileRepo(db *gorm.DB) StudentProfileRepository {
	return &studentProfileRepo{db: db}
}

func (r *studentProfileRepo) Create(ctx context.Context, p *model.StudentProfile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *studentProfileRepo) GetByID(ctx context.Context, id string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("student_profile_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *studentProfileRepo) GetByUserID(ctx context.Context, userID string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *studentProfileRepo) GetByStudentNumber(ctx context.Context, studentNumber string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := r.db.WithContext(ctx).
		Where("student_number = ?", studentNumber).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *studentProfileRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.StudentProfile, error) {
	var p model.StudentProfile
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_profile_id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *studentProfileRepo) Update(ctx context.Context, p *model.StudentProfile) error {
	oldVersion := p.Version
	result := r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Where("student_profile_id = ? AND version = ?", p.StudentProfileID, oldVersion).
		Updates(map[string]interface{}{
			"student_number": p.StudentNumber,
			"program":        p.Program,
			"department":     p.Department,
			"date_of_birth":  p.DateOfBirth,
			"place_of_birth": p.PlaceOfBirth,
			"sex":            p.Sex,
			"contact_number": p.ContactNumber,
			"version":        oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version = oldVersion + 1
	return nil
}

func (r *studentProfileRepo) UpdateStatuses(ctx context.Context, p *model.StudentProfile) error {
	result := r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Where("student_profile_id = ?", p.StudentProfileID).
		Updates(map[string]interface{}{
			"psa_status":     p.PSAStatus,
			"photo_status":   p.PhotoStatus,
			"awards_status":  p.AwardsStatus,
			"overall_status": p.OverallStatus,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentProfileRepo) List(ctx context.Context, filter ProfileFilter) ([]model.StudentProfile, int64, error) {
	var profiles []model.StudentProfile
	var total int64

	db := r.db.WithContext(ctx).Model(&model.StudentProfile{})
	if filter.Department != "" {
		db = db.Where("student_profiles.department = ?", filter.Department)
	}
	if filter.OverallStatus != "" {
		db = db.Where("student_profiles.overall_status = ?", filter.OverallStatus)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Joins("JOIN users ON users.user_id = student_profiles.user_id").
			Where("student_profiles.student_number ILIKE ? OR users.name ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("student_profiles.created_at DESC").
		Find(&profiles).Error; err != nil {
		return nil, 0, err
	}

	return profiles, total, nil
}

func (r *studentProfileRepo) ListRecent(ctx context.Context, limit int) ([]model.StudentProfile, error) {
	var profiles []model.StudentProfile
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&profiles).Error
	return profiles, err
}

func (r *studentProfileRepo) CountByOverallStatus(ctx context.Context) (map[model.VerificationStatus]int64, error) {
	var rows []struct {
		OverallStatus model.VerificationStatus
		Count         int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Select("overall_status, COUNT(*) AS count").
		Group("overall_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[model.VerificationStatus]int64, len(rows))
	for _, row := range rows {
		out[row.OverallStatus] = row.Count
	}
	return out, nil
}

func (r *studentProfileRepo) DepartmentProgress(ctx context.Context) ([]DepartmentProgressRow, error) {
	var rows []DepartmentProgressRow
	err := r.db.WithContext(ctx).
		Model(&model.StudentProfile{}).
		Select(`department,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE overall_status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE overall_status = 'pending')  AS pending,
			COUNT(*) FILTER (WHERE overall_status = 'rejected') AS rejected`).
		Group("department").
		Order("department").
		Scan(&rows).Error
	return rows, err
}
