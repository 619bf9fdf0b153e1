package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// UserRepository 账号数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	// GetByEmail 邮箱不区分大小写
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// ExistingEmails 返回 emails 中已注册的邮箱（小写）
	ExistingEmails(ctx context.Context, emails []string) (map[string]struct{}, error)
	Update(ctx context.Context, user *model.User) error
	List(ctx context.Context, filter UserFilter) ([]model.User, int64, error)
}

type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 学生账号同时带出档案
func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("StudentProfile").
		Where("user_id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) ExistingEmails(ctx context.Context, emails []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(emails))
	if len(emails) == 0 {
		return found, nil
	}

	var rows []string
	err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("LOWER(email) IN ?", emails).
		Pluck("LOWER(email)", &rows).Error
	if err != nil {
		return nil, err
	}
	for _, e := range rows {
		found[e] = struct{}{}
	}
	return found, nil
}

func (r *userRepo) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepo) List(ctx context.Context, filter UserFilter) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.Department != "" {
		db = db.Where("department = ?", filter.Department)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		db = db.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(filter.Offset).Limit(filter.Limit).
		Order("created_at DESC, user_id").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}
