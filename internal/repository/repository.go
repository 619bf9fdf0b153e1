package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User            UserRepository
	StudentProfile  StudentProfileRepository
	Document        DocumentRepository
	Award           AwardRepository
	VerificationLog VerificationLogRepository
	Notification    NotificationRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		User:            NewUserRepo(db),
		StudentProfile:  NewStudentProfileRepo(db),
		Document:        NewDocumentRepo(db),
		Award:           NewAwardRepo(db),
		VerificationLog: NewVerificationLogRepo(db),
		Notification:    NewNotificationRepo(db),
	}
}

// BeginTx 开启事务。未绑定数据库（单元测试中由 mock 组装）时返回 nil，
// 调用方以 tx != nil 判断是否需要提交/回滚。
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
