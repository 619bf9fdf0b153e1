package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/model"
)

// DocumentRepository 文档数据访问接口
type DocumentRepository interface {
	Create(ctx context.Context, doc *model.Document) error
	GetByID(ctx context.Context, id string) (*model.Document, error)
	// Update 写入审核字段（status, feedback, verified_by, verified_at）
	Update(ctx context.Context, doc *model.Document) error
	// GetLatestByStudentAndType 有效文档：created_at 最新，相同时取 document_id 较大者
	GetLatestByStudentAndType(ctx context.Context, studentProfileID string, docType model.DocumentType) (*model.Document, error)
	ListByStudent(ctx context.Context, studentProfileID string) ([]model.Document, error)
	List(ctx context.Context, filter ReviewFilter) ([]model.Document, int64, error)
}

type documentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo 创建 DocumentRepository 实例
func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, doc *model.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("document_id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) Update(ctx context.Context, doc *model.Document) error {
	result := r.db.WithContext(ctx).
		Model(doc).
		Select("status", "feedback", "verified_by", "verified_at", "updated_at").
		Updates(doc)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *documentRepo) GetLatestByStudentAndType(ctx context.Context, studentProfileID string, docType model.DocumentType) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).
		Where("student_profile_id = ? AND document_type = ?", studentProfileID, docType).
		Order("created_at DESC, document_id DESC").
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListByStudent(ctx context.Context, studentProfileID string) ([]model.Document, error) {
	var docs []model.Document
	err := r.db.WithContext(ctx).
		Where("student_profile_id = ?", studentProfileID).
		Order("created_at DESC, document_id DESC").
		Find(&docs).Error
	return docs, err
}

func (r *documentRepo) List(ctx context.Context, filter ReviewFilter) ([]model.Document, int64, error) {
	var docs []model.Document
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Document{}).
		Joins("JOIN student_profiles sp ON sp.student_profile_id = documents.student_profile_id")
	if filter.Status != "" {
		db = db.Where("documents.status = ?", filter.Status)
	}
	if filter.DocumentType != "" {
		db = db.Where("documents.document_type = ?", filter.DocumentType)
	}
	if filter.Department != "" {
		db = db.Where("sp.department = ?", filter.Department)
	}
	if filter.LatestOnly {
		db = db.Where(`NOT EXISTS (
			SELECT 1 FROM documents newer
			WHERE newer.student_profile_id = documents.student_profile_id
			  AND newer.document_type = documents.document_type
			  AND (newer.created_at > documents.created_at
			       OR (newer.created_at = documents.created_at AND newer.document_id > documents.document_id)))`)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("StudentProfile.User").
		Offset(filter.Offset).Limit(filter.Limit).
		Order("documents.created_at ASC").
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}

	return docs, total, nil
}
