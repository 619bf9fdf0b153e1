package model

import "time"

// Document 上传文档表，对应 documents
// 同一学生同一类别允许多条记录，最新一条为有效文档。
type Document struct {
	DocumentID       string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"      json:"document_id"`
	StudentProfileID string             `gorm:"type:uuid;not null;index:idx_documents_student_type"  json:"student_profile_id"`
	DocumentType     DocumentType       `gorm:"type:document_type;not null;index:idx_documents_student_type" json:"document_type"`
	FileName         string             `gorm:"type:varchar(255);not null"                          json:"file_name"`
	FilePath         string             `gorm:"type:text;not null"                                  json:"file_path"`
	FileSize         int64              `gorm:"not null"                                            json:"file_size"`
	MimeType         string             `gorm:"type:varchar(100);not null"                          json:"mime_type"`
	Status           VerificationStatus `gorm:"type:verification_status;not null;default:'pending'" json:"status"`
	Feedback         *string            `gorm:"type:text"                                           json:"feedback,omitempty"`
	VerifiedBy       *string            `gorm:"type:uuid"                                           json:"verified_by,omitempty"`
	VerifiedAt       *time.Time         `json:"verified_at,omitempty"`
	BaseModel

	// 关联
	StudentProfile *StudentProfile `gorm:"foreignKey:StudentProfileID;references:StudentProfileID" json:"student_profile,omitempty"`
}

// TableName 指定表名
func (Document) TableName() string { return "documents" }
