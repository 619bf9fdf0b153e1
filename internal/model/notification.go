package model

import "time"

// 通知类型
const (
	NotificationDocumentReviewed = "document_reviewed"
	NotificationAwardReviewed    = "award_reviewed"
)

// Notification 通知消息表，对应 notifications
type Notification struct {
	NotificationID string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string     `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Message        string     `gorm:"type:text;not null"                             json:"message"`
	IsRead         bool       `gorm:"not null;default:false"                         json:"is_read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	RelatedType    *string    `gorm:"type:varchar(20)"                               json:"related_type,omitempty"` // document | award
	RelatedID      *string    `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
