package model

import "time"

// VerificationLog 审核日志表，对应 verification_logs
// 每次审核决定写入一条，与文档/奖项的状态变更位于同一事务。
type VerificationLog struct {
	LogID            string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"log_id"`
	StudentProfileID string             `gorm:"type:uuid;not null;index"                       json:"student_profile_id"`
	ReviewerID       string             `gorm:"type:uuid;not null"                             json:"reviewer_id"`
	Category         Category           `gorm:"type:varchar(10);not null"                      json:"category"`
	ArtifactID       string             `gorm:"type:uuid;not null"                             json:"artifact_id"`
	Decision         string             `gorm:"type:varchar(10);not null"                      json:"decision"` // approve | reject
	ResultStatus     VerificationStatus `gorm:"type:verification_status;not null"              json:"result_status"`
	Feedback         *string            `gorm:"type:text"                                      json:"feedback,omitempty"`
	CreatedAt        time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Reviewer *User `gorm:"foreignKey:ReviewerID;references:UserID" json:"reviewer,omitempty"`
}

// TableName 指定表名
func (VerificationLog) TableName() string { return "verification_logs" }
