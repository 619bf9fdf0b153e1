package model

import "time"

// Award 奖项申报表，对应 awards
type Award struct {
	AwardID          string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"      json:"award_id"`
	StudentProfileID string             `gorm:"type:uuid;not null;index"                            json:"student_profile_id"`
	Name             string             `gorm:"type:varchar(200);not null"                          json:"name"`
	AwardType        AwardType          `gorm:"type:award_type;not null"                            json:"award_type"`
	Description      *string            `gorm:"type:text"                                           json:"description,omitempty"`
	ProofFileName    *string            `gorm:"type:varchar(255)"                                   json:"proof_file_name,omitempty"`
	ProofFilePath    *string            `gorm:"type:text"                                           json:"proof_file_path,omitempty"`
	Status           VerificationStatus `gorm:"type:verification_status;not null;default:'pending'" json:"status"`
	Feedback         *string            `gorm:"type:text"                                           json:"feedback,omitempty"`
	VerifiedBy       *string            `gorm:"type:uuid"                                           json:"verified_by,omitempty"`
	VerifiedAt       *time.Time         `json:"verified_at,omitempty"`
	BaseModel

	// 关联
	StudentProfile *StudentProfile `gorm:"foreignKey:StudentProfileID;references:StudentProfileID" json:"student_profile,omitempty"`
}

// TableName 指定表名
func (Award) TableName() string { return "awards" }
