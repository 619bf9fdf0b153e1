package model

import "strings"

// StudentProfile 学生档案表，对应 student_profiles
// 四个状态字段是审核汇总的缓存投影，只由重算逻辑写入。
type StudentProfile struct {
	StudentProfileID string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"  json:"student_profile_id"`
	UserID           string             `gorm:"type:uuid;not null;uniqueIndex"                  json:"user_id"`
	StudentNumber    string             `gorm:"type:varchar(30);not null;uniqueIndex"           json:"student_number"`
	Program          string             `gorm:"type:varchar(100);not null"                      json:"program"`
	Department       string             `gorm:"type:varchar(100);not null;index"                json:"department"`
	DateOfBirth      string             `gorm:"type:varchar(10);not null"                       json:"date_of_birth"` // "2002-05-17"
	PlaceOfBirth     string             `gorm:"type:varchar(200);not null"                      json:"place_of_birth"`
	Sex              string             `gorm:"type:varchar(10);not null"                       json:"sex"`
	ContactNumber    *string            `gorm:"type:varchar(30)"                                json:"contact_number,omitempty"`
	PSAStatus        VerificationStatus `gorm:"type:verification_status;not null;default:'pending'" json:"psa_status"`
	PhotoStatus      VerificationStatus `gorm:"type:verification_status;not null;default:'pending'" json:"photo_status"`
	AwardsStatus     VerificationStatus `gorm:"type:verification_status;not null;default:'pending'" json:"awards_status"`
	OverallStatus    VerificationStatus `gorm:"type:verification_status;not null;default:'pending'" json:"overall_status"`
	VersionedModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

// TableName 指定表名
func (StudentProfile) TableName() string { return "student_profiles" }

// IsComplete 档案是否填写完整（学号、专业、学院均非空）
func (p *StudentProfile) IsComplete() bool {
	if p == nil {
		return false
	}
	return strings.TrimSpace(p.StudentNumber) != "" &&
		strings.TrimSpace(p.Program) != "" &&
		strings.TrimSpace(p.Department) != ""
}
