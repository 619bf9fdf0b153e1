package model

// VerificationStatus 审核状态，对应 PostgreSQL 枚举 verification_status
// 三个取值之间没有大小顺序，只做相等比较。
type VerificationStatus string

const (
	StatusPending  VerificationStatus = "pending"
	StatusApproved VerificationStatus = "approved"
	StatusRejected VerificationStatus = "rejected"
)

// IsValid 是否为合法状态值
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// OrPending 空值按 pending 处理
func (s VerificationStatus) OrPending() VerificationStatus {
	if s == "" {
		return StatusPending
	}
	return s
}

// DocumentType 文档类别，对应 document_type 枚举
type DocumentType string

const (
	DocumentPSA   DocumentType = "psa"
	DocumentPhoto DocumentType = "photo"
)

// Category 审核类别（三条审核线）
type Category string

const (
	CategoryPSA    Category = "psa"
	CategoryPhoto  Category = "photo"
	CategoryAwards Category = "awards"
)

// Category 文档类别对应的审核线
func (t DocumentType) Category() Category {
	return Category(t)
}

// AwardType 奖项类型，对应 award_type 枚举
type AwardType string

const (
	AwardLatinHonor          AwardType = "latin_honor"
	AwardAcademicAchievement AwardType = "academic_achievement"
	AwardDepartment          AwardType = "department_award"
	AwardSpecialRecognition  AwardType = "special_recognition"
	AwardOther               AwardType = "other"
)

// 用户角色
const (
	RoleStudent    = "student"
	RoleFaculty    = "faculty"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// ReviewerRoles 可以执行审核操作的角色
var ReviewerRoles = []string{RoleFaculty, RoleAdmin, RoleSuperAdmin}
