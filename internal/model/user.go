package model

// User 用户表，对应 users
type User struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Role         string  `gorm:"type:varchar(20);not null;default:'student'"    json:"role"`
	Department   *string `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	SoftDeleteModel

	// 关联
	StudentProfile *StudentProfile `gorm:"foreignKey:UserID;references:UserID" json:"student_profile,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// IsReviewer 是否具有审核权限
func (u *User) IsReviewer() bool {
	for _, r := range ReviewerRoles {
		if u.Role == r {
			return true
		}
	}
	return false
}
