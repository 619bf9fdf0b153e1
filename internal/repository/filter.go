package repository

import "github.com/severusraj/gradverify-mono/internal/model"

// ReviewFilter 审核队列查询条件，零值字段不参与过滤
type ReviewFilter struct {
	Status       model.VerificationStatus
	Department   string
	DocumentType model.DocumentType
	// LatestOnly 只返回每个学生每个类别最新的一份文档
	LatestOnly bool
	Offset     int
	Limit      int
}

// UserFilter 账号列表查询条件
type UserFilter struct {
	Role       string
	Department string
	Keyword    string // 姓名或邮箱模糊匹配
	Offset     int
	Limit      int
}

// ProfileFilter 学生档案列表查询条件
type ProfileFilter struct {
	Department    string
	OverallStatus model.VerificationStatus
	Keyword       string // 学号或姓名模糊匹配
	Offset        int
	Limit         int
}

// DepartmentProgressRow 按学院汇总的审核进度
type DepartmentProgressRow struct {
	Department string
	Total      int64
	Approved   int64
	Pending    int64
	Rejected   int64
}
