package dto

// ── 仪表盘模块 DTO ──

// DashboardStatsResponse 按汇总状态统计的学生数
type DashboardStatsResponse struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

// DepartmentProgressResponse 学院审核进度
type DepartmentProgressResponse struct {
	Department string `json:"department"`
	Total      int64  `json:"total"`
	Approved   int64  `json:"approved"`
	Pending    int64  `json:"pending"`
	Rejected   int64  `json:"rejected"`
	Percent    int    `json:"percent"` // approved / total，四舍五入
}

// RecentSubmissionsRequest 最近提交查询参数
type RecentSubmissionsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=50"`
}

// GetLimit 默认 5 条
func (r *RecentSubmissionsRequest) GetLimit() int {
	if r.Limit <= 0 {
		return 5
	}
	return r.Limit
}

// RecentSubmissionResponse 最近创建的学生档案
type RecentSubmissionResponse struct {
	StudentProfileID string `json:"student_profile_id"`
	StudentNumber    string `json:"student_number"`
	Name             string `json:"name"`
	Program          string `json:"program"`
	Department       string `json:"department"`
	OverallStatus    string `json:"overall_status"`
	CreatedAt        string `json:"created_at"`
}
