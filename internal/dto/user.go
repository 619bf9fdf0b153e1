package dto

// ── 用户模块 DTO ──

// UserResponse 账号信息（不含密码哈希）
type UserResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Department *string `json:"department,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

// CreateUserRequest 管理员创建账号请求
type CreateUserRequest struct {
	Name       string  `json:"name"       binding:"required,min=2,max=100"`
	Email      string  `json:"email"      binding:"required,email,max=255"`
	Role       string  `json:"role"       binding:"required,oneof=student faculty admin superadmin"`
	Department *string `json:"department" binding:"omitempty,max=100"`
}

// CreateUserResponse 创建账号响应（含一次性临时密码）
type CreateUserResponse struct {
	User         UserResponse `json:"user"`
	TempPassword string       `json:"temp_password"`
}

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role       string `form:"role"       binding:"omitempty,oneof=student faculty admin superadmin"`
	Department string `form:"department" binding:"omitempty,max=100"`
	Keyword    string `form:"keyword"    binding:"omitempty,max=100"`
}

// ImportUserResponse 批量导入学生账号响应
type ImportUserResponse struct {
	Total   int               `json:"total"`
	Success int               `json:"success"`
	Failed  int               `json:"failed"`
	Created []ImportedAccount `json:"created,omitempty"`
	Errors  []ImportUserError `json:"errors,omitempty"`
}

// ImportedAccount 导入成功的账号及临时密码
type ImportedAccount struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"temp_password"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
