package dto

// ── 审核模块 DTO ──

// ReviewRequest 审核决定请求
type ReviewRequest struct {
	Decision string  `json:"decision" binding:"required,decision"`
	Feedback *string `json:"feedback" binding:"omitempty,max=1000"`
}

// ReviewListRequest 审核队列查询参数
type ReviewListRequest struct {
	PaginationRequest
	Status     string `form:"status"     binding:"omitempty,oneof=pending approved rejected"`
	Department string `form:"department" binding:"omitempty,max=100"`
	Type       string `form:"type"       binding:"omitempty,doc_category"`
}

// StudentBrief 审核列表中的学生摘要
type StudentBrief struct {
	StudentProfileID string `json:"student_profile_id"`
	StudentNumber    string `json:"student_number"`
	Name             string `json:"name"`
	Program          string `json:"program"`
	Department       string `json:"department"`
}

// ReviewDocumentItem 待审文档
type ReviewDocumentItem struct {
	DocumentResponse
	Student *StudentBrief `json:"student,omitempty"`
}

// ReviewAwardItem 待审奖项
type ReviewAwardItem struct {
	AwardResponse
	Student *StudentBrief `json:"student,omitempty"`
}

// DecisionResponse 审核决定结果：更新后的材料、汇总状态和发出的通知
type DecisionResponse struct {
	Category     string               `json:"category"`
	Document     *DocumentResponse    `json:"document,omitempty"`
	Award        *AwardResponse       `json:"award,omitempty"`
	Aggregate    AggregateResponse    `json:"aggregate"`
	Notification NotificationResponse `json:"notification"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	PaginationRequest
	Department string `form:"department" binding:"omitempty,max=100"`
	Status     string `form:"status"     binding:"omitempty,oneof=pending approved rejected"`
	Keyword    string `form:"keyword"    binding:"omitempty,max=50"`
}

// VerificationLogResponse 审核日志
type VerificationLogResponse struct {
	ID           string  `json:"id"`
	Category     string  `json:"category"`
	ArtifactID   string  `json:"artifact_id"`
	Decision     string  `json:"decision"`
	ResultStatus string  `json:"result_status"`
	Feedback     *string `json:"feedback,omitempty"`
	ReviewerID   string  `json:"reviewer_id"`
	ReviewerName string  `json:"reviewer_name,omitempty"`
	CreatedAt    string  `json:"created_at"`
}
