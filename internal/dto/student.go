package dto

// ── 学生提交模块 DTO ──

// ProfileRequest 创建学生档案请求
type ProfileRequest struct {
	StudentNumber string  `json:"student_number" binding:"required,max=30"`
	Program       string  `json:"program"        binding:"required,max=100"`
	Department    string  `json:"department"     binding:"required,max=100"`
	DateOfBirth   string  `json:"date_of_birth"  binding:"required,datetime=2006-01-02"`
	PlaceOfBirth  string  `json:"place_of_birth" binding:"required,max=200"`
	Sex           string  `json:"sex"            binding:"required,oneof=male female"`
	ContactNumber *string `json:"contact_number" binding:"omitempty,max=30"`
}

// UpdateProfileRequest 更新学生档案请求（乐观锁）
type UpdateProfileRequest struct {
	ProfileRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ProfileResponse 学生档案响应
type ProfileResponse struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Name          string            `json:"name,omitempty"`
	Email         string            `json:"email,omitempty"`
	StudentNumber string            `json:"student_number"`
	Program       string            `json:"program"`
	Department    string            `json:"department"`
	DateOfBirth   string            `json:"date_of_birth"`
	PlaceOfBirth  string            `json:"place_of_birth"`
	Sex           string            `json:"sex"`
	ContactNumber *string           `json:"contact_number,omitempty"`
	Aggregate     AggregateResponse `json:"aggregate"`
	Version       int               `json:"version"`
	CreatedAt     string            `json:"created_at"`
	UpdatedAt     string            `json:"updated_at"`
}

// AggregateResponse 汇总审核状态
type AggregateResponse struct {
	StudentProfileID string `json:"student_profile_id"`
	PSAStatus        string `json:"psa_status"`
	PhotoStatus      string `json:"photo_status"`
	AwardsStatus     string `json:"awards_status"`
	OverallStatus    string `json:"overall_status"`
}

// UploadDocumentRequest 文档上传元数据
type UploadDocumentRequest struct {
	DocumentType string `json:"document_type" binding:"required,doc_category"`
	FileName     string `json:"file_name"     binding:"required,max=255"`
	FilePath     string `json:"file_path"     binding:"required"`
	FileSize     int64  `json:"file_size"     binding:"required,min=1"`
	MimeType     string `json:"mime_type"     binding:"required,max=100"`
}

// DocumentResponse 文档响应
type DocumentResponse struct {
	ID               string  `json:"id"`
	StudentProfileID string  `json:"student_profile_id"`
	DocumentType     string  `json:"document_type"`
	FileName         string  `json:"file_name"`
	FileSize         int64   `json:"file_size"`
	MimeType         string  `json:"mime_type"`
	Status           string  `json:"status"`
	Feedback         *string `json:"feedback,omitempty"`
	VerifiedBy       *string `json:"verified_by,omitempty"`
	VerifiedAt       *string `json:"verified_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// SubmitAwardRequest 奖项申报请求（证明材料可选）
type SubmitAwardRequest struct {
	Name          string  `json:"name"            binding:"required,max=200"`
	AwardType     string  `json:"award_type"      binding:"required,award_type"`
	Description   *string `json:"description"     binding:"omitempty,max=2000"`
	ProofFileName *string `json:"proof_file_name" binding:"omitempty,max=255"`
	ProofFilePath *string `json:"proof_file_path" binding:"required_with=ProofFileName"`
	ProofMimeType *string `json:"proof_mime_type" binding:"required_with=ProofFileName"`
	ProofFileSize *int64  `json:"proof_file_size" binding:"required_with=ProofFileName"`
}

// AwardResponse 奖项响应
type AwardResponse struct {
	ID               string  `json:"id"`
	StudentProfileID string  `json:"student_profile_id"`
	Name             string  `json:"name"`
	AwardType        string  `json:"award_type"`
	Description      *string `json:"description,omitempty"`
	ProofFileName    *string `json:"proof_file_name,omitempty"`
	Status           string  `json:"status"`
	Feedback         *string `json:"feedback,omitempty"`
	VerifiedBy       *string `json:"verified_by,omitempty"`
	VerifiedAt       *string `json:"verified_at,omitempty"`
	CreatedAt        string  `json:"created_at"`
}

// StepResponse 提交步骤状态
type StepResponse struct {
	Step     string `json:"step"`
	Unlocked bool   `json:"unlocked"`
	Status   string `json:"status"`
}

// StatusResponse 学生审核进度 (GET /student/status, GET /students/:id)
type StatusResponse struct {
	Profile         *ProfileResponse  `json:"profile"`
	ProfileComplete bool              `json:"profile_complete"`
	Aggregate       AggregateResponse `json:"aggregate"`
	ActiveStep      string            `json:"active_step"`
	Steps           []StepResponse    `json:"steps"`
	Progress        int               `json:"progress"`
	PSA             *DocumentResponse `json:"psa,omitempty"`
	Photo           *DocumentResponse `json:"photo,omitempty"`
	Awards          []AwardResponse   `json:"awards"`
}
