package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/repository"
	"github.com/severusraj/gradverify-mono/internal/verification"
	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
	"github.com/severusraj/gradverify-mono/pkg/metrics"
)

// ── 提交模块业务错误 ──

const maxUploadSize = 10 << 20 // 10 MiB

var (
	ErrProfileExists       = errors.New("学生档案已存在")
	ErrStudentNumberExists = errors.New("学号已被使用")
	ErrProfileRequired     = fmt.Errorf("%w: 请先填写学生档案", pkgerrors.ErrNotFound)
	ErrUnsupportedFileType = fmt.Errorf("%w: 不支持的文件类型", pkgerrors.ErrInvalidArgument)
	ErrFileTooLarge        = fmt.Errorf("%w: 文件大小超过 10MB", pkgerrors.ErrInvalidArgument)
)

// allowedMimeTypes 各类材料允许的文件类型
var allowedMimeTypes = map[model.Category][]string{
	model.CategoryPSA:    {"application/pdf", "image/jpeg", "image/png"},
	model.CategoryPhoto:  {"image/jpeg", "image/png"},
	model.CategoryAwards: {"application/pdf", "image/jpeg", "image/png"},
}

// SubmissionService 学生提交业务接口
type SubmissionService interface {
	CreateProfile(ctx context.Context, userID string, req *dto.ProfileRequest) (*dto.ProfileResponse, error)
	GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	// UpdateStudentProfile 审核人员修正学生档案，不改动审核状态
	UpdateStudentProfile(ctx context.Context, studentProfileID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error)
	// GetStatus 学生本人的审核进度；尚无档案时返回 profile 步骤
	GetStatus(ctx context.Context, userID string) (*dto.StatusResponse, error)
	GetStudentStatus(ctx context.Context, studentProfileID string) (*dto.StatusResponse, error)
	ListStudents(ctx context.Context, req *dto.StudentListRequest) ([]dto.ProfileResponse, int64, error)
	UploadDocument(ctx context.Context, userID string, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error)
	ListDocuments(ctx context.Context, userID string) ([]dto.DocumentResponse, error)
	SubmitAward(ctx context.Context, userID string, req *dto.SubmitAwardRequest) (*dto.AwardResponse, error)
	ListAwards(ctx context.Context, userID string) ([]dto.AwardResponse, error)
}

type submissionService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(repo *repository.Repository, logger *zap.Logger) SubmissionService {
	return &submissionService{repo: repo, logger: logger}
}

// ────────────────────── Profile ──────────────────────

func (s *submissionService) CreateProfile(ctx context.Context, userID string, req *dto.ProfileRequest) (*dto.ProfileResponse, error) {
	if _, err := s.repo.StudentProfile.GetByUserID(ctx, userID); err == nil {
		return nil, ErrProfileExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	studentNumber := strings.TrimSpace(req.StudentNumber)
	if _, err := s.repo.StudentProfile.GetByStudentNumber(ctx, studentNumber); err == nil {
		return nil, ErrStudentNumberExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	profile := &model.StudentProfile{
		UserID:        userID,
		StudentNumber: studentNumber,
		Program:       strings.TrimSpace(req.Program),
		Department:    strings.TrimSpace(req.Department),
		DateOfBirth:   req.DateOfBirth,
		PlaceOfBirth:  strings.TrimSpace(req.PlaceOfBirth),
		Sex:           req.Sex,
		ContactNumber: req.ContactNumber,
	}
	// 新档案没有任何材料
	verification.Recompute(nil, nil, nil).ApplyTo(profile)

	if err := s.repo.StudentProfile.Create(ctx, profile); err != nil {
		s.logger.Error("创建学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学生档案已创建",
		zap.String("user_id", userID),
		zap.String("student_profile_id", profile.StudentProfileID))

	created, err := s.repo.StudentProfile.GetByID(ctx, profile.StudentProfileID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(created), nil
}

func (s *submissionService) GetProfile(ctx context.Context, userID string) (*dto.ProfileResponse, error) {
	profile, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toProfileResponse(profile), nil
}

func (s *submissionService) UpdateProfile(ctx context.Context, userID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	profile, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.saveProfile(ctx, profile, req)
}

func (s *submissionService) UpdateStudentProfile(ctx context.Context, studentProfileID string, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	profile, err := s.repo.StudentProfile.GetByID(ctx, studentProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s.saveProfile(ctx, profile, req)
}

// saveProfile 只覆盖档案字段，汇总状态列保持原值
func (s *submissionService) saveProfile(ctx context.Context, profile *model.StudentProfile, req *dto.UpdateProfileRequest) (*dto.ProfileResponse, error) {
	studentNumber := strings.TrimSpace(req.StudentNumber)
	if studentNumber != profile.StudentNumber {
		existing, err := s.repo.StudentProfile.GetByStudentNumber(ctx, studentNumber)
		if err == nil && existing.StudentProfileID != profile.StudentProfileID {
			return nil, ErrStudentNumberExists
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	profile.StudentNumber = studentNumber
	profile.Program = strings.TrimSpace(req.Program)
	profile.Department = strings.TrimSpace(req.Department)
	profile.DateOfBirth = req.DateOfBirth
	profile.PlaceOfBirth = strings.TrimSpace(req.PlaceOfBirth)
	profile.Sex = req.Sex
	profile.ContactNumber = req.ContactNumber
	profile.Version = req.Version

	if err := s.repo.StudentProfile.Update(ctx, profile); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新学生档案失败", zap.String("student_profile_id", profile.StudentProfileID), zap.Error(err))
		}
		return nil, err
	}

	return toProfileResponse(profile), nil
}

func (s *submissionService) profileOf(ctx context.Context, userID string) (*model.StudentProfile, error) {
	profile, err := s.repo.StudentProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileRequired
		}
		s.logger.Error("查询学生档案失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return profile, nil
}

// ────────────────────── Status ──────────────────────

func (s *submissionService) GetStatus(ctx context.Context, userID string) (*dto.StatusResponse, error) {
	profile, err := s.repo.StudentProfile.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return buildStatus(nil, &artifactSnapshot{}), nil
		}
		return nil, err
	}
	return s.statusOf(ctx, profile)
}

func (s *submissionService) GetStudentStatus(ctx context.Context, studentProfileID string) (*dto.StatusResponse, error) {
	profile, err := s.repo.StudentProfile.GetByID(ctx, studentProfileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	return s.statusOf(ctx, profile)
}

func (s *submissionService) statusOf(ctx context.Context, profile *model.StudentProfile) (*dto.StatusResponse, error) {
	snap, err := loadSnapshot(ctx, s.repo, profile.StudentProfileID)
	if err != nil {
		s.logger.Error("加载审核材料失败", zap.String("student_profile_id", profile.StudentProfileID), zap.Error(err))
		return nil, err
	}
	return buildStatus(profile, snap), nil
}

// buildStatus 步骤与进度基于已保存的汇总状态；profile 为 nil 表示尚未建档
func buildStatus(profile *model.StudentProfile, snap *artifactSnapshot) *dto.StatusResponse {
	complete := profile.IsComplete()

	agg := verification.Recompute(nil, nil, nil)
	profileID := ""
	resp := &dto.StatusResponse{ProfileComplete: complete}
	if profile != nil {
		agg = verification.FromProfile(profile)
		profileID = profile.StudentProfileID
		resp.Profile = toProfileResponse(profile)
	}
	resp.Aggregate = toAggregateResponse(profileID, agg)

	resp.ActiveStep = string(verification.ActiveStep(complete, agg.PSA, agg.Photo, agg.Awards))
	resp.Progress = verification.Progress(complete, agg.PSA, agg.Photo, len(snap.awards), agg.Awards)

	steps := []struct {
		step   verification.Step
		status model.VerificationStatus
	}{
		{verification.StepProfile, profileStepStatus(complete)},
		{verification.StepPSA, agg.PSA},
		{verification.StepPhoto, agg.Photo},
		{verification.StepAwards, agg.Awards},
	}
	for _, st := range steps {
		resp.Steps = append(resp.Steps, dto.StepResponse{
			Step:     string(st.step),
			Unlocked: verification.IsStepUnlocked(st.step, complete, agg.PSA, agg.Photo),
			Status:   string(st.status),
		})
	}

	resp.PSA = toDocumentResponse(snap.psa)
	resp.Photo = toDocumentResponse(snap.photo)
	resp.Awards = make([]dto.AwardResponse, 0, len(snap.awards))
	for i := range snap.awards {
		resp.Awards = append(resp.Awards, *toAwardResponse(&snap.awards[i]))
	}
	return resp
}

func profileStepStatus(complete bool) model.VerificationStatus {
	if complete {
		return model.StatusApproved
	}
	return model.StatusPending
}

func (s *submissionService) ListStudents(ctx context.Context, req *dto.StudentListRequest) ([]dto.ProfileResponse, int64, error) {
	profiles, total, err := s.repo.StudentProfile.List(ctx, repository.ProfileFilter{
		Department:    req.Department,
		OverallStatus: model.VerificationStatus(req.Status),
		Keyword:       strings.TrimSpace(req.Keyword),
		Offset:        req.GetOffset(),
		Limit:         req.GetPageSize(),
	})
	if err != nil {
		s.logger.Error("查询学生列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		result = append(result, *toProfileResponse(&profiles[i]))
	}
	return result, total, nil
}

// ────────────────────── Documents ──────────────────────

func (s *submissionService) UploadDocument(ctx context.Context, userID string, req *dto.UploadDocumentRequest) (*dto.DocumentResponse, error) {
	docType := model.DocumentType(req.DocumentType)
	if err := checkFile(docType.Category(), req.MimeType, req.FileSize); err != nil {
		return nil, err
	}

	profile, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		StudentProfileID: profile.StudentProfileID,
		DocumentType:     docType,
		FileName:         strings.TrimSpace(req.FileName),
		FilePath:         req.FilePath,
		FileSize:         req.FileSize,
		MimeType:         req.MimeType,
		Status:           model.StatusPending,
	}

	err = s.submitLocked(ctx, profile.StudentProfileID, verification.StepForDocument(docType), func(txRepo *repository.Repository) error {
		return txRepo.Document.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("文档已上传",
		zap.String("student_profile_id", profile.StudentProfileID),
		zap.String("document_type", string(docType)),
		zap.String("document_id", doc.DocumentID))

	return toDocumentResponse(doc), nil
}

func (s *submissionService) ListDocuments(ctx context.Context, userID string) ([]dto.DocumentResponse, error) {
	profile, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.Document.ListByStudent(ctx, profile.StudentProfileID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.DocumentResponse, 0, len(docs))
	for i := range docs {
		result = append(result, *toDocumentResponse(&docs[i]))
	}
	return result, nil
}

// ────────────────────── Awards ──────────────────────

func (s *submissionService) SubmitAward(ctx context.Context, userID string, req *dto.SubmitAwardRequest) (*dto.AwardResponse, error) {
	if req.ProofFileName != nil {
		var size int64
		if req.ProofFileSize != nil {
			size = *req.ProofFileSize
		}
		mime := ""
		if req.ProofMimeType != nil {
			mime = *req.ProofMimeType
		}
		if err := checkFile(model.CategoryAwards, mime, size); err != nil {
			return nil, err
		}
	}

	profile, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	award := &model.Award{
		StudentProfileID: profile.StudentProfileID,
		Name:             strings.TrimSpace(req.Name),
		AwardType:        model.AwardType(req.AwardType),
		Description:      req.Description,
		ProofFileName:    req.ProofFileName,
		ProofFilePath:    req.ProofFilePath,
		Status:           model.StatusPending,
	}

	err = s.submitLocked(ctx, profile.StudentProfileID, verification.StepAwards, func(txRepo *repository.Repository) error {
		return txRepo.Award.Create(ctx, award)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("奖项已申报",
		zap.String("student_profile_id", profile.StudentProfileID),
		zap.String("award_id", award.AwardID))

	return toAwardResponse(award), nil
}

func (s *submissionService) ListAwards(ctx context.Context, userID string) ([]dto.AwardResponse, error) {
	profile, err := s.profileOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	awards, err := s.repo.Award.ListByStudent(ctx, profile.StudentProfileID)
	if err != nil {
		return nil, err
	}
	result := make([]dto.AwardResponse, 0, len(awards))
	for i := range awards {
		result = append(result, *toAwardResponse(&awards[i]))
	}
	return result, nil
}

// ── 内部辅助方法 ──

// submitLocked 锁定档案后按最新材料检查步骤门禁，再执行写入并重算汇总状态。
// 任一步失败整体回滚。
func (s *submissionService) submitLocked(ctx context.Context, studentProfileID string, step verification.Step, create func(txRepo *repository.Repository) error) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	rollback := func() {
		if tx != nil {
			tx.Rollback()
		}
	}
	defer func() {
		if r := recover(); r != nil {
			rollback()
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	profile, err := txRepo.StudentProfile.GetByIDForUpdate(ctx, studentProfileID)
	if err != nil {
		rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProfileRequired
		}
		return err
	}

	snap, err := loadSnapshot(ctx, txRepo, studentProfileID)
	if err != nil {
		rollback()
		return err
	}
	current := snap.statuses()
	if err := verification.RequireUnlocked(step, profile.IsComplete(), current.PSA, current.Photo); err != nil {
		rollback()
		return err
	}

	if err := create(txRepo); err != nil {
		rollback()
		s.logger.Error("写入提交材料失败", zap.String("step", string(step)), zap.Error(err))
		return err
	}

	if _, err := recomputeAndSave(ctx, txRepo, profile); err != nil {
		rollback()
		metrics.AggregateRecomputeFailuresTotal.Inc()
		s.logger.Error("提交后重算汇总状态失败", zap.String("student_profile_id", studentProfileID), zap.Error(err))
		// 整个提交已回滚，没有需要保留的结果，按普通内部错误处理
		return fmt.Errorf("提交已回滚，重算汇总状态失败: %w", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

func checkFile(c model.Category, mimeType string, size int64) error {
	if size > maxUploadSize {
		return ErrFileTooLarge
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, allowed := range allowedMimeTypes[c] {
		if mimeType == allowed {
			return nil
		}
	}
	return ErrUnsupportedFileType
}
