package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/notify"
	"github.com/severusraj/gradverify-mono/internal/repository"
	"github.com/severusraj/gradverify-mono/internal/verification"
	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
	"github.com/severusraj/gradverify-mono/pkg/metrics"
)

// ── 审核模块业务错误 ──

var (
	ErrReviewerRequired = fmt.Errorf("%w: 缺少审核人身份", pkgerrors.ErrUnauthorized)
	ErrDocumentNotFound = fmt.Errorf("%w: 文档不存在", pkgerrors.ErrNotFound)
	ErrAwardNotFound    = fmt.Errorf("%w: 奖项不存在", pkgerrors.ErrNotFound)
	ErrStudentNotFound  = fmt.Errorf("%w: 学生档案不存在", pkgerrors.ErrNotFound)
	ErrInvalidCategory  = fmt.Errorf("%w: 审核类别只能为 psa、photo 或 awards", pkgerrors.ErrInvalidArgument)
)

const recomputeSavepoint = "recompute"

// ArtifactRef 审核目标：类别 + 文档或奖项 ID
type ArtifactRef struct {
	Category model.Category
	ID       string
}

// DecisionInput 审核人给出的决定
type DecisionInput struct {
	Decision   verification.Decision
	Feedback   *string
	ReviewerID string
}

// VerificationService 审核业务接口
type VerificationService interface {
	ReviewDocument(ctx context.Context, documentID string, in DecisionInput) (*dto.DecisionResponse, error)
	ReviewAward(ctx context.Context, awardID string, in DecisionInput) (*dto.DecisionResponse, error)
	// ApplyDecision 按类别分派到文档或奖项审核
	ApplyDecision(ctx context.Context, target ArtifactRef, in DecisionInput) (*dto.DecisionResponse, error)
	// RecomputeAggregate 从已保存的材料重算汇总状态，可重复执行
	RecomputeAggregate(ctx context.Context, studentProfileID string) (*dto.AggregateResponse, error)
	ListPendingDocuments(ctx context.Context, req *dto.ReviewListRequest) ([]dto.ReviewDocumentItem, int64, error)
	ListPendingAwards(ctx context.Context, req *dto.ReviewListRequest) ([]dto.ReviewAwardItem, int64, error)
	ListLogs(ctx context.Context, studentProfileID string) ([]dto.VerificationLogResponse, error)
}

type verificationService struct {
	repo   *repository.Repository
	sink   notify.Sink
	logger *zap.Logger
	now    func() time.Time
}

// NewVerificationService 创建 VerificationService 实例
func NewVerificationService(repo *repository.Repository, sink notify.Sink, logger *zap.Logger) VerificationService {
	return &verificationService{repo: repo, sink: sink, logger: logger, now: time.Now}
}

// reviewTarget 一次审核涉及的材料，文档与奖项二选一
type reviewTarget struct {
	category  model.Category
	studentID string
	document  *model.Document
	award     *model.Award
}

func (t *reviewTarget) artifactID() string {
	if t.document != nil {
		return t.document.DocumentID
	}
	return t.award.AwardID
}

func (t *reviewTarget) artifactName() string {
	if t.award != nil {
		return t.award.Name
	}
	return ""
}

// ────────────────────── Review ──────────────────────

func (s *verificationService) ReviewDocument(ctx context.Context, documentID string, in DecisionInput) (*dto.DecisionResponse, error) {
	if err := validateDecisionInput(in); err != nil {
		return nil, err
	}
	target, err := s.loadDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, target, in)
}

func (s *verificationService) ReviewAward(ctx context.Context, awardID string, in DecisionInput) (*dto.DecisionResponse, error) {
	if err := validateDecisionInput(in); err != nil {
		return nil, err
	}
	target, err := s.loadAward(ctx, awardID)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, target, in)
}

func (s *verificationService) ApplyDecision(ctx context.Context, ref ArtifactRef, in DecisionInput) (*dto.DecisionResponse, error) {
	if err := validateDecisionInput(in); err != nil {
		return nil, err
	}

	switch ref.Category {
	case model.CategoryPSA, model.CategoryPhoto:
		target, err := s.loadDocument(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		// 文档 ID 属于另一类别时视为不存在
		if target.category != ref.Category {
			return nil, ErrDocumentNotFound
		}
		return s.apply(ctx, target, in)
	case model.CategoryAwards:
		target, err := s.loadAward(ctx, ref.ID)
		if err != nil {
			return nil, err
		}
		return s.apply(ctx, target, in)
	default:
		return nil, ErrInvalidCategory
	}
}

func validateDecisionInput(in DecisionInput) error {
	if in.ReviewerID == "" {
		return ErrReviewerRequired
	}
	if !in.Decision.IsValid() {
		return verification.ErrInvalidDecision
	}
	return nil
}

func (s *verificationService) loadDocument(ctx context.Context, id string) (*reviewTarget, error) {
	doc, err := s.repo.Document.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		s.logger.Error("查询文档失败", zap.String("document_id", id), zap.Error(err))
		return nil, err
	}
	return &reviewTarget{
		category:  doc.DocumentType.Category(),
		studentID: doc.StudentProfileID,
		document:  doc,
	}, nil
}

func (s *verificationService) loadAward(ctx context.Context, id string) (*reviewTarget, error) {
	award, err := s.repo.Award.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAwardNotFound
		}
		s.logger.Error("查询奖项失败", zap.String("award_id", id), zap.Error(err))
		return nil, err
	}
	return &reviewTarget{
		category:  model.CategoryAwards,
		studentID: award.StudentProfileID,
		award:     award,
	}, nil
}

// apply 审核状态转换：
//  1. 锁定学生档案行
//  2. 写入材料审核字段与审核日志
//  3. 在保存点内重算汇总状态；失败时只回滚重算，审核结果照常提交
//  4. 提交后向材料所属学生发出一条通知
func (s *verificationService) apply(ctx context.Context, target *reviewTarget, in DecisionInput) (*dto.DecisionResponse, error) {
	outcome, err := verification.Decide(target.category, in.Decision, in.Feedback)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
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

	profile, err := txRepo.StudentProfile.GetByIDForUpdate(ctx, target.studentID)
	if err != nil {
		rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("锁定学生档案失败", zap.String("student_profile_id", target.studentID), zap.Error(err))
		return nil, err
	}

	verifiedAt := s.now()
	reviewer := in.ReviewerID

	// ── 1. 写入材料 ──
	if target.document != nil {
		target.document.Status = outcome.Status
		target.document.Feedback = outcome.Feedback
		target.document.VerifiedBy = &reviewer
		target.document.VerifiedAt = &verifiedAt
		err = txRepo.Document.Update(ctx, target.document)
	} else {
		target.award.Status = outcome.Status
		target.award.Feedback = outcome.Feedback
		target.award.VerifiedBy = &reviewer
		target.award.VerifiedAt = &verifiedAt
		err = txRepo.Award.Update(ctx, target.award)
	}
	if err != nil {
		rollback()
		s.logger.Error("写入审核结果失败",
			zap.String("category", string(target.category)),
			zap.String("artifact_id", target.artifactID()),
			zap.Error(err))
		return nil, err
	}

	// ── 2. 审核日志 ──
	logEntry := &model.VerificationLog{
		StudentProfileID: target.studentID,
		ReviewerID:       reviewer,
		Category:         target.category,
		ArtifactID:       target.artifactID(),
		Decision:         string(in.Decision),
		ResultStatus:     outcome.Status,
		Feedback:         outcome.Feedback,
	}
	if err := txRepo.VerificationLog.Create(ctx, logEntry); err != nil {
		rollback()
		s.logger.Error("写入审核日志失败", zap.Error(err))
		return nil, err
	}

	// ── 3. 重算汇总状态 ──
	if tx != nil {
		if err := tx.SavePoint(recomputeSavepoint).Error; err != nil {
			rollback()
			s.logger.Error("创建保存点失败", zap.Error(err))
			return nil, err
		}
	}

	previous := verification.FromProfile(profile)
	aggregate, recomputeErr := recomputeAndSave(ctx, txRepo, profile)
	if recomputeErr != nil {
		if tx != nil {
			if err := tx.RollbackTo(recomputeSavepoint).Error; err != nil {
				rollback()
				s.logger.Error("回滚到保存点失败", zap.Error(err))
				return nil, err
			}
		}
		aggregate = previous
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	metrics.ReviewDecisionsTotal.WithLabelValues(string(target.category), string(in.Decision)).Inc()

	// ── 4. 通知 ──
	// 响应先于投递构建；交给 Sink 的是副本，投递协程可以自由写入
	n := s.buildNotification(profile, target, outcome)
	resp := &dto.DecisionResponse{
		Category:     string(target.category),
		Document:     toDocumentResponse(target.document),
		Award:        toAwardResponse(target.award),
		Aggregate:    toAggregateResponse(target.studentID, aggregate),
		Notification: toNotificationResponse(n),
	}
	queued := *n
	s.sink.Send(ctx, &queued)

	s.logger.Info("审核决定已保存",
		zap.String("category", string(target.category)),
		zap.String("artifact_id", target.artifactID()),
		zap.String("decision", string(in.Decision)),
		zap.String("reviewer_id", reviewer),
		zap.String("overall_status", string(aggregate.Overall)))

	if recomputeErr != nil {
		metrics.AggregateRecomputeFailuresTotal.Inc()
		s.logger.Error("汇总状态重算失败，审核结果已保存",
			zap.String("student_profile_id", target.studentID),
			zap.Error(recomputeErr))
		return resp, &verification.RecomputeError{StudentProfileID: target.studentID, Err: recomputeErr}
	}
	return resp, nil
}

func (s *verificationService) buildNotification(profile *model.StudentProfile, target *reviewTarget, o verification.Outcome) *model.Notification {
	msg := verification.BuildNotification(target.category, target.artifactName(), o)
	relatedType := "document"
	if target.award != nil {
		relatedType = "award"
	}
	relatedID := target.artifactID()
	// ID 预先生成，响应中的 notification.id 与异步写入的行一致
	return &model.Notification{
		NotificationID: uuid.NewString(),
		UserID:         profile.UserID,
		Type:           verification.NotificationType(target.category),
		Title:          msg.Title,
		Message:        msg.Body,
		RelatedType:    &relatedType,
		RelatedID:      &relatedID,
		CreatedAt:      s.now(),
	}
}

// ────────────────────── RecomputeAggregate ──────────────────────

func (s *verificationService) RecomputeAggregate(ctx context.Context, studentProfileID string) (*dto.AggregateResponse, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	profile, err := txRepo.StudentProfile.GetByIDForUpdate(ctx, studentProfileID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	statuses, err := recomputeAndSave(ctx, txRepo, profile)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		metrics.AggregateRecomputeFailuresTotal.Inc()
		s.logger.Error("重算汇总状态失败", zap.String("student_profile_id", studentProfileID), zap.Error(err))
		return nil, &verification.RecomputeError{StudentProfileID: studentProfileID, Err: err}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	resp := toAggregateResponse(studentProfileID, statuses)
	return &resp, nil
}

// ────────────────────── 审核队列 ──────────────────────

func (s *verificationService) ListPendingDocuments(ctx context.Context, req *dto.ReviewListRequest) ([]dto.ReviewDocumentItem, int64, error) {
	filter := reviewFilterFrom(req)
	filter.DocumentType = model.DocumentType(req.Type)
	filter.LatestOnly = true

	docs, total, err := s.repo.Document.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询待审文档失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.ReviewDocumentItem, 0, len(docs))
	for i := range docs {
		items = append(items, dto.ReviewDocumentItem{
			DocumentResponse: *toDocumentResponse(&docs[i]),
			Student:          toStudentBrief(docs[i].StudentProfile),
		})
	}
	return items, total, nil
}

func (s *verificationService) ListPendingAwards(ctx context.Context, req *dto.ReviewListRequest) ([]dto.ReviewAwardItem, int64, error) {
	awards, total, err := s.repo.Award.List(ctx, reviewFilterFrom(req))
	if err != nil {
		s.logger.Error("查询待审奖项失败", zap.Error(err))
		return nil, 0, err
	}

	items := make([]dto.ReviewAwardItem, 0, len(awards))
	for i := range awards {
		items = append(items, dto.ReviewAwardItem{
			AwardResponse: *toAwardResponse(&awards[i]),
			Student:       toStudentBrief(awards[i].StudentProfile),
		})
	}
	return items, total, nil
}

// reviewFilterFrom 未指定状态时默认只看 pending
func reviewFilterFrom(req *dto.ReviewListRequest) repository.ReviewFilter {
	status := model.VerificationStatus(req.Status)
	if status == "" {
		status = model.StatusPending
	}
	return repository.ReviewFilter{
		Status:     status,
		Department: req.Department,
		Offset:     req.GetOffset(),
		Limit:      req.GetPageSize(),
	}
}

// ────────────────────── ListLogs ──────────────────────

func (s *verificationService) ListLogs(ctx context.Context, studentProfileID string) ([]dto.VerificationLogResponse, error) {
	if _, err := s.repo.StudentProfile.GetByID(ctx, studentProfileID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}

	logs, err := s.repo.VerificationLog.ListByStudent(ctx, studentProfileID)
	if err != nil {
		s.logger.Error("查询审核日志失败", zap.String("student_profile_id", studentProfileID), zap.Error(err))
		return nil, err
	}

	result := make([]dto.VerificationLogResponse, 0, len(logs))
	for i := range logs {
		result = append(result, toLogResponse(&logs[i]))
	}
	return result, nil
}
