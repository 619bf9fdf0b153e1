package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/severusraj/gradverify-mono/internal/dto"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/notify"
	"github.com/severusraj/gradverify-mono/internal/verification"
	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
)

const testReviewer = "reviewer-1"

// seedStudent 创建学生账号与完整档案，返回 (userID, studentProfileID)
func seedStudent(t *testing.T, env *testEnv, number string) (string, string) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{Name: "Juan Dela Cruz", Email: number + "@school.edu", Role: model.RoleStudent}
	if err := env.users.Create(ctx, user); err != nil {
		t.Fatalf("创建用户应成功: %v", err)
	}
	profile, err := env.submission.CreateProfile(ctx, user.UserID, &dto.ProfileRequest{
		StudentNumber: number,
		Program:       "BS Computer Science",
		Department:    "CCS",
		DateOfBirth:   "2002-05-17",
		PlaceOfBirth:  "Manila",
		Sex:           "male",
	})
	if err != nil {
		t.Fatalf("创建档案应成功: %v", err)
	}
	return user.UserID, profile.ID
}

func upload(t *testing.T, env *testEnv, userID string, docType model.DocumentType) *dto.DocumentResponse {
	t.Helper()
	mime := "image/jpeg"
	if docType == model.DocumentPSA {
		mime = "application/pdf"
	}
	doc, err := env.submission.UploadDocument(context.Background(), userID, &dto.UploadDocumentRequest{
		DocumentType: string(docType),
		FileName:     string(docType) + ".file",
		FilePath:     "uploads/" + string(docType),
		FileSize:     2048,
		MimeType:     mime,
	})
	if err != nil {
		t.Fatalf("上传 %s 应成功: %v", docType, err)
	}
	return doc
}

func approve() DecisionInput {
	return DecisionInput{Decision: verification.DecisionApprove, ReviewerID: testReviewer}
}

func reject(feedback string) DecisionInput {
	in := DecisionInput{Decision: verification.DecisionReject, ReviewerID: testReviewer}
	if feedback != "" {
		in.Feedback = &feedback
	}
	return in
}

func assertOverall(t *testing.T, env *testEnv, profileID string, want model.VerificationStatus) {
	t.Helper()
	p := env.profiles.profiles[profileID]
	if p.OverallStatus != want {
		t.Errorf("期望 overall=%s，实际: %s (psa=%s photo=%s awards=%s)",
			want, p.OverallStatus, p.PSAStatus, p.PhotoStatus, p.AwardsStatus)
	}
}

// ────────────────────── 端到端流程 ──────────────────────

func TestVerificationFlow_EndToEnd(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, profileID := seedStudent(t, env, "2020-00001")

	// 新档案：无奖项视为通过，整体待审
	assertOverall(t, env, profileID, model.StatusPending)

	// 1. PSA 未通过前不能上传照片
	psa := upload(t, env, userID, model.DocumentPSA)
	_, err := env.submission.UploadDocument(ctx, userID, &dto.UploadDocumentRequest{
		DocumentType: "photo", FileName: "p.jpg", FilePath: "x", FileSize: 10, MimeType: "image/jpeg",
	})
	if !errors.Is(err, pkgerrors.ErrStepLocked) {
		t.Fatalf("PSA 未通过时上传照片应返回 StepLocked，实际: %v", err)
	}

	// 2. 通过 PSA
	res, err := env.verification.ReviewDocument(ctx, psa.ID, approve())
	if err != nil {
		t.Fatalf("审核 PSA 应成功: %v", err)
	}
	if res.Aggregate.PSAStatus != "approved" || res.Aggregate.OverallStatus != "pending" {
		t.Errorf("PSA 通过后汇总不正确: %+v", res.Aggregate)
	}

	// 3. 照片驳回（无意见）→ 使用默认意见，整体驳回
	photo := upload(t, env, userID, model.DocumentPhoto)
	res, err = env.verification.ReviewDocument(ctx, photo.ID, reject(""))
	if err != nil {
		t.Fatalf("驳回照片应成功: %v", err)
	}
	wantFb := verification.DefaultRejectFeedback(model.CategoryPhoto)
	if res.Document.Feedback == nil || *res.Document.Feedback != wantFb {
		t.Errorf("期望默认驳回意见，实际: %v", res.Document.Feedback)
	}
	assertOverall(t, env, profileID, model.StatusRejected)

	// 4. 重新上传照片：最新文档生效，驳回状态被新的待审覆盖
	photo2 := upload(t, env, userID, model.DocumentPhoto)
	assertOverall(t, env, profileID, model.StatusPending)
	if env.profiles.profiles[profileID].PhotoStatus != model.StatusPending {
		t.Errorf("重新上传后照片应为 pending")
	}

	// 5. 通过照片：无奖项 → 整体通过
	if _, err := env.verification.ReviewDocument(ctx, photo2.ID, approve()); err != nil {
		t.Fatalf("审核照片应成功: %v", err)
	}
	assertOverall(t, env, profileID, model.StatusApproved)

	// 6. 申报奖项 → 奖项待审，整体回到待审
	award, err := env.submission.SubmitAward(ctx, userID, &dto.SubmitAwardRequest{
		Name: "Cum Laude", AwardType: "latin_honor",
	})
	if err != nil {
		t.Fatalf("照片通过后申报奖项应成功: %v", err)
	}
	assertOverall(t, env, profileID, model.StatusPending)

	// 7. 通过奖项
	res, err = env.verification.ReviewAward(ctx, award.ID, approve())
	if err != nil {
		t.Fatalf("审核奖项应成功: %v", err)
	}
	if res.Award == nil || res.Award.Status != "approved" {
		t.Errorf("奖项应为 approved: %+v", res.Award)
	}
	assertOverall(t, env, profileID, model.StatusApproved)

	status, err := env.submission.GetStatus(ctx, userID)
	if err != nil {
		t.Fatalf("GetStatus 应成功: %v", err)
	}
	if status.ActiveStep != string(verification.StepComplete) || status.Progress != 100 {
		t.Errorf("期望 complete/100，实际: %s/%d", status.ActiveStep, status.Progress)
	}

	// 四次审核，四条通知，四条日志
	if len(env.sink.sent) != 4 {
		t.Errorf("期望 4 条通知，实际: %d", len(env.sink.sent))
	}
	if len(env.logs.logs) != 4 {
		t.Errorf("期望 4 条审核日志，实际: %d", len(env.logs.logs))
	}
}

// ────────────────────── 通知 ──────────────────────

func TestReview_SendsExactlyOneNotification(t *testing.T) {
	env := newTestEnv()
	userID, _ := seedStudent(t, env, "2020-00002")
	psa := upload(t, env, userID, model.DocumentPSA)

	fb := "  blurry scan  "
	res, err := env.verification.ReviewDocument(context.Background(), psa.ID,
		DecisionInput{Decision: verification.DecisionReject, Feedback: &fb, ReviewerID: testReviewer})
	if err != nil {
		t.Fatalf("驳回应成功: %v", err)
	}

	if len(env.sink.sent) != 1 {
		t.Fatalf("期望恰好 1 条通知，实际: %d", len(env.sink.sent))
	}
	n := env.sink.sent[0]
	if n.UserID != userID {
		t.Errorf("通知应发给学生本人，实际: %s", n.UserID)
	}
	if n.Title != "PSA birth certificate rejected" {
		t.Errorf("标题不正确: %s", n.Title)
	}
	if n.Message != "Your PSA birth certificate has been rejected: blurry scan" {
		t.Errorf("正文不正确: %s", n.Message)
	}
	if n.Type != model.NotificationDocumentReviewed || n.RelatedID == nil || *n.RelatedID != psa.ID {
		t.Errorf("通知关联不正确: %+v", n)
	}
	if res.Notification.Title != n.Title {
		t.Errorf("响应中的通知应与发出的一致")
	}
}

// 通过真实 Dispatcher 投递：响应中的通知 ID 需与落库行一致，且不与投递协程共享内存（配合 -race）
func TestReview_NotificationThroughDispatcher(t *testing.T) {
	env := newTestEnv()
	userID, _ := seedStudent(t, env, "2020-00010")
	psa := upload(t, env, userID, model.DocumentPSA)

	d := notify.NewDispatcher(env.notifications, 16, zap.NewNop())
	svc := NewVerificationService(env.repo, d, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	const rounds = 8
	ids := make([]string, 0, rounds)
	for i := 0; i < rounds; i++ {
		in := approve()
		if i%2 == 1 {
			in = reject("retake")
		}
		res, err := svc.ReviewDocument(context.Background(), psa.ID, in)
		if err != nil {
			t.Fatalf("第 %d 次审核应成功: %v", i, err)
		}
		if res.Notification.ID == "" {
			t.Fatalf("第 %d 次响应中的通知 ID 不应为空", i)
		}
		ids = append(ids, res.Notification.ID)
	}

	cancel()
	<-done

	env.notifications.mu.Lock()
	defer env.notifications.mu.Unlock()
	if len(env.notifications.items) != rounds {
		t.Fatalf("期望落库 %d 条通知，实际: %d", rounds, len(env.notifications.items))
	}
	for i, n := range env.notifications.items {
		if n.NotificationID != ids[i] {
			t.Errorf("第 %d 条通知 ID 不一致: 响应 %s, 落库 %s", i, ids[i], n.NotificationID)
		}
	}
}

func TestReviewAward_NotificationNamesAward(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, _ := seedStudent(t, env, "2020-00003")
	psa := upload(t, env, userID, model.DocumentPSA)
	_, _ = env.verification.ReviewDocument(ctx, psa.ID, approve())
	photo := upload(t, env, userID, model.DocumentPhoto)
	_, _ = env.verification.ReviewDocument(ctx, photo.ID, approve())

	award, err := env.submission.SubmitAward(ctx, userID, &dto.SubmitAwardRequest{Name: "Dean's Lister", AwardType: "academic_achievement"})
	if err != nil {
		t.Fatalf("申报奖项应成功: %v", err)
	}
	env.sink.sent = nil

	if _, err := env.verification.ReviewAward(ctx, award.ID, reject("")); err != nil {
		t.Fatalf("驳回奖项应成功: %v", err)
	}
	n := env.sink.sent[0]
	if !strings.Contains(n.Message, `award "Dean's Lister" has been rejected`) {
		t.Errorf("正文应包含奖项名称，实际: %s", n.Message)
	}
	if n.Type != model.NotificationAwardReviewed {
		t.Errorf("期望 award_reviewed，实际: %s", n.Type)
	}
}

// ────────────────────── 重算失败 ──────────────────────

func TestReview_RecomputeFailureKeepsDecision(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, profileID := seedStudent(t, env, "2020-00004")
	psa := upload(t, env, userID, model.DocumentPSA)

	env.profiles.statusErr = errors.New("connection reset")
	res, err := env.verification.ReviewDocument(ctx, psa.ID, approve())

	if !errors.Is(err, pkgerrors.ErrAggregateRecomputeFailed) {
		t.Fatalf("期望 ErrAggregateRecomputeFailed，实际: %v", err)
	}
	re, ok := verification.AsRecomputeError(err)
	if !ok || re.StudentProfileID != profileID {
		t.Errorf("错误应携带学生档案 ID，实际: %+v", re)
	}
	if res == nil || res.Document.Status != "approved" {
		t.Fatalf("审核结果应已保存并返回: %+v", res)
	}
	if env.docs.docs[psa.ID].Status != model.StatusApproved {
		t.Errorf("文档状态应已持久化为 approved")
	}
	if env.profiles.profiles[profileID].PSAStatus != model.StatusPending {
		t.Errorf("汇总缓存应保持旧值")
	}
	if res.Aggregate.PSAStatus != "pending" {
		t.Errorf("响应应返回旧汇总，实际: %+v", res.Aggregate)
	}
	if len(env.sink.sent) != 1 {
		t.Errorf("重算失败时仍应发出 1 条通知，实际: %d", len(env.sink.sent))
	}

	// 修复后重算即可追平
	env.profiles.statusErr = nil
	agg, err := env.verification.RecomputeAggregate(ctx, profileID)
	if err != nil {
		t.Fatalf("RecomputeAggregate 应成功: %v", err)
	}
	if agg.PSAStatus != "approved" || env.profiles.profiles[profileID].PSAStatus != model.StatusApproved {
		t.Errorf("重算后 PSA 应为 approved: %+v", agg)
	}
}

func TestRecomputeAggregate_Idempotent(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	_, profileID := seedStudent(t, env, "2020-00005")

	first, err := env.verification.RecomputeAggregate(ctx, profileID)
	if err != nil {
		t.Fatalf("RecomputeAggregate 应成功: %v", err)
	}
	second, _ := env.verification.RecomputeAggregate(ctx, profileID)
	if *first != *second {
		t.Errorf("重复重算结果应一致: %+v vs %+v", first, second)
	}
	if first.AwardsStatus != "approved" || first.OverallStatus != "pending" {
		t.Errorf("无材料时汇总不正确: %+v", first)
	}

	if _, err := env.verification.RecomputeAggregate(ctx, "missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}

func TestRecomputeAggregate_FailureWrapped(t *testing.T) {
	env := newTestEnv()
	_, profileID := seedStudent(t, env, "2020-00006")
	env.profiles.statusErr = errors.New("disk full")

	_, err := env.verification.RecomputeAggregate(context.Background(), profileID)
	if !errors.Is(err, pkgerrors.ErrAggregateRecomputeFailed) {
		t.Errorf("期望 ErrAggregateRecomputeFailed，实际: %v", err)
	}
}

// ────────────────────── 参数校验 ──────────────────────

func TestReview_ValidationOrder(t *testing.T) {
	env := newTestEnv()
	userID, _ := seedStudent(t, env, "2020-00007")
	psa := upload(t, env, userID, model.DocumentPSA)
	ctx := context.Background()

	tests := []struct {
		name    string
		docID   string
		in      DecisionInput
		wantErr error
	}{
		{"缺少审核人优先", "missing", DecisionInput{Decision: "maybe"}, ErrReviewerRequired},
		{"非法决定", "missing", DecisionInput{Decision: "maybe", ReviewerID: testReviewer}, verification.ErrInvalidDecision},
		{"文档不存在", "missing", approve(), ErrDocumentNotFound},
		{"合法", psa.ID, approve(), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.verification.ReviewDocument(ctx, tt.docID, tt.in)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("期望成功，实际: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("期望 %v，实际: %v", tt.wantErr, err)
			}
		})
	}

	_, err := env.verification.ReviewDocument(ctx, "missing", DecisionInput{Decision: "maybe", ReviewerID: testReviewer})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("非法决定应归类为 InvalidArgument")
	}
	if len(env.sink.sent) != 1 {
		t.Errorf("校验失败不应发出通知，实际通知数: %d", len(env.sink.sent))
	}
}

func TestReview_StudentProfileMissing(t *testing.T) {
	env := newTestEnv()
	orphan := &model.Document{StudentProfileID: "gone", DocumentType: model.DocumentPSA, Status: model.StatusPending}
	_ = env.docs.Create(context.Background(), orphan)

	_, err := env.verification.ReviewDocument(context.Background(), orphan.DocumentID, approve())
	if !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
	if env.docs.docs[orphan.DocumentID].Status != model.StatusPending {
		t.Errorf("档案缺失时不应写入审核结果")
	}
}

func TestReview_ArtifactWriteFailure(t *testing.T) {
	env := newTestEnv()
	userID, _ := seedStudent(t, env, "2020-00008")
	psa := upload(t, env, userID, model.DocumentPSA)
	env.docs.updateErr = errors.New("write failed")

	if _, err := env.verification.ReviewDocument(context.Background(), psa.ID, approve()); err == nil {
		t.Fatal("写入失败应返回错误")
	}
	if len(env.sink.sent) != 0 || len(env.logs.logs) != 0 {
		t.Errorf("写入失败时不应发通知或写日志")
	}
}

func TestApplyDecision_Dispatch(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, _ := seedStudent(t, env, "2020-00009")
	psa := upload(t, env, userID, model.DocumentPSA)

	if _, err := env.verification.ApplyDecision(ctx, ArtifactRef{Category: model.CategoryPhoto, ID: psa.ID}, approve()); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("类别不匹配应视为文档不存在，实际: %v", err)
	}
	if _, err := env.verification.ApplyDecision(ctx, ArtifactRef{Category: model.CategoryAwards, ID: psa.ID}, approve()); !errors.Is(err, ErrAwardNotFound) {
		t.Errorf("期望 ErrAwardNotFound，实际: %v", err)
	}
	if _, err := env.verification.ApplyDecision(ctx, ArtifactRef{Category: "diploma", ID: psa.ID}, approve()); !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("期望 ErrInvalidCategory，实际: %v", err)
	}
	res, err := env.verification.ApplyDecision(ctx, ArtifactRef{Category: model.CategoryPSA, ID: psa.ID}, approve())
	if err != nil || res.Category != "psa" {
		t.Errorf("按类别分派应成功: %v", err)
	}
}

func TestReview_ReReviewAllowed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, profileID := seedStudent(t, env, "2020-00010")
	psa := upload(t, env, userID, model.DocumentPSA)

	_, _ = env.verification.ReviewDocument(ctx, psa.ID, approve())
	res, err := env.verification.ReviewDocument(ctx, psa.ID, reject("wrong name"))
	if err != nil {
		t.Fatalf("已通过的文档应允许重新审核: %v", err)
	}
	if res.Document.Status != "rejected" {
		t.Errorf("期望 rejected，实际: %s", res.Document.Status)
	}
	assertOverall(t, env, profileID, model.StatusRejected)

	// 通过时意见为空白则清空
	blank := "   "
	res, _ = env.verification.ReviewDocument(ctx, psa.ID, DecisionInput{Decision: verification.DecisionApprove, Feedback: &blank, ReviewerID: testReviewer})
	if res.Document.Feedback != nil {
		t.Errorf("空白意见应清空，实际: %v", *res.Document.Feedback)
	}
	if *res.Document.VerifiedBy != testReviewer || res.Document.VerifiedAt == nil {
		t.Errorf("应记录审核人和审核时间")
	}
}

// ────────────────────── 审核队列与日志 ──────────────────────

func TestListPendingDocuments_LatestOnly(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, _ := seedStudent(t, env, "2020-00011")

	// 旧 PSA 未审核即被新 PSA 替代（门禁允许重复上传 PSA）
	old := upload(t, env, userID, model.DocumentPSA)
	latest := upload(t, env, userID, model.DocumentPSA)

	items, total, err := env.verification.ListPendingDocuments(ctx, &dto.ReviewListRequest{})
	if err != nil {
		t.Fatalf("ListPendingDocuments 应成功: %v", err)
	}
	if total != 1 || items[0].ID != latest.ID {
		t.Errorf("只应返回最新文档 %s，实际: total=%d %+v (旧文档 %s)", latest.ID, total, items, old.ID)
	}
	if items[0].Student == nil || items[0].Student.StudentNumber != "2020-00011" {
		t.Errorf("应带学生摘要: %+v", items[0].Student)
	}

	items, _, _ = env.verification.ListPendingDocuments(ctx, &dto.ReviewListRequest{Department: "CBA"})
	if len(items) != 0 {
		t.Errorf("学院过滤无效")
	}
}

func TestListLogs(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	userID, profileID := seedStudent(t, env, "2020-00012")
	psa := upload(t, env, userID, model.DocumentPSA)
	_, _ = env.verification.ReviewDocument(ctx, psa.ID, reject(""))

	logs, err := env.verification.ListLogs(ctx, profileID)
	if err != nil {
		t.Fatalf("ListLogs 应成功: %v", err)
	}
	if len(logs) != 1 || logs[0].Decision != "reject" || logs[0].ResultStatus != "rejected" || logs[0].ArtifactID != psa.ID {
		t.Errorf("日志内容不正确: %+v", logs)
	}

	if _, err := env.verification.ListLogs(ctx, "missing"); !errors.Is(err, ErrStudentNotFound) {
		t.Errorf("期望 ErrStudentNotFound，实际: %v", err)
	}
}
