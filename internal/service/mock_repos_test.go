package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/severusraj/gradverify-mono/config"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/internal/repository"
	pkgerrors "github.com/severusraj/gradverify-mono/pkg/errors"
	"github.com/severusraj/gradverify-mono/pkg/jwt"
)

// ── 测试时钟：保证创建顺序可区分 ──

var (
	clockMu sync.Mutex
	clock   = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
)

func tick() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	clock = clock.Add(time.Second)
	return clock
}

// ── mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = uuid.New().String()
	}
	user.CreatedAt = tick()
	c := *user
	m.users[user.UserID] = &c
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.UserID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *user
	m.users[user.UserID] = &c
	return nil
}

func (m *mockUserRepo) ExistingEmails(_ context.Context, emails []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for _, e := range emails {
		for _, u := range m.users {
			if strings.EqualFold(u.Email, e) {
				found[strings.ToLower(e)] = struct{}{}
			}
		}
	}
	return found, nil
}

func (m *mockUserRepo) List(_ context.Context, f repository.UserFilter) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Department != "" && (u.Department == nil || *u.Department != f.Department) {
			continue
		}
		if f.Keyword != "" {
			kw := strings.ToLower(f.Keyword)
			if !strings.Contains(strings.ToLower(u.Name), kw) && !strings.Contains(strings.ToLower(u.Email), kw) {
				continue
			}
		}
		result = append(result, *u)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return paginate(result, f.Offset, f.Limit), int64(len(result)), nil
}

// ── mock StudentProfileRepository ──

type mockProfileRepo struct {
	profiles map[string]*model.StudentProfile
	users    *mockUserRepo
	// statusErr 非空时 UpdateStatuses 失败，用于模拟重算写入失败
	statusErr error
}

func newMockProfileRepo(users *mockUserRepo) *mockProfileRepo {
	return &mockProfileRepo{profiles: make(map[string]*model.StudentProfile), users: users}
}

func (m *mockProfileRepo) copyOf(p *model.StudentProfile) *model.StudentProfile {
	c := *p
	if u, ok := m.users.users[p.UserID]; ok {
		uc := *u
		c.User = &uc
	}
	return &c
}

func (m *mockProfileRepo) Create(_ context.Context, p *model.StudentProfile) error {
	if p.StudentProfileID == "" {
		p.StudentProfileID = uuid.New().String()
	}
	p.Version = 1
	p.CreatedAt = tick()
	p.UpdatedAt = p.CreatedAt
	c := *p
	c.User = nil
	m.profiles[p.StudentProfileID] = &c
	return nil
}

func (m *mockProfileRepo) GetByID(_ context.Context, id string) (*model.StudentProfile, error) {
	if p, ok := m.profiles[id]; ok {
		return m.copyOf(p), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) GetByUserID(_ context.Context, userID string) (*model.StudentProfile, error) {
	for _, p := range m.profiles {
		if p.UserID == userID {
			return m.copyOf(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) GetByStudentNumber(_ context.Context, studentNumber string) (*model.StudentProfile, error) {
	for _, p := range m.profiles {
		if p.StudentNumber == studentNumber {
			return m.copyOf(p), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfileRepo) GetByIDForUpdate(ctx context.Context, id string) (*model.StudentProfile, error) {
	return m.GetByID(ctx, id)
}

func (m *mockProfileRepo) Update(_ context.Context, p *model.StudentProfile) error {
	stored, ok := m.profiles[p.StudentProfileID]
	if !ok || stored.Version != p.Version {
		return pkgerrors.ErrOptimisticLock
	}
	p.Version++
	c := *p
	c.User = nil
	// 基本信息更新不覆盖汇总状态缓存
	c.PSAStatus, c.PhotoStatus, c.AwardsStatus, c.OverallStatus =
		stored.PSAStatus, stored.PhotoStatus, stored.AwardsStatus, stored.OverallStatus
	m.profiles[p.StudentProfileID] = &c
	return nil
}

func (m *mockProfileRepo) UpdateStatuses(_ context.Context, p *model.StudentProfile) error {
	if m.statusErr != nil {
		return m.statusErr
	}
	stored, ok := m.profiles[p.StudentProfileID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.PSAStatus = p.PSAStatus
	stored.PhotoStatus = p.PhotoStatus
	stored.AwardsStatus = p.AwardsStatus
	stored.OverallStatus = p.OverallStatus
	return nil
}

func (m *mockProfileRepo) List(_ context.Context, f repository.ProfileFilter) ([]model.StudentProfile, int64, error) {
	var result []model.StudentProfile
	for _, p := range m.profiles {
		if f.Department != "" && p.Department != f.Department {
			continue
		}
		if f.OverallStatus != "" && p.OverallStatus != f.OverallStatus {
			continue
		}
		if f.Keyword != "" && !strings.Contains(p.StudentNumber, f.Keyword) {
			continue
		}
		result = append(result, *m.copyOf(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return paginate(result, f.Offset, f.Limit), int64(len(result)), nil
}

func (m *mockProfileRepo) ListRecent(_ context.Context, limit int) ([]model.StudentProfile, error) {
	var result []model.StudentProfile
	for _, p := range m.profiles {
		result = append(result, *m.copyOf(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return paginate(result, 0, limit), nil
}

func (m *mockProfileRepo) CountByOverallStatus(_ context.Context) (map[model.VerificationStatus]int64, error) {
	counts := make(map[model.VerificationStatus]int64)
	for _, p := range m.profiles {
		counts[p.OverallStatus.OrPending()]++
	}
	return counts, nil
}

func (m *mockProfileRepo) DepartmentProgress(_ context.Context) ([]repository.DepartmentProgressRow, error) {
	byDept := make(map[string]*repository.DepartmentProgressRow)
	for _, p := range m.profiles {
		row, ok := byDept[p.Department]
		if !ok {
			row = &repository.DepartmentProgressRow{Department: p.Department}
			byDept[p.Department] = row
		}
		row.Total++
		switch p.OverallStatus.OrPending() {
		case model.StatusApproved:
			row.Approved++
		case model.StatusRejected:
			row.Rejected++
		default:
			row.Pending++
		}
	}
	var result []repository.DepartmentProgressRow
	for _, row := range byDept {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Department < result[j].Department })
	return result, nil
}

// ── mock DocumentRepository ──

type mockDocumentRepo struct {
	docs     map[string]*model.Document
	profiles *mockProfileRepo
	// updateErr 非空时 Update 失败
	updateErr error
}

func newMockDocumentRepo(profiles *mockProfileRepo) *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]*model.Document), profiles: profiles}
}

func (m *mockDocumentRepo) Create(_ context.Context, doc *model.Document) error {
	if doc.DocumentID == "" {
		doc.DocumentID = uuid.New().String()
	}
	doc.CreatedAt = tick()
	doc.UpdatedAt = doc.CreatedAt
	c := *doc
	m.docs[doc.DocumentID] = &c
	return nil
}

func (m *mockDocumentRepo) GetByID(_ context.Context, id string) (*model.Document, error) {
	if d, ok := m.docs[id]; ok {
		c := *d
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDocumentRepo) Update(_ context.Context, doc *model.Document) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.docs[doc.DocumentID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *doc
	c.StudentProfile = nil
	m.docs[doc.DocumentID] = &c
	return nil
}

func (m *mockDocumentRepo) GetLatestByStudentAndType(_ context.Context, studentProfileID string, t model.DocumentType) (*model.Document, error) {
	var latest *model.Document
	for _, d := range m.docs {
		if d.StudentProfileID != studentProfileID || d.DocumentType != t {
			continue
		}
		if latest == nil || d.CreatedAt.After(latest.CreatedAt) ||
			(d.CreatedAt.Equal(latest.CreatedAt) && d.DocumentID > latest.DocumentID) {
			latest = d
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	c := *latest
	return &c, nil
}

func (m *mockDocumentRepo) ListByStudent(_ context.Context, studentProfileID string) ([]model.Document, error) {
	var result []model.Document
	for _, d := range m.docs {
		if d.StudentProfileID == studentProfileID {
			result = append(result, *d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *mockDocumentRepo) List(ctx context.Context, f repository.ReviewFilter) ([]model.Document, int64, error) {
	var result []model.Document
	for _, d := range m.docs {
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.DocumentType != "" && d.DocumentType != f.DocumentType {
			continue
		}
		if f.LatestOnly {
			latest, _ := m.GetLatestByStudentAndType(ctx, d.StudentProfileID, d.DocumentType)
			if latest == nil || latest.DocumentID != d.DocumentID {
				continue
			}
		}
		p, ok := m.profiles.profiles[d.StudentProfileID]
		if f.Department != "" && (!ok || p.Department != f.Department) {
			continue
		}
		c := *d
		if ok {
			c.StudentProfile = m.profiles.copyOf(p)
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return paginate(result, f.Offset, f.Limit), int64(len(result)), nil
}

// ── mock AwardRepository ──

type mockAwardRepo struct {
	awards   map[string]*model.Award
	profiles *mockProfileRepo
}

func newMockAwardRepo(profiles *mockProfileRepo) *mockAwardRepo {
	return &mockAwardRepo{awards: make(map[string]*model.Award), profiles: profiles}
}

func (m *mockAwardRepo) Create(_ context.Context, award *model.Award) error {
	if award.AwardID == "" {
		award.AwardID = uuid.New().String()
	}
	award.CreatedAt = tick()
	award.UpdatedAt = award.CreatedAt
	c := *award
	m.awards[award.AwardID] = &c
	return nil
}

func (m *mockAwardRepo) GetByID(_ context.Context, id string) (*model.Award, error) {
	if a, ok := m.awards[id]; ok {
		c := *a
		return &c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAwardRepo) Update(_ context.Context, award *model.Award) error {
	if _, ok := m.awards[award.AwardID]; !ok {
		return gorm.ErrRecordNotFound
	}
	c := *award
	c.StudentProfile = nil
	m.awards[award.AwardID] = &c
	return nil
}

func (m *mockAwardRepo) ListByStudent(_ context.Context, studentProfileID string) ([]model.Award, error) {
	var result []model.Award
	for _, a := range m.awards {
		if a.StudentProfileID == studentProfileID {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *mockAwardRepo) List(_ context.Context, f repository.ReviewFilter) ([]model.Award, int64, error) {
	var result []model.Award
	for _, a := range m.awards {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		p, ok := m.profiles.profiles[a.StudentProfileID]
		if f.Department != "" && (!ok || p.Department != f.Department) {
			continue
		}
		c := *a
		if ok {
			c.StudentProfile = m.profiles.copyOf(p)
		}
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return paginate(result, f.Offset, f.Limit), int64(len(result)), nil
}

// ── mock VerificationLogRepository ──

type mockLogRepo struct {
	logs []model.VerificationLog
}

func (m *mockLogRepo) Create(_ context.Context, log *model.VerificationLog) error {
	if log.LogID == "" {
		log.LogID = uuid.New().String()
	}
	log.CreatedAt = tick()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockLogRepo) ListByStudent(_ context.Context, studentProfileID string) ([]model.VerificationLog, error) {
	var result []model.VerificationLog
	for _, l := range m.logs {
		if l.StudentProfileID == studentProfileID {
			result = append(result, l)
		}
	}
	return result, nil
}

// ── mock NotificationRepository ──

// mockNotificationRepo 可能被 Dispatcher 协程并发写入
type mockNotificationRepo struct {
	mu    sync.Mutex
	items []*model.Notification
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n.NotificationID == "" {
		n.NotificationID = uuid.New().String()
	}
	c := *n
	m.items = append(m.items, &c)
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Notification
	for _, n := range m.items {
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		result = append(result, *n)
	}
	return paginate(result, offset, limit), int64(len(result)), nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.NotificationID == id && item.UserID == userID {
			now := time.Now()
			item.IsRead = true
			item.ReadAt = &now
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			item.IsRead = true
			item.ReadAt = &now
			n++
		}
	}
	return n, nil
}

// ── fake Sink / TokenBlacklist ──

// fakeSink 同步记录收到的通知
type fakeSink struct {
	sent []*model.Notification
}

func (f *fakeSink) Send(_ context.Context, n *model.Notification) {
	f.sent = append(f.sent, n)
}

type fakeBlacklist struct {
	revoked map[string]time.Duration
}

func newFakeBlacklist() *fakeBlacklist {
	return &fakeBlacklist{revoked: make(map[string]time.Duration)}
}

func (f *fakeBlacklist) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	f.revoked[jti] = ttl
	return nil
}

func (f *fakeBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	_, ok := f.revoked[jti]
	return ok, nil
}

// ── 通用辅助 ──

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// testEnv 组装好的 mock 仓储与服务
type testEnv struct {
	users         *mockUserRepo
	profiles      *mockProfileRepo
	docs          *mockDocumentRepo
	awards        *mockAwardRepo
	logs          *mockLogRepo
	notifications *mockNotificationRepo
	sink          *fakeSink
	repo          *repository.Repository

	submission   SubmissionService
	verification VerificationService
}

func newTestEnv() *testEnv {
	users := newMockUserRepo()
	profiles := newMockProfileRepo(users)
	env := &testEnv{
		users:         users,
		profiles:      profiles,
		docs:          newMockDocumentRepo(profiles),
		awards:        newMockAwardRepo(profiles),
		logs:          &mockLogRepo{},
		notifications: &mockNotificationRepo{},
		sink:          &fakeSink{},
	}
	env.repo = &repository.Repository{
		User:            env.users,
		StudentProfile:  env.profiles,
		Document:        env.docs,
		Award:           env.awards,
		VerificationLog: env.logs,
		Notification:    env.notifications,
	}
	logger := zap.NewNop()
	env.submission = NewSubmissionService(env.repo, logger)
	env.verification = NewVerificationService(env.repo, env.sink, logger)
	return env
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "test-secret-key-for-unit-tests",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
}
