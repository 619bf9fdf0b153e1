package service

import (
	"go.uber.org/zap"

	"github.com/severusraj/gradverify-mono/config"
	"github.com/severusraj/gradverify-mono/internal/notify"
	"github.com/severusraj/gradverify-mono/internal/repository"
	"github.com/severusraj/gradverify-mono/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Submission   SubmissionService
	Verification VerificationService
	Notification NotificationService
	Dashboard    DashboardService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（Redis 不可用时降级，登出不再吊销 Token）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	sink notify.Sink,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:         NewAuthService(repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		Submission:   NewSubmissionService(repo, logger),
		Verification: NewVerificationService(repo, sink, logger),
		Notification: NewNotificationService(repo, logger),
		Dashboard:    NewDashboardService(repo, cfg.Verification.DashboardCacheSize, cfg.Verification.DashboardCacheTTL, logger),
	}
}
