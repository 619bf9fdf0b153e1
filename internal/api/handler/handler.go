package handler

import "github.com/severusraj/gradverify-mono/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Student      *StudentHandler
	Review       *ReviewHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Student:      NewStudentHandler(svc.Submission),
		Review:       NewReviewHandler(svc.Verification, svc.Submission),
		Notification: NewNotificationHandler(svc.Notification),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
	}
}
