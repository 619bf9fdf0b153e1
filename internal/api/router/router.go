package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/severusraj/gradverify-mono/config"
	"github.com/severusraj/gradverify-mono/internal/api/handler"
	"github.com/severusraj/gradverify-mono/internal/api/middleware"
	"github.com/severusraj/gradverify-mono/internal/model"
	"github.com/severusraj/gradverify-mono/pkg/jwt"
)

// xlsx 导入单独放宽请求体上限
const importBodyLimit = 10 << 20

// Deps 路由依赖。Tokens / Limiter 为 nil 时分别跳过黑名单检查和限流（Redis 不可用）
type Deps struct {
	Config  *config.Config
	Handler *handler.Handler
	JWT     *jwt.Manager
	Tokens  middleware.TokenChecker
	Limiter middleware.RateLimiter
	Logger  *zap.Logger
}

// Setup 初始化并返回 Gin 路由引擎
func Setup(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	cfg, h := d.Config, d.Handler

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limit := middleware.RateLimit(d.Limiter, cfg.Verification.RateLimit, cfg.Verification.RateLimitWindow)
	bodyLimit := middleware.BodyLimit(cfg.Server.BodyLimit)
	reviewers := middleware.RoleAuth(model.ReviewerRoles...)
	admins := middleware.RoleAuth(model.RoleAdmin, model.RoleSuperAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth", bodyLimit)
		{
			auth.POST("/register", limit, h.Auth.Register)
			auth.POST("/login", limit, h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(d.JWT, d.Tokens))

		// xlsx 导入（multipart）
		authorized.POST("/users/import", admins, middleware.BodyLimit(importBodyLimit), h.User.ImportStudents)

		api := authorized.Group("", bodyLimit)
		{
			api.POST("/auth/logout", h.Auth.Logout)
			api.GET("/auth/me", h.Auth.Me)

			// 学生提交（身份取自 Token）
			student := api.Group("/student", middleware.RoleAuth(model.RoleStudent))
			{
				student.GET("/profile", h.Student.GetProfile)
				student.POST("/profile", h.Student.CreateProfile)
				student.PUT("/profile", h.Student.UpdateProfile)
				student.GET("/status", h.Student.GetStatus)
				student.POST("/documents", limit, h.Student.UploadDocument)
				student.GET("/documents", h.Student.ListDocuments)
				student.POST("/awards", limit, h.Student.SubmitAward)
				student.GET("/awards", h.Student.ListAwards)
			}

			// 审核（faculty / admin / superadmin）
			review := api.Group("", reviewers)
			{
				review.GET("/documents", h.Review.ListDocuments)
				review.PATCH("/documents/:id/review", h.Review.ReviewDocument)
				review.GET("/awards", h.Review.ListAwards)
				review.PATCH("/awards/:id/review", h.Review.ReviewAward)
				review.GET("/students", h.Review.ListStudents)
				review.GET("/students/:id", h.Review.GetStudent)
				review.PATCH("/students/:id/profile", h.Review.UpdateStudentProfile)
				review.POST("/students/:id/recompute", h.Review.RecomputeAggregate)
				review.GET("/students/:id/logs", h.Review.ListLogs)
			}

			// 通知
			notifications := api.Group("/notifications")
			{
				notifications.GET("", h.Notification.List)
				notifications.GET("/unread-count", h.Notification.UnreadCount)
				notifications.PATCH("/read-all", h.Notification.MarkAllRead)
				notifications.PATCH("/:id/read", h.Notification.MarkRead)
			}

			// 仪表盘
			dashboard := api.Group("/dashboard", reviewers)
			{
				dashboard.GET("/stats", h.Dashboard.Stats)
				dashboard.GET("/department-progress", h.Dashboard.DepartmentProgress)
				dashboard.GET("/recent-submissions", h.Dashboard.RecentSubmissions)
			}

			// 用户管理
			users := api.Group("/users", admins)
			{
				users.POST("", h.User.CreateUser)
				users.GET("", h.User.ListUsers)
			}
		}
	}

	return r
}
