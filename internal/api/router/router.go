package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"gestion-cours/backend/config"
	"gestion-cours/backend/internal/api/handler"
	"gestion-cours/backend/internal/api/middleware"
	"gestion-cours/backend/internal/model"
	"gestion-cours/backend/pkg/jwt"
	"gestion-cours/backend/pkg/redis"
)

const maxBodyBytes = 1 << 20

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时不做 Token 黑名单检查与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	var (
		revoked middleware.RevocationChecker
		limiter middleware.RateLimiter
	)
	if rdb != nil {
		revoked, limiter = rdb, rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleInstructor)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 报名表单（公开）
		v1.GET("/courses/available", h.Course.ListAvailable)
		v1.POST("/enrollments",
			middleware.RateLimit(limiter, cfg.RateLimit.EnrollPerMinute, time.Minute, logger),
			h.Enrollment.Enroll)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, revoked))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户与权限管理
			admin := authorized.Group("/admin", adminOnly)
			{
				admin.POST("/users", h.Admin.CreateUser)
				admin.POST("/users/:username/permissions", h.Admin.GrantPermission)
			}

			// 讲师模块
			instructors := authorized.Group("/instructors")
			{
				instructors.GET("", h.Instructor.ListInstructors)
				instructors.GET("/:id", h.Instructor.GetInstructor)
				instructors.POST("", adminOnly, h.Instructor.CreateInstructor)
				instructors.PUT("/:id", adminOnly, h.Instructor.UpdateInstructor)
				instructors.DELETE("/:id", adminOnly, h.Instructor.DeleteInstructor)
			}

			// 课程模块
			courses := authorized.Group("/courses")
			{
				courses.GET("", h.Course.ListCourses)
				courses.GET("/:id", h.Course.GetCourse)
				courses.POST("", staff, h.Course.CreateCourse)
				courses.PUT("/:id", staff, h.Course.UpdateCourse)
				courses.DELETE("/:id", staff, h.Course.DeleteCourse)
				courses.POST("/:id/publish", middleware.PermissionAuth(model.PermPublishCourse), h.Course.PublishCourse)
				courses.GET("/:id/statistics", middleware.PermissionAuth(model.PermViewStatistics), h.Course.GetStatistics)
				courses.GET("/:id/enrollments", staff, h.Enrollment.ListByCourse)
			}

			// 报名模块
			enrollments := authorized.Group("/enrollments")
			{
				enrollments.GET("/:id", staff, h.Enrollment.GetEnrollment)
				enrollments.POST("/:id/complete", staff, h.Enrollment.CompleteEnrollment)
				enrollments.POST("/:id/abandon", staff, h.Enrollment.AbandonEnrollment)
			}
			authorized.GET("/students/:user_id/enrollments", staff, h.Enrollment.ListByStudent)

			// 学生档案模块
			profiles := authorized.Group("/student-profiles", staff)
			{
				profiles.GET("", h.StudentProfile.ListProfiles)
				profiles.GET("/:user_id", h.StudentProfile.GetProfile)
				profiles.POST("", adminOnly, h.StudentProfile.CreateProfile)
				profiles.PUT("/:user_id", adminOnly, h.StudentProfile.UpdateProfile)
				profiles.DELETE("/:user_id", adminOnly, h.StudentProfile.DeleteProfile)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/courses/:id/enrollments", middleware.PermissionAuth(model.PermViewStatistics), h.Export.ExportEnrollments)
			}
		}
	}

	return r
}
