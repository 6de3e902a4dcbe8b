package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"crewdesk/backend/config"
	"crewdesk/backend/internal/api/handler"
	"crewdesk/backend/internal/api/middleware"
	"crewdesk/backend/internal/model"
	"crewdesk/backend/pkg/jwt"
	"crewdesk/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// 写操作角色：viewer 只读
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleCoordinator)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, time.Minute), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 操作员模块（仅 admin）
			users := authorized.Group("/users")
			{
				users.GET("", adminOnly, h.User.ListUsers)
				users.GET("/:id", adminOnly, h.User.GetUser)
				users.POST("", adminOnly, h.User.CreateUser)
				users.DELETE("/:id", adminOnly, h.User.DeleteUser)
			}

			// 员工模块
			workers := authorized.Group("/workers")
			{
				workers.GET("", h.Worker.ListWorkers)
				workers.GET("/:id", h.Worker.GetWorker)
				workers.POST("", staff, h.Worker.CreateWorker)
				workers.PUT("/:id", staff, h.Worker.UpdateWorker)
				workers.DELETE("/:id", adminOnly, h.Worker.DeleteWorker)
				workers.POST("/:id/certifications", staff, h.Worker.GrantCertification)
				workers.DELETE("/:id/certifications/:cert_id", staff, h.Worker.RevokeCertification)
				workers.GET("/:id/export/calendar", h.Export.ExportWorkerCalendar)
			}

			// 证书目录模块
			certifications := authorized.Group("/certifications")
			{
				certifications.GET("", h.Worker.ListCertifications)
				certifications.POST("", staff, h.Worker.CreateCertification)
			}

			// 活动模块
			events := authorized.Group("/events")
			{
				events.GET("", h.Event.ListEvents)
				events.GET("/:id", h.Event.GetEvent)
				events.POST("", staff, h.Event.CreateEvent)
				events.PUT("/:id", staff, h.Event.UpdateEvent)
				events.DELETE("/:id", staff, h.Event.DeleteEvent)
				events.PUT("/:id/schedule", staff, h.Event.SetSchedule)
				events.POST("/:id/schedule/sync", staff, h.Event.SyncScheduleTimes)
				events.POST("/:id/publish", staff, h.Event.PublishEvent)
				events.POST("/:id/complete", staff, h.Event.CompleteEvent)
				events.GET("/:id/shifts", h.Event.ListEventShifts)
				events.POST("/:id/requirements", staff, h.Event.AddRequirement)
				events.POST("/:id/roles", staff, h.Event.ApplyRoles)
				events.POST("/:id/totals/recalculate", staff, h.Event.RecalculateTotals)
				events.GET("/:id/export/roster", h.Export.ExportRoster)
			}

			// 技能需求模块
			requirements := authorized.Group("/requirements")
			{
				requirements.GET("/:id", h.Event.GetRequirement)
				requirements.PUT("/:id", staff, h.Event.UpdateRequirement)
			}

			// 班次模块
			shifts := authorized.Group("/shifts")
			{
				shifts.GET("/:id", h.Shift.GetShift)
				shifts.POST("", staff, h.Shift.CreateShift)
				shifts.PUT("/:id", staff, h.Shift.UpdateShift)
			}

			// 排班模块
			assignments := authorized.Group("/assignments")
			{
				assignments.POST("", staff, h.Assignment.Assign)
				assignments.POST("/bulk", staff, h.Assignment.BulkAssign)
				assignments.POST("/approve", staff, h.Assignment.BulkApprove)
				assignments.DELETE("/:id", staff, h.Assignment.Unassign)
				assignments.PUT("/:id/hours", staff, h.Assignment.UpdateHours)
				assignments.PUT("/:id/status", staff, h.Assignment.UpdateStatus)
			}

			// 操作日志模块
			authorized.GET("/activity", h.Activity.ListActivity)
		}
	}

	return r
}
