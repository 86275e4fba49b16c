package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ahmed-moohram/elmostqbal-sub002/config"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/api/handler"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/api/middleware"
	"github.com/ahmed-moohram/elmostqbal-sub002/internal/model"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/jwt"
	"github.com/ahmed-moohram/elmostqbal-sub002/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil，此时兑换接口不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitKB * 1024))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 兑换模块（可选认证 + 限流）
		redemptions := v1.Group("/redemptions")
		redemptions.Use(
			middleware.RateLimit(rdb, cfg.Redemption.RateLimit, cfg.Redemption.RateWindow, logger),
			middleware.OptionalJWTAuth(jwtMgr),
		)
		{
			redemptions.POST("/course", h.Redemption.RedeemCourseCode)
			redemptions.POST("/lesson", h.Redemption.RedeemLessonCode)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr))
		{
			// 付款申请
			payments := authorized.Group("/payments")
			{
				payments.POST("", h.Payment.SubmitPayment)
				payments.PUT("/:id/approve", middleware.RoleAuth(model.RoleAdmin), h.Payment.ApprovePayment)
				payments.PUT("/:id/reject", middleware.RoleAuth(model.RoleAdmin), h.Payment.RejectPayment)
			}

			// 学习进度与访问权限（仅限本人）
			authorized.PUT("/lessons/:id/progress", h.Learning.RecordLessonProgress)
			courses := authorized.Group("/courses")
			{
				courses.GET("/:id/progress", h.Learning.GetCourseProgress)
				courses.GET("/:id/access", h.Learning.CheckAccess)
				courses.POST("/:id/achievements/check", h.Learning.CheckAchievements)
			}
			authorized.GET("/achievements/me", h.Learning.ListMyAchievements)

			// 学习报告
			students := authorized.Group("/students")
			students.Use(middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher))
			{
				students.GET("/:id/report", h.Report.GetStudentReport)
				students.GET("/:id/report/export", h.Report.ExportStudentReport)
			}
		}
	}

	return r
}
