package main

import (
	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
)

// registerRoutes sets up all HTTP routes and returns the limiters so they can
// be stopped on shutdown.
func registerRoutes(r *gin.Engine, svc *appServices, cfg *config.Config) []*middleware.RateLimiter {
	r.Use(middleware.RequestID(), logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())

	// login, chat and conversation submission are the abuse-prone endpoints
	loginLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	submitLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	chatLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	r.GET("/health", svc.healthHandler.CheckHealth)

	api := r.Group("/api")
	{
		api.POST("/auth/login", loginLimiter.Middleware(), svc.authHandler.Login)

		protected := api.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", svc.authHandler.Me)
			protected.POST("/user/accept-terms", svc.authHandler.AcceptTerms)

			protected.GET("/notifications", svc.notificationHandler.List)
			protected.PUT("/notifications/read-all", svc.notificationHandler.MarkAllRead)
			protected.PUT("/notifications/:id/read", svc.notificationHandler.MarkRead)

			student := protected.Group("/student", middleware.RoleRequired(models.RoleStudent))
			{
				student.POST("/chat", chatLimiter.Middleware(), svc.chatHandler.Stream)
				student.POST("/conversations/end", submitLimiter.Middleware(), svc.conversationHandler.End)
				student.GET("/conversations/daily-status", svc.conversationHandler.DailyStatus)
				student.GET("/stats", svc.conversationHandler.Stats)
				student.GET("/emotions", svc.conversationHandler.Emotions)
				student.GET("/products", svc.storeHandler.Products)
				student.POST("/redemptions", svc.storeHandler.Redeem)
				student.GET("/redemptions", svc.storeHandler.MyRedemptions)
			}

			teacher := protected.Group("/teacher", middleware.RoleRequired(models.RoleTeacher))
			{
				teacher.GET("/students", svc.adminHandler.StudentsOfTeacher)
			}

			admin := protected.Group("/admin", middleware.RoleRequired(models.RoleAdmin))
			{
				admin.POST("/point-adjustments", svc.adminHandler.AdjustPoints)
				admin.GET("/point-adjustments", svc.adminHandler.ListAdjustments)
				admin.POST("/bulk-actions", svc.adminHandler.BulkAction)
				admin.POST("/redemptions/:id/deliver", svc.storeHandler.Deliver)
				admin.GET("/audit-logs", svc.adminHandler.ListAuditLogs)
				admin.POST("/insights", svc.insightsHandler.Generate)
				admin.GET("/year-archives", svc.yearArchiveHandler.List)
				admin.POST("/year-archives", svc.yearArchiveHandler.Create)
				admin.PATCH("/year-archives/:id", svc.yearArchiveHandler.UpdateStatus)
				admin.DELETE("/year-archives/:id", svc.yearArchiveHandler.Delete)
			}
		}
	}

	return []*middleware.RateLimiter{loginLimiter, submitLimiter, chatLimiter}
}
