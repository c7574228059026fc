package main

import (
	"errors"

	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/handlers"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/internal/utils"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

// appServices holds the initialized services and handlers.
type appServices struct {
	db          *gorm.DB
	auditQueue  services.AuditQueue
	auditWorker *services.AuditWorker
	retention   *services.AuditRetention

	authHandler         *handlers.AuthHandler
	conversationHandler *handlers.ConversationHandler
	storeHandler        *handlers.StoreHandler
	notificationHandler *handlers.NotificationHandler
	adminHandler        *handlers.AdminHandler
	insightsHandler     *handlers.InsightsHandler
	chatHandler         *handlers.ChatHandler
	yearArchiveHandler  *handlers.YearArchiveHandler
	healthHandler       *handlers.HealthHandler
}

// bootstrap connects the database and wires services, workers and schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	db, err := models.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.SeedDefaultData(db); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	authService := services.NewAuthService(db, &cfg.JWT)
	if err := authService.CreateAdminIfNotExists(""); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	// auditStore writes rows inline; it is the sink of both the queue and
	// the worker. Handlers record through auditService.
	auditStore := services.NewAuditService(db, nil)
	auditQueue := services.NewAuditQueue(&cfg.Redis, auditStore.Write)
	auditService := services.NewAuditService(db, auditQueue)

	var auditWorker *services.AuditWorker
	if auditQueue.IsAsync() {
		auditWorker = services.NewAuditWorker(&cfg.Redis, auditStore.Write)
		if auditWorker != nil {
			if err := auditWorker.Start(); err != nil {
				logger.Error().Err(err).Msg("Failed to start audit worker")
				auditWorker = nil
			}
		}
	}

	loc := cfg.Location()
	retention := services.NewAuditRetention(db, auditService, cfg.Audit, loc)
	if err := retention.StartScheduler(); err != nil {
		logger.Error().Err(err).Str("cron", cfg.Audit.CleanupCron).Msg("Audit retention scheduler not started")
	}

	generator, err := services.NewTextGenerator(cfg.AI)
	if err != nil {
		if !errors.Is(err, services.ErrInsightsUnavailable) {
			logger.Warn().Err(err).Msg("Text generator init failed")
		}
		logger.Info().Str("provider", cfg.AI.Provider).Msg("Insights disabled: no provider configured")
		generator = nil
	}
	// every provider streams; a nil generator leaves chat unavailable
	chatStreamer, _ := generator.(services.ChatStreamer)

	notifier := services.NewNotificationService(db)
	gate := services.NewDailyGate(db, loc)
	ledger := services.NewLedgerService(db, notifier)
	conversations := services.NewConversationService(db, gate, notifier, cfg.Rewards)

	return &appServices{
		db:          db,
		auditQueue:  auditQueue,
		auditWorker: auditWorker,
		retention:   retention,

		authHandler:         handlers.NewAuthHandler(authService, auditService),
		conversationHandler: handlers.NewConversationHandler(conversations, auditService),
		storeHandler:        handlers.NewStoreHandler(services.NewCatalogService(db), ledger, auditService),
		notificationHandler: handlers.NewNotificationHandler(notifier),
		adminHandler:        handlers.NewAdminHandler(ledger, services.NewAssignmentService(db), notifier, auditService),
		insightsHandler:     handlers.NewInsightsHandler(services.NewInsightsService(db, generator), auditService),
		chatHandler:         handlers.NewChatHandler(services.NewChatService(db, chatStreamer)),
		yearArchiveHandler:  handlers.NewYearArchiveHandler(services.NewYearArchiveService(db), auditService),
		healthHandler:       handlers.NewHealthHandler(db, auditQueue),
	}
}

// shutdown stops schedulers and workers, then closes the database.
func (s *appServices) shutdown() {
	s.retention.StopScheduler()
	logger.Info().Msg("Schedulers stopped")

	if s.auditWorker != nil {
		s.auditWorker.Stop()
	}
	if s.auditQueue != nil {
		if err := s.auditQueue.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close audit queue")
		}
	}
	if sqlDB, err := s.db.DB(); err == nil {
		sqlDB.Close()
	}
}
