package models

import (
	"fmt"
	"time"

	"github.com/iaejovem/backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. The returned handle is passed
// explicitly to every service; there is no package-level connection.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// SQLite allows one writer at a time; a single connection turns
		// concurrent ledger transactions into a queue instead of SQLITE_BUSY.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Conversation{},
		&ScoreRecord{},
		&PointAdjustment{},
		&Product{},
		&Redemption{},
		&Notification{},
		&Assignment{},
		&AuditLog{},
		&SchedulerLock{},
		&YearArchive{},
	)
}

// SeedDefaultData fills an empty catalog with the starter rewards.
func SeedDefaultData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []Product{
		{Name: "Caderno personalizado", Description: "Caderno com capa exclusiva", PointsCost: 50, Stock: 30},
		{Name: "Garrafa térmica", Description: "Garrafa de 500ml", PointsCost: 120, Stock: 15},
		{Name: "Fone de ouvido", Description: "Fone intra-auricular com fio", PointsCost: 300, Stock: 5},
		{Name: "Vale-lanche", Description: "Um lanche na cantina da escola", PointsCost: 30, Stock: 100},
	}
	return db.Create(&products).Error
}
