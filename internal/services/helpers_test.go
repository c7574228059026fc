package services

import (
	"testing"
	"time"

	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/models"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := models.Open(&config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username, name, role string, points int) *models.User {
	t.Helper()

	user := &models.User{Username: username, Name: name, Role: role, Points: points}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createProduct(t *testing.T, db *gorm.DB, name string, cost, stock int) *models.Product {
	t.Helper()

	product := &models.Product{Name: name, PointsCost: cost, Stock: stock}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product %s: %v", name, err)
	}
	return product
}

func reloadUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()

	var user models.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("reload user %d: %v", id, err)
	}
	return &user
}

func notificationsFor(t *testing.T, db *gorm.DB, userID uint) []models.Notification {
	t.Helper()

	var items []models.Notification
	if err := db.Where("user_id = ?", userID).Order("id").Find(&items).Error; err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return items
}

// fixedClock returns a clock frozen at t.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
