package services

import (
	"context"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

// CatalogService serves the reward catalog and redemption history.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

// AvailableProducts lists products still in stock, cheapest first.
func (s *CatalogService) AvailableProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("stock > 0").
		Order("points_cost ASC, id ASC").
		Find(&products).Error
	return products, err
}

func (s *CatalogService) RedemptionsOf(ctx context.Context, userID uint) ([]models.Redemption, error) {
	var items []models.Redemption
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// MarkDelivered closes a redemption once the student picked the product up.
func (s *CatalogService) MarkDelivered(ctx context.Context, redemptionID uint) (*models.Redemption, error) {
	db := s.db.WithContext(ctx)

	var redemption models.Redemption
	if err := db.Preload("Product").First(&redemption, redemptionID).Error; err != nil {
		return nil, translateNotFound(err, "redemption", redemptionID)
	}
	if redemption.Status == models.RedemptionDelivered {
		return nil, validationError("redemption %d already delivered", redemptionID)
	}

	if err := db.Model(&redemption).Update("status", models.RedemptionDelivered).Error; err != nil {
		return nil, err
	}

	logger.Info().Uint("redemption_id", redemptionID).Str("code", redemption.Code).Msg("redemption delivered")
	return &redemption, nil
}
