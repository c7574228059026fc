package models

import "time"

const (
	RedemptionAwaitingPickup = "awaiting_pickup"
	RedemptionDelivered      = "delivered"
)

// Redemption records points exchanged for a product. Code is shown to the
// student and presented at pickup.
type Redemption struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	ProductID uint      `gorm:"index;not null" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Code      string    `gorm:"uniqueIndex;size:64;not null" json:"code"`
	Status    string    `gorm:"size:20;not null;default:awaiting_pickup" json:"status"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Redemption) TableName() string { return "redemptions" }
