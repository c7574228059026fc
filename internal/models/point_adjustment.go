package models

import "time"

// PointAdjustment is the audit trail of a manual balance change made by an
// administrator.
type PointAdjustment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	AdminID   uint      `gorm:"index;not null" json:"admin_id"`
	Points    int       `gorm:"not null" json:"points"` // signed delta
	Reason    string    `gorm:"type:text;not null" json:"reason"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (PointAdjustment) TableName() string { return "point_adjustments" }
