package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	AuditAdjustPoints     = "ADJUST_POINTS"
	AuditBulkAction       = "BULK_ACTION"
	AuditRedeemProduct    = "REDEEM_PRODUCT"
	AuditDeliverProduct   = "DELIVER_PRODUCT"
	AuditEndConversation  = "END_CONVERSATION"
	AuditGenerateInsights = "GENERATE_INSIGHTS"
	AuditLogin            = "LOGIN"
	AuditArchiveYear      = "ARCHIVE_YEAR"
	AuditRestoreArchive   = "RESTORE_ARCHIVE"
)

// AuditLog records who did what, from where.
type AuditLog struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index;not null" json:"user_id"`
	Action      string         `gorm:"size:50;index;not null" json:"action"`
	Description string         `gorm:"type:text" json:"description"`
	Metadata    datatypes.JSON `json:"metadata"`
	IPAddress   string         `gorm:"size:50" json:"ip_address"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }
