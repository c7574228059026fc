package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditEntry describes one administrative or student action worth keeping.
type AuditEntry struct {
	ActorID     uint                   `json:"actor_id"`
	Action      string                 `json:"action"`
	Description string                 `json:"description"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	IPAddress   string                 `json:"ip_address"`
}

// AuditService records audit entries through a queue and serves them back
// to administrators.
type AuditService struct {
	db    *gorm.DB
	queue AuditQueue
}

// NewAuditService writes through queue, or inline when queue is nil.
func NewAuditService(db *gorm.DB, queue AuditQueue) *AuditService {
	s := &AuditService{db: db}
	if queue == nil {
		queue = NewSyncAuditQueue(s.Write)
	}
	s.queue = queue
	return s
}

// Record hands the entry to the queue. It never fails the caller; a lost
// audit entry is logged instead.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if err := s.queue.Enqueue(ctx, &entry); err != nil {
		logger.Warn().Err(err).
			Uint("actor_id", entry.ActorID).
			Str("action", entry.Action).
			Msg("audit entry dropped")
	}
}

// Write persists the entry immediately.
func (s *AuditService) Write(ctx context.Context, entry *AuditEntry) error {
	var metadata datatypes.JSON
	if entry.Metadata != nil {
		b, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("encode audit metadata: %w", err)
		}
		metadata = datatypes.JSON(b)
	}

	row := &models.AuditLog{
		UserID:      entry.ActorID,
		Action:      entry.Action,
		Description: entry.Description,
		Metadata:    metadata,
		IPAddress:   entry.IPAddress,
	}
	return s.db.WithContext(ctx).Create(row).Error
}

type AuditLogListRequest struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Action   string `form:"action"`
	UserID   uint   `form:"user_id"`
}

type AuditLogListResponse struct {
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
	Items    []models.AuditLog `json:"items"`
}

func (s *AuditService) List(ctx context.Context, req *AuditLogListRequest) (*AuditLogListResponse, error) {
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if req.Action != "" {
		query = query.Where("action = ?", req.Action)
	}
	if req.UserID != 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.AuditLog
	offset := (req.Page - 1) * req.PageSize
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(req.PageSize).Find(&items).Error; err != nil {
		return nil, err
	}

	return &AuditLogListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// CleanupBefore deletes audit rows created before cutoff.
func (s *AuditService) CleanupBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&models.AuditLog{})
	return result.RowsAffected, result.Error
}
