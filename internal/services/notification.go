package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
)

const notificationListLimit = 50

// NotificationService stores in-app notifications. Delivery is the client's
// concern; a notification is just a row.
type NotificationService struct {
	db          *gorm.DB
	assignments *AssignmentService
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, assignments: NewAssignmentService(db)}
}

func (s *NotificationService) Create(ctx context.Context, userID uint, message string) error {
	return createNotification(s.db.WithContext(ctx), userID, message)
}

func createNotification(db *gorm.DB, userID uint, message string) error {
	n := &models.Notification{UserID: userID, Message: message}
	if err := db.Create(n).Error; err != nil {
		return fmt.Errorf("create notification for user %d: %w", userID, err)
	}
	return nil
}

// NotifyRisk alerts the student's assigned teacher, if any, and every
// administrator that the student scored in the risk band. Failures are
// logged and never returned.
func (s *NotificationService) NotifyRisk(ctx context.Context, student *models.User) {
	db := s.db.WithContext(ctx)

	teacher, err := s.assignments.TeacherFor(ctx, student.ID)
	if err != nil {
		logger.Warn().Err(err).Uint("student_id", student.ID).Msg("risk notification: assignment lookup failed")
	} else if teacher != nil {
		msg := fmt.Sprintf("Aluno %s apresenta score emocional baixo. Recomenda-se atenção especial.", student.Name)
		if err := createNotification(db, teacher.ID, msg); err != nil {
			logger.Warn().Err(err).Uint("student_id", student.ID).Msg("risk notification to teacher failed")
		}
	}

	var adminIDs []uint
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Pluck("id", &adminIDs).Error; err != nil {
		logger.Warn().Err(err).Uint("student_id", student.ID).Msg("risk notification: admin lookup failed")
		return
	}
	msg := fmt.Sprintf("Aluno %s em situação de risco emocional.", student.Name)
	for _, adminID := range adminIDs {
		if err := createNotification(db, adminID, msg); err != nil {
			logger.Warn().Err(err).Uint("student_id", student.ID).Uint("admin_id", adminID).Msg("risk notification to admin failed")
		}
	}
}

type NotificationListResponse struct {
	Items       []models.Notification `json:"items"`
	UnreadCount int64                 `json:"unread_count"`
}

// List returns the newest notifications of a user plus the total unread.
func (s *NotificationService) List(ctx context.Context, userID uint) (*NotificationListResponse, error) {
	db := s.db.WithContext(ctx)

	var items []models.Notification
	if err := db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(notificationListLimit).
		Find(&items).Error; err != nil {
		return nil, err
	}

	var unread int64
	if err := db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&unread).Error; err != nil {
		return nil, err
	}

	return &NotificationListResponse{Items: items, UnreadCount: unread}, nil
}

// MarkRead flags one notification as read. Notifications of other users are
// reported as not found. Marking an already read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	db := s.db.WithContext(ctx)

	var n models.Notification
	if err := db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return translateNotFound(err, "notification", id)
	}
	if n.Read {
		return nil
	}
	return db.Model(&n).Update("is_read", true).Error
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID uint) (int64, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

type BulkNotifyInput struct {
	AdminID    uint
	StudentIDs []uint
	Message    string
}

// BulkNotify sends the same message to each student. Ids that are not
// students are reported as failed items.
func (s *NotificationService) BulkNotify(ctx context.Context, in BulkNotifyInput) (*BatchResult, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, validationError("message is required")
	}
	if len(in.StudentIDs) == 0 {
		return nil, validationError("no students selected")
	}

	db := s.db.WithContext(ctx)
	result := runBatch(in.StudentIDs, func(id uint) error {
		if _, err := findStudent(db, id); err != nil {
			return err
		}
		return createNotification(db, id, message)
	})

	logger.Info().
		Uint("admin_id", in.AdminID).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("bulk notification sent")
	return result, nil
}
