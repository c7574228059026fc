package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	adjustmentListLimit = 100
	redemptionCodeChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	redemptionSuffixLen = 9
)

// LedgerService owns every change to a user's point balance outside the
// daily award: manual adjustments and product redemptions.
type LedgerService struct {
	db       *gorm.DB
	notifier *NotificationService
	now      func() time.Time
	codeGen  func(now time.Time) (string, error)
}

func NewLedgerService(db *gorm.DB, notifier *NotificationService) *LedgerService {
	return &LedgerService{
		db:       db,
		notifier: notifier,
		now:      time.Now,
		codeGen:  NewRedemptionCode,
	}
}

// NewRedemptionCode builds a pickup code of the form
// IAJ-<unix millis>-<9 uppercase base36 chars>.
func NewRedemptionCode(now time.Time) (string, error) {
	var b strings.Builder
	base := big.NewInt(int64(len(redemptionCodeChars)))
	for i := 0; i < redemptionSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, base)
		if err != nil {
			return "", err
		}
		b.WriteByte(redemptionCodeChars[n.Int64()])
	}
	return fmt.Sprintf("IAJ-%d-%s", now.UnixMilli(), b.String()), nil
}

type AdjustPointsInput struct {
	AdminID   uint
	StudentID uint
	Delta     int
	Reason    string
}

type AdjustPointsResult struct {
	Adjustment      *models.PointAdjustment `json:"adjustment"`
	Student         *models.User            `json:"-"`
	PreviousBalance int                     `json:"previous_points"`
	NewBalance      int                     `json:"new_points"`
}

// AdjustPoints applies a signed manual change to a student's balance. The
// balance is floored at zero; the adjustment row keeps the requested delta.
func (s *LedgerService) AdjustPoints(ctx context.Context, in AdjustPointsInput) (*AdjustPointsResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, validationError("reason is required")
	}

	var result *AdjustPointsResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		result, err = s.adjustInTx(tx, in.AdminID, in.StudentID, in.Delta, reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdjustment(ctx, in.StudentID, in.Delta, reason)
	return result, nil
}

func (s *LedgerService) adjustInTx(tx *gorm.DB, adminID, studentID uint, delta int, reason string) (*AdjustPointsResult, error) {
	student, err := lockUser(tx, studentID, models.RoleStudent)
	if err != nil {
		return nil, err
	}

	adjustment := &models.PointAdjustment{
		UserID:  studentID,
		AdminID: adminID,
		Points:  delta,
		Reason:  reason,
	}
	if err := tx.Create(adjustment).Error; err != nil {
		return nil, fmt.Errorf("create adjustment: %w", err)
	}

	previous := student.Points
	balance := previous + delta
	if balance < 0 {
		balance = 0
	}
	if err := tx.Model(&models.User{}).Where("id = ?", studentID).Update("points", balance).Error; err != nil {
		return nil, fmt.Errorf("update balance: %w", err)
	}
	student.Points = balance

	return &AdjustPointsResult{
		Adjustment:      adjustment,
		Student:         student,
		PreviousBalance: previous,
		NewBalance:      balance,
	}, nil
}

func (s *LedgerService) notifyAdjustment(ctx context.Context, studentID uint, delta int, reason string) {
	sign := ""
	if delta > 0 {
		sign = "+"
	}
	msg := fmt.Sprintf("Seus pontos foram ajustados: %s%d. Motivo: %s", sign, delta, reason)
	if err := s.notifier.Create(ctx, studentID, msg); err != nil {
		logger.Warn().Err(err).Uint("student_id", studentID).Msg("adjustment notification failed")
	}
}

type BulkAdjustPointsInput struct {
	AdminID    uint
	StudentIDs []uint
	Delta      int
	Reason     string
}

// BulkAdjustPoints adjusts each student in its own transaction. Students
// already adjusted stay adjusted when a later one fails.
func (s *LedgerService) BulkAdjustPoints(ctx context.Context, in BulkAdjustPointsInput) (*BatchResult, error) {
	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		return nil, validationError("reason is required")
	}
	if len(in.StudentIDs) == 0 {
		return nil, validationError("no students selected")
	}

	db := s.db.WithContext(ctx)
	result := runBatch(in.StudentIDs, func(id uint) error {
		err := db.Transaction(func(tx *gorm.DB) error {
			_, err := s.adjustInTx(tx, in.AdminID, id, in.Delta, reason)
			return err
		})
		if err != nil {
			return err
		}
		s.notifyAdjustment(ctx, id, in.Delta, reason)
		return nil
	})

	logger.Info().
		Uint("admin_id", in.AdminID).
		Int("delta", in.Delta).
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Msg("bulk point adjustment")
	return result, nil
}

// ListAdjustments returns the newest adjustments, optionally for one user.
func (s *LedgerService) ListAdjustments(ctx context.Context, userID uint) ([]models.PointAdjustment, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(adjustmentListLimit)
	if userID != 0 {
		query = query.Where("user_id = ?", userID)
	}

	var items []models.PointAdjustment
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

type RedeemResult struct {
	Redemption      *models.Redemption `json:"redemption"`
	Code            string             `json:"code"`
	RemainingPoints int                `json:"remaining_points"`
}

// Redeem exchanges points for one unit of a product. Stock, balance,
// redemption and notification are committed together or not at all.
//
// Both rows are read FOR UPDATE, product first, so concurrent redemptions
// queue behind each other. The conditional updates keep the invariants on
// engines without row locks.
func (s *LedgerService) Redeem(ctx context.Context, userID, productID uint) (*RedeemResult, error) {
	now := s.now()
	code, err := s.codeGen(now)
	if err != nil {
		return nil, fmt.Errorf("generate redemption code: %w", err)
	}

	var result *RedeemResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&product, productID).Error; err != nil {
			return translateNotFound(err, "product", productID)
		}
		if product.Stock <= 0 {
			return fmt.Errorf("%w: product %d", ErrOutOfStock, productID)
		}

		user, err := lockUser(tx, userID, "")
		if err != nil {
			return err
		}
		if user.Points < product.PointsCost {
			return fmt.Errorf("%w: has %d, needs %d", ErrInsufficientPoints, user.Points, product.PointsCost)
		}

		res := tx.Model(&models.Product{}).
			Where("id = ? AND stock > 0", productID).
			Update("stock", gorm.Expr("stock - 1"))
		if res.Error != nil {
			return fmt.Errorf("decrement stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: product %d", ErrOutOfStock, productID)
		}

		res = tx.Model(&models.User{}).
			Where("id = ? AND points >= ?", userID, product.PointsCost).
			Update("points", gorm.Expr("points - ?", product.PointsCost))
		if res.Error != nil {
			return fmt.Errorf("debit points: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: user %d", ErrInsufficientPoints, userID)
		}

		product.Stock--
		redemption := &models.Redemption{
			UserID:    userID,
			ProductID: productID,
			Product:   &product,
			Code:      code,
			Status:    models.RedemptionAwaitingPickup,
		}
		if err := tx.Omit("Product").Create(redemption).Error; err != nil {
			return fmt.Errorf("create redemption: %w", err)
		}

		msg := fmt.Sprintf("Parabéns! Você resgatou: %s. Código de retirada: %s", product.Name, code)
		if err := createNotification(tx, userID, msg); err != nil {
			return err
		}

		result = &RedeemResult{
			Redemption:      redemption,
			Code:            code,
			RemainingPoints: user.Points - product.PointsCost,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Uint("user_id", userID).
		Uint("product_id", productID).
		Str("code", code).
		Msg("product redeemed")
	return result, nil
}
