package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/iaejovem/backend/internal/models"
	"gorm.io/gorm"
)

func newLedger(db *gorm.DB) *LedgerService {
	return NewLedgerService(db, NewNotificationService(db))
}

func TestNewRedemptionCode(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	pattern := regexp.MustCompile(`^IAJ-1767225600123-[0-9A-Z]{9}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewRedemptionCode(now)
		if err != nil {
			t.Fatalf("NewRedemptionCode() error = %v", err)
		}
		if !pattern.MatchString(code) {
			t.Fatalf("code %q does not match %s", code, pattern)
		}
		seen[code] = true
	}
	if len(seen) < 45 {
		t.Errorf("codes repeat too often: %d distinct of 50", len(seen))
	}
}

func TestLedgerService_AdjustPoints(t *testing.T) {
	tests := []struct {
		name        string
		balance     int
		delta       int
		wantBalance int
		wantMessage string
	}{
		{"credit", 10, 25, 35, "Seus pontos foram ajustados: +25. Motivo: participação"},
		{"debit", 40, -15, 25, "Seus pontos foram ajustados: -15. Motivo: participação"},
		{"debit floored at zero", 5, -20, 0, "Seus pontos foram ajustados: -20. Motivo: participação"},
		{"zero delta", 7, 0, 7, "Seus pontos foram ajustados: 0. Motivo: participação"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := newTestDB(t)
			svc := newLedger(db)
			admin := createUser(t, db, "adm", "Admin", models.RoleAdmin, 0)
			student := createUser(t, db, "ana", "Ana", models.RoleStudent, tt.balance)

			result, err := svc.AdjustPoints(context.Background(), AdjustPointsInput{
				AdminID:   admin.ID,
				StudentID: student.ID,
				Delta:     tt.delta,
				Reason:    "  participação ",
			})
			if err != nil {
				t.Fatalf("AdjustPoints() error = %v", err)
			}
			if result.PreviousBalance != tt.balance || result.NewBalance != tt.wantBalance {
				t.Errorf("balances = %d -> %d, expected %d -> %d", result.PreviousBalance, result.NewBalance, tt.balance, tt.wantBalance)
			}
			if result.Adjustment.Points != tt.delta || result.Adjustment.AdminID != admin.ID {
				t.Errorf("adjustment = %+v", result.Adjustment)
			}
			if got := reloadUser(t, db, student.ID).Points; got != tt.wantBalance {
				t.Errorf("stored points = %d, expected %d", got, tt.wantBalance)
			}

			notes := notificationsFor(t, db, student.ID)
			if len(notes) != 1 || notes[0].Message != tt.wantMessage {
				t.Errorf("notifications = %+v, expected %q", notes, tt.wantMessage)
			}
		})
	}
}

func TestLedgerService_AdjustPointsErrors(t *testing.T) {
	db := newTestDB(t)
	svc := newLedger(db)
	ctx := context.Background()
	admin := createUser(t, db, "adm", "Admin", models.RoleAdmin, 0)
	teacher := createUser(t, db, "prof", "Prof", models.RoleTeacher, 50)
	student := createUser(t, db, "ana", "Ana", models.RoleStudent, 50)

	tests := []struct {
		name    string
		input   AdjustPointsInput
		wantErr error
	}{
		{"blank reason", AdjustPointsInput{AdminID: admin.ID, StudentID: student.ID, Delta: 5, Reason: " "}, ErrValidation},
		{"unknown student", AdjustPointsInput{AdminID: admin.ID, StudentID: 999, Delta: 5, Reason: "x"}, ErrNotFound},
		{"not a student", AdjustPointsInput{AdminID: admin.ID, StudentID: teacher.ID, Delta: 5, Reason: "x"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.AdjustPoints(ctx, tt.input); !errors.Is(err, tt.wantErr) {
				t.Errorf("AdjustPoints() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}

	if n := countRows(t, db, &models.PointAdjustment{}); n != 0 {
		t.Errorf("adjustments = %d, expected none after failures", n)
	}
	if got := reloadUser(t, db, teacher.ID).Points; got != 50 {
		t.Errorf("teacher points changed to %d", got)
	}
}

func TestLedgerService_BulkAdjustPoints(t *testing.T) {
	db := newTestDB(t)
	svc := newLedger(db)
	ctx := context.Background()
	admin := createUser(t, db, "adm", "Admin", models.RoleAdmin, 0)
	ana := createUser(t, db, "ana", "Ana", models.RoleStudent, 10)
	bia := createUser(t, db, "bia", "Bia", models.RoleStudent, 3)

	if _, err := svc.BulkAdjustPoints(ctx, BulkAdjustPointsInput{StudentIDs: []uint{ana.ID}, Delta: 1}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing reason error = %v, expected ErrValidation", err)
	}

	result, err := svc.BulkAdjustPoints(ctx, BulkAdjustPointsInput{
		AdminID:    admin.ID,
		StudentIDs: []uint{ana.ID, 777, bia.ID},
		Delta:      -5,
		Reason:     "atraso",
	})
	if err != nil {
		t.Fatalf("BulkAdjustPoints() error = %v", err)
	}
	if result.Succeeded != 2 || result.Failed != 1 {
		t.Errorf("result = %+v", result)
	}
	if result.Items[1].OK || !errors.Is(result.Items[1].Err, ErrNotFound) {
		t.Errorf("missing student item = %+v", result.Items[1])
	}
	if got := reloadUser(t, db, ana.ID).Points; got != 5 {
		t.Errorf("ana points = %d, expected 5", got)
	}
	if got := reloadUser(t, db, bia.ID).Points; got != 0 {
		t.Errorf("bia points = %d, expected 0", got)
	}

	history, err := svc.ListAdjustments(ctx, bia.ID)
	if err != nil {
		t.Fatalf("ListAdjustments() error = %v", err)
	}
	if len(history) != 1 || history[0].Points != -5 {
		t.Errorf("bia history = %+v", history)
	}
	all, _ := svc.ListAdjustments(ctx, 0)
	if len(all) != 2 {
		t.Errorf("all adjustments = %d, expected 2", len(all))
	}
}

func TestLedgerService_Redeem(t *testing.T) {
	db := newTestDB(t)
	svc := newLedger(db)
	svc.now = fixedClock(time.UnixMilli(1767225600000))
	svc.codeGen = func(now time.Time) (string, error) { return "IAJ-1767225600000-ABCDEFGHI", nil }
	ana := createUser(t, db, "ana", "Ana", models.RoleStudent, 80)
	garrafa := createProduct(t, db, "Garrafa térmica", 50, 2)

	result, err := svc.Redeem(context.Background(), ana.ID, garrafa.ID)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}
	if result.Code != "IAJ-1767225600000-ABCDEFGHI" || result.RemainingPoints != 30 {
		t.Errorf("result = %+v", result)
	}
	if result.Redemption.Status != models.RedemptionAwaitingPickup {
		t.Errorf("status = %q, expected %q", result.Redemption.Status, models.RedemptionAwaitingPickup)
	}

	if got := reloadUser(t, db, ana.ID).Points; got != 30 {
		t.Errorf("points = %d, expected 30", got)
	}
	var product models.Product
	db.First(&product, garrafa.ID)
	if product.Stock != 1 {
		t.Errorf("stock = %d, expected 1", product.Stock)
	}

	notes := notificationsFor(t, db, ana.ID)
	expected := "Parabéns! Você resgatou: Garrafa térmica. Código de retirada: IAJ-1767225600000-ABCDEFGHI"
	if len(notes) != 1 || notes[0].Message != expected {
		t.Errorf("notifications = %+v", notes)
	}
}

func TestLedgerService_RedeemFailures(t *testing.T) {
	db := newTestDB(t)
	svc := newLedger(db)
	ctx := context.Background()
	ana := createUser(t, db, "ana", "Ana", models.RoleStudent, 40)
	soldOut := createProduct(t, db, "Esgotado", 10, 0)
	pricey := createProduct(t, db, "Fone", 300, 5)

	tests := []struct {
		name      string
		userID    uint
		productID uint
		wantErr   error
	}{
		{"unknown product", ana.ID, 9999, ErrNotFound},
		{"out of stock", ana.ID, soldOut.ID, ErrOutOfStock},
		{"insufficient points", ana.ID, pricey.ID, ErrInsufficientPoints},
		{"unknown user", 9999, pricey.ID, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Redeem(ctx, tt.userID, tt.productID); !errors.Is(err, tt.wantErr) {
				t.Errorf("Redeem() error = %v, expected %v", err, tt.wantErr)
			}
		})
	}

	if got := reloadUser(t, db, ana.ID).Points; got != 40 {
		t.Errorf("points = %d, expected unchanged 40", got)
	}
	var product models.Product
	db.First(&product, pricey.ID)
	if product.Stock != 5 {
		t.Errorf("stock = %d, expected unchanged 5", product.Stock)
	}
	if n := countRows(t, db, &models.Redemption{}); n != 0 {
		t.Errorf("redemptions = %d, expected 0", n)
	}
	if n := countRows(t, db, &models.Notification{}); n != 0 {
		t.Errorf("notifications = %d, expected 0", n)
	}
}

func TestLedgerService_ConcurrentRedeemLastUnit(t *testing.T) {
	db := newTestDB(t)
	svc := newLedger(db)
	product := createProduct(t, db, "Última unidade", 10, 1)

	const buyers = 4
	users := make([]*models.User, buyers)
	for i := range users {
		users[i] = createUser(t, db, "aluno"+string(rune('a'+i)), "Aluno", models.RoleStudent, 100)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		outOfStk  int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID uint) {
			defer wg.Done()
			_, err := svc.Redeem(context.Background(), userID, product.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrOutOfStock):
				outOfStk++
			default:
				t.Errorf("Redeem() unexpected error = %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	if successes != 1 || outOfStk != buyers-1 {
		t.Errorf("successes = %d, out of stock = %d", successes, outOfStk)
	}

	var stored models.Product
	db.First(&stored, product.ID)
	if stored.Stock != 0 {
		t.Errorf("stock = %d, expected 0", stored.Stock)
	}
	if n := countRows(t, db, &models.Redemption{}); n != 1 {
		t.Errorf("redemptions = %d, expected 1", n)
	}

	var spent int64
	db.Model(&models.User{}).Where("points = ?", 90).Count(&spent)
	if spent != 1 {
		t.Errorf("users charged = %d, expected 1", spent)
	}
}

func TestCatalogService(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	catalog := NewCatalogService(db)
	ledger := newLedger(db)
	ana := createUser(t, db, "ana", "Ana", models.RoleStudent, 100)
	createProduct(t, db, "Caro", 90, 1)
	createProduct(t, db, "Barato", 20, 3)
	createProduct(t, db, "Sem estoque", 5, 0)

	products, err := catalog.AvailableProducts(ctx)
	if err != nil {
		t.Fatalf("AvailableProducts() error = %v", err)
	}
	if len(products) != 2 || products[0].Name != "Barato" || products[1].Name != "Caro" {
		t.Errorf("products = %+v", products)
	}

	redeemed, err := ledger.Redeem(ctx, ana.ID, products[0].ID)
	if err != nil {
		t.Fatalf("Redeem() error = %v", err)
	}

	mine, err := catalog.RedemptionsOf(ctx, ana.ID)
	if err != nil {
		t.Fatalf("RedemptionsOf() error = %v", err)
	}
	if len(mine) != 1 || mine[0].Product == nil || mine[0].Product.Name != "Barato" {
		t.Errorf("redemptions = %+v", mine)
	}

	delivered, err := catalog.MarkDelivered(ctx, redeemed.Redemption.ID)
	if err != nil {
		t.Fatalf("MarkDelivered() error = %v", err)
	}
	if delivered.Status != models.RedemptionDelivered {
		t.Errorf("status = %q, expected delivered", delivered.Status)
	}
	if _, err := catalog.MarkDelivered(ctx, redeemed.Redemption.ID); !errors.Is(err, ErrValidation) {
		t.Errorf("second delivery error = %v, expected ErrValidation", err)
	}
	if _, err := catalog.MarkDelivered(ctx, 12345); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown redemption error = %v, expected ErrNotFound", err)
	}
}
