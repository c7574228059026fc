package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/config"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/internal/utils"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetJWTSecret("test-secret-for-handlers")
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// testApp wires every handler against an in-memory database.
type testApp struct {
	db       *gorm.DB
	router   *gin.Engine
	audit    *services.AuditService
	streamer *fakeStreamer
}

// fakeStreamer replays canned chunks, then returns err.
type fakeStreamer struct {
	chunks []string
	err    error
	req    services.ChatRequest
}

func (f *fakeStreamer) StreamChat(_ context.Context, req services.ChatRequest, onChunk func(string) error) error {
	f.req = req
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return err
		}
	}
	return f.err
}

func newTestApp(t *testing.T) *testApp {
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

	cfg := config.DefaultConfig()
	audit := services.NewAuditService(db, nil)
	notifier := services.NewNotificationService(db)
	ledger := services.NewLedgerService(db, notifier)
	conversations := services.NewConversationService(db, services.NewDailyGate(db, time.UTC), notifier, cfg.Rewards)

	authH := NewAuthHandler(services.NewAuthService(db, &cfg.JWT), audit)
	convH := NewConversationHandler(conversations, audit)
	storeH := NewStoreHandler(services.NewCatalogService(db), ledger, audit)
	notifH := NewNotificationHandler(notifier)
	adminH := NewAdminHandler(ledger, services.NewAssignmentService(db), notifier, audit)
	healthH := NewHealthHandler(db, nil)
	streamer := &fakeStreamer{}
	chatH := NewChatHandler(services.NewChatService(db, streamer))
	archiveH := NewYearArchiveHandler(services.NewYearArchiveService(db), audit)

	r := gin.New()
	r.GET("/health", healthH.CheckHealth)
	r.POST("/api/auth/login", authH.Login)

	api := r.Group("/api", middleware.AuthRequired())
	api.GET("/auth/me", authH.Me)
	api.POST("/user/accept-terms", authH.AcceptTerms)
	api.GET("/notifications", notifH.List)
	api.PUT("/notifications/:id/read", notifH.MarkRead)
	api.PUT("/notifications/read-all", notifH.MarkAllRead)

	student := api.Group("/student", middleware.RoleRequired(models.RoleStudent))
	student.POST("/chat", chatH.Stream)
	student.POST("/conversations/end", convH.End)
	student.GET("/conversations/daily-status", convH.DailyStatus)
	student.GET("/emotions", convH.Emotions)
	student.POST("/redemptions", storeH.Redeem)
	student.GET("/redemptions", storeH.MyRedemptions)

	admin := api.Group("/admin", middleware.RoleRequired(models.RoleAdmin))
	admin.POST("/point-adjustments", adminH.AdjustPoints)
	admin.GET("/point-adjustments", adminH.ListAdjustments)
	admin.POST("/bulk-actions", adminH.BulkAction)
	admin.GET("/audit-logs", adminH.ListAuditLogs)
	admin.POST("/redemptions/:id/deliver", storeH.Deliver)
	admin.GET("/year-archives", archiveH.List)
	admin.POST("/year-archives", archiveH.Create)
	admin.PATCH("/year-archives/:id", archiveH.UpdateStatus)
	admin.DELETE("/year-archives/:id", archiveH.Delete)

	return &testApp{db: db, router: r, audit: audit, streamer: streamer}
}

func (a *testApp) user(t *testing.T, username, name, role string, points int) (*models.User, string) {
	t.Helper()

	user := &models.User{Username: username, Name: name, Role: role, Points: points}
	if err := a.db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := utils.GenerateToken(user.ID, username, role, 1)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	return user, token
}

func (a *testApp) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func countAudit(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n)
	return n
}
