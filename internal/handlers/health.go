package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/services"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	queue services.AuditQueue
}

func NewHealthHandler(db *gorm.DB, queue services.AuditQueue) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

// CheckHealth reports database reachability and the audit queue mode.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := http.StatusOK

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
		status = http.StatusServiceUnavailable
	}

	queueMode := "sync"
	if h.queue != nil && h.queue.IsAsync() {
		queueMode = "async (Redis)"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "iaejovem",
		"components": gin.H{
			"database":         dbStatus,
			"audit_queue_mode": queueMode,
		},
	})
}
