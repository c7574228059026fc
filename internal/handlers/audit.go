package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/services"
)

// recordAudit attributes the entry to the authenticated caller and the
// client address of the request.
func recordAudit(c *gin.Context, audit *services.AuditService, action, description string, metadata map[string]interface{}) {
	if audit == nil {
		return
	}
	audit.Record(c.Request.Context(), services.AuditEntry{
		ActorID:     middleware.GetUserID(c),
		Action:      action,
		Description: description,
		Metadata:    metadata,
		IPAddress:   c.ClientIP(),
	})
}

func signed(n int) string {
	if n > 0 {
		return "+"
	}
	return ""
}
