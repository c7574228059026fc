package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/response"
)

type InsightsHandler struct {
	insights *services.InsightsService
	audit    *services.AuditService
}

func NewInsightsHandler(insights *services.InsightsService, audit *services.AuditService) *InsightsHandler {
	return &InsightsHandler{insights: insights, audit: audit}
}

type InsightsRequest struct {
	Type    string `json:"type" binding:"required,oneof=general student"`
	Filters struct {
		StudentID uint `json:"student_id"`
	} `json:"filters"`
}

// Generate handles POST /api/admin/insights
func (h *InsightsHandler) Generate(c *gin.Context) {
	var req InsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.insights.Generate(c.Request.Context(), services.InsightsRequest{
		Type:      req.Type,
		StudentID: req.Filters.StudentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	recordAudit(c, h.audit, models.AuditGenerateInsights,
		fmt.Sprintf("Gerou insights (%s)", req.Type),
		map[string]interface{}{"type": req.Type, "student_id": req.Filters.StudentID})
	response.Success(c, result)
}
