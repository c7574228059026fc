package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/response"
)

type ConversationHandler struct {
	conversations *services.ConversationService
	audit         *services.AuditService
}

func NewConversationHandler(conversations *services.ConversationService, audit *services.AuditService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, audit: audit}
}

type EndConversationRequest struct {
	Messages []services.Turn `json:"messages"`
	Duration *int            `json:"duration" binding:"required"`
}

// End handles POST /api/student/conversations/end
func (h *ConversationHandler) End(c *gin.Context) {
	var req EndConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.conversations.Submit(c.Request.Context(), services.SubmitConversationInput{
		UserID:          middleware.GetUserID(c),
		Turns:           req.Messages,
		DurationSeconds: *req.Duration,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Saved {
		recordAudit(c, h.audit, models.AuditEndConversation,
			fmt.Sprintf("Encerrou conversa com score %g (%s)", result.Score, result.Emotion),
			map[string]interface{}{
				"conversation_id": result.ConversationID,
				"duration":        *req.Duration,
				"points_awarded":  result.PointsAwarded,
			})
	}
	response.Success(c, result)
}

// DailyStatus handles GET /api/student/conversations/daily-status
func (h *ConversationHandler) DailyStatus(c *gin.Context) {
	status, err := h.conversations.DailyStatus(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, status)
}

// Stats handles GET /api/student/stats
func (h *ConversationHandler) Stats(c *gin.Context) {
	stats, err := h.conversations.Stats(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, stats)
}

// Emotions handles GET /api/student/emotions?days=30
func (h *ConversationHandler) Emotions(c *gin.Context) {
	days := 0
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 365 {
			response.BadRequest(c, "days must be between 1 and 365")
			return
		}
		days = n
	}

	history, err := h.conversations.EmotionHistory(c.Request.Context(), middleware.GetUserID(c), days)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, history)
}
