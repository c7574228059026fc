package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/logger"
	"github.com/iaejovem/backend/pkg/response"
)

type ChatHandler struct {
	chat *services.ChatService
}

func NewChatHandler(chat *services.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type ChatRequest struct {
	Messages []services.ChatMessage `json:"messages" binding:"required"`
}

// Stream handles POST /api/student/chat. The reply is written as plain text
// while it is generated. Errors before the first chunk get a JSON envelope;
// later errors just end the body.
func (h *ChatHandler) Stream(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	userID := middleware.GetUserID(c)
	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
	}

	err := h.chat.Stream(ctx, userID, req.Messages, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start()
		if _, err := io.WriteString(c.Writer, chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if !started {
			respondError(c, err)
			return
		}
		logger.Warn().Err(err).Uint("user_id", userID).Msg("chat stream interrupted")
		return
	}
	start()
	c.Writer.WriteHeaderNow()
}
