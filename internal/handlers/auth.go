package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/response"
)

type AuthHandler struct {
	auth  *services.AuthService
	audit *services.AuditService
}

func NewAuthHandler(auth *services.AuthService, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{auth: auth, audit: audit}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	// the caller is not authenticated yet, so the actor is set explicitly
	if h.audit != nil {
		h.audit.Record(c.Request.Context(), services.AuditEntry{
			ActorID:     result.User.ID,
			Action:      models.AuditLogin,
			Description: "Login realizado",
			IPAddress:   c.ClientIP(),
		})
	}
	response.Success(c, result)
}

// AcceptTerms handles POST /api/user/accept-terms
func (h *AuthHandler) AcceptTerms(c *gin.Context) {
	if err := h.auth.AcceptTerms(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"success": true})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, user)
}
