package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/response"
)

type YearArchiveHandler struct {
	archives *services.YearArchiveService
	audit    *services.AuditService
}

func NewYearArchiveHandler(archives *services.YearArchiveService, audit *services.AuditService) *YearArchiveHandler {
	return &YearArchiveHandler{archives: archives, audit: audit}
}

// List handles GET /api/admin/year-archives
func (h *YearArchiveHandler) List(c *gin.Context) {
	archives, err := h.archives.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, archives)
}

type CreateYearArchiveRequest struct {
	Year        string `json:"year" binding:"required"`
	Description string `json:"description"`
}

// Create handles POST /api/admin/year-archives
func (h *YearArchiveHandler) Create(c *gin.Context) {
	var req CreateYearArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	archive, err := h.archives.Create(c.Request.Context(), middleware.GetUserID(c), req.Year, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	recordAudit(c, h.audit, models.AuditArchiveYear,
		fmt.Sprintf("Criou arquivo para o ano letivo %s", archive.Year),
		map[string]interface{}{
			"year":                archive.Year,
			"description":         archive.Description,
			"total_students":      archive.TotalStudents,
			"total_points":        archive.TotalPoints,
			"total_conversations": archive.TotalConversations,
		})
	response.Created(c, archive)
}

type UpdateYearArchiveRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE ARCHIVED"`
}

// UpdateStatus handles PATCH /api/admin/year-archives/:id
func (h *YearArchiveHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateYearArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	archive, err := h.archives.SetStatus(c.Request.Context(), middleware.GetUserID(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	action, verb := models.AuditRestoreArchive, "Restaurou"
	if archive.Status == models.ArchiveArchived {
		action, verb = models.AuditArchiveYear, "Arquivou"
	}
	recordAudit(c, h.audit, action,
		fmt.Sprintf("%s o ano letivo %s", verb, archive.Year),
		map[string]interface{}{
			"archive_id": archive.ID,
			"year":       archive.Year,
			"status":     archive.Status,
		})
	response.Success(c, archive)
}

// Delete handles DELETE /api/admin/year-archives/:id
func (h *YearArchiveHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	archive, err := h.archives.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	recordAudit(c, h.audit, models.AuditArchiveYear,
		fmt.Sprintf("Excluiu o arquivo do ano letivo %s", archive.Year),
		map[string]interface{}{
			"archive_id": archive.ID,
			"year":       archive.Year,
		})
	response.Success(c, gin.H{"success": true})
}
