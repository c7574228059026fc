package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/response"
)

const (
	BulkAssignTeacher    = "assign_teacher"
	BulkAdjustPoints     = "adjust_points"
	BulkSendNotification = "send_notification"
)

type AdminHandler struct {
	ledger        *services.LedgerService
	assignments   *services.AssignmentService
	notifications *services.NotificationService
	audit         *services.AuditService
}

func NewAdminHandler(
	ledger *services.LedgerService,
	assignments *services.AssignmentService,
	notifications *services.NotificationService,
	audit *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		ledger:        ledger,
		assignments:   assignments,
		notifications: notifications,
		audit:         audit,
	}
}

type AdjustPointsRequest struct {
	UserID uint   `json:"user_id" binding:"required"`
	Points *int   `json:"points" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AdjustPoints handles POST /api/admin/point-adjustments
func (h *AdminHandler) AdjustPoints(c *gin.Context) {
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledger.AdjustPoints(c.Request.Context(), services.AdjustPointsInput{
		AdminID:   middleware.GetUserID(c),
		StudentID: req.UserID,
		Delta:     *req.Points,
		Reason:    req.Reason,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	student := result.Student
	recordAudit(c, h.audit, models.AuditAdjustPoints,
		fmt.Sprintf("Ajustou %s%d pontos para %s (%s)", signed(*req.Points), *req.Points, student.Name, student.Matricula),
		map[string]interface{}{
			"student_id":        student.ID,
			"student_name":      student.Name,
			"student_matricula": student.Matricula,
			"points_adjusted":   *req.Points,
			"previous_points":   result.PreviousBalance,
			"new_points":        result.NewBalance,
			"reason":            strings.TrimSpace(req.Reason),
		})
	response.Success(c, result)
}

// ListAdjustments handles GET /api/admin/point-adjustments?user_id=
func (h *AdminHandler) ListAdjustments(c *gin.Context) {
	var userID uint
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			response.BadRequest(c, "invalid user_id")
			return
		}
		userID = uint(id)
	}

	items, err := h.ledger.ListAdjustments(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, items)
}

// BulkActionRequest carries one of the bulk actions; which optional fields
// are needed depends on Action.
type BulkActionRequest struct {
	Action     string `json:"action" binding:"required,oneof=assign_teacher adjust_points send_notification"`
	StudentIDs []uint `json:"student_ids" binding:"required,min=1"`
	TeacherID  uint   `json:"teacher_id"`
	Points     *int   `json:"points"`
	Reason     string `json:"reason"`
	Message    string `json:"message"`
}

type BulkActionResponse struct {
	Action string                `json:"action"`
	Count  int                   `json:"count"`
	Result *services.BatchResult `json:"result"`
}

// BulkAction handles POST /api/admin/bulk-actions
func (h *AdminHandler) BulkAction(c *gin.Context) {
	var req BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	adminID := middleware.GetUserID(c)
	n := len(req.StudentIDs)

	var (
		result      *services.BatchResult
		err         error
		description string
		metadata    = map[string]interface{}{"action": req.Action, "student_ids": req.StudentIDs, "count": n}
	)

	switch req.Action {
	case BulkAssignTeacher:
		if req.TeacherID == 0 {
			response.BadRequest(c, "teacher_id is required")
			return
		}
		result, err = h.assignments.BulkAssignTeacher(ctx, services.BulkAssignInput{
			AdminID: adminID, StudentIDs: req.StudentIDs, TeacherID: req.TeacherID,
		})
		description = fmt.Sprintf("Atribuiu %d alunos ao professor", n)
		metadata["teacher_id"] = req.TeacherID

	case BulkAdjustPoints:
		if req.Points == nil {
			response.BadRequest(c, "points is required")
			return
		}
		result, err = h.ledger.BulkAdjustPoints(ctx, services.BulkAdjustPointsInput{
			AdminID: adminID, StudentIDs: req.StudentIDs, Delta: *req.Points, Reason: req.Reason,
		})
		description = fmt.Sprintf("Ajustou pontos de %d alunos (%s%d)", n, signed(*req.Points), *req.Points)
		metadata["points"] = *req.Points
		metadata["reason"] = req.Reason

	case BulkSendNotification:
		message := req.Message
		if message == "" {
			message = req.Reason
		}
		result, err = h.notifications.BulkNotify(ctx, services.BulkNotifyInput{
			AdminID: adminID, StudentIDs: req.StudentIDs, Message: message,
		})
		description = fmt.Sprintf("Enviou notificação para %d alunos", n)
		metadata["message"] = message
	}
	if err != nil {
		respondError(c, err)
		return
	}

	metadata["succeeded"] = result.Succeeded
	metadata["failed"] = result.Failed
	recordAudit(c, h.audit, models.AuditBulkAction, description, metadata)

	response.Success(c, BulkActionResponse{Action: req.Action, Count: result.Succeeded, Result: result})
}

// ListAuditLogs handles GET /api/admin/audit-logs
func (h *AdminHandler) ListAuditLogs(c *gin.Context) {
	var req services.AuditLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.audit.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, resp)
}

// StudentsOfTeacher handles GET /api/teacher/students
func (h *AdminHandler) StudentsOfTeacher(c *gin.Context) {
	students, err := h.assignments.StudentsOf(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, students)
}
