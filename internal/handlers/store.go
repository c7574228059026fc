package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/iaejovem/backend/internal/middleware"
	"github.com/iaejovem/backend/internal/models"
	"github.com/iaejovem/backend/internal/services"
	"github.com/iaejovem/backend/pkg/response"
)

// StoreHandler serves the rewards catalog and redemptions.
type StoreHandler struct {
	catalog *services.CatalogService
	ledger  *services.LedgerService
	audit   *services.AuditService
}

func NewStoreHandler(catalog *services.CatalogService, ledger *services.LedgerService, audit *services.AuditService) *StoreHandler {
	return &StoreHandler{catalog: catalog, ledger: ledger, audit: audit}
}

type RedeemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// Products handles GET /api/student/products
func (h *StoreHandler) Products(c *gin.Context) {
	products, err := h.catalog.AvailableProducts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, products)
}

// Redeem handles POST /api/student/redemptions
func (h *StoreHandler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.ledger.Redeem(c.Request.Context(), middleware.GetUserID(c), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}

	productName := ""
	if result.Redemption.Product != nil {
		productName = result.Redemption.Product.Name
	}
	recordAudit(c, h.audit, models.AuditRedeemProduct,
		fmt.Sprintf("Resgatou %s (código %s)", productName, result.Code),
		map[string]interface{}{
			"product_id":       req.ProductID,
			"redemption_id":    result.Redemption.ID,
			"code":             result.Code,
			"remaining_points": result.RemainingPoints,
		})
	response.Created(c, result)
}

// MyRedemptions handles GET /api/student/redemptions
func (h *StoreHandler) MyRedemptions(c *gin.Context) {
	items, err := h.catalog.RedemptionsOf(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, items)
}

// Deliver handles POST /api/admin/redemptions/:id/deliver
func (h *StoreHandler) Deliver(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	redemption, err := h.catalog.MarkDelivered(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	recordAudit(c, h.audit, models.AuditDeliverProduct,
		fmt.Sprintf("Entregou resgate %s", redemption.Code),
		map[string]interface{}{"redemption_id": redemption.ID, "user_id": redemption.UserID})
	response.Success(c, redemption)
}
