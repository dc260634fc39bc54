package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/documents/purchase"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// PurchaseOrderHandler serves the purchase order workflow.
type PurchaseOrderHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseOrderHandler creates a purchase order handler.
func NewPurchaseOrderHandler(service *purchase.Service) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /documents/purchase-orders.
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := req.ToEntity(h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc.ID.String())
}

// Approve handles POST /documents/purchase-orders/:id/approve.
func (h *PurchaseOrderHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Approve(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "purchase order approved")
}

// Reject handles POST /documents/purchase-orders/:id/reject.
func (h *PurchaseOrderHandler) Reject(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Reject(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "purchase order rejected")
}

// Get handles GET /documents/purchase-orders/:id.
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromPurchaseOrder(doc))
}

// List handles GET /documents/purchase-orders.
func (h *PurchaseOrderHandler) List(c *gin.Context) {
	var req dto.ListFilterRequest
	if !h.BindQuery(c, &req) {
		return
	}
	filter, err := req.ToFilter()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewListResponse(result, dto.FromPurchaseOrders(result.Items)))
}
