package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/documents/transfer"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// TransferOrderHandler serves the inter-warehouse transfer workflow.
type TransferOrderHandler struct {
	*BaseHandler
	service *transfer.Service
}

// NewTransferOrderHandler creates a transfer order handler.
func NewTransferOrderHandler(service *transfer.Service) *TransferOrderHandler {
	return &TransferOrderHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /documents/transfer-orders.
func (h *TransferOrderHandler) Create(c *gin.Context) {
	var req dto.CreateTransferOrderRequest
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

// Approve handles POST /documents/transfer-orders/:id/approve.
func (h *TransferOrderHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Approve(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "transfer order approved")
}

// Cancel handles POST /documents/transfer-orders/:id/cancel.
func (h *TransferOrderHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "transfer order cancelled")
}

// Get handles GET /documents/transfer-orders/:id.
func (h *TransferOrderHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromTransferOrder(doc))
}

// List handles GET /documents/transfer-orders.
func (h *TransferOrderHandler) List(c *gin.Context) {
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
	h.OK(c, dto.NewListResponse(result, dto.FromTransferOrders(result.Items)))
}
