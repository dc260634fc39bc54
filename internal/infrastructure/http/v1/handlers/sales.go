package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/documents/sales"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// SalesOrderHandler serves the sales order workflow.
type SalesOrderHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSalesOrderHandler creates a sales order handler.
func NewSalesOrderHandler(service *sales.Service) *SalesOrderHandler {
	return &SalesOrderHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /documents/sales-orders.
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req dto.CreateSalesOrderRequest
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

// Approve handles POST /documents/sales-orders/:id/approve.
func (h *SalesOrderHandler) Approve(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Approve(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "sales order approved")
}

// Reject handles POST /documents/sales-orders/:id/reject.
func (h *SalesOrderHandler) Reject(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Reject(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "sales order rejected")
}

// Get handles GET /documents/sales-orders/:id.
func (h *SalesOrderHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSalesOrder(doc))
}

// List handles GET /documents/sales-orders.
func (h *SalesOrderHandler) List(c *gin.Context) {
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
	h.OK(c, dto.NewListResponse(result, dto.FromSalesOrders(result.Items)))
}
