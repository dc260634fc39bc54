package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/documents/receipt"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// GoodsReceiptHandler serves the goods receipt workflow.
type GoodsReceiptHandler struct {
	*BaseHandler
	service *receipt.Service
}

// NewGoodsReceiptHandler creates a goods receipt handler.
func NewGoodsReceiptHandler(service *receipt.Service) *GoodsReceiptHandler {
	return &GoodsReceiptHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /documents/goods-receipts.
func (h *GoodsReceiptHandler) Create(c *gin.Context) {
	var req dto.CreateGoodsReceiptRequest
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

// Cancel handles POST /documents/goods-receipts/:id/cancel.
func (h *GoodsReceiptHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "goods receipt cancelled")
}

// Get handles GET /documents/goods-receipts/:id.
func (h *GoodsReceiptHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsReceipt(doc))
}

// List handles GET /documents/goods-receipts.
func (h *GoodsReceiptHandler) List(c *gin.Context) {
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
	h.OK(c, dto.NewListResponse(result, dto.FromGoodsReceipts(result.Items)))
}
