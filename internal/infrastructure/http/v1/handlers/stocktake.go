package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/documents/stocktake"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// StockTakeHandler serves the stock take workflow.
type StockTakeHandler struct {
	*BaseHandler
	service *stocktake.Service
}

// NewStockTakeHandler creates a stock take handler.
func NewStockTakeHandler(service *stocktake.Service) *StockTakeHandler {
	return &StockTakeHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /documents/stock-takes.
func (h *StockTakeHandler) Create(c *gin.Context) {
	var req dto.CreateStockTakeRequest
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

// Start handles POST /documents/stock-takes/:id/start.
func (h *StockTakeHandler) Start(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Start(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "stock take started")
}

// UpdateCounts handles PUT /documents/stock-takes/:id/counts.
func (h *StockTakeHandler) UpdateCounts(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateCountsRequest
	if !h.BindJSON(c, &req) {
		return
	}
	updates, err := req.ToUpdates()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.UpdateCounts(c.Request.Context(), docID, updates, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "counts recorded")
}

// Complete handles POST /documents/stock-takes/:id/complete.
func (h *StockTakeHandler) Complete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Complete(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "stock take completed")
}

// Cancel handles POST /documents/stock-takes/:id/cancel.
func (h *StockTakeHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "stock take cancelled")
}

// Get handles GET /documents/stock-takes/:id.
func (h *StockTakeHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockTake(doc))
}

// List handles GET /documents/stock-takes.
func (h *StockTakeHandler) List(c *gin.Context) {
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
	h.OK(c, dto.NewListResponse(result, dto.FromStockTakes(result.Items)))
}
