package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/documents/issue"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// GoodsIssueHandler serves the goods issue workflow.
type GoodsIssueHandler struct {
	*BaseHandler
	service *issue.Service
}

// NewGoodsIssueHandler creates a goods issue handler.
func NewGoodsIssueHandler(service *issue.Service) *GoodsIssueHandler {
	return &GoodsIssueHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /documents/goods-issues.
func (h *GoodsIssueHandler) Create(c *gin.Context) {
	var req dto.CreateGoodsIssueRequest
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

// StartPicking handles POST /documents/goods-issues/:id/start-picking.
func (h *GoodsIssueHandler) StartPicking(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.StartPicking(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "picking started")
}

// Complete handles POST /documents/goods-issues/:id/complete.
func (h *GoodsIssueHandler) Complete(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Complete(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "goods issue completed")
}

// Cancel handles POST /documents/goods-issues/:id/cancel.
func (h *GoodsIssueHandler) Cancel(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Cancel(c.Request.Context(), docID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "goods issue cancelled")
}

// Get handles GET /documents/goods-issues/:id.
func (h *GoodsIssueHandler) Get(c *gin.Context) {
	docID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromGoodsIssue(doc))
}

// List handles GET /documents/goods-issues.
func (h *GoodsIssueHandler) List(c *gin.Context) {
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
	h.OK(c, dto.NewListResponse(result, dto.FromGoodsIssues(result.Items)))
}
