package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/directory"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// ProductHandler serves the product catalog.
type ProductHandler struct {
	*BaseHandler
	service *directory.Service
}

// NewProductHandler creates a product handler.
func NewProductHandler(service *directory.Service) *ProductHandler {
	return &ProductHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /directory/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToEntity()
	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, p.ID.String())
}

// List handles GET /directory/products.
func (h *ProductHandler) List(c *gin.Context) {
	activeOnly := c.Query("activeOnly") == "true"

	products, err := h.service.ListProducts(c.Request.Context(), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.ProductResponse, len(products))
	for i := range products {
		items[i] = dto.FromProduct(&products[i])
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Get handles GET /directory/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	prodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(c.Request.Context(), prodID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromProduct(p))
}
