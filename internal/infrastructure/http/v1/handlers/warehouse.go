package handlers

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/domain/directory"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// WarehouseHandler serves warehouses and their storage locations.
type WarehouseHandler struct {
	*BaseHandler
	service *directory.Service
}

// NewWarehouseHandler creates a warehouse handler.
func NewWarehouseHandler(service *directory.Service) *WarehouseHandler {
	return &WarehouseHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles POST /directory/warehouses.
func (h *WarehouseHandler) Create(c *gin.Context) {
	var req dto.CreateWarehouseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	wh := req.ToEntity()
	if err := h.service.CreateWarehouse(c.Request.Context(), wh); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, wh.ID.String())
}

// List handles GET /directory/warehouses.
func (h *WarehouseHandler) List(c *gin.Context) {
	activeOnly := c.Query("activeOnly") == "true"

	warehouses, err := h.service.ListWarehouses(c.Request.Context(), activeOnly)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.WarehouseResponse, len(warehouses))
	for i := range warehouses {
		items[i] = dto.FromWarehouse(&warehouses[i])
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Get handles GET /directory/warehouses/:id.
func (h *WarehouseHandler) Get(c *gin.Context) {
	whID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	wh, err := h.service.GetWarehouse(c.Request.Context(), whID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromWarehouse(wh))
}

// Lock handles POST /directory/warehouses/:id/lock.
func (h *WarehouseHandler) Lock(c *gin.Context) {
	h.setLocked(c, true)
}

// Unlock handles POST /directory/warehouses/:id/unlock.
func (h *WarehouseHandler) Unlock(c *gin.Context) {
	h.setLocked(c, false)
}

func (h *WarehouseHandler) setLocked(c *gin.Context, locked bool) {
	whID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.SetWarehouseLocked(c.Request.Context(), whID, locked); err != nil {
		h.Error(c, err)
		return
	}
	if locked {
		h.Success(c, "warehouse locked")
		return
	}
	h.Success(c, "warehouse unlocked")
}

// ListLocations handles GET /directory/warehouses/:id/locations.
func (h *WarehouseHandler) ListLocations(c *gin.Context) {
	whID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	locations, err := h.service.ListLocations(c.Request.Context(), whID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]*dto.LocationResponse, len(locations))
	for i := range locations {
		items[i] = dto.FromLocation(&locations[i])
	}
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// CreateLocation handles POST /directory/warehouses/:id/locations.
func (h *WarehouseHandler) CreateLocation(c *gin.Context) {
	whID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.CreateLocationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	loc := directory.NewLocation(whID, req.Code, req.Name, directory.LocationKind(req.Kind))
	loc.IsDefault = req.IsDefault

	if err := h.service.CreateLocation(c.Request.Context(), loc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, loc.ID.String())
}
