package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/domain/ledger"
	"stockyard/internal/infrastructure/http/v1/dto"
)

// StockHandler serves read access to the inventory ledger.
type StockHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(service *ledger.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// keyFromQuery reads the (warehouse, location, product) triple from query
// parameters. All three are required.
func (h *StockHandler) keyFromQuery(c *gin.Context) (ledger.Key, bool) {
	var key ledger.Key
	var err error

	if key.WarehouseID, err = id.Parse(c.Query("warehouseId")); err != nil {
		h.Error(c, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId"))
		return key, false
	}
	if key.LocationID, err = id.Parse(c.Query("locationId")); err != nil {
		h.Error(c, apperror.NewValidation("invalid location id").WithDetail("field", "locationId"))
		return key, false
	}
	if key.ProductID, err = id.Parse(c.Query("productId")); err != nil {
		h.Error(c, apperror.NewValidation("invalid product id").WithDetail("field", "productId"))
		return key, false
	}
	return key, true
}

// GetRecord handles GET /stock/record.
func (h *StockHandler) GetRecord(c *gin.Context) {
	key, ok := h.keyFromQuery(c)
	if !ok {
		return
	}

	rec, err := h.service.Query(c.Request.Context(), key)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromStockRecord(rec))
}

// ListByWarehouse handles GET /stock/warehouses/:id.
func (h *StockHandler) ListByWarehouse(c *gin.Context) {
	whID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	onlyPositive := c.Query("positiveOnly") != "false"

	records, err := h.service.ListByWarehouse(c.Request.Context(), whID, onlyPositive)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromStockRecords(records)
	h.OK(c, dto.ListResponse{Items: items, TotalCount: int64(len(items)), Limit: len(items)})
}

// Available handles GET /stock/warehouses/:id/products/:productId/available.
func (h *StockHandler) Available(c *gin.Context) {
	whID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	prodID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	available, err := h.service.AvailableInWarehouse(c.Request.Context(), whID, prodID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{
		"warehouseId": whID.String(),
		"productId":   prodID.String(),
		"available":   available,
	})
}

// History handles GET /stock/products/:id/history.
func (h *StockHandler) History(c *gin.Context) {
	prodID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	filter := ledger.HistoryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if v := c.Query("warehouseId"); v != "" {
		whID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId"))
			return
		}
		filter.WarehouseID = whID
	}
	if v := c.Query("locationId"); v != "" {
		locID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid location id").WithDetail("field", "locationId"))
			return
		}
		filter.LocationID = locID
	}
	for _, a := range c.QueryArray("action") {
		filter.Actions = append(filter.Actions, ledger.ActionType(a))
	}
	var ok2 bool
	if filter.From, ok2 = h.parseTimeQuery(c, "from"); !ok2 {
		return
	}
	if filter.To, ok2 = h.parseTimeQuery(c, "to"); !ok2 {
		return
	}

	entries, err := h.service.GetHistory(c.Request.Context(), prodID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromStockHistory(entries)
	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: int64(len(items)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Turnover handles GET /stock/turnover.
func (h *StockHandler) Turnover(c *gin.Context) {
	var filter ledger.TurnoverFilter
	if v := c.Query("warehouseId"); v != "" {
		whID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid warehouse id").WithDetail("field", "warehouseId"))
			return
		}
		filter.WarehouseID = whID
	}
	if v := c.Query("productId"); v != "" {
		prodID, err := id.Parse(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid product id").WithDetail("field", "productId"))
			return
		}
		filter.ProductID = prodID
	}
	var ok bool
	if filter.From, ok = h.parseTimeQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.parseTimeQuery(c, "to"); !ok {
		return
	}

	rows, err := h.service.GetTurnover(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: dto.FromTurnover(rows), TotalCount: int64(len(rows)), Limit: len(rows)})
}

// VerifyBalance handles GET /stock/verify.
func (h *StockHandler) VerifyBalance(c *gin.Context) {
	key, ok := h.keyFromQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	rec, err := h.service.Query(ctx, key)
	if err != nil {
		h.Error(c, err)
		return
	}
	sum, match, err := h.service.VerifyBalance(ctx, key)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BalanceCheckResponse{
		WarehouseID: key.WarehouseID.String(),
		LocationID:  key.LocationID.String(),
		ProductID:   key.ProductID.String(),
		OnHand:      rec.OnHand,
		HistorySum:  sum,
		Match:       match,
	})
}

// parseTimeQuery parses an RFC 3339 or date-only query parameter.
func (h *StockHandler) parseTimeQuery(c *gin.Context, key string) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true
	}
	h.Error(c, apperror.NewValidation("invalid time value").WithDetail("field", key))
	return time.Time{}, false
}
