package dto

import (
	"time"

	"stockyard/internal/core/types"
	"stockyard/internal/domain/ledger"
)

// --- Responses ---

// StockRecordResponse represents the live balance of one inventory key.
type StockRecordResponse struct {
	WarehouseID string         `json:"warehouseId"`
	LocationID  string         `json:"locationId"`
	ProductID   string         `json:"productId"`
	OnHand      types.Quantity `json:"onHand"`
	Locked      types.Quantity `json:"locked"`
	InTransit   types.Quantity `json:"inTransit"`
	Available   types.Quantity `json:"available"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// FromStockRecord converts a ledger record to a response DTO.
func FromStockRecord(r *ledger.Record) *StockRecordResponse {
	return &StockRecordResponse{
		WarehouseID: r.WarehouseID.String(),
		LocationID:  r.LocationID.String(),
		ProductID:   r.ProductID.String(),
		OnHand:      r.OnHand,
		Locked:      r.Locked,
		InTransit:   r.InTransit,
		Available:   r.Available(),
		UpdatedAt:   r.UpdatedAt,
	}
}

// FromStockRecords converts a slice of ledger records.
func FromStockRecords(records []ledger.Record) []*StockRecordResponse {
	out := make([]*StockRecordResponse, len(records))
	for i := range records {
		out[i] = FromStockRecord(&records[i])
	}
	return out
}

// StockHistoryEntryResponse represents one signed quantity change.
type StockHistoryEntryResponse struct {
	ID             string         `json:"id"`
	WarehouseID    string         `json:"warehouseId"`
	LocationID     string         `json:"locationId"`
	ProductID      string         `json:"productId"`
	QuantityChange types.Quantity `json:"quantityChange"`
	Action         string         `json:"action"`
	ReferenceCode  string         `json:"referenceCode,omitempty"`
	Note           string         `json:"note,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// FromStockHistory converts history entries to response DTOs.
func FromStockHistory(entries []ledger.HistoryEntry) []*StockHistoryEntryResponse {
	out := make([]*StockHistoryEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = &StockHistoryEntryResponse{
			ID:             e.ID.String(),
			WarehouseID:    e.WarehouseID.String(),
			LocationID:     e.LocationID.String(),
			ProductID:      e.ProductID.String(),
			QuantityChange: e.QuantityChange,
			Action:         string(e.Action),
			ReferenceCode:  e.ReferenceCode,
			Note:           e.Note,
			CreatedAt:      e.CreatedAt,
		}
	}
	return out
}

// TurnoverResponse represents aggregated movement for one product.
type TurnoverResponse struct {
	ProductID   string         `json:"productId"`
	WarehouseID string         `json:"warehouseId"`
	Inbound     types.Quantity `json:"inbound"`
	Outbound    types.Quantity `json:"outbound"`
}

// FromTurnover converts turnover rows to response DTOs.
func FromTurnover(rows []ledger.Turnover) []*TurnoverResponse {
	out := make([]*TurnoverResponse, len(rows))
	for i, t := range rows {
		out[i] = &TurnoverResponse{
			ProductID:   t.ProductID.String(),
			WarehouseID: t.WarehouseID.String(),
			Inbound:     t.Inbound,
			Outbound:    t.Outbound,
		}
	}
	return out
}

// BalanceCheckResponse reports a record/history consistency check.
type BalanceCheckResponse struct {
	WarehouseID string         `json:"warehouseId"`
	LocationID  string         `json:"locationId"`
	ProductID   string         `json:"productId"`
	OnHand      types.Quantity `json:"onHand"`
	HistorySum  types.Quantity `json:"historySum"`
	Match       bool           `json:"match"`
}
