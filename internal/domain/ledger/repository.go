package ledger

import (
	"context"
	"time"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// HistoryFilter narrows history queries. Zero values mean "no constraint".
type HistoryFilter struct {
	WarehouseID id.ID
	LocationID  id.ID
	From        time.Time
	To          time.Time
	Actions     []ActionType
	Limit       int
	Offset      int
}

// TurnoverFilter selects the period and scope for turnover aggregation.
type TurnoverFilter struct {
	WarehouseID id.ID
	ProductID   id.ID
	From        time.Time
	To          time.Time
}

// Turnover is the aggregated inbound/outbound movement for a period.
type Turnover struct {
	ProductID   id.ID          `db:"product_id" json:"productId"`
	WarehouseID id.ID          `db:"warehouse_id" json:"warehouseId"`
	Inbound     types.Quantity `db:"inbound" json:"inbound"`
	Outbound    types.Quantity `db:"outbound" json:"outbound"`
}

// Repository is the persistence contract for inventory records and history.
//
// All mutating methods participate in the transaction bound to ctx; the
// *ForUpdate variant takes a row lock that is held until the transaction
// ends, serializing concurrent changes to the same key.
type Repository interface {
	// GetRecord returns the record for key, or a NotFound error.
	GetRecord(ctx context.Context, key Key) (*Record, error)

	// GetRecordForUpdate is GetRecord with SELECT ... FOR UPDATE semantics.
	GetRecordForUpdate(ctx context.Context, key Key) (*Record, error)

	// CreateRecord inserts a new (normally zero-quantity) record.
	CreateRecord(ctx context.Context, rec *Record) error

	// UpdateQuantities persists new balances for key.
	UpdateQuantities(ctx context.Context, key Key, onHand, locked, inTransit types.Quantity) error

	// AppendHistory inserts one immutable history entry.
	AppendHistory(ctx context.Context, entry HistoryEntry) error

	// ListByWarehouse returns records for a warehouse, optionally only
	// those with positive on-hand, ordered by location then product.
	ListByWarehouse(ctx context.Context, warehouseID id.ID, onlyPositive bool) ([]Record, error)

	// GetHistoryByProduct returns history entries for a product, newest first.
	GetHistoryByProduct(ctx context.Context, productID id.ID, filter HistoryFilter) ([]HistoryEntry, error)

	// SumOnHandHistory replays history for key: the sum of quantity
	// changes over entries whose action affects on-hand.
	SumOnHandHistory(ctx context.Context, key Key) (types.Quantity, error)

	// GetTurnover aggregates inbound and outbound movement per product.
	GetTurnover(ctx context.Context, filter TurnoverFilter) ([]Turnover, error)
}
