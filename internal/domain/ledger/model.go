// Package ledger provides the inventory quantity ledger. It is the only
// component permitted to change on-hand, locked and in-transit balances,
// and every change it makes is mirrored by an immutable history entry.
package ledger

import (
	"time"

	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
)

// ActionType classifies a history entry and determines the sign applied
// to the on-hand balance.
type ActionType string

const (
	// Increasing set
	ActionReceive        ActionType = "receive"
	ActionTransferIn     ActionType = "transfer_in"
	ActionAdjustIncrease ActionType = "adjust_increase"

	// Decreasing set
	ActionIssue          ActionType = "issue"
	ActionTransferOut    ActionType = "transfer_out"
	ActionAdjustDecrease ActionType = "adjust_decrease"

	// ActionStockTake carries its own signed delta; the caller passes the
	// already-signed counted-minus-system difference.
	ActionStockTake ActionType = "stock_take_adjustment"

	// Reservation entries. These never change on-hand and are excluded
	// from balance replay.
	ActionLock   ActionType = "lock"
	ActionUnlock ActionType = "unlock"

	// In-transit entries track quantities en route to a destination
	// between transfer creation and approval. Like reservations they do
	// not touch on-hand and are excluded from balance replay.
	ActionTransitIn  ActionType = "transit_in"
	ActionTransitOut ActionType = "transit_out"
)

// Sign returns +1 for increasing actions, -1 for decreasing actions and
// 0 for actions whose delta is caller-signed or that do not touch on-hand.
func (a ActionType) Sign() int {
	switch a {
	case ActionReceive, ActionTransferIn, ActionAdjustIncrease:
		return 1
	case ActionIssue, ActionTransferOut, ActionAdjustDecrease:
		return -1
	}
	return 0
}

// AffectsOnHand reports whether entries of this action type contribute to
// the on-hand balance when history is replayed.
func (a ActionType) AffectsOnHand() bool {
	switch a {
	case ActionLock, ActionUnlock, ActionTransitIn, ActionTransitOut:
		return false
	}
	return true
}

// Key identifies an inventory record: one product at one location of one warehouse.
type Key struct {
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	LocationID  id.ID `db:"location_id" json:"locationId"`
	ProductID   id.ID `db:"product_id" json:"productId"`
}

// Record is the live quantity state for a key. Records are created lazily on
// the first adjustment and never deleted, only zeroed.
type Record struct {
	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	LocationID  id.ID `db:"location_id" json:"locationId"`
	ProductID   id.ID `db:"product_id" json:"productId"`

	OnHand    types.Quantity `db:"on_hand" json:"onHand"`
	Locked    types.Quantity `db:"locked" json:"locked"`
	InTransit types.Quantity `db:"in_transit" json:"inTransit"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewRecord creates a zero-quantity record for a key.
func NewRecord(key Key) *Record {
	now := time.Now().UTC()
	return &Record{
		WarehouseID: key.WarehouseID,
		LocationID:  key.LocationID,
		ProductID:   key.ProductID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Key returns the record's identity triple.
func (r *Record) Key() Key {
	return Key{WarehouseID: r.WarehouseID, LocationID: r.LocationID, ProductID: r.ProductID}
}

// Available is on-hand minus locked: the quantity that can still be reserved.
func (r *Record) Available() types.Quantity {
	return r.OnHand - r.Locked
}

// HistoryEntry is one immutable, signed quantity-change record.
// Entries are append-only and never updated or deleted.
type HistoryEntry struct {
	ID id.ID `db:"id" json:"id"`

	WarehouseID id.ID `db:"warehouse_id" json:"warehouseId"`
	LocationID  id.ID `db:"location_id" json:"locationId"`
	ProductID   id.ID `db:"product_id" json:"productId"`

	// QuantityChange is the exact signed delta applied (positive for
	// increases, negative for decreases).
	QuantityChange types.Quantity `db:"quantity_change" json:"quantityChange"`

	Action ActionType `db:"action" json:"action"`

	// ReferenceCode is the code of the document that caused the change.
	ReferenceCode string `db:"reference_code" json:"referenceCode,omitempty"`

	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NewHistoryEntry creates a history entry for a key with the given signed delta.
func NewHistoryEntry(key Key, change types.Quantity, action ActionType, refCode, note string) HistoryEntry {
	return HistoryEntry{
		ID:             id.New(),
		WarehouseID:    key.WarehouseID,
		LocationID:     key.LocationID,
		ProductID:      key.ProductID,
		QuantityChange: change,
		Action:         action,
		ReferenceCode:  refCode,
		Note:           note,
		CreatedAt:      time.Now().UTC(),
	}
}
