package ledger

import (
	"context"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/tx"
	"stockyard/internal/core/types"
	"stockyard/pkg/logger"
)

// Service applies quantity changes to inventory records. Every mutation
// runs inside a transaction (joining the caller's when one is already
// bound to ctx), locks the affected record row, and appends exactly one
// history entry per change.
type Service struct {
	repo      Repository
	txManager tx.Manager
}

func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{repo: repo, txManager: txManager}
}

// Adjust applies a stock-affecting change to the record identified by key.
//
// For all actions except stock-take adjustment, quantity must be positive
// and the sign comes from the action type. For ActionStockTake the caller
// passes the already-signed counted-minus-system difference.
//
// The record is created lazily on first adjustment. A decrease is
// limited to the available (unlocked) balance: if it would drive
// on-hand negative, or below the locked quantity, the adjustment fails
// and nothing is written.
func (s *Service) Adjust(ctx context.Context, key Key, quantity types.Quantity, action ActionType, refCode, note string) error {
	var delta types.Quantity
	switch {
	case action == ActionStockTake:
		if quantity == 0 {
			return apperror.NewValidation("stock take adjustment quantity must be non-zero")
		}
		delta = quantity
	case action.Sign() != 0:
		if quantity <= 0 {
			return apperror.NewValidation("quantity must be positive")
		}
		delta = quantity * types.Quantity(action.Sign())
	default:
		return apperror.NewValidation("action type " + string(action) + " is not a stock adjustment")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.lockOrCreate(ctx, key)
		if err != nil {
			return err
		}

		newOnHand := rec.OnHand + delta
		if newOnHand < 0 {
			return apperror.NewInsufficientStock(
				key.WarehouseID.String(), key.LocationID.String(), key.ProductID.String(),
				(-delta).String(), rec.OnHand.String(),
			)
		}
		// Locked never exceeds on-hand: reserved quantities cannot be
		// adjusted away under a pending reservation.
		if delta < 0 && newOnHand < rec.Locked {
			return apperror.NewInsufficientAvailable(
				key.WarehouseID.String(), key.LocationID.String(), key.ProductID.String(),
				(-delta).String(), rec.Available().String(),
			)
		}

		if err := s.repo.UpdateQuantities(ctx, key, newOnHand, rec.Locked, rec.InTransit); err != nil {
			return err
		}
		if err := s.repo.AppendHistory(ctx, NewHistoryEntry(key, delta, action, refCode, note)); err != nil {
			return err
		}

		logger.Debug(ctx, "inventory adjusted",
			"product_id", key.ProductID,
			"location_id", key.LocationID,
			"action", action,
			"delta", delta,
			"on_hand", newOnHand,
		)
		return nil
	})
}

// LockStock reserves quantity against the record's available balance.
// On-hand is unchanged; locked grows by quantity.
func (s *Service) LockStock(ctx context.Context, key Key, quantity types.Quantity, refCode, note string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetRecordForUpdate(ctx, key)
		if err != nil {
			return err
		}

		if rec.Available() < quantity {
			return apperror.NewInsufficientAvailable(
				key.WarehouseID.String(), key.LocationID.String(), key.ProductID.String(),
				quantity.String(), rec.Available().String(),
			)
		}

		if err := s.repo.UpdateQuantities(ctx, key, rec.OnHand, rec.Locked+quantity, rec.InTransit); err != nil {
			return err
		}
		return s.repo.AppendHistory(ctx, NewHistoryEntry(key, quantity, ActionLock, refCode, note))
	})
}

// UnlockStock releases a previously taken reservation.
func (s *Service) UnlockStock(ctx context.Context, key Key, quantity types.Quantity, refCode, note string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetRecordForUpdate(ctx, key)
		if err != nil {
			return err
		}

		if rec.Locked < quantity {
			return apperror.NewOverUnlock(
				key.WarehouseID.String(), key.LocationID.String(), key.ProductID.String(),
				quantity.String(), rec.Locked.String(),
			)
		}

		if err := s.repo.UpdateQuantities(ctx, key, rec.OnHand, rec.Locked-quantity, rec.InTransit); err != nil {
			return err
		}
		return s.repo.AppendHistory(ctx, NewHistoryEntry(key, -quantity, ActionUnlock, refCode, note))
	})
}

// IssueLocked consumes a reservation: both on-hand and locked drop by
// quantity in one step. Used when a locked quantity physically leaves
// stock (sales issue, transfer out of the source location).
func (s *Service) IssueLocked(ctx context.Context, key Key, quantity types.Quantity, action ActionType, refCode, note string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}
	if action.Sign() != -1 {
		return apperror.NewValidation("action type " + string(action) + " is not a stock decrease")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetRecordForUpdate(ctx, key)
		if err != nil {
			return err
		}

		if rec.Locked < quantity {
			return apperror.NewOverUnlock(
				key.WarehouseID.String(), key.LocationID.String(), key.ProductID.String(),
				quantity.String(), rec.Locked.String(),
			)
		}
		if rec.OnHand < quantity {
			return apperror.NewInsufficientStock(
				key.WarehouseID.String(), key.LocationID.String(), key.ProductID.String(),
				quantity.String(), rec.OnHand.String(),
			)
		}

		if err := s.repo.UpdateQuantities(ctx, key, rec.OnHand-quantity, rec.Locked-quantity, rec.InTransit); err != nil {
			return err
		}
		if err := s.repo.AppendHistory(ctx, NewHistoryEntry(key, -quantity, ActionUnlock, refCode, note)); err != nil {
			return err
		}
		return s.repo.AppendHistory(ctx, NewHistoryEntry(key, -quantity, action, refCode, note))
	})
}

// AddInTransit records quantity en route to key. On-hand and locked are
// unchanged; the record is created lazily because the destination may
// never have held the product before.
func (s *Service) AddInTransit(ctx context.Context, key Key, quantity types.Quantity, refCode, note string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.lockOrCreate(ctx, key)
		if err != nil {
			return err
		}

		if err := s.repo.UpdateQuantities(ctx, key, rec.OnHand, rec.Locked, rec.InTransit+quantity); err != nil {
			return err
		}
		return s.repo.AppendHistory(ctx, NewHistoryEntry(key, quantity, ActionTransitIn, refCode, note))
	})
}

// RemoveInTransit clears a previously recorded expected arrival, either
// because the quantity was received or the transfer was cancelled.
func (s *Service) RemoveInTransit(ctx context.Context, key Key, quantity types.Quantity, refCode, note string) error {
	if quantity <= 0 {
		return apperror.NewValidation("quantity must be positive")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rec, err := s.repo.GetRecordForUpdate(ctx, key)
		if err != nil {
			return err
		}

		if rec.InTransit < quantity {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "in-transit release exceeds recorded quantity").
				WithDetail("productId", key.ProductID.String()).
				WithDetail("requested", quantity.String()).
				WithDetail("inTransit", rec.InTransit.String())
		}

		if err := s.repo.UpdateQuantities(ctx, key, rec.OnHand, rec.Locked, rec.InTransit-quantity); err != nil {
			return err
		}
		return s.repo.AppendHistory(ctx, NewHistoryEntry(key, -quantity, ActionTransitOut, refCode, note))
	})
}

// Query returns the current record for key. A key that has never been
// adjusted reads as a zero-quantity record, not an error.
func (s *Service) Query(ctx context.Context, key Key) (*Record, error) {
	rec, err := s.repo.GetRecord(ctx, key)
	if err != nil {
		if apperror.IsNotFound(err) {
			return NewRecord(key), nil
		}
		return nil, err
	}
	return rec, nil
}

// ListByWarehouse returns all records of a warehouse; with onlyPositive
// set, records with zero or negative on-hand are skipped.
func (s *Service) ListByWarehouse(ctx context.Context, warehouseID id.ID, onlyPositive bool) ([]Record, error) {
	return s.repo.ListByWarehouse(ctx, warehouseID, onlyPositive)
}

// AvailableInWarehouse sums on-hand minus locked for a product over all
// locations of a warehouse.
func (s *Service) AvailableInWarehouse(ctx context.Context, warehouseID, productID id.ID) (types.Quantity, error) {
	recs, err := s.repo.ListByWarehouse(ctx, warehouseID, false)
	if err != nil {
		return 0, err
	}
	var total types.Quantity
	for _, rec := range recs {
		if rec.ProductID == productID {
			total += rec.Available()
		}
	}
	return total, nil
}

// GetHistory returns the movement history of a product, newest first.
func (s *Service) GetHistory(ctx context.Context, productID id.ID, filter HistoryFilter) ([]HistoryEntry, error) {
	return s.repo.GetHistoryByProduct(ctx, productID, filter)
}

// GetTurnover aggregates inbound and outbound quantities per product
// over a period.
func (s *Service) GetTurnover(ctx context.Context, filter TurnoverFilter) ([]Turnover, error) {
	return s.repo.GetTurnover(ctx, filter)
}

// VerifyBalance replays the history of key and compares the sum of
// stock-affecting entries against the record's on-hand balance. It
// returns the replayed sum and whether it matches.
func (s *Service) VerifyBalance(ctx context.Context, key Key) (types.Quantity, bool, error) {
	sum, err := s.repo.SumOnHandHistory(ctx, key)
	if err != nil {
		return 0, false, err
	}

	rec, err := s.Query(ctx, key)
	if err != nil {
		return 0, false, err
	}

	if sum != rec.OnHand {
		logger.Warn(ctx, "inventory balance mismatch",
			"product_id", key.ProductID,
			"location_id", key.LocationID,
			"on_hand", rec.OnHand,
			"history_sum", sum,
		)
	}
	return sum, sum == rec.OnHand, nil
}

func (s *Service) lockOrCreate(ctx context.Context, key Key) (*Record, error) {
	rec, err := s.repo.GetRecordForUpdate(ctx, key)
	if err == nil {
		return rec, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	rec = NewRecord(key)
	if err := s.repo.CreateRecord(ctx, rec); err != nil {
		return nil, err
	}
	// Re-read under lock: a concurrent insert may have won the race.
	return s.repo.GetRecordForUpdate(ctx, key)
}
