package stocktake

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/numerator"
	"stockyard/internal/core/tx"
	"stockyard/internal/core/types"
	"stockyard/internal/domain"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
)

// Ledger is the slice of the inventory ledger this workflow needs: the
// snapshot read at start and the signed adjustments at completion.
type Ledger interface {
	ListByWarehouse(ctx context.Context, warehouseID id.ID, onlyPositive bool) ([]ledger.Record, error)
	Adjust(ctx context.Context, key ledger.Key, qty types.Quantity, action ledger.ActionType, refCode, note string) error
}

// Directory flips the movement lock on the counted warehouse.
type Directory interface {
	SetWarehouseLocked(ctx context.Context, warehouseID id.ID, locked bool) error
}

// CountUpdate is one submitted count for a (location, product) pair.
type CountUpdate struct {
	LocationID id.ID          `json:"locationId"`
	ProductID  id.ID          `json:"productId"`
	CountedQty types.Quantity `json:"countedQty"`
	Note       string         `json:"note,omitempty"`
}

// Service drives the stock take lifecycle. Starting a count locks the
// warehouse against movements and snapshots its positive balances;
// completion posts each non-zero difference and releases the lock.
type Service struct {
	repo      Repository
	ledger    Ledger
	directory Directory
	numerator numerator.Generator
	txManager tx.Manager
}

func NewService(
	repo Repository,
	ldgr Ledger,
	dir Directory,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		ledger:    ldgr,
		directory: dir,
		numerator: gen,
		txManager: txManager,
	}
}

// Create persists a draft stock take for a warehouse.
func (s *Service) Create(ctx context.Context, doc *StockTake) error {
	if doc.Status == "" {
		doc.Status = StatusDraft
	}
	if doc.Status != StatusDraft {
		return apperror.NewValidation("new stock take must be draft").
			WithDetail("status", string(doc.Status))
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	logger.Info(ctx, "stock take created", "id", doc.ID, "number", doc.Number, "warehouse_id", doc.WarehouseID)
	return nil
}

// Start snapshots every record with positive on-hand in the warehouse
// into items (counted initialized to system) and locks the warehouse
// against other movements for the duration of the count.
func (s *Service) Start(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidTransition("stock_take", string(doc.Status), string(StatusInProgress))
		}

		if err := s.directory.SetWarehouseLocked(ctx, doc.WarehouseID, true); err != nil {
			return err
		}

		records, err := s.ledger.ListByWarehouse(ctx, doc.WarehouseID, true)
		if err != nil {
			return err
		}

		items := make([]Item, 0, len(records))
		for _, rec := range records {
			items = append(items, Item{
				ItemID:     id.New(),
				LocationID: rec.LocationID,
				ProductID:  rec.ProductID,
				SystemQty:  rec.OnHand,
				CountedQty: rec.OnHand,
			})
		}
		if err := s.repo.SaveItems(ctx, doc.ID, items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		doc.Items = items

		now := time.Now().UTC()
		doc.Status = StatusInProgress
		doc.StartedBy = actor
		doc.StartedAt = &now
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "stock take started",
			"id", doc.ID,
			"number", doc.Number,
			"items", len(items),
			"actor", actor)
		return nil
	})
}

// UpdateCounts overwrites counted quantity and note on matching items.
// Allowed only while the count is in progress; no ledger effect.
func (s *Service) UpdateCounts(ctx context.Context, docID id.ID, updates []CountUpdate, actor string) error {
	if len(updates) == 0 {
		return apperror.NewValidation("no count updates submitted")
	}
	for _, u := range updates {
		if u.CountedQty < 0 {
			return apperror.NewValidation("counted quantity must not be negative").
				WithDetail("productId", u.ProductID.String())
		}
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusInProgress {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "counts can only be updated while in progress").
				WithDetail("status", string(doc.Status))
		}

		for _, u := range updates {
			matched := false
			for i := range doc.Items {
				if doc.Items[i].LocationID == u.LocationID && doc.Items[i].ProductID == u.ProductID {
					doc.Items[i].CountedQty = u.CountedQty
					doc.Items[i].Note = u.Note
					matched = true
					break
				}
			}
			if !matched {
				return apperror.NewNotFound("stock take item", fmt.Sprintf("%s/%s", u.LocationID, u.ProductID))
			}
		}

		if err := s.repo.SaveItems(ctx, doc.ID, doc.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		doc.UpdatedBy = actor
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
}

// Complete posts one signed adjustment per item whose counted quantity
// differs from the snapshot, then releases the warehouse lock.
func (s *Service) Complete(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusInProgress {
			return apperror.NewInvalidTransition("stock_take", string(doc.Status), string(StatusCompleted))
		}

		adjusted := 0
		for _, item := range doc.Items {
			delta := item.Difference()
			if delta == 0 {
				continue
			}
			key := ledger.Key{
				WarehouseID: doc.WarehouseID,
				LocationID:  item.LocationID,
				ProductID:   item.ProductID,
			}
			if err := s.ledger.Adjust(ctx, key, delta, ledger.ActionStockTake, doc.Number, item.Note); err != nil {
				return err
			}
			adjusted++
		}

		if err := s.directory.SetWarehouseLocked(ctx, doc.WarehouseID, false); err != nil {
			return err
		}

		now := time.Now().UTC()
		doc.Status = StatusCompleted
		doc.CompletedBy = actor
		doc.CompletedAt = &now
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "stock take completed",
			"id", doc.ID,
			"number", doc.Number,
			"adjustments", adjusted,
			"actor", actor)
		return nil
	})
}

// Cancel abandons the count without ledger effect and releases the
// warehouse lock if the count had started.
func (s *Service) Cancel(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft && doc.Status != StatusInProgress {
			return apperror.NewInvalidTransition("stock_take", string(doc.Status), string(StatusCancelled))
		}

		if doc.Status == StatusInProgress {
			if err := s.directory.SetWarehouseLocked(ctx, doc.WarehouseID, false); err != nil {
				return err
			}
		}

		doc.Status = StatusCancelled
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "stock take cancelled", "id", doc.ID, "number", doc.Number, "actor", actor)
		return nil
	})
}

// GetByID retrieves a stock take with items.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*StockTake, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.GetItems(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	doc.Items = items
	return doc, nil
}

// List retrieves stock takes with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*StockTake], error) {
	return s.repo.List(ctx, filter)
}
