package transfer

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
	"stockyard/internal/domain/directory"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
)

// Ledger is the slice of the inventory ledger this workflow needs.
type Ledger interface {
	Adjust(ctx context.Context, key ledger.Key, qty types.Quantity, action ledger.ActionType, refCode, note string) error
	LockStock(ctx context.Context, key ledger.Key, qty types.Quantity, refCode, note string) error
	UnlockStock(ctx context.Context, key ledger.Key, qty types.Quantity, refCode, note string) error
	IssueLocked(ctx context.Context, key ledger.Key, qty types.Quantity, action ledger.ActionType, refCode, note string) error
	AddInTransit(ctx context.Context, key ledger.Key, qty types.Quantity, refCode, note string) error
	RemoveInTransit(ctx context.Context, key ledger.Key, qty types.Quantity, refCode, note string) error
}

// Directory reports warehouse lock state and validates locations. The
// cached read is a cheap pre-check; CheckWarehouseOpen is authoritative
// and runs inside the movement's transaction.
type Directory interface {
	IsWarehouseLocked(ctx context.Context, warehouseID id.ID) (bool, error)
	CheckWarehouseOpen(ctx context.Context, warehouseID id.ID) error
	GetLocation(ctx context.Context, locationID id.ID) (*directory.Location, error)
}

// Service drives the transfer order lifecycle. Creating a draft reserves
// each line's quantity at its source location and records it as
// in-transit at the destination; approval consumes the reservation at
// the source, clears the in-transit expectation and receives the
// quantity at the destination, all in one unit of work per transition.
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

// Create persists a draft transfer order and reserves stock at every
// source location. The document and the reservations commit or roll
// back together.
func (s *Service) Create(ctx context.Context, doc *TransferOrder) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if doc.Status != StatusDraft {
		return apperror.NewValidation("new transfer order must be draft").
			WithDetail("status", string(doc.Status))
	}

	for _, whID := range []id.ID{doc.FromWarehouseID, doc.ToWarehouseID} {
		locked, err := s.directory.IsWarehouseLocked(ctx, whID)
		if err != nil {
			return err
		}
		if locked {
			return apperror.NewBusinessRule(apperror.CodeWarehouseLocked, "warehouse is locked for stock movements").
				WithDetail("warehouseId", whID.String())
		}
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Re-check uncached: a stock-take may have locked either
		// warehouse after the pre-check above.
		for _, whID := range []id.ID{doc.FromWarehouseID, doc.ToWarehouseID} {
			if err := s.directory.CheckWarehouseOpen(ctx, whID); err != nil {
				return err
			}
		}

		for _, line := range doc.Lines {
			if err := s.checkLocation(ctx, line.FromLocationID, doc.FromWarehouseID); err != nil {
				return err
			}
			if err := s.checkLocation(ctx, line.ToLocationID, doc.ToWarehouseID); err != nil {
				return err
			}
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		for _, line := range doc.Lines {
			source := ledger.Key{
				WarehouseID: doc.FromWarehouseID,
				LocationID:  line.FromLocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.LockStock(ctx, source, line.Quantity, doc.Number, ""); err != nil {
				return err
			}

			dest := ledger.Key{
				WarehouseID: doc.ToWarehouseID,
				LocationID:  line.ToLocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.AddInTransit(ctx, dest, line.Quantity, doc.Number, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "transfer order created",
		"id", doc.ID,
		"number", doc.Number,
		"from_warehouse_id", doc.FromWarehouseID,
		"to_warehouse_id", doc.ToWarehouseID,
		"total_quantity", doc.TotalQuantity)
	return nil
}

func (s *Service) checkLocation(ctx context.Context, locID, whID id.ID) error {
	loc, err := s.directory.GetLocation(ctx, locID)
	if err != nil {
		return err
	}
	if loc.WarehouseID != whID {
		return apperror.NewValidation("location belongs to a different warehouse").
			WithDetail("locationId", locID.String()).
			WithDetail("warehouseId", whID.String())
	}
	return nil
}

// Approve moves the reserved quantities: for each line the source
// reservation is consumed and the destination receives the quantity.
func (s *Service) Approve(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidTransition("transfer_order", string(doc.Status), string(StatusApproved))
		}

		for _, line := range doc.Lines {
			source := ledger.Key{
				WarehouseID: doc.FromWarehouseID,
				LocationID:  line.FromLocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.IssueLocked(ctx, source, line.Quantity, ledger.ActionTransferOut, doc.Number, ""); err != nil {
				return err
			}

			dest := ledger.Key{
				WarehouseID: doc.ToWarehouseID,
				LocationID:  line.ToLocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.RemoveInTransit(ctx, dest, line.Quantity, doc.Number, ""); err != nil {
				return err
			}
			if err := s.ledger.Adjust(ctx, dest, line.Quantity, ledger.ActionTransferIn, doc.Number, ""); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		doc.Status = StatusApproved
		doc.ApprovedBy = actor
		doc.ApprovedAt = &now
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "transfer order approved",
			"id", doc.ID,
			"number", doc.Number,
			"actor", actor,
			"total_quantity", doc.TotalQuantity)
		return nil
	})
}

// Cancel releases the draft-time reservations and clears the
// destination's in-transit expectations. Only drafts can be cancelled;
// approved transfers have already moved stock.
func (s *Service) Cancel(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidTransition("transfer_order", string(doc.Status), string(StatusCancelled))
		}

		for _, line := range doc.Lines {
			source := ledger.Key{
				WarehouseID: doc.FromWarehouseID,
				LocationID:  line.FromLocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.UnlockStock(ctx, source, line.Quantity, doc.Number, "transfer cancelled"); err != nil {
				return err
			}

			dest := ledger.Key{
				WarehouseID: doc.ToWarehouseID,
				LocationID:  line.ToLocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.RemoveInTransit(ctx, dest, line.Quantity, doc.Number, "transfer cancelled"); err != nil {
				return err
			}
		}

		doc.Status = StatusCancelled
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "transfer order cancelled", "id", doc.ID, "number", doc.Number, "actor", actor)
		return nil
	})
}

// GetByID retrieves a transfer order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*TransferOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return doc, nil
}

// List retrieves transfer orders with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*TransferOrder], error) {
	return s.repo.List(ctx, filter)
}
