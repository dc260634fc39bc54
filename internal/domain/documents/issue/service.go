package issue

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
	"stockyard/internal/domain/documents/sales"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
)

// Ledger is the slice of the inventory ledger this workflow needs.
type Ledger interface {
	LockStock(ctx context.Context, key ledger.Key, qty types.Quantity, refCode, note string) error
	UnlockStock(ctx context.Context, key ledger.Key, qty types.Quantity, refCode, note string) error
	IssueLocked(ctx context.Context, key ledger.Key, qty types.Quantity, action ledger.ActionType, refCode, note string) error
}

// Orders exposes the sales orders issues fulfill.
type Orders interface {
	GetForUpdate(ctx context.Context, docID id.ID) (*sales.SalesOrder, error)
	SaveLines(ctx context.Context, docID id.ID, lines []sales.Line) error
}

// Directory resolves shipping locations and warehouse lock state. The
// cached read is a cheap pre-check; CheckWarehouseOpen is authoritative
// and runs inside the posting transaction.
type Directory interface {
	IsWarehouseLocked(ctx context.Context, warehouseID id.ID) (bool, error)
	CheckWarehouseOpen(ctx context.Context, warehouseID id.ID) error
	ResolveShippingLocation(ctx context.Context, warehouseID id.ID, requested *id.ID) (*directory.Location, error)
}

// Service drives the goods issue lifecycle. Creation reserves each
// line's quantity at its source location in one unit of work; completion
// consumes the reservations and rolls issued quantities up to the sales
// order; cancellation releases them.
type Service struct {
	repo      Repository
	orders    Orders
	ledger    Ledger
	directory Directory
	numerator numerator.Generator
	txManager tx.Manager
}

func NewService(
	repo Repository,
	orders Orders,
	ldgr Ledger,
	dir Directory,
	gen numerator.Generator,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		orders:    orders,
		ledger:    ldgr,
		directory: dir,
		numerator: gen,
		txManager: txManager,
	}
}

// Create persists a pending goods issue and reserves stock per line.
// If any reservation fails the whole creation rolls back.
func (s *Service) Create(ctx context.Context, doc *GoodsIssue) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	if doc.Status != StatusPending {
		return apperror.NewValidation("new goods issue must be pending").
			WithDetail("status", string(doc.Status))
	}

	locked, err := s.directory.IsWarehouseLocked(ctx, doc.WarehouseID)
	if err != nil {
		return err
	}
	if locked {
		return apperror.NewBusinessRule(apperror.CodeWarehouseLocked, "warehouse is locked for stock movements").
			WithDetail("warehouseId", doc.WarehouseID.String())
	}

	if doc.Number == "" {
		cfg := numerator.DefaultConfig(NumberPrefix)
		number, err := s.numerator.GetNextNumber(ctx, cfg, &numerator.Options{Strategy: NumeratorStrategy}, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Re-check uncached: a stock-take may have locked the warehouse
		// after the pre-check above.
		if err := s.directory.CheckWarehouseOpen(ctx, doc.WarehouseID); err != nil {
			return err
		}

		so, err := s.orders.GetForUpdate(ctx, doc.SalesOrderID)
		if err != nil {
			return err
		}
		if so.Status != sales.StatusApproved {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "sales order is not approved").
				WithDetail("salesOrderId", so.ID.String()).
				WithDetail("status", string(so.Status))
		}

		for i := range doc.Lines {
			loc, err := s.directory.ResolveShippingLocation(ctx, doc.WarehouseID, doc.Lines[i].LocationID)
			if err != nil {
				return err
			}
			locID := loc.ID
			doc.Lines[i].LocationID = &locID
		}

		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		for _, line := range doc.Lines {
			key := ledger.Key{
				WarehouseID: doc.WarehouseID,
				LocationID:  *line.LocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.LockStock(ctx, key, line.Quantity, doc.Number, ""); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "goods issue created",
		"id", doc.ID,
		"number", doc.Number,
		"sales_order_id", doc.SalesOrderID,
		"total_quantity", doc.TotalQuantity)
	return nil
}

// StartPicking moves a pending issue into the picking state. The
// reservation taken at creation is untouched.
func (s *Service) StartPicking(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusPending {
			return apperror.NewInvalidTransition("goods_issue", string(doc.Status), string(StatusPicking))
		}

		doc.Status = StatusPicking
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "goods issue picking started", "id", doc.ID, "number", doc.Number, "actor", actor)
		return nil
	})
}

// Complete consumes each line's reservation (unlock followed by issue)
// and rolls quantities up to the sales order.
func (s *Service) Complete(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if !doc.CanComplete() {
			return apperror.NewInvalidTransition("goods_issue", string(doc.Status), string(StatusCompleted))
		}

		so, err := s.orders.GetForUpdate(ctx, doc.SalesOrderID)
		if err != nil {
			return err
		}

		for _, line := range doc.Lines {
			key := ledger.Key{
				WarehouseID: doc.WarehouseID,
				LocationID:  *line.LocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.IssueLocked(ctx, key, line.Quantity, ledger.ActionIssue, doc.Number, ""); err != nil {
				return err
			}

			if soLine := so.LineByProduct(line.ProductID); soLine != nil {
				soLine.IssuedQty += line.Quantity
			}
		}

		so.Touch()
		if err := s.orders.SaveLines(ctx, so.ID, so.Lines); err != nil {
			return fmt.Errorf("update issued quantities: %w", err)
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

		logger.Info(ctx, "goods issue completed",
			"id", doc.ID,
			"number", doc.Number,
			"actor", actor,
			"total_quantity", doc.TotalQuantity)
		return nil
	})
}

// Cancel releases every line's reservation and marks the issue cancelled.
// Completed or already cancelled issues cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if !doc.CanCancel() {
			return apperror.NewInvalidTransition("goods_issue", string(doc.Status), string(StatusCancelled))
		}

		for _, line := range doc.Lines {
			key := ledger.Key{
				WarehouseID: doc.WarehouseID,
				LocationID:  *line.LocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.UnlockStock(ctx, key, line.Quantity, doc.Number, "issue cancelled"); err != nil {
				return err
			}
		}

		doc.Status = StatusCancelled
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "goods issue cancelled", "id", doc.ID, "number", doc.Number, "actor", actor)
		return nil
	})
}

// GetByID retrieves a goods issue with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*GoodsIssue, error) {
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

// List retrieves goods issues with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*GoodsIssue], error) {
	return s.repo.List(ctx, filter)
}
