package receipt

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
	"stockyard/internal/domain/documents/purchase"
	"stockyard/internal/domain/ledger"
	"stockyard/pkg/logger"
)

// Ledger is the slice of the inventory ledger this workflow needs.
type Ledger interface {
	Adjust(ctx context.Context, key ledger.Key, qty types.Quantity, action ledger.ActionType, refCode, note string) error
}

// Orders exposes the purchase orders receipts post against.
type Orders interface {
	GetForUpdate(ctx context.Context, docID id.ID) (*purchase.PurchaseOrder, error)
	SaveLines(ctx context.Context, docID id.ID, lines []purchase.Line) error
}

// Directory resolves receiving locations and warehouse lock state. The
// cached read is a cheap pre-check; CheckWarehouseOpen is authoritative
// and runs inside the posting transaction.
type Directory interface {
	IsWarehouseLocked(ctx context.Context, warehouseID id.ID) (bool, error)
	CheckWarehouseOpen(ctx context.Context, warehouseID id.ID) error
	ResolveReceivingLocation(ctx context.Context, warehouseID id.ID, requested *id.ID) (*directory.Location, error)
}

// Service posts goods receipts. A receipt is created in one unit of work
// covering the document, the purchase order roll-up and every ledger
// adjustment; a failure on any line rolls back the whole receipt.
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

// Create posts a goods receipt against an approved purchase order,
// increasing on-hand stock per line.
func (s *Service) Create(ctx context.Context, doc *GoodsReceipt) error {
	if err := doc.Validate(ctx); err != nil {
		return err
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

		po, err := s.orders.GetForUpdate(ctx, doc.PurchaseOrderID)
		if err != nil {
			return err
		}
		if po.Status != purchase.StatusApproved {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "purchase order is not approved").
				WithDetail("purchaseOrderId", po.ID.String()).
				WithDetail("status", string(po.Status))
		}
		if po.WarehouseID != doc.WarehouseID {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "receipt warehouse differs from purchase order").
				WithDetail("orderWarehouseId", po.WarehouseID.String()).
				WithDetail("receiptWarehouseId", doc.WarehouseID.String())
		}

		// Over-receipt guard: cumulative received per product must stay
		// within the ordered quantity.
		incoming := make(map[id.ID]types.Quantity, len(doc.Lines))
		for _, line := range doc.Lines {
			incoming[line.ProductID] += line.Quantity
		}
		for productID, qty := range incoming {
			poLine := po.LineByProduct(productID)
			if poLine == nil {
				return apperror.NewBusinessRule(apperror.CodeBusinessRule, "product is not on the purchase order").
					WithDetail("productId", productID.String())
			}
			if poLine.ReceivedQty+qty > poLine.OrderedQty {
				return apperror.NewBusinessRule(apperror.CodeOverReceipt, "receipt exceeds ordered quantity").
					WithDetail("productId", productID.String()).
					WithDetail("ordered", poLine.OrderedQty.String()).
					WithDetail("received", poLine.ReceivedQty.String()).
					WithDetail("requested", qty.String())
			}
		}

		// Pin every line to a concrete location before any write.
		for i := range doc.Lines {
			loc, err := s.directory.ResolveReceivingLocation(ctx, doc.WarehouseID, doc.Lines[i].LocationID)
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

		for productID, qty := range incoming {
			poLine := po.LineByProduct(productID)
			poLine.ReceivedQty += qty
		}
		po.Touch()
		if err := s.orders.SaveLines(ctx, po.ID, po.Lines); err != nil {
			return fmt.Errorf("update received quantities: %w", err)
		}

		for _, line := range doc.Lines {
			key := ledger.Key{
				WarehouseID: doc.WarehouseID,
				LocationID:  *line.LocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.Adjust(ctx, key, line.Quantity, ledger.ActionReceive, doc.Number, doc.Comment); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "goods receipt posted",
		"id", doc.ID,
		"number", doc.Number,
		"purchase_order_id", doc.PurchaseOrderID,
		"total_quantity", doc.TotalQuantity)
	return nil
}

// Cancel reverses the receipt's ledger effect, rolls the purchase
// order's received quantities back, and removes the document.
func (s *Service) Cancel(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		po, err := s.orders.GetForUpdate(ctx, doc.PurchaseOrderID)
		if err != nil {
			return err
		}

		for _, line := range doc.Lines {
			key := ledger.Key{
				WarehouseID: doc.WarehouseID,
				LocationID:  *line.LocationID,
				ProductID:   line.ProductID,
			}
			if err := s.ledger.Adjust(ctx, key, line.Quantity, ledger.ActionAdjustDecrease, doc.Number, "receipt cancelled"); err != nil {
				return err
			}

			poLine := po.LineByProduct(line.ProductID)
			if poLine != nil {
				poLine.ReceivedQty -= line.Quantity
				if poLine.ReceivedQty < 0 {
					poLine.ReceivedQty = 0
				}
			}
		}

		po.UpdatedBy = actor
		po.Touch()
		if err := s.orders.SaveLines(ctx, po.ID, po.Lines); err != nil {
			return fmt.Errorf("update received quantities: %w", err)
		}

		if err := s.repo.Delete(ctx, docID); err != nil {
			return err
		}

		logger.Info(ctx, "goods receipt cancelled",
			"id", doc.ID,
			"number", doc.Number,
			"actor", actor)
		return nil
	})
}

// GetByID retrieves a goods receipt with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*GoodsReceipt, error) {
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

// List retrieves goods receipts with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*GoodsReceipt], error) {
	return s.repo.List(ctx, filter)
}
