package sales

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
	"stockyard/pkg/logger"
)

// Stock exposes the availability check used at order creation.
type Stock interface {
	AvailableInWarehouse(ctx context.Context, warehouseID, productID id.ID) (types.Quantity, error)
}

// Service provides business operations for sales orders. An order holds
// no reservation itself; stock is locked by the goods issue created
// against it. The availability check at creation is advisory only.
type Service struct {
	repo      Repository
	stock     Stock
	numerator numerator.Generator
	txManager tx.Manager
}

func NewService(repo Repository, stock Stock, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{repo: repo, stock: stock, numerator: gen, txManager: txManager}
}

// Create persists a new sales order in draft state. Each line's ordered
// quantity is checked against the warehouse's current availability.
func (s *Service) Create(ctx context.Context, doc *SalesOrder) error {
	if doc.Status == "" {
		doc.Status = StatusDraft
	}
	if doc.Status != StatusDraft {
		return apperror.NewValidation("new sales order must be draft").
			WithDetail("status", string(doc.Status))
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	for _, line := range doc.Lines {
		available, err := s.stock.AvailableInWarehouse(ctx, doc.WarehouseID, line.ProductID)
		if err != nil {
			return err
		}
		if available < line.OrderedQty {
			return apperror.NewInsufficientAvailable(
				doc.WarehouseID.String(), "", line.ProductID.String(),
				line.OrderedQty.String(), available.String(),
			)
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
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return s.repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "sales order created",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines))
	return nil
}

// Approve moves a draft order to approved, stamping the actor.
func (s *Service) Approve(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft {
			return apperror.NewInvalidTransition("sales_order", string(doc.Status), string(StatusApproved))
		}

		doc.Status = StatusApproved
		doc.ApprovedBy = actor
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "sales order approved", "id", doc.ID, "number", doc.Number, "actor", actor)
		return nil
	})
}

// Reject moves a draft or approved order to rejected.
func (s *Service) Reject(ctx context.Context, docID id.ID, actor string) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc.Status != StatusDraft && doc.Status != StatusApproved {
			return apperror.NewInvalidTransition("sales_order", string(doc.Status), string(StatusRejected))
		}

		doc.Status = StatusRejected
		doc.UpdatedBy = actor
		doc.Touch()
		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "sales order rejected", "id", doc.ID, "number", doc.Number, "actor", actor)
		return nil
	})
}

// GetByID retrieves a sales order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error) {
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

// List retrieves sales orders with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*SalesOrder], error) {
	return s.repo.List(ctx, filter)
}
