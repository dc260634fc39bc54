package purchase

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/numerator"
	"stockyard/internal/core/tx"
	"stockyard/internal/domain"
	"stockyard/pkg/logger"
)

// Service provides business operations for purchase orders. Approval and
// rejection are pure status transitions; stock changes only happen later,
// through goods receipts.
type Service struct {
	repo      Repository
	numerator numerator.Generator
	txManager tx.Manager
}

func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	return &Service{repo: repo, numerator: gen, txManager: txManager}
}

// Create persists a new purchase order in pending state.
func (s *Service) Create(ctx context.Context, doc *PurchaseOrder) error {
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	if doc.Status != StatusPending {
		return apperror.NewValidation("new purchase order must be pending").
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

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		return s.repo.SaveLines(ctx, doc.ID, doc.Lines)
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "purchase order created",
		"id", doc.ID,
		"number", doc.Number,
		"lines", len(doc.Lines))
	return nil
}

// Approve moves a pending order to approved, stamping the actor.
func (s *Service) Approve(ctx context.Context, docID id.ID, actor string) error {
	return s.transition(ctx, docID, actor, StatusApproved)
}

// Reject moves a pending order to rejected.
func (s *Service) Reject(ctx context.Context, docID id.ID, actor string) error {
	return s.transition(ctx, docID, actor, StatusRejected)
}

func (s *Service) transition(ctx context.Context, docID id.ID, actor string, target Status) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != StatusPending {
			return apperror.NewInvalidTransition("purchase_order", string(doc.Status), string(target))
		}

		doc.Status = target
		if target == StatusApproved {
			doc.ApprovedBy = actor
		}
		doc.UpdatedBy = actor
		doc.Touch()

		if err := s.repo.Update(ctx, doc); err != nil {
			return err
		}

		logger.Info(ctx, "purchase order status changed",
			"id", doc.ID,
			"number", doc.Number,
			"status", target,
			"actor", actor)
		return nil
	})
}

// GetByID retrieves a purchase order with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*PurchaseOrder, error) {
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

// List retrieves purchase orders with filtering.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	return s.repo.List(ctx, filter)
}
