// Package ledgertest provides an in-memory ledger Repository and a
// snapshotting transaction manager for workflow unit tests.
package ledgertest

import (
	"context"
	"sort"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/core/types"
	"stockyard/internal/domain/ledger"
)

// Store is an in-memory ledger.Repository.
type Store struct {
	Records map[ledger.Key]*ledger.Record
	History []ledger.HistoryEntry
}

func NewStore() *Store {
	return &Store{Records: make(map[ledger.Key]*ledger.Record)}
}

var _ ledger.Repository = (*Store)(nil)

func (s *Store) GetRecord(_ context.Context, key ledger.Key) (*ledger.Record, error) {
	rec, ok := s.Records[key]
	if !ok {
		return nil, apperror.NewNotFound("inventory record", key.ProductID)
	}
	cp := *rec
	return &cp, nil
}

func (s *Store) GetRecordForUpdate(ctx context.Context, key ledger.Key) (*ledger.Record, error) {
	return s.GetRecord(ctx, key)
}

func (s *Store) CreateRecord(_ context.Context, rec *ledger.Record) error {
	cp := *rec
	s.Records[rec.Key()] = &cp
	return nil
}

func (s *Store) UpdateQuantities(_ context.Context, key ledger.Key, onHand, locked, inTransit types.Quantity) error {
	rec, ok := s.Records[key]
	if !ok {
		return apperror.NewNotFound("inventory record", key.ProductID)
	}
	rec.OnHand = onHand
	rec.Locked = locked
	rec.InTransit = inTransit
	return nil
}

func (s *Store) AppendHistory(_ context.Context, entry ledger.HistoryEntry) error {
	s.History = append(s.History, entry)
	return nil
}

func (s *Store) ListByWarehouse(_ context.Context, warehouseID id.ID, onlyPositive bool) ([]ledger.Record, error) {
	var out []ledger.Record
	for _, rec := range s.Records {
		if rec.WarehouseID != warehouseID {
			continue
		}
		if onlyPositive && rec.OnHand <= 0 {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocationID != out[j].LocationID {
			return out[i].LocationID.String() < out[j].LocationID.String()
		}
		return out[i].ProductID.String() < out[j].ProductID.String()
	})
	return out, nil
}

func (s *Store) GetHistoryByProduct(_ context.Context, productID id.ID, _ ledger.HistoryFilter) ([]ledger.HistoryEntry, error) {
	var out []ledger.HistoryEntry
	for i := len(s.History) - 1; i >= 0; i-- {
		if s.History[i].ProductID == productID {
			out = append(out, s.History[i])
		}
	}
	return out, nil
}

func (s *Store) SumOnHandHistory(_ context.Context, key ledger.Key) (types.Quantity, error) {
	var sum types.Quantity
	for _, e := range s.History {
		if e.WarehouseID != key.WarehouseID || e.LocationID != key.LocationID || e.ProductID != key.ProductID {
			continue
		}
		if e.Action.AffectsOnHand() {
			sum += e.QuantityChange
		}
	}
	return sum, nil
}

func (s *Store) GetTurnover(_ context.Context, filter ledger.TurnoverFilter) ([]ledger.Turnover, error) {
	byProduct := make(map[id.ID]*ledger.Turnover)
	for _, e := range s.History {
		if !e.Action.AffectsOnHand() {
			continue
		}
		if filter.WarehouseID != id.Nil() && e.WarehouseID != filter.WarehouseID {
			continue
		}
		t, ok := byProduct[e.ProductID]
		if !ok {
			t = &ledger.Turnover{ProductID: e.ProductID, WarehouseID: e.WarehouseID}
			byProduct[e.ProductID] = t
		}
		if e.QuantityChange > 0 {
			t.Inbound += e.QuantityChange
		} else {
			t.Outbound += -e.QuantityChange
		}
	}
	var out []ledger.Turnover
	for _, t := range byProduct {
		out = append(out, *t)
	}
	return out, nil
}

// MustRecord returns the live record for key, failing the invariant
// lookup loudly if it was never created.
func (s *Store) MustRecord(key ledger.Key) *ledger.Record {
	rec, ok := s.Records[key]
	if !ok {
		panic("ledgertest: no record for key")
	}
	return rec
}

// Rollbacker is implemented by stores that can be restored to an
// earlier state. TxManager uses it to mimic transaction rollback.
type Rollbacker interface {
	Snapshot() any
	Restore(snapshot any)
}

// Snapshot implements Rollbacker.
func (s *Store) Snapshot() any {
	hist := append([]ledger.HistoryEntry(nil), s.History...)
	recs := make(map[ledger.Key]ledger.Record, len(s.Records))
	for k, v := range s.Records {
		recs[k] = *v
	}
	return storeSnapshot{history: hist, records: recs}
}

// Restore implements Rollbacker.
func (s *Store) Restore(snapshot any) {
	snap := snapshot.(storeSnapshot)
	s.History = snap.history
	s.Records = make(map[ledger.Key]*ledger.Record, len(snap.records))
	for k, v := range snap.records {
		cp := v
		s.Records[k] = &cp
	}
}

type storeSnapshot struct {
	history []ledger.HistoryEntry
	records map[ledger.Key]ledger.Record
}

// TxManager is a tx.Manager that snapshots the given stores at the top
// level and restores them when the transaction function fails. Nested
// calls join the outer transaction.
type TxManager struct {
	Stores []Rollbacker
	depth  int
}

func NewTxManager(stores ...Rollbacker) *TxManager {
	return &TxManager{Stores: stores}
}

func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.depth > 0 {
		m.depth++
		defer func() { m.depth-- }()
		return fn(ctx)
	}

	snapshots := make([]any, len(m.Stores))
	for i, s := range m.Stores {
		snapshots[i] = s.Snapshot()
	}

	m.depth++
	err := fn(ctx)
	m.depth--
	if err != nil {
		for i, s := range m.Stores {
			s.Restore(snapshots[i])
		}
	}
	return err
}
