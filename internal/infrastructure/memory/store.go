// Package memory keeps every aggregate in process. Units of work are
// serialised and rolled back from a snapshot, which makes the backend usable
// for local runs and for exercising the application services in tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/wms-platform/stock-service/internal/domain"
)

type aggregate interface {
	GetDomainEvents() []domain.DomainEvent
	ClearDomainEvents()
}

type row[T any] struct {
	version int64
	value   T
}

type txKey struct{}

// Store is an in-memory implementation of every repository and of domain.UnitOfWork
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	inventory      map[string]row[*domain.InventoryRecord]
	purchaseOrders map[string]row[*domain.PurchaseOrder]
	salesOrders    map[string]row[*domain.SalesOrder]
	transfers      map[string]row[*domain.StockTransfer]
	adjustments    map[string]row[*domain.StockAdjustment]
	movements      map[string]row[*domain.StockMovement]
	processed      map[string]string
	events         []domain.DomainEvent
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		inventory:      make(map[string]row[*domain.InventoryRecord]),
		purchaseOrders: make(map[string]row[*domain.PurchaseOrder]),
		salesOrders:    make(map[string]row[*domain.SalesOrder]),
		transfers:      make(map[string]row[*domain.StockTransfer]),
		adjustments:    make(map[string]row[*domain.StockAdjustment]),
		movements:      make(map[string]row[*domain.StockMovement]),
		processed:      make(map[string]string),
	}
}

type snapshot struct {
	inventory      map[string]row[*domain.InventoryRecord]
	purchaseOrders map[string]row[*domain.PurchaseOrder]
	salesOrders    map[string]row[*domain.SalesOrder]
	transfers      map[string]row[*domain.StockTransfer]
	adjustments    map[string]row[*domain.StockAdjustment]
	movements      map[string]row[*domain.StockMovement]
	processed      map[string]string
	events         int
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// rows hold private clones, so copying the maps is enough to snapshot them
func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshot{
		inventory:      copyMap(s.inventory),
		purchaseOrders: copyMap(s.purchaseOrders),
		salesOrders:    copyMap(s.salesOrders),
		transfers:      copyMap(s.transfers),
		adjustments:    copyMap(s.adjustments),
		movements:      copyMap(s.movements),
		processed:      copyMap(s.processed),
		events:         len(s.events),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventory = snap.inventory
	s.purchaseOrders = snap.purchaseOrders
	s.salesOrders = snap.salesOrders
	s.transfers = snap.transfers
	s.adjustments = snap.adjustments
	s.movements = snap.movements
	s.processed = snap.processed
	s.events = s.events[:snap.events]
}

// WithTransaction runs fn with exclusive access to the store and restores the
// previous state when fn fails. Nested calls join the outer unit of work.
func (s *Store) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

// Events returns every domain event committed so far, oldest first
func (s *Store) Events() []domain.DomainEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.DomainEvent(nil), s.events...)
}

// EventTypes returns the type of every committed event, oldest first
func (s *Store) EventTypes() []string {
	events := s.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.EventType()
	}
	return types
}

// put stores a clone of agg when the caller holds the current version,
// bumps the caller's version and moves its pending events to the event log
func put[T aggregate](s *Store, table map[string]row[T], id string, version *int64, agg T, clone func(T) T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table[id].version != *version {
		return fmt.Errorf("%w: %s version %d", domain.ErrConcurrentModification, id, *version)
	}
	*version++
	table[id] = row[T]{version: *version, value: clone(agg)}
	s.events = append(s.events, agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
	return nil
}

func get[T any](s *Store, table map[string]row[T], id string, clone func(T) T) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := table[id]
	if !ok {
		var zero T
		return zero, false
	}
	return clone(r.value), true
}

func list[T any](s *Store, table map[string]row[T], clone func(T) T, match func(T) bool, less func(a, b T) bool) []T {
	s.mu.RLock()
	out := make([]T, 0)
	for _, r := range table {
		if match(r.value) {
			out = append(out, clone(r.value))
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func cloneRecord(r *domain.InventoryRecord) *domain.InventoryRecord {
	cp := *r
	cp.ClearDomainEvents()
	return &cp
}

func clonePurchaseOrder(po *domain.PurchaseOrder) *domain.PurchaseOrder {
	cp := *po
	cp.Items = append([]domain.PurchaseOrderItem(nil), po.Items...)
	cp.ClearDomainEvents()
	return &cp
}

func cloneSalesOrder(so *domain.SalesOrder) *domain.SalesOrder {
	cp := *so
	cp.Items = append([]domain.SalesOrderItem(nil), so.Items...)
	cp.ClearDomainEvents()
	return &cp
}

func cloneTransfer(t *domain.StockTransfer) *domain.StockTransfer {
	cp := *t
	cp.ClearDomainEvents()
	return &cp
}

func cloneAdjustment(a *domain.StockAdjustment) *domain.StockAdjustment {
	cp := *a
	cp.ClearDomainEvents()
	return &cp
}

func cloneMovement(m *domain.StockMovement) *domain.StockMovement {
	cp := *m
	cp.ClearDomainEvents()
	return &cp
}
