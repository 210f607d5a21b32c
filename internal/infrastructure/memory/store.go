package memory

import (
	"sync"

	"stockledger/internal/domain"
)

// Store is a process-local ledger used by tests and by DB_DRIVER=memory.
// Every method holds the lock for its whole read-modify-write, which gives
// the same atomicity as a single UPDATE statement.
type Store struct {
	mu           sync.RWMutex
	products     map[string]domain.Product
	productOrder []string
	variants     map[string]domain.ProductVariant
	movements    []domain.StockMovement
	orders       map[string]domain.Order
}

func New() *Store {
	return &Store{
		products:  make(map[string]domain.Product),
		variants:  make(map[string]domain.ProductVariant),
		movements: make([]domain.StockMovement, 0, 128),
		orders:    make(map[string]domain.Order),
	}
}

// PutVariant seeds a variant with the given counters, bypassing the ledger.
func (s *Store) PutVariant(v domain.ProductVariant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = v
}

// Variant returns a copy of the variant and whether it exists.
func (s *Store) Variant(id string) (domain.ProductVariant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variants[id]
	return v, ok
}

// Movements returns every appended movement in append order.
func (s *Store) Movements() []domain.StockMovement {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.StockMovement, len(s.movements))
	copy(out, s.movements)
	return out
}

func cloneOrder(o domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(o.Items))
	copy(items, o.Items)
	o.Items = items
	return o
}
