package state

import (
	"main/internal/schema"
	"sync"
)

// PositionKey identifies one signed position.
type PositionKey struct {
	Account uint32
	Symbol  uint32
}

// PositionReducer folds fill events into signed per-account positions.
// Fills arrive from the broker confirmation path while reads come from
// supervision, so access is mutex-guarded.
type PositionReducer struct {
	mu        sync.Mutex
	positions map[PositionKey]schema.Quantity
}

// NewPositionReducer creates an empty reducer.
func NewPositionReducer() *PositionReducer {
	return &PositionReducer{positions: make(map[PositionKey]schema.Quantity)}
}

// ApplyFill updates the position and returns the new quantity.
func (r *PositionReducer) ApplyFill(fill schema.Fill) schema.Quantity {
	key := PositionKey{Account: fill.AccountID, Symbol: fill.SymbolID}

	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.positions[key]
	var next schema.Quantity
	switch fill.Side {
	case schema.OrderSideBuy:
		next = schema.Quantity(int64(current) + int64(fill.Qty))
	case schema.OrderSideSell:
		next = schema.Quantity(int64(current) - int64(fill.Qty))
	default:
		next = current
	}
	r.positions[key] = next
	return next
}

// Position returns the current signed quantity for an account and symbol.
func (r *PositionReducer) Position(account, symbol uint32) schema.Quantity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.positions[PositionKey{Account: account, Symbol: symbol}]
}

// Count returns the number of tracked positions.
func (r *PositionReducer) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.positions)
}
