package og

import (
	"errors"
	"strconv"

	"main/internal/schema"
)

var (
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrUnknownOrder      = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrInvalidFill       = errors.New("invalid fill quantity")
)

// OrderState tracks the lifecycle of a live order.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStateSent
	OrderStateAcked
	OrderStatePartFilled
	OrderStateFilled
	OrderStateCanceled
	OrderStateRejected
	OrderStateExpired
)

// Order is the adapter's view of a live order.
type Order struct {
	Key        string
	IntentID   uint64
	StrategyID uint32
	AccountID  uint32
	SymbolID   uint32
	Side       schema.OrderSide
	Price      schema.Price
	Qty        schema.Quantity
	LeavesQty  schema.Quantity
	State      OrderState
	ClientID   string
	Handle     string
}

// LiveKey builds the live-order table key for a strategy and intent id.
func LiveKey(strategyID uint32, intentID uint64) string {
	return strconv.FormatUint(uint64(strategyID), 10) + ":" + strconv.FormatUint(intentID, 10)
}

// StateMachine is the live-order table: it correlates cancels and amends
// with their original placement and drops entries on terminal states.
type StateMachine struct {
	orders map[string]*Order
}

// NewStateMachine creates an empty table.
func NewStateMachine() *StateMachine {
	return &StateMachine{orders: make(map[string]*Order)}
}

// Order returns the live entry for a strategy and intent id.
func (m *StateMachine) Order(strategyID uint32, intentID uint64) (*Order, bool) {
	o, ok := m.orders[LiveKey(strategyID, intentID)]
	return o, ok
}

// Len returns the number of live entries.
func (m *StateMachine) Len() int {
	return len(m.orders)
}

// ApplyNew records a placed order in Sent state.
func (m *StateMachine) ApplyNew(intent schema.OrderIntent, clientID, handle string) (*Order, error) {
	if intent.IntentID == 0 {
		return nil, ErrUnknownOrder
	}
	key := LiveKey(intent.StrategyID, intent.IntentID)
	if _, ok := m.orders[key]; ok {
		return nil, ErrDuplicateOrder
	}
	o := &Order{
		Key:        key,
		IntentID:   intent.IntentID,
		StrategyID: intent.StrategyID,
		AccountID:  intent.AccountID,
		SymbolID:   intent.SymbolID,
		Side:       intent.Side,
		Price:      intent.Price,
		Qty:        intent.Qty,
		LeavesQty:  intent.Qty,
		State:      OrderStateSent,
		ClientID:   clientID,
		Handle:     handle,
	}
	m.orders[key] = o
	return o, nil
}

// ApplyAck updates an order from a broker acknowledgment. Terminal entries
// are removed from the table.
func (m *StateMachine) ApplyAck(ack schema.OrderAck) (*Order, error) {
	key := LiveKey(ack.StrategyID, ack.IntentID)
	o, ok := m.orders[key]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.State.Terminal() {
		return o, ErrInvalidTransition
	}
	if ack.Qty != 0 {
		o.Qty = ack.Qty
	}
	if ack.LeavesQty != 0 {
		o.LeavesQty = ack.LeavesQty
	}

	switch ack.Status {
	case schema.OrderAckStatusAcked:
		o.State = OrderStateAcked
	case schema.OrderAckStatusRejected:
		o.State = OrderStateRejected
	case schema.OrderAckStatusCanceled:
		o.State = OrderStateCanceled
	case schema.OrderAckStatusExpired:
		o.State = OrderStateExpired
	case schema.OrderAckStatusPartFilled:
		o.State = OrderStatePartFilled
	case schema.OrderAckStatusFilled:
		o.State = OrderStateFilled
	default:
		o.State = OrderStateUnknown
	}
	if o.State.Terminal() {
		delete(m.orders, key)
	}
	return o, nil
}

// ApplyFill updates an order from a fill. Fully filled entries are removed.
func (m *StateMachine) ApplyFill(fill schema.Fill) (*Order, error) {
	key := LiveKey(fill.StrategyID, fill.IntentID)
	o, ok := m.orders[key]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if o.State.Terminal() {
		return o, ErrInvalidTransition
	}
	qty := int64(fill.Qty)
	if qty <= 0 {
		return o, ErrInvalidFill
	}
	leaves := int64(o.LeavesQty) - qty
	if leaves <= 0 {
		o.LeavesQty = 0
		o.State = OrderStateFilled
		delete(m.orders, key)
	} else {
		o.LeavesQty = schema.Quantity(leaves)
		o.State = OrderStatePartFilled
	}
	return o, nil
}

// Terminal reports whether the state ends an order's lifecycle.
func (s OrderState) Terminal() bool {
	switch s {
	case OrderStateFilled, OrderStateCanceled, OrderStateRejected, OrderStateExpired:
		return true
	default:
		return false
	}
}
