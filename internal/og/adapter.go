// Package og is the order-dispatch layer: it protects the broker connection
// with a sliding-window rate limiter and a failure-counting circuit breaker,
// and correlates cancels and amends against the live-order table.
package og

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"main/internal/bus"
	"main/internal/obs"
	"main/internal/schema"

	"github.com/google/uuid"
	"github.com/yanun0323/logs"
)

// Config holds dispatch tunables.
type Config struct {
	Window           time.Duration
	SoftCap          int
	HardCap          int
	BreakerThreshold int
	Cooldown         time.Duration
}

// DefaultConfig returns the stock dispatch protection settings.
func DefaultConfig() Config {
	return Config{
		Window:           10 * time.Second,
		SoftCap:          80,
		HardCap:          100,
		BreakerThreshold: 5,
		Cooldown:         60 * time.Second,
	}
}

// ExposureReleaser gives back reserved notional when an order dies before
// or at the broker. Satisfied by exposure.Store.
type ExposureReleaser interface {
	ReleaseParts(account, strategy, symbol uint32, price schema.Price, qty schema.Quantity, kind schema.IntentKind)
}

// FillSink consumes confirmed fills. Satisfied by state.PositionReducer.
type FillSink interface {
	ApplyFill(fill schema.Fill) schema.Quantity
}

// Adapter is the single consumer of the command queue. Dispatch runs on the
// consumer goroutine; OnAck and OnFill arrive from broker-managed threads,
// so the live-order table sits behind a mutex.
type Adapter struct {
	cfg      Config
	broker   Broker
	limiter  *WindowLimiter
	breaker  *Breaker
	exposure ExposureReleaser
	fills    FillSink
	metrics  *obs.Metrics

	mu    sync.Mutex
	state *StateMachine

	throttled atomic.Bool
	now       func() int64
}

// NewAdapter wires the dispatch layer. exposure and fills may be nil.
func NewAdapter(cfg Config, broker Broker, exposure ExposureReleaser, fills FillSink, metrics *obs.Metrics) *Adapter {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 60 * time.Second
	}
	return &Adapter{
		cfg:      cfg,
		broker:   broker,
		limiter:  NewWindowLimiter(cfg.Window, cfg.SoftCap, cfg.HardCap),
		breaker:  NewBreaker(cfg.BreakerThreshold, cfg.Cooldown),
		exposure: exposure,
		fills:    fills,
		metrics:  metrics,
		state:    NewStateMachine(),
		now:      func() int64 { return time.Now().UTC().UnixNano() },
	}
}

// Run consumes approved commands until the context is done or the queue is
// closed. Broker errors are absorbed by the breaker and never end the loop.
func (a *Adapter) Run(ctx context.Context, commands *bus.Queue[schema.OrderCommand]) {
	commands.Run(ctx, func(cmd schema.OrderCommand) {
		a.Dispatch(ctx, cmd)
	})
}

// Dispatch sends one command through the protection layers and the broker.
func (a *Adapter) Dispatch(ctx context.Context, cmd schema.OrderCommand) (bool, schema.RiskReason) {
	start := time.Now()
	defer func() { a.metrics.ObserveDispatch(time.Since(start)) }()

	now := a.now()
	intent := cmd.Intent

	if cmd.DispatchDeadline > 0 && now > cmd.DispatchDeadline {
		a.release(intent)
		a.metrics.IncReason(schema.RiskReasonDeadlineExpired)
		return false, schema.RiskReasonDeadlineExpired
	}

	var targetHandle string
	if intent.Kind == schema.IntentCancel || intent.Kind == schema.IntentAmend {
		a.mu.Lock()
		target, ok := a.state.Order(intent.StrategyID, intent.TargetID)
		a.mu.Unlock()
		if !ok {
			// The target may already be terminal; drop quietly.
			logs.Warnf("dispatch: target %s not live, dropping %v intent %d",
				LiveKey(intent.StrategyID, intent.TargetID), intent.Kind, intent.IntentID)
			a.release(intent)
			return false, schema.RiskReasonNone
		}
		targetHandle = target.Handle
	}

	switch a.limiter.Admit(now) {
	case VerdictReject:
		a.release(intent)
		a.metrics.IncReason(schema.RiskReasonRateLimit)
		a.throttled.Store(true)
		return false, schema.RiskReasonRateLimit
	case VerdictThrottle:
		a.metrics.IncThrottleWarn()
		a.throttled.Store(true)
	default:
		a.throttled.Store(false)
	}

	if !a.breaker.Allow(now) {
		a.release(intent)
		a.metrics.IncReason(schema.RiskReasonCircuitOpen)
		return false, schema.RiskReasonCircuitOpen
	}

	clientID := uuid.NewString()
	handle, err := a.broker.Send(ctx, BrokerRequest{
		Command:      cmd,
		ClientID:     clientID,
		TargetHandle: targetHandle,
	})
	if err != nil {
		a.breaker.RecordFailure(a.now())
		a.metrics.IncDispatchFailure()
		a.metrics.IncReason(schema.RiskReasonBrokerError)
		a.release(intent)
		logs.Errorf("dispatch: broker send failed for intent %d: %+v", intent.IntentID, err)
		return false, schema.RiskReasonBrokerError
	}
	a.breaker.RecordSuccess()

	a.mu.Lock()
	defer a.mu.Unlock()
	switch intent.Kind {
	case schema.IntentNew:
		if _, err := a.state.ApplyNew(intent, clientID, handle); err != nil {
			logs.Warnf("dispatch: record new order %s: %+v", LiveKey(intent.StrategyID, intent.IntentID), err)
		}
	case schema.IntentAmend:
		if target, ok := a.state.Order(intent.StrategyID, intent.TargetID); ok {
			// The amend reservation replaces the original's remainder.
			if a.exposure != nil {
				a.exposure.ReleaseParts(target.AccountID, target.StrategyID, target.SymbolID,
					target.Price, target.LeavesQty, schema.IntentNew)
			}
			target.Price = intent.Price
			target.Qty = intent.Qty
			target.LeavesQty = intent.Qty
		}
	}
	return true, schema.RiskReasonNone
}

// OnAck applies a broker acknowledgment. Rejected, canceled and expired
// orders give their remaining reservation back.
func (a *Adapter) OnAck(ack schema.OrderAck) {
	a.mu.Lock()
	order, err := a.state.ApplyAck(ack)
	a.mu.Unlock()
	if err != nil {
		logs.Warnf("ack for %s ignored: %+v", LiveKey(ack.StrategyID, ack.IntentID), err)
		return
	}

	switch ack.Status {
	case schema.OrderAckStatusRejected, schema.OrderAckStatusCanceled, schema.OrderAckStatusExpired:
		leaves := order.LeavesQty
		if leaves == 0 {
			leaves = order.Qty
		}
		if a.exposure != nil {
			a.exposure.ReleaseParts(order.AccountID, order.StrategyID, order.SymbolID,
				order.Price, leaves, schema.IntentNew)
		}
	}
}

// OnFill applies a broker execution report: the live-order table advances,
// the filled notional is released, and the fill reaches the position sink.
func (a *Adapter) OnFill(fill schema.Fill) {
	a.mu.Lock()
	_, err := a.state.ApplyFill(fill)
	a.mu.Unlock()
	if err != nil {
		logs.Warnf("fill for %s ignored: %+v", LiveKey(fill.StrategyID, fill.IntentID), err)
		return
	}

	if a.exposure != nil {
		a.exposure.ReleaseParts(fill.AccountID, fill.StrategyID, fill.SymbolID,
			fill.Price, fill.Qty, schema.IntentNew)
	}
	if a.fills != nil {
		a.fills.ApplyFill(fill)
	}
}

// Throttled reports whether the last admission hit the soft cap. Strategies
// poll this to slow down before hitting the hard cap.
func (a *Adapter) Throttled() bool {
	return a.throttled.Load()
}

// LiveOrders returns the current live-order table size.
func (a *Adapter) LiveOrders() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.Len()
}

func (a *Adapter) release(intent schema.OrderIntent) {
	if a.exposure == nil {
		return
	}
	a.exposure.ReleaseParts(intent.AccountID, intent.StrategyID, intent.SymbolID,
		intent.Price, intent.Qty, intent.Kind)
}
