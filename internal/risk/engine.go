/*
Package risk orchestrates the pre-trade admission pipeline.

# Gate chain

Every intent runs, in order, through:
 1. deadline check (expired intents are dropped before the chain)
 2. fast gate (kill switch, price/qty sanity)
 3. price band validator (absolute cap, LOB-relative band)
 4. exposure store (per-strategy and global notional caps)
 5. storm guard (market-wide severity gate)

The chain short-circuits on the first denial; the failing stage's reason
code is surfaced to the originating strategy. Approved intents become
order commands on the dispatch queue. No stage blocks on I/O.
*/
package risk

import (
	"context"
	"errors"
	"time"

	"main/internal/band"
	"main/internal/bus"
	"main/internal/exposure"
	"main/internal/gate"
	"main/internal/obs"
	"main/internal/schema"
	"main/internal/storm"

	"github.com/yanun0323/logs"
)

// Config holds engine tunables.
type Config struct {
	// IntentTTL is how long after creation an intent may still enter the
	// gate chain. 0 disables the deadline check.
	IntentTTL time.Duration
	// DispatchTTL bounds how long an approved command may wait before the
	// adapter must drop it instead of sending.
	DispatchTTL time.Duration
}

// Engine is the single-threaded consumer draining the intent queue.
type Engine struct {
	cfg      Config
	gate     *gate.FastGate
	band     *band.Validator
	exposure *exposure.Store
	storm    *storm.Guard
	metrics  *obs.Metrics
	commands *bus.Queue[schema.OrderCommand]

	// onDecision surfaces every decision (allow and deny) to the
	// originating strategy and the journal. Must not block.
	onDecision func(schema.RiskDecision)

	now func() int64
}

// NewEngine wires the gate chain. onDecision may be nil.
func NewEngine(
	cfg Config,
	fastGate *gate.FastGate,
	validator *band.Validator,
	store *exposure.Store,
	guard *storm.Guard,
	metrics *obs.Metrics,
	commands *bus.Queue[schema.OrderCommand],
	onDecision func(schema.RiskDecision),
) *Engine {
	return &Engine{
		cfg:        cfg,
		gate:       fastGate,
		band:       validator,
		exposure:   store,
		storm:      guard,
		metrics:    metrics,
		commands:   commands,
		onDecision: onDecision,
		now:        func() int64 { return time.Now().UTC().UnixNano() },
	}
}

// Run consumes intents until the context is done or the queue is closed.
func (e *Engine) Run(ctx context.Context, intents *bus.Queue[schema.OrderIntent]) {
	intents.Run(ctx, func(intent schema.OrderIntent) {
		e.Process(intent)
	})
}

// Process runs one intent through the gate chain.
func (e *Engine) Process(intent schema.OrderIntent) {
	now := e.now()

	if e.cfg.IntentTTL > 0 && intent.TsCreated > 0 && now > intent.TsCreated+int64(e.cfg.IntentTTL) {
		// Expired pre-gate: nothing was reserved, nothing to release.
		e.metrics.IncReason(schema.RiskReasonDeadlineExpired)
		e.emit(e.decision(intent, schema.RiskActionDeny, schema.RiskReasonDeadlineExpired, now))
		return
	}

	evalStart := time.Now()
	action, reason := e.runChain(intent)
	e.metrics.ObserveGateEval(time.Since(evalStart))
	e.metrics.IncReason(reason)

	decided := e.decision(intent, action, reason, e.now())
	if action != schema.RiskActionAllow {
		e.emit(decided)
		return
	}

	cmd := schema.OrderCommand{
		Intent:           intent,
		DispatchDeadline: now + int64(e.cfg.DispatchTTL),
		Severity:         e.storm.State(),
	}
	if err := e.commands.TryPublish(cmd); err != nil {
		// The reservation will never reach the broker; give it back.
		e.exposure.Release(intent)
		if errors.Is(err, bus.ErrQueueFull) {
			e.metrics.IncQueueDrop()
		} else {
			e.metrics.IncQueueClosed()
		}
		decided.Action = schema.RiskActionDeny
		decided.Reason = schema.RiskReasonRateLimit
		e.emit(decided)
		return
	}
	e.emit(decided)
}

// runChain evaluates the gate chain, short-circuiting on the first denial.
func (e *Engine) runChain(intent schema.OrderIntent) (schema.RiskAction, schema.RiskReason) {
	if intent.Kind == schema.IntentCancel {
		// Cancels carry no price/qty of their own; only the kill switch
		// may stop them.
		if e.gate.KillSwitch() {
			return schema.RiskActionDeny, schema.RiskReasonKillSwitch
		}
	} else if ok, code := e.gate.Check(intent.Price, intent.Qty); !ok {
		return schema.RiskActionDeny, code
	}

	if ok, code := e.band.Check(intent); !ok {
		return schema.RiskActionDeny, code
	}

	ok, code, err := e.exposure.Reserve(intent)
	if err != nil {
		logs.Errorf("exposure reservation fault for intent %d (strategy %d): %+v", intent.IntentID, intent.StrategyID, err)
	}
	if !ok {
		return schema.RiskActionDeny, code
	}

	if !e.storm.IsSafe() {
		// The reservation just made must not leak while halted.
		e.exposure.Release(intent)
		return schema.RiskActionDeny, schema.RiskReasonStormHalt
	}

	return schema.RiskActionAllow, schema.RiskReasonNone
}

func (e *Engine) decision(intent schema.OrderIntent, action schema.RiskAction, reason schema.RiskReason, ts int64) schema.RiskDecision {
	notional := int64(intent.Price) * int64(intent.Qty)
	if intent.Kind == schema.IntentCancel {
		notional = 0
	}
	return schema.RiskDecision{
		IntentID:   intent.IntentID,
		StrategyID: intent.StrategyID,
		AccountID:  intent.AccountID,
		SymbolID:   intent.SymbolID,
		Action:     action,
		Reason:     reason,
		Price:      intent.Price,
		Qty:        intent.Qty,
		Notional:   schema.Notional(notional),
		TsDecided:  ts,
		TraceID:    intent.TraceID,
	}
}

func (e *Engine) emit(d schema.RiskDecision) {
	if e.onDecision != nil {
		e.onDecision(d)
	}
}
