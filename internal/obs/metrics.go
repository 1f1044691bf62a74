package obs

import (
	"sync/atomic"
	"time"

	"main/internal/schema"
)

// Metrics collects lightweight counters for the admission pipeline.
// All methods are safe for concurrent use and nil-receiver tolerant so
// callers can run without observability wired.
type Metrics struct {
	reasonCounts     [schema.RiskReasonCount]uint64
	stormSeverity    uint64
	queueDrops       uint64
	queueClosed      uint64
	throttleWarns    uint64
	dispatchFailures uint64

	gateEvalLatency LatencyStats
	dispatchLatency LatencyStats
}

// Snapshot is a point-in-time copy of the metric values.
type Snapshot struct {
	ReasonCounts     map[schema.RiskReason]uint64
	StormSeverity    schema.StormSeverity
	QueueDrops       uint64
	QueueClosed      uint64
	ThrottleWarns    uint64
	DispatchFailures uint64
	GateEvalLatency  LatencySnapshot
	DispatchLatency  LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncReason increments the counter for a decision reason code.
func (m *Metrics) IncReason(reason schema.RiskReason) {
	if m == nil {
		return
	}
	idx := int(reason)
	if idx >= 0 && idx < len(m.reasonCounts) {
		atomic.AddUint64(&m.reasonCounts[idx], 1)
	}
}

// SetStormSeverity updates the severity gauge.
func (m *Metrics) SetStormSeverity(s schema.StormSeverity) {
	if m == nil {
		return
	}
	atomic.StoreUint64(&m.stormSeverity, uint64(s))
}

// StormSeverity reads the severity gauge.
func (m *Metrics) StormSeverity() schema.StormSeverity {
	if m == nil {
		return schema.StormNormal
	}
	return schema.StormSeverity(atomic.LoadUint64(&m.stormSeverity))
}

// IncQueueDrop records a full-queue publish attempt.
func (m *Metrics) IncQueueDrop() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueDrops, 1)
}

// IncQueueClosed records a closed-queue publish attempt.
func (m *Metrics) IncQueueClosed() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.queueClosed, 1)
}

// IncThrottleWarn records a soft-cap throttling signal.
func (m *Metrics) IncThrottleWarn() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.throttleWarns, 1)
	atomic.AddUint64(&m.reasonCounts[schema.RiskReasonThrottleWarn], 1)
}

// IncDispatchFailure records a failed broker call.
func (m *Metrics) IncDispatchFailure() {
	if m == nil {
		return
	}
	atomic.AddUint64(&m.dispatchFailures, 1)
}

// ObserveGateEval measures one gate-chain evaluation.
func (m *Metrics) ObserveGateEval(d time.Duration) {
	if m == nil {
		return
	}
	m.gateEvalLatency.Observe(d)
}

// ObserveDispatch measures one dispatch attempt.
func (m *Metrics) ObserveDispatch(d time.Duration) {
	if m == nil {
		return
	}
	m.dispatchLatency.Observe(d)
}

// Snapshot returns a copy of the current metric values.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	reasons := make(map[schema.RiskReason]uint64)
	for i := range m.reasonCounts {
		if v := atomic.LoadUint64(&m.reasonCounts[i]); v > 0 {
			reasons[schema.RiskReason(i)] = v
		}
	}
	return Snapshot{
		ReasonCounts:     reasons,
		StormSeverity:    m.StormSeverity(),
		QueueDrops:       atomic.LoadUint64(&m.queueDrops),
		QueueClosed:      atomic.LoadUint64(&m.queueClosed),
		ThrottleWarns:    atomic.LoadUint64(&m.throttleWarns),
		DispatchFailures: atomic.LoadUint64(&m.dispatchFailures),
		GateEvalLatency:  m.gateEvalLatency.Snapshot(),
		DispatchLatency:  m.dispatchLatency.Snapshot(),
	}
}
