package obs

import (
	"sync/atomic"
	"time"
)

// TraceGenerator mints the trace IDs carried by intents through the gate
// chain, the dispatch layer and the decision journal. IDs are unique within
// a process run and monotonically increasing.
type TraceGenerator struct {
	last uint64
}

// NewTraceGenerator returns a generator. A zero seed uses the current time
// so separate runs produce disjoint ID ranges.
func NewTraceGenerator(seed uint64) *TraceGenerator {
	if seed == 0 {
		seed = uint64(time.Now().UTC().UnixNano())
	}
	return &TraceGenerator{last: seed}
}

// Next returns the next trace ID.
func (g *TraceGenerator) Next() uint64 {
	if g == nil {
		return 0
	}
	return atomic.AddUint64(&g.last, 1)
}
