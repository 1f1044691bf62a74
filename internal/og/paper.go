package og

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"

	"main/internal/schema"
)

// ErrPaperInjected is returned by Send after FailNext.
var ErrPaperInjected = errors.New("paper broker: injected failure")

// PaperBroker is an in-memory broker for paper trading and tests. It accepts
// every request and mints sequential handles; FailNext injects failures to
// exercise the breaker.
type PaperBroker struct {
	seq      uint64
	failures int64
}

// NewPaperBroker creates a paper broker.
func NewPaperBroker() *PaperBroker {
	return &PaperBroker{}
}

// FailNext makes the next n Send calls return an error.
func (b *PaperBroker) FailNext(n int) {
	atomic.StoreInt64(&b.failures, int64(n))
}

// Send implements Broker.
func (b *PaperBroker) Send(ctx context.Context, req BrokerRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if atomic.LoadInt64(&b.failures) > 0 {
		atomic.AddInt64(&b.failures, -1)
		return "", ErrPaperInjected
	}
	if req.Command.Intent.Kind != schema.IntentNew && req.TargetHandle != "" {
		return req.TargetHandle, nil
	}
	return "PAPER-" + strconv.FormatUint(atomic.AddUint64(&b.seq, 1), 10), nil
}
