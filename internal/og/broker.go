package og

import (
	"context"

	"main/internal/schema"
)

// BrokerRequest is one outbound order operation. TargetHandle carries the
// broker-side handle of the original order for cancels and amends.
type BrokerRequest struct {
	Command      schema.OrderCommand
	ClientID     string
	TargetHandle string
}

// Broker is the seam to the broker client. Implementations own protocol
// encoding, sessions and retries; the adapter only sees a handle or an
// error. Send is called from the adapter's consumer goroutine.
type Broker interface {
	Send(ctx context.Context, req BrokerRequest) (handle string, err error)
}
