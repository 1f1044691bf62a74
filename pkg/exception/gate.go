package exception

import "github.com/yanun0323/errors"

var (
	ErrGateNoSegment   = errors.New("gate: kill switch segment not found")
	ErrGateSegmentSize = errors.New("gate: kill switch segment has wrong size")
	ErrGateClosed      = errors.New("gate: kill switch segment already closed")
)
