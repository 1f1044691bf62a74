package exception

import "github.com/yanun0323/errors"

var (
	ErrExposureCardinality = errors.New("exposure: live entry cardinality exceeded")
)
