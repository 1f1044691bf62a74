package exception

import "github.com/yanun0323/errors"

var (
	ErrConfigInvalidDecimal  = errors.New("config: invalid decimal value")
	ErrConfigInvalidScale    = errors.New("config: scale must be >= 0")
	ErrConfigInvalidStrategy = errors.New("config: invalid strategy id")
)
