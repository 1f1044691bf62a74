package ops

import (
	"math"
	"strings"

	"main/pkg/exception"

	"github.com/yanun0323/errors"
)

// ParseScaled converts a decimal string into an integer scaled by 10^scale,
// without going through float64. "1.5" at scale 4 becomes 15000. Digits
// beyond the scale must be zero.
func ParseScaled(s string, scale int) (int64, error) {
	if scale < 0 {
		return 0, exception.ErrConfigInvalidScale
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrap(exception.ErrConfigInvalidDecimal, "empty")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	if intPart == "" && fracPart == "" {
		return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "value: %s", s)
	}

	var v int64
	for _, c := range []byte(intPart) {
		if c < '0' || c > '9' {
			return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "value: %s", s)
		}
		if v > (math.MaxInt64-int64(c-'0'))/10 {
			return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "overflow: %s", s)
		}
		v = v*10 + int64(c-'0')
	}

	for i := 0; i < scale; i++ {
		var d int64
		if i < len(fracPart) {
			c := fracPart[i]
			if c < '0' || c > '9' {
				return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "value: %s", s)
			}
			d = int64(c - '0')
		}
		if v > (math.MaxInt64-d)/10 {
			return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "overflow: %s", s)
		}
		v = v*10 + d
	}

	// Extra fractional digits are fine only when zero, otherwise the value
	// does not fit the configured scale.
	for i := scale; i < len(fracPart); i++ {
		c := fracPart[i]
		if c == '0' {
			continue
		}
		if c < '1' || c > '9' {
			return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "value: %s", s)
		}
		return 0, errors.Wrapf(exception.ErrConfigInvalidDecimal, "precision exceeds scale %d: %s", scale, s)
	}

	if neg {
		v = -v
	}
	return v, nil
}
