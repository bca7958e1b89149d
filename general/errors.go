package general

import (
	"github.com/pkg/errors"
)

const (
	MinPrecision = 4
	MaxPrecision = 18
)

var (
	ErrPrecisionOutOfRange = errors.Errorf("precision must be between %d and %d inclusive", MinPrecision, MaxPrecision)
	ErrPrecisionMismatch   = errors.New("estimator sizing does not reproduce the requested precision")
)

// CheckPrecision returns ErrPrecisionOutOfRange wrapped with the offending
// value when p falls outside the supported register range.
func CheckPrecision(p uint8) error {
	if p < MinPrecision || p > MaxPrecision {
		return errors.Wrapf(ErrPrecisionOutOfRange, "got %d", p)
	}
	return nil
}
