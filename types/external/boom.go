package external

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
	boom "github.com/tylertreat/BoomFilters"

	"HLL-EVAL/general"
	"HLL-EVAL/types/register/helper"
)

// boomHLL adapts the BoomFilters HyperLogLog. Its native sizing knob is a
// target standard error; NewDefaultHyperLogLog rounds the implied register
// count up to a power of two. Keys are mixed with xxhash before the sketch's
// own 32-bit FNV hash sees them.
type boomHLL struct {
	sketch *boom.HyperLogLog
	buf    [8]byte
}

// BoomErrorRate is the standard error that makes BoomFilters allocate exactly
// 2^p registers. The factor keeps (1.04/e)^2 just under 2^p so rounding up
// lands on p.
func BoomErrorRate(p uint8) float64 {
	return 1.04 / math.Sqrt(math.Ldexp(1, int(p))) * (1 + 1e-9)
}

// BoomPrecision is the register exponent BoomFilters derives from e.
func BoomPrecision(e float64) uint8 {
	return uint8(math.Ceil(math.Log2(math.Pow(1.04/e, 2))))
}

func NewBoom(p uint8) (general.Container, error) {
	if err := general.CheckPrecision(p); err != nil {
		return nil, err
	}
	e := BoomErrorRate(p)
	if got := BoomPrecision(e); got != p {
		return nil, errors.Wrapf(general.ErrPrecisionMismatch, "boom error rate %g gives precision %d, want %d", e, got, p)
	}
	sketch, err := boom.NewDefaultHyperLogLog(e)
	if err != nil {
		return nil, errors.Wrap(err, "creating boom hyperloglog")
	}
	return &boomHLL{sketch: sketch}, nil
}

func (b *boomHLL) Insert(key uint64) {
	binary.LittleEndian.PutUint64(b.buf[:], helper.HashKey(key))
	b.sketch.Add(b.buf[:])
}

func (b *boomHLL) Estimate() float64 {
	return float64(b.sketch.Count())
}

func (b *boomHLL) Name() string {
	return "boom/hyperloglog"
}
