package external

import (
	"github.com/RoaringBitmap/roaring/roaring64"

	"HLL-EVAL/general"
)

// exactSet counts distinct keys exactly in a compressed bitmap. It has no
// sizing parameter, so every precision is accepted.
type exactSet struct {
	rb *roaring64.Bitmap
}

func NewExact(uint8) (general.Container, error) {
	return &exactSet{rb: roaring64.New()}, nil
}

func (e *exactSet) Insert(key uint64) {
	e.rb.Add(key)
}

func (e *exactSet) Estimate() float64 {
	return float64(e.rb.GetCardinality())
}

func (e *exactSet) Name() string {
	return "exact/roaring64"
}
