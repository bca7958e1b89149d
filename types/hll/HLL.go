package hll

import (
	"HLL-EVAL/general"
	"HLL-EVAL/types/register"
	"HLL-EVAL/types/register/helper"
)

// hllSet is a dense HyperLogLog over packed 6-bit registers. Registers are
// updated under striped locks and the harmonic sum and zero count are kept
// incrementally, so Estimate is O(1) and the set is safe for concurrent use.
type hllSet struct {
	p          int
	name       string
	_registers *register.Registers
	helper     helper.IHasher
}

var _ general.IHLL = (*hllSet)(nil)

func newHLLSet(p uint8, name string, hasher helper.IHasher) (*hllSet, error) {
	if err := general.CheckPrecision(p); err != nil {
		return nil, err
	}
	return &hllSet{
		p:          int(p),
		name:       name,
		_registers: register.NewPackedRegisters(1 << p),
		helper:     hasher,
	}, nil
}

// NewDense builds the xxhash-backed dense sketch.
func NewDense(p uint8) (general.Container, error) {
	return newHLLSet(p, "hll/dense", helper.Hasher{})
}

// NewDenseSecure builds the sha256-backed dense sketch.
func NewDenseSecure(p uint8) (general.Container, error) {
	return newHLLSet(p, "hll/dense-sha256", helper.HasherSecure{})
}

func (h *hllSet) Insert(key uint64) {
	h.insertHash(h.helper.HashKey(key))
}

func (h *hllSet) insertHash(hash uint64) {
	idx := hash >> (64 - h.p)
	r := general.Rho(hash<<h.p, 64-h.p)
	h._registers.SetMax(int(idx), r)
}

func (h *hllSet) Estimate() float64 {
	E, V := h.rawEstimate()
	m := h._registers.Size
	if E <= 2.5*float64(m) && V != 0 {
		return general.LinearCounting(m, uint64(V))
	}
	return E
}

// rawEstimate returns the uncorrected HLL estimate and the number of zero
// registers.
func (h *hllSet) rawEstimate() (float64, uint32) {
	m := float64(h._registers.Size)
	E := general.Alpha(h._registers.Size) * m * m / h._registers.Sum.GetSum()
	return E, h._registers.Zeros.Get()
}

func (h *hllSet) Name() string {
	return h.name
}

func (h *hllSet) SetRegisterMax(idx int, rho uint8) {
	h._registers.SetMax(idx, rho)
}

func (h *hllSet) Get(idx int) uint8 {
	return h._registers.Get(idx)
}
