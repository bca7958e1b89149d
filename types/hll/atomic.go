package hll

import (
	"math"
	"sync/atomic"

	"HLL-EVAL/general"
	"HLL-EVAL/types/register/helper"
)

// atomicSet is a lock-free HyperLogLog: four 8-bit registers per word,
// raised with compare-and-swap. Estimate scans every register.
type atomicSet struct {
	p     int
	words []atomic.Uint32
}

func NewAtomic(p uint8) (general.Container, error) {
	if err := general.CheckPrecision(p); err != nil {
		return nil, err
	}
	return &atomicSet{
		p:     int(p),
		words: make([]atomic.Uint32, (1<<p)/4),
	}, nil
}

func (a *atomicSet) Insert(key uint64) {
	hash := helper.HashKey(key)
	idx := hash >> (64 - a.p)
	r := uint32(general.Rho(hash<<a.p, 64-a.p))

	w := &a.words[idx>>2]
	shift := uint(idx&3) * 8
	for {
		old := w.Load()
		if (old>>shift)&0xFF >= r {
			return
		}
		next := old&^(0xFF<<shift) | r<<shift
		if w.CompareAndSwap(old, next) {
			return
		}
	}
}

func (a *atomicSet) Estimate() float64 {
	m := 1 << a.p
	var sum float64
	var zeros uint64
	for i := range a.words {
		word := a.words[i].Load()
		for j := 0; j < 4; j++ {
			r := int((word >> (8 * j)) & 0xFF)
			if r == 0 {
				zeros++
			}
			sum += math.Ldexp(1.0, -r)
		}
	}
	E := general.Alpha(m) * float64(m) * float64(m) / sum
	if E <= 2.5*float64(m) && zeros != 0 {
		return general.LinearCounting(m, zeros)
	}
	return E
}

func (a *atomicSet) Name() string {
	return "hll/atomic"
}
