package hll

import (
	"sync"

	"HLL-EVAL/general"
	"HLL-EVAL/models"
	"HLL-EVAL/types/register/helper"
	"HLL-EVAL/types/sparse"
)

const (
	FormatSparse = iota // 0
	FormatDense         // 1
)

// Hllpp_set is HyperLogLog++: a sparse list at p' = 25 that is converted to
// a dense sketch once it outgrows the dense footprint. Empirical bias
// correction is not applied; the linear counting switch uses the per
// precision thresholds.
type Hllpp_set struct {
	mu         sync.RWMutex
	p          int
	format     int
	convertAt  int
	sparse_set *sparse.SparseHLL
	dense_set  *hllSet
}

func NewHLLPP(p uint8) (general.Container, error) {
	if err := general.CheckPrecision(p); err != nil {
		return nil, err
	}
	m := 1 << p
	return &Hllpp_set{
		p:          int(p),
		format:     FormatSparse,
		convertAt:  max(m*6/32, 1),
		sparse_set: sparse.NewSparseHLL(int(p)),
	}, nil
}

func (h *Hllpp_set) Insert(key uint64) {
	hash := helper.HashKey(key)

	h.mu.RLock()
	if h.format == FormatDense {
		h.dense_set.insertHash(hash)
		h.mu.RUnlock()
		return
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.format == FormatDense {
		h.dense_set.insertHash(hash)
		return
	}
	h.sparse_set.Insert(hash)
	if h.sparse_set.Len() > h.convertAt {
		h.sparse_set.MergeTempSet()
		if h.sparse_set.Len() > h.convertAt {
			h.convertToDense()
		}
	}
}

// convertToDense must be called with the write lock held.
func (h *Hllpp_set) convertToDense() {
	dense, _ := newHLLSet(uint8(h.p), "hll/plusplus", helper.Hasher{})
	h.sparse_set.MergeIntoDense(dense)
	h.format = FormatDense
	h.dense_set = dense
	h.sparse_set = nil
}

func (h *Hllpp_set) Estimate() float64 {
	h.mu.Lock()
	if h.format == FormatSparse {
		defer h.mu.Unlock()
		return h.sparse_set.Estimate()
	}
	h.mu.Unlock()

	E, V := h.dense_set.rawEstimate()
	if V != 0 {
		m := 1 << h.p
		lc := general.LinearCounting(m, uint64(V))
		if lc <= models.HLLPlusPlusThresholds[h.p] {
			return lc
		}
	}
	return E
}

// IsSparse reports whether the sketch still uses the sparse representation.
func (h *Hllpp_set) IsSparse() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.format == FormatSparse
}

func (h *Hllpp_set) Name() string {
	return "hll/plusplus"
}
