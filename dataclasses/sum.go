package dataclasses

import (
	"math"
	"sync"
)

// Sum tracks the harmonic register sum Σ 2^-M[j] incrementally.
type Sum struct {
	mu  sync.Mutex
	val float64
}

// NewSum starts from m registers at zero, each contributing 2^0.
func NewSum(m int) *Sum {
	return &Sum{val: float64(m)}
}

// ChangeSum replaces the contribution of a register moving from oldVal to
// newVal.
func (s *Sum) ChangeSum(newVal uint8, oldVal uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val -= math.Ldexp(1.0, -int(oldVal))
	s.val += math.Ldexp(1.0, -int(newVal))
}

func (s *Sum) GetSum() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.val
}
