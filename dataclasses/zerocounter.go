package dataclasses

import (
	"sync/atomic"
)

// ZeroCounter counts registers still at zero. It is safe for concurrent use.
type ZeroCounter struct {
	val atomic.Uint32
}

func NewZeroCounter(m int) *ZeroCounter {
	z := &ZeroCounter{}
	z.val.Store(uint32(m))
	return z
}

func (z *ZeroCounter) Dec() {
	z.val.Add(^uint32(0))
}

func (z *ZeroCounter) Get() uint32 {
	return z.val.Load()
}
