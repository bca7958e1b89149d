package types

import (
	"sync"

	"HLL-EVAL/general"
)

// Locked serializes every call on an estimator that is not safe for
// concurrent use.
type Locked struct {
	mu    sync.Mutex
	inner general.Container
}

func NewLocked(c general.Container) *Locked {
	return &Locked{inner: c}
}

func (l *Locked) Insert(key uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Insert(key)
}

func (l *Locked) Estimate() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inner.Estimate()
}

func (l *Locked) Name() string {
	return "locked(" + l.inner.Name() + ")"
}

// LockedFactory wraps every instance built by f in a Locked.
func LockedFactory(f general.Factory) general.Factory {
	return func(p uint8) (general.Container, error) {
		c, err := f(p)
		if err != nil {
			return nil, err
		}
		return NewLocked(c), nil
	}
}
