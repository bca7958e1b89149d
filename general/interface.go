package general

// Container is the capability every estimator under test exposes to the
// harness: record a key, report the current distinct count and a label.
//
// Insert must be idempotent for repeated keys. Estimate may refresh internal
// caches but never changes the set of recorded keys.
type Container interface {
	Insert(key uint64)
	Estimate() float64
	Name() string
}

// Factory builds a fresh Container sized by precision (2^precision registers
// for register-based sketches). It returns an error when the estimator's own
// sizing formula cannot reproduce precision exactly.
type Factory func(precision uint8) (Container, error)

// IHLL is the register-level view shared by the dense sketches so sparse
// representations can be folded into them.
type IHLL interface {
	Container
	SetRegisterMax(idx int, rho uint8)
	Get(idx int) uint8
}
