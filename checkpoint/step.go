// Package checkpoint decides at which item counts a trial samples its error.
package checkpoint

import (
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type Kind int

const (
	// Linear records every Stride items.
	Linear Kind = iota
	// PowerFamily records 2^ExponentsPerOctave evenly spaced points in each
	// binary octave [2^k, 2^(k+1)) with k > ExponentsPerOctave.
	PowerFamily
)

const (
	maxExponentsPerOctave = 62
	maxPrealloc           = 1 << 20
)

var (
	ErrInvalidStride   = errors.New("invalid stride, must be at least 1")
	ErrInvalidExponent = errors.Errorf("invalid exponents per octave, must be at most %d", maxExponentsPerOctave)
	ErrInvalidStep     = errors.New("invalid step, expected linear:<stride> or pow2:<exponents>")
)

// Step is a stateless checkpoint policy.
type Step struct {
	Kind               Kind
	Stride             uint64
	ExponentsPerOctave uint
}

func NewLinear(stride uint64) Step {
	return Step{Kind: Linear, Stride: stride}
}

func NewPowerFamily(exponentsPerOctave uint) Step {
	return Step{Kind: PowerFamily, ExponentsPerOctave: exponentsPerOctave}
}

func (s Step) Validate() error {
	switch s.Kind {
	case Linear:
		if s.Stride < 1 {
			return ErrInvalidStride
		}
	case PowerFamily:
		if s.ExponentsPerOctave > maxExponentsPerOctave {
			return ErrInvalidExponent
		}
	default:
		return errors.Wrapf(ErrInvalidStep, "unknown kind %d", s.Kind)
	}
	return nil
}

// ShouldRecord reports whether itemCount is a checkpoint.
func (s Step) ShouldRecord(itemCount uint64) bool {
	switch s.Kind {
	case Linear:
		return s.Stride > 0 && itemCount%s.Stride == 0
	case PowerFamily:
		if itemCount == 0 {
			return false
		}
		ilog := uint(bits.Len64(itemCount) - 1)
		if ilog <= s.ExponentsPerOctave {
			return false
		}
		return itemCount&(uint64(1)<<(ilog-s.ExponentsPerOctave)-1) == 0
	}
	return false
}

// Capacity is an upper bound on the checkpoints in [1, maxSize], used to
// pre-size trial results. It is capped at maxPrealloc and longer results grow
// on append.
func (s Step) Capacity(maxSize uint64) int {
	var n uint64
	switch s.Kind {
	case Linear:
		if s.Stride == 0 {
			return 0
		}
		n = maxSize / s.Stride
	case PowerFamily:
		if maxSize == 0 {
			return 0
		}
		ilog := uint(bits.Len64(maxSize) - 1)
		if ilog <= s.ExponentsPerOctave {
			return 0
		}
		octaves := uint64(ilog - s.ExponentsPerOctave)
		n = octaves << s.ExponentsPerOctave
		if n>>s.ExponentsPerOctave != octaves {
			n = maxSize
		}
	}
	return int(min(n, maxSize, maxPrealloc))
}

func (s Step) String() string {
	switch s.Kind {
	case Linear:
		return "linear:" + strconv.FormatUint(s.Stride, 10)
	case PowerFamily:
		return "pow2:" + strconv.FormatUint(uint64(s.ExponentsPerOctave), 10)
	}
	return fmt.Sprintf("step(%d)", s.Kind)
}

// ParseStep parses "linear:<stride>" or "pow2:<exponents per octave>".
func ParseStep(v string) (Step, error) {
	kind, arg, ok := strings.Cut(strings.TrimSpace(v), ":")
	if !ok {
		return Step{}, errors.Wrapf(ErrInvalidStep, "%q", v)
	}
	n, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return Step{}, errors.Wrapf(ErrInvalidStep, "%q: %v", v, err)
	}
	var s Step
	switch strings.ToLower(kind) {
	case "linear":
		s = NewLinear(n)
	case "pow2", "power":
		if n > maxExponentsPerOctave {
			return Step{}, ErrInvalidExponent
		}
		s = NewPowerFamily(uint(n))
	default:
		return Step{}, errors.Wrapf(ErrInvalidStep, "%q", v)
	}
	return s, s.Validate()
}
