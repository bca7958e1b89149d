package checkpoint

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recorded(s Step, from, to uint64) []uint64 {
	var out []uint64
	for n := from; n <= to; n++ {
		if s.ShouldRecord(n) {
			out = append(out, n)
		}
	}
	return out
}

func TestLinearCheckpoints(t *testing.T) {
	got := recorded(NewLinear(100), 1, 1000)
	assert.Equal(t, []uint64{100, 200, 300, 400, 500, 600, 700, 800, 900, 1000}, got)
}

func TestPowerFamilyZeroIsPowersOfTwo(t *testing.T) {
	s := NewPowerFamily(0)
	var got []uint64
	for _, n := range []uint64{1, 2, 4, 8, 16} {
		if s.ShouldRecord(n) {
			got = append(got, n)
		}
	}
	assert.Equal(t, []uint64{2, 4, 8, 16}, got)
	assert.Equal(t, []uint64{2, 4, 8, 16, 32, 64}, recorded(s, 0, 100))
}

func TestPowerFamilySamplesPerOctave(t *testing.T) {
	s := NewPowerFamily(2)
	// nothing until ilog2 > 2, then 4 evenly spaced points per octave
	assert.Equal(t, []uint64{8, 10, 12, 14, 16, 20, 24, 28, 32}, recorded(s, 1, 32))

	s = NewPowerFamily(6)
	for k := uint(7); k < 40; k++ {
		lo := uint64(1) << k
		step := uint64(1) << (k - 6)
		count := 0
		for n := lo; n < lo<<1; n += step {
			require.True(t, s.ShouldRecord(n))
			require.False(t, s.ShouldRecord(n+1))
			count++
		}
		require.Equal(t, 64, count)
	}
}

func TestShouldRecordIsDeterministic(t *testing.T) {
	steps := []Step{NewLinear(7), NewPowerFamily(0), NewPowerFamily(6)}
	for _, s := range steps {
		for n := uint64(0); n < 5000; n++ {
			require.Equal(t, s.ShouldRecord(n), s.ShouldRecord(n))
		}
	}
}

func TestShouldRecordAtExtremes(t *testing.T) {
	assert.False(t, NewPowerFamily(3).ShouldRecord(0))
	assert.True(t, NewPowerFamily(3).ShouldRecord(1<<63))
	assert.False(t, NewPowerFamily(3).ShouldRecord(math.MaxUint64))
	assert.False(t, Step{Kind: Linear}.ShouldRecord(10))
}

func TestCapacityBoundsCheckpointCount(t *testing.T) {
	tests := map[string]struct {
		step    Step
		maxSize uint64
	}{
		"linear":         {step: NewLinear(250), maxSize: 1000},
		"linear uneven":  {step: NewLinear(3), maxSize: 1000},
		"pow2 zero":      {step: NewPowerFamily(0), maxSize: 1 << 12},
		"pow2 two":       {step: NewPowerFamily(2), maxSize: 5000},
		"pow2 too small": {step: NewPowerFamily(6), maxSize: 100},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			n := len(recorded(tc.step, 1, tc.maxSize))
			assert.GreaterOrEqual(t, tc.step.Capacity(tc.maxSize), n)
		})
	}
	assert.Equal(t, 4, NewLinear(250).Capacity(1000))
	assert.Equal(t, 12, NewPowerFamily(0).Capacity(1<<12))
	assert.Equal(t, 0, NewPowerFamily(6).Capacity(100))
	assert.Equal(t, maxPrealloc, NewLinear(1).Capacity(1<<40))
	assert.Equal(t, maxPrealloc, NewPowerFamily(20).Capacity(1<<62))
}

func TestValidate(t *testing.T) {
	assert.ErrorIs(t, NewLinear(0).Validate(), ErrInvalidStride)
	assert.ErrorIs(t, NewPowerFamily(63).Validate(), ErrInvalidExponent)
	assert.ErrorIs(t, Step{Kind: Kind(9)}.Validate(), ErrInvalidStep)
	assert.NoError(t, NewPowerFamily(6).Validate())
}

func TestParseStep(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected Step
		err      error
	}{
		"linear":       {input: "linear:100", expected: NewLinear(100)},
		"pow2":         {input: "pow2:6", expected: NewPowerFamily(6)},
		"power alias":  {input: " POWER:0 ", expected: NewPowerFamily(0)},
		"no separator": {input: "linear", err: ErrInvalidStep},
		"bad number":   {input: "linear:x", err: ErrInvalidStep},
		"zero stride":  {input: "linear:0", err: ErrInvalidStride},
		"bad kind":     {input: "log:3", err: ErrInvalidStep},
		"too many":     {input: "pow2:70", err: ErrInvalidExponent},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			s, err := ParseStep(tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, s)
			assert.Equal(t, s, mustParse(t, s.String()))
		})
	}
}

func mustParse(t *testing.T, v string) Step {
	s, err := ParseStep(v)
	require.NoError(t, err)
	return s
}
