package hll

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"HLL-EVAL/general"
)

var factories = map[string]general.Factory{
	"hll/dense":        NewDense,
	"hll/dense-sha256": NewDenseSecure,
	"hll/atomic":       NewAtomic,
	"hll/plusplus":     NewHLLPP,
}

func TestNamesMatchRegistrationKeys(t *testing.T) {
	for name, factory := range factories {
		c, err := factory(12)
		require.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
}

func TestPrecisionOutOfRange(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			_, err := factory(general.MinPrecision - 1)
			assert.ErrorIs(t, err, general.ErrPrecisionOutOfRange)
			_, err = factory(general.MaxPrecision + 1)
			assert.ErrorIs(t, err, general.ErrPrecisionOutOfRange)
		})
	}
}

func TestEmptyEstimateIsZero(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			c, err := factory(10)
			require.NoError(t, err)
			assert.Equal(t, 0.0, c.Estimate())
		})
	}
}

func TestEstimateWithinTolerance(t *testing.T) {
	sizes := []uint64{100, 5_000, 200_000}
	for name, factory := range factories {
		for _, n := range sizes {
			c, err := factory(14)
			require.NoError(t, err)
			for k := uint64(1); k <= n; k++ {
				c.Insert(k)
			}
			// std error at p=14 is ~0.8%; allow 5%
			assert.InEpsilon(t, float64(n), c.Estimate(), 0.05, "%s at %d", name, n)
		}
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			c, err := factory(12)
			require.NoError(t, err)
			for k := uint64(0); k < 20_000; k++ {
				c.Insert(k)
			}
			once := c.Estimate()
			for k := uint64(0); k < 20_000; k++ {
				c.Insert(k)
			}
			assert.Equal(t, once, c.Estimate())
		})
	}
}

func TestConcurrentInsertMatchesSequential(t *testing.T) {
	const n = 50_000
	for name, factory := range factories {
		t.Run(name, func(t *testing.T) {
			seq, err := factory(12)
			require.NoError(t, err)
			for k := uint64(0); k < n; k++ {
				seq.Insert(k)
			}

			con, err := factory(12)
			require.NoError(t, err)
			var wg sync.WaitGroup
			for w := 0; w < 8; w++ {
				wg.Add(1)
				go func(w uint64) {
					defer wg.Done()
					for k := w; k < n; k += 8 {
						con.Insert(k)
					}
				}(uint64(w))
			}
			wg.Wait()
			assert.InDelta(t, seq.Estimate(), con.Estimate(), 1e-6)
		})
	}
}

func TestHLLPPConvertsToDense(t *testing.T) {
	c, err := NewHLLPP(10)
	require.NoError(t, err)
	pp := c.(*Hllpp_set)

	for k := uint64(0); k < 100; k++ {
		pp.Insert(k)
	}
	assert.True(t, pp.IsSparse())

	for k := uint64(100); k < 50_000; k++ {
		pp.Insert(k)
	}
	assert.False(t, pp.IsSparse())
	assert.InEpsilon(t, 50_000, pp.Estimate(), 0.15)
}
