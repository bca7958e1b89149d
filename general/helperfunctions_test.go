package general

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRho(t *testing.T) {
	tests := map[string]struct {
		w         uint64
		bitLength int
		expected  uint8
	}{
		"top bit set":        {w: 1 << 63, bitLength: 50, expected: 1},
		"third bit":          {w: 1 << 61, bitLength: 50, expected: 3},
		"all zero":           {w: 0, bitLength: 50, expected: 51},
		"beyond the window":  {w: 1, bitLength: 50, expected: 51},
		"last bit in window": {w: 1 << 14, bitLength: 50, expected: 50},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Rho(tc.w, tc.bitLength))
		})
	}
}

func TestLinearCounting(t *testing.T) {
	assert.Equal(t, 0.0, LinearCounting(1024, 1024))
	assert.InDelta(t, 1024*math.Log(2), LinearCounting(1024, 512), 1e-9)
}

func TestEncodeDecodeHash(t *testing.T) {
	const p, pPrime = 14, 25
	hashes := []uint64{
		0xFFFF_FFFF_FFFF_FFFF,
		0x8000_0000_0000_0000,
		0x0004_0000_0000_0001, // index bits between p and p' are zero
		0x1234_5678_9ABC_DEF0,
		0x0000_0000_0000_0001,
		0xABCD_0000_0000_0000,
	}
	for _, h := range hashes {
		k := EncodeHash(h, p, pPrime)
		idx, rho := DecodeHash(k, p, pPrime)

		expectedIdx := uint32(h >> (64 - p))
		expectedRho := Rho(h<<p, 64-p)
		require.Equal(t, expectedIdx, idx, "index for %x", h)
		require.Equal(t, expectedRho, rho, "rho for %x", h)
	}
}

func TestBucketLockManagerRoundsToPowerOfTwo(t *testing.T) {
	tests := map[string]struct {
		buckets  int
		expected int
	}{
		"small":  {buckets: 16, expected: 8},
		"medium": {buckets: 4096, expected: 16},
		"p14":    {buckets: 16384, expected: 32},
		"large":  {buckets: 1 << 18, expected: 64},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			blm := NewBucketLockManager(tc.buckets)
			assert.Equal(t, tc.expected, blm.numLocks)
			assert.Same(t, blm.GetLockForBucket(1), blm.GetLockForBucket(1+tc.expected))
		})
	}
}

func TestCheckPrecision(t *testing.T) {
	assert.NoError(t, CheckPrecision(MinPrecision))
	assert.NoError(t, CheckPrecision(MaxPrecision))
	assert.ErrorIs(t, CheckPrecision(3), ErrPrecisionOutOfRange)
	assert.ErrorIs(t, CheckPrecision(19), ErrPrecisionOutOfRange)
}
