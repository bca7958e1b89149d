package general

import (
	"math"
	"math/bits"
	"sync"
)

// Rho returns the position of the leftmost 1-bit of w, counting from 1,
// considering only the top bitLength bits. An all-zero window yields
// bitLength+1.
func Rho(w uint64, bitLength int) uint8 {
	lz := bits.LeadingZeros64(w)
	if lz >= bitLength {
		return uint8(bitLength + 1)
	}
	return uint8(lz + 1)
}

// LinearCounting estimates cardinality from m buckets of which v are empty.
func LinearCounting(m int, v uint64) float64 {
	return float64(m) * math.Log(float64(m)/float64(v))
}

// Alpha is the HLL bias constant for m registers.
func Alpha(m int) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}

// EncodeHash packs a 64-bit hash into the HLL++ sparse format using the top
// pPrime bits as the index. When the bits between p and pPrime are all zero
// the register value cannot be recovered from the index alone, so rho of the
// remaining bits is stored alongside:
//
//	index' || rho' || 1   or   index' || 0
func EncodeHash(hash uint64, p, pPrime int) uint32 {
	idx := uint32(hash >> (64 - pPrime))
	q := pPrime - p
	if idx&((1<<q)-1) == 0 {
		rho := Rho(hash<<pPrime, 64-pPrime)
		return idx<<7 | uint32(rho)<<1 | 1
	}
	return idx << 1
}

// DecodeHash recovers the dense register index and value for precision p from
// an EncodeHash value.
func DecodeHash(k uint32, p, pPrime int) (idx uint32, rho uint8) {
	q := pPrime - p
	if k&1 == 1 {
		idxPrime := k >> 7
		return idxPrime >> q, uint8((k>>1)&0x3F) + uint8(q)
	}
	idxPrime := k >> 1
	low := idxPrime & ((1 << q) - 1)
	return idxPrime >> q, uint8(q - bits.Len32(low) + 1)
}

type BucketLockManager struct {
	locks    []sync.Mutex
	numLocks int
	mask     int
}

func NewBucketLockManager(totalBuckets int) *BucketLockManager {
	var numLocks int

	switch {
	case totalBuckets <= 1024:
		numLocks = 8
	case totalBuckets <= 4096:
		numLocks = 16
	case totalBuckets <= 16384:
		numLocks = 32
	default:
		numLocks = 64
	}

	// Round to power of 2
	actualLocks := 1
	for actualLocks < numLocks {
		actualLocks <<= 1
	}

	return &BucketLockManager{
		locks:    make([]sync.Mutex, actualLocks),
		numLocks: actualLocks,
		mask:     actualLocks - 1,
	}
}

func (blm *BucketLockManager) GetLockForBucket(bucketIndex int) *sync.Mutex {
	return &blm.locks[bucketIndex&blm.mask]
}
