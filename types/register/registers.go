package register

import (
	"fmt"

	"HLL-EVAL/dataclasses"
	"HLL-EVAL/general"
)

// Registers is a dense array of 6-bit HLL registers packed into bytes. Four
// registers occupy exactly three bytes and each group of four is guarded by
// one lock stripe. Registers at bit offset 0 or 2 fit in a single byte and
// never touch the next one, so no byte is shared between stripes.
type Registers struct {
	_data []byte
	Size  int
	locks *general.BucketLockManager
	Sum   *dataclasses.Sum
	Zeros *dataclasses.ZeroCounter
}

func NewPackedRegisters(size int) *Registers {
	totalBits := size * 6
	totalBytes := (totalBits + 7) / 8
	return &Registers{
		_data: make([]byte, totalBytes),
		Size:  size,
		locks: general.NewBucketLockManager(size),
		Sum:   dataclasses.NewSum(size),
		Zeros: dataclasses.NewZeroCounter(size),
	}
}

// SetMax raises register i to v if v is larger and reports whether it changed.
func (R *Registers) SetMax(i int, v uint8) bool {
	R.checkIndex(i)
	if v > 63 {
		panic("Bit Overflow occurred at index: " + fmt.Sprint(i))
	}
	lock := R.locks.GetLockForBucket(i >> 2)
	lock.Lock()
	defer lock.Unlock()

	u := R.getNoLock(i)
	if v <= u {
		return false
	}
	R.setNoLock(i, v)
	R.Sum.ChangeSum(v, u)
	if u == 0 {
		R.Zeros.Dec()
	}
	return true
}

func (R *Registers) Get(i int) uint8 {
	R.checkIndex(i)
	lock := R.locks.GetLockForBucket(i >> 2)
	lock.Lock()
	defer lock.Unlock()
	return R.getNoLock(i)
}

func (R *Registers) checkIndex(i int) {
	if i < 0 || i >= R.Size {
		panic("Invalid Indexing")
	}
}

// getNoLock must only be called while the stripe for i is held.
func (R *Registers) getNoLock(i int) uint8 {
	bitPos := i * 6
	byteIndex := bitPos / 8
	bitOffset := bitPos % 8
	cur := uint16(R._data[byteIndex])
	if bitOffset > 2 {
		cur |= uint16(R._data[byteIndex+1]) << 8
	}
	return uint8((cur >> bitOffset) & 63)
}

func (R *Registers) setNoLock(i int, v uint8) {
	bitPos := 6 * i
	byteIndex := bitPos / 8
	bitOffset := bitPos % 8
	cur := uint16(R._data[byteIndex])
	if bitOffset > 2 {
		cur |= uint16(R._data[byteIndex+1]) << 8
	}

	mask := uint16(63) << bitOffset
	cur = (cur & ^mask) | (uint16(v) << bitOffset)

	R._data[byteIndex] = byte(cur & 255)
	if bitOffset > 2 {
		R._data[byteIndex+1] = byte(cur >> 8)
	}
}
