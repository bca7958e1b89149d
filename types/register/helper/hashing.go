package helper

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// IHasher maps a 64-bit key onto a uniformly distributed 64-bit hash.
type IHasher interface {
	HashKey(key uint64) uint64
}

type Hasher struct{}

func (Hasher) HashKey(key uint64) uint64 {
	return HashKey(key)
}

// HasherSecure trades speed for resistance to crafted collisions.
type HasherSecure struct{}

func (HasherSecure) HashKey(key uint64) uint64 {
	return HashKeySecure(key)
}

func HashKey(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	return xxhash.Sum64(buf[:])
}

func HashKeySecure(key uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	hash := sha256.Sum256(buf[:])
	return binary.BigEndian.Uint64(hash[:8])
}
