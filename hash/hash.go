// Package hash provides the hash primitives used by the runtime's tables.
package hash

import (
	"math"
	"unsafe"

	"github.com/spaolacci/murmur3"
)

// Hash is a 32-bit hash value.
type Hash = uint32

// bytesSeed is the seed used for every byte-sequence hash.
const bytesSeed uint32 = 0x5d9ee90

// Int hashes a 32-bit integer.
func Int(v int32) Hash {
	return Hash(v)
}

// Int64 hashes a 64-bit integer by truncation.
func Int64(v int64) Hash {
	return Hash(v)
}

// Pointer hashes an address. Heap objects do not move, so the hash is stable
// for the lifetime of the pointee.
func Pointer(p unsafe.Pointer) Hash {
	return Hash(uintptr(p))
}

// Float64 hashes a double. Values that are exactly representable as a 32-bit
// integer hash like that integer; zero hashes to 0 and every other non-normal
// value (subnormals, infinities, NaNs) shares one bucket.
func Float64(v float64) Hash {
	if !isNormal(v) {
		if v == 0 {
			return 0
		}
		return 0x55555555
	}

	if v >= math.MinInt32 && v <= math.MaxInt32 {
		if asInt := int32(v); float64(asInt) == v {
			return Int(asInt)
		}
	}

	bits := int32(math.Float32bits(float32(v)))
	return Hash(bits >> 2)
}

// Bytes hashes a byte sequence with MurmurHash3 (x86, 32-bit).
func Bytes(data []byte) Hash {
	return murmur3.Sum32WithSeed(data, bytesSeed)
}

// String hashes the bytes of s.
func String(s string) Hash {
	return Bytes(unsafe.Slice(unsafe.StringData(s), len(s)))
}

func isNormal(v float64) bool {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return false
	}
	return math.Abs(v) >= 0x1p-1022
}
