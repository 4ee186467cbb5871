// Package addr provides the pointer-integer arithmetic every resource in
// this module builds its block layout on: power-of-two alignment up/down
// and validation, plus conversions between unsafe.Pointer and the
// platform's address-sized unsigned integer.
package addr

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// PointerWidth is the size in bytes of the platform's address integer.
const PointerWidth = unsafe.Sizeof(uintptr(0))

// IsPowerOfTwo reports whether v is a power of two. Zero is not.
func IsPowerOfTwo[T constraints.Unsigned](v T) bool {
	return v != 0 && v&(v-1) == 0
}

// AlignUp rounds v up to the nearest multiple of a. a must be a power of two.
func AlignUp[T constraints.Unsigned](v, a T) T {
	return (v + a - 1) &^ (a - 1)
}

// AlignDown rounds v down to the nearest multiple of a. a must be a power of two.
func AlignDown[T constraints.Unsigned](v, a T) T {
	return v &^ (a - 1)
}

// ValidAlignment reports whether a is usable as a resource alignment: a
// power of two no smaller than the address integer's width.
func ValidAlignment(a uintptr) bool {
	return IsPowerOfTwo(a) && a >= PointerWidth
}

// FromPointer converts p to its address integer.
func FromPointer(p unsafe.Pointer) uintptr {
	return uintptr(p)
}

// ToPointer converts an address integer back to an unsafe.Pointer. Callers
// must only do this for addresses derived from a live backing slice.
func ToPointer(v uintptr) unsafe.Pointer {
	return unsafe.Pointer(v) //nolint:govet // address arithmetic is the point of this package
}

// BaseOf returns the address of the first byte of buf, or 0 if buf is empty.
func BaseOf(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&buf[0]))
}
