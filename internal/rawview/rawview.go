// Package rawview casts fixed-layout struct types directly onto bytes
// inside a caller-owned region. It is the same "reinterpret these bytes as
// a Go value, no copy" trick this codebase's record-header code used to
// read and write wire headers in place, generalised from encoding/binary
// field-by-field packing to a single unsafe.Pointer cast, since the header
// and footer words allocators traffic in are just machine words, not a
// multi-field wire format that needs endianness control.
package rawview

import "unsafe"

// At reinterprets the bytes starting at address as a *T. T must be a
// fixed-size, pointer-free struct (block headers, footers, free-list link
// words) — never a type holding a Go pointer, slice, or interface.
func At[T any](address uintptr) *T {
	return (*T)(unsafe.Pointer(address)) //nolint:govet // intentional raw pointer reinterpretation
}

// Load reads the T stored at address.
func Load[T any](address uintptr) T {
	return *At[T](address)
}

// Store writes v into the bytes starting at address.
func Store[T any](address uintptr, v T) {
	*At[T](address) = v
}

// Size returns sizeof(T) rounded up by nothing — the raw struct size, for
// callers computing layout offsets.
func Size[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
