//go:build unix

// Package hostregion hands out page-aligned, GC-untouched byte slices
// for hosts that want a resource built over memory the Go runtime never
// scans or moves, instead of a make([]byte, n) region. It generalises
// this codebase's file-backed mmap helper to anonymous pages: there is
// no file, no persistence, just a transient region a resource can be
// constructed over.
package hostregion

import (
	"golang.org/x/sys/unix"
)

// NewAnonymous maps size bytes of anonymous, private memory and returns
// it as a byte slice together with a release function that unmaps it.
// The caller must not use the slice after calling release.
func NewAnonymous(size int) (region []byte, release func() error, err error) {
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, err
	}
	release = func() error {
		return unix.Munmap(data)
	}
	return data, release, nil
}
