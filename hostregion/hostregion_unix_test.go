//go:build unix

package hostregion

import (
	"testing"
	"unsafe"

	"microalloc/dynamic"
)

func TestNewAnonymousRoundTrip(t *testing.T) {
	// S8: hostregion.NewAnonymous(1<<16) returns a slice of that length;
	// a Dynamic resource built over it behaves like one built over an
	// equivalent make([]byte, n) region, and release() is error-free.
	const size = 1 << 16
	region, release, err := NewAnonymous(size)
	if err != nil {
		t.Fatalf("NewAnonymous failed: %v", err)
	}
	defer func() {
		if err := release(); err != nil {
			t.Errorf("release() returned an error: %v", err)
		}
	}()
	if len(region) != size {
		t.Fatalf("len(region) = %d, want %d", len(region), size)
	}

	mapped := dynamic.New(region, dynamic.WithAlignment(8))
	heap := dynamic.New(make([]byte, size), dynamic.WithAlignment(8))
	if !mapped.Valid() || !heap.Valid() {
		t.Fatal("expected both resources to be valid")
	}
	if mapped.Available() != heap.Available() {
		t.Fatalf("available() differs: mapped=%d heap=%d", mapped.Available(), heap.Available())
	}

	var mappedPtrs, heapPtrs []unsafe.Pointer
	for i := 0; i < 10; i++ {
		mappedPtrs = append(mappedPtrs, mapped.Allocate(128))
		heapPtrs = append(heapPtrs, heap.Allocate(128))
	}
	for i := range mappedPtrs {
		if !mapped.Free(mappedPtrs[i]) {
			t.Errorf("free %d on mapped region failed", i)
		}
		if !heap.Free(heapPtrs[i]) {
			t.Errorf("free %d on heap region failed", i)
		}
	}
	if mapped.Available() != heap.Available() {
		t.Fatalf("available() after full unwind differs: mapped=%d heap=%d", mapped.Available(), heap.Available())
	}
}
