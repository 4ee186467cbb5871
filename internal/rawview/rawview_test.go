package rawview

import (
	"testing"
	"unsafe"
)

type pair struct {
	a uintptr
	b uintptr
}

func TestStoreLoadRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	addr := uintptr(unsafe.Pointer(&buf[0]))

	Store(addr, pair{a: 11, b: 22})
	got := Load[pair](addr)
	if got.a != 11 || got.b != 22 {
		t.Errorf("got %+v, want {11 22}", got)
	}
}

func TestAtAliasesUnderlyingBytes(t *testing.T) {
	buf := make([]byte, 64)
	addr := uintptr(unsafe.Pointer(&buf[0]))

	p := At[uint64](addr)
	*p = 0xdeadbeef
	if Load[uint64](addr) != 0xdeadbeef {
		t.Error("At must alias the same bytes Load reads back")
	}
}

func TestSize(t *testing.T) {
	if Size[uint64]() != 8 {
		t.Errorf("Size[uint64]() = %d, want 8", Size[uint64]())
	}
	if Size[pair]() != 2*unsafe.Sizeof(uintptr(0)) {
		t.Errorf("Size[pair]() = %d, want %d", Size[pair](), 2*unsafe.Sizeof(uintptr(0)))
	}
}
