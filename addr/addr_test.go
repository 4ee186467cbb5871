package addr

import (
	"testing"
	"unsafe"
)

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[uint64]bool{
		0:   false,
		1:   true,
		2:   true,
		3:   false,
		4:   true,
		63:  false,
		64:  true,
		128: true,
	}
	for v, want := range cases {
		if got := IsPowerOfTwo(v); got != want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", v, got, want)
		}
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ v, a, want uint64 }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{17, 16, 32},
	}
	for _, c := range cases {
		if got := AlignUp(c.v, c.a); got != c.want {
			t.Errorf("AlignUp(%d, %d) = %d, want %d", c.v, c.a, got, c.want)
		}
	}
}

func TestAlignDown(t *testing.T) {
	cases := []struct{ v, a, want uint64 }{
		{0, 8, 0},
		{7, 8, 0},
		{8, 8, 8},
		{9, 8, 8},
		{31, 16, 16},
	}
	for _, c := range cases {
		if got := AlignDown(c.v, c.a); got != c.want {
			t.Errorf("AlignDown(%d, %d) = %d, want %d", c.v, c.a, got, c.want)
		}
	}
}

func TestValidAlignment(t *testing.T) {
	if !ValidAlignment(PointerWidth) {
		t.Error("the pointer width itself must be a valid alignment")
	}
	if ValidAlignment(PointerWidth / 2) {
		t.Error("an alignment smaller than the pointer width must be invalid")
	}
	if ValidAlignment(3 * PointerWidth) {
		t.Error("a non-power-of-two alignment must be invalid")
	}
	if !ValidAlignment(4 * PointerWidth) {
		t.Error("a larger power-of-two alignment must be valid")
	}
}

func TestPointerRoundTrip(t *testing.T) {
	buf := make([]byte, 64)
	p := unsafe.Pointer(&buf[0])
	v := FromPointer(p)
	if ToPointer(v) != p {
		t.Error("FromPointer/ToPointer did not round-trip")
	}
}

func TestBaseOf(t *testing.T) {
	if BaseOf(nil) != 0 {
		t.Error("BaseOf(nil) should be 0")
	}
	buf := make([]byte, 16)
	if BaseOf(buf) != uintptr(unsafe.Pointer(&buf[0])) {
		t.Error("BaseOf did not return the address of the first byte")
	}
}
