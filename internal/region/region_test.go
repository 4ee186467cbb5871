package region

import "testing"

func TestNewRejectsEmptyBuffer(t *testing.T) {
	_, ok := New(nil, 8, 1)
	if ok {
		t.Error("an empty buffer must never produce a usable region")
	}
}

func TestNewRejectsTooSmallForMinUsable(t *testing.T) {
	_, ok := New(make([]byte, 16), 8, 64)
	if ok {
		t.Error("a region smaller than minUsable must be invalid")
	}
}

func TestNewAcceptsSufficientBuffer(t *testing.T) {
	r, ok := New(make([]byte, 256), 8, 64)
	if !ok {
		t.Fatal("expected a valid region")
	}
	if r.Size() < 64 {
		t.Errorf("region size %d is below the requested minUsable 64", r.Size())
	}
	if r.Start()%8 != 0 || r.End()%8 != 0 {
		t.Error("start and end must both be alignment multiples")
	}
}

func TestContains(t *testing.T) {
	r, ok := New(make([]byte, 256), 8, 8)
	if !ok {
		t.Fatal("expected a valid region")
	}
	if !r.Contains(r.Start()) {
		t.Error("the region must contain its own start address")
	}
	if r.Contains(r.End()) {
		t.Error("the region must not contain its own end address (exclusive)")
	}
	if r.Contains(r.Start() - 1) {
		t.Error("the region must not contain an address before its start")
	}
}

func TestSameBacking(t *testing.T) {
	buf := make([]byte, 256)
	a, _ := New(buf, 8, 8)
	b, _ := New(buf, 8, 8)
	if !a.SameBacking(b) {
		t.Error("two regions over the same buffer and alignment should share backing")
	}

	c, _ := New(make([]byte, 256), 8, 8)
	if a.SameBacking(c) {
		t.Error("regions over distinct buffers must not share backing")
	}

	d, _ := New(buf, 16, 8)
	if a.SameBacking(d) {
		t.Error("regions built with different alignments must not share backing")
	}
}
