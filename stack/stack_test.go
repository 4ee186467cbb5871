package stack

import "testing"

func TestLIFORejection(t *testing.T) {
	// S2: region 5000 bytes. Allocate 5000 -> p1 fails (footer overhead).
	// Allocate 512, 256, 128, 3. Free in reverse order, then free(p2)
	// again must fail, then free(p1) must fail, then 200/200/200 succeed.
	buf := make([]byte, 5000)
	s := New(buf, WithAlignment(8))
	if !s.Valid() {
		t.Fatal("expected valid stack")
	}

	p1 := s.Allocate(5000)
	if p1 != nil {
		t.Fatalf("expected p1 allocation to fail, got %v", p1)
	}

	p2 := s.Allocate(512)
	p3 := s.Allocate(256)
	p4 := s.Allocate(128)
	p5 := s.Allocate(3)
	for i, p := range []any{p2, p3, p4, p5} {
		if p == nil {
			t.Fatalf("allocation %d failed unexpectedly", i)
		}
	}

	if !s.Free(p5) {
		t.Error("free(p5) should succeed")
	}
	if !s.Free(p4) {
		t.Error("free(p4) should succeed")
	}
	if !s.Free(p3) {
		t.Error("free(p3) should succeed")
	}
	if !s.Free(p2) {
		t.Error("free(p2) should succeed")
	}
	if s.Free(p2) {
		t.Error("second free(p2) must return false")
	}
	if s.Free(p1) {
		t.Error("free(p1) must return false (p1 was never allocated)")
	}

	if s.Allocate(200) == nil || s.Allocate(200) == nil || s.Allocate(200) == nil {
		t.Error("allocations after full unwind should all succeed")
	}
}

func TestFreeEmptyStack(t *testing.T) {
	s := New(make([]byte, 256), WithAlignment(8))
	p := s.Allocate(8)
	if !s.Free(p) {
		t.Fatal("expected free to succeed")
	}
	if s.Free(p) {
		t.Error("freeing an already-empty stack must return false")
	}
}

func TestFreeNonTopOfStack(t *testing.T) {
	s := New(make([]byte, 256), WithAlignment(8))
	p1 := s.Allocate(16)
	_ = s.Allocate(16)
	if s.Free(p1) {
		t.Error("freeing a non-top block must return false")
	}
	if s.Available() == s.reg.End()-s.reg.Start() {
		t.Error("a rejected free must not reset the stack")
	}
}

func TestAllocateZeroFails(t *testing.T) {
	s := New(make([]byte, 256), WithAlignment(8))
	if s.Allocate(0) != nil {
		t.Error("zero-size allocation must return nil")
	}
}

func TestCursorNeverExceedsEnd(t *testing.T) {
	s := New(make([]byte, 64), WithAlignment(8))
	for i := 0; i < 100; i++ {
		s.Allocate(8)
	}
	if s.cursor > s.reg.End() {
		t.Errorf("cursor %d exceeded end %d", s.cursor, s.reg.End())
	}
}
