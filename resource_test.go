package alloc

import (
	"errors"
	"testing"
	"unsafe"
)

type fakeResource struct {
	tag   ResourceTag
	group int
}

func (f *fakeResource) Allocate(uintptr) unsafe.Pointer { return nil }
func (f *fakeResource) Free(unsafe.Pointer) bool { return false }
func (f *fakeResource) Available() uintptr { return 0 }
func (f *fakeResource) Valid() bool { return true }
func (f *fakeResource) Tag() ResourceTag { return f.tag }
func (f *fakeResource) Alignment() uintptr { return 8 }
func (f *fakeResource) Equal(other Resource) bool {
	o, ok := other.(*fakeResource)
	return ok && o != nil && o.group == f.group
}

func TestResourceTagString(t *testing.T) {
	cases := map[ResourceTag]string{
		TagLinear:       "linear",
		TagStaticLinear: "static-linear",
		TagStack:        "stack",
		TagPool:         "pool",
		TagDynamic:      "dynamic",
		ResourceTag(99): "unknown",
	}
	for tag, want := range cases {
		if got := tag.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", tag, got, want)
		}
	}
}

func TestSameIdentity(t *testing.T) {
	a := &fakeResource{tag: TagPool, group: 1}
	if !Same(a, a) {
		t.Error("a resource must be Same as itself")
	}
}

func TestSameStructural(t *testing.T) {
	a := &fakeResource{tag: TagPool, group: 1}
	b := &fakeResource{tag: TagPool, group: 1}
	c := &fakeResource{tag: TagPool, group: 2}
	if !Same(a, b) {
		t.Error("resources in the same group should be Same")
	}
	if Same(a, c) {
		t.Error("resources in different groups should not be Same")
	}
}

func TestSameNilHandling(t *testing.T) {
	var nilResource Resource
	a := &fakeResource{tag: TagPool, group: 1}
	if Same(nilResource, a) || Same(a, nilResource) {
		t.Error("a nil resource should never be Same as a non-nil one")
	}
	if !Same(nilResource, nilResource) {
		t.Error("two nil resources should be Same")
	}
}

func TestErrorUnwrap(t *testing.T) {
	err := InvalidConfig(TagDynamic, "New", "region too small")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("errors.Is should see through to ErrInvalidConfig")
	}
	if errors.Is(err, ErrOutOfSpace) {
		t.Error("the wrapped error must not match an unrelated sentinel")
	}
}

func TestErrorMessageNamesTagAndOp(t *testing.T) {
	err := InvalidFree(TagStack, "Free", "pointer not top of stack")
	msg := err.Error()
	if msg == "" {
		t.Fatal("expected a non-empty message")
	}
	for _, want := range []string{"stack", "Free"} {
		if !containsSubstring(msg, want) {
			t.Errorf("message %q does not mention %q", msg, want)
		}
	}
}

func containsSubstring(s, sub string) bool {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
