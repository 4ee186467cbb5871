// Package poly adapts any alloc.Resource to a typed, container-facing
// allocator protocol: typed allocate/deallocate, in-place construct and
// destroy, rebind to another element type over the same resource, and
// equality defined in terms of the underlying resource.
package poly

import (
	"unsafe"

	"microalloc"
	"microalloc/addr"
	"microalloc/internal/rawview"
)

// Destructor is implemented by element types that need to release
// resources of their own before their storage is freed. Destroy and
// DeleteObject invoke it when present; Go has no placement-destructor
// protocol to hook into, so this optional method is the substitute.
type Destructor interface {
	Destruct()
}

// Allocator holds a non-owning reference to a Resource and exposes it
// through the typed allocate/construct/destroy surface a generic
// container expects.
type Allocator[T any] struct {
	resource alloc.Resource
}

// New wraps an existing resource for element type T. The resource is
// not owned: the caller remains responsible for its lifetime.
func New[T any](r alloc.Resource) Allocator[T] {
	return Allocator[T]{resource: r}
}

// Resource returns the underlying resource this façade adapts.
func (a Allocator[T]) Resource() alloc.Resource { return a.resource }

func elementSize[T any]() uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}

// Allocate reserves room for count elements of T and returns a pointer
// to the first one, or nil if the underlying resource cannot satisfy
// the request.
func (a Allocator[T]) Allocate(count uintptr) *T {
	n := count * elementSize[T]()
	p := a.resource.Allocate(n)
	if p == nil {
		return nil
	}
	return (*T)(p)
}

// Deallocate releases storage previously returned by Allocate. count is
// accepted for symmetry with Allocate but is not needed to release the
// block; the underlying resource already knows its extent.
func (a Allocator[T]) Deallocate(ptr *T, count uintptr) bool {
	return a.resource.Free(unsafe.Pointer(ptr))
}

// AllocateBytes reserves n raw, Alignment()-aligned bytes.
func (a Allocator[T]) AllocateBytes(n uintptr) unsafe.Pointer {
	return a.resource.Allocate(n)
}

// DeallocateBytes releases a block previously returned by AllocateBytes.
func (a Allocator[T]) DeallocateBytes(p unsafe.Pointer) bool {
	return a.resource.Free(p)
}

// Construct initializes the storage at ptr by invoking init and copying
// its result in. Go element types have no placement-new step beyond
// this assignment.
func (a Allocator[T]) Construct(ptr *T, init func() T) {
	*ptr = init()
}

// Destroy invokes ptr's Destruct method if *T implements Destructor
// (which includes a T with a value-receiver Destruct); otherwise it is a
// no-op.
func (a Allocator[T]) Destroy(ptr *T) {
	if d, ok := any(ptr).(Destructor); ok {
		d.Destruct()
	}
}

// NewObject allocates and constructs a single T, or returns nil if
// allocation fails.
func (a Allocator[T]) NewObject(init func() T) *T {
	p := a.Allocate(1)
	if p == nil {
		return nil
	}
	a.Construct(p, init)
	return p
}

// DeleteObject destroys and frees an object previously returned by
// NewObject.
func (a Allocator[T]) DeleteObject(ptr *T) {
	a.Destroy(ptr)
	a.Deallocate(ptr, 1)
}

// Equal reports whether a and b adapt the same underlying resource.
func (a Allocator[T]) Equal(b Allocator[T]) bool {
	return alloc.Same(a.resource, b.resource)
}

// Rebind produces a façade for a different element type U over the
// same underlying resource, without touching the resource itself.
func Rebind[U, T any](a Allocator[T]) Allocator[U] {
	return Allocator[U]{resource: a.resource}
}

// arrayHeaderSize is the number of bytes NewArray reserves ahead of the
// first element to record the element count: at least 16 bytes, and at
// least the resource's alignment.
func arrayHeaderSize(align uintptr) uintptr {
	if align > 16 {
		return align
	}
	return 16
}

// NewArray allocates headerSize + count*sizeof(T) bytes from a, writes
// count into the header, constructs each element via init, and returns
// a pointer to the first element. init receives the element's index.
func NewArray[T any](count uintptr, a Allocator[T], init func(index int) T) *T {
	elemSize := elementSize[T]()
	hdr := arrayHeaderSize(a.resource.Alignment())
	raw := a.resource.Allocate(hdr + count*elemSize)
	if raw == nil {
		return nil
	}
	base := addr.FromPointer(raw)
	rawview.Store[uintptr](base, count)

	first := base + hdr
	for i := uintptr(0); i < count; i++ {
		elemPtr := (*T)(addr.ToPointer(first + i*elemSize))
		*elemPtr = init(int(i))
	}
	return (*T)(addr.ToPointer(first))
}

// DeleteArray reads the element count from the header immediately
// preceding ptr, destructs every element, and frees the raw block.
func DeleteArray[T any](ptr *T, a Allocator[T]) bool {
	first := addr.FromPointer(unsafe.Pointer(ptr))
	hdr := arrayHeaderSize(a.resource.Alignment())
	base := first - hdr
	count := rawview.Load[uintptr](base)
	elemSize := elementSize[T]()

	for i := uintptr(0); i < count; i++ {
		elemPtr := (*T)(addr.ToPointer(first + i*elemSize))
		a.Destroy(elemPtr)
	}
	return a.resource.Free(addr.ToPointer(base))
}
