// Package linear implements a bump-pointer resource: O(1) allocation, no
// per-block metadata, and a bulk Reset that rewinds the cursor to the
// start of the region in one step. It serves parse-then-reset and
// per-frame scratch workloads where the decisive property is that
// allocation never walks any list.
package linear

import (
	"fmt"
	"log/slog"
	"unsafe"

	"microalloc"
	"microalloc/addr"
	"microalloc/internal/region"
)

// Options configures a Linear resource's construction.
type Options struct {
	Alignment  uintptr
	FailPolicy alloc.FailPolicy
	Logger     *slog.Logger
}

// Option mutates Options; see WithAlignment, WithFailPolicy, WithLogger.
type Option func(*Options)

// WithAlignment overrides the default alignment (the address integer's
// width). A power of two smaller than that width is promoted up to it; a
// value that is not a power of two makes the resource invalid.
func WithAlignment(a uintptr) Option {
	return func(o *Options) { o.Alignment = a }
}

// WithFailPolicy attaches a hook invoked on every call that would return
// nil/false. The default is alloc.NoopFailPolicy.
func WithFailPolicy(p alloc.FailPolicy) Option {
	return func(o *Options) { o.FailPolicy = p }
}

// WithLogger overrides the logger used for the one-shot invalid-construction
// log line. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Linear is a bump-pointer allocator over a caller-supplied byte slice.
type Linear struct {
	reg    region.Region
	cursor uintptr
	valid  bool
	fail   alloc.FailPolicy
}

// New constructs a Linear resource over buf. The resource never outlives
// buf's validity; the caller owns buf's lifetime.
func New(buf []byte, opts ...Option) *Linear {
	o := Options{Alignment: addr.PointerWidth, FailPolicy: alloc.NoopFailPolicy{}}
	for _, opt := range opts {
		opt(&o)
	}
	if addr.IsPowerOfTwo(o.Alignment) && o.Alignment < addr.PointerWidth {
		o.Alignment = addr.PointerWidth
	}
	if o.FailPolicy == nil {
		o.FailPolicy = alloc.NoopFailPolicy{}
	}

	l := &Linear{fail: o.FailPolicy}
	if !addr.ValidAlignment(o.Alignment) {
		alloc.LogInvalidConfig(o.Logger, alloc.TagLinear, 0, 0, o.Alignment, alloc.ErrInvalidConfig)
		return l
	}
	reg, ok := region.New(buf, o.Alignment, 0)
	l.reg = reg
	l.cursor = reg.Start()
	l.valid = ok
	if !ok {
		alloc.LogInvalidConfig(o.Logger, alloc.TagLinear, reg.Start(), reg.End(), o.Alignment, alloc.ErrInvalidConfig)
	}
	return l
}

// Allocate rounds n up to the resource's alignment and returns the
// current cursor, or nil if n is zero or the region has no room left.
func (l *Linear) Allocate(n uintptr) unsafe.Pointer {
	if !l.valid {
		detail := alloc.InvalidConfig(alloc.TagLinear, "Allocate",
			fmt.Sprintf("region [%#x,%#x) align %d is not usable", l.reg.Start(), l.reg.End(), l.reg.Align()))
		l.fail.OnFail(alloc.TagLinear, "Allocate", detail)
		return nil
	}
	if n == 0 {
		l.fail.OnFail(alloc.TagLinear, "Allocate", alloc.ErrZeroSizeRequest)
		return nil
	}
	rounded := addr.AlignUp(n, l.reg.Align())
	if rounded > l.Available() {
		l.fail.OnFail(alloc.TagLinear, "Allocate", alloc.ErrOutOfSpace)
		return nil
	}
	p := l.cursor
	l.cursor += rounded
	return addr.ToPointer(p)
}

// Free is a no-op: Linear never reclaims individual allocations. It
// always returns false.
func (l *Linear) Free(p unsafe.Pointer) bool {
	detail := alloc.InvalidFree(alloc.TagLinear, "Free",
		fmt.Sprintf("address %#x: linear resources never reclaim individual allocations", addr.FromPointer(p)))
	l.fail.OnFail(alloc.TagLinear, "Free", detail)
	return false
}

// Reset rewinds the cursor to the start of the region, invalidating every
// pointer previously returned by Allocate. The caller is responsible for
// not dereferencing those pointers afterward.
func (l *Linear) Reset() {
	if l.valid {
		l.cursor = l.reg.Start()
	}
}

// Available returns the number of bytes still reachable before the end of
// the region.
func (l *Linear) Available() uintptr {
	if !l.valid || l.cursor > l.reg.End() {
		return 0
	}
	return l.reg.End() - l.cursor
}

// Equal reports whether other is a Linear resource over the same region.
func (l *Linear) Equal(other alloc.Resource) bool {
	o, ok := other.(*Linear)
	return ok && o != nil && l.reg.SameBacking(o.reg)
}

// Valid reports whether construction produced a usable resource.
func (l *Linear) Valid() bool { return l.valid }

// Tag identifies this resource as alloc.TagLinear.
func (l *Linear) Tag() alloc.ResourceTag { return alloc.TagLinear }

// Alignment returns the alignment in effect.
func (l *Linear) Alignment() uintptr { return l.reg.Align() }
