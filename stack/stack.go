// Package stack implements a LIFO bump resource: each allocation writes a
// footer recording the distance back to the previous cursor position, so
// Free can validate that the caller is releasing the current top of the
// stack before rewinding.
package stack

import (
	"fmt"
	"log/slog"
	"unsafe"

	"microalloc"
	"microalloc/addr"
	"microalloc/internal/region"
	"microalloc/internal/rawview"
)

// footer sits immediately after every allocated block and records the
// number of bytes from the previous cursor position to the new one.
type footer struct {
	distance uintptr
}

func footerSize(align uintptr) uintptr {
	return addr.AlignUp(rawview.Size[footer](), align)
}

// Options configures a Stack resource's construction.
type Options struct {
	Alignment  uintptr
	FailPolicy alloc.FailPolicy
	Logger     *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithAlignment overrides the default alignment.
func WithAlignment(a uintptr) Option { return func(o *Options) { o.Alignment = a } }

// WithFailPolicy attaches a failure hook.
func WithFailPolicy(p alloc.FailPolicy) Option { return func(o *Options) { o.FailPolicy = p } }

// WithLogger overrides the invalid-construction logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Stack is a LIFO bump allocator over a caller-supplied byte slice.
type Stack struct {
	reg    region.Region
	cursor uintptr
	valid  bool
	fail   alloc.FailPolicy
}

// New constructs a Stack resource over buf.
func New(buf []byte, opts ...Option) *Stack {
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

	s := &Stack{fail: o.FailPolicy}
	if !addr.ValidAlignment(o.Alignment) {
		alloc.LogInvalidConfig(o.Logger, alloc.TagStack, 0, 0, o.Alignment, alloc.ErrInvalidConfig)
		return s
	}
	reg, ok := region.New(buf, o.Alignment, footerSize(o.Alignment))
	s.reg = reg
	s.cursor = reg.Start()
	s.valid = ok
	if !ok {
		alloc.LogInvalidConfig(o.Logger, alloc.TagStack, reg.Start(), reg.End(), o.Alignment, alloc.ErrInvalidConfig)
	}
	return s
}

// Allocate pushes a new block of at least n bytes and returns its
// address, or nil if n is zero or the block (plus its footer) would not
// fit before the end of the region.
func (s *Stack) Allocate(n uintptr) unsafe.Pointer {
	if !s.valid {
		detail := alloc.InvalidConfig(alloc.TagStack, "Allocate",
			fmt.Sprintf("region [%#x,%#x) align %d is not usable", s.reg.Start(), s.reg.End(), s.reg.Align()))
		s.fail.OnFail(alloc.TagStack, "Allocate", detail)
		return nil
	}
	if n == 0 {
		s.fail.OnFail(alloc.TagStack, "Allocate", alloc.ErrZeroSizeRequest)
		return nil
	}
	align := s.reg.Align()
	previousCursor := s.cursor
	userStart := addr.AlignUp(previousCursor, align)
	footerStart := userStart + addr.AlignUp(n, align)
	newCursor := footerStart + footerSize(align)
	if newCursor > s.reg.End() {
		s.fail.OnFail(alloc.TagStack, "Allocate", alloc.ErrOutOfSpace)
		return nil
	}
	rawview.Store(footerStart, footer{distance: newCursor - previousCursor})
	s.cursor = newCursor
	return addr.ToPointer(userStart)
}

// Free pops the top-of-stack block if p is its address. Freeing anything
// else — an empty stack, an address that is not the current top, or an
// address already freed — returns false and leaves the stack unchanged.
func (s *Stack) Free(p unsafe.Pointer) bool {
	if !s.valid {
		detail := alloc.InvalidConfig(alloc.TagStack, "Free",
			fmt.Sprintf("region [%#x,%#x) align %d is not usable", s.reg.Start(), s.reg.End(), s.reg.Align()))
		s.fail.OnFail(alloc.TagStack, "Free", detail)
		return false
	}
	if s.cursor == s.reg.Start() {
		detail := alloc.InvalidFree(alloc.TagStack, "Free", "stack is empty")
		s.fail.OnFail(alloc.TagStack, "Free", detail)
		return false
	}
	align := s.reg.Align()
	f := rawview.Load[footer](s.cursor - footerSize(align))
	topUserStart := s.cursor - f.distance
	if addr.FromPointer(p) != topUserStart {
		detail := alloc.InvalidFree(alloc.TagStack, "Free",
			fmt.Sprintf("address %#x is not the current top of stack %#x", addr.FromPointer(p), topUserStart))
		s.fail.OnFail(alloc.TagStack, "Free", detail)
		return false
	}
	s.cursor = topUserStart
	return true
}

// Available returns the number of bytes between the cursor and the end
// of the region; a subsequent Allocate may need less than this due to
// footer overhead.
func (s *Stack) Available() uintptr {
	if !s.valid || s.cursor > s.reg.End() {
		return 0
	}
	return s.reg.End() - s.cursor
}

// Equal reports whether other is a Stack resource over the same region.
func (s *Stack) Equal(other alloc.Resource) bool {
	o, ok := other.(*Stack)
	return ok && o != nil && s.reg.SameBacking(o.reg)
}

// Valid reports whether construction produced a usable resource.
func (s *Stack) Valid() bool { return s.valid }

// Tag identifies this resource as alloc.TagStack.
func (s *Stack) Tag() alloc.ResourceTag { return alloc.TagStack }

// Alignment returns the alignment in effect.
func (s *Stack) Alignment() uintptr { return s.reg.Align() }
