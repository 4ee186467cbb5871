// Package staticlinear provides the Linear variant that owns its own
// backing storage instead of borrowing a caller's slice: two integers, a
// bank id and a size, select a process-wide buffer and cursor that every
// instance constructed with the same pair shares. It is the form of
// Linear a host reaches for when it has no runtime-provided buffer to
// hand in.
//
// The registry is populated lazily on first reference and assumes
// single-threaded initialisation, per the module's concurrency model; a
// host that cannot guarantee that may install a real lock with
// SetRegistryGuard.
package staticlinear

import (
	"fmt"
	"log/slog"
	"unsafe"

	"microalloc"
	"microalloc/addr"
	"microalloc/internal/region"
)

// RegistryGuard serialises first-use registry population. The default,
// noopGuard, performs no locking at all, matching the module's
// single-threaded assumption; SetRegistryGuard lets a host swap in a real
// mutex without touching any call site.
type RegistryGuard interface {
	Lock()
	Unlock()
}

type noopGuard struct{}

func (noopGuard) Lock()   {}
func (noopGuard) Unlock() {}

var registryGuard RegistryGuard = noopGuard{}

// SetRegistryGuard installs g as the lock guarding first-use population
// of the bank registry. It must be called before any bank is first
// referenced to have any effect on that bank.
func SetRegistryGuard(g RegistryGuard) {
	if g == nil {
		g = noopGuard{}
	}
	registryGuard = g
}

type bankKey struct {
	bankID int
	size   uintptr
}

type bank struct {
	buf    []byte
	reg    region.Region
	cursor uintptr
	valid  bool
}

var registry = map[bankKey]*bank{}

func getOrCreateBank(key bankKey, align uintptr) *bank {
	registryGuard.Lock()
	defer registryGuard.Unlock()

	if b, ok := registry[key]; ok {
		return b
	}
	buf := make([]byte, key.size)
	var reg region.Region
	ok := addr.ValidAlignment(align)
	if ok {
		reg, ok = region.New(buf, align, 0)
	}
	b := &bank{buf: buf, reg: reg, cursor: reg.Start(), valid: ok}
	registry[key] = b
	return b
}

// Options configures a StaticLinear resource's construction.
type Options struct {
	Alignment  uintptr
	FailPolicy alloc.FailPolicy
	Logger     *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithAlignment overrides the default alignment for a bank's first
// construction. It has no effect on a bank that already exists.
func WithAlignment(a uintptr) Option { return func(o *Options) { o.Alignment = a } }

// WithFailPolicy attaches a per-instance failure hook.
func WithFailPolicy(p alloc.FailPolicy) Option { return func(o *Options) { o.FailPolicy = p } }

// WithLogger overrides the logger used when this construction finds its
// bank invalid, whether it created the bank or an earlier call did.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// StaticLinear is a Linear resource backed by a process-wide, bank-keyed
// buffer instead of a caller-supplied slice.
type StaticLinear struct {
	b    *bank
	fail alloc.FailPolicy
}

// New returns a StaticLinear bound to the bank identified by (bankID,
// size). A second call with the same pair observes whatever cursor state
// the first left behind.
func New(bankID int, size uintptr, opts ...Option) *StaticLinear {
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

	key := bankKey{bankID: bankID, size: size}
	b := getOrCreateBank(key, o.Alignment)
	if !b.valid {
		alloc.LogInvalidConfig(o.Logger, alloc.TagStaticLinear, b.reg.Start(), b.reg.End(), o.Alignment, alloc.ErrInvalidConfig)
	}
	return &StaticLinear{b: b, fail: o.FailPolicy}
}

// Allocate rounds n up to the bank's alignment and returns the current
// shared cursor, or nil if n is zero or the bank has no room left.
func (s *StaticLinear) Allocate(n uintptr) unsafe.Pointer {
	if !s.b.valid {
		detail := alloc.InvalidConfig(alloc.TagStaticLinear, "Allocate",
			fmt.Sprintf("bank [%#x,%#x) align %d is not usable", s.b.reg.Start(), s.b.reg.End(), s.b.reg.Align()))
		s.fail.OnFail(alloc.TagStaticLinear, "Allocate", detail)
		return nil
	}
	if n == 0 {
		s.fail.OnFail(alloc.TagStaticLinear, "Allocate", alloc.ErrZeroSizeRequest)
		return nil
	}
	rounded := addr.AlignUp(n, s.b.reg.Align())
	if rounded > s.Available() {
		s.fail.OnFail(alloc.TagStaticLinear, "Allocate", alloc.ErrOutOfSpace)
		return nil
	}
	p := s.b.cursor
	s.b.cursor += rounded
	return addr.ToPointer(p)
}

// Free is a no-op, like Linear's.
func (s *StaticLinear) Free(p unsafe.Pointer) bool {
	detail := alloc.InvalidFree(alloc.TagStaticLinear, "Free",
		fmt.Sprintf("address %#x: static-linear resources never reclaim individual allocations", addr.FromPointer(p)))
	s.fail.OnFail(alloc.TagStaticLinear, "Free", detail)
	return false
}

// Reset rewinds the shared cursor to the start of the bank, affecting
// every instance sharing this (bankID, size).
func (s *StaticLinear) Reset() {
	if s.b.valid {
		s.b.cursor = s.b.reg.Start()
	}
}

// Available returns the number of bytes left in the shared bank.
func (s *StaticLinear) Available() uintptr {
	if !s.b.valid || s.b.cursor > s.b.reg.End() {
		return 0
	}
	return s.b.reg.End() - s.b.cursor
}

// Equal reports whether other shares this instance's bank.
func (s *StaticLinear) Equal(other alloc.Resource) bool {
	o, ok := other.(*StaticLinear)
	return ok && o != nil && s.b == o.b
}

// Valid reports whether this instance's bank is usable.
func (s *StaticLinear) Valid() bool { return s.b.valid }

// Tag identifies this resource as alloc.TagStaticLinear.
func (s *StaticLinear) Tag() alloc.ResourceTag { return alloc.TagStaticLinear }

// Alignment returns the alignment in effect for this instance's bank.
func (s *StaticLinear) Alignment() uintptr { return s.b.reg.Align() }
