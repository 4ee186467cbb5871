// Package pool implements a fixed-size-block resource: construction lays
// the region out into N equal blocks threaded into a singly linked free
// list, Allocate unlinks the root in O(1), and Free relinks the block at
// the head, optionally walking the list first to reject a double free.
package pool

import (
	"fmt"
	"log/slog"
	"unsafe"

	"microalloc"
	"microalloc/addr"
	"microalloc/internal/region"
	"microalloc/internal/rawview"
)

// SizeClass promotes a caller's requested block size to the smallest
// value that is both align-rounded and large enough to hold one free-list
// link pointer — the same rounding a segmented allocator's block-size
// helper performs before laying out blocks.
func SizeClass(requestedBlockSize, align uintptr) uintptr {
	minBlock := addr.AlignUp(addr.PointerWidth, align)
	rounded := addr.AlignUp(requestedBlockSize, align)
	if rounded < minBlock {
		return minBlock
	}
	return rounded
}

// Options configures a Pool resource's construction.
type Options struct {
	Alignment       uintptr
	GuardDoubleFree bool
	FailPolicy      alloc.FailPolicy
	Logger          *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithAlignment overrides the default alignment.
func WithAlignment(a uintptr) Option { return func(o *Options) { o.Alignment = a } }

// WithGuardDoubleFree enables an O(free-count) walk on every Free that
// rejects a pointer already present in the free list.
func WithGuardDoubleFree() Option { return func(o *Options) { o.GuardDoubleFree = true } }

// WithFailPolicy attaches a failure hook.
func WithFailPolicy(p alloc.FailPolicy) Option { return func(o *Options) { o.FailPolicy = p } }

// WithLogger overrides the invalid-construction logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Pool is a fixed-size-block allocator over a caller-supplied byte slice.
type Pool struct {
	reg             region.Region
	blockSize       uintptr
	blockCount      uintptr
	root            uintptr // 0 means the free list is empty
	freeCount       uintptr
	guardDoubleFree bool
	valid           bool
	fail            alloc.FailPolicy
}

// New constructs a Pool resource over buf with the given requested block
// size, promoted via SizeClass.
func New(buf []byte, blockSize uintptr, opts ...Option) *Pool {
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

	p := &Pool{fail: o.FailPolicy, guardDoubleFree: o.GuardDoubleFree}
	if !addr.ValidAlignment(o.Alignment) {
		alloc.LogInvalidConfig(o.Logger, alloc.TagPool, 0, 0, o.Alignment, alloc.ErrInvalidConfig)
		return p
	}
	p.blockSize = SizeClass(blockSize, o.Alignment)

	reg, ok := region.New(buf, o.Alignment, p.blockSize)
	p.reg = reg
	p.valid = ok
	if !ok {
		alloc.LogInvalidConfig(o.Logger, alloc.TagPool, reg.Start(), reg.End(), o.Alignment, alloc.ErrInvalidConfig)
		return p
	}

	p.blockCount = reg.Size() / p.blockSize
	p.layout()
	return p
}

func (p *Pool) layout() {
	start := p.reg.Start()
	for i := uintptr(0); i < p.blockCount; i++ {
		blockAddr := start + i*p.blockSize
		var next uintptr
		if i+1 < p.blockCount {
			next = start + (i+1)*p.blockSize
		}
		rawview.Store[uintptr](blockAddr, next)
	}
	if p.blockCount > 0 {
		p.root = start
	}
	p.freeCount = p.blockCount
}

// Allocate unlinks the free-list root and returns it, or nil if n
// exceeds the pool's fixed block size or the pool is exhausted. n is
// otherwise ignored: every block handed out is exactly BlockSize() bytes.
func (p *Pool) Allocate(n uintptr) unsafe.Pointer {
	if !p.valid {
		detail := alloc.InvalidConfig(alloc.TagPool, "Allocate",
			fmt.Sprintf("region [%#x,%#x) block size %d is not usable", p.reg.Start(), p.reg.End(), p.blockSize))
		p.fail.OnFail(alloc.TagPool, "Allocate", detail)
		return nil
	}
	if n > p.blockSize {
		p.fail.OnFail(alloc.TagPool, "Allocate", alloc.ErrOutOfSpace)
		return nil
	}
	if p.root == 0 {
		p.fail.OnFail(alloc.TagPool, "Allocate", alloc.ErrOutOfSpace)
		return nil
	}
	block := p.root
	p.root = rawview.Load[uintptr](block)
	p.freeCount--
	return addr.ToPointer(block)
}

// Free validates that p is a block address belonging to this pool — in
// range and block-size aligned — and, if guarded, not already on the
// free list, then pushes it onto the free-list head.
func (p *Pool) Free(ptr unsafe.Pointer) bool {
	if !p.valid {
		detail := alloc.InvalidConfig(alloc.TagPool, "Free",
			fmt.Sprintf("region [%#x,%#x) block size %d is not usable", p.reg.Start(), p.reg.End(), p.blockSize))
		p.fail.OnFail(alloc.TagPool, "Free", detail)
		return false
	}
	a := addr.FromPointer(ptr)
	if !p.belongsToPool(a) {
		detail := alloc.InvalidFree(alloc.TagPool, "Free",
			fmt.Sprintf("address %#x is out of range or not block-size aligned", a))
		p.fail.OnFail(alloc.TagPool, "Free", detail)
		return false
	}
	if p.guardDoubleFree && p.isOnFreeList(a) {
		detail := alloc.InvalidFree(alloc.TagPool, "Free",
			fmt.Sprintf("address %#x is already on the free list", a))
		p.fail.OnFail(alloc.TagPool, "Free", detail)
		return false
	}
	rawview.Store[uintptr](a, p.root)
	p.root = a
	p.freeCount++
	return true
}

func (p *Pool) belongsToPool(a uintptr) bool {
	start := p.reg.Start()
	limit := start + p.blockCount*p.blockSize
	if a < start || a >= limit {
		return false
	}
	return (a-start)%p.blockSize == 0
}

func (p *Pool) isOnFreeList(a uintptr) bool {
	for node := p.root; node != 0; node = rawview.Load[uintptr](node) {
		if node == a {
			return true
		}
	}
	return false
}

// Available returns freeCount * blockSize, the total the pool could
// currently hand out in block-sized pieces.
func (p *Pool) Available() uintptr {
	if !p.valid {
		return 0
	}
	return p.freeCount * p.blockSize
}

// FreeBlocks returns the number of blocks currently on the free list.
func (p *Pool) FreeBlocks() uintptr { return p.freeCount }

// BlockSize returns the promoted block size actually in effect.
func (p *Pool) BlockSize() uintptr { return p.blockSize }

// Equal reports whether other is a Pool resource over the same region.
func (p *Pool) Equal(other alloc.Resource) bool {
	o, ok := other.(*Pool)
	return ok && o != nil && p.reg.SameBacking(o.reg)
}

// Valid reports whether construction produced a usable resource.
func (p *Pool) Valid() bool { return p.valid }

// Tag identifies this resource as alloc.TagPool.
func (p *Pool) Tag() alloc.ResourceTag { return alloc.TagPool }

// Alignment returns the alignment in effect.
func (p *Pool) Alignment() uintptr { return p.reg.Align() }
