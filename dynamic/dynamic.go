// Package dynamic implements a best-fit resource over a caller-supplied
// byte slice: boundary-tagged blocks threaded into a doubly linked,
// address-sorted free list, with split-on-allocate and coalesce-on-free
// using O(1) neighbor hints.
package dynamic

import (
	"fmt"
	"log/slog"
	"unsafe"

	"microalloc"
	"microalloc/addr"
	"microalloc/internal/region"
)

// Options configures a Dynamic resource's construction.
type Options struct {
	Alignment  uintptr
	FailPolicy alloc.FailPolicy
	Logger     *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithAlignment overrides the default alignment. Dynamic requires an
// alignment of at least twice the pointer width so the boundary-tag low
// bit is always free for the allocation flag.
func WithAlignment(a uintptr) Option { return func(o *Options) { o.Alignment = a } }

// WithFailPolicy attaches a failure hook.
func WithFailPolicy(p alloc.FailPolicy) Option { return func(o *Options) { o.FailPolicy = p } }

// WithLogger overrides the invalid-construction logger.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Stats reports a snapshot of the free list, useful for diagnostics and
// tests without exposing the underlying block layout.
type Stats struct {
	LiveBytes        uintptr
	FreeBytes        uintptr
	FreeBlockCount   uintptr
	LargestFreeBlock uintptr
}

// Dynamic is a best-fit allocator over a caller-supplied byte slice.
type Dynamic struct {
	reg          region.Region
	freeListHead uintptr // 0 means empty
	headerSize   uintptr
	footerSize   uintptr
	valid        bool
	fail         alloc.FailPolicy
}

// New constructs a Dynamic resource over buf as a single free block
// spanning the whole aligned region.
func New(buf []byte, opts ...Option) *Dynamic {
	o := Options{Alignment: 2 * addr.PointerWidth, FailPolicy: alloc.NoopFailPolicy{}}
	for _, opt := range opts {
		opt(&o)
	}
	if addr.IsPowerOfTwo(o.Alignment) && o.Alignment < 2*addr.PointerWidth {
		o.Alignment = 2 * addr.PointerWidth
	}
	if o.FailPolicy == nil {
		o.FailPolicy = alloc.NoopFailPolicy{}
	}

	d := &Dynamic{
		fail:       o.FailPolicy,
		headerSize: headerSizeFor(o.Alignment),
		footerSize: footerSizeFor(o.Alignment),
	}
	if !addr.ValidAlignment(o.Alignment) {
		alloc.LogInvalidConfig(o.Logger, alloc.TagDynamic, 0, 0, o.Alignment, alloc.ErrInvalidConfig)
		return d
	}

	minBlock := minBlockSizeFor(o.Alignment)
	reg, ok := region.New(buf, o.Alignment, minBlock)
	d.reg = reg
	d.valid = ok
	if !ok {
		alloc.LogInvalidConfig(o.Logger, alloc.TagDynamic, reg.Start(), reg.End(), o.Alignment, alloc.ErrInvalidConfig)
		return d
	}

	start, size := reg.Start(), reg.Size()
	writeHeader(start, size, false)
	writeFooter(start, size, d.footerSize, false)
	setPrev(start, d.headerSize, 0)
	setNext(start, d.headerSize, 0)
	d.freeListHead = start
	return d
}

func (d *Dynamic) requiredBlockSize(n uintptr) uintptr {
	align := d.reg.Align()
	rounded := addr.AlignUp(n, align)
	required := rounded + d.headerSize + d.footerSize
	min := minBlockSizeFor(align)
	if required < min {
		required = min
	}
	return addr.AlignUp(required, align)
}

func (d *Dynamic) blockSize(blockAddr uintptr) uintptr {
	return unpackSize(readHeader(blockAddr))
}

// Allocate searches the free list for the smallest block that is large
// enough to satisfy n (best fit, first-seen wins among ties), splits off
// the remainder when it would itself be a usable block, and returns the
// address immediately after the allocated block's header.
func (d *Dynamic) Allocate(n uintptr) unsafe.Pointer {
	if !d.valid {
		detail := alloc.InvalidConfig(alloc.TagDynamic, "Allocate",
			fmt.Sprintf("region [%#x,%#x) align %d is not usable", d.reg.Start(), d.reg.End(), d.reg.Align()))
		d.fail.OnFail(alloc.TagDynamic, "Allocate", detail)
		return nil
	}
	required := d.requiredBlockSize(n)

	var best uintptr
	var bestSize uintptr
	for node := d.freeListHead; node != 0; node = getNext(node, d.headerSize) {
		size := d.blockSize(node)
		if size >= required && (best == 0 || size < bestSize) {
			best, bestSize = node, size
		}
	}
	if best == 0 {
		d.fail.OnFail(alloc.TagDynamic, "Allocate", alloc.ErrOutOfSpace)
		return nil
	}

	align := d.reg.Align()
	minBlock := minBlockSizeFor(align)
	prev := getPrev(best, d.headerSize)
	next := getNext(best, d.headerSize)

	if bestSize >= required+minBlock+align {
		leftSize := required
		rightSize := bestSize - required
		rightAddr := best + leftSize

		writeHeader(best, leftSize, true)
		writeFooter(best, leftSize, d.footerSize, true)

		writeHeader(rightAddr, rightSize, false)
		writeFooter(rightAddr, rightSize, d.footerSize, false)
		setPrev(rightAddr, d.headerSize, prev)
		setNext(rightAddr, d.headerSize, next)
		if prev != 0 {
			setNext(prev, d.headerSize, rightAddr)
		} else {
			d.freeListHead = rightAddr
		}
		if next != 0 {
			setPrev(next, d.headerSize, rightAddr)
		}
	} else {
		if prev != 0 {
			setNext(prev, d.headerSize, next)
		} else {
			d.freeListHead = next
		}
		if next != 0 {
			setPrev(next, d.headerSize, prev)
		}
		writeHeader(best, bestSize, true)
		writeFooter(best, bestSize, d.footerSize, true)
	}
	return addr.ToPointer(best + d.headerSize)
}

// Free validates that p's block is A-aligned, within the region, carries
// matching header and footer tags, and is currently allocated; it then
// coalesces with an immediately adjacent free left and/or right neighbor
// before reinserting the merged block at its address-sorted position.
func (d *Dynamic) Free(p unsafe.Pointer) bool {
	if !d.valid {
		detail := alloc.InvalidConfig(alloc.TagDynamic, "Free",
			fmt.Sprintf("region [%#x,%#x) align %d is not usable", d.reg.Start(), d.reg.End(), d.reg.Align()))
		d.fail.OnFail(alloc.TagDynamic, "Free", detail)
		return false
	}
	a := addr.FromPointer(p)
	align := d.reg.Align()
	if a%align != 0 {
		detail := alloc.InvalidFree(alloc.TagDynamic, "Free",
			fmt.Sprintf("address %#x is not a multiple of alignment %d", a, align))
		d.fail.OnFail(alloc.TagDynamic, "Free", detail)
		return false
	}
	blockAddr := a - d.headerSize
	start, end := d.reg.Start(), d.reg.End()
	if blockAddr < start || blockAddr >= end {
		detail := alloc.InvalidFree(alloc.TagDynamic, "Free",
			fmt.Sprintf("block address %#x is outside region [%#x,%#x)", blockAddr, start, end))
		d.fail.OnFail(alloc.TagDynamic, "Free", detail)
		return false
	}

	hdr := readHeader(blockAddr)
	size := unpackSize(hdr)
	if blockAddr+size > end {
		detail := alloc.InvalidFree(alloc.TagDynamic, "Free",
			fmt.Sprintf("block at %#x claims size %d, extending past region end %#x", blockAddr, size, end))
		d.fail.OnFail(alloc.TagDynamic, "Free", detail)
		return false
	}
	ftr := readFooter(blockAddr, size, d.footerSize)
	if hdr != ftr {
		detail := alloc.InvalidFree(alloc.TagDynamic, "Free",
			fmt.Sprintf("block at %#x has mismatched header %#x and footer %#x", blockAddr, hdr, ftr))
		d.fail.OnFail(alloc.TagDynamic, "Free", detail)
		return false
	}
	if !isAllocated(hdr) {
		detail := alloc.InvalidFree(alloc.TagDynamic, "Free",
			fmt.Sprintf("block at %#x is already free", blockAddr))
		d.fail.OnFail(alloc.TagDynamic, "Free", detail)
		return false
	}

	blockStart := blockAddr
	blockEnd := blockAddr + size
	newSize := size
	var leftHint, rightHint uintptr

	if blockStart > start {
		leftFooterVal := readHeader(blockStart - d.footerSize) // footer word, same layout as header
		if !isAllocated(leftFooterVal) {
			leftSize := unpackSize(leftFooterVal)
			leftBlockAddr := blockStart - leftSize
			lp := getPrev(leftBlockAddr, d.headerSize)
			ln := getNext(leftBlockAddr, d.headerSize)
			if lp != 0 {
				setNext(lp, d.headerSize, ln)
			} else {
				d.freeListHead = ln
			}
			if ln != 0 {
				setPrev(ln, d.headerSize, lp)
			}
			leftHint = lp
			blockStart = leftBlockAddr
			newSize += leftSize
		}
	}

	if blockEnd < end {
		rightHeaderVal := readHeader(blockEnd)
		if !isAllocated(rightHeaderVal) {
			rightSize := unpackSize(rightHeaderVal)
			rightBlockAddr := blockEnd
			rp := getPrev(rightBlockAddr, d.headerSize)
			rn := getNext(rightBlockAddr, d.headerSize)
			if rp != 0 {
				setNext(rp, d.headerSize, rn)
			} else {
				d.freeListHead = rn
			}
			if rn != 0 {
				setPrev(rn, d.headerSize, rp)
			}
			rightHint = rn
			blockEnd = rightBlockAddr + rightSize
			newSize += rightSize
		}
	}

	writeHeader(blockStart, newSize, false)
	writeFooter(blockStart, newSize, d.footerSize, false)
	d.insertFree(blockStart, leftHint, rightHint)
	return true
}

// insertFree splices node into the address-sorted free list. leftHint,
// when nonzero, is the prev of a just-unlinked left neighbor, so node
// belongs directly after it. rightHint, when nonzero and leftHint is
// not, is the next of a just-unlinked right neighbor, so node belongs
// directly before it. Otherwise the list is walked in address order.
func (d *Dynamic) insertFree(node, leftHint, rightHint uintptr) {
	if d.freeListHead == 0 {
		setPrev(node, d.headerSize, 0)
		setNext(node, d.headerSize, 0)
		d.freeListHead = node
		return
	}
	if leftHint != 0 {
		after := getNext(leftHint, d.headerSize)
		setPrev(node, d.headerSize, leftHint)
		setNext(node, d.headerSize, after)
		setNext(leftHint, d.headerSize, node)
		if after != 0 {
			setPrev(after, d.headerSize, node)
		}
		return
	}
	if rightHint != 0 {
		before := getPrev(rightHint, d.headerSize)
		setNext(node, d.headerSize, rightHint)
		setPrev(node, d.headerSize, before)
		setPrev(rightHint, d.headerSize, node)
		if before != 0 {
			setNext(before, d.headerSize, node)
		} else {
			d.freeListHead = node
		}
		return
	}

	var prevNode uintptr
	cur := d.freeListHead
	for cur != 0 && cur < node {
		prevNode = cur
		cur = getNext(cur, d.headerSize)
	}
	setPrev(node, d.headerSize, prevNode)
	setNext(node, d.headerSize, cur)
	if cur != 0 {
		setPrev(cur, d.headerSize, node)
	}
	if prevNode != 0 {
		setNext(prevNode, d.headerSize, node)
	} else {
		d.freeListHead = node
	}
}

// Available returns the usable payload of the single largest free
// block, the most any one Allocate call could presently satisfy.
func (d *Dynamic) Available() uintptr {
	if !d.valid {
		return 0
	}
	var largest uintptr
	for node := d.freeListHead; node != 0; node = getNext(node, d.headerSize) {
		if size := d.blockSize(node); size > largest {
			largest = size
		}
	}
	if largest <= d.headerSize+d.footerSize {
		return 0
	}
	return largest - d.headerSize - d.footerSize
}

// Stats reports the current free-list composition.
func (d *Dynamic) Stats() Stats {
	var s Stats
	for node := d.freeListHead; node != 0; node = getNext(node, d.headerSize) {
		size := d.blockSize(node)
		s.FreeBytes += size
		s.FreeBlockCount++
		if size > s.LargestFreeBlock {
			s.LargestFreeBlock = size
		}
	}
	if d.valid {
		s.LiveBytes = d.reg.Size() - s.FreeBytes
	}
	return s
}

// Equal reports whether other is a Dynamic resource over the same
// region.
func (d *Dynamic) Equal(other alloc.Resource) bool {
	o, ok := other.(*Dynamic)
	return ok && o != nil && d.reg.SameBacking(o.reg)
}

// Valid reports whether construction produced a usable resource.
func (d *Dynamic) Valid() bool { return d.valid }

// Tag identifies this resource as alloc.TagDynamic.
func (d *Dynamic) Tag() alloc.ResourceTag { return alloc.TagDynamic }

// Alignment returns the alignment in effect.
func (d *Dynamic) Alignment() uintptr { return d.reg.Align() }
