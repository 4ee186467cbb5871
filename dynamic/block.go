package dynamic

import (
	"microalloc/addr"
	"microalloc/internal/rawview"
)

// Every block, free or allocated, carries a boundary-tag pair: an
// identical header and footer word at each end holding size_and_status —
// the block's total aligned size with the low bit set iff allocated.
// Free blocks additionally hold prev/next free-list pointers immediately
// after the header.
const allocatedBit uintptr = 1

func packSizeStatus(size uintptr, allocated bool) uintptr {
	v := size
	if allocated {
		v |= allocatedBit
	}
	return v
}

func unpackSize(v uintptr) uintptr { return v &^ allocatedBit }

func isAllocated(v uintptr) bool { return v&allocatedBit != 0 }

func headerSizeFor(align uintptr) uintptr {
	return addr.AlignUp(addr.PointerWidth, align)
}

func footerSizeFor(align uintptr) uintptr {
	return addr.AlignUp(addr.PointerWidth, align)
}

// minBlockSizeFor is align_up(sizeof(free-header-with-prev-next)) +
// align_up(sizeof(footer)): header word, prev pointer, next pointer,
// footer word, all rounded to align.
func minBlockSizeFor(align uintptr) uintptr {
	h := headerSizeFor(align)
	f := footerSizeFor(align)
	raw := h + 2*addr.PointerWidth + f
	return addr.AlignUp(raw, align)
}

func readHeader(blockAddr uintptr) uintptr {
	return rawview.Load[uintptr](blockAddr)
}

func writeHeader(blockAddr, size uintptr, allocated bool) {
	rawview.Store(blockAddr, packSizeStatus(size, allocated))
}

func footerAddr(blockAddr, size, footerSize uintptr) uintptr {
	return blockAddr + size - footerSize
}

func readFooter(blockAddr, size, footerSize uintptr) uintptr {
	return rawview.Load[uintptr](footerAddr(blockAddr, size, footerSize))
}

func writeFooter(blockAddr, size, footerSize uintptr, allocated bool) {
	rawview.Store(footerAddr(blockAddr, size, footerSize), packSizeStatus(size, allocated))
}

func linkOffsets(headerSize uintptr) (prevOff, nextOff uintptr) {
	return headerSize, headerSize + addr.PointerWidth
}

func getPrev(blockAddr, headerSize uintptr) uintptr {
	off, _ := linkOffsets(headerSize)
	return rawview.Load[uintptr](blockAddr + off)
}

func setPrev(blockAddr, headerSize, v uintptr) {
	off, _ := linkOffsets(headerSize)
	rawview.Store(blockAddr+off, v)
}

func getNext(blockAddr, headerSize uintptr) uintptr {
	_, off := linkOffsets(headerSize)
	return rawview.Load[uintptr](blockAddr + off)
}

func setNext(blockAddr, headerSize, v uintptr) {
	_, off := linkOffsets(headerSize)
	rawview.Store(blockAddr+off, v)
}
