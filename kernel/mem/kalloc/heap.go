// Package kalloc implements the two-tier heap allocator described in
// spec.md §4.4: a small-object arena allocator with an intrusive,
// coalescing chunk list, and a page-granular mmap passthrough for large
// requests. Grounded in original_source/allocators/kalloc.cpp.
package kalloc

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/mem"
	"unsafe"
)

// arenaSizePages is the number of pages backing each arena (original_source:
// ARENA_SIZE_PAGES).
const arenaSizePages = 8

// mmapThreshold is the smallest request size routed to the mmap path
// instead of an arena (original_source: MMAP_THRESHOLD == PAGE_SIZE).
const mmapThreshold = uint64(mem.PageSize)

var (
	errNoFreeChunk    = &kernel.Error{Module: "kalloc", Message: "no arena chunk large enough for request"}
	errUnknownPointer = &kernel.Error{Module: "kalloc", Message: "kFree called on a pointer not owned by the heap"}
)

// chunkHeader precedes every chunk's payload, mirroring
// original_source::kalloc::MemoryChunk, except prev/next are stored as
// virtual addresses rather than raw C++ pointers.
type chunkHeader struct {
	allocated bool
	size      uint64
	prev      uintptr
	next      uintptr
}

const chunkHeaderSize = unsafe.Sizeof(chunkHeader{})

func headerAt(addr uintptr) *chunkHeader {
	return (*chunkHeader)(unsafe.Pointer(addr))
}

// arena is one independently managed heap region, organized as an
// intrusive doubly-linked chunk list living at the start of each chunk.
type arena struct {
	start     uintptr
	totalSize uint64
}

func newArena(start uintptr, size uint64) arena {
	h := headerAt(start)
	h.allocated = false
	h.prev = 0
	h.next = 0
	h.size = size - uint64(chunkHeaderSize)
	return arena{start: start, totalSize: size}
}

// malloc returns the payload address of the first free chunk big enough
// for size, splitting it if the remainder can host another header plus at
// least one byte (original_source: Arena::malloc).
func (a *arena) malloc(size uint64) uintptr {
	var result uintptr
	for chunk := a.start; chunk != 0; chunk = headerAt(chunk).next {
		h := headerAt(chunk)
		if h.size >= size && !h.allocated {
			result = chunk
			break
		}
	}
	if result == 0 {
		return 0
	}

	h := headerAt(result)
	if h.size >= size+uint64(chunkHeaderSize)+1 {
		next := result + uintptr(chunkHeaderSize) + uintptr(size)
		nh := headerAt(next)
		nh.allocated = false
		nh.size = h.size - size - uint64(chunkHeaderSize)
		nh.prev = result
		nh.next = h.next
		if nh.next != 0 {
			headerAt(nh.next).prev = next
		}

		h.size = size
		h.next = next
	}

	h.allocated = true
	return result + uintptr(chunkHeaderSize)
}

// free marks the chunk owning ptr as free and coalesces it with an
// immediately adjacent free chunk on either side.
func (a *arena) free(ptr uintptr) {
	chunk := ptr - uintptr(chunkHeaderSize)
	h := headerAt(chunk)
	h.allocated = false

	if h.prev != 0 && !headerAt(h.prev).allocated {
		prev := headerAt(h.prev)
		prev.next = h.next
		prev.size += h.size + uint64(chunkHeaderSize)
		if prev.next != 0 {
			headerAt(prev.next).prev = h.prev
		}
		chunk = h.prev
		h = prev
	}

	if h.next != 0 && !headerAt(h.next).allocated {
		next := headerAt(h.next)
		h.size += next.size + uint64(chunkHeaderSize)
		h.next = next.next
		if h.next != 0 {
			headerAt(h.next).prev = chunk
		}
	}
}

func (a *arena) contains(ptr uintptr) bool {
	return ptr >= a.start && ptr < a.start+uintptr(a.totalSize)
}

// mmapRegion records one large, page-granular allocation. An empty region
// (pages == 0) marks a reusable slot (spec.md §3).
type mmapRegion struct {
	addr  uintptr
	pages uint64
}

func (r mmapRegion) isEmpty() bool { return r.pages == 0 }

// VAllocFn allocates n contiguous virtual pages.
type VAllocFn func(n uint64) (uintptr, *kernel.Error)

// VFreeFn releases n contiguous virtual pages starting at addr.
type VFreeFn func(addr uintptr, n uint64) *kernel.Error

// Heap is the kernel's general-purpose allocator.
type Heap struct {
	vAlloc VAllocFn
	vFree  VFreeFn

	arenas        []arena
	mmapedRegions []mmapRegion
}

// New constructs a Heap backed by the supplied virtual allocator
// functions.
func New(vAlloc VAllocFn, vFree VFreeFn) *Heap {
	return &Heap{vAlloc: vAlloc, vFree: vFree}
}

// KAlloc allocates size bytes, routing requests at or above one page to
// the mmap path and smaller requests to the arena path (spec.md §4.4).
func (h *Heap) KAlloc(size uint64) (uintptr, *kernel.Error) {
	if size >= mmapThreshold {
		return h.allocMmaped(size)
	}

	for i := range h.arenas {
		if ptr := h.arenas[i].malloc(size); ptr != 0 {
			return ptr, nil
		}
	}

	start, err := h.vAlloc(arenaSizePages)
	if err != nil {
		return 0, err
	}
	h.arenas = append(h.arenas, newArena(start, uint64(arenaSizePages)*uint64(mem.PageSize)))

	ptr := h.arenas[len(h.arenas)-1].malloc(size)
	if ptr == 0 {
		return 0, errNoFreeChunk
	}
	return ptr, nil
}

func (h *Heap) allocMmaped(size uint64) (uintptr, *kernel.Error) {
	pages := size / uint64(mem.PageSize)
	if size%uint64(mem.PageSize) != 0 {
		pages++
	}

	addr, err := h.vAlloc(pages)
	if err != nil {
		return 0, err
	}

	for i := range h.mmapedRegions {
		if h.mmapedRegions[i].isEmpty() {
			h.mmapedRegions[i] = mmapRegion{addr: addr, pages: pages}
			return addr, nil
		}
	}
	h.mmapedRegions = append(h.mmapedRegions, mmapRegion{addr: addr, pages: pages})
	return addr, nil
}

// KFree releases a pointer previously returned by KAlloc. A pointer not
// owned by any mmap slot or arena is a fatal error (spec.md §4.4).
func (h *Heap) KFree(ptr uintptr) *kernel.Error {
	for i := range h.mmapedRegions {
		r := &h.mmapedRegions[i]
		if !r.isEmpty() && r.addr == ptr {
			if err := h.vFree(ptr, r.pages); err != nil {
				return err
			}
			*r = mmapRegion{}
			return nil
		}
	}

	for i := range h.arenas {
		if h.arenas[i].contains(ptr) {
			h.arenas[i].free(ptr)
			return nil
		}
	}

	return errUnknownPointer
}
