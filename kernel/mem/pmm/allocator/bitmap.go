// Package allocator implements the page-frame allocator described in
// spec.md §4.2: a single managed physical window tracked by a boolean
// array, with a first-fit ascending scan and no sub-allocator hierarchy.
package allocator

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
)

var (
	errOutOfMemory  = &kernel.Error{Module: "pmm", Message: "no free frame run of the requested size"}
	errDoubleFree   = &kernel.Error{Module: "pmm", Message: "double free or free of unmanaged frame"}
	errOutOfWindow  = &kernel.Error{Module: "pmm", Message: "frame run falls outside the managed window"}
	errBitmapFrames = &kernel.Error{Module: "pmm", Message: "not enough frames to host the allocator's own bitmap"}
)

// BitmapAllocator hands out contiguous runs of physical page frames from a
// single managed window. It sets aside, at the front of the window, as many
// frames as a one-byte-per-frame bitmap of the window would fill (sizing as
// in original_source: allocators/bitmap_allocator.cpp), then tracks the
// remainder with one bool per frame. The bitmap itself is an ordinary Go
// slice: the set-aside frames are only skipped, they are neither mapped
// nor written.
type BitmapAllocator struct {
	// windowStart is the first frame of the managed window, after the
	// allocator's self-reservation.
	windowStart pmm.Frame

	// occupied[i] is true if frame (windowStart + i) is allocated.
	occupied []bool
}

// Init sets aside the bitmap-sized run of frames at the start of the
// sizeInFrames-frame window beginning at base and tracks the rest of the
// window. Frames that are already off-limits (e.g. the kernel image) are
// excluded from the window entirely by the caller before calling Init.
func (a *BitmapAllocator) Init(base pmm.Frame, sizeInFrames uint64) *kernel.Error {
	if sizeInFrames == 0 {
		return errBitmapFrames
	}

	// Reserve ceil(sizeInFrames / PageSize) frames for the bitmap itself:
	// one byte (one bool) per tracked frame, not a packed bitset (spec.md
	// describes the bitmap as a boolean array).
	bitmapBytes := sizeInFrames
	bitmapFrames := (bitmapBytes + uint64(mem.PageSize) - 1) / uint64(mem.PageSize)
	if bitmapFrames >= sizeInFrames {
		return errBitmapFrames
	}

	a.windowStart = base + pmm.Frame(bitmapFrames)
	a.occupied = make([]bool, sizeInFrames-bitmapFrames)
	return nil
}

// Allocate returns the physical start frame of the first run of n
// consecutive free frames, ascending, first-fit, and marks them occupied.
// It is fatal (per spec.md §7.1) if no such run exists.
func (a *BitmapAllocator) Allocate(n uint64) (pmm.Frame, *kernel.Error) {
	if n == 0 || uint64(len(a.occupied)) < n {
		return pmm.InvalidFrame, errOutOfMemory
	}

	run := uint64(0)
	for i := 0; i < len(a.occupied); i++ {
		if a.occupied[i] {
			run = 0
			continue
		}
		run++
		if run == n {
			start := i - int(n) + 1
			for j := start; j <= i; j++ {
				a.occupied[j] = true
			}
			return a.windowStart + pmm.Frame(start), nil
		}
	}

	return pmm.InvalidFrame, errOutOfMemory
}

// Free releases n consecutive frames starting at base. base must be
// page-aligned and the entire run must fall within the managed window;
// violating either is a fatal error (spec.md §4.2).
func (a *BitmapAllocator) Free(base pmm.Frame, n uint64) *kernel.Error {
	if base < a.windowStart {
		return errOutOfWindow
	}

	start := uint64(base - a.windowStart)
	if start+n > uint64(len(a.occupied)) {
		return errOutOfWindow
	}

	for i := start; i < start+n; i++ {
		if !a.occupied[i] {
			return errDoubleFree
		}
		a.occupied[i] = false
	}
	return nil
}

// TotalFrames returns the number of frames tracked by this window
// (excluding the frames reserved for the allocator's own bitmap).
func (a *BitmapAllocator) TotalFrames() uint64 {
	return uint64(len(a.occupied))
}
