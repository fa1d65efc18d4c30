// Package vaddr implements the virtual allocator described in spec.md §4.3:
// a fixed-offset wrapper around the page-frame allocator and the page
// table, grounded in original_source/allocators/virtual_allocator.cpp.
package vaddr

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
	"github.com/CezarPP/BOSS/kernel/mem/vmm"
)

// FrameAllocFn allocates n contiguous physical frames.
type FrameAllocFn func(n uint64) (pmm.Frame, *kernel.Error)

// FrameFreeFn releases n contiguous physical frames starting at base.
type FrameFreeFn func(base pmm.Frame, n uint64) *kernel.Error

// PageMapper is the subset of vmm.PageDirectoryTable the virtual allocator
// needs; kept as an interface so tests don't need a real page table.
type PageMapper interface {
	MapPages(virtAddr uintptr, phys pmm.Frame, n uint64, flags vmm.PageTableEntryFlag) *kernel.Error
	Unmap(virtAddr uintptr)
}

// Allocator hands out virtual pages backed by physical frames obtained
// from a page-frame allocator, maintaining the invariant that every
// address it returns is physicalWindowBase-to-kernelVirtualStart apart
// from its backing physical address by a single constant offset
// (spec.md §4.3).
type Allocator struct {
	allocFrames FrameAllocFn
	freeFrames  FrameFreeFn
	mapper      PageMapper

	// physBase is the base of the physical window the wrapped frame
	// allocator manages.
	physBase pmm.Frame

	// kernelVirtualStart is the virtual address the first managed
	// physical frame maps to; every other mapping is offset from it by
	// the same constant (physAddr - physBase).
	kernelVirtualStart uintptr
}

const mapFlags = vmm.FlagPresent | vmm.FlagRW

// New constructs a virtual allocator. kernelVirtualStart is the virtual
// address immediately above the allocator's own self-mapping window
// (spec.md §4.3: "end of allocator-self-mapping window").
func New(allocFrames FrameAllocFn, freeFrames FrameFreeFn, mapper PageMapper, physBase pmm.Frame, kernelVirtualStart uintptr) *Allocator {
	return &Allocator{
		allocFrames:        allocFrames,
		freeFrames:         freeFrames,
		mapper:             mapper,
		physBase:           physBase,
		kernelVirtualStart: kernelVirtualStart,
	}
}

// VAlloc allocates n physical pages and maps them at the virtual address
// the constant-offset invariant dictates, returning that address.
func (a *Allocator) VAlloc(n uint64) (uintptr, *kernel.Error) {
	phys, err := a.allocFrames(n)
	if err != nil {
		return 0, err
	}

	virt := a.virtFromPhys(phys)
	if err := a.mapper.MapPages(virt, phys, n, mapFlags); err != nil {
		return 0, err
	}
	return virt, nil
}

// VFree unmaps n pages starting at virt and releases their backing frames.
func (a *Allocator) VFree(virt uintptr, n uint64) *kernel.Error {
	phys := a.physFromVirt(virt)
	for i := uint64(0); i < n; i++ {
		a.mapper.Unmap(virt + uintptr(i)*uintptr(mem.PageSize))
	}
	return a.freeFrames(phys, n)
}

func (a *Allocator) virtFromPhys(phys pmm.Frame) uintptr {
	return a.kernelVirtualStart + (phys.Address() - a.physBase.Address())
}

func (a *Allocator) physFromVirt(virt uintptr) pmm.Frame {
	delta := virt - a.kernelVirtualStart
	return a.physBase + pmm.Frame(delta>>mem.PageShift)
}
