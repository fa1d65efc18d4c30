// Package vmm builds and mutates the four-level x86_64 page table
// described in spec.md §4.1. Unlike the teacher's walk.go, which derives a
// page table's virtual address from its physical address via a
// self-referential PML4 slot, this package maps the entire pre-allocated
// table pool at a single fixed virtual base and computes
// virt = tablePoolVirtBase + (phys - tablePoolPhysBase) directly. spec.md
// §9 flags the self-referential trick explicitly and prescribes this
// alternative; see DESIGN.md.
package vmm

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/cpu"
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
)

const (
	entriesPerTable = 512
	pageLevels      = 4

	// kernelWindowSize is the span of virtual address space the
	// statically allocated level-4 tree covers (spec.md §4.1: "up to 2
	// GiB of kernel virtual space").
	kernelWindowSize = 2 * uint64(mem.Gb)
)

// pageLevelShifts holds the bit shift for each of the four levels, from
// PML4 (most significant) down to PT (least significant, leaf level).
var pageLevelShifts = [pageLevels]uint{39, 30, 21, 12}

var (
	errAlreadyMapped  = &kernel.Error{Module: "vmm", Message: "virtual address already mapped to a different frame or without the requested flags"}
	errNotPageAligned = &kernel.Error{Module: "vmm", Message: "virtual address is not page-aligned"}

	// frameAllocator supplies frames for the page-table pool and is
	// registered via SetFrameAllocator before Init runs.
	frameAllocator FrameAllocatorFn

	// flushTLBEntryFn is mocked by tests; calling the real cpu.FlushTLBEntry
	// requires the assembly trampoline that backs it.
	flushTLBEntryFn = cpu.FlushTLBEntry
)

// FrameAllocatorFn allocates a single physical frame.
type FrameAllocatorFn func() (pmm.Frame, *kernel.Error)

// SetFrameAllocator registers the function vmm uses to obtain frames for
// new page tables and mappings.
func SetFrameAllocator(fn FrameAllocatorFn) {
	frameAllocator = fn
}

// PageDirectoryTable is the root (PML4) of a four-level page table plus
// the bookkeeping needed to translate pool frame addresses to the virtual
// addresses their contents are mapped at.
type PageDirectoryTable struct {
	pml4Frame pmm.Frame

	// poolPhysBase is the physical address of the first frame handed out
	// for this table's internal (non-leaf) tables. poolVirtBase is where
	// that same frame is mapped in kernel virtual space. Every other pool
	// frame's virtual address is poolVirtBase + (phys - poolPhysBase).
	poolPhysBase uintptr
	poolVirtBase uintptr
}

// Init zeroes the caller-supplied PML4 frame and establishes
// poolPhysBase/poolVirtBase for a table pool that starts there. poolVirtBase must already be
// identity-mapped (or otherwise reachable) by the caller -- during early
// boot this is the identity-mapped first-8MiB window (spec.md §4.1).
func (t *PageDirectoryTable) Init(pml4Frame pmm.Frame, poolVirtBase uintptr) *kernel.Error {
	t.pml4Frame = pml4Frame
	t.poolPhysBase = pml4Frame.Address()
	t.poolVirtBase = poolVirtBase

	kernel.Memset(t.tableAddr(pml4Frame), 0, uintptr(mem.PageSize))
	return nil
}

// tableAddr returns the virtual address at which the table backed by f is
// reachable, per the fixed-base invariant documented on PageDirectoryTable.
func (t *PageDirectoryTable) tableAddr(f pmm.Frame) uintptr {
	return t.poolVirtBase + (f.Address() - t.poolPhysBase)
}

func (t *PageDirectoryTable) tableEntries(f pmm.Frame) *[entriesPerTable]pageTableEntry {
	return (*[entriesPerTable]pageTableEntry)(ptrFromAddr(t.tableAddr(f)))
}

func tableIndex(virtAddr uintptr, level int) uintptr {
	return (virtAddr >> pageLevelShifts[level]) & (entriesPerTable - 1)
}

// allocTable allocates and zeroes a fresh frame to back an internal (non
// leaf) page table.
func (t *PageDirectoryTable) allocTable() (pmm.Frame, *kernel.Error) {
	f, err := frameAllocator()
	if err != nil {
		return pmm.InvalidFrame, err
	}
	kernel.Memset(t.tableAddr(f), 0, uintptr(mem.PageSize))
	return f, nil
}

// walk locates the leaf (level-3, i.e. PT) entry for virtAddr, allocating
// any missing intermediate (PML4/PDPT/PD) table along the way. It never
// allocates the leaf's backing frame itself -- that is map's job.
func (t *PageDirectoryTable) walk(virtAddr uintptr, allocateMissing bool) (*pageTableEntry, *kernel.Error) {
	curFrame := t.pml4Frame

	for level := 0; level < pageLevels-1; level++ {
		entries := t.tableEntries(curFrame)
		idx := tableIndex(virtAddr, level)
		entry := &entries[idx]

		if !entry.HasFlags(FlagPresent) {
			if !allocateMissing {
				return nil, nil
			}

			childFrame, err := t.allocTable()
			if err != nil {
				return nil, err
			}
			entry.SetFrame(childFrame)
			entry.SetFlags(FlagPresent | FlagRW)
		}

		curFrame = entry.Frame()
	}

	entries := t.tableEntries(curFrame)
	return &entries[tableIndex(virtAddr, pageLevels-1)], nil
}

// Map establishes a mapping from the page-aligned virtAddr to phys with
// the given flags. Any missing intermediate table on the way to the leaf
// is allocated on demand; Init does not pre-populate them. If the leaf is
// already present it must already carry (phys | flags), or Map fails
// fatally.
func (t *PageDirectoryTable) Map(virtAddr uintptr, phys pmm.Frame, flags PageTableEntryFlag) *kernel.Error {
	if virtAddr&uintptr(mem.PageSize-1) != 0 {
		return errNotPageAligned
	}

	pte, err := t.walk(virtAddr, true)
	if err != nil {
		return err
	}

	if pte.HasFlags(FlagPresent) {
		if pte.Frame() != phys || !pte.HasFlags(flags) {
			return errAlreadyMapped
		}
		return nil
	}

	pte.SetFrame(phys)
	pte.SetFlags(flags | FlagPresent)
	return nil
}

// MapPages maps n consecutive pages starting at virtAddr to n consecutive
// frames starting at phys.
func (t *PageDirectoryTable) MapPages(virtAddr uintptr, phys pmm.Frame, n uint64, flags PageTableEntryFlag) *kernel.Error {
	for i := uint64(0); i < n; i++ {
		if err := t.Map(virtAddr+uintptr(i)*uintptr(mem.PageSize), phys+pmm.Frame(i), flags); err != nil {
			return err
		}
	}
	return nil
}

// Unmap clears the leaf entry for virtAddr, if reachable, and flushes its
// TLB entry. It returns silently if any intermediate table entry is
// absent (spec.md §4.1).
func (t *PageDirectoryTable) Unmap(virtAddr uintptr) {
	pte, err := t.walk(virtAddr, false)
	if err != nil || pte == nil {
		return
	}
	*pte = 0
	flushTLBEntryFn(virtAddr)
}

// Translate walks the table for virtAddr and returns the physical address
// it maps to, or 0 if any level is absent.
func (t *PageDirectoryTable) Translate(virtAddr uintptr) uintptr {
	pte, err := t.walk(virtAddr, false)
	if err != nil || pte == nil || !pte.HasFlags(FlagPresent) {
		return 0
	}
	return pte.Frame().Address() + (virtAddr & uintptr(mem.PageSize-1))
}

// Activate loads this table's PML4 frame as the active root page table.
func (t *PageDirectoryTable) Activate() {
	cpu.SwitchPDT(t.pml4Frame.Address())
}
