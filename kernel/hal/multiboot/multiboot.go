// Package multiboot parses the subset of the Multiboot2 information
// structure that the rest of the kernel needs: the physical memory map.
// Everything else the bootloader can hand back (framebuffer info, ELF
// section headers, boot command line) belongs to the VGA console and
// module-loading paths, both out of scope (spec.md §1).
package multiboot

import "unsafe"

// Magic is the value the bootloader places in the upper 32 bits of the
// single argument passed to the kernel entry point (spec.md §6). Entry code
// must verify this before trusting the info pointer in the lower 32 bits.
const Magic = 0x36D76289

type tagType uint32

const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
	tagModules
	tagBasicMemoryInfo
	tagBiosBootDevice
	tagMemoryMap
)

// info describes the multiboot info section header.
type info struct {
	totalSize uint32
	reserved  uint32
}

// tagHeader describes the header that precedes each tag.
type tagHeader struct {
	tagType tagType
	size    uint32
}

// mmapHeader describes the header for a memory map specification.
type mmapHeader struct {
	entrySize    uint32
	entryVersion uint32
}

// MemoryEntryType defines the type of a MemoryMapEntry.
type MemoryEntryType uint32

const (
	// MemAvailable indicates that the memory region is available for use.
	MemAvailable MemoryEntryType = iota + 1

	// MemReserved indicates that the memory region is not available for use.
	MemReserved

	// MemAcpiReclaimable indicates a memory region that holds ACPI info that
	// can be reused by the OS.
	MemAcpiReclaimable

	// MemNvs indicates memory that must be preserved when hibernating.
	MemNvs

	// Any value >= memUnknown will be mapped to MemReserved.
	memUnknown
)

var (
	infoData uintptr
)

// MemRegionVisitor defines a visitor function that gets invoked by
// VisitMemRegions for each memory region provided by the boot loader. The
// visitor must return true to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// MemoryMapEntry describes a memory region entry, namely its physical
// address, its length and its type.
type MemoryMapEntry struct {
	PhysAddress uint64
	Length      uint64
	Type        MemoryEntryType
}

// String implements fmt.Stringer for MemoryEntryType.
func (t MemoryEntryType) String() string {
	switch t {
	case MemAvailable:
		return "available"
	case MemReserved:
		return "reserved"
	case MemAcpiReclaimable:
		return "ACPI (reclaimable)"
	case MemNvs:
		return "NVS"
	default:
		return "unknown"
	}
}

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// VisitMemRegions invokes the supplied visitor for each memory region
// defined by the multiboot info data received from the bootloader.
func VisitMemRegions(visitor MemRegionVisitor) {
	curPtr, size := findTagByType(tagMemoryMap)
	if size == 0 {
		return
	}

	// curPtr points to the memory map header (2 dwords long)
	ptrMapHeader := (*mmapHeader)(unsafe.Pointer(curPtr))
	endPtr := curPtr + uintptr(size)
	curPtr += 8

	var entry *MemoryMapEntry
	for curPtr != endPtr {
		entry = (*MemoryMapEntry)(unsafe.Pointer(curPtr))

		// Mark unknown entry types as reserved
		if entry.Type == 0 || entry.Type >= memUnknown {
			entry.Type = MemReserved
		}

		if !visitor(entry) {
			return
		}

		curPtr += uintptr(ptrMapHeader.entrySize)
	}
}

// LargestAvailableRegion returns the largest MemAvailable region whose
// physical address is at or above lowerBound, per spec.md §6 ("the largest
// MULTIBOOT_MEMORY_AVAILABLE region above the 1 MiB boundary"). It returns
// ok=false if no such region exists.
func LargestAvailableRegion(lowerBound uint64) (base, length uint64, ok bool) {
	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		if entry.Type == MemAvailable && entry.PhysAddress >= lowerBound && entry.Length > length {
			base, length, ok = entry.PhysAddress, entry.Length, true
		}
		return true
	})
	return base, length, ok
}

// findTagByType scans the multiboot info data looking for the start of the
// specified tag type. It returns a pointer to the tag contents start offset
// and the content length excluding the tag header.
//
// If the tag is not present in the multiboot info, findTagByType returns
// back (0, 0).
func findTagByType(tagType tagType) (uintptr, uint32) {
	var ptrTagHeader *tagHeader

	curPtr := infoData + 8
	for ptrTagHeader = (*tagHeader)(unsafe.Pointer(curPtr)); ptrTagHeader.tagType != tagMbSectionEnd; ptrTagHeader = (*tagHeader)(unsafe.Pointer(curPtr)) {
		if ptrTagHeader.tagType == tagType {
			return curPtr + 8, ptrTagHeader.size - 8
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr(int32(ptrTagHeader.size+7) & ^7)
	}

	return 0, 0
}
