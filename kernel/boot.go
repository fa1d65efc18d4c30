package kernel

import (
	"github.com/CezarPP/BOSS/kernel/hal/multiboot"
	"github.com/CezarPP/BOSS/kernel/irq"
	"github.com/CezarPP/BOSS/kernel/kfmt"
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/kalloc"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
	"github.com/CezarPP/BOSS/kernel/mem/pmm/allocator"
	"github.com/CezarPP/BOSS/kernel/mem/vaddr"
	"github.com/CezarPP/BOSS/kernel/mem/vmm"
	bsyscall "github.com/CezarPP/BOSS/kernel/syscall"
	"github.com/CezarPP/BOSS/vfs"
)

// earlyWindowSize is the first 8 MiB the entry assembly identity-maps
// before Go code runs (spec.md §4.1: "the early window").
const earlyWindowSize = 8 * uint64(mem.Mb)

// pml4Frame is the physical frame the entry assembly has already zeroed
// and pointed CR3 at, matching the teacher's convention of reserving a
// fixed low-memory frame for the root page table before Go code runs.
const pml4Frame = pmm.Frame(0x1000)

// tablePoolVirtBase is the fixed virtual base the whole page-table pool is
// mapped at (spec.md §9's self-referential-pointer alternative; see
// DESIGN.md and kernel/mem/vmm).
const tablePoolVirtBase = uintptr(0xFFFF_8000_0000_0000)

// Ctx is the kernel-wide context constructed exactly once in Kmain and
// threaded through the rest of boot, replacing the teacher's collection of
// ad hoc package-level singletons (spec.md §9's "global singletons"
// finding: one well-known instance per boot, not package-level state
// scattered across pmm/vmm/kalloc/vfs).
type Ctx struct {
	Pages    *vmm.PageDirectoryTable
	Frames   *allocator.BitmapAllocator
	VAddr    *vaddr.Allocator
	Heap     *kalloc.Heap
	VFS      *vfs.VFS
	Syscalls *bsyscall.Dispatcher
}

// Kmain is the only Go symbol the rt0 entry assembly calls (spec.md §6:
// "Boot entry"). multibootInfoPtr is the Multiboot2 info-struct address
// passed in the lower 32 bits of the single 64-bit boot argument; the
// assembly trampoline has already checked the upper 32 bits against
// multiboot.Magic before transferring control here.
//
// Kmain is not expected to return.
//
//go:noinline
func Kmain(multibootInfoPtr uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)
	kfmt.Printf("Starting BOSS\n")

	ctx := &Ctx{}

	base, length, ok := multiboot.LargestAvailableRegion(uint64(mem.Mb))
	if !ok {
		panic(&Error{Module: "kernel", Message: "no usable memory region reported by multiboot"})
	}
	if length <= earlyWindowSize {
		panic(&Error{Module: "kernel", Message: "largest available region is smaller than the early identity-mapped window"})
	}
	base += earlyWindowSize
	length -= earlyWindowSize

	ctx.Frames = &allocator.BitmapAllocator{}
	if err := ctx.Frames.Init(pmm.Frame(base/uint64(mem.PageSize)), length/uint64(mem.PageSize)); err != nil {
		panic(err)
	}

	vmm.SetFrameAllocator(func() (pmm.Frame, *Error) {
		return ctx.Frames.Allocate(1)
	})
	ctx.Pages = &vmm.PageDirectoryTable{}
	if err := ctx.Pages.Init(pml4Frame, tablePoolVirtBase); err != nil {
		panic(err)
	}
	ctx.Pages.Activate()
	vmm.Init()

	ctx.VAddr = vaddr.New(
		func(n uint64) (pmm.Frame, *Error) { return ctx.Frames.Allocate(n) },
		func(b pmm.Frame, n uint64) *Error { return ctx.Frames.Free(b, n) },
		ctx.Pages,
		pmm.Frame(base/uint64(mem.PageSize)),
		tablePoolVirtBase+0x1000_0000, // past the table pool's own mapping window
	)
	ctx.Heap = kalloc.New(ctx.VAddr.VAlloc, ctx.VAddr.VFree)

	irq.Init()

	// The on-disk filesystem is mounted once the ATA driver (out of
	// scope, spec.md §1/§6) constructs a blockdev.Device and calls
	// MountRootFS; Kmain only wires the syscall table so vector 0x80
	// is live from the first instruction after interrupts are enabled.
	ctx.VFS = vfs.New()
	ctx.Syscalls = bsyscall.NewDispatcher(ctx.VFS)
	irq.HandleSyscall(ctx.Syscalls.HandleInterrupt)

	kfmt.Printf("BOSS is up\n")

	for {
	}
}

// MountRootFS mounts fs at "/" on an already-booted kernel context,
// called once the ATA driver has produced a blockdev.Device and
// fs/simplefs has mounted it (spec.md §4.8/§4.9 hand-off between the
// external block device collaborator and the VFS façade).
func (c *Ctx) MountRootFS(fs vfs.FileSystem) *Error {
	if errc := c.VFS.Mount("/", fs); errc != vfs.ErrNone {
		return &Error{Module: "kernel", Message: errc.Error()}
	}
	return nil
}
