package vmm

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
	"testing"
	"unsafe"
)

// testFramePool backs every page-table frame and mapped "physical" frame
// with real Go heap memory, identity-mapped (poolVirtBase == poolPhysBase)
// so the fixed-base translation arithmetic exercises the real code path
// without requiring actual hardware.
type testFramePool struct {
	mem  []byte
	next pmm.Frame
}

func newTestFramePool(frames uint64) *testFramePool {
	buf := make([]byte, frames*uint64(mem.PageSize))
	base := pmm.Frame(uintptr(unsafe.Pointer(&buf[0])) >> mem.PageShift)
	return &testFramePool{mem: buf, next: base}
}

func (p *testFramePool) alloc() (pmm.Frame, *kernel.Error) {
	f := p.next
	p.next++
	return f, nil
}

func (p *testFramePool) base() uintptr {
	return uintptr(unsafe.Pointer(&p.mem[0]))
}

func TestPagingMapTranslateRoundTrip(t *testing.T) {
	pool := newTestFramePool(16)
	SetFrameAllocator(pool.alloc)

	var pdt PageDirectoryTable
	pml4, _ := pool.alloc()
	if err := pdt.Init(pml4, pool.base()); err != nil {
		t.Fatal(err)
	}

	virt := uintptr(0x10_0000)
	phys, _ := pool.alloc()

	if err := pdt.Map(virt, phys, FlagPresent|FlagRW); err != nil {
		t.Fatal(err)
	}

	for d := uintptr(0); d < uintptr(mem.PageSize); d += 512 {
		got := pdt.Translate(virt + d)
		want := phys.Address() + d
		if got != want {
			t.Fatalf("translate(virt+%d): expected %x, got %x", d, want, got)
		}
	}
}

func TestPagingMapPages(t *testing.T) {
	pool := newTestFramePool(32)
	SetFrameAllocator(pool.alloc)

	var pdt PageDirectoryTable
	pml4, _ := pool.alloc()
	if err := pdt.Init(pml4, pool.base()); err != nil {
		t.Fatal(err)
	}

	virt := uintptr(0x20_0000)
	phys, _ := pool.alloc()
	const n = 4

	// reserve n-1 more frames contiguously after phys
	for i := 1; i < n; i++ {
		if _, err := pool.alloc(); err != nil {
			t.Fatal(err)
		}
	}

	if err := pdt.MapPages(virt, phys, n, FlagPresent|FlagRW); err != nil {
		t.Fatal(err)
	}

	for i := uint64(0); i < n; i++ {
		got := pdt.Translate(virt + uintptr(i)*uintptr(mem.PageSize))
		want := (phys + pmm.Frame(i)).Address()
		if got != want {
			t.Fatalf("page %d: expected %x, got %x", i, want, got)
		}
	}
}

func TestPagingUnmap(t *testing.T) {
	pool := newTestFramePool(16)
	SetFrameAllocator(pool.alloc)
	flushTLBEntryFn = func(uintptr) {}

	var pdt PageDirectoryTable
	pml4, _ := pool.alloc()
	if err := pdt.Init(pml4, pool.base()); err != nil {
		t.Fatal(err)
	}

	virt := uintptr(0x30_0000)
	phys, _ := pool.alloc()
	_ = pdt.Map(virt, phys, FlagPresent|FlagRW)

	pdt.Unmap(virt)

	if got := pdt.Translate(virt); got != 0 {
		t.Fatalf("expected translate of unmapped page to return 0, got %x", got)
	}
}

func TestPagingTranslateUnmappedReturnsZero(t *testing.T) {
	pool := newTestFramePool(8)
	SetFrameAllocator(pool.alloc)

	var pdt PageDirectoryTable
	pml4, _ := pool.alloc()
	_ = pdt.Init(pml4, pool.base())

	if got := pdt.Translate(0x40_0000); got != 0 {
		t.Fatalf("expected 0 for never-mapped address, got %x", got)
	}
}

func TestPagingRemapSameFrameIsIdempotent(t *testing.T) {
	pool := newTestFramePool(16)
	SetFrameAllocator(pool.alloc)

	var pdt PageDirectoryTable
	pml4, _ := pool.alloc()
	_ = pdt.Init(pml4, pool.base())

	virt := uintptr(0x50_0000)
	phys, _ := pool.alloc()
	_ = pdt.Map(virt, phys, FlagPresent|FlagRW)

	if err := pdt.Map(virt, phys, FlagPresent|FlagRW); err != nil {
		t.Fatalf("remapping the same (virt, phys) pair should be a no-op, got %v", err)
	}
}

func TestPagingRemapDifferentFrameIsFatal(t *testing.T) {
	pool := newTestFramePool(16)
	SetFrameAllocator(pool.alloc)

	var pdt PageDirectoryTable
	pml4, _ := pool.alloc()
	_ = pdt.Init(pml4, pool.base())

	virt := uintptr(0x60_0000)
	phys1, _ := pool.alloc()
	phys2, _ := pool.alloc()
	_ = pdt.Map(virt, phys1, FlagPresent|FlagRW)

	if err := pdt.Map(virt, phys2, FlagPresent|FlagRW); err == nil {
		t.Fatalf("expected remapping an already-mapped page to a different frame to fail")
	}
}
