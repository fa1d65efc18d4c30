package vaddr

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
	"github.com/CezarPP/BOSS/kernel/mem/vmm"
	"testing"
)

type fakeMapper struct {
	mapped map[uintptr]pmm.Frame
}

func newFakeMapper() *fakeMapper {
	return &fakeMapper{mapped: make(map[uintptr]pmm.Frame)}
}

func (m *fakeMapper) MapPages(virtAddr uintptr, phys pmm.Frame, n uint64, flags vmm.PageTableEntryFlag) *kernel.Error {
	for i := uint64(0); i < n; i++ {
		m.mapped[virtAddr+uintptr(i)*uintptr(mem.PageSize)] = phys + pmm.Frame(i)
	}
	return nil
}

func (m *fakeMapper) Unmap(virtAddr uintptr) {
	delete(m.mapped, virtAddr)
}

func TestVAllocConstantOffsetInvariant(t *testing.T) {
	const physBase = pmm.Frame(100)
	const kernelVirtualStart = uintptr(0xFFFF_8000_0000_0000)

	next := physBase
	allocFrames := func(n uint64) (pmm.Frame, *kernel.Error) {
		f := next
		next += pmm.Frame(n)
		return f, nil
	}
	freeFrames := func(base pmm.Frame, n uint64) *kernel.Error { return nil }

	mapper := newFakeMapper()
	a := New(allocFrames, freeFrames, mapper, physBase, kernelVirtualStart)

	virt, err := a.VAlloc(2)
	if err != nil {
		t.Fatal(err)
	}
	if virt != kernelVirtualStart {
		t.Fatalf("expected first allocation to start at kernelVirtualStart, got %x", virt)
	}
	if mapper.mapped[virt] != physBase {
		t.Fatalf("expected virt %x to map to phys %v, got %v", virt, physBase, mapper.mapped[virt])
	}

	virt2, err := a.VAlloc(1)
	if err != nil {
		t.Fatal(err)
	}
	wantVirt2 := kernelVirtualStart + 2*uintptr(mem.PageSize)
	if virt2 != wantVirt2 {
		t.Fatalf("expected second allocation at %x, got %x", wantVirt2, virt2)
	}
}

func TestVFreeUnmapsAndReleases(t *testing.T) {
	const physBase = pmm.Frame(0)
	const kernelVirtualStart = uintptr(0xFFFF_9000_0000_0000)

	var freed pmm.Frame
	var freedN uint64
	allocFrames := func(n uint64) (pmm.Frame, *kernel.Error) { return physBase, nil }
	freeFrames := func(base pmm.Frame, n uint64) *kernel.Error {
		freed, freedN = base, n
		return nil
	}

	mapper := newFakeMapper()
	a := New(allocFrames, freeFrames, mapper, physBase, kernelVirtualStart)

	virt, _ := a.VAlloc(3)
	if err := a.VFree(virt, 3); err != nil {
		t.Fatal(err)
	}

	if freed != physBase || freedN != 3 {
		t.Fatalf("expected free(%v, 3), got free(%v, %d)", physBase, freed, freedN)
	}
	if len(mapper.mapped) != 0 {
		t.Fatalf("expected all pages to be unmapped, got %v", mapper.mapped)
	}
}
