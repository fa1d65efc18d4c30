package allocator

import (
	"github.com/CezarPP/BOSS/kernel/mem"
	"github.com/CezarPP/BOSS/kernel/mem/pmm"
	"testing"
)

func TestBitmapAllocatorAscendingFirstFit(t *testing.T) {
	var a BitmapAllocator
	if err := a.Init(0, 16); err != nil {
		t.Fatal(err)
	}

	var got []pmm.Frame
	for i := 0; i < 4; i++ {
		frame, err := a.Allocate(1)
		if err != nil {
			t.Fatalf("unexpected error at allocation %d: %v", i, err)
		}
		got = append(got, frame)
	}

	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Fatalf("expected consecutive frames, got %v", got)
		}
	}
}

func TestBitmapAllocatorFreeThenReallocate(t *testing.T) {
	var a BitmapAllocator
	if err := a.Init(0, 8); err != nil {
		t.Fatal(err)
	}

	f0, _ := a.Allocate(1)
	f1, _ := a.Allocate(1)

	if err := a.Free(f0, 1); err != nil {
		t.Fatal(err)
	}

	got, err := a.Allocate(1)
	if err != nil {
		t.Fatal(err)
	}
	if got != f0 {
		t.Fatalf("expected freed frame %v to be reused first, got %v", f0, got)
	}

	if err := a.Free(f1, 1); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(got, 1); err != nil {
		t.Fatal(err)
	}
}

func TestBitmapAllocatorDoubleFreeIsFatal(t *testing.T) {
	var a BitmapAllocator
	_ = a.Init(0, 4)

	f, _ := a.Allocate(1)
	if err := a.Free(f, 1); err != nil {
		t.Fatal(err)
	}
	if err := a.Free(f, 1); err == nil {
		t.Fatalf("expected double free to be reported as an error")
	}
}

func TestBitmapAllocatorOutOfMemory(t *testing.T) {
	var a BitmapAllocator
	_ = a.Init(0, 2)

	if _, err := a.Allocate(3); err == nil {
		t.Fatalf("expected allocation larger than the window to fail")
	}
}

func TestBitmapAllocatorStress(t *testing.T) {
	var a BitmapAllocator
	if err := a.Init(0, 64); err != nil {
		t.Fatal(err)
	}
	n := a.TotalFrames()

	frames := make([]pmm.Frame, 0, n)
	for i := uint64(0); i < n; i++ {
		f, err := a.Allocate(1)
		if err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
		if f != pmm.Frame(a.windowStart)+pmm.Frame(i) {
			t.Fatalf("expected frame %d to be %v, got %v", i, pmm.Frame(a.windowStart)+pmm.Frame(i), f)
		}
		frames = append(frames, f)
	}

	if _, err := a.Allocate(1); err == nil {
		t.Fatalf("expected allocator to be exhausted")
	}

	for i := len(frames) - 1; i >= 0; i-- {
		if err := a.Free(frames[i], 1); err != nil {
			t.Fatalf("unexpected error freeing frame %v: %v", frames[i], err)
		}
	}

	got, err := a.Allocate(4)
	if err != nil {
		t.Fatal(err)
	}
	if got != a.windowStart {
		t.Fatalf("expected re-allocation to start at window base, got %v", got)
	}
	_ = mem.PageSize
}
