package vmm

import (
	"github.com/CezarPP/BOSS/kernel"
	"github.com/CezarPP/BOSS/kernel/cpu"
	"github.com/CezarPP/BOSS/kernel/irq"
	"github.com/CezarPP/BOSS/kernel/kfmt"
)

var (
	readCR2Fn = cpu.ReadCR2
)

func errUnrecoverableFault(addr uintptr) *kernel.Error {
	return &kernel.Error{Module: "vmm", Message: "unrecoverable page/gpf fault"}
}

// Init installs the page-fault and general-protection-fault exception
// handlers. Unlike the teacher, this kernel has no copy-on-write support
// to recover from a page fault with (spec.md's Non-goals exclude runtime
// privilege separation and the scheduling machinery CoW would serve), so
// every fault reaching these handlers is fatal, matching original_source's
// isrHandler behaviour of panicking on any exception.
func Init() {
	irq.HandleExceptionWithCode(irq.PageFaultException, pageFaultHandler)
	irq.HandleExceptionWithCode(irq.GPFException, generalProtectionFaultHandler)
}

func pageFaultHandler(errorCode uint64, frame *irq.Frame, regs *irq.Regs) {
	faultAddress := uintptr(readCR2Fn())

	kfmt.Printf("\nPage fault while accessing address: 0x%16x\nReason: ", faultAddress)
	switch {
	case errorCode&0x1 == 0:
		kfmt.Printf("read from non-present page")
	case errorCode&0x2 != 0:
		kfmt.Printf("page protection violation (write)")
	default:
		kfmt.Printf("page protection violation (read)")
	}

	kfmt.Printf("\n\nRegisters:\n")
	regs.Print()
	frame.Print()
	panic(errUnrecoverableFault(faultAddress))
}

func generalProtectionFaultHandler(_ uint64, frame *irq.Frame, regs *irq.Regs) {
	kfmt.Printf("\nGeneral protection fault while accessing address: 0x%x\n", readCR2Fn())
	kfmt.Printf("Registers:\n")
	regs.Print()
	frame.Print()
	panic(errUnrecoverableFault(uintptr(readCR2Fn())))
}
