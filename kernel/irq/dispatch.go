// Package irq builds the IDT, remaps the 8259 PICs and dispatches
// exceptions, hardware IRQs and the syscall software interrupt to
// registered Go handlers (spec.md §4.5).
package irq

import "github.com/CezarPP/BOSS/kernel"

// ExceptionHandler handles an exception that does not push an error code.
type ExceptionHandler func(frame *Frame, regs *Regs)

// ExceptionHandlerWithCode handles an exception that pushes an error code.
type ExceptionHandlerWithCode func(errorCode uint64, frame *Frame, regs *Regs)

// IRQHandler handles a remapped hardware interrupt line.
type IRQHandler func(frame *Frame, regs *Regs)

// SyscallHandler handles the 0x80 software interrupt. It receives the
// register snapshot that the syscall layer reads its calling convention
// from (spec.md §4.6).
type SyscallHandler func(frame *Frame, regs *Regs)

// exceptionsWithCode lists the CPU exception vectors that push an error
// code onto the stack before transferring control (Intel SDM vol. 3,
// table 6-1).
var exceptionsWithCode = map[Vector]bool{
	8: true, 10: true, 11: true, 12: true, 13: true, 14: true, 17: true,
}

type handlerSlot struct {
	exception         ExceptionHandler
	exceptionWithCode ExceptionHandlerWithCode
	irq               IRQHandler
	syscall           SyscallHandler
	set               bool
}

var (
	handlers [256]handlerSlot

	errUnhandledInterrupt = &kernel.Error{Module: "irq", Message: "unhandled interrupt vector"}
)

// Init builds the IDT, remaps the PICs and installs it. It must run before
// interrupts are enabled.
func Init() {
	remapPIC()
	installIDT()
}

// HandleException registers a handler for an exception vector (0-31) that
// does not push an error code.
func HandleException(vector Vector, handler ExceptionHandler) {
	handlers[vector] = handlerSlot{exception: handler, set: true}
}

// HandleExceptionWithCode registers a handler for an exception vector that
// pushes an error code (8, 10-14, 17).
func HandleExceptionWithCode(vector Vector, handler ExceptionHandlerWithCode) {
	handlers[vector] = handlerSlot{exceptionWithCode: handler, set: true}
}

// HandleIRQ registers a handler for a remapped hardware interrupt line
// (vectors IRQBase..IRQBase+15).
func HandleIRQ(vector Vector, handler IRQHandler) {
	handlers[vector] = handlerSlot{irq: handler, set: true}
}

// HandleSyscall registers the handler invoked for the 0x80 vector.
func HandleSyscall(handler SyscallHandler) {
	handlers[Syscall] = handlerSlot{syscall: handler, set: true}
}

// dispatchInterrupt is the single entry point the assembly trampoline
// calls for every vector, after pushing frame and regs in the fixed layout
// described by spec.md §4.5. It is unexported: Go code registers handlers
// through HandleException/HandleIRQ/HandleSyscall instead of calling this
// directly.
func dispatchInterrupt(vector Vector, errorCode uint64, frame *Frame, regs *Regs) {
	slot := handlers[vector]

	switch {
	case vector < 32:
		if !slot.set {
			panic(errUnhandledInterrupt)
		}
		if exceptionsWithCode[vector] {
			slot.exceptionWithCode(errorCode, frame, regs)
		} else {
			slot.exception(frame, regs)
		}
	case vector >= IRQBase && vector < IRQBase+16:
		// EOI is sent before the handler runs so that a handler may be
		// reentered by a later IRQ on the same line (spec.md §5).
		sendEOI(vector)
		if slot.set {
			slot.irq(frame, regs)
		}
	case vector == Syscall:
		if !slot.set {
			panic(errUnhandledInterrupt)
		}
		slot.syscall(frame, regs)
	default:
		panic(errUnhandledInterrupt)
	}
}

// installIDT builds the 256-entry IDT (exception stubs at 0-31, remapped
// IRQ stubs at 32-47, the syscall stub at 0x80, a default stub everywhere
// else) and loads it via LIDT. Implemented in the assembly trampoline that
// accompanies this package (not part of this retrieval pack, matching the
// teacher's convention of headerless hardware primitives).
func installIDT()
