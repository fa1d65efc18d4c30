package irq

import "github.com/CezarPP/BOSS/kernel/cpu"

// 8259 PIC I/O ports (original_source: arch/x86_64/interrupts.cpp).
const (
	masterPICCommand = 0x20
	masterPICData    = 0x21
	slavePICCommand  = 0xA0
	slavePICData     = 0xA1

	icw1Init = 0x10 // Initialization - required
	icw1ICW4 = 0x01 // ICW4 will be present
	icw4_8086 = 0x01 // 8086/88 mode
)

// remapPIC reprograms the legacy master/slave 8259 controllers so that
// IRQ0-15 deliver at vectors IRQBase..IRQBase+15 instead of their BIOS
// default (0x08-0x0F, which collides with CPU exception vectors).
func remapPIC() {
	cpu.Out8(masterPICCommand, icw1Init|icw1ICW4)
	cpu.IOWait()
	cpu.Out8(slavePICCommand, icw1Init|icw1ICW4)
	cpu.IOWait()

	cpu.Out8(masterPICData, uint8(IRQBase))
	cpu.IOWait()
	cpu.Out8(slavePICData, uint8(IRQBase)+8)
	cpu.IOWait()

	// Tell the master PIC there is a slave at IRQ2, and tell the slave
	// its cascade identity.
	cpu.Out8(masterPICData, 0x04)
	cpu.IOWait()
	cpu.Out8(slavePICData, 0x02)
	cpu.IOWait()

	cpu.Out8(masterPICData, icw4_8086)
	cpu.IOWait()
	cpu.Out8(slavePICData, icw4_8086)
	cpu.IOWait()

	// Unmask everything; individual drivers mask the lines they don't use.
	cpu.Out8(masterPICData, 0x0)
	cpu.Out8(slavePICData, 0x0)
}

// sendEOI signals end-of-interrupt to the PIC(s) involved in servicing the
// given vector. Per spec.md §4.5 and §5 this is sent BEFORE the registered
// handler runs, so a handler may itself be interrupted by a later IRQ on
// the same line; handlers must be reentrancy-safe or keep interrupts
// masked for their duration.
func sendEOI(vector Vector) {
	if vector >= IRQBase+8 {
		cpu.Out8(slavePICCommand, 0x20)
	}
	cpu.Out8(masterPICCommand, 0x20)
}
