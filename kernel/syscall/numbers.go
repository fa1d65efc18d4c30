// Package syscall implements the 0x80 software-interrupt syscall table
// described in spec.md §4.6: a fixed register-passing convention dispatched
// through a 256-entry handler table, grounded in
// original_source/arch/x86_64/system_calls.cpp.
package syscall

// Number identifies a syscall entry in the dispatch table.
type Number uint8

// Defined syscall numbers (spec.md §4.6, exhaustive for the core).
const (
	Read  Number = 0x00
	Write Number = 0x01
	Open  Number = 0x02
	Close Number = 0x03
	Pwd   Number = 0x4A
	Cwd   Number = 0x4B
	Mkdir Number = 0x4E
	Rmdir Number = 0x4F
	Rm    Number = 0xAA
	Ls    Number = 0xAB
)

// OpenCreate is the only open() flag the original implementation defines:
// touch the target path before resolving its inode.
const OpenCreate = 0x1
