package vmm

import "unsafe"

// ptrFromAddr overlays a Go pointer on top of a raw virtual address, the
// same unsafe.Pointer cast pattern the teacher uses throughout kernel/mem
// to treat raw addresses as typed memory.
func ptrFromAddr(addr uintptr) unsafe.Pointer {
	return unsafe.Pointer(addr)
}
