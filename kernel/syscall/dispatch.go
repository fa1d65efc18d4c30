package syscall

import (
	"reflect"
	"unsafe"

	"github.com/CezarPP/BOSS/kernel/irq"
	"github.com/CezarPP/BOSS/vfs"
)

// maxPathLen bounds how far readCString will scan before giving up,
// guarding against a caller passing an unterminated buffer.
const maxPathLen = 4096

// handlerFunc is one entry of the 256-slot dispatch table: it receives the
// four argument registers in the fixed RDI/RSI/RDX/R10 order (spec.md
// §4.6) and returns the value written back into RAX.
type handlerFunc func(d *Dispatcher, a0, a1, a2, a3 uint64) int64

var table [256]handlerFunc

func register(n Number, fn handlerFunc) { table[n] = fn }

func init() {
	register(Read, sysRead)
	register(Write, sysWrite)
	register(Open, sysOpen)
	register(Close, sysClose)
	register(Pwd, sysPwd)
	register(Cwd, sysCwd)
	register(Mkdir, sysMkdir)
	register(Rmdir, sysRmdir)
	register(Rm, sysRm)
	register(Ls, sysLs)
}

// Dispatcher binds the syscall table to a live VFS instance and exposes
// the entry point irq.HandleSyscall wires to the 0x80 vector (spec.md
// §4.6).
type Dispatcher struct {
	vfs *vfs.VFS
}

// NewDispatcher constructs a Dispatcher bound to v. There is normally
// exactly one, built once in the boot sequence alongside the rest of the
// process-wide kernel-context state (spec.md §9).
func NewDispatcher(v *vfs.VFS) *Dispatcher {
	return &Dispatcher{vfs: v}
}

// Dispatch indexes the 256-entry table by number and invokes the
// registered handler with the argument registers, following the
// RAX/RDI/RSI/RDX/R10 convention of spec.md §4.6. An unregistered number
// returns -int64(vfs.ErrInvalidRequest) rather than panicking: unlike the
// interrupt-vector table (kernel/irq), an unsupported syscall number is a
// surfaced error, not a fatal condition.
func (d *Dispatcher) Dispatch(number Number, a0, a1, a2, a3 uint64) int64 {
	fn := table[number]
	if fn == nil {
		return -int64(vfs.ErrInvalidRequest)
	}
	return fn(d, a0, a1, a2, a3)
}

// HandleInterrupt adapts Dispatch to the irq.SyscallHandler signature:
// RAX carries the syscall number in, the argument registers carry RDI,
// RSI, RDX, R10, and the result is written back into RAX, exactly the
// convention spec.md §4.6 describes.
func (d *Dispatcher) HandleInterrupt(_ *irq.Frame, regs *irq.Regs) {
	result := d.Dispatch(Number(regs.RAX), regs.RDI, regs.RSI, regs.RDX, regs.R10)
	regs.RAX = uint64(result)
}

// overlayBytes overlays a []byte of the given length on top of a raw
// virtual address, mirroring kernel.Memset/Memcopy's use of
// reflect.SliceHeader to bridge a bare pointer-sized syscall argument into
// a Go slice without a copy.
func overlayBytes(addr uintptr, length int) []byte {
	if length <= 0 {
		return nil
	}
	return *(*[]byte)(unsafe.Pointer(&reflect.SliceHeader{
		Data: addr,
		Len:  length,
		Cap:  length,
	}))
}

// readCString decodes a NUL-terminated path argument out of raw memory.
func readCString(addr uintptr) string {
	raw := overlayBytes(addr, maxPathLen)
	for i, b := range raw {
		if b == 0 {
			return string(raw[:i])
		}
	}
	return string(raw)
}

func sysRead(d *Dispatcher, fd, bufPtr, max, offset uint64) int64 {
	buf := overlayBytes(uintptr(bufPtr), int(max))
	return d.vfs.Read(vfs.FD(fd), buf, offset).ToSyscallReturn()
}

func sysWrite(d *Dispatcher, fd, bufPtr, max, offset uint64) int64 {
	buf := overlayBytes(uintptr(bufPtr), int(max))
	return d.vfs.Write(vfs.FD(fd), buf, offset).ToSyscallReturn()
}

func sysOpen(d *Dispatcher, pathPtr, flags, _, _ uint64) int64 {
	path := readCString(uintptr(pathPtr))
	return d.vfs.Open(path, flags).ToSyscallReturn()
}

func sysClose(d *Dispatcher, fd, _, _, _ uint64) int64 {
	d.vfs.Close(vfs.FD(fd))
	return 0
}

func sysPwd(d *Dispatcher, bufPtr, _, _, _ uint64) int64 {
	pwd := d.vfs.Pwd()
	buf := overlayBytes(uintptr(bufPtr), len(pwd)+1)
	copy(buf, pwd)
	buf[len(pwd)] = 0
	return 0
}

func sysCwd(d *Dispatcher, pathPtr, _, _, _ uint64) int64 {
	path := readCString(uintptr(pathPtr))
	return d.vfs.Cd(path).ToSyscallReturn()
}

func sysMkdir(d *Dispatcher, pathPtr, _, _, _ uint64) int64 {
	path := readCString(uintptr(pathPtr))
	return d.vfs.Mkdir(path).ToSyscallReturn()
}

func sysRmdir(d *Dispatcher, pathPtr, _, _, _ uint64) int64 {
	path := readCString(uintptr(pathPtr))
	return d.vfs.RmDir(path).ToSyscallReturn()
}

func sysRm(d *Dispatcher, pathPtr, _, _, _ uint64) int64 {
	path := readCString(uintptr(pathPtr))
	return d.vfs.Rm(path).ToSyscallReturn()
}

func sysLs(d *Dispatcher, _, _, _, _ uint64) int64 {
	_, errc := d.vfs.Ls()
	if errc != vfs.ErrNone {
		return -int64(errc)
	}
	return 0
}
