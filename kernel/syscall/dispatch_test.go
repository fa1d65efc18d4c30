package syscall_test

import (
	"testing"
	"unsafe"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/CezarPP/BOSS/fs/simplefs"
	"github.com/CezarPP/BOSS/kernel/syscall"
	"github.com/CezarPP/BOSS/vfs"
	"github.com/stretchr/testify/require"
)

func newDispatcher(t *testing.T) *syscall.Dispatcher {
	t.Helper()
	dev := blockdev.NewMemDevice(2000)
	require.NoError(t, simplefs.Format(dev))
	sfs := simplefs.New(dev)
	require.NoError(t, sfs.Mount())

	v := vfs.New()
	require.Equal(t, vfs.ErrNone, v.Mount("/", sfs))
	return syscall.NewDispatcher(v)
}

func ptrOf(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}

// TestFDLifecycle exercises spec.md §8's FD-lifecycle property through the
// syscall ABI directly: open(CREATE), write, close, reopen, read recovers
// the same bytes.
func TestFDLifecycle(t *testing.T) {
	d := newDispatcher(t)

	path := append([]byte("/f"), 0)
	fd := d.Dispatch(syscall.Open, ptrOf(path), syscall.OpenCreate, 0, 0)
	require.Greater(t, fd, int64(0))

	payload := []byte("hello, boss")
	n := d.Dispatch(syscall.Write, uint64(fd), ptrOf(payload), uint64(len(payload)), 0)
	require.Equal(t, int64(len(payload)), n)

	closed := d.Dispatch(syscall.Close, uint64(fd), 0, 0, 0)
	require.Equal(t, int64(0), closed)

	fd2 := d.Dispatch(syscall.Open, ptrOf(path), 0, 0, 0)
	require.Greater(t, fd2, int64(0))

	out := make([]byte, len(payload))
	read := d.Dispatch(syscall.Read, uint64(fd2), ptrOf(out), uint64(len(out)), 0)
	require.Equal(t, int64(len(payload)), read)
	require.Equal(t, payload, out)
}

func TestOpenMissingFileWithoutCreateFails(t *testing.T) {
	d := newDispatcher(t)
	path := append([]byte("/missing"), 0)
	fd := d.Dispatch(syscall.Open, ptrOf(path), 0, 0, 0)
	require.Less(t, fd, int64(0))
}

func TestMkdirRmThroughSyscalls(t *testing.T) {
	d := newDispatcher(t)

	path := append([]byte("/d"), 0)
	require.Equal(t, int64(0), d.Dispatch(syscall.Mkdir, ptrOf(path), 0, 0, 0))
	require.Equal(t, int64(0), d.Dispatch(syscall.Rmdir, ptrOf(path), 0, 0, 0))
}

func TestUnregisteredSyscallReturnsInvalidRequest(t *testing.T) {
	d := newDispatcher(t)
	ret := d.Dispatch(syscall.Number(0xFF), 0, 0, 0, 0)
	require.Equal(t, -int64(vfs.ErrInvalidRequest), ret)
}

// TestNestedPathThroughSyscalls exercises a file inside a subdirectory
// through the syscall ABI, which requires the VFS layer to walk SimpleFS's
// single current-directory cursor down to "/d" before touching "g" and
// back before resolving a sibling at "/".
func TestNestedPathThroughSyscalls(t *testing.T) {
	d := newDispatcher(t)

	mkdir := append([]byte("/d"), 0)
	require.Equal(t, int64(0), d.Dispatch(syscall.Mkdir, ptrOf(mkdir), 0, 0, 0))

	nested := append([]byte("/d/g"), 0)
	fd := d.Dispatch(syscall.Open, ptrOf(nested), syscall.OpenCreate, 0, 0)
	require.Greater(t, fd, int64(0))

	payload := []byte("nested")
	n := d.Dispatch(syscall.Write, uint64(fd), ptrOf(payload), uint64(len(payload)), 0)
	require.Equal(t, int64(len(payload)), n)
	require.Equal(t, int64(0), d.Dispatch(syscall.Close, uint64(fd), 0, 0, 0))

	root := append([]byte("/r"), 0)
	fd2 := d.Dispatch(syscall.Open, ptrOf(root), syscall.OpenCreate, 0, 0)
	require.Greater(t, fd2, int64(0))

	fd3 := d.Dispatch(syscall.Open, ptrOf(nested), 0, 0, 0)
	require.Greater(t, fd3, int64(0))
	out := make([]byte, len(payload))
	read := d.Dispatch(syscall.Read, uint64(fd3), ptrOf(out), uint64(len(out)), 0)
	require.Equal(t, int64(len(payload)), read)
	require.Equal(t, payload, out)
}
