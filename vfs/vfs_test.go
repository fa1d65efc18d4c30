package vfs

import (
	"testing"
)

// fakeNode is either a directory or a file in fakeFS's in-memory tree.
// fakeFS is a minimal stand-in for fs/simplefs: like SimpleFS, every
// mutating operation is addressed by a bare name within a single mutable
// current-directory cursor, not by full path, so it exercises the VFS
// façade's path-to-cursor bridging (vfs.go's navigate) the same way a real
// disk-backed SimpleFS would.
type fakeNode struct {
	name     string
	isDir    bool
	inode    uint32
	data     []byte
	parent   *fakeNode
	children map[string]*fakeNode
}

type fakeFS struct {
	root *fakeNode
	cur  *fakeNode
	next uint32
}

func newFakeFS() *fakeFS {
	root := &fakeNode{name: "/", isDir: true, children: make(map[string]*fakeNode)}
	return &fakeFS{root: root, cur: root, next: 1}
}

func (f *fakeFS) allocInode() uint32 {
	n := f.next
	f.next++
	return n
}

func (f *fakeFS) Touch(name string) bool {
	if _, ok := f.cur.children[name]; ok {
		return false
	}
	f.cur.children[name] = &fakeNode{name: name, inode: f.allocInode(), parent: f.cur}
	return true
}

func (f *fakeFS) GetInode(name string) (uint32, bool) {
	if n, ok := f.cur.children[name]; ok {
		return n.inode, true
	}
	return 0, false
}

func (f *fakeFS) Mkdir(name string) bool {
	if _, ok := f.cur.children[name]; ok {
		return false
	}
	f.cur.children[name] = &fakeNode{
		name: name, isDir: true, inode: f.allocInode(),
		parent: f.cur, children: make(map[string]*fakeNode),
	}
	return true
}

func (f *fakeFS) Rm(name string) bool {
	n, ok := f.cur.children[name]
	if !ok || n.isDir {
		return false
	}
	delete(f.cur.children, name)
	return true
}

func (f *fakeFS) RmDir(name string) bool {
	n, ok := f.cur.children[name]
	if !ok || !n.isDir || n == f.cur {
		return false
	}
	delete(f.cur.children, name)
	return true
}

func (f *fakeFS) nodeByInode(inumber uint32) *fakeNode {
	var find func(n *fakeNode) *fakeNode
	find = func(n *fakeNode) *fakeNode {
		if n.inode == inumber && !n.isDir {
			return n
		}
		for _, c := range n.children {
			if found := find(c); found != nil {
				return found
			}
		}
		return nil
	}
	return find(f.root)
}

func (f *fakeFS) Read(inumber uint32, buf []byte, offset uint64) (int, bool) {
	n := f.nodeByInode(inumber)
	if n == nil {
		return 0, false
	}
	if offset >= uint64(len(n.data)) {
		return 0, true
	}
	return copy(buf, n.data[offset:]), true
}

func (f *fakeFS) Write(inumber uint32, buf []byte, offset uint64) (int, bool) {
	n := f.nodeByInode(inumber)
	if n == nil {
		return 0, false
	}
	end := offset + uint64(len(buf))
	if uint64(len(n.data)) < end {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:], buf)
	return len(buf), true
}

func (f *fakeFS) Ls() ([]DirEntry, bool) {
	var entries []DirEntry
	for name, n := range f.cur.children {
		entries = append(entries, DirEntry{Name: name, Inode: n.inode, IsDir: n.isDir})
	}
	return entries, true
}

func (f *fakeFS) Cd(name string) bool {
	if name == ".." {
		if f.cur.parent != nil {
			f.cur = f.cur.parent
		}
		return true
	}
	n, ok := f.cur.children[name]
	if !ok || !n.isDir {
		return false
	}
	f.cur = n
	return true
}

func (f *fakeFS) Pwd() string { return f.cur.name }

func TestMountAndOpenCreate(t *testing.T) {
	v := New()
	fs := newFakeFS()
	if errc := v.Mount("/", fs); errc != ErrNone {
		t.Fatalf("mount failed: %v", errc)
	}

	res := v.Open("/foo.txt", OpenCreate)
	if res.Err != ErrNone {
		t.Fatalf("open failed: %v", res.Err)
	}
	fd := FD(res.Value)
	if fd != 1 {
		t.Fatalf("expected first fd to be 1, got %d", fd)
	}
}

func TestDoubleMountFails(t *testing.T) {
	v := New()
	if errc := v.Mount("/", newFakeFS()); errc != ErrNone {
		t.Fatal(errc)
	}
	if errc := v.Mount("/", newFakeFS()); errc != ErrAlreadyMounted {
		t.Fatalf("expected ErrAlreadyMounted, got %v", errc)
	}
}

func TestReadWriteRoundTrip(t *testing.T) {
	v := New()
	fs := newFakeFS()
	_ = v.Mount("/", fs)

	res := v.Open("/a.txt", OpenCreate)
	fd := FD(res.Value)

	wres := v.Write(fd, []byte("hello"), 0)
	if wres.ToSyscallReturn() != 5 {
		t.Fatalf("expected write to return 5, got %d", wres.ToSyscallReturn())
	}

	buf := make([]byte, 5)
	rres := v.Read(fd, buf, 0)
	if rres.ToSyscallReturn() != 5 || string(buf) != "hello" {
		t.Fatalf("expected to read back 'hello', got %q (%d)", buf, rres.ToSyscallReturn())
	}
}

func TestReadUnknownFDFails(t *testing.T) {
	v := New()
	_ = v.Mount("/", newFakeFS())

	res := v.Read(99, make([]byte, 4), 0)
	if res.Err != ErrInvalidFileDescriptor {
		t.Fatalf("expected ErrInvalidFileDescriptor, got %v", res.Err)
	}
}

func TestCloseThenReadFails(t *testing.T) {
	v := New()
	_ = v.Mount("/", newFakeFS())

	res := v.Open("/a.txt", OpenCreate)
	fd := FD(res.Value)
	v.Close(fd)

	if r := v.Read(fd, make([]byte, 1), 0); r.Err != ErrInvalidFileDescriptor {
		t.Fatalf("expected read after close to fail, got %v", r.Err)
	}
}

func TestRelativePathResolution(t *testing.T) {
	v := New()
	fs := newFakeFS()
	fs.Mkdir("sub")
	_ = v.Mount("/", fs)

	if res := v.Cd("/sub"); res.Err != ErrNone {
		t.Fatalf("cd failed: %v", res.Err)
	}
	if v.Pwd() != "/sub" {
		t.Fatalf("expected pwd /sub, got %s", v.Pwd())
	}

	if res := v.Cd(".."); res.Err != ErrNone {
		t.Fatalf("cd .. failed: %v", res.Err)
	}
	if v.Pwd() != "/" {
		t.Fatalf("expected pwd / after cd .., got %s", v.Pwd())
	}
}

func TestMkdirRmRmDir(t *testing.T) {
	v := New()
	fs := newFakeFS()
	_ = v.Mount("/", fs)

	if res := v.Mkdir("/docs"); res.Err != ErrNone {
		t.Fatalf("mkdir failed: %v", res.Err)
	}
	if res := v.RmDir("/docs"); res.Err != ErrNone {
		t.Fatalf("rmdir failed: %v", res.Err)
	}

	_ = v.Open("/f", OpenCreate)
	if res := v.Rm("/f"); res.Err != ErrNone {
		t.Fatalf("rm failed: %v", res.Err)
	}
}

func TestResultToSyscallReturn(t *testing.T) {
	if Ok(42).ToSyscallReturn() != 42 {
		t.Fatal("expected Ok(42) to return 42")
	}
	if Fail(ErrNotExists).ToSyscallReturn() != -1 {
		t.Fatal("expected Fail(ErrNotExists) to return -1")
	}
}
