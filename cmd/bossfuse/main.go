// Command bossfuse mounts a BOSS disk image as a real host filesystem
// using github.com/hanwen/go-fuse/v2, translating FUSE callbacks into the
// same SimpleFS operations the syscall table and bossctl drive
// (SPEC_FULL.md §3).
//
// SimpleFS keeps a single mutable "current directory" cursor rather than
// resolving arbitrary paths directly (fs/simplefs/dirs.go's Cd/List), the
// same shape original_source's shell commands assume. bossfuse bridges
// that into FUSE's tree of inodes by reconstructing each node's absolute
// path as a chain of bare names and replaying Cd calls from the root
// before every directory operation, serialized by a single mutex.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/CezarPP/BOSS/fs/simplefs"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/urfave/cli/v2"
)

// rootInum is the well-known inode number of the root directory record
// (spec.md §4.8, fs/simplefs/simplefs.go's rootInum).
const rootInum = 0

// navigator serializes every SimpleFS call behind one mutex and tracks
// the bare-name path segments the live currDir cursor currently sits at,
// so goTo can always get from "wherever we are" to any target directory.
type navigator struct {
	mu      sync.Mutex
	disk    *simplefs.SimpleFS
	current []string
}

// goTo walks the cursor back to the root and back down to target,
// bare-name segment by bare-name segment. Callers must hold n.mu.
func (n *navigator) goTo(target []string) bool {
	for range n.current {
		if !n.disk.Cd("..") {
			return false
		}
	}
	n.current = nil
	for _, seg := range target {
		if !n.disk.Cd(seg) {
			return false
		}
		n.current = append(n.current, seg)
	}
	return true
}

// bossNode is a FUSE inode backed by a SimpleFS directory or file entry.
type bossNode struct {
	fs.Inode
	nav      *navigator
	segments []string
	isDir    bool
	inum     uint32
}

var (
	_ fs.NodeLookuper  = (*bossNode)(nil)
	_ fs.NodeReaddirer = (*bossNode)(nil)
	_ fs.NodeGetattrer = (*bossNode)(nil)
	_ fs.NodeCreater   = (*bossNode)(nil)
	_ fs.NodeMkdirer   = (*bossNode)(nil)
	_ fs.NodeUnlinker  = (*bossNode)(nil)
	_ fs.NodeRmdirer   = (*bossNode)(nil)
	_ fs.NodeOpener    = (*bossNode)(nil)
)

func childSegments(parent []string, name string) []string {
	child := make([]string, len(parent), len(parent)+1)
	copy(child, parent)
	return append(child, name)
}

func (n *bossNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()

	if !n.nav.goTo(n.segments) {
		return nil, syscall.EIO
	}
	inum, ok := n.nav.disk.GetInode(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	entries, _ := n.nav.disk.List()
	isDir := false
	for _, e := range entries {
		if e.Name == name {
			isDir = e.IsDir
			break
		}
	}

	child := &bossNode{nav: n.nav, segments: childSegments(n.segments, name), isDir: isDir, inum: inum}
	mode := uint32(fuse.S_IFREG)
	out.Attr.Mode = fuse.S_IFREG | 0644
	if isDir {
		mode = fuse.S_IFDIR
		out.Attr.Mode = fuse.S_IFDIR | 0755
	} else if size, err := n.nav.disk.Stat(inum); err == nil {
		out.Attr.Size = uint64(size)
	}
	out.Attr.Ino = uint64(inum)
	return n.NewInode(ctx, child, fs.StableAttr{Mode: mode, Ino: uint64(inum)}), 0
}

func (n *bossNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()

	if !n.nav.goTo(n.segments) {
		return nil, syscall.EIO
	}
	entries, ok := n.nav.disk.List()
	if !ok {
		return nil, syscall.EIO
	}
	list := make([]fuse.DirEntry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		mode := uint32(fuse.S_IFREG)
		if e.IsDir {
			mode = fuse.S_IFDIR
		}
		list = append(list, fuse.DirEntry{Name: e.Name, Ino: uint64(e.Inode), Mode: mode})
	}
	return fs.NewListDirStream(list), 0
}

func (n *bossNode) Getattr(ctx context.Context, f fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	if n.isDir {
		out.Attr.Mode = fuse.S_IFDIR | 0755
		return 0
	}
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()
	size, err := n.nav.disk.Stat(n.inum)
	if err != nil {
		return syscall.ENOENT
	}
	out.Attr.Mode = fuse.S_IFREG | 0644
	out.Attr.Size = uint64(size)
	return 0
}

func (n *bossNode) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()

	if !n.nav.goTo(n.segments) {
		return nil, nil, 0, syscall.EIO
	}
	if !n.nav.disk.Touch(name) {
		return nil, nil, 0, syscall.EEXIST
	}
	inum, ok := n.nav.disk.GetInode(name)
	if !ok {
		return nil, nil, 0, syscall.EIO
	}

	child := &bossNode{nav: n.nav, segments: childSegments(n.segments, name), inum: inum}
	out.Attr.Mode = fuse.S_IFREG | 0644
	out.Attr.Ino = uint64(inum)
	inode := n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFREG, Ino: uint64(inum)})
	return inode, &bossFileHandle{nav: n.nav, inum: inum}, 0, 0
}

func (n *bossNode) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()

	if !n.nav.goTo(n.segments) {
		return nil, syscall.EIO
	}
	if !n.nav.disk.Mkdir(name) {
		return nil, syscall.EEXIST
	}
	inum, ok := n.nav.disk.GetInode(name)
	if !ok {
		return nil, syscall.EIO
	}

	child := &bossNode{nav: n.nav, segments: childSegments(n.segments, name), isDir: true, inum: inum}
	out.Attr.Mode = fuse.S_IFDIR | 0755
	out.Attr.Ino = uint64(inum)
	return n.NewInode(ctx, child, fs.StableAttr{Mode: fuse.S_IFDIR, Ino: uint64(inum)}), 0
}

func (n *bossNode) Unlink(ctx context.Context, name string) syscall.Errno {
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()

	if !n.nav.goTo(n.segments) {
		return syscall.EIO
	}
	if !n.nav.disk.Rm(name) {
		return syscall.ENOENT
	}
	return 0
}

func (n *bossNode) Rmdir(ctx context.Context, name string) syscall.Errno {
	n.nav.mu.Lock()
	defer n.nav.mu.Unlock()

	if !n.nav.goTo(n.segments) {
		return syscall.EIO
	}
	if !n.nav.disk.RmDir(name) {
		return syscall.ENOTEMPTY
	}
	return 0
}

func (n *bossNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return &bossFileHandle{nav: n.nav, inum: n.inum}, fuse.FOPEN_DIRECT_IO, 0
}

// bossFileHandle reads and writes by inode number, which SimpleFS resolves
// independently of the currDir cursor (fs/simplefs/read.go, write.go), so
// no navigator locking dance is needed beyond serializing disk access.
type bossFileHandle struct {
	nav  *navigator
	inum uint32
}

var (
	_ fs.FileReader = (*bossFileHandle)(nil)
	_ fs.FileWriter = (*bossFileHandle)(nil)
)

func (h *bossFileHandle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	h.nav.mu.Lock()
	defer h.nav.mu.Unlock()
	n, ok := h.nav.disk.Read(h.inum, dest, uint64(off))
	if !ok {
		return nil, syscall.EIO
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (h *bossFileHandle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	h.nav.mu.Lock()
	defer h.nav.mu.Unlock()
	n, ok := h.nav.disk.Write(h.inum, data, uint64(off))
	if !ok {
		return 0, syscall.EIO
	}
	return uint32(n), 0
}

func main() {
	app := &cli.App{
		Name:      "bossfuse",
		Usage:     "mount a BOSS disk image as a host filesystem via FUSE",
		ArgsUsage: "<image> <mountpoint>",
		Action:    run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bossfuse:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: bossfuse <image> <mountpoint>")
	}
	imagePath := c.Args().Get(0)
	mountPoint := c.Args().Get(1)

	dev, err := blockdev.OpenFile(imagePath)
	if err != nil {
		return err
	}
	sfs := simplefs.New(dev)
	if err := sfs.Mount(); err != nil {
		dev.Close()
		return fmt.Errorf("mount: %w", err)
	}

	nav := &navigator{disk: sfs}
	root := &bossNode{nav: nav, isDir: true, inum: rootInum}

	server, err := fs.Mount(mountPoint, root, &fs.Options{
		MountOptions: fuse.MountOptions{FsName: "bossfs", Name: "bossfs"},
	})
	if err != nil {
		sfs.Unmount()
		dev.Close()
		return fmt.Errorf("fuse mount: %w", err)
	}

	log.Printf("bossfuse: %s mounted at %s", imagePath, mountPoint)
	server.Wait()

	sfs.Unmount()
	return dev.Close()
}
