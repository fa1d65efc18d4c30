package vfs

// invalidHandle marks a released slot, mirroring
// original_source/fs/handles.cpp's INVALID_HANDLE sentinel.
const invalidHandle uint32 = 0xFFFFFFFF

// FD is a 1-indexed file descriptor, matching handles.cpp's convention that
// fd 0 never denotes a real handle.
type FD uint32

// fdEntry pairs the inode a descriptor refers to with the filesystem that
// owns it, so Read/Write can dispatch to the mount a path was opened
// through rather than assuming a single root mount.
type fdEntry struct {
	inode uint32
	fs    FileSystem
}

// fdTable maps file descriptors to the (filesystem, inode) pairs they
// reference. Descriptors are 1-indexed; a released slot is tombstoned in
// place rather than removed, so previously issued descriptors never get
// silently reassigned to a different file (handles.cpp:
// register_new_handle/release_handle/has_handle/get_handle).
type fdTable struct {
	entries []fdEntry
}

func newFDTable() *fdTable {
	return &fdTable{}
}

// register allocates a new descriptor pointing at inode within fs.
func (t *fdTable) register(fs FileSystem, inode uint32) FD {
	t.entries = append(t.entries, fdEntry{inode: inode, fs: fs})
	return FD(len(t.entries))
}

// release tombstones fd so it can no longer be used.
func (t *fdTable) release(fd FD) {
	if t.has(fd) {
		t.entries[fd-1] = fdEntry{inode: invalidHandle}
	}
}

// has reports whether fd currently names a live handle.
func (t *fdTable) has(fd FD) bool {
	return fd > 0 && int(fd) <= len(t.entries) && t.entries[fd-1].inode != invalidHandle
}

// inode returns the inode fd refers to. Callers must check has(fd) first.
func (t *fdTable) inode(fd FD) uint32 {
	return t.entries[fd-1].inode
}

// fs returns the filesystem fd was opened through. Callers must check
// has(fd) first.
func (t *fdTable) fs(fd FD) FileSystem {
	return t.entries[fd-1].fs
}
