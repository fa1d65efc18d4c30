package vfs

import (
	"strings"
)

// OpenCreate, when set in the flags argument to Open, touches the target
// path before resolving its inode (original_source/include/fs/vfs.h:
// OPEN_CREATE).
const OpenCreate uint64 = 0x1

// mountEntry records one mounted filesystem and a cursor tracking, as bare
// path segments relative to the mount's own root, where that filesystem's
// single mutable current-directory cursor (SimpleFS.Cd/currDir) currently
// sits. fs/simplefs exposes operations addressed by bare name within its
// own cursor rather than by full path (see cmd/bossfuse's navigator, which
// bridges the same gap for FUSE); the VFS façade bridges it here for every
// other caller by walking the cursor to the right place before every
// bare-name operation.
type mountEntry struct {
	point  string
	segs   []string
	fs     FileSystem
	cursor []string
}

// VFS is the mount-table-and-FD-table façade of spec.md §4.9. All state is
// process-wide singleton state per spec.md §5; callers share one VFS value
// and are responsible for serializing access the way the rest of the
// kernel's global state is serialized.
type VFS struct {
	mounts []mountEntry
	fds    *fdTable
	cwd    string
}

// New constructs an empty VFS with nothing mounted.
func New() *VFS {
	return &VFS{fds: newFDTable(), cwd: "/"}
}

// Mount registers fs at mountPoint. Mounting the same point twice is
// rejected (original_source never guards against it explicitly, but
// spec.md §6's error list carries ErrAlreadyMounted for exactly this case).
func (v *VFS) Mount(mountPoint string, fs FileSystem) ErrCode {
	clean := cleanPath(mountPoint)
	for _, m := range v.mounts {
		if m.point == clean {
			return ErrAlreadyMounted
		}
	}
	v.mounts = append(v.mounts, mountEntry{point: clean, segs: segmentsOf(clean), fs: fs})
	return ErrNone
}

// cleanPath normalizes a POSIX-style path without relying on the "path"
// package's filesystem assumptions (BOSS paths are always '/'-separated
// regardless of host OS).
func cleanPath(p string) string {
	segments := strings.Split(p, "/")
	var stack []string
	for _, seg := range segments {
		switch seg {
		case "", ".":
			// skip
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, seg)
		}
	}
	return "/" + strings.Join(stack, "/")
}

// segmentsOf splits a cleaned absolute path into its non-empty bare-name
// components; "/" yields nil.
func segmentsOf(p string) []string {
	clean := cleanPath(p)
	if clean == "/" {
		return nil
	}
	return strings.Split(strings.TrimPrefix(clean, "/"), "/")
}

// resolvePath absolutizes p against the current directory and resolves ".."
// and "." segments itself, per the Open Question decision recorded in
// DESIGN.md: VFS resolves relative segments before mount lookup so no
// individual filesystem needs to understand them.
func (v *VFS) resolvePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		p = v.cwd + "/" + p
	}
	return cleanPath(p)
}

// getFS returns the mount entry whose mount point is the longest
// component-wise prefix of path's segments, mirroring
// original_source/fs/vfs.cpp's getFs. Matching is done a whole path
// component at a time so a mount at "/a" never matches a path under "/ab"
// (spec.md §4.9: "longest prefix match" of the path's components, not of
// the raw string).
func (v *VFS) getFS(path string) (*mountEntry, ErrCode) {
	if len(v.mounts) == 0 {
		return nil, ErrNothingMounted
	}

	pSegs := segmentsOf(path)
	bestLen := -1
	bestIdx := -1
	for i := range v.mounts {
		m := &v.mounts[i]
		if len(m.segs) > len(pSegs) {
			continue
		}
		match := true
		for j, seg := range m.segs {
			if pSegs[j] != seg {
				match = false
				break
			}
		}
		if match && len(m.segs) > bestLen {
			bestLen, bestIdx = len(m.segs), i
		}
	}
	if bestIdx < 0 {
		return nil, ErrNothingMounted
	}
	return &v.mounts[bestIdx], ErrNone
}

// navigate walks entry's cursor (its filesystem's single mutable
// current-directory cursor) from wherever it currently sits back to the
// mount root and down to target, a bare-name path relative to that root.
// It mirrors cmd/bossfuse's navigator.goTo, generalized to every VFS
// operation instead of just the FUSE bridge.
func (v *VFS) navigate(entry *mountEntry, target []string) bool {
	for range entry.cursor {
		if !entry.fs.Cd("..") {
			return false
		}
	}
	entry.cursor = nil
	for _, seg := range target {
		if !entry.fs.Cd(seg) {
			return false
		}
		entry.cursor = append(entry.cursor, seg)
	}
	return true
}

// Open resolves filePath to a file descriptor, touching it first if
// OpenCreate is set (original_source/fs/vfs.cpp::open).
func (v *VFS) Open(filePath string, flags uint64) Result {
	p := v.resolvePath(filePath)
	entry, errc := v.getFS(p)
	if errc != ErrNone {
		return Fail(errc)
	}
	segs := segmentsOf(p)
	if len(segs) == 0 {
		return Fail(ErrInvalidFilePath)
	}
	dirSegs, base := segs[:len(segs)-1], segs[len(segs)-1]
	if !v.navigate(entry, dirSegs) {
		return Fail(ErrNotExists)
	}

	if flags&OpenCreate != 0 {
		entry.fs.Touch(base)
	}

	inode, ok := entry.fs.GetInode(base)
	if !ok {
		return Fail(ErrUnknown)
	}
	fd := v.fds.register(entry.fs, inode)
	return Ok(int64(fd))
}

// Close releases fd. Closing an unknown descriptor is a silent no-op,
// matching original_source/fs/vfs.cpp::close.
func (v *VFS) Close(fd FD) {
	if v.fds.has(fd) {
		v.fds.release(fd)
	}
}

// Read reads up to len(buf) bytes from fd at offset. A short read at EOF is
// not an error (Open Question decision in DESIGN.md).
func (v *VFS) Read(fd FD, buf []byte, offset uint64) Result {
	if !v.fds.has(fd) {
		return Fail(ErrInvalidFileDescriptor)
	}
	n, ok := v.fds.fs(fd).Read(v.fds.inode(fd), buf, offset)
	if !ok {
		return Fail(ErrUnknown)
	}
	return Ok(int64(n))
}

// Write writes len(buf) bytes to fd at offset.
func (v *VFS) Write(fd FD, buf []byte, offset uint64) Result {
	if !v.fds.has(fd) {
		return Fail(ErrInvalidFileDescriptor)
	}
	n, ok := v.fds.fs(fd).Write(v.fds.inode(fd), buf, offset)
	if !ok {
		return Fail(ErrUnknown)
	}
	return Ok(int64(n))
}

// pathTarget resolves filePath to its owning mount entry and splits it
// into the bare-name segments of its parent directory plus its own bare
// name, the shape every SimpleFS mutation (Mkdir/Touch/Rm/RmDir) expects.
func (v *VFS) pathTarget(filePath string) (entry *mountEntry, base string, errc ErrCode) {
	p := v.resolvePath(filePath)
	entry, errc = v.getFS(p)
	if errc != ErrNone {
		return nil, "", errc
	}
	segs := segmentsOf(p)
	if len(segs) == 0 {
		return nil, "", ErrInvalidFilePath
	}
	dirSegs, base := segs[:len(segs)-1], segs[len(segs)-1]
	if !v.navigate(entry, dirSegs) {
		return nil, "", ErrNotExists
	}
	return entry, base, ErrNone
}

// Mkdir creates a directory at filePath.
func (v *VFS) Mkdir(filePath string) Result {
	entry, base, errc := v.pathTarget(filePath)
	if errc != ErrNone {
		return Fail(errc)
	}
	if !entry.fs.Mkdir(base) {
		return Fail(ErrUnknown)
	}
	return Ok(0)
}

// Rm removes the file at filePath.
func (v *VFS) Rm(filePath string) Result {
	entry, base, errc := v.pathTarget(filePath)
	if errc != ErrNone {
		return Fail(errc)
	}
	if !entry.fs.Rm(base) {
		return Fail(ErrUnknown)
	}
	return Ok(0)
}

// RmDir removes the directory at filePath together with everything in it.
func (v *VFS) RmDir(filePath string) Result {
	entry, base, errc := v.pathTarget(filePath)
	if errc != ErrNone {
		return Fail(errc)
	}
	if !entry.fs.RmDir(base) {
		return Fail(ErrUnknown)
	}
	return Ok(0)
}

// Cd changes the current directory to dir, delegating to the owning
// filesystem and caching the resolved path on success.
func (v *VFS) Cd(dir string) Result {
	p := v.resolvePath(dir)
	entry, errc := v.getFS(p)
	if errc != ErrNone {
		return Fail(errc)
	}
	if !v.navigate(entry, segmentsOf(p)) {
		return Fail(ErrNotExists)
	}
	v.cwd = p
	return Ok(0)
}

// Pwd returns the current directory.
func (v *VFS) Pwd() string {
	return v.cwd
}

// Ls lists the contents of the current directory.
func (v *VFS) Ls() ([]DirEntry, ErrCode) {
	entry, errc := v.getFS(v.cwd)
	if errc != ErrNone {
		return nil, errc
	}
	if !v.navigate(entry, segmentsOf(v.cwd)) {
		return nil, ErrNotExists
	}
	entries, ok := entry.fs.Ls()
	if !ok {
		return nil, ErrUnknown
	}
	return entries, ErrNone
}
