package vfs

// DirEntry is one entry returned by a filesystem's directory listing,
// mirroring original_source's vfs::file (include/fs/file_system.h).
type DirEntry struct {
	Name  string
	Inode uint32
	IsDir bool
}

// FileSystem is the contract a mounted filesystem implements, matching
// original_source's vfs::FileSystem interface (getInode, touch, mkdir, rm,
// rmdir, read, write, ls, cd) closely enough that fs/simplefs.SimpleFS
// satisfies it directly.
type FileSystem interface {
	// Touch creates an empty file at name if it does not already exist.
	// It reports whether a new file was created, so it returns false when
	// name already exists.
	Touch(name string) bool

	// GetInode resolves name to an inode number within this filesystem.
	GetInode(name string) (uint32, bool)

	Mkdir(name string) bool
	Rm(name string) bool
	RmDir(name string) bool

	// Read and Write operate on an inode number, not a path; the VFS file
	// descriptor table maps descriptors to inode numbers.
	Read(inumber uint32, buf []byte, offset uint64) (int, bool)
	Write(inumber uint32, buf []byte, offset uint64) (int, bool)

	Ls() ([]DirEntry, bool)

	// Cd changes this filesystem's cached current directory.
	Cd(name string) bool

	// Pwd returns the name of this filesystem's cached current directory,
	// not a full path.
	Pwd() string
}
