package simplefs

import "github.com/CezarPP/BOSS/vfs"

// Touch creates an empty file named name in the current directory.
// Duplicate names are rejected (spec.md §4.8, SPEC_FULL.md §4 supplemented
// feature: explicit ErrExists path on the VFS side, tracked here by a
// plain bool per the FileSystem interface).
func (fs *SimpleFS) Touch(name string) bool {
	fs.checkMounted()

	if dirLookup(fs.currDir, name) != -1 {
		return false
	}

	inum, ok := fs.createInode()
	if !ok {
		return false
	}

	updated, ok := addDirEntry(fs.currDir, inum, true, name)
	if !ok {
		return false
	}
	fs.currDir = updated
	if err := fs.writeDirBack(fs.currDir); err != nil {
		return false
	}
	return true
}

// GetInode resolves name against the current directory.
func (fs *SimpleFS) GetInode(name string) (uint32, bool) {
	fs.checkMounted()
	offset := dirLookup(fs.currDir, name)
	if offset == -1 {
		return 0, false
	}
	return fs.currDir.Table[offset].Inum, true
}

// removeEntry removes the table entry at offset within dir: if it names a
// directory, it is recursively emptied and unlinked (rmdirByOffset); if it
// names a file, its inode is freed and the entry invalidated. Either way
// the updated dir is persisted before returning (mirrors
// original_source/fs/simple_fs_files.cpp's rm_helper, generalized to
// operate by offset rather than re-searching by name at every level).
func (fs *SimpleFS) removeEntry(dir directory, offset int) (directory, bool) {
	if !dir.Table[offset].IsFile {
		return fs.rmdirByOffset(dir, offset)
	}

	inum := dir.Table[offset].Inum
	if !fs.removeInode(inum) {
		return dir, false
	}
	dir.Table[offset].Valid = false
	if err := fs.writeDirBack(dir); err != nil {
		return dir, false
	}
	return dir, true
}

// Rm removes the file or (recursively) the directory named name from the
// current directory (spec.md §4.8).
func (fs *SimpleFS) Rm(name string) bool {
	fs.checkMounted()

	offset := dirLookup(fs.currDir, name)
	if offset == -1 {
		return false
	}
	updated, ok := fs.removeEntry(fs.currDir, offset)
	if !ok {
		return false
	}
	fs.currDir = updated
	return true
}

// Ls lists the current directory, satisfying vfs.FileSystem; it delegates
// to List.
func (fs *SimpleFS) Ls() ([]vfs.DirEntry, bool) {
	return fs.List()
}
