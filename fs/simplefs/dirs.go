package simplefs

import "github.com/CezarPP/BOSS/vfs"

// dirBlockOf returns the physical block index holding directory record
// dirIndex, counting backward from the end of the disk (spec.md §4.8).
func (fs *SimpleFS) dirBlockOf(dirIndex uint32) uint32 {
	return fs.meta.Blocks - 1 - dirIndex
}

// addDirEntry finds the first invalid dirent slot in dir and populates it,
// returning the modified directory (spec.md §4.8: directory records are
// value types passed around and written back explicitly, mirroring
// original_source's add_dir_entry).
func addDirEntry(dir directory, inum uint32, isFile bool, name string) (directory, bool) {
	for i := range dir.Table {
		if !dir.Table[i].Valid {
			dir.Table[i] = dirent{IsFile: isFile, Valid: true, Inum: inum, Name: name}
			return dir, true
		}
	}
	return dir, false
}

// dirLookup returns the table offset of the dirent named name in dir, or
// -1 if none exists.
func dirLookup(dir directory, name string) int {
	for i, e := range dir.Table {
		if e.Valid && e.Name == name {
			return i
		}
	}
	return -1
}

// readDirFromOffset reads the directory record referenced by the dirent at
// offset in dir, which must be a valid, non-file entry.
func (fs *SimpleFS) readDirFromOffset(dir directory, offset int) (directory, bool) {
	if offset < 0 || offset >= EntriesPerDir || !dir.Table[offset].Valid || dir.Table[offset].IsFile {
		return directory{}, false
	}
	inum := dir.Table[offset].Inum
	blockIdx := inum / DirPerBlock
	slot := inum % DirPerBlock

	block := make([]byte, BlockSize)
	if err := fs.disk.Read(fs.dirBlockOf(blockIdx), block); err != nil {
		return directory{}, false
	}
	return readDirAt(block, slot), true
}

// writeDirBack persists dir at the physical block/slot its own Inum
// encodes.
func (fs *SimpleFS) writeDirBack(dir directory) error {
	blockIdx := dir.Inum / DirPerBlock
	slot := dir.Inum % DirPerBlock
	block := make([]byte, BlockSize)
	phys := fs.dirBlockOf(blockIdx)
	if err := fs.disk.Read(phys, block); err != nil {
		return err
	}
	writeDirAt(block, slot, dir)
	return fs.disk.Write(phys, block)
}

// Mkdir creates a new subdirectory named name inside the current
// directory, populates its "." and ".." entries, and links it into the
// parent (spec.md §4.8).
func (fs *SimpleFS) Mkdir(name string) bool {
	fs.checkMounted()

	if dirLookup(fs.currDir, name) != -1 {
		return false
	}

	var blockIdx uint32
	found := false
	for blockIdx = 0; blockIdx < fs.meta.DirBlocks; blockIdx++ {
		if fs.dirCtr[blockIdx] < DirPerBlock {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	block := make([]byte, BlockSize)
	phys := fs.dirBlockOf(blockIdx)
	if err := fs.disk.Read(phys, block); err != nil {
		return false
	}

	var slot uint32
	slotFound := false
	for slot = 0; slot < DirPerBlock; slot++ {
		if !readDirAt(block, slot).Valid {
			slotFound = true
			break
		}
	}
	if !slotFound {
		return false
	}

	newDir := directory{Valid: true, Inum: blockIdx*DirPerBlock + slot, Name: name}
	var ok bool
	newDir, ok = addDirEntry(newDir, newDir.Inum, false, ".")
	if !ok {
		return false
	}
	newDir, ok = addDirEntry(newDir, fs.currDir.Inum, false, "..")
	if !ok {
		return false
	}

	parent, ok := addDirEntry(fs.currDir, newDir.Inum, false, name)
	if !ok {
		return false
	}
	fs.currDir = parent

	if err := fs.writeDirBack(newDir); err != nil {
		return false
	}
	if err := fs.writeDirBack(fs.currDir); err != nil {
		return false
	}
	fs.dirCtr[blockIdx]++
	return true
}

// rmdirByOffset recursively removes every non-"."/".." entry of the
// directory referenced by parent.Table[offset], then invalidates the
// directory record and its dirent in parent (spec.md §4.8).
func (fs *SimpleFS) rmdirByOffset(parent directory, offset int) (directory, bool) {
	inum := parent.Table[offset].Inum
	blockIdx := inum / DirPerBlock
	slot := inum % DirPerBlock
	phys := fs.dirBlockOf(blockIdx)

	block := make([]byte, BlockSize)
	if err := fs.disk.Read(phys, block); err != nil {
		return parent, false
	}
	dir := readDirAt(block, slot)
	if !dir.Valid {
		return parent, false
	}
	if dir.Inum == fs.currDir.Inum {
		return parent, false
	}

	for i := 2; i < EntriesPerDir; i++ {
		if !dir.Table[i].Valid {
			continue
		}
		var ok bool
		dir, ok = fs.removeEntry(dir, i)
		if !ok {
			return parent, false
		}
	}

	if err := fs.disk.Read(phys, block); err != nil {
		return parent, false
	}
	dir.Valid = false
	writeDirAt(block, slot, dir)
	if err := fs.disk.Write(phys, block); err != nil {
		return parent, false
	}

	parent.Table[offset].Valid = false
	if err := fs.writeDirBack(parent); err != nil {
		return parent, false
	}
	fs.dirCtr[blockIdx]--
	return parent, true
}

// RmDir removes the empty-or-not subdirectory named name from the current
// directory. Removing the current directory is forbidden (spec.md §4.8).
func (fs *SimpleFS) RmDir(name string) bool {
	fs.checkMounted()

	offset := dirLookup(fs.currDir, name)
	if offset == -1 || fs.currDir.Table[offset].IsFile {
		return false
	}
	updated, ok := fs.rmdirByOffset(fs.currDir, offset)
	if !ok {
		return false
	}
	fs.currDir = updated
	return true
}

// Cd changes the cached current directory to the subdirectory named name.
func (fs *SimpleFS) Cd(name string) bool {
	fs.checkMounted()

	offset := dirLookup(fs.currDir, name)
	if offset == -1 || fs.currDir.Table[offset].IsFile {
		return false
	}
	dir, ok := fs.readDirFromOffset(fs.currDir, offset)
	if !ok || !dir.Valid {
		return false
	}
	fs.currDir = dir
	return true
}

// Pwd returns a placeholder cwd label; path tracking lives in the VFS
// layer (spec.md §4.9), not inside an individual filesystem.
func (fs *SimpleFS) Pwd() string {
	return fs.currDir.Name
}

// List returns the entries of the current directory.
func (fs *SimpleFS) List() ([]vfs.DirEntry, bool) {
	fs.checkMounted()
	return dirEntries(fs.currDir), true
}

// ListNamed returns the entries of the named subdirectory of the current
// directory without changing it (original_source: ls_dir, distinct from
// ls(), spec.md §4 supplemented feature per SPEC_FULL.md §4).
func (fs *SimpleFS) ListNamed(name string) ([]vfs.DirEntry, bool) {
	fs.checkMounted()
	offset := dirLookup(fs.currDir, name)
	if offset == -1 || fs.currDir.Table[offset].IsFile {
		return nil, false
	}
	dir, ok := fs.readDirFromOffset(fs.currDir, offset)
	if !ok || !dir.Valid {
		return nil, false
	}
	return dirEntries(dir), true
}

func dirEntries(dir directory) []vfs.DirEntry {
	entries := make([]vfs.DirEntry, 0, EntriesPerDir)
	for _, e := range dir.Table {
		if e.Valid {
			entries = append(entries, vfs.DirEntry{Name: e.Name, Inode: e.Inum, IsDir: !e.IsFile})
		}
	}
	return entries
}
