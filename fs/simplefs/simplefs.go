package simplefs

import (
	"fmt"
	"io"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/CezarPP/BOSS/vfs"
)

// rootInum is the inode number the root directory record occupies: block
// index 0 (the last disk block) at offset 0 (spec.md §4.8).
const rootInum = 0

// SimpleFS implements vfs.FileSystem over a blockdev.Device, following the
// on-disk layout of spec.md §4.8: a superblock at block 0, inode blocks,
// data blocks, and directory blocks counted backward from the end of the
// disk. The free-block bitmap and per-block counters are kept in memory
// only and rebuilt on every mount (spec.md §1 Non-goals: "free-block
// persistence").
type SimpleFS struct {
	disk     blockdev.Device
	meta     SuperBlock
	mounted  bool
	occupied []bool
	inodeCtr []uint32
	dirCtr   []uint32
	currDir  directory
}

// New wraps disk in an unmounted SimpleFS.
func New(disk blockdev.Device) *SimpleFS {
	return &SimpleFS{disk: disk}
}

func (fs *SimpleFS) checkMounted() {
	if !fs.mounted {
		panic("simplefs: file system is not mounted")
	}
}

// Format writes a fresh superblock, zeroes every inode and data block, and
// installs a root directory containing valid "." and ".." entries both
// pointing at inode 0 (spec.md §4.8). The disk must not already be
// mounted.
func Format(disk blockdev.Device) error {
	if disk.IsMounted() {
		return fmt.Errorf("simplefs: format: disk is already mounted")
	}

	super := NewSuperBlock(disk.BlockCount())
	block := make([]byte, BlockSize)
	super.encode(block)
	if err := disk.Write(0, block); err != nil {
		return err
	}

	empty := make([]byte, BlockSize)
	for i := uint32(1); i <= super.InodeBlocks; i++ {
		if err := disk.Write(i, empty); err != nil {
			return err
		}
	}
	for i := super.DataStart; i < super.DataEnd; i++ {
		if err := disk.Write(i, empty); err != nil {
			return err
		}
	}
	for i := super.DirStart; i < super.Blocks; i++ {
		if err := disk.Write(i, empty); err != nil {
			return err
		}
	}

	root := directory{Valid: true, Inum: rootInum, Name: "/"}
	root.Table[0] = dirent{IsFile: false, Valid: true, Inum: rootInum, Name: "."}
	root.Table[1] = dirent{IsFile: false, Valid: true, Inum: rootInum, Name: ".."}
	rootBlock := make([]byte, BlockSize)
	writeDirAt(rootBlock, 0, root)
	return disk.Write(super.Blocks-1, rootBlock)
}

// Mount reads and validates the superblock, rebuilds the in-memory
// occupied-block bitmap and per-block inode/directory counters by
// scanning every inode and directory block, and caches the root directory
// as the current directory (spec.md §4.8).
func (fs *SimpleFS) Mount() error {
	if fs.disk.IsMounted() {
		return fmt.Errorf("simplefs: mount: disk is already mounted")
	}

	block := make([]byte, BlockSize)
	if err := fs.disk.Read(0, block); err != nil {
		return err
	}
	super := decodeSuperBlock(block)
	if super.MagicNumber != MagicNumber {
		return fmt.Errorf("simplefs: mount: bad magic number %#x", super.MagicNumber)
	}
	expected := NewSuperBlock(fs.disk.BlockCount())
	if !super.Matches(expected) {
		return fmt.Errorf("simplefs: mount: superblock geometry does not match disk size")
	}

	fs.disk.Mount()
	fs.meta = super
	fs.occupied = make([]bool, super.Blocks)
	fs.inodeCtr = make([]uint32, super.InodeBlocks)
	fs.dirCtr = make([]uint32, super.DirBlocks)
	fs.occupied[0] = true

	indirect := make([]byte, BlockSize)
	for i := uint32(1); i <= super.InodeBlocks; i++ {
		if err := fs.disk.Read(i, block); err != nil {
			return err
		}
		for slot := uint32(0); slot < InodesPerBlock; slot++ {
			n := readInodeAt(block, slot)
			if !n.Valid {
				continue
			}
			fs.inodeCtr[i-1]++
			fs.occupied[i] = true

			for _, ptr := range n.Direct {
				if ptr != nullPointer {
					if ptr >= super.DataEnd {
						return fmt.Errorf("simplefs: mount: direct pointer %d out of bounds", ptr)
					}
					fs.occupied[ptr] = true
				}
			}
			if n.Indirect != nullPointer {
				if n.Indirect >= super.DataEnd {
					return fmt.Errorf("simplefs: mount: indirect pointer %d out of bounds", n.Indirect)
				}
				fs.occupied[n.Indirect] = true
				if err := fs.disk.Read(n.Indirect, indirect); err != nil {
					return err
				}
				for p := 0; p < PointersPerBlock; p++ {
					ptr := readPointer(indirect, p)
					if ptr != nullPointer {
						if ptr >= super.DataEnd {
							return fmt.Errorf("simplefs: mount: indirect-target pointer %d out of bounds", ptr)
						}
						fs.occupied[ptr] = true
					}
				}
			}
		}
	}

	dirBlock := make([]byte, BlockSize)
	for d := uint32(0); d < super.DirBlocks; d++ {
		if err := fs.disk.Read(super.Blocks-1-d, dirBlock); err != nil {
			return err
		}
		for slot := uint32(0); slot < DirPerBlock; slot++ {
			if readDirAt(dirBlock, slot).Valid {
				fs.dirCtr[d]++
			}
		}
		if d == 0 {
			fs.currDir = readDirAt(dirBlock, 0)
		}
	}

	fs.mounted = true
	return nil
}

// Unmount marks the underlying device unmounted. Mounted in-memory state
// (bitmap, counters, current directory) is dropped; it is rebuilt on the
// next Mount.
func (fs *SimpleFS) Unmount() {
	fs.checkMounted()
	fs.disk.Unmount()
	fs.mounted = false
}

// Stat returns the logical size of inumber, or vfs.ErrNotExists if the
// inode is not valid.
func (fs *SimpleFS) Stat(inumber uint32) (uint32, error) {
	fs.checkMounted()
	n, ok := fs.loadInode(inumber)
	if !ok {
		return 0, vfs.ErrNotExists
	}
	return n.Size, nil
}

// DebugDump writes a geometry and directory-tree dump to w, mirroring
// original_source/fs/simple_fs_dirs.cpp's stat() debug routine (spec.md
// §4 supplemented feature, see SPEC_FULL.md §4).
func (fs *SimpleFS) DebugDump(w io.Writer) error {
	fs.checkMounted()
	fmt.Fprintf(w, "blocks=%d inodeBlocks=%d inodes=%d dirBlocks=%d\n",
		fs.meta.Blocks, fs.meta.InodeBlocks, fs.meta.Inodes, fs.meta.DirBlocks)
	fmt.Fprintf(w, "inodesPerBlock=%d entriesPerDir=%d dirPerBlock=%d nameSize=%d\n",
		InodesPerBlock, EntriesPerDir, DirPerBlock, NameSize)

	dirBlock := make([]byte, BlockSize)
	for d := uint32(0); d < fs.meta.DirBlocks; d++ {
		if err := fs.disk.Read(fs.meta.Blocks-1-d, dirBlock); err != nil {
			return err
		}
		fmt.Fprintf(w, "dir block %d:\n", d)
		for slot := uint32(0); slot < DirPerBlock; slot++ {
			dir := readDirAt(dirBlock, slot)
			if !dir.Valid {
				continue
			}
			fmt.Fprintf(w, "  offset %d: %q (inum %d)\n", slot, dir.Name, dir.Inum)
			for _, e := range dir.Table {
				if !e.Valid {
					continue
				}
				kind := "dir"
				if e.IsFile {
					kind = "file"
				}
				fmt.Fprintf(w, "    %-16s inum=%-6d %s\n", e.Name, e.Inum, kind)
			}
		}
	}
	return nil
}

func readPointer(block []byte, index int) uint32 {
	off := index * blockPointerSize
	return decodePointer(block[off : off+blockPointerSize])
}

func writePointer(block []byte, index int, ptr uint32) {
	off := index * blockPointerSize
	encodePointer(block[off:off+blockPointerSize], ptr)
}
