// Package simplefs implements the on-disk filesystem of spec.md §4.8: a
// classical inode-with-indirect-block layout atop a fixed-size block
// device, with directory blocks laid out from the end of the disk.
// Grounded in original_source/fs/simple_fs*.cpp and
// original_source/include/fs/simple_fs_structures.h.
package simplefs

import "github.com/CezarPP/BOSS/blockdev"

// MagicNumber identifies a valid BOSS superblock (spec.md §6).
const MagicNumber uint32 = 0xF0F03410

// BlockSize is the on-disk block size, equal to the underlying device's
// sector size (spec.md §4.7: 512 bytes).
const BlockSize = blockdev.BlockSize

// PointersPerInode is the number of direct block pointers an inode carries
// (spec.md §3).
const PointersPerInode = 5

// blockPointerSize is the on-disk width of one block pointer.
const blockPointerSize = 4

// PointersPerBlock is the number of block pointers that fit in one
// indirect block.
const PointersPerBlock = BlockSize / blockPointerSize

// NameSize is the fixed on-disk width of a file or directory name,
// including its NUL terminator (spec.md §6).
const NameSize = 16

// inodeDiskSize is the packed on-disk size of one Inode record: Valid(4) +
// Size(4) + Direct[5](20) + Indirect(4).
const inodeDiskSize = 4 + 4 + PointersPerInode*4 + 4

// InodesPerBlock is the number of Inode records packed into one block
// (spec.md §6: "Inodes packed 4 per 512-byte block" describes the
// original's wider C++ struct; this layout's narrower packed encoding
// fits more per block, which only affects capacity, not semantics).
const InodesPerBlock = BlockSize / inodeDiskSize

// EntriesPerDir is the number of dirents held by one directory record
// (spec.md §3).
const EntriesPerDir = 7

// direntDiskSize is the packed on-disk size of one Dirent: IsFile(1) +
// Valid(1) + Inum(4) + Name(16).
const direntDiskSize = 1 + 1 + 4 + NameSize

// dirDiskSize is the packed on-disk size of one Directory record: Valid(1)
// + Inum(4) + Name(16) + Table[7]Dirent.
const dirDiskSize = 1 + 4 + NameSize + EntriesPerDir*direntDiskSize

// DirPerBlock is the number of Directory records packed into one
// directory block.
const DirPerBlock = BlockSize / dirDiskSize

// MaxFileSize is the largest logical size a file can reach: five direct
// blocks plus one full indirect block (spec.md §3).
const MaxFileSize = (PointersPerInode + PointersPerBlock) * BlockSize

// nullPointer is the sentinel for "no block" in both direct and indirect
// fields (spec.md §3: "Zero is the null pointer").
const nullPointer uint32 = 0
