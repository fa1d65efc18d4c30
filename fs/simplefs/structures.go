package simplefs

import "encoding/binary"

// SuperBlock is the block-0 record describing file-system geometry
// (spec.md §3). All fields are derived from Blocks alone; two superblocks
// for the same disk size always compare equal.
type SuperBlock struct {
	MagicNumber uint32
	Blocks      uint32
	InodeBlocks uint32
	Inodes      uint32
	DirBlocks   uint32
	DataStart   uint32
	DataEnd     uint32
	DirStart    uint32
}

// NewSuperBlock derives a fresh superblock for a disk of the given block
// count, following spec.md §3's invariants exactly:
// dataStart = InodeBlocks+1, dataEnd = Blocks-DirBlocks, dirStart =
// Blocks-DirBlocks.
func NewSuperBlock(blocks uint32) SuperBlock {
	inodeBlocks := blocks / 10
	dirBlocks := blocks / 100
	return SuperBlock{
		MagicNumber: MagicNumber,
		Blocks:      blocks,
		InodeBlocks: inodeBlocks,
		Inodes:      inodeBlocks * InodesPerBlock,
		DirBlocks:   dirBlocks,
		DataStart:   inodeBlocks + 1,
		DataEnd:     blocks - dirBlocks,
		DirStart:    blocks - dirBlocks,
	}
}

// Matches reports whether other describes the same geometry, the check
// mount() runs against a freshly rederived superblock (spec.md §4.8).
func (s SuperBlock) Matches(other SuperBlock) bool {
	return s.MagicNumber == other.MagicNumber &&
		s.Blocks == other.Blocks &&
		s.InodeBlocks == other.InodeBlocks &&
		s.Inodes == other.Inodes &&
		s.DirBlocks == other.DirBlocks
}

func (s SuperBlock) encode(block []byte) {
	binary.LittleEndian.PutUint32(block[0:4], s.MagicNumber)
	binary.LittleEndian.PutUint32(block[4:8], s.Blocks)
	binary.LittleEndian.PutUint32(block[8:12], s.InodeBlocks)
	binary.LittleEndian.PutUint32(block[12:16], s.Inodes)
	binary.LittleEndian.PutUint32(block[16:20], s.DirBlocks)
	binary.LittleEndian.PutUint32(block[20:24], s.DataStart)
	binary.LittleEndian.PutUint32(block[24:28], s.DataEnd)
	binary.LittleEndian.PutUint32(block[28:32], s.DirStart)
}

func decodeSuperBlock(block []byte) SuperBlock {
	return SuperBlock{
		MagicNumber: binary.LittleEndian.Uint32(block[0:4]),
		Blocks:      binary.LittleEndian.Uint32(block[4:8]),
		InodeBlocks: binary.LittleEndian.Uint32(block[8:12]),
		Inodes:      binary.LittleEndian.Uint32(block[12:16]),
		DirBlocks:   binary.LittleEndian.Uint32(block[16:20]),
		DataStart:   binary.LittleEndian.Uint32(block[20:24]),
		DataEnd:     binary.LittleEndian.Uint32(block[24:28]),
		DirStart:    binary.LittleEndian.Uint32(block[28:32]),
	}
}

// inode is the on-disk (and in-memory working copy of a) file record of
// spec.md §3: a validity flag, a logical size, five direct block
// pointers, and one indirect pointer.
type inode struct {
	Valid    bool
	Size     uint32
	Direct   [PointersPerInode]uint32
	Indirect uint32
}

func (n inode) encode(buf []byte) {
	if n.Valid {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
	binary.LittleEndian.PutUint32(buf[4:8], n.Size)
	for i, ptr := range n.Direct {
		off := 8 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], ptr)
	}
	indirectOff := 8 + PointersPerInode*4
	binary.LittleEndian.PutUint32(buf[indirectOff:indirectOff+4], n.Indirect)
}

func decodeInode(buf []byte) inode {
	var n inode
	n.Valid = buf[0] != 0
	n.Size = binary.LittleEndian.Uint32(buf[4:8])
	for i := range n.Direct {
		off := 8 + i*4
		n.Direct[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	indirectOff := 8 + PointersPerInode*4
	n.Indirect = binary.LittleEndian.Uint32(buf[indirectOff : indirectOff+4])
	return n
}

func encodePointer(buf []byte, ptr uint32) { binary.LittleEndian.PutUint32(buf, ptr) }

func decodePointer(buf []byte) uint32 { return binary.LittleEndian.Uint32(buf) }

func inodeOffset(slot uint32) int { return int(slot) * inodeDiskSize }

func readInodeAt(block []byte, slot uint32) inode {
	off := inodeOffset(slot)
	return decodeInode(block[off : off+inodeDiskSize])
}

func writeInodeAt(block []byte, slot uint32, n inode) {
	off := inodeOffset(slot)
	n.encode(block[off : off+inodeDiskSize])
}

// dirent is one directory-entry record (spec.md §3).
type dirent struct {
	IsFile bool
	Valid  bool
	Inum   uint32
	Name   string
}

func (e dirent) encode(buf []byte) {
	if e.IsFile {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
	if e.Valid {
		buf[1] = 1
	} else {
		buf[1] = 0
	}
	binary.LittleEndian.PutUint32(buf[2:6], e.Inum)
	encodeName(buf[6:6+NameSize], e.Name)
}

func decodeDirent(buf []byte) dirent {
	return dirent{
		IsFile: buf[0] != 0,
		Valid:  buf[1] != 0,
		Inum:   binary.LittleEndian.Uint32(buf[2:6]),
		Name:   decodeName(buf[6 : 6+NameSize]),
	}
}

func encodeName(buf []byte, name string) {
	for i := range buf {
		buf[i] = 0
	}
	n := len(name)
	if n > NameSize-1 {
		n = NameSize - 1
	}
	copy(buf, name[:n])
}

func decodeName(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// directory is a directory record: a validity flag, the inum encoding its
// own block/offset position, a name, and a fixed-size dirent table
// (spec.md §3).
type directory struct {
	Valid bool
	Inum  uint32
	Name  string
	Table [EntriesPerDir]dirent
}

func (d directory) encode(buf []byte) {
	if d.Valid {
		buf[0] = 1
	} else {
		buf[0] = 0
	}
	binary.LittleEndian.PutUint32(buf[1:5], d.Inum)
	encodeName(buf[5:5+NameSize], d.Name)
	base := 5 + NameSize
	for i, e := range d.Table {
		off := base + i*direntDiskSize
		e.encode(buf[off : off+direntDiskSize])
	}
}

func decodeDirectory(buf []byte) directory {
	var d directory
	d.Valid = buf[0] != 0
	d.Inum = binary.LittleEndian.Uint32(buf[1:5])
	d.Name = decodeName(buf[5 : 5+NameSize])
	base := 5 + NameSize
	for i := range d.Table {
		off := base + i*direntDiskSize
		d.Table[i] = decodeDirent(buf[off : off+direntDiskSize])
	}
	return d
}

func dirOffset(slot uint32) int { return int(slot) * dirDiskSize }

func readDirAt(block []byte, slot uint32) directory {
	off := dirOffset(slot)
	return decodeDirectory(block[off : off+dirDiskSize])
}

func writeDirAt(block []byte, slot uint32, d directory) {
	off := dirOffset(slot)
	d.encode(block[off : off+dirDiskSize])
}
