package simplefs

// createInode scans inode blocks for one whose counter is below capacity,
// finds the first invalid slot, marks it valid and persists it, returning
// the global inode number (spec.md §4.8: "Create inode").
func (fs *SimpleFS) createInode() (uint32, bool) {
	fs.checkMounted()

	block := make([]byte, BlockSize)
	for i := uint32(1); i <= fs.meta.InodeBlocks; i++ {
		if fs.inodeCtr[i-1] == InodesPerBlock {
			continue
		}
		if err := fs.disk.Read(i, block); err != nil {
			return 0, false
		}
		for slot := uint32(0); slot < InodesPerBlock; slot++ {
			n := readInodeAt(block, slot)
			if n.Valid {
				continue
			}
			n = inode{Valid: true}
			writeInodeAt(block, slot, n)
			fs.occupied[i] = true
			fs.inodeCtr[i-1]++
			if err := fs.disk.Write(i, block); err != nil {
				return 0, false
			}
			return (i-1)*InodesPerBlock + slot, true
		}
	}
	return 0, false
}

// loadInode reads the inode numbered inumber, returning ok=false if the
// number is out of range or the slot is not valid.
func (fs *SimpleFS) loadInode(inumber uint32) (inode, bool) {
	fs.checkMounted()

	if inumber >= fs.meta.Inodes {
		return inode{}, false
	}
	blockIdx := inumber/InodesPerBlock + 1
	slot := inumber % InodesPerBlock
	if fs.inodeCtr[blockIdx-1] == 0 {
		return inode{}, false
	}

	block := make([]byte, BlockSize)
	if err := fs.disk.Read(blockIdx, block); err != nil {
		return inode{}, false
	}
	n := readInodeAt(block, slot)
	if !n.Valid {
		return inode{}, false
	}
	return n, true
}

func (fs *SimpleFS) storeInode(inumber uint32, n inode) error {
	blockIdx := inumber/InodesPerBlock + 1
	slot := inumber % InodesPerBlock
	block := make([]byte, BlockSize)
	if err := fs.disk.Read(blockIdx, block); err != nil {
		return err
	}
	writeInodeAt(block, slot, n)
	return fs.disk.Write(blockIdx, block)
}

// removeInode zeroes direct and indirect pointers (freeing their blocks in
// the bitmap, including the indirect block itself) and marks the inode
// invalid (spec.md §4.8: "Remove inode").
func (fs *SimpleFS) removeInode(inumber uint32) bool {
	fs.checkMounted()

	n, ok := fs.loadInode(inumber)
	if !ok {
		return false
	}
	n.Valid = false
	n.Size = 0

	blockIdx := inumber / InodesPerBlock
	fs.inodeCtr[blockIdx]--
	if fs.inodeCtr[blockIdx] == 0 {
		fs.occupied[blockIdx+1] = false
	}

	for i := range n.Direct {
		if n.Direct[i] != nullPointer {
			fs.occupied[n.Direct[i]] = false
			n.Direct[i] = nullPointer
		}
	}
	if n.Indirect != nullPointer {
		indirect := make([]byte, BlockSize)
		if err := fs.disk.Read(n.Indirect, indirect); err == nil {
			for p := 0; p < PointersPerBlock; p++ {
				ptr := readPointer(indirect, p)
				if ptr != nullPointer {
					fs.occupied[ptr] = false
				}
			}
		}
		fs.occupied[n.Indirect] = false
		n.Indirect = nullPointer
	}

	return fs.storeInode(inumber, n) == nil
}

// allocateBlock scans the in-memory bitmap for the first free data block,
// marking it occupied, or returns nullPointer if the disk is full
// (spec.md §4.8 write()'s "disk full" path).
func (fs *SimpleFS) allocateBlock() uint32 {
	fs.checkMounted()
	for i := fs.meta.DataStart; i < fs.meta.DataEnd; i++ {
		if !fs.occupied[i] {
			fs.occupied[i] = true
			return i
		}
	}
	return nullPointer
}
