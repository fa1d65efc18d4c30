package simplefs

// Write writes len(buf) bytes to inumber at offset, allocating direct and
// indirect data blocks on demand. If the disk fills up partway through,
// the write is truncated, the inode is persisted with the bytes written so
// far, and that count is returned rather than an error (spec.md §4.8).
func (fs *SimpleFS) Write(inumber uint32, buf []byte, offset uint64) (int, bool) {
	fs.checkMounted()

	length := len(buf)
	if uint64(length)+offset > MaxFileSize {
		return 0, false
	}

	n, ok := fs.loadInode(inumber)
	if !ok {
		n = inode{Valid: true}
	}
	oldSize := uint64(n.Size)

	written := 0

	// finish persists n with its size set to however much was actually
	// written, not the originally requested length: a partial write
	// (disk full) must not claim bytes that were never stored (spec.md
	// §4.8: "truncate the write, persist the inode with the bytes-so-far
	// size").
	finish := func(w int) (int, bool) {
		actual := offset + uint64(w)
		if actual > oldSize {
			n.Size = uint32(actual)
		} else {
			n.Size = uint32(oldSize)
		}
		fs.storeInode(inumber, n)
		return w, true
	}

	if offset < PointersPerInode*BlockSize {
		directIdx := int(offset / BlockSize)
		blockOff := int(offset % BlockSize)

		if !fs.ensureDirectBlock(&n, directIdx) {
			return finish(written)
		}
		written += fs.writeIntoBlock(n.Direct[directIdx], blockOff, buf[written:])
		directIdx++
		if written == length {
			return finish(written)
		}

		for ; directIdx < PointersPerInode; directIdx++ {
			if !fs.ensureDirectBlock(&n, directIdx) {
				return finish(written)
			}
			written += fs.writeIntoBlock(n.Direct[directIdx], 0, buf[written:])
			if written == length {
				return finish(written)
			}
		}

		return fs.writeIndirect(&n, 0, buf, &written, finish)
	}

	indirectOffset := offset - PointersPerInode*BlockSize
	indirectIdx := int(indirectOffset / BlockSize)
	blockOff := int(indirectOffset % BlockSize)
	return fs.writeIndirectFrom(&n, indirectIdx, blockOff, buf, &written, finish)
}

// ensureDirectBlock guarantees n.Direct[idx] names an allocated block,
// allocating one on demand. It reports whether a block is available.
func (fs *SimpleFS) ensureDirectBlock(n *inode, idx int) bool {
	if n.Direct[idx] != nullPointer {
		return true
	}
	blk := fs.allocateBlock()
	if blk == nullPointer {
		return false
	}
	n.Direct[idx] = blk
	return true
}

func (fs *SimpleFS) writeIntoBlock(blockNum uint32, blockOff int, src []byte) int {
	block := make([]byte, BlockSize)
	fs.disk.Read(blockNum, block)
	n := copy(block[blockOff:], src)
	fs.disk.Write(blockNum, block)
	return n
}

// writeIndirect handles the transition from the direct region into the
// indirect block, allocating the indirect block itself on demand, then
// streams from indirect pointer startIdx onward.
func (fs *SimpleFS) writeIndirect(n *inode, startIdx int, buf []byte, written *int, finish func(int) (int, bool)) (int, bool) {
	if n.Indirect == nullPointer {
		blk := fs.allocateBlock()
		if blk == nullPointer {
			return finish(*written)
		}
		n.Indirect = blk
		indirect := make([]byte, BlockSize)
		fs.disk.Write(n.Indirect, indirect)
	}
	return fs.writeIndirectFrom(n, startIdx, 0, buf, written, finish)
}

// writeIndirectFrom streams buf[*written:] into the indirect block's
// pointer table starting at pointer index startIdx, byte offset
// startOff within the first target block, allocating indirect-target
// blocks (and the indirect block itself, if absent) as needed.
func (fs *SimpleFS) writeIndirectFrom(n *inode, startIdx, startOff int, buf []byte, written *int, finish func(int) (int, bool)) (int, bool) {
	if n.Indirect == nullPointer {
		blk := fs.allocateBlock()
		if blk == nullPointer {
			return finish(*written)
		}
		n.Indirect = blk
		empty := make([]byte, BlockSize)
		fs.disk.Write(n.Indirect, empty)
	}

	indirect := make([]byte, BlockSize)
	fs.disk.Read(n.Indirect, indirect)

	length := len(buf)
	idx := startIdx
	off := startOff
	for idx < PointersPerBlock && *written < length {
		ptr := readPointer(indirect, idx)
		if ptr == nullPointer {
			blk := fs.allocateBlock()
			if blk == nullPointer {
				fs.disk.Write(n.Indirect, indirect)
				return finish(*written)
			}
			ptr = blk
			writePointer(indirect, idx, ptr)
		}
		*written += fs.writeIntoBlock(ptr, off, buf[*written:])
		off = 0
		idx++
	}
	fs.disk.Write(n.Indirect, indirect)
	return finish(*written)
}
