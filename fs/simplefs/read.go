package simplefs

// Read reads up to len(buf) bytes of inumber's data starting at offset,
// clamping the read length to what the file's logical size permits
// (spec.md §4.8). It returns the number of bytes copied into buf.
func (fs *SimpleFS) Read(inumber uint32, buf []byte, offset uint64) (int, bool) {
	fs.checkMounted()

	n, ok := fs.loadInode(inumber)
	if !ok {
		return 0, false
	}
	if offset >= uint64(n.Size) {
		return 0, true
	}

	length := len(buf)
	if uint64(length)+offset > uint64(n.Size) {
		length = int(uint64(n.Size) - offset)
	}
	if length <= 0 {
		return 0, true
	}

	copied := 0
	remaining := length

	if offset < PointersPerInode*BlockSize {
		directIdx := int(offset / BlockSize)
		blockOff := int(offset % BlockSize)

		if n.Direct[directIdx] == nullPointer {
			return 0, true
		}

		c := fs.readFromBlock(n.Direct[directIdx], blockOff, buf[copied:copied+min(remaining, BlockSize-blockOff)])
		copied += c
		remaining -= c
		directIdx++

		for remaining > 0 && directIdx < PointersPerInode && n.Direct[directIdx] != nullPointer {
			c := fs.readFromBlock(n.Direct[directIdx], 0, buf[copied:copied+min(remaining, BlockSize)])
			copied += c
			remaining -= c
			directIdx++
		}

		if remaining <= 0 {
			return copied, true
		}
		if directIdx != PointersPerInode || n.Indirect == nullPointer {
			return copied, true
		}

		indirect := make([]byte, BlockSize)
		if err := fs.disk.Read(n.Indirect, indirect); err != nil {
			return copied, false
		}
		for p := 0; p < PointersPerBlock && remaining > 0; p++ {
			ptr := readPointer(indirect, p)
			if ptr == nullPointer {
				break
			}
			c := fs.readFromBlock(ptr, 0, buf[copied:copied+min(remaining, BlockSize)])
			copied += c
			remaining -= c
		}
		return copied, true
	}

	// offset begins inside the indirect region.
	if n.Indirect == nullPointer {
		return 0, true
	}
	indirectOffset := offset - PointersPerInode*BlockSize
	indirectIdx := int(indirectOffset / BlockSize)
	blockOff := int(indirectOffset % BlockSize)

	indirect := make([]byte, BlockSize)
	if err := fs.disk.Read(n.Indirect, indirect); err != nil {
		return 0, false
	}

	if ptr := readPointer(indirect, indirectIdx); ptr != nullPointer && remaining > 0 {
		c := fs.readFromBlock(ptr, blockOff, buf[copied:copied+min(remaining, BlockSize-blockOff)])
		copied += c
		remaining -= c
		indirectIdx++
	}
	for p := indirectIdx; p < PointersPerBlock && remaining > 0; p++ {
		ptr := readPointer(indirect, p)
		if ptr == nullPointer {
			break
		}
		c := fs.readFromBlock(ptr, 0, buf[copied:copied+min(remaining, BlockSize)])
		copied += c
		remaining -= c
	}
	return copied, true
}

func (fs *SimpleFS) readFromBlock(blockNum uint32, blockOff int, dst []byte) int {
	block := make([]byte, BlockSize)
	if err := fs.disk.Read(blockNum, block); err != nil {
		return 0
	}
	return copy(dst, block[blockOff:])
}
