package blockdev

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// FileDevice backs the Device contract with a regular host file,
// memory-mapped for the lifetime of the device, grounded in
// CircleCashTeam-magiskboot_go's use of mmap-go to patch a boot image in
// place: both cases want direct byte-level read/write into a fixed-size
// disk image without juggling explicit Seek/Read/Write offsets per block.
type FileDevice struct {
	file    *os.File
	data    mmap.MMap
	blocks  uint32
	mounted int
}

// CreateFile creates (or truncates) path to hold blocks blocks of
// blockdev.BlockSize bytes each and opens it as a FileDevice. Used by
// cmd/mkbossfs to lay down a fresh disk image.
func CreateFile(path string, blocks uint32) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: create %s: %w", path, err)
	}
	size := int64(blocks) * BlockSize
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: truncate %s to %d bytes: %w", path, size, err)
	}
	return mapFile(f, blocks)
}

// OpenFile opens an existing disk image at path as a FileDevice. The block
// count is derived from the file size.
func OpenFile(path string) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: stat %s: %w", path, err)
	}
	if info.Size()%BlockSize != 0 {
		f.Close()
		return nil, fmt.Errorf("blockdev: %s size %d is not a multiple of the block size %d", path, info.Size(), BlockSize)
	}
	return mapFile(f, uint32(info.Size()/BlockSize))
}

func mapFile(f *os.File, blocks uint32) (*FileDevice, error) {
	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: mmap %s: %w", f.Name(), err)
	}
	return &FileDevice{file: f, data: data, blocks: blocks}, nil
}

// BlockCount implements Device.
func (d *FileDevice) BlockCount() uint32 { return d.blocks }

// Read implements Device.
func (d *FileDevice) Read(index uint32, buf []byte) error {
	if index >= d.blocks {
		return fmt.Errorf("blockdev: read block %d out of range (0..%d)", index, d.blocks)
	}
	off := int64(index) * BlockSize
	copy(buf, d.data[off:off+BlockSize])
	return nil
}

// Write implements Device.
func (d *FileDevice) Write(index uint32, buf []byte) error {
	if index >= d.blocks {
		return fmt.Errorf("blockdev: write block %d out of range (0..%d)", index, d.blocks)
	}
	off := int64(index) * BlockSize
	copy(d.data[off:off+BlockSize], buf)
	return nil
}

// Mount implements Device.
func (d *FileDevice) Mount() { d.mounted++ }

// Unmount implements Device. Decrementing below zero is a caller error
// (spec.md §4.7).
func (d *FileDevice) Unmount() {
	if d.mounted == 0 {
		panic("blockdev: Unmount called with mount count already 0")
	}
	d.mounted--
}

// IsMounted implements Device.
func (d *FileDevice) IsMounted() bool { return d.mounted != 0 }

// Sync flushes the memory-mapped image back to disk. Callers should call
// this before Close to guarantee durability, since the mapping is only
// flushed implicitly by the OS otherwise.
func (d *FileDevice) Sync() error {
	return d.data.Flush()
}

// Close unmaps the image and closes the backing file.
func (d *FileDevice) Close() error {
	if err := d.data.Unmap(); err != nil {
		d.file.Close()
		return fmt.Errorf("blockdev: unmap: %w", err)
	}
	return d.file.Close()
}
