// Package blockdev implements the sector-addressed block device contract of
// spec.md §4.7. The freestanding kernel core backs this contract with the
// ATA PIO driver (out of scope per spec.md §1/§6, external collaborator);
// the hosted tooling layer (cmd/mkbossfs, cmd/bossctl, cmd/bossfuse) backs
// it with a memory-mapped host file so the same fs/simplefs and vfs code
// can run, be tested, and be driven interactively without an emulator.
package blockdev

// BlockSize is the fixed transfer unit, equal to a legacy ATA sector
// (spec.md §4.7, §6: "Sector size 512").
const BlockSize = 512

// Device is the contract spec.md §4.7 describes: a fixed block size, a
// total block count, single-block read/write, and mount-count tracking
// maintained by the device itself rather than its callers.
type Device interface {
	// BlockCount reports the total number of addressable blocks.
	BlockCount() uint32

	// Read transfers exactly one block into buf, which must be at least
	// BlockSize bytes long.
	Read(index uint32, buf []byte) error

	// Write transfers exactly one block from buf, which must be at least
	// BlockSize bytes long.
	Write(index uint32, buf []byte) error

	// Mount increments the device's mount count.
	Mount()

	// Unmount decrements the device's mount count. Decrementing below
	// zero is a caller error (spec.md §4.7: "must be >= 0").
	Unmount()

	// IsMounted reports whether the mount count is non-zero.
	IsMounted() bool
}
