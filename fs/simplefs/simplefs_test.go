package simplefs_test

import (
	"bytes"
	"testing"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/CezarPP/BOSS/fs/simplefs"
	"github.com/stretchr/testify/require"
)

// newMounted formats and mounts a fresh in-memory disk with the given
// block count, returning the live SimpleFS.
func newMounted(t *testing.T, blocks uint32) *simplefs.SimpleFS {
	t.Helper()
	dev := blockdev.NewMemDevice(blocks)
	require.NoError(t, simplefs.Format(dev))
	fs := simplefs.New(dev)
	require.NoError(t, fs.Mount())
	return fs
}

func TestFormatAndMountRootListing(t *testing.T) {
	fs := newMounted(t, 2000)

	entries, ok := fs.List()
	require.True(t, ok)
	require.Len(t, entries, 2)

	byName := map[string]uint32{}
	for _, e := range entries {
		byName[e.Name] = e.Inode
	}
	require.Equal(t, uint32(0), byName["."])
	require.Equal(t, uint32(0), byName[".."])
}

func TestSmallFileWriteRead(t *testing.T) {
	fs := newMounted(t, 2000)

	require.True(t, fs.Touch("f"))
	inum, ok := fs.GetInode("f")
	require.True(t, ok)

	data := []byte{1, 2, 3, 4, 5}
	n, ok := fs.Write(inum, data, 0)
	require.True(t, ok)
	require.Equal(t, 5, n)

	out := make([]byte, 5)
	n, ok = fs.Read(inum, out, 0)
	require.True(t, ok)
	require.Equal(t, 5, n)
	require.Equal(t, data, out)

	size, err := fs.Stat(inum)
	require.NoError(t, err)
	require.Equal(t, uint32(5), size)
}

func TestBlockBoundaryWrite(t *testing.T) {
	fs := newMounted(t, 2000)
	require.True(t, fs.Touch("f"))
	inum, _ := fs.GetInode("f")

	buf1 := bytes.Repeat([]byte{0xAA}, simplefs.BlockSize)
	buf2 := bytes.Repeat([]byte{0xBB}, simplefs.BlockSize)

	n, ok := fs.Write(inum, buf1, 0)
	require.True(t, ok)
	require.Equal(t, simplefs.BlockSize, n)

	n, ok = fs.Write(inum, buf2, simplefs.BlockSize)
	require.True(t, ok)
	require.Equal(t, simplefs.BlockSize, n)

	out := make([]byte, 2*simplefs.BlockSize)
	n, ok = fs.Read(inum, out, 0)
	require.True(t, ok)
	require.Equal(t, 2*simplefs.BlockSize, n)
	require.Equal(t, append(append([]byte{}, buf1...), buf2...), out)
}

func TestIndirectRegionWrite(t *testing.T) {
	fs := newMounted(t, 2000)
	require.True(t, fs.Touch("f"))
	inum, _ := fs.GetInode("f")

	x := bytes.Repeat([]byte{0xCC}, simplefs.BlockSize)
	offset := uint64(simplefs.PointersPerInode * simplefs.BlockSize)
	n, ok := fs.Write(inum, x, offset)
	require.True(t, ok)
	require.Equal(t, simplefs.BlockSize, n)

	size, err := fs.Stat(inum)
	require.NoError(t, err)
	require.Equal(t, uint32(offset)+uint32(simplefs.BlockSize), size)

	out := make([]byte, simplefs.BlockSize)
	n, ok = fs.Read(inum, out, offset)
	require.True(t, ok)
	require.Equal(t, simplefs.BlockSize, n)
	require.Equal(t, x, out)
}

func TestMkdirRmdirRoundTrip(t *testing.T) {
	fs := newMounted(t, 2000)

	require.True(t, fs.Mkdir("d"))
	require.True(t, fs.Cd("d"))
	require.True(t, fs.Touch("g"))
	require.True(t, fs.Cd(".."))
	require.True(t, fs.RmDir("d"))

	entries, ok := fs.List()
	require.True(t, ok)
	require.Len(t, entries, 2) // only "." and ".."

	require.True(t, fs.Mkdir("d"))
}

func TestDirectoryUniqueness(t *testing.T) {
	fs := newMounted(t, 2000)

	require.True(t, fs.Mkdir("x"))
	require.False(t, fs.Touch("x"))

	require.True(t, fs.Rm("x"))
	require.True(t, fs.Touch("x"))
}

func TestInodeSizeMonotonicity(t *testing.T) {
	fs := newMounted(t, 2000)
	require.True(t, fs.Touch("f"))
	inum, _ := fs.GetInode("f")

	_, ok := fs.Write(inum, bytes.Repeat([]byte{1}, 100), 0)
	require.True(t, ok)
	size1, _ := fs.Stat(inum)
	require.Equal(t, uint32(100), size1)

	_, ok = fs.Write(inum, bytes.Repeat([]byte{2}, 10), 0)
	require.True(t, ok)
	size2, _ := fs.Stat(inum)
	require.Equal(t, size1, size2, "writing a shorter run at offset 0 must not shrink size")
}

func TestRemoveCurrentDirectoryForbidden(t *testing.T) {
	fs := newMounted(t, 2000)
	require.True(t, fs.Mkdir("d"))
	require.True(t, fs.Cd("d"))
	require.False(t, fs.RmDir("."))
}
