package blockdev_test

import (
	"testing"

	"github.com/CezarPP/BOSS/blockdev"
	"github.com/stretchr/testify/require"
)

func TestMemDeviceReadWriteRoundTrip(t *testing.T) {
	dev := blockdev.NewMemDevice(4)

	want := make([]byte, blockdev.BlockSize)
	for i := range want {
		want[i] = byte(i)
	}
	require.NoError(t, dev.Write(2, want))

	got := make([]byte, blockdev.BlockSize)
	require.NoError(t, dev.Read(2, got))
	require.Equal(t, want, got)

	// Other blocks are untouched.
	zero := make([]byte, blockdev.BlockSize)
	other := make([]byte, blockdev.BlockSize)
	require.NoError(t, dev.Read(0, other))
	require.Equal(t, zero, other)
}

func TestMemDeviceMountCount(t *testing.T) {
	dev := blockdev.NewMemDevice(1)
	require.False(t, dev.IsMounted())
	dev.Mount()
	require.True(t, dev.IsMounted())
	dev.Mount()
	dev.Unmount()
	require.True(t, dev.IsMounted())
	dev.Unmount()
	require.False(t, dev.IsMounted())
}

func TestMemDeviceUnmountBelowZeroPanics(t *testing.T) {
	dev := blockdev.NewMemDevice(1)
	require.Panics(t, func() { dev.Unmount() })
}
