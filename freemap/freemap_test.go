package freemap_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodefs/inodefs/devicetest"
	"github.com/inodefs/inodefs/freemap"
	"github.com/inodefs/inodefs/inode"
)

func TestMarkReservedThenAllocateSkipsReserved(t *testing.T) {
	fm := freemap.New(32)
	fm.MarkReserved(0, 1, 2)

	sector, ok := fm.Allocate(1)
	require.True(t, ok)
	require.Equal(t, uint32(3), sector)
}

func TestAllocateFirstFitContiguous(t *testing.T) {
	fm := freemap.New(32)
	a, ok := fm.Allocate(5)
	require.True(t, ok)
	require.Equal(t, uint32(0), a)

	fm.Release(a+1, 2) // free sectors 1-2 inside the first run

	b, ok := fm.Allocate(2)
	require.True(t, ok)
	require.Equal(t, uint32(1), b)
}

func TestAllocateExhaustion(t *testing.T) {
	fm := freemap.New(4)
	_, ok := fm.Allocate(4)
	require.True(t, ok)

	_, ok = fm.Allocate(1)
	require.False(t, ok)
}

func TestReleaseDoubleFreePanics(t *testing.T) {
	fm := freemap.New(8)
	sector, ok := fm.Allocate(1)
	require.True(t, ok)
	fm.Release(sector, 1)
	require.Panics(t, func() { fm.Release(sector, 1) })
}

func TestFormatOpenRoundTrip(t *testing.T) {
	dev := devicetest.New(200)
	fm := freemap.New(200)
	fm.MarkReserved(0, 1, 2)
	store := inode.NewStore(dev, fm)

	require.NoError(t, fm.Format(store, 1))

	a, ok := fm.Allocate(1)
	require.True(t, ok)
	require.NoError(t, fm.Close())

	reopened := freemap.New(200)
	store2 := inode.NewStore(dev, reopened)
	require.NoError(t, reopened.Open(store2, 1))

	require.True(t, reopened.IsAllocated(a))
	require.False(t, reopened.IsAllocated(a+1))
	require.NoError(t, reopened.Close())
}
