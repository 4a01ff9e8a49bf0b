package fdtable_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodefs/inodefs/devicetest"
	"github.com/inodefs/inodefs/fdtable"
	"github.com/inodefs/inodefs/file"
	"github.com/inodefs/inodefs/freemap"
	"github.com/inodefs/inodefs/inode"
	"github.com/inodefs/inodefs/task"
)

const owner task.ID = 1

func newHandle(t *testing.T) *file.Handle {
	t.Helper()
	dev := devicetest.New(200)
	fm := freemap.New(200)
	store := inode.NewStore(dev, fm)
	sector, ok := fm.Allocate(1)
	require.True(t, ok)
	require.NoError(t, store.Create(sector, 0, false, sector))
	in, err := store.Open(sector)
	require.NoError(t, err)
	return file.Open(in)
}

func TestOpenStartsAtFirstOpenableSlot(t *testing.T) {
	table := fdtable.New()
	fd, err := table.Open(owner, "a.txt", newHandle(t))
	require.NoError(t, err)
	require.Equal(t, 2, fd)
}

func TestCloseByNonOwnerDenied(t *testing.T) {
	table := fdtable.New()
	fd, err := table.Open(owner, "a.txt", newHandle(t))
	require.NoError(t, err)
	require.Error(t, table.Close(owner+1, fd))
	require.NoError(t, table.Close(owner, fd))
}

func TestReadWriteSeekTell(t *testing.T) {
	table := fdtable.New()
	fd, err := table.Open(owner, "a.txt", newHandle(t))
	require.NoError(t, err)

	n, err := table.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	size, err := table.Filesize(fd)
	require.NoError(t, err)
	require.Equal(t, uint32(5), size)

	require.NoError(t, table.Seek(fd, 0))
	pos, err := table.Tell(fd)
	require.NoError(t, err)
	require.Equal(t, uint32(0), pos)

	buf := make([]byte, 5)
	n, err = table.Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, "hello", string(buf[:n]))

	require.NoError(t, table.Close(owner, fd))
}

func TestOperationsOnClosedFdFail(t *testing.T) {
	table := fdtable.New()
	_, err := table.Filesize(5)
	require.Error(t, err)
	require.Error(t, table.Seek(0, 0))
	require.Error(t, table.Seek(1, 0))
}

func TestCloseAllReclaimsSlots(t *testing.T) {
	table := fdtable.New()
	fd1, err := table.Open(owner, "a.txt", newHandle(t))
	require.NoError(t, err)
	fd2, err := table.Open(owner, "b.txt", newHandle(t))
	require.NoError(t, err)
	require.NotEqual(t, fd1, fd2)

	table.CloseAll()

	_, err = table.Filesize(fd1)
	require.Error(t, err)
	_, err = table.Filesize(fd2)
	require.Error(t, err)
}

func TestIsOpen(t *testing.T) {
	table := fdtable.New()
	require.False(t, table.IsOpen("a.txt"))
	_, err := table.Open(owner, "a.txt", newHandle(t))
	require.NoError(t, err)
	require.True(t, table.IsOpen("a.txt"))
	require.False(t, table.IsOpen("b.txt"))
}

func TestTableFullReturnsError(t *testing.T) {
	table := fdtable.New()
	for i := 2; i < fdtable.Capacity; i++ {
		_, err := table.Open(owner, "x", newHandle(t))
		require.NoError(t, err)
	}
	_, err := table.Open(owner, "overflow", newHandle(t))
	require.Error(t, err)
}
