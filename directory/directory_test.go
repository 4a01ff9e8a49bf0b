package directory_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodefs/inodefs/devicetest"
	"github.com/inodefs/inodefs/directory"
	"github.com/inodefs/inodefs/freemap"
	"github.com/inodefs/inodefs/inode"
)

func newStoreAndRoot(t *testing.T) (*inode.Store, *freemap.FreeMap, *directory.Dir) {
	t.Helper()
	dev := devicetest.New(2000)
	fm := freemap.New(2000)
	fm.MarkReserved(0, 1, 2)
	store := inode.NewStore(dev, fm)
	require.NoError(t, fm.Format(store, 1))
	require.NoError(t, directory.Create(store, 2, 2, 8))
	root, err := directory.OpenRoot(store, 2)
	require.NoError(t, err)
	return store, fm, root
}

func TestAddLookupRemove(t *testing.T) {
	store, fm, root := newStoreAndRoot(t)
	defer root.Close()

	childSector, ok := fm.Allocate(1)
	require.True(t, ok)
	require.NoError(t, store.Create(childSector, 0, false, root.Inode().Sector()))

	require.NoError(t, root.Add("hello.txt", childSector))

	in, err := root.Lookup(store, "hello.txt")
	require.NoError(t, err)
	require.Equal(t, childSector, in.Sector())
	require.NoError(t, in.Close())

	require.NoError(t, root.Remove(store, "hello.txt", nil))

	_, err = root.Lookup(store, "hello.txt")
	require.Error(t, err)
}

func TestAddDuplicateNameFails(t *testing.T) {
	store, fm, root := newStoreAndRoot(t)
	defer root.Close()

	s1, _ := fm.Allocate(1)
	require.NoError(t, store.Create(s1, 0, false, root.Inode().Sector()))
	require.NoError(t, root.Add("a", s1))

	s2, _ := fm.Allocate(1)
	require.NoError(t, store.Create(s2, 0, false, root.Inode().Sector()))
	require.Error(t, root.Add("a", s2))
}

func TestAddRejectsBadNames(t *testing.T) {
	_, _, root := newStoreAndRoot(t)
	defer root.Close()

	require.Error(t, root.Add("", 3))
	require.Error(t, root.Add("this-name-is-definitely-too-long", 3))
}

func TestRemoveNonEmptyDirectoryFails(t *testing.T) {
	store, fm, root := newStoreAndRoot(t)
	defer root.Close()

	childSector, _ := fm.Allocate(1)
	require.NoError(t, directory.Create(store, childSector, root.Inode().Sector(), 4))
	require.NoError(t, root.Add("sub", childSector))

	child, err := directory.OpenRoot(store, childSector)
	require.NoError(t, err)
	grandchildSector, _ := fm.Allocate(1)
	require.NoError(t, store.Create(grandchildSector, 0, false, childSector))
	require.NoError(t, child.Add("f", grandchildSector))
	require.NoError(t, child.Close())

	require.Error(t, root.Remove(store, "sub", nil))
}

func TestRemoveRefusesCurrentDirectory(t *testing.T) {
	store, fm, root := newStoreAndRoot(t)
	defer root.Close()

	childSector, _ := fm.Allocate(1)
	require.NoError(t, directory.Create(store, childSector, root.Inode().Sector(), 4))
	require.NoError(t, root.Add("sub", childSector))

	isCurrentDir := func(sector uint32) bool { return sector == childSector }
	require.Error(t, root.Remove(store, "sub", isCurrentDir))
}

func TestIsRootAndParent(t *testing.T) {
	store, _, root := newStoreAndRoot(t)
	defer root.Close()
	require.True(t, root.IsRoot())

	parentIn, err := root.Parent(store)
	require.NoError(t, err)
	defer parentIn.Close()
	require.Equal(t, root.Inode().Sector(), parentIn.Sector())
}

func TestList(t *testing.T) {
	store, fm, root := newStoreAndRoot(t)
	defer root.Close()

	for _, name := range []string{"a", "b", "c"} {
		s, _ := fm.Allocate(1)
		require.NoError(t, store.Create(s, 0, false, root.Inode().Sector()))
		require.NoError(t, root.Add(name, s))
	}

	names, err := root.List()
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b", "c"}, names)
}
