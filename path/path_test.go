package path_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodefs/inodefs/devicetest"
	"github.com/inodefs/inodefs/directory"
	"github.com/inodefs/inodefs/freemap"
	"github.com/inodefs/inodefs/inode"
	"github.com/inodefs/inodefs/path"
)

type fixture struct {
	store *inode.Store
	fm    *freemap.FreeMap
	root  *directory.Dir
	sub   *directory.Dir
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dev := devicetest.New(2000)
	fm := freemap.New(2000)
	fm.MarkReserved(0, 1, 2)
	store := inode.NewStore(dev, fm)
	require.NoError(t, fm.Format(store, 1))
	require.NoError(t, directory.Create(store, 2, 2, 8))
	root, err := directory.OpenRoot(store, 2)
	require.NoError(t, err)

	subSector, ok := fm.Allocate(1)
	require.True(t, ok)
	require.NoError(t, directory.Create(store, subSector, 2, 8))
	require.NoError(t, root.Add("sub", subSector))

	fileSector, ok := fm.Allocate(1)
	require.True(t, ok)
	require.NoError(t, store.Create(fileSector, 0, false, 2))
	require.NoError(t, root.Add("top.txt", fileSector))

	sub, err := directory.OpenRoot(store, subSector)
	require.NoError(t, err)

	nestedFile, ok := fm.Allocate(1)
	require.True(t, ok)
	require.NoError(t, store.Create(nestedFile, 0, false, subSector))
	require.NoError(t, sub.Add("nested.txt", nestedFile))

	return &fixture{store: store, fm: fm, root: root, sub: sub}
}

func TestResolveAbsolute(t *testing.T) {
	f := newFixture(t)
	defer f.root.Close()
	defer f.sub.Close()

	dir, name, err := path.Resolve(f.store, f.root, f.sub, "/sub/nested.txt")
	require.NoError(t, err)
	defer dir.Close()
	require.Equal(t, "nested.txt", name)
}

func TestResolveRelative(t *testing.T) {
	f := newFixture(t)
	defer f.root.Close()
	defer f.sub.Close()

	dir, name, err := path.Resolve(f.store, f.root, f.sub, "nested.txt")
	require.NoError(t, err)
	defer dir.Close()
	require.Equal(t, "nested.txt", name)
}

func TestResolveDotDot(t *testing.T) {
	f := newFixture(t)
	defer f.root.Close()
	defer f.sub.Close()

	dir, name, err := path.Resolve(f.store, f.root, f.sub, "../top.txt")
	require.NoError(t, err)
	defer dir.Close()
	require.Equal(t, "top.txt", name)
}

func TestResolveMissingComponentFails(t *testing.T) {
	f := newFixture(t)
	defer f.root.Close()
	defer f.sub.Close()

	_, _, err := path.Resolve(f.store, f.root, f.sub, "/nope/foo.txt")
	require.Error(t, err)
}

func TestChangeDirIntoSubAndBack(t *testing.T) {
	f := newFixture(t)
	defer f.root.Close()
	defer f.sub.Close()

	newDir, err := path.ChangeDir(f.store, f.root, f.root, "sub")
	require.NoError(t, err)
	defer newDir.Close()

	back, err := path.ChangeDir(f.store, f.root, newDir, "..")
	require.NoError(t, err)
	defer back.Close()
	require.True(t, back.IsRoot())
}

func TestChangeDirIntoFileFails(t *testing.T) {
	f := newFixture(t)
	defer f.root.Close()
	defer f.sub.Close()

	_, err := path.ChangeDir(f.store, f.root, f.root, "top.txt")
	require.Error(t, err)
}
