// Package filesys implements the filesystem façade: mount and format, and
// the create/open/remove operations that tie the free-map, inode store,
// directory layer, and path resolver together.
package filesys

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/directory"
	"github.com/inodefs/inodefs/file"
	"github.com/inodefs/inodefs/freemap"
	"github.com/inodefs/inodefs/fserrors"
	"github.com/inodefs/inodefs/inode"
	"github.com/inodefs/inodefs/path"
)

// Reserved sector numbers: 0 is the boot sector/volume header, 1 the
// free-map's own inode, 2 the root directory's inode.
const (
	BootSector    uint32 = 0
	FreeMapSector uint32 = 1
	RootSector    uint32 = 2

	// rootEntryCapacity bounds how many entries the root directory
	// starts with room for; Dir.Add grows it by rewriting past that
	// bound just like any other directory, so this is only a floor.
	rootEntryCapacity = 16
)

// FS is a mounted file store: the free-map, the inode store/cache, and the
// open root directory, plus the device they are all laid out on.
type FS struct {
	dev   device.Device
	store *inode.Store
	fm    *freemap.FreeMap
	root  *directory.Dir
	log   *logrus.Logger

	// IsCurrentDir lets the task layer tell Remove that a directory is in
	// use as some task's current directory. A nil func means no
	// task-level protection is enforced.
	IsCurrentDir directory.IsCurrentDirFunc
}

// Init mounts dev. If format is true, it writes a new volume header and
// lays down a fresh free-map and root directory (other sectors keep their
// old bytes but are no longer referenced); otherwise it opens the
// persisted free-map and root directory, failing if either's inode magic
// does not match. Supplying a device at all is the caller's
// responsibility; a corrupt mount is reported as an error here and left
// for the caller to decide how fatal it is.
func Init(dev device.Device, format bool, log *logrus.Logger) (*FS, error) {
	if log == nil {
		log = logrus.New()
	}
	sectorCount := dev.SectorCount()
	if sectorCount <= RootSector {
		return nil, fmt.Errorf("filesys: device too small: %w", fserrors.ErrInvalid)
	}

	fm := freemap.New(uint32(sectorCount))
	fs := &FS{dev: dev, fm: fm, log: log}

	if format {
		log.Info("filesys: formatting volume")
		id, err := writeHeader(dev)
		if err != nil {
			return nil, err
		}
		log.WithField("volume_id", id).Info("filesys: wrote volume header")

		fm.MarkReserved(BootSector, FreeMapSector, RootSector)
		fs.store = inode.NewStore(dev, fm)

		if err := fm.Format(fs.store, FreeMapSector); err != nil {
			return nil, fmt.Errorf("filesys: format: %w", err)
		}
		if err := directory.Create(fs.store, RootSector, RootSector, rootEntryCapacity); err != nil {
			return nil, fmt.Errorf("filesys: format root directory: %w", err)
		}
	} else {
		fs.store = inode.NewStore(dev, fm)
		if err := fm.Open(fs.store, FreeMapSector); err != nil {
			return nil, fmt.Errorf("filesys: mount: %w", err)
		}
		if id, err := readHeader(dev); err != nil {
			log.WithError(err).Warn("filesys: unreadable volume header, continuing")
		} else {
			log.WithField("volume_id", id).Info("filesys: mounted volume")
		}
	}

	root, err := directory.OpenRoot(fs.store, RootSector)
	if err != nil {
		return nil, fmt.Errorf("filesys: open root directory: %w", err)
	}
	fs.root = root
	return fs, nil
}

// Root returns the open root directory, e.g. to seed a new task's
// current-directory slot.
func (fs *FS) Root() *directory.Dir {
	return fs.root
}

// Device exposes the underlying block device, e.g. for a diagnostic tool
// that wants to dump a raw sector without a second independent open.
func (fs *FS) Device() device.Device {
	return fs.dev
}

// Done unmounts: closes the root directory and flushes and closes the
// free-map.
func (fs *FS) Done() error {
	if err := fs.root.Close(); err != nil {
		return err
	}
	return fs.fm.Close()
}

// resolve reuses path.Resolve with this filesystem's root.
func (fs *FS) resolve(cwd *directory.Dir, p string) (*directory.Dir, string, error) {
	return path.Resolve(fs.store, fs.root, cwd, p)
}

// Create resolves path and creates a new, empty (size-preallocated) file
// there. The final path component must be non-empty and not "." or "..".
// Any sector allocated is released if dir.Add subsequently fails.
func (fs *FS) Create(cwd *directory.Dir, p string, size uint32) error {
	dir, name, err := fs.resolve(cwd, p)
	if err != nil {
		return err
	}
	defer dir.Close()

	if name == "" || name == "." || name == ".." {
		return fserrors.ErrInvalid
	}

	sector, ok := fs.fm.Allocate(1)
	if !ok {
		return fserrors.ErrNoSpace
	}
	if err := fs.store.Create(sector, size, false, dir.Inode().Sector()); err != nil {
		fs.fm.Release(sector, 1)
		return fmt.Errorf("filesys: create %q: %w", p, err)
	}

	if err := dir.Add(name, sector); err != nil {
		fs.discard(sector)
		return err
	}
	return nil
}

// discard undoes a freshly created, never-opened inode at sector: opening
// it just long enough to mark it removed and close it releases both its
// data sectors and its own sector through the normal last-close path.
func (fs *FS) discard(sector uint32) {
	in, err := fs.store.Open(sector)
	if err != nil {
		fs.log.WithError(err).WithField("sector", sector).Error("filesys: discard: reopen failed")
		return
	}
	in.Remove()
	if err := in.Close(); err != nil {
		fs.log.WithError(err).WithField("sector", sector).Error("filesys: discard: close failed")
	}
}

// Open resolves path to an inode and returns a handle over it. A final
// component of "" (bare root), ".", or ".." yields a handle over the
// corresponding directory's own inode rather than an entry lookup.
func (fs *FS) Open(cwd *directory.Dir, p string) (*file.Handle, error) {
	dir, name, err := fs.resolve(cwd, p)
	if err != nil {
		return nil, err
	}

	var target *inode.Inode
	switch name {
	case "", ".":
		target = dir.Inode().Reopen()
		err = dir.Close()
	case "..":
		var parent *inode.Inode
		parent, err = dir.Parent(fs.store)
		_ = dir.Close()
		target = parent
	default:
		var in *inode.Inode
		in, err = dir.Lookup(fs.store, name)
		_ = dir.Close()
		target = in
	}
	if err != nil {
		return nil, fmt.Errorf("filesys: open %q: %w", p, err)
	}
	return file.Open(target), nil
}

// OpenDir resolves path to a directory and opens it, failing if the final
// component names a plain file. Useful for listing (cmd/inodefsctl's ls)
// and for seeding a task's current-directory slot from an arbitrary path.
func (fs *FS) OpenDir(cwd *directory.Dir, p string) (*directory.Dir, error) {
	dir, name, err := fs.resolve(cwd, p)
	if err != nil {
		return nil, err
	}

	switch name {
	case "", ".":
		return dir, nil
	case "..":
		parent, err := dir.Parent(fs.store)
		_ = dir.Close()
		if err != nil {
			return nil, err
		}
		return directory.Open(parent), nil
	default:
		in, err := dir.Lookup(fs.store, name)
		_ = dir.Close()
		if err != nil {
			return nil, err
		}
		if !in.IsDir() {
			_ = in.Close()
			return nil, fserrors.ErrInvalid
		}
		return directory.Open(in), nil
	}
}

// Remove resolves path and removes the named directory entry. It refuses
// to remove a non-empty directory, one in use as a task's current
// directory, or the synthetic "", ".", ".." components (there is no
// directory entry for those to remove).
func (fs *FS) Remove(cwd *directory.Dir, p string) error {
	dir, name, err := fs.resolve(cwd, p)
	if err != nil {
		return err
	}
	defer dir.Close()

	if name == "" || name == "." || name == ".." {
		return fserrors.ErrInvalid
	}
	return dir.Remove(fs.store, name, fs.IsCurrentDir)
}

// ChangeDir resolves path starting from cwd (or the root if cwd is nil)
// and returns the new current directory. The caller must close its
// previous current directory once it has installed the returned one.
func (fs *FS) ChangeDir(cwd *directory.Dir, p string) (*directory.Dir, error) {
	return path.ChangeDir(fs.store, fs.root, cwd, p)
}
