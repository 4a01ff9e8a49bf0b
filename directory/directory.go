// Package directory implements directory-entry records stored inside an
// inode's data. "." and ".." are never stored entries — they are resolved
// synthetically by the path package from a directory inode's own sector
// and its Parent() pointer.
package directory

import (
	"fmt"

	"github.com/inodefs/inodefs/fserrors"
	"github.com/inodefs/inodefs/inode"
)

// Dir is an open directory: a thin wrapper over the directory's inode.
type Dir struct {
	in *inode.Inode
}

// Create formats a new, empty directory inode at sector with room for
// capacity entries. The resulting file is zero-filled, so every slot
// starts !inUse.
func Create(store *inode.Store, sector uint32, parent uint32, capacity int) error {
	return store.Create(sector, uint32(capacity*entrySize), true, parent)
}

// Open wraps an already-open directory inode.
func Open(in *inode.Inode) *Dir {
	return &Dir{in: in}
}

// OpenRoot opens the root directory's inode.
func OpenRoot(store *inode.Store, rootSector uint32) (*Dir, error) {
	in, err := store.Open(rootSector)
	if err != nil {
		return nil, err
	}
	return &Dir{in: in}, nil
}

// Reopen bumps the underlying inode's open count and returns a fresh *Dir
// sharing it.
func (d *Dir) Reopen() *Dir {
	return &Dir{in: d.in.Reopen()}
}

// Close closes the underlying inode.
func (d *Dir) Close() error {
	return d.in.Close()
}

// Inode exposes the underlying open-inode object, e.g. for File.Open.
func (d *Dir) Inode() *inode.Inode {
	return d.in
}

// IsRoot reports whether this directory is its own parent.
func (d *Dir) IsRoot() bool {
	return d.in.Sector() == d.in.Parent()
}

// Parent opens this directory's parent directory's inode.
func (d *Dir) Parent(store *inode.Store) (*inode.Inode, error) {
	return store.Open(d.in.Parent())
}

func readEntries(in *inode.Inode) ([]entry, error) {
	n := int(in.Length()) / entrySize
	entries := make([]entry, 0, n)
	buf := make([]byte, entrySize)
	for i := 0; i < n; i++ {
		read, err := in.ReadAt(buf, uint32(i*entrySize))
		if err != nil {
			return nil, fmt.Errorf("directory: read entry %d: %w", i, err)
		}
		if read < entrySize {
			break
		}
		entries = append(entries, decodeEntry(buf))
	}
	return entries, nil
}

// List returns the names of every in-use entry, in on-disk slot order.
func (d *Dir) List() ([]string, error) {
	entries, err := readEntries(d.in)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.inUse {
			names = append(names, e.name)
		}
	}
	return names, nil
}

// Lookup finds name among this directory's in-use entries and, on a hit,
// opens the referenced inode.
func (d *Dir) Lookup(store *inode.Store, name string) (*inode.Inode, error) {
	entries, err := readEntries(d.in)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.inUse && e.name == name {
			return store.Open(e.sector)
		}
	}
	return nil, fserrors.ErrNotFound
}

// Add writes a new entry mapping name to sector, reusing a freed slot if
// one exists or extending the directory by one slot otherwise. Fails if
// name is empty, too long, or already present.
func (d *Dir) Add(name string, sector uint32) error {
	if name == "" || len(name) > NameMax {
		return fserrors.ErrInvalid
	}
	entries, err := readEntries(d.in)
	if err != nil {
		return err
	}

	slot := -1
	for i, e := range entries {
		if e.inUse && e.name == name {
			return fserrors.ErrAlreadyExists
		}
		if !e.inUse && slot == -1 {
			slot = i
		}
	}
	if slot == -1 {
		slot = len(entries)
	}

	e := entry{inUse: true, name: name, sector: sector}
	n, err := d.in.WriteAt(encodeEntry(e), uint32(slot*entrySize))
	if err != nil {
		return err
	}
	if n != entrySize {
		return fmt.Errorf("directory: add %q: short write", name)
	}
	return nil
}

// IsCurrentDirFunc reports whether sector is in use as some task's current
// working directory — Remove refuses to delete a directory still in that
// role.
type IsCurrentDirFunc func(sector uint32) bool

// Remove locates name, refuses if it names a non-empty directory or one in
// use as a current working directory, marks its slot free, and calls
// Remove on the target inode (actual block release happens at its last
// close).
func (d *Dir) Remove(store *inode.Store, name string, isCurrentDir IsCurrentDirFunc) error {
	entries, err := readEntries(d.in)
	if err != nil {
		return err
	}

	idx := -1
	var target entry
	for i, e := range entries {
		if e.inUse && e.name == name {
			idx = i
			target = e
			break
		}
	}
	if idx == -1 {
		return fserrors.ErrNotFound
	}

	targetIn, err := store.Open(target.sector)
	if err != nil {
		return err
	}

	if targetIn.IsDir() {
		empty, err := isEmpty(targetIn)
		if err != nil {
			_ = targetIn.Close()
			return err
		}
		if !empty {
			_ = targetIn.Close()
			return fserrors.ErrInvalid
		}
		if isCurrentDir != nil && isCurrentDir(target.sector) {
			_ = targetIn.Close()
			return fserrors.ErrInvalid
		}
	}

	if _, err := d.in.WriteAt(encodeEntry(entry{}), uint32(idx*entrySize)); err != nil {
		_ = targetIn.Close()
		return err
	}

	targetIn.Remove()
	return targetIn.Close()
}

func isEmpty(in *inode.Inode) (bool, error) {
	entries, err := readEntries(in)
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if e.inUse {
			return false, nil
		}
	}
	return true, nil
}
