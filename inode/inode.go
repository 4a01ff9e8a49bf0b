package inode

import (
	"fmt"

	"github.com/inodefs/inodefs/device"
)

// Inode is the in-memory open-inode object: sector, open/deny-write
// counts, removed flag, and a cached copy of the on-disk record. At most
// one Inode exists per sector at any instant — see Store.
type Inode struct {
	store     *Store
	sector    uint32
	openCount int
	removed   bool
	denyWrite int
	rec       record
}

// Sector returns the inode's own on-disk sector number.
func (in *Inode) Sector() uint32 { return in.sector }

// Length returns the current file size in bytes.
func (in *Inode) Length() uint32 { return in.rec.length }

// IsDir reports whether this inode represents a directory.
func (in *Inode) IsDir() bool { return in.rec.isDir }

// Parent returns the sector of the parent directory's inode; the root's
// parent is itself.
func (in *Inode) Parent() uint32 { return in.rec.parent }

// OpenCount reports the number of live handles onto this inode.
func (in *Inode) OpenCount() int { return in.openCount }

// Reopen bumps the open count and returns in, so that the returned
// reference can be handed to a second owner (e.g. a second file handle).
func (in *Inode) Reopen() *Inode {
	in.store.mu.Lock()
	in.openCount++
	in.store.mu.Unlock()
	return in
}

// Close decrements the open count; at zero it is evicted from the cache,
// releasing its blocks first if Remove had been called.
func (in *Inode) Close() error {
	return in.store.closeLocked(in)
}

// Remove marks the inode for deletion. This is pure bookkeeping: disk
// changes happen only when the last open handle closes.
func (in *Inode) Remove() {
	in.store.mu.Lock()
	in.removed = true
	in.store.mu.Unlock()
}

// Removed reports whether Remove has been called on this inode.
func (in *Inode) Removed() bool {
	in.store.mu.Lock()
	defer in.store.mu.Unlock()
	return in.removed
}

// DenyWrite increments the deny-write counter; while it is above zero,
// WriteAt returns 0 immediately. Invariant: deny count never exceeds open
// count.
func (in *Inode) DenyWrite() {
	in.denyWrite++
	if in.denyWrite > in.openCount {
		panic("inode: deny_write_cnt exceeds open_cnt")
	}
}

// AllowWrite decrements the deny-write counter. Must be balanced by a
// prior DenyWrite.
func (in *Inode) AllowWrite() {
	if in.denyWrite <= 0 {
		panic("inode: allow_write with no matching deny_write")
	}
	in.denyWrite--
}

// persist writes the cached record back out to its own sector.
func (in *Inode) persist() error {
	if err := in.store.dev.WriteSector(in.sector, in.rec.encode()); err != nil {
		return fmt.Errorf("inode: persist sector %d: %w", in.sector, err)
	}
	return nil
}

// ReadAt reads len(buf) bytes (or fewer, at end of file) starting at
// offset off, returning the number of bytes actually read.
func (in *Inode) ReadAt(buf []byte, off uint32) (int, error) {
	size := uint32(len(buf))
	var read uint32
	scratch := make([]byte, device.SectorSize)

	for size > 0 {
		if off >= in.rec.length {
			break
		}
		sectorIdx, err := xlate(in.store.dev, &in.rec, off)
		if err != nil {
			return int(read), err
		}
		sectorOfs := off % device.SectorSize
		inodeLeft := in.rec.length - off
		sectorLeft := device.SectorSize - sectorOfs
		minLeft := inodeLeft
		if sectorLeft < minLeft {
			minLeft = sectorLeft
		}
		chunk := size
		if minLeft < chunk {
			chunk = minLeft
		}
		if chunk == 0 {
			break
		}

		if sectorOfs == 0 && chunk == device.SectorSize {
			if err := in.store.dev.ReadSector(sectorIdx, buf[read:read+chunk]); err != nil {
				return int(read), fmt.Errorf("inode: read sector %d: %w", sectorIdx, err)
			}
		} else {
			if err := in.store.dev.ReadSector(sectorIdx, scratch); err != nil {
				return int(read), fmt.Errorf("inode: read sector %d: %w", sectorIdx, err)
			}
			copy(buf[read:read+chunk], scratch[sectorOfs:sectorOfs+chunk])
		}

		size -= chunk
		off += chunk
		read += chunk
	}
	return int(read), nil
}

// WriteAt writes len(buf) bytes starting at offset off, growing the file
// first if the write would extend past the current length. Returns the
// number of bytes actually written; 0 while deny-write is in effect.
func (in *Inode) WriteAt(buf []byte, off uint32) (int, error) {
	if in.denyWrite > 0 {
		return 0, nil
	}

	size := uint32(len(buf))
	if off+size > in.rec.length {
		grown := in.rec
		g := &grower{dev: in.store.dev, alloc: in.store.alloc}
		newLen, err := g.growTo(&grown, off+size)
		if err != nil {
			g.rollback()
			return 0, err
		}
		grown.length = newLen
		old := in.rec
		in.rec = grown
		if err := in.persist(); err != nil {
			in.rec = old
			g.rollback()
			return 0, err
		}
		if off >= newLen {
			size = 0
		} else if off+size > newLen {
			size = newLen - off
		}
	}

	var written uint32
	scratch := make([]byte, device.SectorSize)
	for size > 0 {
		sectorIdx, err := xlate(in.store.dev, &in.rec, off)
		if err != nil {
			return int(written), err
		}
		sectorOfs := off % device.SectorSize
		inodeLeft := in.rec.length - off
		sectorLeft := device.SectorSize - sectorOfs
		minLeft := inodeLeft
		if sectorLeft < minLeft {
			minLeft = sectorLeft
		}
		chunk := size
		if minLeft < chunk {
			chunk = minLeft
		}
		if chunk == 0 {
			break
		}

		if sectorOfs == 0 && chunk == device.SectorSize {
			if err := in.store.dev.WriteSector(sectorIdx, buf[written:written+chunk]); err != nil {
				return int(written), fmt.Errorf("inode: write sector %d: %w", sectorIdx, err)
			}
		} else {
			if err := in.store.dev.ReadSector(sectorIdx, scratch); err != nil {
				return int(written), fmt.Errorf("inode: write sector %d: %w", sectorIdx, err)
			}
			copy(scratch[sectorOfs:sectorOfs+chunk], buf[written:written+chunk])
			if err := in.store.dev.WriteSector(sectorIdx, scratch); err != nil {
				return int(written), fmt.Errorf("inode: write sector %d: %w", sectorIdx, err)
			}
		}

		size -= chunk
		off += chunk
		written += chunk
	}
	return int(written), nil
}
