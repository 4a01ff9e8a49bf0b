// Package freemap implements the persistent bitmap of allocated sectors.
// The bitmap itself lives in memory as a util/bitmap.Bitmap; its durable
// copy is the file contents of a reserved inode, which makes this package
// depend concretely on the inode package (and, by implementing
// inode.Allocator, close the loop the other way without an import cycle —
// see inode/allocator.go).
package freemap

import (
	"fmt"
	"sync"

	"github.com/inodefs/inodefs/fserrors"
	"github.com/inodefs/inodefs/inode"
	"github.com/inodefs/inodefs/util/bitmap"
)

// FreeMap is a bitmap with one bit per device sector: 1 means allocated.
type FreeMap struct {
	mu    sync.Mutex
	bm    *bitmap.Bitmap
	store *inode.Store
	in    *inode.Inode
}

// New constructs an in-memory free-map able to address sectorCount sectors,
// all initially clear (free). Bits past sectorCount, present only because
// the bitmap is byte-packed, are marked allocated so Allocate never hands
// out a sector the device lacks. It is not yet backed by a persisted inode —
// call Format (at format time) or Open (at mount time) for that.
func New(sectorCount uint32) *FreeMap {
	bm := bitmap.New(int(sectorCount))
	for i := int(sectorCount); i < bm.Len(); i++ {
		_ = bm.Set(i)
	}
	return &FreeMap{bm: bm}
}

// MarkReserved marks sectors allocated directly in memory, bypassing
// Allocate. This is how the format-time bootstrap keeps the boot sector,
// the free-map's own inode sector, and the root directory's inode sector
// permanently unavailable before the free-map's own on-disk inode exists
// to allocate through.
func (fm *FreeMap) MarkReserved(sectors ...uint32) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	for _, s := range sectors {
		_ = fm.bm.Set(int(s))
	}
}

// Allocate finds n contiguous free sectors, marks them used, and reports
// the first one; it implements inode.Allocator. The scan is first-fit by
// ascending sector index.
func (fm *FreeMap) Allocate(n int) (first uint32, ok bool) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	loc := fm.bm.FirstFreeRun(n)
	if loc < 0 {
		return 0, false
	}
	_ = fm.bm.SetRange(loc, n)
	return uint32(loc), true
}

// Release frees n sectors starting at first; it implements inode.Allocator.
// Panics on double-free.
func (fm *FreeMap) Release(first uint32, n int) {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	for i := 0; i < n; i++ {
		set, err := fm.bm.IsSet(int(first) + i)
		if err != nil {
			panic(fmt.Sprintf("freemap: release out of range: %v", err))
		}
		if !set {
			panic(fmt.Sprintf("freemap: double free of sector %d", int(first)+i))
		}
	}
	_ = fm.bm.ClearRange(int(first), n)
}

// IsAllocated reports whether sector is currently marked used.
func (fm *FreeMap) IsAllocated(sector uint32) bool {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	set, err := fm.bm.IsSet(int(sector))
	return err == nil && set
}

// FreeCount returns the number of currently-free sectors.
func (fm *FreeMap) FreeCount() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	free := 0
	for i := 0; i < fm.bm.Len(); i++ {
		if set, _ := fm.bm.IsSet(i); !set {
			free++
		}
	}
	return free
}

// Len returns the number of bits in the free-map: the sector count rounded
// up to a multiple of 8.
func (fm *FreeMap) Len() int {
	return fm.bm.Len()
}

// Format creates the free-map's own on-disk inode at sector (which must
// already be reserved, see MarkReserved) and persists the current
// in-memory bitmap — including whatever reservations were already marked
// — through it.
func (fm *FreeMap) Format(store *inode.Store, sector uint32) error {
	bitmapBytes := fm.bm.Bytes()
	if err := store.Create(sector, uint32(len(bitmapBytes)), false, sector); err != nil {
		return fmt.Errorf("freemap: format: %w", err)
	}
	in, err := store.Open(sector)
	if err != nil {
		return fmt.Errorf("freemap: format: %w", err)
	}
	fm.store = store
	fm.in = in
	return fm.flush()
}

// Open opens the reserved free-map inode at sector (mount path) and reads
// the persisted bitmap into memory, replacing whatever was there.
func (fm *FreeMap) Open(store *inode.Store, sector uint32) error {
	in, err := store.Open(sector)
	if err != nil {
		return fmt.Errorf("freemap: open: %w", err)
	}
	buf := make([]byte, (fm.bm.Len()+7)/8)
	n, err := in.ReadAt(buf, 0)
	if err != nil {
		return fmt.Errorf("freemap: open: %w", err)
	}
	if n != len(buf) {
		return fmt.Errorf("freemap: open: %w: short read of persisted bitmap", fserrors.ErrIoCorrupt)
	}
	fm.store = store
	fm.in = in
	fm.bm = bitmap.NewFromBytes(buf)
	return nil
}

// Close writes the in-memory bitmap back out through the free-map inode
// and closes it — the shutdown-time flush required to make allocations
// durable.
func (fm *FreeMap) Close() error {
	if fm.in == nil {
		return nil
	}
	if err := fm.flush(); err != nil {
		return err
	}
	return fm.in.Close()
}

func (fm *FreeMap) flush() error {
	fm.mu.Lock()
	b := fm.bm.Bytes()
	fm.mu.Unlock()
	n, err := fm.in.WriteAt(b, 0)
	if err != nil {
		return fmt.Errorf("freemap: flush: %w", err)
	}
	if n != len(b) {
		return fmt.Errorf("freemap: flush: short write of %d/%d bytes", n, len(b))
	}
	return nil
}
