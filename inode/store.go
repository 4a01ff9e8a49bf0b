// Package inode implements the on-disk inode record, the process-wide
// in-memory open-inode cache, block-pointer translation and growth, and
// byte-range read/write over a device.Device. It is the largest single
// component of the file store.
package inode

import (
	"fmt"
	"sync"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/fserrors"
)

// Store is the process-wide open-inode cache plus the device/allocator it
// reads and writes through. At most one *Inode exists per sector at any
// instant; opening an already-open sector bumps its open count instead of
// allocating a second in-memory object.
type Store struct {
	dev   device.Device
	alloc Allocator

	mu    sync.Mutex
	cache map[uint32]*Inode
}

// NewStore builds an inode store over dev, allocating growth/removal
// sectors through alloc (ordinarily a *freemap.FreeMap).
func NewStore(dev device.Device, alloc Allocator) *Store {
	return &Store{
		dev:   dev,
		alloc: alloc,
		cache: make(map[uint32]*Inode),
	}
}

// Create formats a new on-disk inode at sector: length is clamped to
// MaxFileSize, data blocks needed to reach it are allocated and zeroed, and
// the record is written out. On any allocation failure, every sector
// obtained during this call is released and an error is returned — sector
// itself is the caller's responsibility (it must already be reserved in
// the free-map; Create only writes into it).
func (s *Store) Create(sector uint32, length uint32, isDir bool, parent uint32) error {
	if length > MaxFileSize {
		length = MaxFileSize
	}
	rec := &record{
		magic:  Magic,
		isDir:  isDir,
		parent: parent,
	}

	g := &grower{dev: s.dev, alloc: s.alloc}
	newLen, err := g.growTo(rec, length)
	if err != nil {
		g.rollback()
		return fmt.Errorf("inode: create sector %d: %w", sector, err)
	}
	rec.length = newLen

	if err := s.dev.WriteSector(sector, rec.encode()); err != nil {
		g.rollback()
		return fmt.Errorf("inode: create sector %d: write record: %w", sector, err)
	}
	return nil
}

// Open returns the in-memory inode for sector, bumping its open count if
// already cached, otherwise reading the on-disk record and inserting it.
func (s *Store) Open(sector uint32) (*Inode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if in, ok := s.cache[sector]; ok {
		in.openCount++
		return in, nil
	}

	buf := make([]byte, device.SectorSize)
	if err := s.dev.ReadSector(sector, buf); err != nil {
		return nil, fmt.Errorf("inode: open sector %d: %w", sector, err)
	}
	rec := decodeRecord(buf)
	if rec.magic != Magic {
		return nil, fmt.Errorf("inode: open sector %d: %w", sector, fserrors.ErrIoCorrupt)
	}

	in := &Inode{
		store:     s,
		sector:    sector,
		openCount: 1,
		rec:       *rec,
	}
	s.cache[sector] = in
	return in, nil
}

// closeLocked is invoked by Inode.Close; it decrements the open count and,
// on reaching zero, evicts the cache entry, releasing data/inode sectors
// first if the inode had been marked removed.
func (s *Store) closeLocked(in *Inode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	in.openCount--
	if in.openCount > 0 {
		return nil
	}
	delete(s.cache, in.sector)

	if !in.removed {
		return nil
	}
	releaseDataSectors(s.alloc, &in.rec, s.dev)
	s.alloc.Release(in.sector, 1)
	return nil
}
