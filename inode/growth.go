package inode

import (
	"fmt"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/fserrors"
)

// grower drives one call to growTo: it allocates data and index sectors as
// needed to reach a target length, caching whichever indirect blocks it
// touches so a run of consecutive sector indices only costs one read and
// one write of each index block. If any allocation along the way fails,
// rollback releases every sector this grower obtained. growTo writes new
// block pointers into the rec it is given as it goes, so callers growing a
// live inode hand it a copy of the record and install that copy only after
// growTo and the record writeback both succeed.
type grower struct {
	dev   device.Device
	alloc Allocator

	allocated []uint32 // sectors obtained this call, for rollback

	single      *[PtrsPerBlock]uint32
	singleDirty bool

	doubleOuter      *[PtrsPerBlock]uint32
	doubleOuterDirty bool
	doubleInner      *[PtrsPerBlock]uint32
	doubleInnerIdx   uint32
	doubleInnerDirty bool
}

// growTo allocates whatever data blocks are needed to extend rec from its
// current length to targetLen (clamped to MaxFileSize), advancing through
// the direct, single-indirect, then double-indirect regions. It does not
// mutate rec.length itself; callers commit that only after growTo and any
// record-writeback succeed.
func (g *grower) growTo(rec *record, targetLen uint32) (uint32, error) {
	if targetLen > MaxFileSize {
		targetLen = MaxFileSize
	}
	curSectors := bytesToSectors(rec.length)
	tgtSectors := bytesToSectors(targetLen)

	for idx := curSectors; idx < tgtSectors; idx++ {
		dataSector, err := g.allocSector()
		if err != nil {
			return 0, err
		}
		if err := g.setPointer(rec, idx, dataSector); err != nil {
			return 0, err
		}
	}
	if err := g.flush(rec); err != nil {
		return 0, err
	}
	return targetLen, nil
}

func (g *grower) allocSector() (uint32, error) {
	first, ok := g.alloc.Allocate(1)
	if !ok {
		return 0, fmt.Errorf("inode: grow: %w", fserrors.ErrNoSpace)
	}
	if err := g.dev.WriteSector(first, make([]byte, device.SectorSize)); err != nil {
		g.alloc.Release(first, 1)
		return 0, err
	}
	g.allocated = append(g.allocated, first)
	return first, nil
}

// rollback releases every sector obtained by this grower. Called by the
// caller when growTo (or the record writeback that follows it) fails.
func (g *grower) rollback() {
	for _, s := range g.allocated {
		g.alloc.Release(s, 1)
	}
	g.allocated = nil
}

func (g *grower) setPointer(rec *record, idx, sector uint32) error {
	switch {
	case idx < DirectCount:
		rec.direct[idx] = sector
		return nil

	case idx < DirectCount+PtrsPerBlock:
		if rec.singleIndirect == 0 {
			s, err := g.allocSector()
			if err != nil {
				return err
			}
			rec.singleIndirect = s
			g.single = &[PtrsPerBlock]uint32{}
		} else if g.single == nil {
			buf := make([]byte, device.SectorSize)
			if err := g.dev.ReadSector(rec.singleIndirect, buf); err != nil {
				return err
			}
			arr := decodePointerBlock(buf)
			g.single = &arr
		}
		g.single[idx-DirectCount] = sector
		g.singleDirty = true
		return nil

	default:
		i0 := idx - DirectCount - PtrsPerBlock
		i1 := i0 / PtrsPerBlock
		i2 := i0 % PtrsPerBlock

		if rec.doubleIndirect == 0 {
			s, err := g.allocSector()
			if err != nil {
				return err
			}
			rec.doubleIndirect = s
			g.doubleOuter = &[PtrsPerBlock]uint32{}
		} else if g.doubleOuter == nil {
			buf := make([]byte, device.SectorSize)
			if err := g.dev.ReadSector(rec.doubleIndirect, buf); err != nil {
				return err
			}
			arr := decodePointerBlock(buf)
			g.doubleOuter = &arr
		}

		if g.doubleInner == nil || g.doubleInnerIdx != i1 {
			if err := g.flushInner(); err != nil {
				return err
			}
			if g.doubleOuter[i1] == 0 {
				s, err := g.allocSector()
				if err != nil {
					return err
				}
				g.doubleOuter[i1] = s
				g.doubleOuterDirty = true
				g.doubleInner = &[PtrsPerBlock]uint32{}
			} else {
				buf := make([]byte, device.SectorSize)
				if err := g.dev.ReadSector(g.doubleOuter[i1], buf); err != nil {
					return err
				}
				arr := decodePointerBlock(buf)
				g.doubleInner = &arr
			}
			g.doubleInnerIdx = i1
		}
		g.doubleInner[i2] = sector
		g.doubleInnerDirty = true
		return nil
	}
}

func (g *grower) flushInner() error {
	if g.doubleInner == nil || !g.doubleInnerDirty {
		return nil
	}
	if err := g.dev.WriteSector(g.doubleOuter[g.doubleInnerIdx], encodePointerBlock(*g.doubleInner)); err != nil {
		return err
	}
	g.doubleInnerDirty = false
	return nil
}

func (g *grower) flush(rec *record) error {
	if g.singleDirty {
		if err := g.dev.WriteSector(rec.singleIndirect, encodePointerBlock(*g.single)); err != nil {
			return err
		}
		g.singleDirty = false
	}
	if err := g.flushInner(); err != nil {
		return err
	}
	if g.doubleOuterDirty {
		if err := g.dev.WriteSector(rec.doubleIndirect, encodePointerBlock(*g.doubleOuter)); err != nil {
			return err
		}
		g.doubleOuterDirty = false
	}
	return nil
}

// releaseDataSectors releases every data sector and index block reachable
// from rec up to its current length — the counterpart to grower, run once
// at the final close of a removed inode.
func releaseDataSectors(alloc Allocator, rec *record, dev device.Device) {
	total := bytesToSectors(rec.length)

	directN := total
	if directN > DirectCount {
		directN = DirectCount
	}
	for i := uint32(0); i < directN; i++ {
		if rec.direct[i] != 0 {
			alloc.Release(rec.direct[i], 1)
		}
	}
	remaining := total - directN
	if remaining == 0 {
		return
	}

	singleN := remaining
	if singleN > PtrsPerBlock {
		singleN = PtrsPerBlock
	}
	if rec.singleIndirect != 0 {
		buf := make([]byte, device.SectorSize)
		if err := dev.ReadSector(rec.singleIndirect, buf); err == nil {
			ptrs := decodePointerBlock(buf)
			for i := uint32(0); i < singleN; i++ {
				if ptrs[i] != 0 {
					alloc.Release(ptrs[i], 1)
				}
			}
		}
		alloc.Release(rec.singleIndirect, 1)
	}
	remaining -= singleN
	if remaining == 0 {
		return
	}

	if rec.doubleIndirect == 0 {
		return
	}
	outerBuf := make([]byte, device.SectorSize)
	outerErr := dev.ReadSector(rec.doubleIndirect, outerBuf)
	if outerErr == nil {
		outer := decodePointerBlock(outerBuf)
		numInner := (remaining + PtrsPerBlock - 1) / PtrsPerBlock
		for i1 := uint32(0); i1 < numInner; i1++ {
			cnt := remaining
			if cnt > PtrsPerBlock {
				cnt = PtrsPerBlock
			}
			if outer[i1] != 0 {
				innerBuf := make([]byte, device.SectorSize)
				if err := dev.ReadSector(outer[i1], innerBuf); err == nil {
					inner := decodePointerBlock(innerBuf)
					for i2 := uint32(0); i2 < cnt; i2++ {
						if inner[i2] != 0 {
							alloc.Release(inner[i2], 1)
						}
					}
				}
				alloc.Release(outer[i1], 1)
			}
			remaining -= cnt
		}
	}
	alloc.Release(rec.doubleIndirect, 1)
}
