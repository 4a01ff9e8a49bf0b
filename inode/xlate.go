package inode

import (
	"fmt"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/fserrors"
)

// xlate translates a byte offset within rec's file into the data sector
// that holds it, walking through the direct, single-indirect, or
// double-indirect region as needed. Callers must ensure off < rec.length;
// anything else is a caller bug, not a recoverable condition.
func xlate(dev device.Device, rec *record, off uint32) (uint32, error) {
	const (
		directBytes = DirectCount * device.SectorSize
		singleBytes = PtrsPerBlock * device.SectorSize
	)

	switch {
	case off < directBytes:
		return rec.direct[off/device.SectorSize], nil

	case off < directBytes+singleBytes:
		if rec.singleIndirect == 0 {
			return 0, fmt.Errorf("inode: xlate: %w", fserrors.ErrIoCorrupt)
		}
		buf := make([]byte, device.SectorSize)
		if err := dev.ReadSector(rec.singleIndirect, buf); err != nil {
			return 0, err
		}
		ptrs := decodePointerBlock(buf)
		idx := (off - directBytes) / device.SectorSize
		return ptrs[idx], nil

	default:
		if rec.doubleIndirect == 0 {
			return 0, fmt.Errorf("inode: xlate: %w", fserrors.ErrIoCorrupt)
		}
		r := off - directBytes - singleBytes
		i1 := r / singleBytes
		i2 := (r / device.SectorSize) % PtrsPerBlock

		outerBuf := make([]byte, device.SectorSize)
		if err := dev.ReadSector(rec.doubleIndirect, outerBuf); err != nil {
			return 0, err
		}
		outer := decodePointerBlock(outerBuf)
		if outer[i1] == 0 {
			return 0, fmt.Errorf("inode: xlate: %w", fserrors.ErrIoCorrupt)
		}
		innerBuf := make([]byte, device.SectorSize)
		if err := dev.ReadSector(outer[i1], innerBuf); err != nil {
			return 0, err
		}
		inner := decodePointerBlock(innerBuf)
		return inner[i2], nil
	}
}
