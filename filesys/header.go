package filesys

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/fserrors"
)

// headerMagic marks sector 0 as a volume formatted by this file store.
const headerMagic = 0x494E4653 // "INFS"

// writeHeader stamps a fresh volume identifier into the reserved boot
// sector at format time. It carries no data the mount path depends on —
// losing it would not break mounting — but gives every formatted volume a
// stable identity for logs and diagnostics.
func writeHeader(dev device.Device) (uuid.UUID, error) {
	id := uuid.New()
	buf := make([]byte, device.SectorSize)
	binary.LittleEndian.PutUint32(buf[0:4], headerMagic)
	copy(buf[4:20], id[:])
	if err := dev.WriteSector(0, buf); err != nil {
		return uuid.Nil, fmt.Errorf("filesys: write volume header: %w", err)
	}
	return id, nil
}

// readHeader reads the volume identifier stamped at format time, purely
// for diagnostics; a mismatched magic is reported but does not abort the
// mount since the reserved inodes at sectors 1 and 2 are the real source
// of truth.
func readHeader(dev device.Device) (uuid.UUID, error) {
	buf := make([]byte, device.SectorSize)
	if err := dev.ReadSector(0, buf); err != nil {
		return uuid.Nil, fmt.Errorf("filesys: read volume header: %w", err)
	}
	if binary.LittleEndian.Uint32(buf[0:4]) != headerMagic {
		return uuid.Nil, fmt.Errorf("filesys: read volume header: %w", fserrors.ErrIoCorrupt)
	}
	var id uuid.UUID
	copy(id[:], buf[4:20])
	return id, nil
}
