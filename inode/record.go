package inode

import (
	"encoding/binary"

	"github.com/inodefs/inodefs/device"
)

const (
	// Magic identifies a valid inode record; read-time mismatch is
	// fserrors.ErrIoCorrupt.
	Magic uint32 = 0x494E4F44

	// DirectCount is the number of direct block pointers held in the
	// inode record itself.
	DirectCount = 10
	// PtrsPerBlock is how many sector pointers fit in one indirect block:
	// one sector (512 bytes) of 4-byte pointers. This is the only value
	// consistent with an indirect block occupying exactly one sector.
	PtrsPerBlock = device.SectorSize / 4

	// MaxFileSize is the 8 MiB file length cap, independent of the
	// slightly larger addressable capacity of DirectCount + PtrsPerBlock +
	// PtrsPerBlock*PtrsPerBlock sectors.
	MaxFileSize = 8 * 1024 * 1024

	// The rec*Off constants are byte offsets within the record's encoded
	// form.
	recMagicOff   = 0
	recLengthOff  = 4
	recIsDirOff   = 8
	recParentOff  = 9
	recDirectOff  = 13
	recSingleOff  = recDirectOff + DirectCount*4
	recDoubleOff  = recSingleOff + 4
	recEncodedLen = recDoubleOff + 4
)

// record is the on-disk inode record, exactly one sector in size once
// encoded (the remainder is zero padding).
type record struct {
	magic          uint32
	length         uint32
	isDir          bool
	parent         uint32
	direct         [DirectCount]uint32
	singleIndirect uint32
	doubleIndirect uint32
}

func (r *record) encode() []byte {
	buf := make([]byte, device.SectorSize)
	binary.LittleEndian.PutUint32(buf[recMagicOff:], r.magic)
	binary.LittleEndian.PutUint32(buf[recLengthOff:], r.length)
	if r.isDir {
		buf[recIsDirOff] = 1
	}
	binary.LittleEndian.PutUint32(buf[recParentOff:], r.parent)
	for i, p := range r.direct {
		binary.LittleEndian.PutUint32(buf[recDirectOff+4*i:], p)
	}
	binary.LittleEndian.PutUint32(buf[recSingleOff:], r.singleIndirect)
	binary.LittleEndian.PutUint32(buf[recDoubleOff:], r.doubleIndirect)
	return buf
}

func decodeRecord(buf []byte) *record {
	r := &record{}
	r.magic = binary.LittleEndian.Uint32(buf[recMagicOff:])
	r.length = binary.LittleEndian.Uint32(buf[recLengthOff:])
	r.isDir = buf[recIsDirOff] != 0
	r.parent = binary.LittleEndian.Uint32(buf[recParentOff:])
	for i := range r.direct {
		r.direct[i] = binary.LittleEndian.Uint32(buf[recDirectOff+4*i:])
	}
	r.singleIndirect = binary.LittleEndian.Uint32(buf[recSingleOff:])
	r.doubleIndirect = binary.LittleEndian.Uint32(buf[recDoubleOff:])
	return r
}

// decodePointerBlock interprets a whole sector as PtrsPerBlock uint32
// sector pointers, the shape of both single- and double-indirect blocks.
func decodePointerBlock(buf []byte) [PtrsPerBlock]uint32 {
	var ptrs [PtrsPerBlock]uint32
	for i := range ptrs {
		ptrs[i] = binary.LittleEndian.Uint32(buf[4*i:])
	}
	return ptrs
}

func encodePointerBlock(ptrs [PtrsPerBlock]uint32) []byte {
	buf := make([]byte, device.SectorSize)
	for i, p := range ptrs {
		binary.LittleEndian.PutUint32(buf[4*i:], p)
	}
	return buf
}

func bytesToSectors(n uint32) uint32 {
	return (n + device.SectorSize - 1) / device.SectorSize
}
