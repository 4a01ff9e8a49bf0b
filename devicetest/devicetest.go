// Package devicetest provides an in-memory device.Device fake for tests
// across this module, the same role testhelper.FileImpl plays for the
// teacher library's backend.File: a stubbable backing store with none of
// a real file's setup cost.
package devicetest

import (
	"github.com/inodefs/inodefs/device"
)

// Device is an in-memory, fixed-size device.Device.
type Device struct {
	sectors [][]byte
}

// New builds a Device of sectorCount sectors, all zero-filled.
func New(sectorCount uint32) *Device {
	sectors := make([][]byte, sectorCount)
	for i := range sectors {
		sectors[i] = make([]byte, device.SectorSize)
	}
	return &Device{sectors: sectors}
}

func (d *Device) SectorCount() uint32 {
	return uint32(len(d.sectors))
}

func (d *Device) ReadSector(sector uint32, buf []byte) error {
	if len(buf) != device.SectorSize {
		return device.ErrBadBuffer
	}
	if sector >= uint32(len(d.sectors)) {
		return device.ErrOutOfRange
	}
	copy(buf, d.sectors[sector])
	return nil
}

func (d *Device) WriteSector(sector uint32, buf []byte) error {
	if len(buf) != device.SectorSize {
		return device.ErrBadBuffer
	}
	if sector >= uint32(len(d.sectors)) {
		return device.ErrOutOfRange
	}
	copy(d.sectors[sector], buf)
	return nil
}
