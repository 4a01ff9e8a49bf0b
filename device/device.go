// Package device defines the sector-addressed block device façade that the
// rest of this module treats as an external collaborator: a driver that
// knows how to read and write one fixed-size sector at a time. Nothing in
// this module assumes a concrete backing (file, raw block device, or an
// in-memory fake for tests) beyond this interface.
package device

import "errors"

// SectorSize is the compile-time sector size assumed throughout the file
// store. 512 bytes, matching the reference device.
const SectorSize = 512

var (
	// ErrOutOfRange is returned when a sector index falls outside the device.
	ErrOutOfRange = errors.New("device: sector out of range")
	// ErrBadBuffer is returned when a caller supplies a buffer that is not
	// exactly one sector long.
	ErrBadBuffer = errors.New("device: buffer must be exactly one sector")
)

// Device is the uniform sector read/write surface every higher layer
// (free-map, inode store, ...) is built on. Sector 0 is conventionally
// reserved by callers of this package, not by the device itself.
type Device interface {
	// ReadSector reads exactly one sector into buf.
	ReadSector(sector uint32, buf []byte) error
	// WriteSector writes exactly one sector from buf.
	WriteSector(sector uint32, buf []byte) error
	// SectorCount returns the total number of addressable sectors.
	SectorCount() uint32
}
