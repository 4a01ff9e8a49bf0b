// Package file implements device.Device over a plain OS file or block
// special file.
package file

import (
	"errors"
	"fmt"
	"os"

	"github.com/inodefs/inodefs/device"
)

type backend struct {
	f           *os.File
	readOnly    bool
	sectorCount uint32
}

// Open opens an existing image file or block device at pathName. The file
// must already exist and its size must be an exact multiple of
// device.SectorSize.
func Open(pathName string, readOnly bool) (device.Device, error) {
	if pathName == "" {
		return nil, errors.New("file: must pass a device or image path")
	}
	info, err := os.Stat(pathName)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s does not exist", pathName)
	}
	if err != nil {
		return nil, err
	}

	mode := os.O_RDONLY
	if !readOnly {
		mode = os.O_RDWR
	}
	f, err := os.OpenFile(pathName, mode, 0o600)
	if err != nil {
		return nil, fmt.Errorf("file: could not open %s: %w", pathName, err)
	}

	return newBackend(f, info.Size(), readOnly)
}

// Create creates a new image file of the given size (in bytes, a multiple
// of device.SectorSize) at pathName. The file must not already exist.
func Create(pathName string, size int64) (device.Device, error) {
	if pathName == "" {
		return nil, errors.New("file: must pass a device or image path")
	}
	if size <= 0 || size%device.SectorSize != 0 {
		return nil, fmt.Errorf("file: size %d is not a positive multiple of sector size %d", size, device.SectorSize)
	}
	f, err := os.OpenFile(pathName, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o666)
	if err != nil {
		return nil, fmt.Errorf("file: could not create %s: %w", pathName, err)
	}
	if err := f.Truncate(size); err != nil {
		return nil, fmt.Errorf("file: could not size %s to %d bytes: %w", pathName, size, err)
	}

	return newBackend(f, size, false)
}

func newBackend(f *os.File, size int64, readOnly bool) (device.Device, error) {
	if size%device.SectorSize != 0 {
		return nil, fmt.Errorf("file: size %d is not a multiple of sector size %d", size, device.SectorSize)
	}
	return &backend{
		f:           f,
		readOnly:    readOnly,
		sectorCount: uint32(size / device.SectorSize),
	}, nil
}

// Sys exposes the underlying *os.File, e.g. for device/blockdev ioctls.
func (b *backend) Sys() *os.File {
	return b.f
}

func (b *backend) SectorCount() uint32 {
	return b.sectorCount
}

func (b *backend) ReadSector(sector uint32, buf []byte) error {
	if len(buf) != device.SectorSize {
		return device.ErrBadBuffer
	}
	if sector >= b.sectorCount {
		return device.ErrOutOfRange
	}
	n, err := b.f.ReadAt(buf, int64(sector)*device.SectorSize)
	if err != nil {
		return fmt.Errorf("file: read sector %d: %w", sector, err)
	}
	if n != device.SectorSize {
		return fmt.Errorf("file: short read of sector %d: got %d bytes", sector, n)
	}
	return nil
}

func (b *backend) WriteSector(sector uint32, buf []byte) error {
	if len(buf) != device.SectorSize {
		return device.ErrBadBuffer
	}
	if sector >= b.sectorCount {
		return device.ErrOutOfRange
	}
	if b.readOnly {
		return errors.New("file: device is not open for write")
	}
	n, err := b.f.WriteAt(buf, int64(sector)*device.SectorSize)
	if err != nil {
		return fmt.Errorf("file: write sector %d: %w", sector, err)
	}
	if n != device.SectorSize {
		return fmt.Errorf("file: short write of sector %d: wrote %d bytes", sector, n)
	}
	return nil
}

// Close closes the underlying file.
func (b *backend) Close() error {
	return b.f.Close()
}
