package file_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/device/file"
)

func TestCreateOpenReadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")

	dev, err := file.Create(path, 4*device.SectorSize)
	require.NoError(t, err)
	require.Equal(t, uint32(4), dev.SectorCount())

	buf := make([]byte, device.SectorSize)
	for i := range buf {
		buf[i] = 0xAB
	}
	require.NoError(t, dev.WriteSector(2, buf))

	reopened, err := file.Open(path, true)
	require.NoError(t, err)

	got := make([]byte, device.SectorSize)
	require.NoError(t, reopened.ReadSector(2, got))
	require.Equal(t, buf, got)
}

func TestCreateRejectsBadSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	_, err := file.Create(path, device.SectorSize+1)
	require.Error(t, err)
}

func TestCreateRefusesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	_, err := file.Create(path, device.SectorSize)
	require.NoError(t, err)

	_, err = file.Create(path, device.SectorSize)
	require.Error(t, err)
}

func TestOpenMissing(t *testing.T) {
	_, err := file.Open(filepath.Join(t.TempDir(), "missing.bin"), true)
	require.Error(t, err)
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := file.Create(path, device.SectorSize)
	require.NoError(t, err)
	buf := make([]byte, device.SectorSize)
	require.NoError(t, dev.WriteSector(0, buf))

	ro, err := file.Open(path, true)
	require.NoError(t, err)
	require.Error(t, ro.WriteSector(0, buf))
}

func TestOutOfRangeAndBadBuffer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.bin")
	dev, err := file.Create(path, device.SectorSize)
	require.NoError(t, err)

	require.ErrorIs(t, dev.ReadSector(1, make([]byte, device.SectorSize)), device.ErrOutOfRange)
	require.ErrorIs(t, dev.WriteSector(0, make([]byte, 10)), device.ErrBadBuffer)
}
