package main

import (
	"fmt"
	"io"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/device/file"
	"github.com/inodefs/inodefs/filesys"
)

// closeDevice closes dev's underlying descriptor if it exposes one;
// device.Device itself carries no Close method since an in-memory fake
// has nothing to close.
func closeDevice(dev device.Device) {
	if c, ok := dev.(io.Closer); ok {
		_ = c.Close()
	}
}

// withMount opens imagePath read-write, mounts it, runs fn, and always
// unmounts afterward, folding any close error into the returned error.
func withMount(fn func(fs *filesys.FS) error) error {
	dev, err := file.Open(imagePath, false)
	if err != nil {
		return fmt.Errorf("open image: %w", err)
	}
	defer closeDevice(dev)

	fs, err := filesys.Init(dev, false, log)
	if err != nil {
		return fmt.Errorf("mount: %w", err)
	}
	runErr := fn(fs)
	doneErr := fs.Done()
	if runErr != nil {
		return runErr
	}
	return doneErr
}
