//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

// Package blockdev re-reads the kernel's partition/geometry view of a real
// block special file after this module has formatted it.
package blockdev

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const blkrrpart = 0x125f

// ReReadPartitionTable issues BLKRRPART on f if and only if f is backed by
// an actual block device; it is a silent no-op for a plain image file,
// since there is nothing for the kernel to re-scan.
func ReReadPartitionTable(f *os.File) error {
	info, err := f.Stat()
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeDevice == 0 {
		return nil
	}
	if _, err := unix.IoctlGetInt(int(f.Fd()), blkrrpart); err != nil {
		return fmt.Errorf("blockdev: kernel still has the old partition table: %w", err)
	}
	return nil
}
