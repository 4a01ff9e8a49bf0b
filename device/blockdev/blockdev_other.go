//go:build !(aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris)

package blockdev

import "os"

// ReReadPartitionTable is a no-op on platforms with no BLKRRPART-style ioctl.
func ReReadPartitionTable(_ *os.File) error {
	return nil
}
