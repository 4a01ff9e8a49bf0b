package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/device/blockdev"
	"github.com/inodefs/inodefs/device/file"
	"github.com/inodefs/inodefs/filesys"
)

var formatSize int64

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Create a new volume image and lay down a fresh free-map and root directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := file.Create(imagePath, formatSize)
		if err != nil {
			return fmt.Errorf("create image: %w", err)
		}
		defer closeDevice(dev)

		fs, err := filesys.Init(dev, true, log)
		if err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if err := fs.Done(); err != nil {
			return err
		}

		if sys, ok := dev.(interface{ Sys() *os.File }); ok {
			if err := blockdev.ReReadPartitionTable(sys.Sys()); err != nil {
				return fmt.Errorf("format: %w", err)
			}
		}
		return nil
	},
}

func init() {
	formatCmd.Flags().Int64Var(&formatSize, "size", 16*1024*1024, "image size in bytes")
}
