package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/device"
	"github.com/inodefs/inodefs/device/file"
	"github.com/inodefs/inodefs/util/hexdump"
)

var statSector uint32

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Dump a raw sector of the volume image as hex and ASCII",
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, err := file.Open(imagePath, true)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer closeDevice(dev)

		buf := make([]byte, device.SectorSize)
		if err := dev.ReadSector(statSector, buf); err != nil {
			return fmt.Errorf("read sector %d: %w", statSector, err)
		}
		fmt.Printf("sector %d of %d\n", statSector, dev.SectorCount())
		fmt.Print(hexdump.Dump(buf, 16))
		return nil
	},
}

func init() {
	statCmd.Flags().Uint32Var(&statSector, "sector", 0, "sector number to dump")
}
