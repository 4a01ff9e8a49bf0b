package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/filesys"
)

var touchSize uint32

var touchCmd = &cobra.Command{
	Use:   "touch path",
	Short: "Create a new, empty (or pre-sized) file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := args[0]
		return withMount(func(fs *filesys.FS) error {
			if err := fs.Create(nil, p, touchSize); err != nil {
				return fmt.Errorf("touch %q: %w", p, err)
			}
			return nil
		})
	},
}

func init() {
	touchCmd.Flags().Uint32Var(&touchSize, "size", 0, "initial file size in bytes")
}
