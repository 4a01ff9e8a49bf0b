package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/filesys"
)

var rmCmd = &cobra.Command{
	Use:   "rm path",
	Short: "Remove a directory entry",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := args[0]
		return withMount(func(fs *filesys.FS) error {
			if err := fs.Remove(nil, p); err != nil {
				return fmt.Errorf("rm %q: %w", p, err)
			}
			return nil
		})
	},
}
