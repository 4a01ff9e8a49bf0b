package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/filesys"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List a directory's entries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := "/"
		if len(args) == 1 {
			p = args[0]
		}
		return withMount(func(fs *filesys.FS) error {
			dir, err := fs.OpenDir(nil, p)
			if err != nil {
				return fmt.Errorf("ls %q: %w", p, err)
			}
			defer dir.Close()

			names, err := dir.List()
			if err != nil {
				return fmt.Errorf("ls %q: %w", p, err)
			}
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		})
	},
}
