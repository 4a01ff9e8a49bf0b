package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/filesys"
)

var catCmd = &cobra.Command{
	Use:   "cat path",
	Short: "Print a file's contents to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := args[0]
		return withMount(func(fs *filesys.FS) error {
			h, err := fs.Open(nil, p)
			if err != nil {
				return fmt.Errorf("cat %q: %w", p, err)
			}
			defer h.Close()

			buf := make([]byte, h.Length())
			n, err := h.Read(buf)
			if err != nil {
				return fmt.Errorf("cat %q: %w", p, err)
			}
			_, err = os.Stdout.Write(buf[:n])
			return err
		})
	},
}
