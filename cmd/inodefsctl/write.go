package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/inodefs/inodefs/filesys"
)

var writeCmd = &cobra.Command{
	Use:   "write path",
	Short: "Write stdin into a file starting at offset 0, creating it if absent",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := args[0]
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("write %q: read stdin: %w", p, err)
		}
		return withMount(func(fs *filesys.FS) error {
			h, err := fs.Open(nil, p)
			if err != nil {
				if createErr := fs.Create(nil, p, 0); createErr != nil {
					return fmt.Errorf("write %q: %w", p, createErr)
				}
				h, err = fs.Open(nil, p)
				if err != nil {
					return fmt.Errorf("write %q: %w", p, err)
				}
			}
			defer h.Close()

			if _, err := h.Write(data); err != nil {
				return fmt.Errorf("write %q: %w", p, err)
			}
			return nil
		})
	},
}
