// Command inodefsctl formats, inspects, and exercises an inodefs volume
// image from the command line.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
