// Package hexdump renders a raw sector as hex+ASCII, readable the same way
// a failing on-disk comparison is in test output; here it backs the
// inodefsctl stat command's raw sector dump.
package hexdump

import "fmt"

// Dump renders b (commonly one device.SectorSize buffer) as rows of
// bytesPerRow hex bytes followed by their ASCII rendering.
func Dump(b []byte, bytesPerRow int) string {
	if bytesPerRow <= 0 {
		bytesPerRow = 16
	}
	var out string
	for i := 0; i < len(b); i += bytesPerRow {
		end := i + bytesPerRow
		if end > len(b) {
			end = len(b)
		}
		row := b[i:end]
		out += fmt.Sprintf("%08x  ", i)
		for j := 0; j < bytesPerRow; j++ {
			if j < len(row) {
				out += fmt.Sprintf("%02x ", row[j])
			} else {
				out += "   "
			}
		}
		out += " "
		for _, c := range row {
			if c < 32 || c > 126 {
				out += "."
			} else {
				out += string(c)
			}
		}
		out += "\n"
	}
	return out
}
