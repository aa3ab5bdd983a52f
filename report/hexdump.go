package report

import (
	"fmt"
	"strings"
)

// HexDump formats data as offset, hex and ASCII columns, perLine bytes per
// row. Bytes outside printable ASCII appear as '.' in the last column.
func HexDump(data []byte, perLine int) string {
	if len(data) == 0 {
		return "No data"
	}
	if perLine < 1 {
		perLine = 16
	}

	var lines []string
	for off := 0; off < len(data); off += perLine {
		end := off + perLine
		if end > len(data) {
			end = len(data)
		}
		chunk := data[off:end]

		hexParts := make([]string, len(chunk))
		for i, b := range chunk {
			hexParts[i] = fmt.Sprintf("%02x", b)
		}

		lines = append(lines, fmt.Sprintf("%04x: %-*s  %s", off, perLine*3, strings.Join(hexParts, " "), ASCIIPreview(chunk)))
	}
	return strings.Join(lines, "\n")
}

// ASCIIPreview renders printable ASCII bytes as-is and everything else as '.'
func ASCIIPreview(data []byte) string {
	out := make([]byte, len(data))
	for i, b := range data {
		if b >= 32 && b < 127 {
			out[i] = b
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}

// HexString renders data as space-separated uppercase hex pairs
func HexString(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, " ")
}
