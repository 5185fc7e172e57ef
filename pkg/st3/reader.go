package st3

// Little-endian field readers over a fixed byte slice. Reads past the end
// yield zero bytes, so a short file decodes with empty trailing fields.

func readLittleEndian16(data []byte, off int) uint16 {
	if off < 0 || off+2 > len(data) {
		return uint16(byteAt(data, off)) | uint16(byteAt(data, off+1))<<8
	}
	return uint16(data[off]) | uint16(data[off+1])<<8
}

func readLittleEndian32(data []byte, off int) uint32 {
	if off < 0 || off+4 > len(data) {
		return uint32(byteAt(data, off)) | uint32(byteAt(data, off+1))<<8 |
			uint32(byteAt(data, off+2))<<16 | uint32(byteAt(data, off+3))<<24
	}
	return uint32(data[off]) | uint32(data[off+1])<<8 | uint32(data[off+2])<<16 | uint32(data[off+3])<<24
}

func byteAt(data []byte, off int) byte {
	if off < 0 || off >= len(data) {
		return 0
	}
	return data[off]
}

// readString returns a NUL terminated string stored in a fixed width field.
func readString(data []byte, off, size int) string {
	var result []byte
	for i := 0; i < size; i++ {
		b := byteAt(data, off+i)
		if b == 0 {
			break
		}
		result = append(result, b)
	}
	return string(result)
}

// copyClamped copies up to n bytes starting at off, stopping at the end of data.
func copyClamped(dst []byte, data []byte, off, n int) int {
	if off < 0 || off >= len(data) || n <= 0 {
		return 0
	}
	end := off + n
	if end > len(data) {
		end = len(data)
	}
	return copy(dst, data[off:end])
}
