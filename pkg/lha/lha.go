// Package lha extracts files from LHarc archives (.lha / .lzh), the format
// many tracker modules were distributed in.
package lha

import (
	"errors"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

var (
	ErrNotArchive  = errors.New("not an LHA archive")
	ErrUnsupported = errors.New("unsupported compression method")
	ErrCorrupt     = errors.New("corrupt compressed stream")
	ErrChecksum    = errors.New("CRC mismatch")
	ErrNoEntry     = errors.New("no matching entry")
)

// Entry is one member of an archive.
type Entry struct {
	Name         string
	Method       string
	PackedSize   uint32
	OriginalSize uint32
	CRC          uint16
	Level        uint8

	packed []byte
}

// dictionary bits per method; -lh0- is stored.
var methodDicBits = map[string]int{
	"-lh0-": 0,
	"-lz4-": 0,
	"-lh4-": 12,
	"-lh5-": 13,
	"-lh6-": 15,
	"-lh7-": 16,
}

// IsArchive reports whether data starts with an LHA member header.
func IsArchive(data []byte) bool {
	if len(data) < 22 {
		return false
	}
	return data[2] == '-' && data[3] == 'l' && (data[4] == 'h' || data[4] == 'z') && data[6] == '-'
}

// Method returns the compression method of the first member, or "" when
// data is not an archive.
func Method(data []byte) string {
	if !IsArchive(data) {
		return ""
	}
	return string(data[2:7])
}

// List parses every member header in the archive.
func List(data []byte) ([]Entry, error) {
	if !IsArchive(data) {
		return nil, fault.Wrap(ErrNotArchive, ftag.With(ftag.InvalidArgument))
	}

	var entries []Entry
	pos := 0
	for pos < len(data) && data[pos] != 0 {
		e, next, err := parseHeader(data, pos)
		if err != nil {
			return entries, fault.Wrap(err, fmsg.With("reading archive header"), ftag.With(ftag.InvalidArgument))
		}
		entries = append(entries, e)
		pos = next
	}
	return entries, nil
}

// Extract decompresses the member and verifies its checksum.
func (e *Entry) Extract() ([]byte, error) {
	dicBits, ok := methodDicBits[e.Method]
	if !ok {
		return nil, fault.Wrap(ErrUnsupported, fmsg.With(e.Method), ftag.With(ftag.InvalidArgument))
	}

	var out []byte
	if dicBits == 0 {
		if len(e.packed) < int(e.OriginalSize) {
			return nil, fault.Wrap(ErrCorrupt, fmsg.With("stored member truncated"), ftag.With(ftag.InvalidArgument))
		}
		out = append([]byte(nil), e.packed[:e.OriginalSize]...)
	} else {
		var err error
		out, err = newDecoder(e.packed, dicBits).inflate(int(e.OriginalSize))
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("decoding "+e.Name), ftag.With(ftag.InvalidArgument))
		}
	}

	if crc16(out) != e.CRC {
		return nil, fault.Wrap(ErrChecksum, fmsg.With(e.Name), ftag.With(ftag.InvalidArgument))
	}
	return out, nil
}

// ExtractMatching returns the first member whose lower-cased name ends with
// one of the given suffixes; with no suffixes the first member is returned.
func ExtractMatching(data []byte, suffixes ...string) ([]byte, string, error) {
	entries, err := List(data)
	if err != nil {
		return nil, "", err
	}
	for i := range entries {
		if !matchSuffix(entries[i].Name, suffixes) {
			continue
		}
		out, err := entries[i].Extract()
		return out, entries[i].Name, err
	}
	return nil, "", fault.Wrap(ErrNoEntry, ftag.With(ftag.NotFound))
}

func matchSuffix(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, strings.ToLower(s)) {
			return true
		}
	}
	return false
}

func le16(b []byte, off int) uint16 {
	return uint16(b[off]) | uint16(b[off+1])<<8
}

func le32(b []byte, off int) uint32 {
	return uint32(b[off]) | uint32(b[off+1])<<8 | uint32(b[off+2])<<16 | uint32(b[off+3])<<24
}

// parseHeader decodes the member header at pos and returns the entry and
// the offset of the next header.
func parseHeader(data []byte, pos int) (Entry, int, error) {
	h := data[pos:]
	if len(h) < 22 {
		return Entry{}, 0, ErrCorrupt
	}

	e := Entry{
		Method:       string(h[2:7]),
		PackedSize:   le32(h, 7),
		OriginalSize: le32(h, 11),
		Level:        h[20],
	}

	var dataStart int
	switch e.Level {
	case 0, 1:
		size := int(h[0]) + 2
		nameLen := int(h[21])
		if 22+nameLen+2 > len(h) || size > len(h) {
			return Entry{}, 0, ErrCorrupt
		}
		e.Name = string(h[22 : 22+nameLen])
		e.CRC = le16(h, 22+nameLen)
		dataStart = size
		if e.Level == 1 {
			// extended headers follow the base header and count towards the packed size
			next := int(le16(h, size-2))
			for next > 0 {
				if dataStart+next > len(h) || next < 3 {
					return Entry{}, 0, ErrCorrupt
				}
				if h[dataStart] == 0x01 {
					e.Name = string(h[dataStart+1 : dataStart+next-2])
				}
				e.PackedSize -= uint32(next)
				dataStart += next
				next = int(le16(h, dataStart-2))
			}
		}
	case 2:
		total := int(le16(h, 0))
		if total > len(h) || total < 26 {
			return Entry{}, 0, ErrCorrupt
		}
		e.CRC = le16(h, 21)
		off := 24
		next := int(le16(h, off))
		off += 2
		for next > 0 {
			if off+next > total || next < 3 {
				return Entry{}, 0, ErrCorrupt
			}
			if h[off] == 0x01 {
				e.Name = string(h[off+1 : off+next-2])
			}
			off += next
			next = int(le16(h, off-2))
		}
		dataStart = total
	default:
		return Entry{}, 0, ErrUnsupported
	}

	end := dataStart + int(e.PackedSize)
	if end > len(h) {
		end = len(h)
	}
	e.packed = h[dataStart:end]
	if i := strings.LastIndexAny(e.Name, "/\\\xff"); i >= 0 {
		e.Name = e.Name[i+1:]
	}
	return e, pos + dataStart + int(e.PackedSize), nil
}

var crcTable = func() [256]uint16 {
	var t [256]uint16
	for i := range t {
		r := uint16(i)
		for j := 0; j < 8; j++ {
			if r&1 != 0 {
				r = r>>1 ^ 0xA001
			} else {
				r >>= 1
			}
		}
		t[i] = r
	}
	return t
}()

func crc16(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc = crcTable[byte(crc)^b] ^ crc>>8
	}
	return crc
}
