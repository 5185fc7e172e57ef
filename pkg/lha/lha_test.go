package lha

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storedArchive builds a level 0 archive holding one -lh0- member.
func storedArchive(name string, body []byte, crc uint16) []byte {
	hdr := make([]byte, 22+len(name)+2)
	hdr[0] = byte(len(hdr) - 2)
	copy(hdr[2:7], "-lh0-")
	binary.LittleEndian.PutUint32(hdr[7:], uint32(len(body)))
	binary.LittleEndian.PutUint32(hdr[11:], uint32(len(body)))
	hdr[20] = 0
	hdr[21] = byte(len(name))
	copy(hdr[22:], name)
	binary.LittleEndian.PutUint16(hdr[22+len(name):], crc)

	out := append(hdr, body...)
	return append(out, 0)
}

func TestIsArchive(t *testing.T) {
	body := []byte("SCRM payload")
	arc := storedArchive("SONG.S3M", body, crc16(body))

	assert.True(t, IsArchive(arc))
	assert.Equal(t, "-lh0-", Method(arc))
	assert.False(t, IsArchive([]byte("not an archive at all....")))
	assert.Equal(t, "", Method([]byte("short")))
}

func TestExtractStored(t *testing.T) {
	body := []byte("some module bytes")
	arc := storedArchive("dir\\TUNE.S3M", body, crc16(body))

	entries, err := List(arc)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "TUNE.S3M", entries[0].Name)
	assert.Equal(t, uint32(len(body)), entries[0].OriginalSize)

	out, name, err := ExtractMatching(arc, ".s3m")
	require.NoError(t, err)
	assert.Equal(t, "TUNE.S3M", name)
	assert.Equal(t, body, out)
}

func TestExtractChecksum(t *testing.T) {
	body := []byte("payload")
	arc := storedArchive("A.S3M", body, crc16(body)^0xFFFF)

	_, _, err := ExtractMatching(arc)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestExtractNoMatch(t *testing.T) {
	body := []byte("payload")
	arc := storedArchive("README.TXT", body, crc16(body))

	_, _, err := ExtractMatching(arc, ".s3m")
	assert.ErrorIs(t, err, ErrNoEntry)
}

func TestCRC16(t *testing.T) {
	// CRC-16/ARC check value
	assert.Equal(t, uint16(0xBB3D), crc16([]byte("123456789")))
}
