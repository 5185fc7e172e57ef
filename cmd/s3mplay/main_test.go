package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/s3m-player/pkg/mixer"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

func init() {
	logger = log.New(io.Discard, "", 0)
}

// emptySong returns a one pattern module with nothing in it.
func emptySong() []byte {
	buf := make([]byte, 0x70)
	copy(buf, "silence")
	buf[0x1C] = 0x1A
	buf[0x1D] = 16
	le := binary.LittleEndian
	le.PutUint16(buf[0x20:], 2)
	le.PutUint16(buf[0x24:], 1)
	le.PutUint16(buf[0x28:], 0x1320)
	le.PutUint16(buf[0x2A:], 2)
	copy(buf[0x2C:], "SCRM")
	buf[0x30] = 64
	buf[0x31] = 6
	buf[0x32] = 125
	buf[0x33] = 0xB0
	for i := 0x40; i < 0x60; i++ {
		buf[i] = 255
	}
	buf[0x40] = 0
	buf[0x60], buf[0x61] = 0, 255
	le.PutUint16(buf[0x62:], 0x70>>4)

	buf = le.AppendUint16(buf, 2+64)
	return append(buf, make([]byte, 64)...)
}

func writeSong(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "silence.s3m")
	require.NoError(t, os.WriteFile(path, emptySong(), 0o644))
	return path
}

// TestParseOptions_Precedence checks flags beat the config file and are clamped
func TestParseOptions_Precedence(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("rate = 22050\nvolume = 100\nsoundcard = \"gus\"\n"), 0o644))

	opts, err := parseOptions([]string{"--config", cfgPath, "-f", "1000", "-s", "sb", "--render-to-wav", "song.s3m"})
	require.NoError(t, err)
	assert.Equal(t, st3.MinOutputRate, opts.Rate)
	assert.Equal(t, 100, opts.Volume)
	assert.Equal(t, st3.CardSBPro, opts.card)
	assert.True(t, opts.renderWAV)
	assert.Equal(t, []string{"song.s3m"}, opts.args)

	opts, err = parseOptions([]string{"--config", cfgPath, "-b", "100000"})
	require.NoError(t, err)
	assert.Equal(t, 22050, opts.Rate)
	assert.Equal(t, 8192, opts.Buffer)
	assert.Equal(t, st3.CardGUS, opts.card)

	_, err = parseOptions([]string{"--config", cfgPath, "-s", "adlib"})
	assert.Error(t, err)
}

// TestStatus_Format checks the status line layout
func TestStatus_Format(t *testing.T) {
	s := status{order: 3, orders: 12, pattern: 7, row: 9, card: st3.CardGUS, pcm: 4}
	assert.Equal(t, " Pos: 003/012 - Pat: 07 - Row: 09/64 - Active GUS voices: 04         ", s.String())

	s.card = st3.CardSBPro
	s.fmUsed, s.fm = true, 2
	s.paused = true
	assert.Equal(t, " Pos: 003/012 - Pat: 07 - Row: 09/64 - Active ST3 PCM voices: 04/16 - Active AdLib voices: 2/9 (PAUSED)", s.String())
}

// TestApplyKey checks the key bindings
func TestApplyKey(t *testing.T) {
	sess := st3.NewSession(mixer.NewRecorder(), 8000)
	song, err := st3.LoadMemory(emptySong(), nil)
	require.NoError(t, err)
	sess.Load(song)
	require.NoError(t, sess.Play(0))

	assert.False(t, applyKey(' ', sess))
	assert.False(t, sess.Playing())
	assert.False(t, applyKey(' ', sess))
	assert.True(t, sess.Playing())
	assert.False(t, applyKey('+', sess))
	assert.True(t, applyKey(keyEscape, sess))
	assert.True(t, applyKey('q', sess))
}

// TestRenderWAV_StopsAtWrap checks a render ends when the song loops
func TestRenderWAV_StopsAtWrap(t *testing.T) {
	path := writeSong(t)
	opts, err := parseOptions([]string{"--config", "", path})
	require.NoError(t, err)
	song, err := loadSong(path, opts)
	require.NoError(t, err)

	sess := st3.NewSession(mixer.New(8000), 8000)
	sess.Load(song)
	require.NoError(t, sess.Play(0))

	name := wavName(path)
	frames, err := renderWAV(context.Background(), sess, name, 8000, 256, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, sess.Loops())
	// 64 rows of 6 ticks at 125 bpm is a little under eight seconds
	assert.InDelta(t, 7.7*8000, float64(frames), 0.2*8000)

	info, err := os.Stat(name)
	require.NoError(t, err)
	assert.Equal(t, int64(44+frames*4), info.Size())
	assert.True(t, strings.HasSuffix(name, ".s3m.wav"))
}

// TestRenderWAV_TimeLimit checks the render limit
func TestRenderWAV_TimeLimit(t *testing.T) {
	song, err := st3.LoadMemory(emptySong(), nil)
	require.NoError(t, err)
	sess := st3.NewSession(mixer.New(8000), 8000)
	sess.Load(song)
	require.NoError(t, sess.Play(0))

	name := filepath.Join(t.TempDir(), "out.wav")
	frames, err := renderWAV(context.Background(), sess, name, 8000, 256, time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(8192), frames)
}

// TestDump_PrintsTicks checks the parameter dump
func TestDump_PrintsTicks(t *testing.T) {
	song, err := st3.LoadMemory(emptySong(), nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	dump(&buf, song, 3, 44100)
	out := buf.String()
	assert.Contains(t, out, "silence")
	assert.Contains(t, out, "tick 2\n")
	assert.NotContains(t, out, "tick 3\n")
}
