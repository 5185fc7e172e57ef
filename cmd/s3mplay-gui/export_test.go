package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/s3m-player/pkg/config"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// TestExportWAV_StopsAtWrap checks an export ends when the order list wraps
// and reports monotonic progress up to 1
func TestExportWAV_StopsAtWrap(t *testing.T) {
	song, err := st3.LoadMemory(oneChannelSong(), nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Rate = 8000
	cfg.Buffer = 256

	var steps []float64
	path := filepath.Join(t.TempDir(), "out.wav")
	frames, err := exportWAV(song, path, cfg, exportLimit, func(v float64) {
		steps = append(steps, v)
	})
	require.NoError(t, err)

	// 64 rows at speed 6, tempo 125: about 7.7 seconds
	assert.InDelta(t, 7.7*8000, float64(frames), 8000*0.2)
	require.NotEmpty(t, steps)
	assert.Equal(t, 1.0, steps[len(steps)-1])
	for i := 1; i < len(steps); i++ {
		assert.GreaterOrEqual(t, steps[i], steps[i-1])
	}

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, 44+frames*4, info.Size())
}

// TestExportWAV_Limit checks the time limit bounds the export
func TestExportWAV_Limit(t *testing.T) {
	song, err := st3.LoadMemory(oneChannelSong(), nil)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Rate = 8000
	cfg.Buffer = 256

	frames, err := exportWAV(song, filepath.Join(t.TempDir(), "out.wav"), cfg, time.Second, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(8192), frames)
}
