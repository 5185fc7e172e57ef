package st3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sbModule() *testModule {
	m := newTestModule()
	m.orders = []uint8{0, 1, 2}
	m.patterns = emptyPatterns(3)
	m.samples = []testSample{
		{data: ramp(2000), volume: 64, c2spd: 8363, gusAddr: 1},
		{data: ramp(2000), volume: 64, c2spd: 8363, gusAddr: 1},
	}
	return m
}

// TestSamplesPerTick checks the tick length of both timing models
func TestSamplesPerTick(t *testing.T) {
	assert.Equal(t, uint64(960)<<32, samplesPerTick(CardSBPro, 125, 48000))
	assert.Equal(t, uint64(441)<<32, samplesPerTick(CardSBPro, 250, 44100))

	// the PC timer cannot run slower than 19 Hz
	assert.Equal(t, samplesPerTick(CardGUS, 40, 48000), samplesPerTick(CardGUS, 32, 48000))

	gus := float64(samplesPerTick(CardGUS, 125, 48000)) / (1 << 32)
	assert.InDelta(t, 960, gus, 0.1)
	assert.NotEqual(t, samplesPerTick(CardSBPro, 125, 48000), samplesPerTick(CardGUS, 125, 48000))
}

// TestNewSession_ClampsRate checks the output rate bounds
func TestNewSession_ClampsRate(t *testing.T) {
	assert.Equal(t, uint32(MinOutputRate), NewSession(newRecordBackend(), 100).outputRate)
	assert.Equal(t, uint32(MaxOutputRate), NewSession(newRecordBackend(), 1<<20).outputRate)

	s := NewSession(newRecordBackend(), 44100)
	assert.False(t, s.IsLoaded())
	assert.ErrorIs(t, s.Play(0), ErrNotLoaded)
	s.Tick()
}

// TestRender_TickSplit checks frames are divided into ticks
func TestRender_TickSplit(t *testing.T) {
	s, rec := newTestSession(t, sbModule())
	require.Equal(t, CardSBPro, s.Card())

	out := make([]int16, 2*9600)
	s.Render(out)
	assert.Equal(t, 10, rec.ticks)
	for i, v := range out {
		require.Zero(t, v, "sample %d", i)
	}

	s.Render(out[:2*480])
	assert.Equal(t, 11, rec.ticks)
	s.Render(out[:2*480])
	assert.Equal(t, 11, rec.ticks, "second half of the tick needs no new tick")
}

// TestStopAndPause checks the transport controls
func TestStopAndPause(t *testing.T) {
	s, rec := newTestSession(t, sbModule())
	out := make([]int16, 2*960)

	assert.True(t, s.TogglePause())
	assert.False(t, s.Playing())
	s.Render(out)
	assert.Zero(t, rec.ticks)

	assert.False(t, s.TogglePause())
	s.Render(out)
	assert.Equal(t, 1, rec.ticks)

	stops := rec.stops[0]
	s.Stop()
	assert.False(t, s.Playing())
	s.Render(out)
	assert.Equal(t, stops+1, rec.stops[0])
	assert.False(t, s.Playing())

	s.StartAt(0, 0)
	assert.True(t, s.Playing())
}

// TestSeek checks moving between orders
func TestSeek(t *testing.T) {
	s, _ := newTestSession(t, sbModule())

	s.Seek(1)
	s.Tick()
	pos := s.Position()
	assert.Equal(t, 1, pos.Order)
	assert.Equal(t, 1, pos.Pattern)
	assert.Equal(t, 0, pos.Row)

	s.Seek(-1)
	s.Tick()
	assert.Equal(t, 0, s.Position().Pattern)

	s.Seek(-5)
	s.Tick()
	assert.Equal(t, 0, s.Position().Order)
}

// TestStartAt_Row checks playback can start mid pattern
func TestStartAt_Row(t *testing.T) {
	s, _ := newTestSession(t, sbModule())

	s.StartAt(2, 70)
	s.Tick()
	pos := s.Position()
	assert.Equal(t, 2, pos.Pattern)
	assert.Equal(t, 6, pos.Row)
}

// TestGlobalVolume checks header and runtime global volume
func TestGlobalVolume(t *testing.T) {
	m := sbModule()
	m.globalVol = 32
	m.speed = 1
	m.patterns[0].note(0, 0, noteC4, 1).note(1, 0, noteC4, 1)
	s, rec := newTestSession(t, m)

	s.Tick()
	assert.Equal(t, uint8(31), s.Channel(0).MixVol)
	assert.Equal(t, uint8(31), rec.vols[0])

	s.SetGlobalVolume(16)
	s.Tick()
	assert.Equal(t, uint8(15), s.Channel(0).MixVol)

	s.SetGlobalVolume(200)
	assert.Equal(t, uint32(256), s.useGlobalVol)
}

// TestFMChannel checks an AdLib note reaches the OPL registers
func TestFMChannel(t *testing.T) {
	patch := [11]uint8{0x21, 0x31, 0x10, 0x05, 0xF0, 0xF1, 0x44, 0x55, 0x01, 0x02, 0x0E}
	m := newTestModule()
	m.orders = []uint8{0}
	m.samples = []testSample{{fm: &patch, volume: 32, c2spd: 8363}}
	p := &testPattern{}
	p.note(0, 16, noteC4, 1)
	m.patterns = []*testPattern{p}
	s, rec := newTestSession(t, m)

	s.Tick()
	assert.True(t, s.FMUsed())
	assert.Equal(t, patch[0], rec.fm[0x20])
	assert.Equal(t, patch[1], rec.fm[0x23])
	assert.Equal(t, patch[8], rec.fm[0xE0])
	assert.Equal(t, patch[10], rec.fm[0xC0])
	assert.Equal(t, uint8(0xAC), rec.fm[0xA0])
	assert.Equal(t, uint8(0x2E), rec.fm[0xB0], "block 3 with key on")
	assert.Equal(t, uint8(34), rec.fm[0x43], "carrier level scaled by volume 32")

	pcm, fm := s.ActiveVoices()
	assert.Zero(t, pcm)
	assert.Equal(t, 1, fm)
}

// TestFMChannel_WritesCached checks repeated ticks do not resend registers
func TestFMChannel_WritesCached(t *testing.T) {
	patch := [11]uint8{0x21, 0x31, 0x10, 0x05, 0xF0, 0xF1, 0x44, 0x55, 0x01, 0x02, 0x0E}
	m := newTestModule()
	m.orders = []uint8{0}
	m.samples = []testSample{{fm: &patch, volume: 32, c2spd: 8363}}
	p := &testPattern{}
	p.note(0, 16, noteC4, 1)
	m.patterns = []*testPattern{p}
	s, rec := newTestSession(t, m)

	s.Tick()
	writes := rec.fmWrites
	ticks(s, 4)
	assert.Equal(t, writes, rec.fmWrites)
}

// TestStop_SurvivesRender checks pause cannot resume a stopped session once
// the stop has been rendered
func TestStop_SurvivesRender(t *testing.T) {
	s, rec := newTestSession(t, sbModule())
	out := make([]int16, 2*960)

	s.Render(out)
	s.Stop()
	s.Render(out)
	n := rec.ticks

	assert.True(t, s.TogglePause())
	assert.False(t, s.Playing())
	s.Render(out)
	assert.Equal(t, n, rec.ticks)

	s.StartAt(0, 0)
	assert.True(t, s.Playing())
	assert.True(t, s.TogglePause(), "pause works again after a restart")
	assert.False(t, s.Playing())
}

// TestStartAt_ClearsEnded checks a jump onto a playable order resumes a song
// that ran out of orders
func TestStartAt_ClearsEnded(t *testing.T) {
	m := newTestModule()
	m.orders = []uint8{OrderEnd, 0}
	m.patterns = emptyPatterns(1)
	s, _ := newTestSession(t, m)
	require.True(t, s.Ended())

	s.StartAt(1, 0)
	s.Tick()
	pos := s.Position()
	assert.False(t, s.Ended())
	assert.Equal(t, 1, pos.Order)
	assert.Equal(t, 0, pos.Pattern)
}

// TestSeek_KeepsDefaultPans checks the header panning survives a seek
func TestSeek_KeepsDefaultPans(t *testing.T) {
	m := newTestModule()
	m.orders = []uint8{0, 1}
	m.pans = []uint8{0x2E}
	m.samples = []testSample{{data: ramp(2000), volume: 64, c2spd: 8363}}
	m.patterns = emptyPatterns(2)
	m.patterns[0].note(0, 0, noteC4, 1)
	m.patterns[1].note(0, 0, noteC4, 1)
	s, rec := newTestSession(t, m)
	require.Equal(t, CardGUS, s.Card())

	s.Tick()
	assert.Equal(t, uint8(0xFE), s.Channel(0).Pan)
	assert.Equal(t, uint8(14), rec.pans[0])

	s.Seek(1)
	ticks(s, 2)
	require.Equal(t, 1, s.Position().Pattern)
	require.Len(t, rec.triggers, 2)
	assert.Equal(t, uint8(0xFE), s.Channel(0).Pan)
	assert.Equal(t, uint8(14), rec.pans[0])
}

// TestStop_KeepsDefaultPans checks a restart after a rendered stop keeps the
// header panning
func TestStop_KeepsDefaultPans(t *testing.T) {
	m := newTestModule()
	m.orders = []uint8{0}
	m.pans = []uint8{0x25}
	m.patterns = emptyPatterns(1)
	s, _ := newTestSession(t, m)

	s.Stop()
	s.Render(make([]int16, 2*64))
	assert.Equal(t, uint8(0xF5), s.Channel(0).Pan)
}
