package mixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

func newMonoMixer(noteRate uint32) *Mixer {
	m := New(48000)
	m.Reset(st3.Mode{Card: st3.CardGUS, NoteRate: noteRate})
	return m
}

func mix(m *Mixer, n int) ([]float32, []float32) {
	l, r := make([]float32, n), make([]float32, n)
	m.Mix(l, r)
	return l, r
}

// TestMixer_Interpolation checks linear interpolation at half speed
func TestMixer_Interpolation(t *testing.T) {
	m := newMonoMixer(48000)
	m.SetFrequency(0, 1<<15)
	m.SetVolume(0, 64)
	m.Trigger(0, st3.Voice{Data: []int8{0, 64, 64, 64, 0, 0}, End: 4, LoopStart: st3.LoopDisabled})

	l, r := mix(m, 4)
	assert.Equal(t, []float32{0, 0.25, 0.5, 0.5}, l)
	assert.Equal(t, l, r)
	assert.Equal(t, 1, m.ActiveVoices())
}

// TestMixer_OneShotEnd checks a sample without loop stops at its end
func TestMixer_OneShotEnd(t *testing.T) {
	m := newMonoMixer(48000)
	m.SetFrequency(3, 1<<16)
	m.SetVolume(3, 64)
	m.Trigger(3, st3.Voice{Data: []int8{64, 64, 64, 64}, End: 2, LoopStart: st3.LoopDisabled})

	l, _ := mix(m, 4)
	assert.Equal(t, []float32{0.5, 0.5, 0, 0}, l)
	assert.Zero(t, m.ActiveVoices())
}

// TestMixer_LoopWrap checks playback wraps into the loop
func TestMixer_LoopWrap(t *testing.T) {
	m := newMonoMixer(48000)
	m.SetFrequency(0, 1<<16)
	m.SetVolume(0, 64)
	m.Trigger(0, st3.Voice{Data: []int8{16, 32, 48, 64, 0}, LoopStart: 2, End: 4, Looped: true})

	l, _ := mix(m, 7)
	want := []float32{16, 32, 48, 64, 48, 64, 48}
	for i := range want {
		want[i] /= 128
	}
	assert.Equal(t, want, l)
	assert.Equal(t, 1, m.ActiveVoices())
}

// TestMixer_Pan checks the equal power pan law in stereo mode
func TestMixer_Pan(t *testing.T) {
	m := New(48000)
	m.Reset(st3.Mode{Card: st3.CardGUS, NoteRate: 48000, Stereo: true})
	data := []int8{64, 64, 64, 64, 64}
	for ch, pan := range []uint8{0, 15, 7} {
		m.SetFrequency(ch, 1<<16)
		m.SetVolume(ch, 64)
		m.SetPan(ch, pan)
		m.Trigger(ch, st3.Voice{Data: data, LoopStart: 0, End: 4, Looped: true})
	}

	m.Stop(1)
	m.Stop(2)
	l, r := mix(m, 1)
	assert.InDelta(t, 0.5, l[0], 1e-6)
	assert.Zero(t, r[0])

	m.Trigger(1, st3.Voice{Data: data, End: 4, Looped: true})
	m.Stop(0)
	l, r = mix(m, 1)
	assert.Zero(t, l[0])
	assert.InDelta(t, 0.5, r[0], 1e-6)

	m.Stop(1)
	m.Trigger(2, st3.Voice{Data: data, End: 4, Looped: true})
	l, r = mix(m, 1)
	assert.Greater(t, l[0], r[0])
	assert.InDelta(t, 0.25, l[0]*l[0]+r[0]*r[0], 1e-3, "power is preserved")
}

// TestMixer_SilentVoiceAdvances checks a zero volume voice keeps its position
func TestMixer_SilentVoiceAdvances(t *testing.T) {
	m := newMonoMixer(48000)
	m.SetFrequency(0, 1<<16)
	m.Trigger(0, st3.Voice{Data: []int8{0, 0, 0, 64, 64, 64}, End: 6, LoopStart: st3.LoopDisabled})

	l, _ := mix(m, 3)
	assert.Equal(t, []float32{0, 0, 0}, l)
	assert.Zero(t, m.ActiveVoices())

	m.SetVolume(0, 64)
	l, _ = mix(m, 1)
	assert.Equal(t, float32(0.5), l[0])
}

// TestMixer_RateConversion checks deltas are rescaled to the output rate
func TestMixer_RateConversion(t *testing.T) {
	m := New(44000)
	m.Reset(st3.Mode{Card: st3.CardSBPro, NoteRate: 22000})
	m.SetFrequency(0, 1<<16)
	assert.Equal(t, uint64(1)<<31, m.voices[0].step)

	m.SetFrequency(0, 0)
	assert.Zero(t, m.voices[0].step)
}

// TestMixer_DCFilter checks a constant signal is pulled to zero
func TestMixer_DCFilter(t *testing.T) {
	m := newMonoMixer(48000)
	m.SetDCFilter(true)
	m.SetFrequency(0, 1<<16)
	m.SetVolume(0, 64)
	m.Trigger(0, st3.Voice{Data: []int8{64, 64, 64}, End: 2, Looped: true})

	l, _ := mix(m, 2*dcBufferLen)
	assert.InDelta(t, 0, l[len(l)-1], 1e-6)
	assert.Greater(t, l[0], float32(0.4))
}

// TestFMRegisters_Frequency checks block and F-number decoding
func TestFMRegisters_Frequency(t *testing.T) {
	var f FMRegisters
	f.WriteFM(0xA0, 0xAC)
	f.WriteFM(0xB0, 0x2E)

	assert.True(t, f.KeyOn(0))
	assert.False(t, f.KeyOn(1))
	assert.InDelta(t, 259.44, f.Frequency(0), 0.01)
	assert.Equal(t, 2, f.Writes())

	f.Reset()
	assert.Zero(t, f.Reg(0xB0))
}

// TestRecorder_CarriesState checks per tick snapshots
func TestRecorder_CarriesState(t *testing.T) {
	r := NewRecorder()
	r.Reset(st3.Mode{Card: st3.CardGUS, NoteRate: 38587})
	require.Nil(t, r.Last())

	r.SetFrequency(2, 1234)
	r.SetVolume(2, 40)
	r.Trigger(2, st3.Voice{Pos: 8, End: 100, LoopStart: st3.LoopDisabled})
	r.WriteFM(0xB0, 0x20)
	r.CommitTick()
	r.CommitTick()

	require.Len(t, r.Ticks, 2)
	first := r.Ticks[0]
	require.NotNil(t, first.Channels[2].Start)
	assert.Equal(t, uint32(8), first.Channels[2].Start.Pos)
	assert.Equal(t, []FMWrite{{0xB0, 0x20}}, first.FM)

	last := r.Last()
	assert.Nil(t, last.Channels[2].Start)
	assert.Equal(t, uint32(1234), last.Channels[2].Delta)
	assert.Equal(t, uint8(40), last.Channels[2].Volume)
	assert.Empty(t, last.FM)

	r.Stop(2)
	r.CommitTick()
	assert.True(t, r.Last().Channels[2].Stopped)
}
