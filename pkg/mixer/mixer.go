// Package mixer provides software SoundBackend implementations for the st3
// replayer.
package mixer

import (
	"math"

	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// voice is one PCM channel as the mixer sees it.
type voice struct {
	data   []int8
	pos    uint32
	frac   uint32
	loop   uint32
	end    uint32
	looped bool
	live   bool

	delta uint32
	step  uint64 // 32.32 sample step per output frame
	vol   uint8
	pan   uint8
}

// Mixer mixes the PCM channels with linear interpolation at the output rate.
// FM register writes are kept in the embedded FMRegisters; there is no OPL
// synthesis.
type Mixer struct {
	FMRegisters

	outRate uint32
	mode    st3.Mode
	voices  [st3.PCMChannels]voice
	panL    [16]float32
	panR    [16]float32

	dc      bool
	dcLeft  dcAdjuster
	dcRight dcAdjuster
}

// New creates a mixer producing frames at outputRate.
func New(outputRate int) *Mixer {
	m := &Mixer{outRate: uint32(outputRate)}
	for p := 0; p < 16; p++ {
		m.panL[p] = float32(math.Sqrt(float64(15-p) / 15))
		m.panR[p] = float32(math.Sqrt(float64(p) / 15))
	}
	return m
}

// SetDCFilter enables removal of the DC offset from the mixed signal.
func (m *Mixer) SetDCFilter(on bool) {
	m.dc = on
	m.dcLeft.Reset()
	m.dcRight.Reset()
}

// Reset clears every voice and adopts the new mode.
func (m *Mixer) Reset(mode st3.Mode) {
	m.mode = mode
	m.voices = [st3.PCMChannels]voice{}
	m.FMRegisters.Reset()
	m.dcLeft.Reset()
	m.dcRight.Reset()
}

func (m *Mixer) SetFrequency(ch int, delta uint32) {
	v := &m.voices[ch]
	v.delta = delta
	if m.outRate == 0 {
		v.step = 0
		return
	}
	// delta is 16.16 at the note rate; rescale to 32.32 at the output rate
	v.step = (uint64(delta) << 16) * uint64(m.mode.NoteRate) / uint64(m.outRate)
}

func (m *Mixer) SetVolume(ch int, vol uint8) {
	m.voices[ch].vol = vol
}

func (m *Mixer) SetPan(ch int, pan uint8) {
	m.voices[ch].pan = pan & 0x0F
}

// Trigger starts a sample on ch, keeping the channel's pitch and volume.
func (m *Mixer) Trigger(ch int, sv st3.Voice) {
	v := &m.voices[ch]
	v.data = sv.Data
	v.pos = sv.Pos
	v.frac = 0
	v.loop = sv.LoopStart
	v.end = sv.End
	v.looped = sv.Looped && sv.LoopStart < sv.End
	v.live = sv.Data != nil
}

func (m *Mixer) Stop(ch int) {
	m.voices[ch].live = false
}

func (m *Mixer) CommitTick() {}

// ActiveVoices returns the number of voices that are audible.
func (m *Mixer) ActiveVoices() int {
	n := 0
	for i := range m.voices {
		v := &m.voices[i]
		if v.live && v.step != 0 && v.vol > 0 && v.pos < v.end {
			n++
		}
	}
	return n
}

// Mix adds len(left) frames of every voice to left and right.
func (m *Mixer) Mix(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := range m.voices {
		v := &m.voices[i]
		if !v.live || v.step == 0 || v.pos >= v.end {
			continue
		}
		if v.vol == 0 {
			v.skip(n)
			continue
		}
		gl, gr := m.gains(v)
		v.render(left[:n], right[:n], gl, gr)
	}

	if m.dc {
		for i := 0; i < n; i++ {
			m.dcLeft.AddSample(left[i])
			left[i] -= m.dcLeft.Level()
			m.dcRight.AddSample(right[i])
			right[i] -= m.dcRight.Level()
		}
	}
}

// gains returns the left and right gain of a voice.
func (m *Mixer) gains(v *voice) (float32, float32) {
	g := float32(v.vol) / 64
	if !m.mode.Stereo {
		return g, g
	}
	return g * m.panL[v.pan], g * m.panR[v.pan]
}

// sample returns the value at pos; reads at or past end continue into the
// loop or return silence.
func (v *voice) sample(pos uint32) float32 {
	if pos >= v.end {
		if !v.looped {
			return 0
		}
		pos = v.loop + (pos-v.end)%(v.end-v.loop)
	}
	if int(pos) >= len(v.data) {
		return 0
	}
	return float32(v.data[pos]) / 128
}

func (v *voice) render(left, right []float32, gl, gr float32) {
	const fracScale = 1.0 / (1 << 32)
	for i := range left {
		s0 := v.sample(v.pos)
		s1 := v.sample(v.pos + 1)
		s := s0 + (s1-s0)*float32(float64(v.frac)*fracScale)
		left[i] += s * gl
		right[i] += s * gr

		if !v.advance(v.step) {
			return
		}
	}
}

// skip moves a silent voice forward by n frames.
func (v *voice) skip(n int) {
	v.advance(v.step * uint64(n))
}

// advance moves the play position by step and handles the sample end. It
// reports whether the voice is still playing.
func (v *voice) advance(step uint64) bool {
	acc := uint64(v.frac) + step
	v.pos += uint32(acc >> 32)
	v.frac = uint32(acc)
	if v.pos < v.end {
		return true
	}
	if !v.looped {
		v.live = false
		return false
	}
	length := v.end - v.loop
	v.pos = v.loop + (v.pos-v.loop)%length
	return true
}
