package st3

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// testSample describes one PCM instrument of a synthesized module.
type testSample struct {
	data      []int8
	loopBegin uint32
	loopEnd   uint32
	looped    bool
	volume    uint8
	c2spd     uint32
	gusAddr   uint16
	// fm makes the instrument an FM patch instead of a sample.
	fm        *[11]uint8
}

// testCell is one channel entry of a synthesized pattern row.
type testCell struct {
	ch                      int
	note, ins, vol          uint8
	cmd                     Effect
	info                    uint8
	hasNote, hasVol, hasCmd bool
}

type testPattern struct {
	rows [RowsPerPattern][]testCell
}

func (p *testPattern) cell(row, ch int) *testCell {
	for i := range p.rows[row] {
		if p.rows[row][i].ch == ch {
			return &p.rows[row][i]
		}
	}
	p.rows[row] = append(p.rows[row], testCell{ch: ch})
	return &p.rows[row][len(p.rows[row])-1]
}

func (p *testPattern) note(row, ch int, note, ins uint8) *testPattern {
	c := p.cell(row, ch)
	c.note, c.ins, c.hasNote = note, ins, true
	return p
}

func (p *testPattern) vol(row, ch int, v uint8) *testPattern {
	c := p.cell(row, ch)
	c.vol, c.hasVol = v, true
	return p
}

func (p *testPattern) cmd(row, ch int, e Effect, info uint8) *testPattern {
	c := p.cell(row, ch)
	c.cmd, c.info, c.hasCmd = e, info, true
	return p
}

func (p *testPattern) bytes() []byte {
	var out []byte
	for _, row := range p.rows {
		for _, c := range row {
			mask := uint8(c.ch & maskChannel)
			if c.hasNote {
				mask |= maskNoteIns
			}
			if c.hasVol {
				mask |= maskVolume
			}
			if c.hasCmd {
				mask |= maskCommand
			}
			out = append(out, mask)
			if c.hasNote {
				out = append(out, c.note, c.ins)
			}
			if c.hasVol {
				out = append(out, c.vol)
			}
			if c.hasCmd {
				out = append(out, uint8(c.cmd), c.info)
			}
		}
		out = append(out, 0)
	}
	return out
}

// testModule builds an SCRM image in memory.
type testModule struct {
	name      string
	orders    []uint8
	flags     uint16
	cwtv      uint16
	speed     uint8
	tempo     uint8
	globalVol uint8
	master    uint8
	channels  [32]uint8
	samples   []testSample
	patterns  []*testPattern
	pans      []uint8
}

func newTestModule() *testModule {
	m := &testModule{
		name:      "test song",
		cwtv:      0x1320,
		speed:     6,
		tempo:     125,
		globalVol: 64,
		master:    0xB0,
	}
	for i := range m.channels {
		switch {
		case i < PCMChannels:
			m.channels[i] = uint8(i)
		case i < PCMChannels+FMChannels:
			m.channels[i] = uint8(i)
		default:
			m.channels[i] = 255
		}
	}
	return m
}

func align16(b []byte) []byte {
	for len(b)%16 != 0 {
		b = append(b, 0)
	}
	return b
}

func (m *testModule) build() []byte {
	buf := make([]byte, headerSize)
	copy(buf, m.name)
	buf[0x1C] = 0x1A
	buf[0x1D] = 16
	le := binary.LittleEndian
	le.PutUint16(buf[0x20:], uint16(len(m.orders)))
	le.PutUint16(buf[0x22:], uint16(len(m.samples)))
	le.PutUint16(buf[0x24:], uint16(len(m.patterns)))
	le.PutUint16(buf[0x26:], m.flags)
	le.PutUint16(buf[0x28:], m.cwtv)
	le.PutUint16(buf[0x2A:], 2)
	copy(buf[0x2C:], "SCRM")
	buf[0x30] = m.globalVol
	buf[0x31] = m.speed
	buf[0x32] = m.tempo
	buf[0x33] = m.master
	buf[0x34] = 16
	if m.pans != nil {
		buf[0x35] = 252
	}
	copy(buf[0x40:], m.channels[:])

	buf = append(buf, m.orders...)
	insTable := len(buf)
	buf = append(buf, make([]byte, 2*len(m.samples))...)
	patTable := len(buf)
	buf = append(buf, make([]byte, 2*len(m.patterns))...)
	if m.pans != nil {
		pans := make([]byte, 32)
		copy(pans, m.pans)
		buf = append(buf, pans...)
	}
	buf = align16(buf)

	insBlocks := make([]int, len(m.samples))
	for i := range m.samples {
		insBlocks[i] = len(buf)
		le.PutUint16(buf[insTable+2*i:], uint16(len(buf)>>4))
		buf = append(buf, make([]byte, instrumentSize)...)
	}
	for i, p := range m.patterns {
		buf = align16(buf)
		le.PutUint16(buf[patTable+2*i:], uint16(len(buf)>>4))
		data := p.bytes()
		buf = le.AppendUint16(buf, uint16(len(data)+2))
		buf = append(buf, data...)
	}
	for i, smp := range m.samples {
		if smp.fm != nil {
			blk := buf[insBlocks[i]:]
			blk[0] = 2
			copy(blk[1:], "patch.ins")
			copy(blk[16:], smp.fm[:])
			blk[28] = smp.volume
			le.PutUint32(blk[32:], smp.c2spd)
			copy(blk[76:], "SCRI")
			continue
		}
		buf = align16(buf)
		body := len(buf)
		for _, v := range smp.data {
			buf = append(buf, byte(v)^0x80)
		}

		blk := buf[insBlocks[i]:]
		blk[0] = 1
		copy(blk[1:], "sample.raw")
		blk[13] = uint8(body >> 20)
		le.PutUint16(blk[14:], uint16(body>>4))
		le.PutUint32(blk[16:], uint32(len(smp.data)))
		le.PutUint32(blk[20:], smp.loopBegin)
		le.PutUint32(blk[24:], smp.loopEnd)
		blk[28] = smp.volume
		if smp.looped {
			blk[31] = 1
		}
		le.PutUint32(blk[32:], smp.c2spd)
		le.PutUint16(blk[40:], smp.gusAddr)
		copy(blk[76:], "SCRS")
	}
	return buf
}

func (m *testModule) load(t *testing.T) *Song {
	t.Helper()
	song, err := LoadMemory(m.build(), nil)
	require.NoError(t, err)
	return song
}

func ramp(n int) []int8 {
	d := make([]int8, n)
	for i := range d {
		d[i] = int8(i%64 - 32)
	}
	return d
}

// trigger is one Trigger call seen by recordBackend.
type trigger struct {
	tick int
	ch   int
	v    Voice
}

// recordBackend captures backend calls for inspection.
type recordBackend struct {
	mode     Mode
	ticks    int
	triggers []trigger
	stops    map[int]int
	deltas   [PCMChannels]uint32
	vols     [PCMChannels]uint8
	pans     [PCMChannels]uint8
	fm       [256]uint8
	fmWrites int
}

func newRecordBackend() *recordBackend {
	return &recordBackend{stops: map[int]int{}}
}

func (r *recordBackend) Reset(m Mode)                  { r.mode = m }
func (r *recordBackend) SetFrequency(ch int, d uint32) { r.deltas[ch] = d }
func (r *recordBackend) SetVolume(ch int, v uint8)     { r.vols[ch] = v }
func (r *recordBackend) SetPan(ch int, p uint8)        { r.pans[ch] = p }
func (r *recordBackend) Stop(ch int)                   { r.stops[ch]++ }
func (r *recordBackend) CommitTick()                   { r.ticks++ }

func (r *recordBackend) Trigger(ch int, v Voice) {
	r.triggers = append(r.triggers, trigger{tick: r.ticks, ch: ch, v: v})
}
func (r *recordBackend) WriteFM(reg, val uint8) {
	r.fm[reg] = val
	r.fmWrites++
}

// newTestSession loads m and starts playback on a recording backend.
func newTestSession(t *testing.T, m *testModule) (*Session, *recordBackend) {
	t.Helper()
	rec := newRecordBackend()
	s := NewSession(rec, 48000)
	s.Load(m.load(t))
	require.NoError(t, s.Play(0))
	return s, rec
}

func ticks(s *Session, n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}
