package st3

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyPatterns(n int) []*testPattern {
	p := make([]*testPattern, n)
	for i := range p {
		p[i] = &testPattern{}
	}
	return p
}

// TestNextOrder_SkipAndWrap checks skip markers and the end marker restart
func TestNextOrder_SkipAndWrap(t *testing.T) {
	m := newTestModule()
	m.speed = 1
	m.orders = []uint8{0, OrderSkip, 1, OrderEnd}
	m.patterns = emptyPatterns(2)
	s, _ := newTestSession(t, m)

	assert.Equal(t, Position{Order: 0, Pattern: 0, Row: 0, Speed: 1, Tempo: 125}, s.Position())

	ticks(s, RowsPerPattern)
	pos := s.Position()
	assert.Equal(t, 2, pos.Order)
	assert.Equal(t, 1, pos.Pattern)

	ticks(s, RowsPerPattern)
	assert.Equal(t, 0, s.Position().Pattern)
	assert.Equal(t, 1, s.Loops())
	assert.False(t, s.Ended())
}

// TestNextOrder_NothingPlayable checks order lists without a pattern terminate
func TestNextOrder_NothingPlayable(t *testing.T) {
	for name, orders := range map[string][]uint8{
		"skips only": {OrderSkip, OrderSkip, OrderSkip},
		"end only":   {OrderEnd},
		"empty":      {},
		"skip ended": {OrderSkip, OrderEnd},
	} {
		t.Run(name, func(t *testing.T) {
			m := newTestModule()
			m.orders = orders
			m.patterns = emptyPatterns(1)
			s, _ := newTestSession(t, m)

			assert.True(t, s.Ended())
			assert.Equal(t, noPattern, s.Position().Pattern)
			ticks(s, 100)
			assert.Equal(t, noPattern, s.Position().Pattern)
		})
	}
}

// TestJumpAndBreak checks Bxx and Cxx on the same row
func TestJumpAndBreak(t *testing.T) {
	m := newTestModule()
	m.speed = 1
	m.orders = []uint8{0, 1, 2}
	m.patterns = emptyPatterns(3)
	m.patterns[0].cmd(0, 0, EffectJump, 2).cmd(0, 1, EffectBreak, 0x12)
	m.patterns[2].cmd(13, 0, EffectJump, 0)
	s, _ := newTestSession(t, m)

	s.Tick()
	pos := s.Position()
	assert.Equal(t, 2, pos.Order)
	assert.Equal(t, 2, pos.Pattern)
	assert.Equal(t, 12, pos.Row)
	assert.Zero(t, s.Loops())

	ticks(s, 2)
	assert.Equal(t, 0, s.Position().Pattern)
	assert.Equal(t, 1, s.Loops(), "jumping backwards counts as a loop")
}

// TestBreak_InvalidRow checks a non decimal break argument is ignored
func TestBreak_InvalidRow(t *testing.T) {
	m := newTestModule()
	m.speed = 1
	m.orders = []uint8{0, 1}
	m.patterns = emptyPatterns(2)
	m.patterns[0].cmd(0, 0, EffectBreak, 0x1A)
	s, _ := newTestSession(t, m)

	s.Tick()
	assert.Equal(t, 0, s.Position().Pattern)
	assert.Equal(t, 1, s.Position().Row)
}

// TestPatternLoop_Redirects checks SB0 / SB3 repeats the block three times
func TestPatternLoop_Redirects(t *testing.T) {
	m := newTestModule()
	m.speed = 1
	m.orders = []uint8{0}
	m.patterns = emptyPatterns(1)
	m.patterns[0].cmd(10, 0, EffectSpecial, 0xB0).cmd(20, 0, EffectSpecial, 0xB3)
	s, _ := newTestSession(t, m)

	played := map[int]int{}
	for i := 0; i < 200; i++ {
		row := s.Position().Row
		if row == 21 {
			break
		}
		played[row]++
		s.Tick()
	}

	assert.Equal(t, 4, played[10])
	assert.Equal(t, 4, played[20])
	assert.Equal(t, 1, played[9])
	assert.Equal(t, int16(21), s.loopStart, "finished loop moves the start past its end")
	assert.Zero(t, s.loopCount)
}

// TestPatternDelay_RepeatsRow checks SEx holds the row for x more row lengths
func TestPatternDelay_RepeatsRow(t *testing.T) {
	m := newTestModule()
	m.speed = 2
	m.orders = []uint8{0}
	m.patterns = emptyPatterns(1)
	m.patterns[0].cmd(0, 0, EffectSpecial, 0xE2)
	s, _ := newTestSession(t, m)

	ticks(s, 6)
	assert.Equal(t, 1, s.Position().Row)
	ticks(s, 2)
	assert.Equal(t, 2, s.Position().Row)
}

// TestSpeedAndTempo checks Axx and Txx
func TestSpeedAndTempo(t *testing.T) {
	m := newTestModule()
	m.orders = []uint8{0}
	m.patterns = emptyPatterns(1)
	m.patterns[0].cmd(0, 0, EffectSpeed, 3).cmd(0, 1, EffectTempo, 150)
	m.patterns[0].cmd(1, 0, EffectSpeed, 0)
	s, _ := newTestSession(t, m)

	s.Tick()
	pos := s.Position()
	assert.Equal(t, 3, pos.Speed)
	assert.Equal(t, 150, pos.Tempo)

	ticks(s, 3)
	assert.Equal(t, 3, s.Position().Speed, "A00 keeps the speed")
}

// TestTempo_SBIgnoresLow checks Sound Blaster mode drops tempos up to 32
func TestTempo_SBIgnoresLow(t *testing.T) {
	m := newTestModule()
	m.orders = []uint8{0}
	m.patterns = emptyPatterns(1)
	m.patterns[0].cmd(0, 0, EffectTempo, 0x20)
	m.samples = []testSample{
		{data: ramp(10), volume: 64, c2spd: 8363, gusAddr: 1},
		{data: ramp(10), volume: 64, c2spd: 8363, gusAddr: 1},
	}
	s, rec := newTestSession(t, m)
	require.Equal(t, CardSBPro, rec.mode.Card)

	s.Tick()
	assert.Equal(t, 125, s.Position().Tempo)
}

// TestRoundTrip_PlaysToEnd plays a busy song through its wrap
func TestRoundTrip_PlaysToEnd(t *testing.T) {
	m := newTestModule()
	m.orders = []uint8{0, OrderSkip, 1, OrderEnd}
	m.samples = []testSample{
		{data: ramp(3000), volume: 48, c2spd: 8363, looped: true, loopBegin: 1000, loopEnd: 3000},
		{data: ramp(300), volume: 64, c2spd: 22050},
	}
	p0, p1 := &testPattern{}, &testPattern{}
	effects := []Effect{EffectVolSlide, EffectPortaDown, EffectPortaUp, EffectTonePorta, EffectVibrato,
		EffectTremor, EffectArpeggio, EffectVibratoVolSlide, EffectTonePortaVolSlide, EffectRetrig,
		EffectTremolo, EffectFineVibrato, EffectGlobalVol, EffectOffset}
	for row := 0; row < RowsPerPattern; row++ {
		for ch := 0; ch < 4; ch++ {
			p := p0
			if row%2 == 1 {
				p = p1
			}
			if (row+ch)%3 == 0 {
				p.note(row, ch, uint8(0x30+(row+ch)%12), uint8(1+ch%2))
			}
			p.cmd(row, ch, effects[(row*3+ch)%len(effects)], uint8(row*7+ch))
			if row%5 == 0 {
				p.vol(row, ch, uint8(row))
			}
		}
	}
	p1.note(63, 3, NoteOff, 0)
	m.patterns = []*testPattern{p0, p1}
	s, _ := newTestSession(t, m)

	for i := 0; i < 10000 && s.Loops() == 0; i++ {
		s.Tick()
		for ch := 0; ch < ChannelCount; ch++ {
			require.Zero(t, s.Channel(ch).Active&128, "change bit survives the tick on channel %d", ch)
		}
	}
	assert.Equal(t, 1, s.Loops())
	assert.NotZero(t, s.Channel(0).Active, "channel 0 was touched by the last row")
}
