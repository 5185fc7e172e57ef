package st3

// OPL2 register bases
const (
	oplTest       = 0x01
	oplTimerCtl   = 0x08
	oplRhythm     = 0xBD
	oplOperator   = 0x20
	oplFNumLow    = 0xA0
	oplKeyOnBlock = 0xB0
	oplFeedback   = 0xC0
	oplModLevel   = 0x40
	oplCarLevel   = 0x43
	fmKeyOn       = 0x2000
	hzSent        = 0x8000
	fmRetrigOff   = 254
)

// writeFM forwards a register write unless the register already holds val.
func (s *Session) writeFM(reg, val uint8) {
	if s.fmMem[reg] == val {
		return
	}
	s.fmMem[reg] = val
	if s.fm != nil {
		s.fm.WriteFM(reg, val)
	}
}

func (s *Session) writeFMNote(ch int, note uint16) {
	s.writeFM(oplFNumLow+uint8(ch), uint8(note))
	s.writeFM(oplKeyOnBlock+uint8(ch), uint8(note>>8))
}

// loadFMInstrument writes the eleven patch bytes of an instrument to channel ch.
func (s *Session) loadFMInstrument(ch int, regs []uint8) {
	reg := oplOperator + fmOperatorOffset[ch]
	for i := 0; i < 4; i++ {
		s.writeFM(reg, regs[2*i])
		s.writeFM(reg+3, regs[2*i+1])
		reg += 32
	}
	reg += 64
	s.writeFM(reg, regs[8])
	s.writeFM(reg+3, regs[9])
	s.writeFM(oplFeedback+uint8(ch), regs[10])
}

func (s *Session) initFM() {
	for i := range s.fmMem {
		s.fmMem[i] = 0xFC
	}
	s.writeFM(oplTest, 0x20)
	s.writeFM(oplTimerCtl, 0)
	s.writeFM(oplRhythm, 0)
	for ch := 0; ch < FMChannels; ch++ {
		s.loadFMInstrument(ch, fmEmptyInstrument[:])
		s.writeFMNote(ch, 0)
	}
}

// fmLevel scales a patch total-level byte by the channel volume.
func fmLevel(level uint8, vol int8) uint8 {
	out := 63 - level&63
	if vol < 63 {
		v := uint8(vol)
		if v != 0 {
			v++
		}
		out = uint8((uint16(out) * uint16(v)) >> 6)
	}
	return (63 - out) | level&(64|128)
}

// updateFM sends pending FM pitch and volume changes.
func (s *Session) updateFM() {
	for i := 0; i < FMChannels; i++ {
		c := &s.ch[fmFirst+i]

		if c.HzHi&hzSent == 0 {
			hz := (uint32(c.HzHi)<<16 | uint32(c.HzLo)) << 1
			block := uint8(0)
			for hz >= 3125 {
				block++
				hz >>= 1
			}
			block = block<<2 | 32
			fnum := uint16((hz << 10) / 3125)
			note := uint16(block)<<8 | fnum

			if c.FMRetrig != 0 {
				s.writeFMNote(i, note&^fmKeyOn)
			}
			if c.FMRetrig != fmRetrigOff {
				s.writeFMNote(i, note)
			}
		}
		c.HzHi |= hzSent

		if c.FMRetrigVol != 0 && c.FMIns > 0 && int(c.FMIns) <= MaxInstruments {
			regs := &s.song.Instrument(int(c.FMIns)).FMRegs
			off := fmOperatorOffset[i]
			if regs[10]&1 != 0 {
				s.writeFM(oplModLevel+off, fmLevel(regs[2], c.Volume))
			}
			s.writeFM(oplCarLevel+off, fmLevel(regs[3], c.Volume))
		}
		c.FMRetrig = 0
	}
}
