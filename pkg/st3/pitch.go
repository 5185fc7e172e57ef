package st3

// noteToPeriod converts a packed octave/semitone note to an ST3 period at C2Freq.
func noteToPeriod(note uint8) uint16 {
	if note == NoteOff {
		return 0
	}
	p := uint16(notespd[note&0x0F])
	if shift := octavediv[note>>4]; shift > 0 {
		p >>= shift & 0x1F
	}
	return p
}

// scalePeriod rescales a C2Freq period to the channel's tuning.
func scalePeriod(c *ChannelState, p uint16) uint16 {
	tmp := uint32(p) * C2Freq
	if tmp>>16 >= uint32(c.C2Spd) {
		return 32767
	}
	tmp /= uint32(c.C2Spd)
	if tmp > 32767 {
		tmp = 32767
	}
	return uint16(tmp)
}

// roundPeriod snaps a period to the nearest semitone, for glissando.
func roundPeriod(c *ChannelState, p uint16) uint16 {
	ref := uint32(p) * uint32(c.C2Spd)
	if ref>>16 >= C2Freq {
		return p
	}
	ref /= C2Freq

	octave := uint8(0)
	last := uint32(uint16((int32(notespd[12]) + int32(notespd[11])) >> 1))
	for last >= ref && octave < 16 {
		octave++
		last >>= 1
	}

	best, bestDist := 0, int16(32767)
	for i := 0; i < 11; i++ {
		n := notespd[i]
		if octave > 0 {
			n >>= octave
		}
		n -= int16(ref)
		if n < 0 {
			n = -n
		}
		if n < bestDist {
			bestDist = n
			best = i
		}
	}

	out := uint32(noteToPeriod(octave<<4|uint8(best&0x0F))) * C2Freq
	if out>>16 >= uint32(c.C2Spd) {
		return p
	}
	return uint16(out / uint32(c.C2Spd))
}

// setPeriod converts the channel's period to a mixer delta and FM frequency.
func (s *Session) setPeriod(c *ChannelState) {
	c.Active |= 128

	if s.amigaLimits {
		if uint16(c.OrigPeriod) > uint16(s.periodMax) {
			c.OrigPeriod = s.periodMax
		}
		if c.OrigPeriod < s.periodMin {
			c.OrigPeriod = s.periodMin
		}
	}

	p := c.Period
	if uint16(p) > uint16(s.periodMax) {
		p = s.periodMax
		if s.amigaLimits {
			c.Period = p
		}
	}
	if p == 0 {
		c.Delta = 0
		c.FMRetrig = 254
		c.HzHi &= 0x7FFF
		return
	}
	if p < s.periodMin {
		p = s.periodMin
		if s.amigaLimits {
			c.Period = p
		}
	}

	hz := uint32(14317056) / uint32(p)
	c.HzHi = uint16(hz >> 16)
	c.HzLo = uint16(hz)

	rate := s.noteRate
	if hz <= 0xFFFF {
		c.Delta = (hz << 16) / rate
	} else {
		q := uint32(uint16(hz / rate))
		r := uint32(uint16(hz % rate))
		c.Delta = q<<16 | (r<<16)/rate
	}
}

// setVolume scales the channel volume by the global volume for the backend.
func (s *Session) setVolume(c *ChannelState) {
	c.Active |= 128
	c.MixVol = uint8((uint32(c.Volume) * s.useGlobalVol) >> 8)
}

func (s *Session) setGlobalVolume(v uint8) {
	s.globalVol = v
	if v > 64 {
		v = 64
	}
	s.useGlobalVol = (uint32(v) * 1024) >> 8
}
