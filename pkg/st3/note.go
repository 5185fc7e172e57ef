package st3

// startNote applies a row entry to its channel. delayed is set when the
// call comes from an expiring note delay.
func (s *Session) startNote(num int, delayed bool) {
	c := &s.ch[num]

	if delayed {
		c.Active = 1 | 128
	} else {
		if int8(c.Num) > s.lastChannel {
			s.lastChannel = int8(c.Num) + 1
		}
		c.Active = 1
		if c.Cmd == uint8(EffectSpecial) && c.Info&0xF0 == 0xD0 {
			return
		}
	}

	if c.Ins > 101 {
		c.Ins = 0
	}
	if c.Vol != VolNone && c.Vol > 63 {
		c.Vol = 63
	}

	switch {
	case num < PCMChannels:
		s.startPCM(c)
	case num < fmFirst+FMChannels:
		s.startFM(c, num-fmFirst)
	}
}

func (s *Session) startPCM(c *ChannelState) {
	if c.Ins > 0 {
		c.StartOffset = 0
		if c.Ins < MaxInstruments {
			c.LastIns = c.Ins
			ins := s.song.Instrument(int(c.Ins))
			switch ins.Type {
			case 0:
			case 1:
				s.loadPCMInstrument(c, ins)
			default:
				c.LastIns = 0
			}
		}
	}

	if c.LastIns == 0 {
		return
	}

	if c.Cmd == uint8(EffectOffset) {
		if c.Info == 0 {
			c.StartOffset = c.LastOffset
		} else {
			c.StartOffset = uint16(c.Info) << 8
			c.LastOffset = c.StartOffset
		}
	}

	porta := c.Cmd == uint8(EffectTonePorta) || c.Cmd == uint8(EffectTonePortaVolSlide)

	switch c.Note {
	case NoteNone:
	case NoteOff:
		c.Pos = 1
		c.Retrigger = true
		c.Period = 0
		s.setPeriod(c)
		c.Volume = 0
		s.setVolume(c)
		c.End = 0
		c.Loop = LoopDisabled
		c.PortaTarget = -1
	default:
		if !porta {
			c.cue(uint32(c.StartOffset))
		}
		c.LastNote = c.Note

		p := int16(scalePeriod(c, noteToPeriod(c.Note)))
		if c.OrigPeriod == 0 || !porta {
			c.Period = p
			s.setPeriod(c)
			c.VibPos = 0
			c.OrigPeriod = p
		}
		c.PortaTarget = p
	}

	if c.Vol != VolNone {
		c.Volume = int8(c.Vol)
		s.setVolume(c)
		c.OrigVolume = int8(c.Vol)
	}
}

func (s *Session) loadPCMInstrument(c *ChannelState, ins *Instrument) {
	c.C2Spd = uint16(ins.C2Spd)
	c.Volume = clampVolume(int8(ins.Volume))
	c.OrigVolume = c.Volume
	s.setVolume(c)

	c.Sample = ins.Data

	end := uint16(ins.LoopEnd)
	if ins.Looped && end != 0 {
		begin := uint16(ins.LoopBegin)
		c.Loop = uint32(begin)
		// short loops are stretched towards 500 bytes using the unrolled tail
		if span := end - begin; end <= 500 && begin < end {
			for {
				end += span
				if end >= 500 {
					break
				}
			}
			end -= span
		}
		c.End = uint32(end)
		return
	}
	c.End = uint32(uint16(ins.Length) + 32)
	c.Loop = LoopDisabled
}

func (s *Session) startFM(c *ChannelState, fmCh int) {
	s.fmUsed = true

	if c.Ins != 0 {
		c.FMRetrigVol = 1
		if c.Ins < MaxInstruments {
			reload := false
			if c.Ins != c.FMIns {
				c.FMIns = c.Ins
				reload = true
			}
			ins := s.song.Instrument(int(c.Ins))
			if ins.Type != 2 {
				c.FMIns = 0
				return
			}

			c2spd := uint16(ins.C2Spd)
			if c2spd < 1000 {
				c2spd = C2Freq
			}
			c.C2Spd = c2spd
			c.Volume = int8(ins.Volume)
			s.setVolume(c)

			if reload {
				s.loadFMInstrument(fmCh, ins.FMRegs[:])
			}
		}
	}

	if c.Note != NoteNone {
		if c.Cmd != uint8(EffectTonePorta) && c.Note != NoteOff {
			c.FMRetrig = 1
		}
		c.LastNote = c.Note

		broken := s.song.BrokenFMPortamento
		p := int16(scalePeriod(c, noteToPeriod(c.Note)))
		if c.Cmd != uint8(EffectTonePorta) {
			c.Period = p
			s.setPeriod(c)
			if !broken {
				c.OrigPeriod = p
			}
		}
		if broken {
			c.OrigPeriod = p
		}
		c.PortaTarget = p
	}

	if c.Vol != VolNone {
		c.Volume = int8(c.Vol)
		if uint8(c.Volume) > 63 {
			c.Volume = 63
		}
		c.OrigVolume = c.Volume
		c.FMRetrigVol = 1
		s.setVolume(c)
	}
}
