package st3

// Effect is the command column of a pattern entry; 1 is 'A'.
type Effect uint8

const (
	EffectNone              Effect = iota
	EffectSpeed                    // Axx
	EffectJump                     // Bxx
	EffectBreak                    // Cxx, decimal row
	EffectVolSlide                 // Dxy
	EffectPortaDown                // Exx
	EffectPortaUp                  // Fxx
	EffectTonePorta                // Gxx
	EffectVibrato                  // Hxy
	EffectTremor                   // Ixy
	EffectArpeggio                 // Jxy
	EffectVibratoVolSlide          // Kxy
	EffectTonePortaVolSlide        // Lxy
	EffectM
	EffectN
	EffectOffset // Oxx, applied at note start
	EffectP
	EffectRetrig      // Qxy
	EffectTremolo     // Rxy
	EffectSpecial     // Sxy
	EffectTempo       // Txx
	EffectFineVibrato // Uxy
	EffectGlobalVol   // Vxx
	EffectW
	EffectX
	EffectY
	EffectSync // Zxx, ignored
	effectCount
)

func (e Effect) String() string {
	if e == EffectNone || e >= effectCount {
		return "."
	}
	return string(rune('A' - 1 + int(e)))
}

// Sxy sub-commands
const (
	specialFilter     = 0x0
	specialGlissando  = 0x1
	specialFinetune   = 0x2
	specialVibWave    = 0x3
	specialTremWave   = 0x4
	specialPan        = 0x8
	specialMixType    = 0xA
	specialPatLoop    = 0xB
	specialNoteCut    = 0xC
	specialNoteDelay  = 0xD
	specialPatDelay   = 0xE
)

// Combined slide in progress while running a K or L command.
const (
	slidePlain = iota
	slideTone
	slideVibrato
)

// rowEffect runs the part of an effect that happens on the first tick of a row.
func (s *Session) rowEffect(c *ChannelState) {
	switch Effect(c.Cmd) {
	case EffectSpeed:
		s.setSpeed(c.Info)
	case EffectJump:
		if c.Info == 0xFF {
			s.breakPattern = 255
		} else {
			s.breakPattern = 1
			s.jumpOrder = int16(c.Info)
		}
	case EffectBreak:
		hi, lo := c.Info>>4, c.Info&0x0F
		if hi <= 9 && lo <= 9 {
			s.startRow = hi*10 + lo
			s.breakPattern = 1
		}
	case EffectVolSlide:
		s.volumeSlide(c)
	case EffectPortaDown:
		s.slideDown(c)
	case EffectPortaUp:
		s.slideUp(c)
	case EffectTremor:
		s.tremor(c)
	case EffectArpeggio:
		s.arpeggio(c)
	case EffectRetrig:
		s.retrig(c)
	case EffectSpecial:
		c.recallInfo()
		s.specialOnRow(c)
	case EffectTempo:
		if s.tick == 0 {
			s.setTempo(c.Info)
		}
	default:
		// G, H, K, L, R, U and V only act between rows; O is read at note start.
	}
}

// tickEffect runs the part of an effect that happens on the later ticks of a row.
func (s *Session) tickEffect(c *ChannelState) {
	switch Effect(c.Cmd) {
	case EffectVolSlide:
		s.volumeSlide(c)
	case EffectPortaDown:
		s.slideDown(c)
	case EffectPortaUp:
		s.slideUp(c)
	case EffectTonePorta:
		s.tonePorta(c)
	case EffectVibrato:
		s.vibrato(c)
	case EffectTremor:
		s.tremor(c)
	case EffectArpeggio:
		s.arpeggio(c)
	case EffectVibratoVolSlide:
		s.slideKind = slideVibrato
		s.volumeSlide(c)
	case EffectTonePortaVolSlide:
		s.slideKind = slideTone
		s.volumeSlide(c)
	case EffectRetrig:
		s.retrig(c)
	case EffectTremolo:
		s.tremolo(c)
	case EffectSpecial:
		c.recallInfo()
		s.specialOnTick(c)
	case EffectFineVibrato:
		s.fineVibrato(c)
	case EffectGlobalVol:
		if c.Info <= 64 {
			s.setGlobalVolume(c.Info)
		}
	default:
	}
}

func (s *Session) specialOnRow(c *ChannelState) {
	arg := c.Info & 0x0F
	switch c.Info >> 4 {
	case specialGlissando:
		c.Glissando = arg != 0
	case specialFinetune:
		// ST3.21 only updates the channel's C2 rate here, the period stays.
		c.C2Spd = xfinetuneAmiga[arg]
	case specialVibWave:
		c.WaveControl = c.WaveControl&0xF0 | (c.Info<<1)&0x0F
	case specialTremWave:
		c.WaveControl = (c.Info<<5)&0xF0 | c.WaveControl&0x0F
	case specialPan:
		c.Pan = 0xF0 | arg
		// the GUS only takes a new pan position with a voice restart
		if s.card == CardGUS {
			c.Retrigger = true
		}
	case specialMixType:
		if arg <= 7 {
			c.MixType = arg
		}
	case specialPatLoop:
		s.patternLoop(arg)
	case specialNoteCut:
		c.CutCount = arg
	case specialNoteDelay:
		c.DelayCount = arg
	case specialPatDelay:
		if s.patternDelay == 0 {
			s.patternDelay = int8(arg)
		}
	default:
		// S0x filter and the remaining slots do nothing in ST3.21.
	}
}

func (s *Session) specialOnTick(c *ChannelState) {
	switch c.Info >> 4 {
	case specialNoteCut:
		if c.CutCount > 0 {
			c.CutCount--
			if c.CutCount == 0 {
				c.Delta = 0
			}
		}
	case specialNoteDelay:
		if c.DelayCount > 0 {
			c.DelayCount--
			if c.DelayCount == 0 {
				s.startNote(int(c.Num), true)
			}
		}
	default:
	}
}

func (s *Session) patternLoop(arg uint8) {
	if arg == 0 {
		s.loopStart = s.row
		return
	}
	if s.loopCount == 0 {
		s.loopCount = int8(arg) + 1
		if s.loopStart == -1 {
			s.loopStart = 0
		}
	}
	if s.loopCount > 1 {
		s.loopCount--
		s.jumpRow = s.loopStart
		s.cursor.Invalidate()
		return
	}
	s.loopCount = 0
	s.loopStart = s.row + 1
}

func (s *Session) volumeSlide(c *ChannelState) {
	c.FMRetrigVol = 1
	c.recallInfo()

	hi, lo := int8(c.Info>>4), int8(c.Info&0x0F)
	switch {
	case lo == 0x0F:
		if hi == 0 {
			c.Volume -= lo
		} else if s.tick == 0 {
			c.Volume += hi
		}
	case hi == 0x0F:
		if lo == 0 {
			c.Volume += hi
		} else if s.tick == 0 {
			c.Volume -= lo
		}
	case s.fastSlides || s.tick > 0:
		if lo == 0 {
			c.Volume += hi
		} else {
			c.Volume -= lo
		}
	default:
		return
	}

	c.Volume = clampVolume(c.Volume)
	s.setVolume(c)

	switch s.slideKind {
	case slideTone:
		s.tonePorta(c)
	case slideVibrato:
		s.vibrato(c)
	}
}

func (s *Session) slideDown(c *ChannelState) {
	if c.OrigPeriod == 0 {
		return
	}
	c.recallInfo()

	if s.tick > 0 {
		if c.Info >= 0xE0 {
			return
		}
		c.Period += int16(c.Info) << 2
	} else {
		if c.Info <= 0xE0 {
			return
		}
		if c.Info <= 0xF0 {
			c.Period += int16(c.Info & 0x0F)
		} else {
			c.Period += int16(c.Info&0x0F) << 2
		}
	}
	if uint16(c.Period) > 32767 {
		c.Period = 32767
	}

	c.OrigPeriod = c.Period
	s.setPeriod(c)
}

func (s *Session) slideUp(c *ChannelState) {
	if c.OrigPeriod == 0 {
		return
	}
	c.recallInfo()

	if s.tick > 0 {
		if c.Info >= 0xE0 {
			return
		}
		c.Period -= int16(c.Info) << 2
	} else {
		if c.Info <= 0xE0 {
			return
		}
		if c.Info <= 0xF0 {
			c.Period -= int16(c.Info & 0x0F)
		} else {
			c.Period -= int16(c.Info&0x0F) << 2
		}
	}
	if c.Period < 0 {
		c.Period = 0
	}

	c.OrigPeriod = c.Period
	s.setPeriod(c)
}

func (s *Session) tonePorta(c *ChannelState) {
	var speed uint8
	if s.slideKind == slideTone {
		speed = c.LastPortaInfo
	} else {
		if c.OrigPeriod == 0 {
			if c.PortaTarget == 0 {
				return
			}
			c.OrigPeriod = c.PortaTarget
			c.Period = c.PortaTarget
		}
		if c.Info == 0 {
			c.Info = c.LastPortaInfo
		} else {
			c.LastPortaInfo = c.Info
		}
		speed = c.Info
	}

	if c.OrigPeriod == c.PortaTarget {
		return
	}
	step := int16(speed) << 2
	if c.OrigPeriod < c.PortaTarget {
		c.OrigPeriod += step
		if uint16(c.OrigPeriod) > uint16(c.PortaTarget) {
			c.OrigPeriod = c.PortaTarget
		}
	} else {
		c.OrigPeriod -= step
		if c.OrigPeriod < c.PortaTarget {
			c.OrigPeriod = c.PortaTarget
		}
	}

	if c.Glissando {
		c.Period = int16(roundPeriod(c, uint16(c.OrigPeriod)))
	} else {
		c.Period = c.OrigPeriod
	}
	s.setPeriod(c)
}

// waveform reads the modulation table selected by kind at position pos.
// Kinds 0..3 restart on a new note, 4..7 keep running.
func (s *Session) waveform(pos int16, kind uint8) (int16, int16) {
	if kind >= 4 {
		pos &= 0x7F
	} else if pos&0x80 != 0 {
		pos = 0
	}

	var v int16
	switch kind & 3 {
	case 0:
		v = vibsin[pos>>1]
	case 1:
		v = vibramp[pos>>1]
	case 2:
		v = int16(vibsqu[pos>>1])
	case 3:
		v = vibsin[pos>>1]
		pos += int16(s.rand & 0x1E)
	}
	return v, pos
}

// vibratoParam merges a partial Hxy/Uxy argument with the remembered one.
func (c *ChannelState) vibratoParam() uint8 {
	if c.Info == 0 {
		c.Info = c.LastVibInfo
	}
	if c.Info&0xF0 == 0 {
		c.Info = c.LastVibInfo&0xF0 | c.Info&0x0F
	}
	c.LastVibInfo = c.Info
	return c.Info
}

func (s *Session) vibrato(c *ChannelState) {
	var info uint8
	if s.slideKind == slideVibrato {
		info = c.LastVibInfo
	} else {
		info = c.vibratoParam()
	}
	s.applyVibrato(c, info, 4)
}

func (s *Session) fineVibrato(c *ChannelState) {
	s.applyVibrato(c, c.vibratoParam(), 6)
}

// applyVibrato modulates the period around OrigPeriod; shift is the depth
// divisor for old-style vibrato, one more for the default.
func (s *Session) applyVibrato(c *ChannelState, info uint8, shift uint) {
	if c.OrigPeriod == 0 {
		return
	}
	v, pos := s.waveform(c.VibPos, (c.WaveControl&0x0E)>>1)
	if !s.oldVibrato {
		shift++
	}
	c.Period = c.OrigPeriod + int16(int32(v)*int32(info&0x0F))>>shift
	s.setPeriod(c)
	c.VibPos = (pos + int16(info>>4)<<1) & 126
}

func (s *Session) tremolo(c *ChannelState) {
	c.recallInfo()
	if c.Info&0xF0 == 0 {
		c.Info = c.LastInfo&0xF0 | c.Info&0x0F
	}
	c.LastInfo = c.Info

	if c.OrigVolume <= 0 {
		return
	}
	v, pos := s.waveform(c.VibPos, c.WaveControl>>5)
	vol := int16(c.OrigVolume) + int16(int8((int32(v)*int32(c.Info&0x0F))>>7))
	if vol < 0 {
		vol = 0
	} else if vol > 63 {
		vol = 63
	}
	c.Volume = int8(vol)
	s.setVolume(c)
	c.VibPos = (pos + int16(c.Info&0xF0)>>3) & 126
}

func (s *Session) tremor(c *ChannelState) {
	c.recallInfo()
	if c.TremorCount > 0 {
		c.TremorCount--
		return
	}
	if c.TremorOn {
		c.TremorOn = false
		c.Volume = 0
		s.setVolume(c)
		c.TremorCount = c.Info & 0x0F
		return
	}
	c.TremorOn = true
	c.Volume = c.OrigVolume
	s.setVolume(c)
	c.TremorCount = c.Info >> 4
}

func (s *Session) arpeggio(c *ChannelState) {
	c.recallInfo()

	var add uint8
	switch s.tick % 3 {
	case 1:
		add = c.Info >> 4
	case 2:
		add = c.Info & 0x0F
	}

	octave := c.LastNote & 0xF0
	note := c.LastNote&0x0F + add
	for note >= 12 {
		note -= 12
		octave += 16
	}

	c.Period = int16(scalePeriod(c, noteToPeriod(octave|note)))
	s.setPeriod(c)
}

func (s *Session) retrig(c *ChannelState) {
	c.recallInfo()
	if c.Info&0x0F == 0 || c.Info&0x0F > c.RetrigCount {
		c.RetrigCount++
		return
	}
	c.RetrigCount = 0
	c.cue(0)

	hi := c.Info >> 4
	if mul := retrigvoladd[hi+16]; mul == 0 {
		c.Volume += retrigvoladd[hi]
	} else {
		c.Volume = int8((int16(c.Volume) * int16(mul)) >> 4)
	}
	c.Volume = clampVolume(c.Volume)
	s.setVolume(c)
	c.RetrigCount++
}
