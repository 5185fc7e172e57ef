package st3

// noPattern marks a session whose order list has nothing playable.
const noPattern = 255

// playTick advances the song by one tick.
func (s *Session) playTick() {
	if s.pattern == noPattern {
		return
	}

	s.rand = uint16(((uint32(s.rand)*0xCDEF)>>16 + 0x1727) & 0xFFFF)

	if s.tick == 0 {
		if s.patternDelay > 0 {
			s.row--
			s.rowCommands()
			s.patternDelay--
		} else {
			s.readRow()
			s.rowCommands()
		}
	} else {
		s.tickCommands()
	}

	s.tick++
	if s.tick < s.speed {
		return
	}

	s.row++
	if s.jumpRow != -1 {
		s.row = s.jumpRow
		s.jumpRow = -1
	}

	if s.row >= RowsPerPattern || (s.loopCount == 0 && s.breakPattern > 0) {
		if s.breakPattern == 255 {
			// B with FF: the row counter moves on but the tick counter is
			// left running, which is how ST3.21 behaves.
			s.breakPattern = 0
			return
		}
		s.breakPattern = 0
		if s.jumpOrder != -1 {
			if s.jumpOrder < s.order {
				s.loops++
			}
			s.order = s.jumpOrder
			s.jumpOrder = -1
		}
		s.row = s.nextOrder()
	}
	s.tick = 0
}

// nextOrder advances to the next playable order entry and returns the row
// to start on. It gives up after one pass of nothing but skip markers.
func (s *Session) nextOrder() int16 {
	var pat uint8
	skips := 0
	for {
		s.order++
		pat = s.song.Order(int(s.order) - 1)
		if pat == OrderSkip {
			skips++
			if skips >= int(s.song.Header.OrderCount) {
				s.noPlayableOrder()
				return 0
			}
			continue
		}
		if pat == OrderEnd {
			s.order = 0
			s.loops++
			if s.song.Order(0) == OrderEnd {
				s.noPlayableOrder()
				return 0
			}
			continue
		}
		break
	}

	s.pattern = int16(pat)
	s.cursor.Load(s.song.Pattern(int(pat)))
	s.row = int16(s.startRow)
	s.startRow = 0
	s.rand = 0
	s.loopStart = -1
	s.jumpRow = -1
	return s.row
}

func (s *Session) noPlayableOrder() {
	if s.pattern != noPattern {
		s.logger.Printf("no playable order entries, stopping pattern playback")
	}
	s.pattern = noPattern
	s.cursor.Load(nil)
	s.ended = true
}

// readRow decodes the current row into the channels and starts its notes.
func (s *Session) readRow() {
	for i := range s.ch {
		s.ch[i].clearEvent()
	}
	if int(s.pattern) >= int(s.song.Header.PatternCount) {
		return
	}
	s.cursor.Seek(int(s.row))

	for {
		ev, ok := s.cursor.Next(&s.song.Header.Channels)
		if !ok {
			return
		}
		c := &s.ch[ev.Channel]
		if ev.Mask&maskNoteIns != 0 {
			c.Note, c.Ins = ev.Note, ev.Ins
			if c.Note != NoteNone {
				c.LastNote = c.Note
			}
			if c.Ins > 0 {
				c.LastIns = c.Ins
			}
		}
		if ev.Mask&maskVolume != 0 {
			c.Vol = ev.Vol
		}
		if ev.Mask&maskCommand != 0 {
			c.Cmd, c.Info = ev.Cmd, ev.Info
		}
		s.startNote(int(ev.Channel), false)
	}
}

// restorePitch undoes an unfinished portamento or vibrato at a row start.
func (s *Session) restorePitch(c *ChannelState) {
	c.RetrigCount = 0
	if c.Period != c.OrigPeriod {
		c.Period = c.OrigPeriod
		s.setPeriod(c)
	}
}

// rowCommands runs tick 0 of the current row for every used channel.
func (s *Session) rowCommands() {
	vol0 := s.masterFlags&FlagVol0Opt != 0

	for i := 0; i <= int(s.lastChannel) && i < ChannelCount; i++ {
		c := &s.ch[i]
		if c.Active == 0 {
			continue
		}

		if vol0 {
			if c.Cmd != 0 || c.Volume != 0 || c.Vol != VolNone || c.Ins != 0 || c.Note != NoteNone {
				c.ZeroVolTicks = 3
			} else {
				c.ZeroVolTicks--
				if c.ZeroVolTicks == 0 {
					c.End = 0
					c.cue(65535)
					c.Active = 0
					continue
				}
			}
		}

		if c.Info > 0 {
			c.LastInfo = c.Info
		}

		if c.Cmd == 0 {
			s.restorePitch(c)
			continue
		}

		c.Active |= 128
		switch Effect(c.Cmd) {
		case EffectVolSlide:
			s.restorePitch(c)
		case EffectTremor:
			c.VibPos |= 128
		case EffectVibrato, EffectFineVibrato, EffectVibratoVolSlide, EffectTremolo:
			c.TremorCount = 0
			c.TremorOn = true
		default:
			c.TremorCount = 0
			c.TremorOn = true
			c.VibPos |= 128
		}

		if c.Cmd < uint8(effectCount) {
			s.slideKind = slidePlain
			s.rowEffect(c)
		}
	}
	s.slideKind = slidePlain
}

// tickCommands runs the between-row part of every active effect.
func (s *Session) tickCommands() {
	for i := 0; i <= int(s.lastChannel) && i < ChannelCount; i++ {
		c := &s.ch[i]
		if c.Active == 0 || c.Cmd == 0 {
			continue
		}
		c.Active |= 128
		if c.Cmd < uint8(effectCount) {
			s.slideKind = slidePlain
			s.tickEffect(c)
		}
	}
	s.slideKind = slidePlain
}
