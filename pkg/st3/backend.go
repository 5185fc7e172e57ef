package st3

// Mode describes the output path a backend has to emulate.
type Mode struct {
	Card SoundCard
	// NoteRate is the rate Delta values are expressed against.
	NoteRate uint32
	Stereo   bool
}

// Voice is a sample start handed to a backend. Data extends past End by
// the loader's padding, so interpolation may read one sample beyond it.
type Voice struct {
	Data      []int8
	Pos       uint32
	LoopStart uint32
	End       uint32
	Looped    bool
}

// SoundBackend receives the per-tick state of the sample channels.
// Pitch is a 16.16 step relative to Mode.NoteRate, volume is 0..64 and
// pan is 0 (left) to 15 (right).
type SoundBackend interface {
	Reset(m Mode)
	SetFrequency(ch int, delta uint32)
	SetVolume(ch int, vol uint8)
	SetPan(ch int, pan uint8)
	Trigger(ch int, v Voice)
	Stop(ch int)
	// CommitTick marks the end of one tick's updates.
	CommitTick()
}

// FMPort is implemented by backends that accept OPL2 register writes.
type FMPort interface {
	WriteFM(reg, val uint8)
}

// Renderer is implemented by backends that mix their voices in software.
// Mix adds len(left) frames to both buffers.
type Renderer interface {
	Mix(left, right []float32)
}

// VoiceCounter is implemented by backends that know how many voices sound.
type VoiceCounter interface {
	ActiveVoices() int
}

// pushed caches what the backend last received for a channel.
type pushed struct {
	live  bool
	delta uint32
	vol   uint8
	pan   uint8
}

// channelPan returns the backend pan of a PCM channel.
func (s *Session) channelPan(c *ChannelState) uint8 {
	if s.card == CardGUS {
		if s.stereo && c.Pan >= 0xF0 {
			return c.Pan & 0x0F
		}
		if !s.stereo {
			return 7
		}
	} else if !s.stereo {
		return 7
	}

	pan := uint8(0x03)
	if c.Num >= 8 {
		pan = 0x0C
	}
	if s.card == CardSBPro && c.MixType == 1 {
		pan = 15 - pan
	}
	return pan
}

// pushChannel forwards the staged state of PCM channel i.
func (s *Session) pushChannel(i int) {
	c := &s.ch[i]
	p := &s.pushed[i]
	force := false

	if c.Retrigger {
		c.Retrigger = false
		if uint16(c.End) == 0 || c.Sample == nil {
			s.backend.Stop(i)
			p.live = false
			return
		}
		s.backend.Trigger(i, Voice{
			Data:      c.Sample,
			Pos:       c.Pos,
			LoopStart: c.Loop,
			End:       c.End,
			Looped:    uint16(c.Loop) != LoopDisabled,
		})
		p.live = true
		force = true
	}
	if !p.live {
		return
	}

	if force || p.delta != c.Delta {
		p.delta = c.Delta
		s.backend.SetFrequency(i, c.Delta)
	}
	if force || p.vol != c.MixVol {
		p.vol = c.MixVol
		s.backend.SetVolume(i, c.MixVol)
	}
	if pan := s.channelPan(c); force || p.pan != pan {
		p.pan = pan
		s.backend.SetPan(i, pan)
	}
}
