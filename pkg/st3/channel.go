package st3

// ChannelState is the register set of one virtual channel. Field widths
// follow the tracker's own so that wraparound behaves the same.
type ChannelState struct {
	Num uint8
	// Active: bit 0 set when a row touched the channel, bit 7 when
	// something changed during the current tick. Zero means idle.
	Active uint8

	// Row event, refreshed every row
	Note, Ins, Vol, Cmd, Info uint8

	// Parameter memory
	LastNote      uint8
	LastIns       uint8
	LastInfo      uint8 // shared by most effects
	LastVibInfo   uint8 // H/U
	LastPortaInfo uint8 // G

	Volume     int8 // current
	OrigVolume int8 // as authored, target of tremolo/tremor

	Period      int16 // current, after vibrato/arpeggio
	OrigPeriod  int16 // base pitch, moved by slides
	PortaTarget int16 // tone portamento destination
	C2Spd       uint16

	VibPos      int16
	WaveControl uint8 // bits 1-3 vibrato waveform, bits 5-7 tremolo waveform
	Glissando   bool

	TremorOn     bool
	TremorCount  uint8
	RetrigCount  uint8
	CutCount     uint8
	DelayCount   uint8
	ZeroVolTicks uint8

	StartOffset uint16
	LastOffset  uint16

	Pan     uint8 // 0xF0|pan when a pan was set
	MixType uint8 // SAx

	// FM state
	FMIns       uint8
	FMRetrig    uint8 // 1 = key on, 254 = key off only
	FMRetrigVol uint8
	HzLo, HzHi  uint16

	// Staged for the backend
	Sample    []int8
	MixVol    uint8
	Pos       uint32
	End       uint32
	Loop      uint32
	Delta     uint32 // 16.16 step at the note mixing rate
	Retrigger bool
}

// LoopDisabled is the Loop value of a one-shot voice.
const LoopDisabled = 65535

func (c *ChannelState) reset(num int) {
	*c = ChannelState{
		Num:    uint8(num),
		Active: 128,
		FMIns:  101,
	}
}

func (c *ChannelState) clearEvent() {
	c.Note = NoteNone
	c.Vol = VolNone
	c.Ins = 0
	c.Cmd = 0
	c.Info = 0
}

// recallInfo substitutes the last nonzero info byte for a zero one.
func (c *ChannelState) recallInfo() {
	if c.Info == 0 {
		c.Info = c.LastInfo
	}
}

// cue stages a voice restart at pos.
func (c *ChannelState) cue(pos uint32) {
	c.Pos = pos
	c.Retrigger = true
}

func clampVolume(v int8) int8 {
	if v < 0 {
		return 0
	}
	if v > 63 {
		return 63
	}
	return v
}
