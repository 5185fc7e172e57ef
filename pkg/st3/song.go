package st3

// Header is the decoded module header.
type Header struct {
	Name            string
	Type            uint8
	OrderCount      uint16
	InstrumentCount uint16
	PatternCount    uint16
	Flags           uint16
	TrackerVersion  uint16 // cwtv
	FormatVersion   uint16 // ffv: 1 = signed samples
	GlobalVolume    uint8
	InitialSpeed    uint8
	InitialTempo    uint8
	MasterVolume    uint8 // bit 7 = stereo
	UltraClick      uint8
	DefaultPan      uint8 // 252 when a pan table follows the pointers
	Channels        [32]uint8
}

// Stereo reports whether the song asks for stereo output.
func (h *Header) Stereo() bool {
	return h.MasterVolume&128 != 0
}

// MadeWithST3 reports whether the creation tool tag claims Scream Tracker 3.
func (h *Header) MadeWithST3() bool {
	return h.TrackerVersion>>12 == 1
}

// InstrumentKind tags the instrument variant.
type InstrumentKind uint8

const (
	KindUnused InstrumentKind = iota
	KindPCM
	KindFM
	// KindFMDrum covers the percussion types 3..7, which the replayer never plays.
	KindFMDrum
)

func (k InstrumentKind) String() string {
	switch k {
	case KindPCM:
		return "sample"
	case KindFM:
		return "adlib"
	case KindFMDrum:
		return "adlib drum"
	default:
		return "empty"
	}
}

// Instrument is either a PCM sample or an FM patch.
type Instrument struct {
	Type     uint8
	Kind     InstrumentKind
	Filename string
	Name     string
	Volume   uint8
	C2Spd    uint32

	// PCM sample fields
	Length    uint32
	LoopBegin uint32
	LoopEnd   uint32
	Looped    bool
	Packing   uint8
	GUSAddr   uint16
	// Data holds Length signed samples followed by SamplePadding+1 bytes of
	// loop unroll or fade-out tail. Nil when the file carried no sample body.
	Data []int8

	bodyOffset int

	// FM patch fields: the eleven register bytes D00..D0A.
	FMRegs [11]uint8
}

// Song is the immutable result of loading a module.
type Song struct {
	Header      Header
	Orders      []uint8
	Instruments [MaxInstruments]Instrument
	Patterns    [][]byte
	DefaultPans [32]uint8

	// Card is the sound card detected (or forced) at load time.
	Card SoundCard
	// BrokenFMPortamento is set for songs saved by tracker versions whose FM
	// tone portamento updated the slide origin even when a slide was running.
	BrokenFMPortamento bool
}

// Order returns the order list entry at i; entries past the list read as OrderEnd.
func (s *Song) Order(i int) uint8 {
	if i < 0 || i >= len(s.Orders) || i >= int(s.Header.OrderCount) {
		return OrderEnd
	}
	return s.Orders[i]
}

// Pattern returns the packed rows of pattern p, or nil when absent.
func (s *Song) Pattern(p int) []byte {
	if p < 0 || p >= len(s.Patterns) {
		return nil
	}
	return s.Patterns[p]
}

// Instrument returns the 1-based instrument n, or nil for out of range numbers.
func (s *Song) Instrument(n int) *Instrument {
	if n < 1 || n > MaxInstruments {
		return nil
	}
	return &s.Instruments[n-1]
}

// PCMCount returns the number of PCM sample instruments.
func (s *Song) PCMCount() int {
	n := 0
	for i := 0; i < int(s.Header.InstrumentCount) && i < MaxInstruments; i++ {
		if s.Instruments[i].Kind == KindPCM {
			n++
		}
	}
	return n
}

// HasFM reports whether any channel is mapped to an FM melody channel.
func (s *Song) HasFM() bool {
	for _, c := range s.Header.Channels {
		if c&128 == 0 && c >= fmFirst && c < fmFirst+FMChannels {
			return true
		}
	}
	return false
}
