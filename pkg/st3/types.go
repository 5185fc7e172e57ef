package st3

// Replayer limits
const (
	ChannelCount   = 48
	MaxOrders      = 256
	MaxInstruments = 99
	MaxPatterns    = 100
	RowsPerPattern = 64

	// PCMChannels is the number of sample channels driven through the backend.
	PCMChannels = 16
	// FMChannels is the number of melodic FM channels following the PCM ones.
	FMChannels = 9
	fmFirst    = 16

	// C2Freq is the reference playback rate of middle C.
	C2Freq = 8363

	// SamplePadding is the tail the loader appends after every PCM sample.
	SamplePadding = 512
)

// Note and field sentinels in pattern data
const (
	NoteNone = 255
	NoteOff  = 254
	VolNone  = 255
)

// Order list markers
const (
	OrderSkip = 254
	OrderEnd  = 255
)

// Song flags (header.flags)
const (
	FlagOldVibrato  = 1
	FlagVol0Opt     = 8
	FlagAmigaLimits = 16
	FlagFastSlides  = 64
)

// SoundCard selects which historical output path the replayer emulates.
type SoundCard int

const (
	// CardAuto lets the loader detect the card from the file.
	CardAuto SoundCard = iota - 1
	CardGUS
	CardSBPro
)

func (c SoundCard) String() string {
	switch c {
	case CardGUS:
		return "Gravis Ultrasound"
	case CardSBPro:
		return "Sound Blaster Pro"
	default:
		return "auto"
	}
}

// ParseSoundCard maps a user supplied name to a SoundCard.
func ParseSoundCard(name string) (SoundCard, bool) {
	switch name {
	case "", "auto":
		return CardAuto, true
	case "gus":
		return CardGUS, true
	case "sb", "sbpro":
		return CardSBPro, true
	}
	return CardAuto, false
}

// noteMixingRate is the rate ST3 believed its mixer ran at; pitch deltas are relative to it.
func noteMixingRate(card SoundCard, stereo bool) uint32 {
	if card == CardGUS {
		return 38587
	}
	if stereo {
		return 22000
	}
	return 43478
}
