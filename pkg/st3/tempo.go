package st3

// pitClock is the nominal PC timer crystal rate in Hz.
const pitClock = 157500000.0 / 132.0

// samplesPerTick returns the tick length at rate in 32.32 fixed point.
// The GUS path reproduces the rounding of the PC timer ST3 programmed;
// the Sound Blaster path is the exact 2.5 s / bpm ratio.
func samplesPerTick(card SoundCard, bpm uint8, rate uint32) uint64 {
	b := int(bpm)
	if b == 0 {
		b = 1
	}

	var spt float64
	if card == CardGUS {
		hz := b * 50 / 125
		if hz < 19 {
			hz = 19
		}
		period := 1193180 / hz
		spt = float64(rate) * float64(period) / pitClock
	} else {
		spt = float64(rate) * 125 / float64(b*50)
	}
	return uint64(spt*(1<<32) + 0.5)
}

func (s *Session) setTempo(bpm uint8) {
	if s.card == CardSBPro && bpm <= 0x20 {
		return
	}
	s.bpm = bpm
	s.samplesPerTick = samplesPerTick(s.card, bpm, s.outputRate)
}

func (s *Session) setSpeed(v uint8) {
	if v > 0 {
		s.speed = v
	}
}
