package st3

// prepareSample clamps a PCM sample's header values and fills the padding
// tail: looping samples get their loop start copied past the loop end,
// one-shots get a short ramp from the last value towards zero.
func prepareSample(in *Instrument, index int, opts *LoadOptions) {
	if in.Kind != KindPCM {
		return
	}
	if in.Length == 0 {
		in.Looped = false
		return
	}

	if in.Volume > 64 {
		in.Volume = 64
	}
	if in.C2Spd > 65535 {
		in.C2Spd = 65535
	}
	if in.Length > maxSampleLen {
		opts.note("sample %d length %d clamped to %d", index+1, in.Length, maxSampleLen)
		in.Length = maxSampleLen
	}

	if in.LoopEnd == in.LoopBegin {
		in.Looped = false
	}
	if in.LoopEnd < in.LoopBegin {
		opts.note("sample %d loop end before loop start", index+1)
		in.LoopEnd = in.LoopBegin + 1
	}
	if in.LoopBegin > in.Length {
		in.LoopBegin = in.Length
	}
	if in.LoopEnd > in.Length {
		in.LoopEnd = in.Length
	}

	p := in.Data
	if p == nil {
		return
	}

	if in.Looped {
		for i := int(in.Length) - 1; i >= int(in.LoopEnd); i-- {
			p[i+SamplePadding] = p[i]
		}
		u, v := int(uint16(in.LoopEnd)), int(uint16(in.LoopBegin))
		for i := 0; i < SamplePadding; i++ {
			p[u+i] = p[v+i]
		}
		return
	}

	end := int(in.Length)
	a := p[end-1]
	for i := 0; i < SamplePadding; i++ {
		p[end+i] = a
		if a > 0 {
			a -= 4
			if a < 0 {
				a = 0
			}
		} else if a < 0 {
			a += 4
			if a > 0 {
				a = 0
			}
		}
	}
}

// detectCard guesses which card the song was written for. ST3 wrote a GUS
// address of 1 into every sample header when saving with a Sound Blaster,
// so an ST3 song with two or more samples whose addresses OR to at most 1
// is an SB song. Some other trackers claim to be ST3.20; their all-zero
// addresses give them away.
func detectCard(s *Song) SoundCard {
	h := &s.Header
	madeWithST3 := h.MadeWithST3()

	var gusOR uint16
	n := int(h.InstrumentCount)
	for i := 0; i < n; i++ {
		if s.Instruments[i].Kind == KindPCM {
			gusOR |= s.Instruments[i].GUSAddr
		}
	}

	if madeWithST3 && h.TrackerVersion == 0x1320 && gusOR == 0 {
		madeWithST3 = false
	}
	if madeWithST3 && s.PCMCount() >= 2 && gusOR <= 1 {
		return CardSBPro
	}
	return CardGUS
}
