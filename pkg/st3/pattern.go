package st3

// Event mask bits of a packed pattern entry.
const (
	maskChannel    = 0x1F
	maskNoteIns    = 0x20
	maskVolume     = 0x40
	maskCommand    = 0x80
	rowTerminator  = 0
	muteChannelBit = 0x80
)

// Event is one decoded channel entry of a pattern row.
type Event struct {
	// Channel is the virtual channel the entry was routed to.
	Channel uint8
	Mask    uint8
	Note    uint8
	Ins     uint8
	Vol     uint8
	Cmd     uint8
	Info    uint8
}

// PatternDecoder walks the packed rows of one pattern. Every read is
// bounds checked; running off the data behaves like a row terminator.
type PatternDecoder struct {
	data   []byte
	off    int
	seeked bool
}

// Load selects new pattern data and forces a reseek.
func (d *PatternDecoder) Load(data []byte) {
	d.data = data
	d.Invalidate()
}

// Invalidate forces the next Seek to scan from row 0.
func (d *PatternDecoder) Invalidate() {
	d.off = 0
	d.seeked = false
}

// Valid reports whether pattern data is loaded.
func (d *PatternDecoder) Valid() bool {
	return d.data != nil
}

func (d *PatternDecoder) next() (byte, bool) {
	if d.off >= len(d.data) {
		return 0, false
	}
	b := d.data[d.off]
	d.off++
	return b, true
}

// Seek positions the cursor at the start of row, unless already seeked.
func (d *PatternDecoder) Seek(row int) {
	if d.seeked || d.data == nil {
		return
	}
	d.off = 0
	d.seeked = true
	for row > 0 {
		tag, ok := d.next()
		if !ok {
			return
		}
		if tag == rowTerminator {
			row--
			continue
		}
		d.skip(tag)
	}
}

func (d *PatternDecoder) skip(tag byte) {
	if tag&maskNoteIns != 0 {
		d.off += 2
	}
	if tag&maskVolume != 0 {
		d.off++
	}
	if tag&maskCommand != 0 {
		d.off += 2
	}
}

// Next returns the next entry of the current row routed through the
// channel table. Entries on muted channels are skipped. It returns false
// at the end of the row.
func (d *PatternDecoder) Next(channels *[32]uint8) (Event, bool) {
	if d.data == nil {
		return Event{}, false
	}
	for {
		tag, ok := d.next()
		if !ok || tag == rowTerminator {
			return Event{}, false
		}
		target := channels[tag&maskChannel]
		if target&muteChannelBit != 0 || target >= ChannelCount {
			d.skip(tag)
			continue
		}

		ev := Event{Channel: target, Mask: tag}
		if tag&maskNoteIns != 0 {
			ev.Note, _ = d.next()
			ev.Ins, _ = d.next()
		}
		if tag&maskVolume != 0 {
			ev.Vol, _ = d.next()
		}
		if tag&maskCommand != 0 {
			ev.Cmd, _ = d.next()
			ev.Info, _ = d.next()
		}
		return ev, true
	}
}
