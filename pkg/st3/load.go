package st3

import (
	"errors"
	"fmt"
	"os"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"

	"github.com/olivierh59500/s3m-player/pkg/lha"
)

const (
	headerSize     = 0x60
	instrumentSize = 0x50
	maxSampleLen   = 64000
)

// Load errors. Anything else in a module is repaired rather than rejected.
var (
	ErrBadMagic           = errors.New("missing SCRM signature")
	ErrTruncated          = errors.New("file too short")
	ErrTooManyOrders      = errors.New("order count exceeds 256")
	ErrTooManyInstruments = errors.New("instrument count exceeds 99")
	ErrTooManyPatterns    = errors.New("pattern count exceeds 100")
)

// LoadOptions tune how a module is interpreted.
type LoadOptions struct {
	// Card forces a sound card; CardAuto runs the detection heuristic.
	Card SoundCard
	// Notes receives one line per repaired data anomaly when non-nil.
	Notes func(msg string)
}

func (o *LoadOptions) note(format string, args ...any) {
	if o != nil && o.Notes != nil {
		o.Notes(fmt.Sprintf(format, args...))
	}
}

// LoadFile reads a module from disk, unpacking LHA archives on the way.
func LoadFile(fileName string, opts *LoadOptions) (*Song, error) {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fault.Wrap(err, fmsg.With("failed to read file"), ftag.With(ftag.NotFound))
		}
		return nil, fault.Wrap(err, fmsg.With("failed to read file"), ftag.With(ftag.Internal))
	}

	if lha.IsArchive(data) {
		unpacked, name, err := lha.ExtractMatching(data, ".s3m")
		if err != nil {
			return nil, fault.Wrap(err, fmsg.With("failed to unpack "+lha.Method(data)+" archive"))
		}
		opts.note("unpacked %s from archive", name)
		data = unpacked
	}
	return LoadMemory(data, opts)
}

// LoadMemory decodes a module image held in memory.
func LoadMemory(data []byte, opts *LoadOptions) (*Song, error) {
	if len(data) <= headerSize {
		return nil, loadError(ErrTruncated)
	}
	if string(data[0x2C:0x30]) != "SCRM" {
		return nil, loadError(ErrBadMagic)
	}

	s := &Song{}
	h := &s.Header
	decodeHeader(h, data)

	switch {
	case h.OrderCount > MaxOrders:
		return nil, loadError(ErrTooManyOrders)
	case h.InstrumentCount > MaxInstruments:
		return nil, loadError(ErrTooManyInstruments)
	case h.PatternCount > MaxPatterns:
		return nil, loadError(ErrTooManyPatterns)
	}

	if h.TrackerVersion == 0x1300 {
		h.Flags |= FlagFastSlides
	}
	if h.FormatVersion == 1 && h.MasterVolume <= 7 {
		h.MasterVolume = [8]uint8{0x10, 0x20, 0x30, 0x40, 0x50, 0x60, 0x70, 0x7F}[h.MasterVolume]
	}
	switch h.MasterVolume {
	case 2:
		h.MasterVolume = 0x20
	case 2 + 16:
		h.MasterVolume = 0x20 + 128
	}

	// order list, then the two paragraph pointer tables
	off := headerSize
	s.Orders = make([]uint8, h.OrderCount)
	copyBytes(s.Orders, data, off)
	off += int(h.OrderCount)

	insOff := make([]int, h.InstrumentCount)
	for i := range insOff {
		insOff[i] = int(readLittleEndian16(data, off)) << 4
		off += 2
	}
	patOff := make([]int, h.PatternCount)
	for i := range patOff {
		patOff[i] = int(readLittleEndian16(data, off)) << 4
		off += 2
	}
	if h.DefaultPan == 252 {
		copyBytes(s.DefaultPans[:], data, off)
	}

	for i, o := range insOff {
		decodeInstrument(&s.Instruments[i], data, o)
	}

	s.Patterns = make([][]byte, h.PatternCount)
	for i, o := range patOff {
		if o == 0 {
			continue
		}
		n := int(readLittleEndian16(data, o)) - 2
		if n < 0 {
			n = 0
		}
		buf := make([]byte, n)
		got := copyClamped(buf, data, o+2, n)
		if got < n {
			opts.note("pattern %d truncated (%d of %d bytes)", i, got, n)
		}
		s.Patterns[i] = buf[:got]
	}

	for i := 0; i < int(h.InstrumentCount); i++ {
		loadSampleData(&s.Instruments[i], data, h.FormatVersion != 1, i, opts)
	}
	for i := range s.Instruments {
		prepareSample(&s.Instruments[i], i, opts)
	}

	s.BrokenFMPortamento = (h.TrackerVersion > 0x1301 && h.TrackerVersion <= 0x1320) ||
		(h.TrackerVersion >= 0x5131 && h.TrackerVersion <= 0x5FFF)

	s.Card = detectCard(s)
	if opts != nil && opts.Card != CardAuto {
		s.Card = opts.Card
	} else {
		opts.note("sound card detected: %s", s.Card)
	}
	return s, nil
}

func loadError(err error) error {
	return fault.Wrap(err, fmsg.With("not a loadable S3M module"), ftag.With(ftag.InvalidArgument))
}

func copyBytes(dst []uint8, data []byte, off int) {
	copyClamped(dst, data, off, len(dst))
}

func decodeHeader(h *Header, data []byte) {
	h.Name = readString(data, 0, 27)
	h.Type = data[0x1D]
	h.OrderCount = readLittleEndian16(data, 0x20)
	h.InstrumentCount = readLittleEndian16(data, 0x22)
	h.PatternCount = readLittleEndian16(data, 0x24)
	h.Flags = readLittleEndian16(data, 0x26)
	h.TrackerVersion = readLittleEndian16(data, 0x28)
	h.FormatVersion = readLittleEndian16(data, 0x2A)
	h.GlobalVolume = data[0x30]
	h.InitialSpeed = data[0x31]
	h.InitialTempo = data[0x32]
	h.MasterVolume = data[0x33]
	h.UltraClick = data[0x34]
	h.DefaultPan = data[0x35]
	copy(h.Channels[:], data[0x40:0x60])
}

// decodeInstrument reads the 0x50 byte instrument block at off.
func decodeInstrument(in *Instrument, data []byte, off int) {
	in.Type = byteAt(data, off)
	in.Filename = readString(data, off+1, 12)
	in.Volume = byteAt(data, off+28)
	in.C2Spd = readLittleEndian32(data, off+32)
	in.Name = readString(data, off+48, 28)

	switch in.Type {
	case 1:
		in.Kind = KindPCM
		in.Length = readLittleEndian32(data, off+16)
		in.LoopBegin = readLittleEndian32(data, off+20)
		in.LoopEnd = readLittleEndian32(data, off+24)
		in.Packing = byteAt(data, off+30)
		in.Looped = byteAt(data, off+31)&1 != 0
		in.GUSAddr = readLittleEndian16(data, off+40)
		if body, ok := sampleOffset(data, off); ok {
			in.bodyOffset = body
		}
	case 2:
		in.Kind = KindFM
		copyBytes(in.FMRegs[:], data, off+16)
	case 3, 4, 5, 6, 7:
		in.Kind = KindFMDrum
		copyBytes(in.FMRegs[:], data, off+16)
	default:
		in.Kind = KindUnused
	}
}

// sampleOffset decodes the 24 bit paragraph pointer spread over memseg2/memseg.
func sampleOffset(data []byte, insOff int) (int, bool) {
	seg := int(readLittleEndian16(data, insOff+14))
	if seg == 0 {
		return 0, false
	}
	return seg<<4 + int(byteAt(data, insOff+13))<<20, true
}

func loadSampleData(in *Instrument, data []byte, unsigned bool, index int, opts *LoadOptions) {
	if in.Kind != KindPCM || in.bodyOffset == 0 {
		return
	}
	off := in.bodyOffset
	if off >= len(data) {
		opts.note("sample %d body lies past end of file", index+1)
		in.Length = 0
		return
	}
	if uint64(off)+uint64(in.Length) > uint64(len(data)) {
		opts.note("sample %d length clamped from %d to %d", index+1, in.Length, len(data)-off)
		in.Length = uint32(len(data) - off)
	}

	in.Data = make([]int8, int(in.Length)+SamplePadding+1)
	body := data[off : off+int(in.Length)]
	for i, b := range body {
		if unsigned {
			b ^= 0x80
		}
		in.Data[i] = int8(b)
	}
}
