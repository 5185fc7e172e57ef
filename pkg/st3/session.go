package st3

import (
	"errors"
	"io"
	"log"
	"sync"
)

// Output limits
const (
	MinOutputRate = 8000
	MaxOutputRate = 384000
	MaxMixVolume  = 256
)

// ErrNotLoaded is returned when playback is requested without a song.
var ErrNotLoaded = errors.New("no song loaded")

// Position is a snapshot of the song position.
type Position struct {
	Order   int
	Pattern int
	Row     int
	Tick    int
	Speed   int
	Tempo   int
}

// Session plays one song through a SoundBackend. The scheduler runs from
// Render, one tick at a time; control calls take the same lock so they
// land between ticks.
type Session struct {
	mu      sync.Mutex
	song    *Song
	backend SoundBackend
	fm      FMPort
	mixer   Renderer
	logger  *log.Logger

	outputRate uint32
	card       SoundCard
	noteRate   uint32
	stereo     bool
	playing    bool
	stopped    bool // silence pending for the next render
	halted     bool // stopped until Play or StartAt
	ended      bool
	loops      int

	masterFlags  uint16
	oldVibrato   bool
	fastSlides   bool
	amigaLimits  bool
	periodMin    int16
	periodMax    int16
	globalVol    uint8
	useGlobalVol uint32

	ch          [ChannelCount]ChannelState
	pushed      [PCMChannels]pushed
	lastChannel int8
	cursor      PatternDecoder

	order        int16
	row          int16
	pattern      int16
	tick         uint8
	speed        uint8
	bpm          uint8
	patternDelay int8
	loopStart    int16
	loopCount    int8
	jumpRow      int16
	jumpOrder    int16
	breakPattern uint8
	startRow     uint8
	rand         uint16
	slideKind    uint8

	fmUsed bool
	fmMem  [256]uint8

	samplesPerTick uint64
	tickLeft       uint32
	tickFrac       uint64
	mixL, mixR     []float32
	mixGain        float32
	seed           uint32
	ditherL        float32
	ditherR        float32
}

// NewSession creates a session rendering at outputRate through backend.
func NewSession(backend SoundBackend, outputRate int) *Session {
	if outputRate < MinOutputRate {
		outputRate = MinOutputRate
	}
	if outputRate > MaxOutputRate {
		outputRate = MaxOutputRate
	}
	s := &Session{
		backend:    backend,
		outputRate: uint32(outputRate),
		logger:     log.New(io.Discard, "", 0),
		pattern:    noPattern,
	}
	s.fm, _ = backend.(FMPort)
	s.mixer, _ = backend.(Renderer)
	s.setMixingVolume(MaxMixVolume)
	return s
}

// SetLogger routes playback messages to l.
func (s *Session) SetLogger(l *log.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil {
		l = log.New(io.Discard, "", 0)
	}
	s.logger = l
}

// Load attaches a song and stops any running playback.
func (s *Session) Load(song *Song) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.song = song
	s.playing = false
	s.pattern = noPattern
}

// IsLoaded reports whether a song is attached.
func (s *Session) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song != nil
}

// Song returns the attached song.
func (s *Session) Song() *Song {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.song
}

// Card returns the sound card the session emulates.
func (s *Session) Card() SoundCard {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

// Stereo reports whether the playing song runs in stereo mode.
func (s *Session) Stereo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stereo
}

// FMUsed reports whether an FM channel has played a note since Play.
func (s *Session) FMUsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fmUsed
}

// Play resets all playback state and starts from order.
func (s *Session) Play(order int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.song == nil {
		return ErrNotLoaded
	}

	s.fmUsed = false
	s.card = s.song.Card
	if s.card == CardAuto {
		s.card = CardGUS
	}
	s.stereo = s.song.Header.Stereo()
	s.noteRate = noteMixingRate(s.card, s.stereo)
	s.backend.Reset(Mode{Card: s.card, NoteRate: s.noteRate, Stereo: s.stereo})
	s.initFM()

	s.applyHeader()
	s.resetState()
	s.applyDefaultPans()

	s.cursor.Load(nil)
	s.order = int16(order & 0xFF)
	s.ended = false
	s.loops = 0
	s.nextOrder()
	s.tick = 0

	s.resetDither()
	s.tickLeft, s.tickFrac = 0, 0
	s.playing = true
	s.stopped = false
	s.halted = false

	s.logger.Printf("playing %q from order %d (%s, %s)", s.song.Header.Name, order, s.card, stereoName(s.stereo))
	return nil
}

func stereoName(stereo bool) string {
	if stereo {
		return "stereo"
	}
	return "mono"
}

// applyHeader derives the song-wide settings from the header.
func (s *Session) applyHeader() {
	h := &s.song.Header

	s.oldVibrato = h.Flags&FlagOldVibrato != 0

	// a tempo the card ignores must not leave the tick length unset
	s.samplesPerTick = samplesPerTick(s.card, 125, s.outputRate)
	s.bpm = 125
	if h.InitialTempo != 0 {
		s.setTempo(h.InitialTempo)
	}

	if h.InitialSpeed != 255 {
		s.setSpeed(h.InitialSpeed)
	} else {
		s.setSpeed(6)
	}
	if s.speed == 0 {
		s.speed = 6
	}

	if h.GlobalVolume != 255 {
		s.setGlobalVolume(h.GlobalVolume)
	} else {
		s.setGlobalVolume(64)
	}

	s.masterFlags = h.Flags
	if h.Flags == 255 {
		s.masterFlags = 0
	}
	s.fastSlides = s.masterFlags&FlagFastSlides != 0
	s.amigaLimits = s.masterFlags&FlagAmigaLimits != 0
	if s.amigaLimits {
		s.periodMin, s.periodMax = 453, 3424
	} else {
		s.periodMin, s.periodMax = 64, 32767
	}
}

// resetState clears the scheduler and silences every channel.
func (s *Session) resetState() {
	s.jumpOrder = -1
	s.tick = 0
	s.patternDelay = 0
	s.loopStart = 0
	s.loopCount = 0
	s.row = 0
	s.pattern = 0
	s.startRow = 0
	s.breakPattern = 0
	s.jumpRow = -1
	s.slideKind = slidePlain
	s.silence()
}

// silence resets every channel and stops all backend voices.
func (s *Session) silence() {
	for i := range s.ch {
		s.ch[i].reset(i)
	}
	s.lastChannel = 1
	for i := range s.pushed {
		s.pushed[i] = pushed{}
		s.backend.Stop(i)
	}
}

func (s *Session) applyDefaultPans() {
	for i, p := range s.song.DefaultPans {
		if p&32 != 0 {
			s.ch[i].Pan = 0xF0 | p&0x0F
		}
	}
}

// StartAt jumps to order and row at the next tick.
func (s *Session) StartAt(order, row int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startAt(order, row)
}

func (s *Session) startAt(order, row int) {
	if s.song == nil {
		return
	}
	if s.pattern == noPattern {
		s.pattern = 0
	}
	s.startRow = uint8(row & 0x3F)
	s.order = int16(order & 0xFF)
	s.breakPattern = 1
	s.tick = s.speed
	s.ended = false
	s.playing = true
	s.stopped = false
	s.halted = false
}

// Seek silences the song and moves delta orders away from the current one.
func (s *Session) Seek(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.song == nil {
		return
	}
	// order already points one past the playing entry
	target := int(s.order) - 1 + delta
	if target < 0 {
		target = 0
	}
	s.silence()
	s.applyDefaultPans()
	s.startAt(target, 0)
}

// Stop halts playback; the voices are silenced at the next render.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.stopped = true
	s.halted = true
}

// TogglePause pauses or resumes without touching the song state. A stopped
// session stays stopped.
func (s *Session) TogglePause() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.song != nil && !s.halted {
		s.playing = !s.playing
	}
	return !s.playing
}

// Playing reports whether ticks are being generated.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// SetGlobalVolume sets the song global volume, 0..64.
func (s *Session) SetGlobalVolume(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v < 0 {
		v = 0
	}
	if v > 64 {
		v = 64
	}
	s.setGlobalVolume(uint8(v))
}

// SetMixingVolume sets the output gain, 0..256.
func (s *Session) SetMixingVolume(v int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMixingVolume(v)
}

func (s *Session) setMixingVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > MaxMixVolume {
		v = MaxMixVolume
	}
	s.mixGain = float32(v) * 128
}

// Position returns the current order, pattern and row.
func (s *Session) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Position{
		Order:   int(s.order) - 1,
		Pattern: int(s.pattern),
		Row:     int(s.row),
		Tick:    int(s.tick),
		Speed:   int(s.speed),
		Tempo:   int(s.bpm),
	}
}

// Loops returns how often the song wrapped or jumped backwards.
func (s *Session) Loops() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loops
}

// Ended reports whether the order list ran out of playable entries.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// Channel returns a copy of the state of channel i.
func (s *Session) Channel(i int) ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= ChannelCount {
		return ChannelState{}
	}
	return s.ch[i]
}

// ActiveVoices returns the number of sounding PCM and FM voices.
func (s *Session) ActiveVoices() (pcm, fm int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if vc, ok := s.backend.(VoiceCounter); ok {
		pcm = vc.ActiveVoices()
	} else {
		for i := 0; i < PCMChannels; i++ {
			c := &s.ch[i]
			if c.Sample != nil && c.Delta != 0 && c.Pos != 0xFFFFFFFF && c.MixVol > 0 {
				pcm++
			}
		}
	}
	for i := fmFirst; i < fmFirst+FMChannels; i++ {
		c := &s.ch[i]
		if c.Delta != 0 && c.MixVol > 0 && c.FMIns > 0 {
			fm++
		}
	}
	return pcm, fm
}

// Tick runs one scheduler tick and pushes the result to the backend.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.song == nil {
		return
	}
	s.runTick()
}

func (s *Session) runTick() {
	s.playTick()
	s.commit()
}

// commit ends a tick: clears the per-tick change bits and updates the backend.
func (s *Session) commit() {
	for i := range s.ch {
		s.ch[i].Active &= 127
	}
	for i := 0; i < PCMChannels; i++ {
		s.pushChannel(i)
	}
	if s.fmUsed {
		s.updateFM()
	}
	s.backend.CommitTick()
}

func (s *Session) resetDither() {
	s.seed = 0x12345000
	s.ditherL, s.ditherR = 0, 0
}

func (s *Session) random() int32 {
	s.seed = s.seed*134775813 + 1
	return int32(s.seed)
}

// Render fills out with interleaved stereo 16-bit frames, running as many
// ticks as the frames span.
func (s *Session) Render(out []int16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frames := len(out) / 2
	if s.stopped {
		s.stopped = false
		if s.song != nil {
			s.silence()
			s.applyDefaultPans()
			s.backend.CommitTick()
		}
	}
	if s.song == nil || !s.playing || s.samplesPerTick>>32 == 0 {
		clear(out)
		return
	}

	if cap(s.mixL) < frames {
		s.mixL = make([]float32, frames)
		s.mixR = make([]float32, frames)
	}
	mixL, mixR := s.mixL[:frames], s.mixR[:frames]
	clear(mixL)
	clear(mixR)

	for pos := 0; pos < frames; {
		if s.tickLeft == 0 {
			s.runTick()
			s.tickLeft = uint32(s.samplesPerTick >> 32)
			s.tickFrac += s.samplesPerTick & 0xFFFFFFFF
			if s.tickFrac > 0xFFFFFFFF {
				s.tickFrac &= 0xFFFFFFFF
				s.tickLeft++
			}
		}

		n := frames - pos
		if uint32(n) > s.tickLeft {
			n = int(s.tickLeft)
		}
		if s.mixer != nil {
			s.mixer.Mix(mixL[pos:pos+n], mixR[pos:pos+n])
		}
		pos += n
		s.tickLeft -= uint32(n)
	}

	const scale = 1.0 / (1 << 32)
	for i := 0; i < frames; i++ {
		d := float32(s.random()) * scale
		v := mixL[i]*s.mixGain + d - s.ditherL
		s.ditherL = d
		out[2*i] = clamp16(v)

		d = float32(s.random()) * scale
		v = mixR[i]*s.mixGain + d - s.ditherR
		s.ditherR = d
		out[2*i+1] = clamp16(v)
	}
}

func clamp16(v float32) int16 {
	if v <= -32768 {
		return -32768
	}
	if v >= 32767 {
		return 32767
	}
	return int16(v)
}
