package mixer

import "github.com/olivierh59500/s3m-player/pkg/st3"

// Start is a sample start seen by the Recorder.
type Start struct {
	Pos       uint32
	LoopStart uint32
	End       uint32
	Looped    bool
}

// ChannelParams is the state of one PCM channel at the end of a tick.
type ChannelParams struct {
	Delta   uint32
	Volume  uint8
	Pan     uint8
	Start   *Start
	Stopped bool
}

// FMWrite is one OPL2 register write.
type FMWrite struct {
	Reg, Val uint8
}

// Tick is everything a backend received during one tick.
type Tick struct {
	Channels [st3.PCMChannels]ChannelParams
	FM       []FMWrite
}

// Recorder is a SoundBackend that keeps the parameter stream instead of
// producing sound.
type Recorder struct {
	Mode  st3.Mode
	Ticks []Tick

	cur Tick
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Reset(m st3.Mode) {
	r.Mode = m
	r.cur = Tick{}
}

func (r *Recorder) SetFrequency(ch int, delta uint32) { r.cur.Channels[ch].Delta = delta }
func (r *Recorder) SetVolume(ch int, vol uint8)       { r.cur.Channels[ch].Volume = vol }
func (r *Recorder) SetPan(ch int, pan uint8)          { r.cur.Channels[ch].Pan = pan }

func (r *Recorder) Trigger(ch int, v st3.Voice) {
	r.cur.Channels[ch].Start = &Start{Pos: v.Pos, LoopStart: v.LoopStart, End: v.End, Looped: v.Looped}
	r.cur.Channels[ch].Stopped = false
}

func (r *Recorder) Stop(ch int) {
	r.cur.Channels[ch].Start = nil
	r.cur.Channels[ch].Stopped = true
}

func (r *Recorder) WriteFM(reg, val uint8) {
	r.cur.FM = append(r.cur.FM, FMWrite{reg, val})
}

// CommitTick stores the tick; pitch, volume and pan carry over to the next one.
func (r *Recorder) CommitTick() {
	r.Ticks = append(r.Ticks, r.cur)
	next := Tick{}
	for i, c := range r.cur.Channels {
		next.Channels[i] = ChannelParams{Delta: c.Delta, Volume: c.Volume, Pan: c.Pan}
	}
	r.cur = next
}

// Last returns the most recent tick, or nil before the first commit.
func (r *Recorder) Last() *Tick {
	if len(r.Ticks) == 0 {
		return nil
	}
	return &r.Ticks[len(r.Ticks)-1]
}
