package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// drainTimeout bounds how long Close waits for queued audio to play out.
const drainTimeout = 250 * time.Millisecond

// device is the process wide oto context. oto allows a single context, so
// every output shares it and must agree on its format.
var device struct {
	sync.Mutex
	ctx      *oto.Context
	rate     int
	channels int
}

func openDevice(sampleRate, channels, bufferFrames int) (*oto.Context, error) {
	device.Lock()
	defer device.Unlock()

	if device.ctx != nil {
		if device.rate != sampleRate || device.channels != channels {
			return nil, fmt.Errorf("audio device already open at %d Hz, %d channels", device.rate, device.channels)
		}
		return device.ctx, nil
	}

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   time.Duration(bufferFrames) * time.Second / time.Duration(sampleRate),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-ready

	device.ctx, device.rate, device.channels = ctx, sampleRate, channels
	return ctx, nil
}

// StreamingOtoOutput plays through the system audio device. Writes go into
// a pipe that the oto player drains, so Write blocks at device speed.
type StreamingOtoOutput struct {
	mu     sync.Mutex
	player *oto.Player
	pipe   *io.PipeWriter
	bytes  []byte
}

// NewStreamingOtoOutput creates a new streaming oto output
func NewStreamingOtoOutput() (*StreamingOtoOutput, error) {
	return &StreamingOtoOutput{}, nil
}

// Open starts the device player. bufferSize is in frames.
func (s *StreamingOtoOutput) Open(sampleRate, channels, bufferSize int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.player != nil {
		return fmt.Errorf("stream already open")
	}
	ctx, err := openDevice(sampleRate, channels, bufferSize)
	if err != nil {
		return err
	}

	r, w := io.Pipe()
	s.pipe = w
	s.player = ctx.NewPlayer(r)
	s.player.Play()
	return nil
}

// Close ends the stream once the device has played what it holds
func (s *StreamingOtoOutput) Close() error {
	s.mu.Lock()
	player, pipe := s.player, s.pipe
	s.player, s.pipe = nil, nil
	s.mu.Unlock()

	if player == nil {
		return nil
	}
	pipe.Close()
	for deadline := time.Now().Add(drainTimeout); player.BufferedSize() > 0 && time.Now().Before(deadline); {
		time.Sleep(5 * time.Millisecond)
	}
	return player.Close()
}

// Write blocks until the device has taken the samples
func (s *StreamingOtoOutput) Write(samples []int16) error {
	s.mu.Lock()
	pipe := s.pipe
	if pipe == nil {
		s.mu.Unlock()
		return ErrClosed
	}
	buf := s.bytes[:0]
	for _, v := range samples {
		buf = binary.LittleEndian.AppendUint16(buf, uint16(v))
	}
	s.bytes = buf
	s.mu.Unlock()

	_, err := pipe.Write(buf)
	return err
}

func (s *StreamingOtoOutput) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.player != nil
}

// FallbackOutput discards samples in real time, for systems without audio.
// Writes sleep until the wall clock catches up with the audio written.
type FallbackOutput struct {
	mu       sync.Mutex
	open     bool
	rate     int
	channels int
	due      time.Time
}

func NewFallbackOutput() (*FallbackOutput, error) {
	return &FallbackOutput{}, nil
}

func (f *FallbackOutput) Open(sampleRate, channels, bufferSize int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.open = true
	f.rate = sampleRate
	f.channels = max(channels, 1)
	f.due = time.Time{}
	return nil
}

func (f *FallbackOutput) Close() error {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
	return nil
}

func (f *FallbackOutput) Write(samples []int16) error {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return ErrClosed
	}
	now := time.Now()
	if f.due.Before(now) {
		f.due = now
	}
	frames := len(samples) / f.channels
	f.due = f.due.Add(time.Duration(frames) * time.Second / time.Duration(f.rate))
	wait := time.Until(f.due)
	f.mu.Unlock()

	time.Sleep(wait)
	return nil
}

func (f *FallbackOutput) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}
