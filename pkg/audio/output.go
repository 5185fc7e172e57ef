package audio

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Output is a sink for interleaved 16-bit samples
type Output interface {
	Open(sampleRate, channels, bufferSize int) error
	Close() error
	Write(samples []int16) error
	IsPlaying() bool
}

// Source produces interleaved stereo frames, filling the whole slice
type Source interface {
	Render(out []int16)
}

var (
	// ErrAlreadyPlaying is returned by Start on a running player
	ErrAlreadyPlaying = errors.New("audio: already playing")
	// ErrClosed is returned by writes to an output that is not open
	ErrClosed = errors.New("audio: output not open")
)

// writeRetryDelay is how long the pump backs off after a failed write.
const writeRetryDelay = 10 * time.Millisecond

// Player pumps frames from a Source into a stereo Output on its own
// goroutine. Pausing keeps the output fed with silence.
type Player struct {
	source Source
	output Output

	paused atomic.Bool

	mu      sync.Mutex
	quit    chan struct{}
	wg      sync.WaitGroup
	onError func(error)
}

// NewPlayer creates a new audio player
func NewPlayer(source Source, output Output) *Player {
	return &Player{source: source, output: output}
}

// OnError installs a callback for output write failures
func (p *Player) OnError(fn func(error)) {
	p.mu.Lock()
	p.onError = fn
	p.mu.Unlock()
}

// Start opens the output and starts pumping. bufferSize is in frames.
func (p *Player) Start(sampleRate, bufferSize int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.quit != nil {
		return ErrAlreadyPlaying
	}
	if err := p.output.Open(sampleRate, 2, bufferSize); err != nil {
		return err
	}

	p.quit = make(chan struct{})
	p.wg.Add(1)
	go p.pump(p.quit, make([]int16, bufferSize*2), p.onError)
	return nil
}

// Stop waits for the pump to finish and closes the output
func (p *Player) Stop() {
	p.mu.Lock()
	quit := p.quit
	p.quit = nil
	p.mu.Unlock()

	if quit == nil {
		return
	}
	close(quit)
	p.wg.Wait()
	p.output.Close()
}

// Pause writes silence instead of rendering
func (p *Player) Pause() { p.paused.Store(true) }

// Resume continues rendering
func (p *Player) Resume() { p.paused.Store(false) }

// IsPaused reports whether Pause is in effect
func (p *Player) IsPaused() bool { return p.paused.Load() }

// IsPlaying reports whether the pump runs
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quit != nil
}

func (p *Player) pump(quit <-chan struct{}, buf []int16, onError func(error)) {
	defer p.wg.Done()

	for {
		select {
		case <-quit:
			return
		default:
		}

		if p.paused.Load() {
			clear(buf)
		} else {
			p.source.Render(buf)
		}

		if err := p.output.Write(buf); err != nil {
			if onError != nil {
				onError(err)
			}
			select {
			case <-quit:
				return
			case <-time.After(writeRetryDelay):
			}
		}
	}
}
