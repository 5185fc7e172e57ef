package audio

import "sync"

// CaptureOutput keeps everything written to it in memory
type CaptureOutput struct {
	mu         sync.Mutex
	open       bool
	sampleRate int
	channels   int
	samples    []int16
}

// NewCaptureOutput creates an empty capture
func NewCaptureOutput() *CaptureOutput {
	return &CaptureOutput{}
}

func (c *CaptureOutput) Open(sampleRate, channels, bufferSize int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.open = true
	c.sampleRate = sampleRate
	c.channels = channels
	c.samples = make([]int16, 0, bufferSize*channels*8)
	return nil
}

// Close stops accepting samples but keeps the ones captured so far
func (c *CaptureOutput) Close() error {
	c.mu.Lock()
	c.open = false
	c.mu.Unlock()
	return nil
}

func (c *CaptureOutput) Write(samples []int16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return ErrClosed
	}
	c.samples = append(c.samples, samples...)
	return nil
}

func (c *CaptureOutput) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// Samples returns a copy of the captured samples
func (c *CaptureOutput) Samples() []int16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int16(nil), c.samples...)
}

// Format returns the rate and channel count given to Open
func (c *CaptureOutput) Format() (sampleRate, channels int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sampleRate, c.channels
}
