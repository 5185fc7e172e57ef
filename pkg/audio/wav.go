package audio

import (
	"fmt"
	"os"
	"sync"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVOutput writes 16-bit PCM to a WAV file
type WAVOutput struct {
	filename string
	file     *os.File
	enc      *wav.Encoder
	buf      *audio.IntBuffer
	frames   int64
	mu       sync.Mutex
}

// NewWAVOutput creates an output that will write to filename on Open
func NewWAVOutput(filename string) *WAVOutput {
	return &WAVOutput{filename: filename}
}

func (w *WAVOutput) Open(sampleRate, channels, bufferSize int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		return fmt.Errorf("%s: already open", w.filename)
	}
	f, err := os.Create(w.filename)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}

	w.file = f
	w.enc = wav.NewEncoder(f, sampleRate, 16, channels, 1)
	w.buf = &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, 0, bufferSize*channels),
		SourceBitDepth: 16,
	}
	w.frames = 0
	return nil
}

func (w *WAVOutput) Write(samples []int16) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.enc == nil {
		return ErrClosed
	}
	w.buf.Data = w.buf.Data[:0]
	for _, v := range samples {
		w.buf.Data = append(w.buf.Data, int(v))
	}
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	w.frames += int64(len(samples) / w.buf.Format.NumChannels)
	return nil
}

// Close finalizes the header and closes the file
func (w *WAVOutput) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	encErr := w.enc.Close()
	fileErr := w.file.Close()
	w.file, w.enc = nil, nil
	if encErr != nil {
		return fmt.Errorf("failed to finalize WAV file: %w", encErr)
	}
	return fileErr
}

func (w *WAVOutput) IsPlaying() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file != nil
}

// Frames returns the number of frames written since Open
func (w *WAVOutput) Frames() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}
