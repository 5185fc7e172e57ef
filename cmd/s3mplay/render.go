package main

import (
	"context"
	"time"

	"github.com/olivierh59500/s3m-player/pkg/audio"
	"github.com/olivierh59500/s3m-player/pkg/st3"
)

// renderWAV writes the song to a WAV file until it wraps or ends, maxTime
// of audio was produced or ctx is cancelled. It returns the frame count.
func renderWAV(ctx context.Context, sess *st3.Session, name string, rate, buffer int, maxTime time.Duration) (int64, error) {
	out := audio.NewWAVOutput(name)
	if err := out.Open(rate, 2, buffer); err != nil {
		return 0, err
	}

	limit := int64(maxTime.Seconds() * float64(rate))
	buf := make([]int16, buffer*2)
	for out.Frames() < limit && ctx.Err() == nil {
		if sess.Loops() > 0 || sess.Ended() {
			break
		}
		sess.Render(buf)
		if err := out.Write(buf); err != nil {
			out.Close()
			return out.Frames(), err
		}
	}
	frames := out.Frames()
	return frames, out.Close()
}
